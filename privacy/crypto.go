package privacy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	mathrand "math/rand"

	"github.com/cespare/xxhash/v2"
)

// CryptoProvider supplies the one-way hashing and random-byte primitives the
// engine builds anonymization on. The embedding application chooses the
// implementation at construction; the engine never auto-detects.
type CryptoProvider interface {
	Name() string
	Hash(data []byte) []byte
	RandomBytes(n int) ([]byte, error)
}

// SHA256Provider is the strong provider: SHA-256 digests and OS-sourced
// randomness. Use it unless the build environment genuinely lacks crypto
// support.
type SHA256Provider struct{}

func (SHA256Provider) Name() string { return "sha256" }

func (SHA256Provider) Hash(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

func (SHA256Provider) RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("read random bytes: %w", err)
	}
	return b, nil
}

// XXHashProvider is the weak fallback: a fast non-cryptographic 64-bit hash
// and math/rand bytes. Hash and token outputs from an engine built on it
// must not be treated as cryptographically secure.
type XXHashProvider struct{}

func (XXHashProvider) Name() string { return "xxhash" }

func (XXHashProvider) Hash(data []byte) []byte {
	out := make([]byte, 8)
	binary.BigEndian.PutUint64(out, xxhash.Sum64(data))
	return out
}

func (XXHashProvider) RandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	for i := 0; i < n; i += 8 {
		var chunk [8]byte
		binary.LittleEndian.PutUint64(chunk[:], mathrand.Uint64())
		copy(b[i:], chunk[:])
	}
	return b, nil
}

// Hash returns the hex digest of data+salt. No reverse mapping is retained.
func (e *Engine) Hash(data, salt string) string {
	digest := hex.EncodeToString(e.crypto.Hash([]byte(data + salt)))
	e.record(OpTokenize, "", "")
	return digest
}

// GenerateAnonymousID derives a stable pseudonym for an identifier:
// "anon_" plus the first 16 hex characters of hash(id+salt). Identical
// inputs always produce identical output, so repeated calls pseudonymize
// consistently without a mapping table.
func (e *Engine) GenerateAnonymousID(originalID, salt string) string {
	digest := hex.EncodeToString(e.crypto.Hash([]byte(originalID + salt)))
	if len(digest) > 16 {
		digest = digest[:16]
	}
	e.record(OpTokenize, "", "")
	return "anon_" + digest
}

// GenerateToken returns an opaque hex token of the requested byte length.
func (e *Engine) GenerateToken(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("token length must be positive, got %d", length)
	}
	b, err := e.crypto.RandomBytes(length)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	e.record(OpTokenize, "", "")
	return hex.EncodeToString(b), nil
}
