// Package privacy implements pattern-based PII detection, classification and
// formatting-preserving masking over text and arbitrary nested data, with a
// bounded in-memory audit trail.
//
// An Engine is a pure in-process component: no network, no storage. It does
// no internal locking; share one across goroutines only behind the host's
// own mutual exclusion, or give each goroutine its own instance.
package privacy

import (
	"time"

	"go.uber.org/zap"
)

// Engine is a configured PII detection and masking instance.
type Engine struct {
	cfg    Config
	crypto CryptoProvider
	logger *zap.Logger
	custom []PatternDefinition
	audit  *auditRing
}

// New creates an engine. A nil provider selects the strong SHA-256 provider;
// injecting XXHashProvider is the explicit opt-in for constrained builds.
// A nil logger disables logging.
func New(cfg Config, provider CryptoProvider, log *zap.Logger) *Engine {
	if provider == nil {
		provider = SHA256Provider{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	e := &Engine{
		cfg:    normalizeConfig(cfg),
		crypto: provider,
		logger: log,
		audit:  newAuditRing(),
	}
	log.Debug("privacy engine initialized",
		zap.Int("builtin_patterns", len(builtinPatterns)),
		zap.String("crypto_provider", provider.Name()),
	)
	return e
}

// normalizeConfig fills the fields that must never be zero.
func normalizeConfig(cfg Config) Config {
	if cfg.DefaultMaskChar == "" {
		cfg.DefaultMaskChar = "*"
	}
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = DefaultConfig().ConfidenceThreshold
	}
	return cfg
}

// Configure replaces the instance configuration. Callers wanting a partial
// update read Config, change fields and pass the result back.
func (e *Engine) Configure(cfg Config) {
	e.cfg = normalizeConfig(cfg)
	e.logger.Info("privacy engine reconfigured",
		zap.Bool("masking", e.cfg.EnableMasking),
		zap.Bool("audit", e.auditEnabled()),
		zap.Float64("confidence_threshold", e.cfg.ConfidenceThreshold),
	)
}

// Config returns a copy of the current configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

func (e *Engine) auditEnabled() bool {
	return e.cfg.AuditLog || e.cfg.GDPRMode
}

// record appends an audit entry when the audit trail is enabled. No public
// operation has a failure path that returns before its append, so Success is
// always true here.
func (e *Engine) record(op AuditOperation, dataType PIIType, field string) {
	if !e.auditEnabled() {
		return
	}
	e.audit.append(AuditEntry{
		Timestamp: time.Now(),
		Operation: op,
		DataType:  dataType,
		Field:     field,
		Success:   true,
	})
}
