package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raaihank/pii-sentinel/internal/config"
	"github.com/raaihank/pii-sentinel/internal/logger"
	"github.com/raaihank/pii-sentinel/privacy"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.GetDefaults()
	cfg.RateLimit.Enabled = false
	cfg.WebSocket.Enabled = false

	log, err := logger.New(logger.Config{Level: "error", Format: "json"})
	require.NoError(t, err)

	s, err := New(cfg, log)
	require.NoError(t, err)
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestDetectEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/detect", map[string]any{
		"text": "Contact john@example.com or call 555-123-4567",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Results []privacy.DetectionResult `json:"results"`
		Count   int                       `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Count)
	assert.Equal(t, privacy.TypeEmail, resp.Results[0].Type)
	assert.Equal(t, privacy.TypePhone, resp.Results[1].Type)
}

func TestDetectRejectsMalformedBody(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/detect", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectMaskEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/detect-mask", map[string]any{
		"text": "SSN: 123-45-6789",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Masked string `json:"masked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "SSN: ***-**-6789", resp.Masked)
}

func TestMaskEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/mask", map[string]any{
		"value": "user@example.com",
		"type":  "email",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Masked string `json:"masked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u***r@example.com", resp.Masked)
}

func TestMaskRequiresType(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/mask", map[string]any{
		"value": "user@example.com",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMaskBatchEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/mask-batch", map[string]any{
		"items": []map[string]any{
			{"value": "user@example.com", "type": "email"},
			{"value": "123-45-6789", "type": "ssn"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Masked []string `json:"masked"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Masked, 2)
	assert.Equal(t, "u***r@example.com", resp.Masked[0])
	assert.Equal(t, "***-**-6789", resp.Masked[1])
}

func TestScanEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/scan", map[string]any{
		"data": map[string]any{
			"ssn":  "123-45-6789",
			"note": "nothing here",
		},
		"options": map[string]any{"auto_mask": true},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp privacy.ScanResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.PIIFound)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "ssn", resp.Results[0].Path)

	sanitized, ok := resp.Sanitized.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "***-**-6789", sanitized["ssn"])
}

func TestClassifyEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/classify", map[string]any{
		"value": "4532015112830366",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp privacy.Classification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, privacy.TypeCreditCard, resp.Type)
	assert.Equal(t, 0.98, resp.Confidence)
}

func TestSanitizeEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/sanitize", map[string]any{
		"data":   map[string]any{"Email": "user@example.com", "plain": "keep"},
		"fields": map[string]string{"email": "email"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Sanitized map[string]any `json:"sanitized"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u***r@example.com", resp.Sanitized["Email"])
	assert.Equal(t, "keep", resp.Sanitized["plain"])
}

func TestAnonymizeEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/anonymize", map[string]any{
		"id": "user-42", "salt": "pepper",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		AnonymousID string `json:"anonymous_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Regexp(t, `^anon_[0-9a-f]{16}$`, resp.AnonymousID)

	again := doJSON(t, s, http.MethodPost, "/v1/anonymize", map[string]any{
		"id": "user-42", "salt": "pepper",
	})
	var resp2 struct {
		AnonymousID string `json:"anonymous_id"`
	}
	require.NoError(t, json.Unmarshal(again.Body.Bytes(), &resp2))
	assert.Equal(t, resp.AnonymousID, resp2.AnonymousID)
}

func TestTokenEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/tokens", map[string]any{"length": 16})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Regexp(t, `^[0-9a-f]{32}$`, resp.Token)
}

func TestRegisterAndListPatterns(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/patterns", map[string]any{
		"name":        "employee-id",
		"pattern":     `EMP-\d{6}`,
		"sensitivity": "high",
		"regulations": []string{"internal"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	list := doJSON(t, s, http.MethodGet, "/v1/patterns", nil)
	require.Equal(t, http.StatusOK, list.Code)

	var resp struct {
		Patterns []patternView `json:"patterns"`
		Count    int           `json:"count"`
	}
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &resp))
	require.NotZero(t, resp.Count)

	last := resp.Patterns[len(resp.Patterns)-1]
	assert.Equal(t, privacy.TypeCustom, last.Type)
	assert.Equal(t, "employee-id", last.Name)
	assert.Equal(t, privacy.SensitivityHigh, last.Sensitivity)

	detect := doJSON(t, s, http.MethodPost, "/v1/detect", map[string]any{
		"text": "badge EMP-123456 issued",
	})
	var detectResp struct {
		Results []privacy.DetectionResult `json:"results"`
	}
	require.NoError(t, json.Unmarshal(detect.Body.Bytes(), &detectResp))
	require.Len(t, detectResp.Results, 1)
	assert.Equal(t, "employee-id", detectResp.Results[0].Name)
}

func TestRegisterPatternRejectsBadRegex(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/patterns", map[string]any{
		"name":    "broken",
		"pattern": "(unclosed",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterPatternRequiresName(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/v1/patterns", map[string]any{
		"pattern": `\d+`,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditEndpoints(t *testing.T) {
	s := newTestServer(t)

	doJSON(t, s, http.MethodPost, "/v1/mask", map[string]any{
		"value": "user@example.com", "type": "email",
	})
	doJSON(t, s, http.MethodPost, "/v1/detect", map[string]any{
		"text": "user@example.com",
	})

	rec := doJSON(t, s, http.MethodGet, "/v1/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Entries []privacy.AuditEntry `json:"entries"`
		Count   int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)

	filtered := doJSON(t, s, http.MethodGet, "/v1/audit?operation=mask", nil)
	require.NoError(t, json.Unmarshal(filtered.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, privacy.OpMask, resp.Entries[0].Operation)

	cleared := doJSON(t, s, http.MethodDelete, "/v1/audit", nil)
	require.Equal(t, http.StatusOK, cleared.Code)

	after := doJSON(t, s, http.MethodGet, "/v1/audit", nil)
	require.NoError(t, json.Unmarshal(after.Body.Bytes(), &resp))
	assert.Zero(t, resp.Count)
}

func TestAuditRejectsBadSince(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/v1/audit?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigRoundTrip(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/v1/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cfg privacy.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, 0.7, cfg.ConfidenceThreshold)

	cfg.ConfidenceThreshold = 0.9
	cfg.GDPRMode = true
	put := doJSON(t, s, http.MethodPut, "/v1/config", cfg)
	require.Equal(t, http.StatusOK, put.Code)

	var applied privacy.Config
	require.NoError(t, json.Unmarshal(put.Body.Bytes(), &applied))
	assert.Equal(t, 0.9, applied.ConfidenceThreshold)
	assert.True(t, applied.GDPRMode)
}

func TestConfigRejectsBadThreshold(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPut, "/v1/config", map[string]any{
		"confidenceThreshold": 1.5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := config.GetDefaults()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.RequestsPerMin = 60
	cfg.RateLimit.Burst = 2
	cfg.WebSocket.Enabled = false

	log, err := logger.New(logger.Config{Level: "error", Format: "json"})
	require.NoError(t, err)

	s, err := New(cfg, log)
	require.NoError(t, err)

	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)

	// A different client gets its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.0.0.2:12345"
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInfoEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/info", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "pii-sentinel", resp["name"])
	assert.NotZero(t, resp["patterns"])
}
