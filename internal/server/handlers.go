package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	ws "github.com/raaihank/pii-sentinel/internal/websocket"
	"github.com/raaihank/pii-sentinel/privacy"
)

const maxBodyBytes = 1 << 20 // 1 MiB

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// --- detection ---

type detectRequest struct {
	Text    string          `json:"text"`
	Options *detectOptsBody `json:"options,omitempty"`
}

type detectOptsBody struct {
	Locale string `json:"locale,omitempty"`
}

func (o *detectOptsBody) toEngine() *privacy.DetectOptions {
	if o == nil {
		return nil
	}
	return &privacy.DetectOptions{Locale: privacy.Locale(o.Locale)}
}

type detectResponse struct {
	Results      []privacy.DetectionResult `json:"results"`
	Count        int                       `json:"count"`
	ProcessingMS float64                   `json:"processing_ms"`
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	s.mu.Lock()
	results := s.engine.Detect(req.Text, req.Options.toEngine())
	s.mu.Unlock()
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	s.countDetections(len(results))
	s.broadcastDetection(r, "detect", results, nil, elapsed)

	writeJSON(w, http.StatusOK, detectResponse{
		Results:      results,
		Count:        len(results),
		ProcessingMS: elapsed,
	})
}

type detectMaskResponse struct {
	Masked string `json:"masked"`
}

func (s *Server) handleDetectMask(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	s.mu.Lock()
	results := s.engine.Detect(req.Text, req.Options.toEngine())
	s.mu.Unlock()
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	// Splice highest offset first so replacements cannot shift positions.
	masked := req.Text
	for i := len(results) - 1; i >= 0; i-- {
		res := results[i]
		masked = masked[:res.Position] + res.Masked + masked[res.Position+res.Length:]
	}

	s.countDetections(len(results))
	s.broadcastDetection(r, "detect-mask", results, nil, elapsed)

	writeJSON(w, http.StatusOK, detectMaskResponse{Masked: masked})
}

// --- masking ---

type maskRequest struct {
	Value   string                  `json:"value"`
	Type    privacy.PIIType         `json:"type"`
	Options *privacy.MaskingOptions `json:"options,omitempty"`
}

type maskResponse struct {
	Masked string `json:"masked"`
}

func (s *Server) handleMask(w http.ResponseWriter, r *http.Request) {
	var req maskRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}

	s.mu.Lock()
	masked := s.engine.Mask(req.Value, req.Type, req.Options)
	s.mu.Unlock()

	s.broadcastAudit(privacy.OpMask, req.Type)
	writeJSON(w, http.StatusOK, maskResponse{Masked: masked})
}

type maskBatchRequest struct {
	Items []privacy.BatchMaskItem `json:"items"`
}

type maskBatchResponse struct {
	Masked []string `json:"masked"`
}

func (s *Server) handleMaskBatch(w http.ResponseWriter, r *http.Request) {
	var req maskBatchRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	masked := s.engine.MaskBatch(req.Items)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, maskBatchResponse{Masked: masked})
}

// --- scanning ---

type scanRequest struct {
	Data    any           `json:"data"`
	Options *scanOptsBody `json:"options,omitempty"`
}

type scanOptsBody struct {
	Deep                *bool   `json:"deep,omitempty"`
	IncludeFieldNames   *bool   `json:"include_field_names,omitempty"`
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty"`
	AutoMask            bool    `json:"auto_mask,omitempty"`
}

// toEngine maps the wire options onto engine options. Absent booleans keep
// the engine defaults (deep traversal, hints per instance config).
func (o *scanOptsBody) toEngine() *privacy.ScanOptions {
	if o == nil {
		return nil
	}
	opts := &privacy.ScanOptions{
		ConfidenceThreshold: o.ConfidenceThreshold,
		AutoMask:            o.AutoMask,
	}
	if o.Deep != nil && !*o.Deep {
		opts.Shallow = true
	}
	if o.IncludeFieldNames != nil && !*o.IncludeFieldNames {
		opts.IgnoreFieldNames = true
	}
	return opts
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeBody(w, r, &req) {
		return
	}

	start := time.Now()
	s.mu.Lock()
	result := s.engine.Scan(req.Data, req.Options.toEngine())
	s.mu.Unlock()
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	s.countDetections(len(result.Results))
	if s.hub != nil && len(result.Results) > 0 {
		types := make([]privacy.PIIType, 0, len(result.Results))
		paths := make([]string, 0, len(result.Results))
		for _, f := range result.Results {
			types = append(types, f.Type)
			paths = append(paths, f.Path)
		}
		s.hub.BroadcastEvent(ws.Event{
			Type:      ws.EventTypeDetection,
			Timestamp: time.Now(),
			RequestID: requestIDFrom(r.Context()),
			Data: ws.DetectionEvent{
				RequestID:    requestIDFrom(r.Context()),
				Operation:    "scan",
				Types:        types,
				Paths:        paths,
				Count:        len(result.Results),
				ProcessingMS: elapsed,
			},
		})
	}

	writeJSON(w, http.StatusOK, result)
}

type classifyRequest struct {
	Value string `json:"value"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	classification := s.engine.Classify(req.Value)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, classification)
}

type sanitizeRequest struct {
	Data   map[string]any             `json:"data"`
	Fields map[string]privacy.PIIType `json:"fields"`
}

func (s *Server) handleSanitize(w http.ResponseWriter, r *http.Request) {
	var req sanitizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	sanitized := s.engine.SanitizeObject(req.Data, req.Fields)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"sanitized": sanitized})
}

// --- crypto ---

type anonymizeRequest struct {
	ID   string `json:"id"`
	Salt string `json:"salt,omitempty"`
}

type anonymizeResponse struct {
	AnonymousID string `json:"anonymous_id"`
}

func (s *Server) handleAnonymize(w http.ResponseWriter, r *http.Request) {
	var req anonymizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	s.mu.Lock()
	anon := s.engine.GenerateAnonymousID(req.ID, req.Salt)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, anonymizeResponse{AnonymousID: anon})
}

type tokenRequest struct {
	Length int `json:"length"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Length == 0 {
		req.Length = 32
	}

	s.mu.Lock()
	token, err := s.engine.GenerateToken(req.Length)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.broadcastAudit(privacy.OpTokenize, "")
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// --- patterns ---

type registerPatternRequest struct {
	Type        privacy.PIIType `json:"type,omitempty"`
	Name        string          `json:"name"`
	Pattern     string          `json:"pattern"`
	Sensitivity string          `json:"sensitivity,omitempty"`
	Regulations []string        `json:"regulations,omitempty"`
	Locales     []string        `json:"locales,omitempty"`
}

type patternView struct {
	Type        privacy.PIIType          `json:"type"`
	Name        string                   `json:"name,omitempty"`
	Pattern     string                   `json:"pattern"`
	Sensitivity privacy.SensitivityLevel `json:"sensitivity"`
	Regulations []string                 `json:"regulations,omitempty"`
	Locales     []privacy.Locale         `json:"locales,omitempty"`
}

func sensitivityFrom(name string) privacy.SensitivityLevel {
	switch name {
	case "medium":
		return privacy.SensitivityMedium
	case "high":
		return privacy.SensitivityHigh
	case "critical":
		return privacy.SensitivityCritical
	default:
		return privacy.SensitivityLow
	}
}

func (s *Server) handleRegisterPattern(w http.ResponseWriter, r *http.Request) {
	var req registerPatternRequest
	if !decodeBody(w, r, &req) {
		return
	}

	re, err := regexp.Compile(req.Pattern)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid pattern: %v", err))
		return
	}

	locales := make([]privacy.Locale, 0, len(req.Locales))
	for _, l := range req.Locales {
		locales = append(locales, privacy.Locale(l))
	}

	def := privacy.PatternDefinition{
		Type:        req.Type,
		Name:        req.Name,
		Pattern:     re,
		Sensitivity: sensitivityFrom(req.Sensitivity),
		Regulations: req.Regulations,
		Locales:     locales,
	}

	s.mu.Lock()
	err = s.engine.RegisterPattern(def)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{"status": "registered", "name": req.Name})
}

func (s *Server) handleListPatterns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defs := s.engine.Patterns()
	s.mu.Unlock()

	views := make([]patternView, 0, len(defs))
	for _, d := range defs {
		views = append(views, patternView{
			Type:        d.Type,
			Name:        d.Name,
			Pattern:     d.Pattern.String(),
			Sensitivity: d.Sensitivity,
			Regulations: d.Regulations,
			Locales:     d.Locales,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"patterns": views, "count": len(views)})
}

func (s *Server) handleClearPatterns(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.engine.ClearCustomPatterns()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// --- audit ---

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	filter := &privacy.AuditFilter{}

	q := r.URL.Query()
	if op := q.Get("operation"); op != "" {
		filter.Operation = privacy.AuditOperation(op)
	}
	if since := q.Get("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid since timestamp: %v", err))
			return
		}
		filter.Since = t
	}
	if limit := q.Get("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = n
	}

	s.mu.Lock()
	entries := s.engine.AuditLog(filter)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "count": len(entries)})
}

func (s *Server) handleClearAudit(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.engine.ClearAuditLog()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// --- config ---

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	cfg := s.engine.Config()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg privacy.Config
	if !decodeBody(w, r, &cfg) {
		return
	}
	if cfg.ConfidenceThreshold < 0 || cfg.ConfidenceThreshold > 1 {
		writeError(w, http.StatusBadRequest, "confidence threshold must be in [0,1]")
		return
	}

	s.mu.Lock()
	s.engine.Configure(cfg)
	applied := s.engine.Config()
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, applied)
}

// --- service ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	patternCount := len(s.engine.Patterns())
	s.mu.Unlock()

	info := map[string]any{
		"name":             "pii-sentinel",
		"version":          Version,
		"uptime":           time.Since(s.startTime).String(),
		"patterns":         patternCount,
		"total_requests":   atomic.LoadInt64(&s.totalRequests),
		"total_detections": atomic.LoadInt64(&s.totalDetections),
	}
	if s.hub != nil {
		stats := s.hub.GetStats()
		info["websocket_clients"] = stats.ActiveConnections
	}

	writeJSON(w, http.StatusOK, info)
}

// --- broadcasting ---

func (s *Server) broadcastDetection(r *http.Request, operation string, results []privacy.DetectionResult, paths []string, elapsedMS float64) {
	if s.hub == nil || len(results) == 0 {
		return
	}

	types := make([]privacy.PIIType, 0, len(results))
	for _, res := range results {
		types = append(types, res.Type)
	}

	s.hub.BroadcastEvent(ws.Event{
		Type:      ws.EventTypeDetection,
		Timestamp: time.Now(),
		RequestID: requestIDFrom(r.Context()),
		Data: ws.DetectionEvent{
			RequestID:    requestIDFrom(r.Context()),
			Operation:    operation,
			Types:        types,
			Paths:        paths,
			Count:        len(results),
			ProcessingMS: elapsedMS,
		},
	})
}

func (s *Server) broadcastAudit(op privacy.AuditOperation, dataType privacy.PIIType) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastEvent(ws.Event{
		Type:      ws.EventTypeAudit,
		Timestamp: time.Now(),
		Data: ws.AuditEvent{
			Operation: op,
			DataType:  dataType,
			Success:   true,
		},
	})
}
