package config

import (
	"time"

	"github.com/raaihank/pii-sentinel/privacy"
)

// Config represents the main configuration structure.
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Engine    EngineConfig    `yaml:"engine" mapstructure:"engine"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
}

// EngineConfig contains the privacy engine defaults and provider selection.
type EngineConfig struct {
	EnableMasking       bool    `yaml:"enable_masking" mapstructure:"enable_masking"`
	DefaultMaskChar     string  `yaml:"default_mask_char" mapstructure:"default_mask_char"`
	PreserveFormat      bool    `yaml:"preserve_format" mapstructure:"preserve_format"`
	EnableAutoDetect    bool    `yaml:"enable_auto_detect" mapstructure:"enable_auto_detect"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	DetectFieldNames    bool    `yaml:"detect_field_names" mapstructure:"detect_field_names"`
	GDPRMode            bool    `yaml:"gdpr_mode" mapstructure:"gdpr_mode"`
	AuditLog            bool    `yaml:"audit_log" mapstructure:"audit_log"`
	// CryptoProvider selects the hashing implementation: sha256 or xxhash.
	CryptoProvider string `yaml:"crypto_provider" mapstructure:"crypto_provider"`
}

// ToPrivacy converts the service-level engine section into the engine's own
// configuration structure.
func (c EngineConfig) ToPrivacy(logLevel string) privacy.Config {
	return privacy.Config{
		EnableMasking:       c.EnableMasking,
		DefaultMaskChar:     c.DefaultMaskChar,
		PreserveFormat:      c.PreserveFormat,
		EnableAutoDetect:    c.EnableAutoDetect,
		ConfidenceThreshold: c.ConfidenceThreshold,
		DetectFieldNames:    c.DetectFieldNames,
		GDPRMode:            c.GDPRMode,
		AuditLog:            c.AuditLog,
		LogLevel:            logLevel,
	}
}

// Provider returns the configured crypto provider implementation.
func (c EngineConfig) Provider() privacy.CryptoProvider {
	if c.CryptoProvider == "xxhash" {
		return privacy.XXHashProvider{}
	}
	return privacy.SHA256Provider{}
}

// RateLimitConfig contains per-client rate limiting configuration.
type RateLimitConfig struct {
	Enabled        bool `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerMin int  `yaml:"requests_per_min" mapstructure:"requests_per_min"`
	Burst          int  `yaml:"burst" mapstructure:"burst"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
		Path    string `yaml:"path" mapstructure:"path"`
	} `yaml:"file" mapstructure:"file"`
}

// WebSocketConfig contains WebSocket configuration.
type WebSocketConfig struct {
	Enabled         bool     `yaml:"enabled" mapstructure:"enabled"`
	Path            string   `yaml:"path" mapstructure:"path"`
	ReadBufferSize  int      `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int      `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	AllowedOrigins  []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	Username        string   `yaml:"username" mapstructure:"username"`
	Password        string   `yaml:"password" mapstructure:"password"`
	Events          struct {
		BroadcastDetections  bool `yaml:"broadcast_detections" mapstructure:"broadcast_detections"`
		BroadcastAudit       bool `yaml:"broadcast_audit" mapstructure:"broadcast_audit"`
		BroadcastSystem      bool `yaml:"broadcast_system" mapstructure:"broadcast_system"`
		BroadcastConnections bool `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
	} `yaml:"events" mapstructure:"events"`
}

// GetDefaults returns a configuration with sensible defaults.
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Engine: EngineConfig{
			EnableMasking:       true,
			DefaultMaskChar:     "*",
			PreserveFormat:      true,
			EnableAutoDetect:    true,
			ConfidenceThreshold: 0.7,
			DetectFieldNames:    true,
			GDPRMode:            false,
			AuditLog:            true,
			CryptoProvider:      "sha256",
		},
		RateLimit: RateLimitConfig{
			Enabled:        true,
			RequestsPerMin: 600,
			Burst:          50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		WebSocket: WebSocketConfig{
			Enabled:         true,
			Path:            "/ws",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			AllowedOrigins:  []string{"*"},
		},
	}
	cfg.WebSocket.Events.BroadcastDetections = true
	cfg.WebSocket.Events.BroadcastAudit = true
	cfg.WebSocket.Events.BroadcastSystem = true
	cfg.WebSocket.Events.BroadcastConnections = true
	return cfg
}
