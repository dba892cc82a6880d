package privacy

import (
	"encoding/json"
	"regexp"
	"time"
)

// PIIType identifies a category of personally identifiable information.
// The built-in set is closed; caller-defined patterns are all reported as
// TypeCustom and carry their declared name in PatternDefinition.Name and
// DetectionResult.Name.
type PIIType string

const (
	TypeEmail         PIIType = "email"
	TypePhone         PIIType = "phone"
	TypeSSN           PIIType = "ssn"
	TypeCreditCard    PIIType = "credit-card"
	TypeName          PIIType = "name"
	TypeAddress       PIIType = "address"
	TypeDOB           PIIType = "dob"
	TypeIPAddress     PIIType = "ip-address"
	TypeIBAN          PIIType = "iban"
	TypePassport      PIIType = "passport"
	TypeDriverLicense PIIType = "driver-license"
	TypeUKNINO        PIIType = "uk-nino"
	TypeUKPostcode    PIIType = "uk-postcode"
	TypeCustom        PIIType = "custom"

	// TypeUnknown is only ever returned by Classify when nothing matched.
	TypeUnknown PIIType = "unknown"
)

// Locale restricts which pattern variants apply during detection.
type Locale string

const (
	LocaleUS Locale = "US"
	LocaleUK Locale = "UK"
	LocaleDE Locale = "DE"
	LocaleFR Locale = "FR"
	LocaleEU Locale = "EU"
	LocaleJP Locale = "JP"
	LocaleAU Locale = "AU"
	LocaleCA Locale = "CA"
)

// SensitivityLevel is an ordered tier describing how damaging exposure of a
// PII instance would be. The engine reports it, downstream policy enforces it.
type SensitivityLevel int

const (
	SensitivityLow SensitivityLevel = iota
	SensitivityMedium
	SensitivityHigh
	SensitivityCritical
)

func (s SensitivityLevel) String() string {
	switch s {
	case SensitivityLow:
		return "low"
	case SensitivityMedium:
		return "medium"
	case SensitivityHigh:
		return "high"
	case SensitivityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the level as its lowercase name.
func (s SensitivityLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a lowercase level name.
func (s *SensitivityLevel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "medium":
		*s = SensitivityMedium
	case "high":
		*s = SensitivityHigh
	case "critical":
		*s = SensitivityCritical
	default:
		*s = SensitivityLow
	}
	return nil
}

// ValidatorFunc is a structural predicate over a matched substring. A false
// return excludes the match entirely; it is never downgraded.
type ValidatorFunc func(match string) bool

// PatternDefinition describes one way a PII type can appear in text. A type
// may have several definitions (format or locale variants); detection runs
// them all in registry order. Definitions are immutable once registered.
type PatternDefinition struct {
	Type        PIIType
	Name        string // identifier for custom definitions, empty for built-ins
	Pattern     *regexp.Regexp
	Sensitivity SensitivityLevel
	Regulations []string
	Validate    ValidatorFunc
	Locales     []Locale // empty means applicable to all locales
}

// appliesTo reports whether the definition is applicable under the given
// locale filter.
func (d PatternDefinition) appliesTo(locale Locale) bool {
	if len(d.Locales) == 0 {
		return true
	}
	for _, l := range d.Locales {
		if l == locale {
			return true
		}
	}
	return false
}

// DetectionResult is a single validated match produced by Detect.
type DetectionResult struct {
	Type        PIIType          `json:"type"`
	Name        string           `json:"name,omitempty"`
	Value       string           `json:"value"`
	Masked      string           `json:"masked"`
	Position    int              `json:"position"`
	Length      int              `json:"length"`
	Confidence  float64          `json:"confidence"`
	Sensitivity SensitivityLevel `json:"sensitivity"`
	Regulations []string         `json:"regulations"`
}

// DetectOptions tunes a single detection pass.
type DetectOptions struct {
	// Locale skips pattern definitions restricted to disjoint locales.
	// Empty runs every definition.
	Locale Locale
}

// MaskingOptions tunes a single masking call. Both nil and the zero value
// mean the per-type defaults: mask char from the engine configuration,
// show-last 4 for phone, SSN and card numbers, separator-preserving,
// length-preserving generic masking. The booleans are opt-outs so that a
// partial literal keeps every default it does not name.
type MaskingOptions struct {
	MaskChar  string `json:"maskChar,omitempty"`
	ShowFirst int    `json:"showFirst,omitempty"`
	ShowLast  int    `json:"showLast,omitempty"`
	// DropSeparators makes the digit strategies emit digits only instead of
	// preserving the input's separator characters.
	DropSeparators bool `json:"dropSeparators,omitempty"`
	// CapLength caps generic masking at eight mask characters instead of
	// matching the input length.
	CapLength bool   `json:"capLength,omitempty"`
	Locale    Locale `json:"locale,omitempty"`
	// Pattern is the regular expression used by TypeCustom masking. Without
	// it a custom mask falls back to the generic strategy.
	Pattern string `json:"pattern,omitempty"`
}

// BatchMaskItem is one value in a MaskBatch call.
type BatchMaskItem struct {
	Value   string          `json:"value"`
	Type    PIIType         `json:"type"`
	Options *MaskingOptions `json:"options,omitempty"`
}

// ScanOptions tunes an object scan. Both nil and the zero value mean the
// defaults: deep traversal, field-name hints per the engine configuration,
// instance confidence threshold, no auto-masking. The booleans are opt-outs
// so that a partial literal keeps every default it does not name.
type ScanOptions struct {
	// Shallow short-circuits traversal entirely: the scan reports no
	// findings and returns the input unchanged.
	Shallow bool
	// IgnoreFieldNames disables the field-name hint table for this scan.
	IgnoreFieldNames bool
	// ConfidenceThreshold overrides the instance default when positive.
	ConfidenceThreshold float64
	// AutoMask populates ScanResult.Sanitized with a masked copy.
	AutoMask bool
}

// ScanFinding is one PII occurrence located by Scan, addressed by a
// dotted/indexed path into the scanned value.
type ScanFinding struct {
	Path   string  `json:"path"`
	Type   PIIType `json:"type"`
	Value  string  `json:"value"`
	Masked string  `json:"masked"`
}

// ScanResult is the outcome of an object scan. Sanitized is only populated
// when the scan ran with AutoMask.
type ScanResult struct {
	PIIFound  bool          `json:"piiFound"`
	Results   []ScanFinding `json:"results"`
	Sanitized any           `json:"sanitized,omitempty"`
}

// Classification is the single best-confidence type for a value.
type Classification struct {
	Type        PIIType          `json:"type"`
	Sensitivity SensitivityLevel `json:"sensitivity"`
	Confidence  float64          `json:"confidence"`
	Regulations []string         `json:"regulations"`
}

// Config holds the per-instance defaults read by every operation. Mutate it
// only through Configure; Engine.Config returns a copy.
type Config struct {
	EnableMasking       bool    `json:"enableMasking"`
	DefaultMaskChar     string  `json:"defaultMaskChar"`
	PreserveFormat      bool    `json:"preserveFormat"`
	EnableAutoDetect    bool    `json:"enableAutoDetect"`
	ConfidenceThreshold float64 `json:"confidenceThreshold"`
	DetectFieldNames    bool    `json:"detectFieldNames"`
	// GDPRMode forces the audit trail on regardless of AuditLog.
	GDPRMode bool   `json:"gdprMode"`
	AuditLog bool   `json:"auditLog"`
	LogLevel string `json:"logLevel"`
}

// DefaultConfig returns the configuration a fresh engine starts with.
func DefaultConfig() Config {
	return Config{
		EnableMasking:       true,
		DefaultMaskChar:     "*",
		PreserveFormat:      true,
		EnableAutoDetect:    true,
		ConfidenceThreshold: 0.7,
		DetectFieldNames:    true,
		GDPRMode:            false,
		AuditLog:            true,
		LogLevel:            "info",
	}
}

// AuditOperation names the public operation an audit entry records.
type AuditOperation string

const (
	OpMask       AuditOperation = "mask"
	OpDetect     AuditOperation = "detect"
	OpTokenize   AuditOperation = "tokenize"
	OpDetokenize AuditOperation = "detokenize"
	OpScan       AuditOperation = "scan"
)

// AuditEntry is one record in the engine's bounded in-memory audit log.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Operation AuditOperation `json:"operation"`
	DataType  PIIType        `json:"dataType,omitempty"`
	Field     string         `json:"field,omitempty"`
	Actor     string         `json:"actor,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Success   bool           `json:"success"`
}

// AuditFilter narrows an AuditLog read. Zero values match everything.
type AuditFilter struct {
	Operation AuditOperation
	Since     time.Time
	// Limit caps the result to the most recent N entries when positive.
	Limit int
}
