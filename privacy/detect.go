package privacy

import (
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// Confidence assigned per match: structural validation is worth the bump,
// its absence is not a penalty severe enough to drop below scan thresholds.
const (
	confidenceValidated = 0.98
	confidencePattern   = 0.85
)

type posTypeKey struct {
	position int
	piiType  PIIType
	name     string
}

// Detect scans text with every applicable pattern definition and returns the
// validated matches ordered by position.
func (e *Engine) Detect(text string, opts *DetectOptions) []DetectionResult {
	e.record(OpDetect, "", "")
	return e.detect(text, opts)
}

func (e *Engine) detect(text string, opts *DetectOptions) []DetectionResult {
	var locale Locale
	if opts != nil {
		locale = opts.Locale
	}

	results := make([]DetectionResult, 0)
	seen := make(map[posTypeKey]struct{})

	for _, def := range e.allPatterns() {
		if locale != "" && !def.appliesTo(locale) {
			continue
		}
		for _, loc := range def.Pattern.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			confidence := confidencePattern
			if def.Validate != nil {
				if !def.Validate(value) {
					// Failed validation excludes the match outright: a value
					// that fails Luhn is not a card number at any confidence.
					continue
				}
				confidence = confidenceValidated
			}
			key := posTypeKey{position: loc[0], piiType: def.Type, name: def.Name}
			if _, dup := seen[key]; dup {
				// First definition in registry order wins at a given
				// position/type, making registration order the tie-break
				// for overlapping format variants.
				continue
			}
			seen[key] = struct{}{}
			results = append(results, DetectionResult{
				Type:        def.Type,
				Name:        def.Name,
				Value:       value,
				Masked:      e.mask(value, def.Type, nil),
				Position:    loc[0],
				Length:      len(value),
				Confidence:  confidence,
				Sensitivity: def.Sensitivity,
				Regulations: def.Regulations,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Position < results[j].Position
	})

	if len(results) > 0 {
		e.logger.Debug("pii detected",
			zap.Int("matches", len(results)),
			zap.Int("text_len", len(text)),
		)
	}
	return results
}

// DetectAndMask returns the text with every detected match replaced by its
// masked form. Replacements are spliced highest offset first so earlier
// replacements cannot shift later positions.
func (e *Engine) DetectAndMask(text string, opts *DetectOptions) string {
	e.record(OpDetect, "", "")
	return e.detectAndMask(text, opts)
}

func (e *Engine) detectAndMask(text string, opts *DetectOptions) string {
	results := e.detect(text, opts)
	masked := text
	for i := len(results) - 1; i >= 0; i-- {
		r := results[i]
		masked = masked[:r.Position] + r.Masked + masked[r.Position+r.Length:]
	}
	return masked
}

// Classify returns the single highest-confidence type for a value, or an
// unknown classification with zero confidence when nothing matches.
func (e *Engine) Classify(value string) Classification {
	e.record(OpDetect, "", "")
	results := e.detect(value, nil)
	if len(results) == 0 {
		return Classification{
			Type:        TypeUnknown,
			Sensitivity: SensitivityLow,
			Regulations: []string{},
		}
	}
	best := results[0]
	for _, r := range results[1:] {
		if r.Confidence > best.Confidence {
			best = r
		}
	}
	return Classification{
		Type:        best.Type,
		Sensitivity: best.Sensitivity,
		Confidence:  best.Confidence,
		Regulations: best.Regulations,
	}
}

// RegisterPattern appends a custom definition after the built-in catalog.
// Custom definitions are reported as TypeCustom carrying the declared name.
// They cannot be removed individually; ClearCustomPatterns drops them all.
func (e *Engine) RegisterPattern(def PatternDefinition) error {
	if def.Pattern == nil {
		return fmt.Errorf("pattern definition %q has no compiled pattern", def.Name)
	}
	if def.Type == "" {
		def.Type = TypeCustom
	}
	if def.Type == TypeCustom && def.Name == "" {
		return fmt.Errorf("custom pattern definition requires a name")
	}
	e.custom = append(e.custom, def)
	e.logger.Info("custom pattern registered",
		zap.String("name", def.Name),
		zap.String("type", string(def.Type)),
	)
	return nil
}

// ClearCustomPatterns resets the custom definition list to empty.
func (e *Engine) ClearCustomPatterns() {
	e.custom = nil
}

// Patterns returns the built-in catalog followed by custom definitions in
// registration order.
func (e *Engine) Patterns() []PatternDefinition {
	return e.allPatterns()
}

func (e *Engine) allPatterns() []PatternDefinition {
	all := make([]PatternDefinition, 0, len(builtinPatterns)+len(e.custom))
	all = append(all, builtinPatterns...)
	all = append(all, e.custom...)
	return all
}
