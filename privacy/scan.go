package privacy

import (
	"fmt"
	"sort"
	"strings"
)

// fieldHints maps normalized field names to the PII type they declare.
// A hint is schema intent: it takes absolute priority over regex detection,
// so a field named "ssn" is treated as sensitive even when its value is
// malformed.
var fieldHints = map[string]PIIType{
	"email":         TypeEmail,
	"e_mail":        TypeEmail,
	"email_address": TypeEmail,
	"mail":          TypeEmail,

	"phone":        TypePhone,
	"phone_number": TypePhone,
	"telephone":    TypePhone,
	"mobile":       TypePhone,
	"cell":         TypePhone,

	"ssn":                    TypeSSN,
	"social_security":        TypeSSN,
	"social_security_number": TypeSSN,

	"credit_card": TypeCreditCard,
	"card_number": TypeCreditCard,
	"cc_number":   TypeCreditCard,
	"pan":         TypeCreditCard,

	"name":       TypeName,
	"full_name":  TypeName,
	"first_name": TypeName,
	"last_name":  TypeName,
	"surname":    TypeName,

	"address":        TypeAddress,
	"street_address": TypeAddress,
	"home_address":   TypeAddress,

	"dob":           TypeDOB,
	"date_of_birth": TypeDOB,
	"birthday":      TypeDOB,
	"birth_date":    TypeDOB,
	"birthdate":     TypeDOB,

	"ip":         TypeIPAddress,
	"ip_address": TypeIPAddress,
	"client_ip":  TypeIPAddress,

	"iban":         TypeIBAN,
	"bank_account": TypeIBAN,

	"passport":        TypePassport,
	"passport_number": TypePassport,

	"driver_license":  TypeDriverLicense,
	"drivers_license": TypeDriverLicense,
	"license_number":  TypeDriverLicense,

	"nino":                      TypeUKNINO,
	"national_insurance":        TypeUKNINO,
	"national_insurance_number": TypeUKNINO,

	"zip":         TypeUKPostcode,
	"zip_code":    TypeUKPostcode,
	"postcode":    TypeUKPostcode,
	"postal_code": TypeUKPostcode,
}

func hintFor(key string) (PIIType, bool) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(key, "-", "_"), " ", "_"))
	t, ok := fieldHints[normalized]
	return t, ok
}

// Scan walks arbitrary nested data (maps, slices, scalars) depth-first and
// reports every PII finding with a dotted/indexed path ("user.emails[0]").
// Field-name hints are consulted before the detector at each string leaf.
// With AutoMask the result carries a sanitized copy; the input is never
// mutated.
func (e *Engine) Scan(value any, opts *ScanOptions) ScanResult {
	e.record(OpScan, "", "")

	o := opts
	if o == nil {
		o = &ScanOptions{}
	}
	if o.Shallow {
		res := ScanResult{Results: []ScanFinding{}}
		if o.AutoMask {
			res.Sanitized = value
		}
		return res
	}

	findings := make([]ScanFinding, 0)
	sanitized := e.scanValue(value, "", "", o, &findings)

	// Map traversal order is not deterministic; normalize output by path.
	sort.Slice(findings, func(i, j int) bool {
		return findings[i].Path < findings[j].Path
	})

	res := ScanResult{
		PIIFound: len(findings) > 0,
		Results:  findings,
	}
	if o.AutoMask {
		res.Sanitized = sanitized
	}
	return res
}

// scanValue recurses through maps and slices, returning the (possibly
// masked) replacement for v. key is the last path segment, consulted for
// field-name hints at string leaves.
func (e *Engine) scanValue(v any, path, key string, o *ScanOptions, findings *[]ScanFinding) any {
	switch val := v.(type) {
	case map[string]any:
		out := val
		if o.AutoMask {
			out = make(map[string]any, len(val))
		}
		for k, child := range val {
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			replaced := e.scanValue(child, childPath, k, o, findings)
			if o.AutoMask {
				out[k] = replaced
			}
		}
		return out
	case []any:
		out := val
		if o.AutoMask {
			out = make([]any, len(val))
		}
		for i, child := range val {
			childPath := fmt.Sprintf("%s[%d]", path, i)
			replaced := e.scanValue(child, childPath, key, o, findings)
			if o.AutoMask {
				out[i] = replaced
			}
		}
		return out
	case string:
		return e.scanString(val, path, key, o, findings)
	default:
		// Non-string scalars pass through unchanged.
		return v
	}
}

func (e *Engine) scanString(value, path, key string, o *ScanOptions, findings *[]ScanFinding) any {
	if key != "" && e.cfg.DetectFieldNames && !o.IgnoreFieldNames {
		if hinted, ok := hintFor(key); ok {
			masked := e.mask(value, hinted, nil)
			*findings = append(*findings, ScanFinding{
				Path:   path,
				Type:   hinted,
				Value:  value,
				Masked: masked,
			})
			if o.AutoMask {
				return masked
			}
			return value
		}
	}

	if !e.cfg.EnableAutoDetect {
		return value
	}

	threshold := o.ConfidenceThreshold
	if threshold <= 0 {
		threshold = e.cfg.ConfidenceThreshold
	}

	matched := false
	for _, r := range e.detect(value, nil) {
		if r.Confidence < threshold {
			continue
		}
		matched = true
		*findings = append(*findings, ScanFinding{
			Path:   path,
			Type:   r.Type,
			Value:  r.Value,
			Masked: r.Masked,
		})
	}
	if matched && o.AutoMask {
		return e.detectAndMask(value, nil)
	}
	return value
}

// SanitizeObject masks explicitly declared fields, independent of
// auto-detection. fieldMappings keys are matched case-insensitively against
// map keys at any depth. The input is never mutated.
func (e *Engine) SanitizeObject(obj map[string]any, fieldMappings map[string]PIIType) map[string]any {
	e.record(OpMask, "", "")
	normalized := make(map[string]PIIType, len(fieldMappings))
	for k, t := range fieldMappings {
		normalized[strings.ToLower(k)] = t
	}
	return e.sanitizeMap(obj, normalized)
}

func (e *Engine) sanitizeMap(obj map[string]any, fields map[string]PIIType) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[k] = e.sanitizeValue(k, v, fields)
	}
	return out
}

func (e *Engine) sanitizeValue(key string, v any, fields map[string]PIIType) any {
	switch val := v.(type) {
	case map[string]any:
		return e.sanitizeMap(val, fields)
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = e.sanitizeValue(key, child, fields)
		}
		return out
	case string:
		if t, ok := fields[strings.ToLower(key)]; ok {
			return e.mask(val, t, nil)
		}
		return val
	default:
		return v
	}
}
