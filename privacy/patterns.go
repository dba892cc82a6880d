package privacy

import (
	"regexp"
	"strconv"
	"strings"
)

// digitsOf strips everything but ASCII digits.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// validateLuhn checks card-number plausibility: 13-19 digits passing the
// Luhn checksum (double every second digit from the right, subtract 9 when
// the double exceeds 9, total must be divisible by 10).
func validateLuhn(match string) bool {
	digits := digitsOf(match)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// validateSSN rejects values that cannot be social security numbers:
// anything other than 9 digits, or area codes 000, 666 and 900-999.
func validateSSN(match string) bool {
	digits := digitsOf(match)
	if len(digits) != 9 {
		return false
	}
	area, err := strconv.Atoi(digits[:3])
	if err != nil {
		return false
	}
	if area == 0 || area == 666 || area >= 900 {
		return false
	}
	return true
}

// validateIPv4 requires each dot-separated octet to be an integer in [0,255].
func validateIPv4(match string) bool {
	octets := strings.Split(match, ".")
	if len(octets) != 4 {
		return false
	}
	for _, o := range octets {
		n, err := strconv.Atoi(o)
		if err != nil || n < 0 || n > 255 {
			return false
		}
	}
	return true
}

// builtinPatterns is the fixed, ordered catalog of PII definitions.
// Registry order is the tie-break for overlapping definitions of the same
// type, so keep more specific variants first.
var builtinPatterns = []PatternDefinition{
	{
		Type:        TypeEmail,
		Pattern:     regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
		Sensitivity: SensitivityMedium,
		Regulations: []string{"GDPR", "CCPA"},
	},
	{
		Type:        TypePhone,
		Pattern:     regexp.MustCompile(`\b(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		Sensitivity: SensitivityMedium,
		Regulations: []string{"GDPR", "CCPA"},
		Locales:     []Locale{LocaleUS, LocaleCA},
	},
	{
		Type:        TypePhone,
		Pattern:     regexp.MustCompile(`\b(?:\+44\s?\d{4}|\(?0\d{3,4}\)?)[\s-]?\d{3}[\s-]?\d{3,4}\b`),
		Sensitivity: SensitivityMedium,
		Regulations: []string{"GDPR"},
		Locales:     []Locale{LocaleUK},
	},
	{
		Type:        TypeSSN,
		Pattern:     regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
		Sensitivity: SensitivityCritical,
		Regulations: []string{"HIPAA", "CCPA"},
		Validate:    validateSSN,
		Locales:     []Locale{LocaleUS},
	},
	{
		Type:        TypeSSN,
		Pattern:     regexp.MustCompile(`\b\d{3} \d{2} \d{4}\b`),
		Sensitivity: SensitivityCritical,
		Regulations: []string{"HIPAA", "CCPA"},
		Validate:    validateSSN,
		Locales:     []Locale{LocaleUS},
	},
	{
		Type:        TypeCreditCard,
		Pattern:     regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
		Sensitivity: SensitivityCritical,
		Regulations: []string{"PCI-DSS", "GDPR"},
		Validate:    validateLuhn,
	},
	{
		Type:        TypeName,
		Pattern:     regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Dr|Prof)\.?\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`),
		Sensitivity: SensitivityMedium,
		Regulations: []string{"GDPR", "CCPA"},
	},
	{
		Type:        TypeAddress,
		Pattern:     regexp.MustCompile(`\b\d{1,5}\s+(?:[A-Z][a-z]+\s+){0,3}[A-Z][a-z]+\s+(?:Street|St|Avenue|Ave|Road|Rd|Boulevard|Blvd|Lane|Ln|Drive|Dr|Court|Ct|Place|Pl|Way)\b`),
		Sensitivity: SensitivityMedium,
		Regulations: []string{"GDPR", "CCPA"},
		Locales:     []Locale{LocaleUS, LocaleCA, LocaleUK, LocaleAU},
	},
	{
		Type:        TypeDOB,
		Pattern:     regexp.MustCompile(`\b(?:0?[1-9]|1[0-2])[/-](?:0?[1-9]|[12]\d|3[01])[/-](?:19|20)\d{2}\b`),
		Sensitivity: SensitivityHigh,
		Regulations: []string{"GDPR", "HIPAA", "CCPA"},
	},
	{
		Type:        TypeDOB,
		Pattern:     regexp.MustCompile(`\b(?:19|20)\d{2}-(?:0[1-9]|1[0-2])-(?:0[1-9]|[12]\d|3[01])\b`),
		Sensitivity: SensitivityHigh,
		Regulations: []string{"GDPR", "HIPAA", "CCPA"},
	},
	{
		Type:        TypeIPAddress,
		Pattern:     regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
		Sensitivity: SensitivityLow,
		Regulations: []string{"GDPR"},
		Validate:    validateIPv4,
	},
	{
		Type:        TypeIPAddress,
		Pattern:     regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`),
		Sensitivity: SensitivityLow,
		Regulations: []string{"GDPR"},
	},
	{
		Type:        TypeIBAN,
		Pattern:     regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`),
		Sensitivity: SensitivityCritical,
		Regulations: []string{"GDPR", "PCI-DSS"},
		Locales:     []Locale{LocaleEU, LocaleUK, LocaleDE, LocaleFR},
	},
	{
		Type:        TypePassport,
		Pattern:     regexp.MustCompile(`\b[A-Z]{1,2}\d{7,8}\b`),
		Sensitivity: SensitivityHigh,
		Regulations: []string{"GDPR"},
	},
	{
		Type:        TypeDriverLicense,
		Pattern:     regexp.MustCompile(`\b[A-Z]\d{7}\b`),
		Sensitivity: SensitivityHigh,
		Regulations: []string{"GDPR", "CCPA"},
		Locales:     []Locale{LocaleUS},
	},
	{
		Type:        TypeUKNINO,
		Pattern:     regexp.MustCompile(`\b[A-CEGHJ-PR-TW-Z]{2}\d{6}[A-D]\b`),
		Sensitivity: SensitivityHigh,
		Regulations: []string{"GDPR"},
		Locales:     []Locale{LocaleUK},
	},
	{
		Type:        TypeUKPostcode,
		Pattern:     regexp.MustCompile(`\b[A-Z]{1,2}\d[A-Z\d]?\s?\d[A-Z]{2}\b`),
		Sensitivity: SensitivityMedium,
		Regulations: []string{"GDPR"},
		Locales:     []Locale{LocaleUK},
	},
}
