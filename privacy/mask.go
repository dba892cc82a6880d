package privacy

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Mask redacts a single value as the given PII type. Masking disabled by
// configuration and empty input are pass-throughs, never errors.
func (e *Engine) Mask(value string, piiType PIIType, opts *MaskingOptions) string {
	e.record(OpMask, piiType, "")
	return e.mask(value, piiType, opts)
}

// MaskBatch masks each item independently, preserving input order.
func (e *Engine) MaskBatch(items []BatchMaskItem) []string {
	e.record(OpMask, "", "")
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = e.mask(item.Value, item.Type, item.Options)
	}
	return out
}

// mask is the non-auditing strategy dispatch shared by every operation that
// produces masked output.
func (e *Engine) mask(value string, piiType PIIType, opts *MaskingOptions) string {
	if !e.cfg.EnableMasking || value == "" {
		return value
	}
	o := e.maskOptions(piiType, opts)
	switch piiType {
	case TypeEmail:
		return maskEmail(value, o)
	case TypePhone, TypeSSN:
		return maskDigits(value, o)
	case TypeCreditCard:
		return maskDigits(value, o)
	case TypeIBAN:
		return maskIBAN(value, o)
	case TypeIPAddress:
		return maskIPAddress(value, o)
	case TypeUKNINO:
		return maskNINO(value, o)
	case TypeUKPostcode:
		return maskPostcode(value, o)
	case TypeName:
		return maskName(value, o)
	case TypeCustom:
		return e.maskCustom(value, o)
	default:
		return maskGeneric(value, o)
	}
}

// maskOptions merges per-call options over the per-type defaults. A zero
// ShowLast on phone, SSN and card numbers means the default of 4. An
// instance configured with PreserveFormat off drops separators regardless
// of the per-call flag; per-call DropSeparators can only narrow further.
func (e *Engine) maskOptions(piiType PIIType, opts *MaskingOptions) *MaskingOptions {
	o := MaskingOptions{MaskChar: e.cfg.DefaultMaskChar}
	if opts != nil {
		o = *opts
		if o.MaskChar == "" {
			o.MaskChar = e.cfg.DefaultMaskChar
		}
	}
	if o.ShowLast == 0 {
		switch piiType {
		case TypePhone, TypeSSN, TypeCreditCard:
			o.ShowLast = 4
		}
	}
	if !e.cfg.PreserveFormat {
		o.DropSeparators = true
	}
	if o.ShowFirst < 0 {
		o.ShowFirst = 0
	}
	if o.ShowLast < 0 {
		o.ShowLast = 0
	}
	return &o
}

// maskEmail keeps the first and last character of the local part (fully
// masking local parts of one or two characters) and never touches the domain.
func maskEmail(value string, o *MaskingOptions) string {
	at := strings.LastIndex(value, "@")
	if at <= 0 {
		return maskGeneric(value, o)
	}
	local, domain := value[:at], value[at:]
	if len(local) <= 2 {
		return strings.Repeat(o.MaskChar, len(local)) + domain
	}
	return local[:1] + strings.Repeat(o.MaskChar, 3) + local[len(local)-1:] + domain
}

// maskDigits masks the digits of a value except the first ShowFirst and last
// ShowLast. Non-digit separators are kept verbatim unless DropSeparators is
// set. Covers phone, SSN and card numbers.
func maskDigits(value string, o *MaskingOptions) string {
	total := len(digitsOf(value))
	if total == 0 {
		return maskGeneric(value, o)
	}
	keepHead := o.ShowFirst
	keepTail := o.ShowLast
	// Nothing to hide: keep the value as-is rather than reformatting it.
	if keepHead+keepTail >= total {
		return value
	}
	var b strings.Builder
	seen := 0
	for _, r := range value {
		if r < '0' || r > '9' {
			if !o.DropSeparators {
				b.WriteRune(r)
			}
			continue
		}
		if seen < keepHead || seen >= total-keepTail {
			b.WriteRune(r)
		} else {
			b.WriteString(o.MaskChar)
		}
		seen++
	}
	return b.String()
}

// maskIBAN keeps the two-letter country prefix and the last four characters;
// the masked middle reflects the true cleaned length minus six.
func maskIBAN(value string, o *MaskingOptions) string {
	cleaned := strings.ToUpper(strings.ReplaceAll(value, " ", ""))
	if len(cleaned) <= 6 {
		return maskGeneric(value, o)
	}
	return cleaned[:2] + " " + strings.Repeat(o.MaskChar, len(cleaned)-6) + " " + cleaned[len(cleaned)-4:]
}

// maskIPAddress masks the first two octets of an IPv4 address, or every
// inner colon-group of an IPv6 address.
func maskIPAddress(value string, o *MaskingOptions) string {
	if strings.Contains(value, ".") {
		octets := strings.Split(value, ".")
		if len(octets) == 4 {
			octets[0] = strings.Repeat(o.MaskChar, len(octets[0]))
			octets[1] = strings.Repeat(o.MaskChar, len(octets[1]))
			return strings.Join(octets, ".")
		}
	}
	if strings.Contains(value, ":") {
		groups := strings.Split(value, ":")
		if len(groups) >= 3 {
			for i := 1; i < len(groups)-1; i++ {
				groups[i] = strings.Repeat(o.MaskChar, len(groups[i]))
			}
			return strings.Join(groups, ":")
		}
	}
	return maskGeneric(value, o)
}

// maskNINO masks everything but the final suffix character.
func maskNINO(value string, o *MaskingOptions) string {
	if len(value) < 2 {
		return maskGeneric(value, o)
	}
	return strings.Repeat(o.MaskChar, len(value)-1) + value[len(value)-1:]
}

// maskPostcode masks the outward code and keeps the inward code. Inputs that
// do not split into exactly two tokens keep only their last three characters.
func maskPostcode(value string, o *MaskingOptions) string {
	parts := strings.Fields(value)
	if len(parts) == 2 {
		return strings.Repeat(o.MaskChar, len(parts[0])) + " " + parts[1]
	}
	if len(value) <= 3 {
		return value
	}
	return strings.Repeat(o.MaskChar, len(value)-3) + value[len(value)-3:]
}

// maskName keeps the first character of each whitespace-separated token;
// single-character tokens pass through unmasked.
func maskName(value string, o *MaskingOptions) string {
	tokens := strings.Fields(value)
	for i, tok := range tokens {
		runes := []rune(tok)
		if len(runes) <= 1 {
			continue
		}
		tokens[i] = string(runes[0]) + strings.Repeat(o.MaskChar, len(runes)-1)
	}
	return strings.Join(tokens, " ")
}

// maskCustom replaces each match of the caller-supplied pattern with mask
// characters of the same length. A missing or malformed pattern falls back
// to generic masking, which fails safe by covering the whole value.
func (e *Engine) maskCustom(value string, o *MaskingOptions) string {
	if o.Pattern == "" {
		return maskGeneric(value, o)
	}
	re, err := regexp.Compile(o.Pattern)
	if err != nil {
		e.logger.Warn("invalid custom mask pattern, masking whole value",
			zap.String("pattern", o.Pattern),
			zap.Error(err),
		)
		return maskGeneric(value, o)
	}
	return re.ReplaceAllStringFunc(value, func(m string) string {
		return strings.Repeat(o.MaskChar, len(m))
	})
}

// maskGeneric covers the full length, or caps the output at eight mask
// characters when CapLength is set.
func maskGeneric(value string, o *MaskingOptions) string {
	n := len([]rune(value))
	if o.CapLength && n > 8 {
		n = 8
	}
	return strings.Repeat(o.MaskChar, n)
}
