package prompt

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// PIIType represents different types of PII that can be detected
type PIIType string

const (
	PIITypeEmail      PIIType = "email"
	PIITypePhone      PIIType = "phone"
	PIITypeSSN        PIIType = "ssn"
	PIITypeCreditCard PIIType = "credit_card"
	PIITypeIPAddress  PIIType = "ip_address"
)

// PIIDetection represents a detected PII instance
type PIIDetection struct {
	Type     PIIType
	Value    string
	StartPos int
	EndPos   int
}

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	// separators are required so that bare epoch timestamps are left alone
	phonePattern = regexp.MustCompile(`(\+\d{1,3}[-.\s])?\(?\b\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`)

	ssnPattern = regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)

	creditCardPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)

	ipv4Pattern = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\.){3}(?:25[0-5]|2[0-4]\d|[01]?\d\d?)\b`)

	// sensitiveKeys are reservation fields whose whole value is personal data
	sensitiveKeys = map[string]struct{}{
		"email":          {},
		"emailaddress":   {},
		"phone":          {},
		"phonenumber":    {},
		"mobile":         {},
		"telephone":      {},
		"studentid":      {},
		"studentnumber":  {},
		"idnumber":       {},
		"nationalid":     {},
		"passport":       {},
		"passportnumber": {},
		"ssn":            {},
	}
)

// DetectAllPII returns all PII detections in the text, ordered by position.
// Overlapping detections keep the earliest, longest match.
func DetectAllPII(text string) []PIIDetection {
	var detections []PIIDetection

	collect := func(kind PIIType, re *regexp.Regexp, accept func(string) bool) {
		for _, m := range re.FindAllStringIndex(text, -1) {
			value := text[m[0]:m[1]]
			if accept != nil && !accept(value) {
				continue
			}
			detections = append(detections, PIIDetection{Type: kind, Value: value, StartPos: m[0], EndPos: m[1]})
		}
	}

	collect(PIITypeEmail, emailPattern, nil)
	collect(PIITypeCreditCard, creditCardPattern, luhnCheck)
	collect(PIITypeSSN, ssnPattern, nil)
	collect(PIITypePhone, phonePattern, nil)
	collect(PIITypeIPAddress, ipv4Pattern, nil)

	sort.SliceStable(detections, func(i, j int) bool {
		if detections[i].StartPos != detections[j].StartPos {
			return detections[i].StartPos < detections[j].StartPos
		}
		return detections[i].EndPos > detections[j].EndPos
	})

	merged := detections[:0]
	end := -1
	for _, d := range detections {
		if d.StartPos < end {
			continue
		}
		merged = append(merged, d)
		end = d.EndPos
	}
	return merged
}

// RedactPII replaces every detected PII value with a typed placeholder
func RedactPII(text string) string {
	detections := DetectAllPII(text)
	if len(detections) == 0 {
		return text
	}

	var b strings.Builder
	last := 0
	for _, d := range detections {
		b.WriteString(text[last:d.StartPos])
		b.WriteString(redactionString(d.Type))
		last = d.EndPos
	}
	b.WriteString(text[last:])
	return b.String()
}

// IsSensitiveKey reports whether a reservation field holds personal data as
// a whole, e.g. "studentId" or "contact_email".
func IsSensitiveKey(key string) bool {
	var b strings.Builder
	for _, r := range strings.ToLower(key) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	normalized := b.String()

	if _, ok := sensitiveKeys[normalized]; ok {
		return true
	}
	for k := range sensitiveKeys {
		if len(k) >= 5 && strings.HasSuffix(normalized, k) {
			return true
		}
	}
	return false
}

// RedactedValue is the placeholder used for sensitive fields.
const RedactedValue = "[REDACTED]"

func redactionString(piiType PIIType) string {
	switch piiType {
	case PIITypeEmail:
		return "[EMAIL_REDACTED]"
	case PIITypePhone:
		return "[PHONE_REDACTED]"
	case PIITypeSSN:
		return "[SSN_REDACTED]"
	case PIITypeCreditCard:
		return "[CC_REDACTED]"
	case PIITypeIPAddress:
		return "[IP_REDACTED]"
	default:
		return RedactedValue
	}
}

// luhnCheck validates a card number using the Luhn algorithm
func luhnCheck(cardNumber string) bool {
	cardNumber = strings.NewReplacer(" ", "", "-", "").Replace(cardNumber)
	if len(cardNumber) < 13 || len(cardNumber) > 19 {
		return false
	}

	sum := 0
	isSecond := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		digit := int(cardNumber[i] - '0')
		if isSecond {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		isSecond = !isSecond
	}
	return sum%10 == 0
}
