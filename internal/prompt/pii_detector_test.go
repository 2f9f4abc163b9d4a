package prompt

import (
	"strings"
	"testing"
)

func TestDetectAllPII(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantTypes []PIIType
	}{
		{"no pii", "Group project discussion for CS201 midterm", nil},
		{"email", "Contact me at jane.doe@example.edu", []PIIType{PIITypeEmail}},
		{"phone", "Call 555-123-4567 if needed", []PIIType{PIITypePhone}},
		{"phone with country code", "Reach me on +1 555 123 4567", []PIIType{PIITypePhone}},
		{"ssn", "SSN 123-45-6789", []PIIType{PIITypeSSN}},
		{"credit card", "Card 4111 1111 1111 1111", []PIIType{PIITypeCreditCard}},
		{"invalid card number", "Ref 1234 5678 9012 3456", nil},
		{"ip address", "Projector at 192.168.1.20", []PIIType{PIITypeIPAddress}},
		{"timestamps are not phones", "2025-05-01T09:00:00Z to 1714550400", nil},
		{"two items", "a@b.io or 555.123.4567", []PIIType{PIITypeEmail, PIITypePhone}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detections := DetectAllPII(tt.text)

			if len(detections) != len(tt.wantTypes) {
				t.Fatalf("DetectAllPII() = %+v, want types %v", detections, tt.wantTypes)
			}

			for i, d := range detections {
				if d.Type != tt.wantTypes[i] {
					t.Errorf("detection %d type = %s, want %s", i, d.Type, tt.wantTypes[i])
				}
			}
		})
	}
}

func TestRedactPII(t *testing.T) {
	in := "Organizer jane.doe@example.edu, phone 555-123-4567, room 301"
	out := RedactPII(in)

	if strings.Contains(out, "jane.doe") || strings.Contains(out, "4567") {
		t.Errorf("PII not redacted: %q", out)
	}

	if !strings.Contains(out, "[EMAIL_REDACTED]") || !strings.Contains(out, "[PHONE_REDACTED]") {
		t.Errorf("missing placeholders: %q", out)
	}

	if !strings.HasSuffix(out, "room 301") {
		t.Errorf("surrounding text altered: %q", out)
	}

	if RedactPII("nothing to hide") != "nothing to hide" {
		t.Error("text without PII must be unchanged")
	}
}

func TestIsSensitiveKey(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"email", true},
		{"contact_email", true},
		{"studentId", true},
		{"Student-Number", true},
		{"phoneNumber", true},
		{"purpose", false},
		{"startTime", false},
		{"room", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := IsSensitiveKey(tt.key); got != tt.want {
				t.Errorf("IsSensitiveKey(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestLuhnCheck(t *testing.T) {
	if !luhnCheck("4532015112830366") {
		t.Error("valid number rejected")
	}

	if luhnCheck("4532015112830367") {
		t.Error("invalid number accepted")
	}

	if luhnCheck("1234") {
		t.Error("short number accepted")
	}
}
