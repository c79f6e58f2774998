package service

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestGenerateAffiliateCode(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	code, err := GenerateAffiliateCode(42, now)
	if err != nil {
		t.Fatalf("generate code failed: %v", err)
	}
	if !strings.HasPrefix(code, "0042") {
		t.Fatalf("expected zero-padded user suffix, got %s", code)
	}
	if code != strings.ToUpper(code) {
		t.Fatalf("expected upper-case code, got %s", code)
	}
	if !strings.Contains(code, "LOYW3V28") {
		t.Fatalf("expected base36 timestamp segment, got %s", code)
	}
	if len(code) != 4+8+6 {
		t.Fatalf("unexpected code length %d: %s", len(code), code)
	}

	other, err := GenerateAffiliateCode(42, now)
	if err != nil {
		t.Fatalf("generate second code failed: %v", err)
	}
	if other == code {
		t.Fatalf("expected random suffix to differ, got %s twice", code)
	}

	long, err := GenerateAffiliateCode(9876543, now)
	if err != nil {
		t.Fatalf("generate long code failed: %v", err)
	}
	if !strings.HasPrefix(long, "6543") {
		t.Fatalf("expected last four digits, got %s", long)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(errors.New("UNIQUE constraint failed: affiliates.code")) {
		t.Fatalf("expected sqlite unique error detected")
	}
	if !isUniqueViolation(errors.New(`ERROR: duplicate key value violates unique constraint "idx_affiliates_code"`)) {
		t.Fatalf("expected postgres unique error detected")
	}
	if isUniqueViolation(errors.New("connection refused")) || isUniqueViolation(nil) {
		t.Fatalf("expected non-unique errors ignored")
	}
}

func TestTrackingSessionCodec(t *testing.T) {
	codec := NewTrackingSessionCodec("secret-a")

	token, sessionID := codec.Issue()
	got, ok := codec.Verify(token)
	if !ok || got != sessionID {
		t.Fatalf("expected token verified, got %q %v", got, ok)
	}

	if _, ok := NewTrackingSessionCodec("secret-b").Verify(token); ok {
		t.Fatalf("expected token rejected with another secret")
	}
	id, signature, _ := strings.Cut(token, ".")
	replacement := "A"
	if strings.HasPrefix(signature, "A") {
		replacement = "B"
	}
	tampered := id + "." + replacement + signature[1:]
	if _, ok := codec.Verify(tampered); ok {
		t.Fatalf("expected tampered token rejected")
	}
	if _, ok := codec.Verify("not-a-uuid." + signature); ok {
		t.Fatalf("expected malformed session id rejected")
	}
	if _, ok := codec.Verify(sessionID); ok {
		t.Fatalf("expected unsigned session id rejected")
	}
}
