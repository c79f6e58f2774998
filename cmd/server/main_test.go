package main

import (
	"strings"
	"testing"

	"github.com/affiliate-engine/internal/config"
)

func TestIsWeakSecret(t *testing.T) {
	cases := map[string]bool{
		"":                                  true,
		"short":                             true,
		"please-change-me-0123456789abcdef": true,
		"Kq8vN2xR7tLw4pZs9mB3cY6hJ1fD5gA0":  false,
	}
	for secret, want := range cases {
		if got := isWeakSecret(secret); got != want {
			t.Fatalf("isWeakSecret(%q) want %v got %v", secret, want, got)
		}
	}
}

func TestCheckSecretsFailsOnlyInRelease(t *testing.T) {
	cfg := &config.Config{}
	cfg.Server.Mode = "debug"
	if err := checkSecrets(cfg); err != nil {
		t.Fatalf("debug mode should only warn, got %v", err)
	}
	cfg.Server.Mode = "release"
	err := checkSecrets(cfg)
	if err == nil || !strings.Contains(err.Error(), "jwt.secret") {
		t.Fatalf("expected release failure naming jwt.secret, got %v", err)
	}
}
