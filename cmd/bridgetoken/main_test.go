package main

import (
	"bytes"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// TestPrintUsage tests that printUsage doesn't panic
func TestPrintUsage(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("printUsage panicked: %v", r)
		}
	}()

	printUsage()
}

func TestSanitizeCommand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"generate", "generate"},
		{"rm -rf /", "rm_-rf__"},
		{"hash\nverify", "hash_verify"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := sanitizeCommand(tt.input); got != tt.want {
			t.Errorf("sanitizeCommand(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidateToken(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		confirm string
		wantErr error
	}{
		{"valid", "0123456789abcdef", "0123456789abcdef", nil},
		{"mismatch", "0123456789abcdef", "0123456789abcdeX", errMismatch},
		{"too short", "short", "short", errTooShort},
		{"whitespace only", strings.Repeat(" ", 20), strings.Repeat(" ", 20), errTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateToken([]byte(tt.token), []byte(tt.confirm))
			if err != tt.wantErr {
				t.Errorf("validateToken() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	var out bytes.Buffer
	if err := generate(&out); err != nil {
		t.Fatalf("generate() error = %v", err)
	}

	values := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			t.Fatalf("unexpected line %q", line)
		}
		values[key] = value
	}

	token, hash := values["BRIDGE_TOKEN"], values["BRIDGE_TOKEN_HASH"]
	if len(token) < minTokenLength {
		t.Errorf("generated token too short: %q", token)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)); err != nil {
		t.Errorf("hash does not verify token: %v", err)
	}
}

func TestRandomTokenUnique(t *testing.T) {
	a, err := randomToken()
	if err != nil {
		t.Fatal(err)
	}
	b, err := randomToken()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two generated tokens are equal")
	}
}

func TestVerifyRequiresHash(t *testing.T) {
	if err := verifyInteractive(&bytes.Buffer{}, "  "); err == nil {
		t.Error("expected error when BRIDGE_TOKEN_HASH is empty")
	}
}
