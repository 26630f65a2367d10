// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id1, err := GenerateID(16)
	if err != nil {
		t.Fatalf("GenerateID failed: %v", err)
	}
	if len(id1) != 32 {
		t.Errorf("Expected 32 hex chars for 16 bytes, got %d", len(id1))
	}

	id2, _ := GenerateID(16)
	if id1 == id2 {
		t.Error("Two generated IDs should differ")
	}
}

func TestGenerateBallotCode(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		code, err := GenerateBallotCode()
		if err != nil {
			t.Fatalf("GenerateBallotCode failed: %v", err)
		}

		if err := ValidateCodeFormat(code); err != nil {
			t.Errorf("Generated code %q fails its own format check", code)
		}

		// No confusable characters anywhere in the random part
		for _, c := range strings.ReplaceAll(code[4:], "-", "") {
			if !strings.ContainsRune(codeAlphabet, c) {
				t.Errorf("Code %q contains character %q outside the alphabet", code, c)
			}
		}

		if seen[code] {
			t.Errorf("Duplicate code generated: %s", code)
		}
		seen[code] = true
	}
}

func TestNormalizeCode(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"rsl-ab12-cd345678", "RSL-AB12-CD345678"},
		{"  RSL-AB12-CD345678  ", "RSL-AB12-CD345678"},
		{"Rsl-Ab12-Cd345678", "RSL-AB12-CD345678"},
		{"RSL-AB12-CD345678", "RSL-AB12-CD345678"},
	}

	for _, tc := range testCases {
		if got := NormalizeCode(tc.input); got != tc.expected {
			t.Errorf("NormalizeCode(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}

func TestValidateCodeFormat(t *testing.T) {
	testCases := []struct {
		name  string
		code  string
		valid bool
	}{
		{"valid code", "RSL-AB12-CD345678", true},
		{"confusables accepted by shape check", "RSL-ABO0-CD345678", true},
		{"lowercase", "rsl-ab12-cd345678", false},
		{"wrong prefix", "ABC-AB12-CD345678", false},
		{"missing prefix", "AB12-CD345678", false},
		{"short middle group", "RSL-AB1-CD345678", false},
		{"short last group", "RSL-AB12-CD34567", false},
		{"long last group", "RSL-AB12-CD3456789", false},
		{"missing dashes", "RSLAB12CD345678", false},
		{"empty", "", false},
		{"trailing garbage", "RSL-AB12-CD345678X", false},
		{"special characters", "RSL-AB!2-CD345678", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateCodeFormat(tc.code)
			if tc.valid && err != nil {
				t.Errorf("Expected %q valid, got: %v", tc.code, err)
			}
			if !tc.valid && !errors.Is(err, ErrInvalidCode) {
				t.Errorf("Expected ErrInvalidCode for %q, got: %v", tc.code, err)
			}
		})
	}
}

func TestGenerateSessionToken(t *testing.T) {
	tok1, err := GenerateSessionToken()
	if err != nil {
		t.Fatalf("GenerateSessionToken failed: %v", err)
	}
	if len(tok1) != 64 {
		t.Errorf("Expected 64 hex chars, got %d", len(tok1))
	}

	tok2, _ := GenerateSessionToken()
	if tok1 == tok2 {
		t.Error("Two session tokens should differ")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery staple" {
		t.Error("Hash should not equal the plaintext")
	}

	if err := CheckPassword("correct horse battery staple", hash); err != nil {
		t.Errorf("Expected matching password to verify, got: %v", err)
	}

	if err := CheckPassword("wrong password", hash); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Expected ErrInvalidCredentials, got: %v", err)
	}
}
