// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCode        = errors.New("invalid ballot code format")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// codeAlphabet excludes the confusable characters I, O, 0 and 1 so codes
// survive hand transcription at the polling station. Its length is 32, which
// divides 256 evenly - indexing raw random bytes introduces no modulo bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodePrefix is printed in front of every ballot code.
const CodePrefix = "RSL"

// codePattern checks shape only. Generation sticks to codeAlphabet, but
// validation accepts any uppercase alphanumeric so a typo'd confusable gets
// a clean not-found from the lookup instead of a format complaint.
var codePattern = regexp.MustCompile(`^RSL-[A-Z0-9]{4}-[A-Z0-9]{8}$`)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateBallotCode creates a ballot token code in the form
// RSL-XXXX-XXXXXXXX over the confusable-free alphabet.
func GenerateBallotCode() (string, error) {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate ballot code: %w", err)
	}

	out := make([]byte, 12)
	for i, v := range b {
		out[i] = codeAlphabet[int(v)%len(codeAlphabet)]
	}
	return CodePrefix + "-" + string(out[:4]) + "-" + string(out[4:]), nil
}

// NormalizeCode uppercases and trims a hand-entered ballot code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateCodeFormat checks the RSL-XXXX-XXXXXXXX shape without touching the
// database, so obviously malformed input never costs a lookup.
func ValidateCodeFormat(code string) error {
	if !codePattern.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}

// GenerateSessionToken creates a random bearer token for an operator session
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32) // 256 bits of entropy
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashPassword hashes an operator password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword compares a plaintext password against a bcrypt hash.
// Returns ErrInvalidCredentials on mismatch so callers report one uniform
// login failure.
func CheckPassword(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}
