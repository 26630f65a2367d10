// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides ballot-code generation, operator password hashing, and
session tokens.

# Ballot Codes

Ballot codes are one-time credentials printed before election day:

	code, err := auth.GenerateBallotCode() // RSL-K7QX-N2P4WZ38

The alphabet excludes I, O, 0 and 1 so a code read off a paper slip survives
hand transcription. Incoming codes should pass through NormalizeCode and
ValidateCodeFormat before any database lookup:

	code := auth.NormalizeCode(req.Code)
	if err := auth.ValidateCodeFormat(code); err != nil { ... }

# Operator Passwords

Poll-worker and admin passwords are stored as bcrypt hashes:

	hash, err := auth.HashPassword(password)
	err = auth.CheckPassword(password, hash)

CheckPassword returns ErrInvalidCredentials on mismatch; login handlers report
the same message for unknown users and wrong passwords.

# Session Tokens

Operator sessions are identified by random 32-byte hex bearer tokens:

	token, err := auth.GenerateSessionToken()

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
