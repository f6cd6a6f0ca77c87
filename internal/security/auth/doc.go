// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth implements local account authentication for bnanab.
//
// Passwords are stored as PBKDF2-SHA-256 hashes with a random salt and the
// iteration count used, so the count can be raised without breaking
// existing accounts. Emails are compared in a normalized form. An optional
// TOTP secret adds a second factor, and a token bucket throttles repeated
// failed logins.
//
// # Usage
//
//	cred, err := auth.HashPassword(password)
//	if err != nil {
//		return err
//	}
//	user.Credential = cred
//
//	if !auth.VerifyPassword(cred, attempt) {
//		return ErrInvalidCredentials
//	}
package auth
