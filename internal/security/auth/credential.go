// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jeranaias/bnanab/internal/model"
)

// =============================================================================
// KEY DERIVATION
// =============================================================================

const (
	// PBKDF2Iterations is the iteration count for new credentials.
	PBKDF2Iterations = 600000

	// KeySize is the derived hash length in bytes.
	KeySize = 32

	// SaltSize is the random salt length in bytes.
	SaltSize = 16
)

// Iterations is used by HashPassword. Tests lower it.
var Iterations = PBKDF2Iterations

// HashPassword derives a new credential from password with a fresh salt.
func HashPassword(password string) (model.Credential, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return model.Credential{}, fmt.Errorf("failed to generate salt: %w", err)
	}

	key := deriveKey(password, salt, Iterations)
	return model.Credential{
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Hash:       base64.StdEncoding.EncodeToString(key),
		Iterations: Iterations,
	}, nil
}

// VerifyPassword reports whether password matches cred. Malformed
// credentials never match.
func VerifyPassword(cred model.Credential, password string) bool {
	salt, err := base64.StdEncoding.DecodeString(cred.Salt)
	if err != nil || len(salt) == 0 {
		return false
	}
	want, err := base64.StdEncoding.DecodeString(cred.Hash)
	if err != nil || len(want) == 0 {
		return false
	}
	iter := cred.Iterations
	if iter <= 0 {
		iter = PBKDF2Iterations
	}

	got := deriveKey(password, salt, iter)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func deriveKey(password string, salt []byte, iterations int) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, KeySize, sha256.New)
}
