// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pquerna/otp/totp"
)

// =============================================================================
// TOTP SECOND FACTOR
// =============================================================================

// Issuer names the account in authenticator apps.
const Issuer = "BnanaB"

var (
	// ErrTOTPRequired means the account has a second factor and no code was given.
	ErrTOTPRequired = errors.New("authenticator code required")

	// ErrInvalidTOTP means the code did not validate.
	ErrInvalidTOTP = errors.New("invalid authenticator code")
)

// Enrollment is a freshly generated TOTP secret.
type Enrollment struct {
	Secret string
	// URL is the otpauth:// provisioning URL.
	URL string
}

// EnrollTOTP generates a new secret for the account.
func EnrollTOTP(accountName string) (Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      Issuer,
		AccountName: accountName,
	})
	if err != nil {
		return Enrollment{}, fmt.Errorf("failed to generate TOTP secret: %w", err)
	}
	return Enrollment{Secret: key.Secret(), URL: key.URL()}, nil
}

// VerifyTOTP checks code against secret. An empty secret means no second
// factor is enrolled and any code is accepted.
func VerifyTOTP(secret, code string) error {
	if secret == "" {
		return nil
	}
	code = strings.ReplaceAll(strings.TrimSpace(code), " ", "")
	if code == "" {
		return ErrTOTPRequired
	}
	if !totp.Validate(code, secret) {
		return ErrInvalidTOTP
	}
	return nil
}
