// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail folds case and compatibility forms so that visually equal
// addresses compare equal. Surrounding whitespace is removed.
func NormalizeEmail(email string) string {
	t := transform.Chain(norm.NFKC, cases.Fold())
	normalized, _, err := transform.String(t, strings.TrimSpace(email))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(email))
	}
	return normalized
}

// SameEmail compares two addresses after normalization.
func SameEmail(a, b string) bool {
	return NormalizeEmail(a) == NormalizeEmail(b)
}
