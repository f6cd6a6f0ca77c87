// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chats, messages, users and settings.
package model

import "time"

// Credential is a salted password hash. The password itself is never stored.
type Credential struct {
	Salt       string `json:"salt"`
	Hash       string `json:"hash"`
	Iterations int    `json:"iterations"`
}

// User is the local account that owns the session.
type User struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Credential Credential `json:"credential"`
	TOTPSecret string     `json:"totpSecret,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`

	// Active is true while the user is signed in; a restart restores the session.
	Active bool `json:"active"`
}

// HasTOTP reports whether a second factor is enrolled.
func (u *User) HasTOTP() bool {
	return u.TOTPSecret != ""
}
