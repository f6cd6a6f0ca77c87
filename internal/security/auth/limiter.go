// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"errors"
	"time"

	"golang.org/x/time/rate"
)

// ErrTooManyAttempts is returned while failed logins are being throttled.
var ErrTooManyAttempts = errors.New("too many failed login attempts, try again shortly")

const (
	// AttemptBurst is how many failures are allowed back to back.
	AttemptBurst = 5

	// AttemptRefill is how long it takes to earn one more attempt.
	AttemptRefill = 2 * time.Second
)

// Limiter throttles failed login attempts. Successful logins do not
// consume tokens.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a limiter with the default burst and refill.
func NewLimiter() *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Every(AttemptRefill), AttemptBurst)}
}

// Check returns ErrTooManyAttempts when no attempt is available, without
// consuming one.
func (l *Limiter) Check() error {
	if l.limiter.Tokens() < 1 {
		return ErrTooManyAttempts
	}
	return nil
}

// Fail records one failed attempt.
func (l *Limiter) Fail() {
	l.limiter.Allow()
}
