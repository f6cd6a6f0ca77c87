// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit codes for bnanab commands.
//
// Commands return errors; main decides how to show them and which exit
// code to use.

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/bnanab/internal/cloud"
	"github.com/jeranaias/bnanab/internal/config"
	"github.com/jeranaias/bnanab/internal/export"
	"github.com/jeranaias/bnanab/internal/security/auth"
	"github.com/jeranaias/bnanab/internal/session"
	"github.com/jeranaias/bnanab/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError reports invalid arguments.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return e.Message
}

// NotFoundError represents a resource not found error.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as JSON when jsonMode is set.
func DisplayError(w io.Writer, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"error":     err.Error(),
			"exit_code": GetExitCode(err),
			"success":   false,
		})
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	var usage *UsageError
	if errors.As(err, &usage) {
		fmt.Fprintln(w, DimStyle.Render("Run 'bnanab help' for usage."))
	}
}

// GetExitCode maps an error to a process exit code.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usage *UsageError
	var notFound *NotFoundError
	var invalid config.ValidateErrors
	switch {
	case errors.As(err, &usage):
		return ExitUsageError
	case errors.As(err, &invalid), errors.Is(err, storage.ErrUnknownBackend):
		return ExitConfigError
	case errors.Is(err, session.ErrInvalidCredentials),
		errors.Is(err, session.ErrNoAccount),
		errors.Is(err, session.ErrNotAuthenticated),
		errors.Is(err, auth.ErrTooManyAttempts),
		errors.Is(err, auth.ErrInvalidTOTP),
		errors.Is(err, auth.ErrTOTPRequired),
		errors.Is(err, cloud.ErrMissingAPIKey):
		return ExitAuthError
	case errors.As(err, &notFound), errors.Is(err, export.ErrNoChat):
		return ExitNotFoundError
	default:
		return ExitGeneralError
	}
}
