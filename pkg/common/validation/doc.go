// Package validation provides common validation utilities for configuration
// parameters across the matflow module.
//
// Every helper returns a *errors.ValidationError, so callers can match
// failures with errors.Is(err, errors.ErrInvalidConfiguration) regardless of
// which field was rejected.
package validation
