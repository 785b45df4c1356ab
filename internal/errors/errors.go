package errors

import (
	"errors"
	"fmt"
)

// Common error types for the listing server
var (
	// Request errors
	ErrMissingParameter = errors.New("missing required parameter")
	ErrStateInvalid     = errors.New("invalid state token")

	// Provider errors
	ErrTokenExchangeFailed = errors.New("token exchange failed")
	ErrTokenRefreshFailed  = errors.New("token refresh failed")
	ErrProfileFetchFailed  = errors.New("profile fetch failed")
	ErrProviderUnavailable = errors.New("provider unavailable")

	// Persistence errors
	ErrPersistFailed = errors.New("persist failed")
	ErrUserUpsert    = errors.New("user upsert failed")
	ErrAccountUpsert = errors.New("account upsert failed")

	// Token errors
	ErrSessionMintFailed = errors.New("session mint failed")
	ErrInvalidToken      = errors.New("invalid token")

	// Session errors
	ErrSessionExpired = errors.New("session expired")

	// Seller API errors
	ErrNotInitialized     = errors.New("client not initialized")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
