package auth

import (
	"fmt"
)

// Error codes placed on the error page redirect. Provider errors pass the
// provider's own code through unchanged.
const (
	CodeMissingParameters   = "missing_parameters"
	CodeTokenExchangeFailed = "token_exchange_failed"
	CodeProfileFetchFailed  = "profile_fetch_failed"
	CodePersistFailed       = "persist_failed"
	CodeSessionMintFailed   = "session_mint_failed"
	CodeCallbackError       = "callback_error"
)

// CallbackError is a terminal failure of the callback flow. Code and
// Description are safe to show to the user; Err carries the diagnostic detail.
type CallbackError struct {
	Code        string
	Description string
	Err         error
}

func (e *CallbackError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Description, e.Err)
}

func (e *CallbackError) Unwrap() error {
	return e.Err
}

func callbackError(code, description string, err error) *CallbackError {
	return &CallbackError{Code: code, Description: description, Err: err}
}
