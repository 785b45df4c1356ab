package lwa

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"golang.org/x/oauth2"
)

// maxDescriptionLength bounds the text placed in error redirects.
const maxDescriptionLength = 200

// ProviderError is a failed call to the identity provider. It unwraps to the
// sentinel of the failed step (ErrTokenExchangeFailed, ErrTokenRefreshFailed,
// ErrProfileFetchFailed).
type ProviderError struct {
	StatusCode  int
	Code        string
	Description string
	Body        string
	Err         error

	cause error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Description)
}

func (e *ProviderError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Err, e.cause}
	}
	return []error{e.Err}
}

// ProviderDescription is the short, user-presentable failure text.
func (e *ProviderError) ProviderDescription() string {
	return e.Description
}

// ResponseBody returns the raw provider response for server-side logging.
func (e *ProviderError) ResponseBody() string {
	return e.Body
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// newProviderError builds a ProviderError from a status and raw body. The
// description is error_description when the body is JSON, otherwise the raw
// body text, otherwise a generic message with the status code.
func newProviderError(sentinel error, status int, body []byte) *ProviderError {
	pe := &ProviderError{
		StatusCode: status,
		Body:       string(body),
		Err:        sentinel,
	}

	var parsed errorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		pe.Code = parsed.Error
		pe.Description = parsed.ErrorDescription
		if pe.Description == "" {
			pe.Description = parsed.Error
		}
	} else {
		pe.Description = strings.TrimSpace(string(body))
	}

	if pe.Description == "" {
		pe.Description = fmt.Sprintf("%v: %d %s", sentinel, status, http.StatusText(status))
	}
	pe.Description = truncateDescription(pe.Description)
	return pe
}

// truncateDescription caps s at maxDescriptionLength bytes without splitting
// a rune.
func truncateDescription(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	if len(s) <= maxDescriptionLength {
		return s
	}
	cut := maxDescriptionLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// fromOAuth2Error converts x/oauth2 errors, keeping provider detail when present.
func fromOAuth2Error(sentinel error, err error) error {
	var re *oauth2.RetrieveError
	if liberrors.As(err, &re) {
		status := 0
		if re.Response != nil {
			status = re.Response.StatusCode
		}
		return newProviderError(sentinel, status, re.Body)
	}
	return &ProviderError{
		Description: err.Error(),
		Err:         sentinel,
		cause:       err,
	}
}
