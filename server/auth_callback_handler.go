package server

import (
	"fmt"
	"net/http"

	"github.com/jrsteele09/go-listing-server/auth"
	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/rs/zerolog/log"
)

const (
	outcomeSuccess       = "success"
	outcomeProviderError = "provider_error"
)

// AmazonCallbackHandler completes the provider redirect. Both GET (query) and
// POST (form body) are accepted. Every outcome ends in a redirect: to the
// post-login page with a session cookie, or to the error page.
func (s *Server) AmazonCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().Str("panic", fmt.Sprint(rec)).Str("url", r.URL.Path).Msg("callback failed unexpectedly")
				s.metrics.CallbackOutcome(auth.CodeCallbackError)
				s.redirectWithError(w, r, auth.CodeCallbackError, "An unexpected error occurred")
			}
		}()

		params := oauthmodel.ParseCallbackParameters(requestValues(r))
		result, err := s.auth.HandleCallback(r.Context(), params)
		if err != nil {
			var cbErr *auth.CallbackError
			if !liberrors.As(err, &cbErr) {
				cbErr = &auth.CallbackError{Code: auth.CodeCallbackError, Description: err.Error(), Err: err}
			}
			outcome := cbErr.Code
			if params.Error != "" {
				// provider codes are unbounded, keep the label set small
				outcome = outcomeProviderError
			}
			s.metrics.CallbackOutcome(outcome)
			s.redirectWithError(w, r, cbErr.Code, cbErr.Description)
			return
		}

		if result.DirectAuth {
			s.metrics.DirectAuth()
		}
		s.metrics.CallbackOutcome(outcomeSuccess)
		s.setSessionCookie(w, result.SessionToken, result.SessionMaxAge)
		http.Redirect(w, r, s.absoluteURL(r, result.RedirectPath), http.StatusFound)
	}
}
