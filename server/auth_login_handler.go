package server

import (
	"net/http"
	"net/url"

	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/rs/zerolog/log"
)

// requestValues merges query and form values so GET and POST share a parser.
func requestValues(r *http.Request) url.Values {
	if err := r.ParseForm(); err != nil {
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("failed to parse form, using query only")
		return r.URL.Query()
	}
	return r.Form
}

// AmazonLoginHandler starts the consent flow for a seller and redirects to
// the provider.
func (s *Server) AmazonLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := oauthmodel.ParseAuthorizationParameters(requestValues(r))

		consentURL, err := s.auth.BeginAuthorization(params)
		if err != nil {
			if liberrors.Is(err, liberrors.ErrMissingParameter) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing required parameter: seller_id"})
				return
			}
			log.Err(err).Msg("failed to start authorization")
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error":   "Internal server error",
				"message": err.Error(),
			})
			return
		}

		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		http.Redirect(w, r, consentURL, http.StatusFound)
	}
}

