package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

func (s *Server) setSessionCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// absoluteURL joins path onto the configured base URL, or onto the request
// origin when no base URL is set.
func (s *Server) absoluteURL(r *http.Request, path string) string {
	base := s.config.GetBaseURL()
	if base == "" {
		base = getScheme(r) + "://" + r.Host
	}
	return base + path
}

// redirectWithError sends the browser to the error page with a short code
// and description. When no absolute error page URL can be built the error is
// written as JSON instead.
func (s *Server) redirectWithError(w http.ResponseWriter, r *http.Request, code, description string) {
	target, err := url.Parse(s.absoluteURL(r, RouteAuthError))
	if err != nil || target.Host == "" {
		log.Error().Err(err).Str("error_code", code).Msg("cannot build error page url")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":     code,
			"message":   description,
			"timestamp": timestamp(),
		})
		return
	}
	query := url.Values{"error": {code}, "description": {description}}
	target.RawQuery = query.Encode()
	http.Redirect(w, r, target.String(), http.StatusFound)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode json response")
	}
}
