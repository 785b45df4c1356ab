package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jrsteele09/go-listing-server/oauthmodel"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc is used for response timestamps.
var NowTimeFunc = time.Now

const checkTimeout = 5 * time.Second

func timestamp() string {
	return NowTimeFunc().UTC().Format(time.RFC3339)
}

type sessionResponse struct {
	UserID               string    `json:"userId"`
	Email                string    `json:"email"`
	SellerID             string    `json:"sellerId,omitempty"`
	ProviderAccountID    string    `json:"providerAccountId,omitempty"`
	HasAccessToken       bool      `json:"hasAccessToken"`
	HasRefreshToken      bool      `json:"hasRefreshToken"`
	AccessTokenExpiresAt time.Time `json:"accessTokenExpiresAt,omitzero"`
	ExpiresAt            time.Time `json:"expiresAt"`
}

// SessionHandler describes the current session. Provider tokens are never
// returned, only their presence.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated", "status": "error"})
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			UserID:               session.UserID,
			Email:                session.Email,
			SellerID:             session.SellerID,
			ProviderAccountID:    session.ProviderAccountID,
			HasAccessToken:       session.Tokens.AccessToken != "",
			HasRefreshToken:      session.Tokens.RefreshToken != "",
			AccessTokenExpiresAt: session.Tokens.ExpiresAt,
			ExpiresAt:            session.ExpiresAt,
		})
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.clearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}
}

type statusUser struct {
	ID                  string `json:"id"`
	Email               string `json:"email"`
	Name                string `json:"name,omitempty"`
	AmazonSellerID      string `json:"amazonSellerId,omitempty"`
	AmazonMarketplaceID string `json:"amazonMarketplaceId,omitempty"`
	AmazonRegion        string `json:"amazonRegion,omitempty"`
}

type statusSession struct {
	HasAccessToken  bool   `json:"hasAccessToken"`
	HasRefreshToken bool   `json:"hasRefreshToken"`
	SellerID        string `json:"sellerId,omitempty"`
}

type statusEnvironment struct {
	Region           string `json:"region"`
	MarketplaceID    string `json:"marketplaceId"`
	UseSandbox       bool   `json:"useSandbox"`
	HasClientID      bool   `json:"hasClientId"`
	HasClientSecret  bool   `json:"hasClientSecret"`
	HasApplicationID bool   `json:"hasApplicationId"`
}

type spAPIStatus struct {
	Authenticated    bool              `json:"authenticated"`
	CredentialsValid bool              `json:"credentialsValid"`
	User             statusUser        `json:"user"`
	Session          statusSession     `json:"session"`
	Environment      statusEnvironment `json:"environment"`
	Recommendations  []string          `json:"recommendations"`
}

// SPAPIStatusHandler checks whether the session's credentials can call the
// seller API. A refresh during the check is written back to the account and
// to a re-issued session cookie.
func (s *Server) SPAPIStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := sessionFromContext(r.Context())
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Not authenticated", "status": "error"})
			return
		}

		refreshed := false
		accessor := s.auth.TokenAccessor(session, func(_ context.Context, tokens oauthmodel.TokenSet) {
			refreshed = true
			s.metrics.TokenRefresh("success")
			raw, err := s.auth.ReissueSession(session, tokens)
			if err != nil {
				log.Err(err).Str("user_id", session.UserID).Msg("failed to re-issue session after refresh")
				return
			}
			s.setSessionCookie(w, raw, s.auth.SessionMaxAge())
		})
		needsRefresh := session.Tokens.NeedsRefresh(NowTimeFunc(), s.config.GetRefreshSkew())

		ctx, cancel := context.WithTimeout(r.Context(), s.config.GetOutboundTimeout())
		defer cancel()
		valid := s.sellers(accessor).ValidateCredentials(ctx) == nil
		if needsRefresh && !refreshed {
			s.metrics.TokenRefresh("failure")
		}

		status := spAPIStatus{
			Authenticated:    true,
			CredentialsValid: valid,
			User:             statusUser{ID: session.UserID, Email: session.Email},
			Session: statusSession{
				HasAccessToken:  accessor.AccessToken() != "",
				HasRefreshToken: session.Tokens.RefreshToken != "",
				SellerID:        session.SellerID,
			},
			Environment: statusEnvironment{
				Region:           s.config.GetRegion(),
				MarketplaceID:    s.config.GetMarketplaceID(),
				UseSandbox:       s.config.UseSandbox(),
				HasClientID:      s.config.GetClientID() != "",
				HasClientSecret:  s.config.GetClientSecret() != "",
				HasApplicationID: s.config.GetApplicationID() != "",
			},
			Recommendations: []string{},
		}
		sellerKnown := session.SellerID != ""
		if s.repos.Users != nil && session.UserID != "" {
			if user, err := s.repos.Users.GetByID(r.Context(), session.UserID); err == nil {
				sellerKnown = sellerKnown || user.HasSellerAccount()
				status.User = statusUser{
					ID:                  user.ID,
					Email:               user.Email,
					Name:                user.Name,
					AmazonSellerID:      user.AmazonSellerID,
					AmazonMarketplaceID: user.AmazonMarketplaceID,
					AmazonRegion:        user.AmazonRegion,
				}
			} else {
				log.Warn().Err(err).Str("user_id", session.UserID).Msg("session user not found")
			}
		}

		if session.Tokens.RefreshToken == "" {
			status.Recommendations = append(status.Recommendations, "Re-run the Amazon authorization to obtain a refresh token")
		}
		if !sellerKnown {
			status.Recommendations = append(status.Recommendations, "Seller ID is missing, make sure the authorization includes selling_partner_id")
		}
		if !valid {
			status.Recommendations = append(status.Recommendations, "SP-API credential validation failed, check the authorization state and environment configuration")
		}

		overall := "ready"
		if !valid {
			overall = "not_ready"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"status":    overall,
			"data":      status,
			"timestamp": timestamp(),
		})
	}
}

// ValidateRedirectURIHandler reports on the provider redirect URI configuration.
func (s *Server) ValidateRedirectURIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := s.config.ValidateRedirectURI(RouteAmazonCallback)
		applicationID := "not set"
		if s.config.GetApplicationID() != "" {
			applicationID = "configured"
		}
		redirectURI := s.config.GetRedirectURI()
		if redirectURI == "" {
			redirectURI = "not set"
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":         true,
			"isValid":         report.IsValid,
			"validation":      report,
			"formattedResult": report.String(),
			"environment": map[string]any{
				"AMAZON_REDIRECT_URI":   redirectURI,
				"BASE_URL":              s.config.GetBaseURL(),
				"AMAZON_APPLICATION_ID": applicationID,
				"ENV":                   s.config.GetEnv(),
				"AMAZON_APP_IS_DRAFT":   s.config.IsDraftApplication(),
			},
			"timestamp": timestamp(),
		})
	}
}
