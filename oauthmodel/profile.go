package oauthmodel

import (
	"fmt"
	"strings"
)

// IdentityProfile is the minimal identity returned by the provider profile endpoint.
type IdentityProfile struct {
	ExternalUserID string `json:"user_id"`
	DisplayName    string `json:"name"`
	Email          string `json:"email"`
}

// ProfileFromClaims maps the raw provider profile document onto an IdentityProfile.
// Login with Amazon returns user_id; OIDC userinfo endpoints return sub.
func ProfileFromClaims(claims map[string]any) (IdentityProfile, error) {
	profile := IdentityProfile{
		ExternalUserID: firstString(claims, "user_id", "sub"),
		DisplayName:    firstString(claims, "name", "preferred_username"),
		Email:          strings.TrimSpace(firstString(claims, "email")),
	}
	if profile.ExternalUserID == "" {
		return IdentityProfile{}, ErrProfileMissingUserID
	}
	if profile.Email == "" {
		return IdentityProfile{}, fmt.Errorf("user %s: %w", profile.ExternalUserID, ErrProfileMissingEmail)
	}
	return profile, nil
}

func firstString(claims map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := claims[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
