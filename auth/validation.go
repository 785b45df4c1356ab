package auth

import (
	"fmt"
	"net/url"
	"strings"

	liberrors "github.com/jrsteele09/go-listing-server/internal/errors"
	"github.com/jrsteele09/go-listing-server/oauthmodel"
)

// ValidateAuthorizationParameters checks the login initiation request.
func ValidateAuthorizationParameters(p oauthmodel.AuthorizationParameters) error {
	if strings.TrimSpace(p.SellerID) == "" {
		return fmt.Errorf("%w: seller_id", liberrors.ErrMissingParameter)
	}
	return nil
}

// PostLoginPath returns the site-relative destination after login. Absolute
// URLs are reduced to path and query so the redirect never leaves the site.
func PostLoginPath(original, fallback string) string {
	path := fallback
	if original != "" {
		path = original
		if u, err := url.Parse(original); err == nil && u.IsAbs() {
			path = u.EscapedPath()
			if u.RawQuery != "" {
				path += "?" + u.RawQuery
			}
		}
	}
	// a leading "//" would be read as a host by browsers
	return "/" + strings.TrimLeft(path, "/")
}
