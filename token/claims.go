package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	claimUse               = "use"
	claimSellerID          = "seller_id"
	claimRedirectURI       = "redirect_uri"
	claimTimestamp         = "ts"
	claimNonce             = "nonce"
	claimEmail             = "email"
	claimProviderAccountID = "provider_account_id"
	claimAccessToken       = "access_token"
	claimRefreshToken      = "refresh_token"
	claimTokenExpiresAt    = "token_expires_at"
)

const (
	useState   = "state"
	useSession = "session"
)

func claimString(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

// claimUnixMilli reads a millisecond timestamp; JSON numbers decode as float64.
func claimUnixMilli(claims jwt.MapClaims, key string) time.Time {
	switch v := claims[key].(type) {
	case float64:
		if v > 0 {
			return time.UnixMilli(int64(v)).UTC()
		}
	case int64:
		if v > 0 {
			return time.UnixMilli(v).UTC()
		}
	}
	return time.Time{}
}
