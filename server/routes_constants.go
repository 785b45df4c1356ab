package server

const (
	RouteAmazonLogin         = "/api/auth/amazon-login"
	RouteAmazonCallback      = "/api/auth/amazon-callback"
	RouteAuthSession         = "/api/auth/session"
	RouteAuthLogout          = "/api/auth/logout"
	RouteSPAPIStatus         = "/api/auth/sp-api-status"
	RouteValidateRedirectURI = "/api/auth/validate-redirect-uri"
	RouteHealth              = "/api/health"
	RouteAuthError           = "/auth/error"
	RouteMetrics             = "/metrics"
)

// SessionCookieName holds the signed session credential.
const SessionCookieName = "listing.session-token"
