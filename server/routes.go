package server

func (s *Server) initRoutes() {
	// LOGIN
	s.RegisterRouteHandler("GET "+RouteAmazonLogin, ChainMiddleware(s.AmazonLoginHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAmazonLogin, ChainMiddleware(s.AmazonLoginHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAmazonCallback, ChainMiddleware(s.AmazonCallbackHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAmazonCallback, ChainMiddleware(s.AmazonCallbackHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthError, ChainMiddleware(s.AuthErrorPageHandler(), s.HTMLMiddleWare()...))

	// SESSION
	s.RegisterRouteHandler("GET "+RouteAuthSession, ChainMiddleware(s.SessionHandler(), s.AuthAPIMiddleware(s.RequireSession())...))
	s.RegisterRouteHandler("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteSPAPIStatus, ChainMiddleware(s.SPAPIStatusHandler(), s.AuthAPIMiddleware(s.RequireSession())...))

	// DIAGNOSTICS
	s.RegisterRouteHandler("GET "+RouteValidateRedirectURI, ChainMiddleware(s.ValidateRedirectURIHandler(), s.AuthAPIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteMetrics, s.metrics.Handler())
}
