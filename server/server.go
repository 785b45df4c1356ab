package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/go-listing-server/auth"
	"github.com/jrsteele09/go-listing-server/internal/config"
	"github.com/jrsteele09/go-listing-server/spapi"
	"github.com/jrsteele09/go-listing-server/storage"
	"github.com/rs/zerolog/log"
)

// TokenEndpointProber reports the status the provider token endpoint
// returns for a probe request.
type TokenEndpointProber interface {
	ProbeTokenEndpoint(ctx context.Context) (int, error)
}

// CredentialValidator checks that a session can call the seller API.
type CredentialValidator interface {
	ValidateCredentials(ctx context.Context) error
}

// SellerAPIFactory builds a seller API client bound to one session's tokens.
type SellerAPIFactory func(tokens spapi.TokenSource) CredentialValidator

type Server struct {
	env     string
	router  chi.Router
	routes  []string
	config  config.Config
	auth    *auth.AuthorizationService
	repos   storage.Repos
	pinger  storage.Pinger
	prober  TokenEndpointProber
	sellers SellerAPIFactory
	metrics *Metrics
	limiter *RateLimiter
}

type ServerOption func(*Server)

// WithStore enables the database section of the health check.
func WithStore(pinger storage.Pinger, repos storage.Repos) ServerOption {
	return func(s *Server) {
		s.pinger = pinger
		s.repos = repos
	}
}

// WithTokenEndpointProber enables the provider section of the health check.
func WithTokenEndpointProber(prober TokenEndpointProber) ServerOption {
	return func(s *Server) {
		s.prober = prober
	}
}

// WithSellerAPI sets how the status endpoint reaches the seller API.
func WithSellerAPI(factory SellerAPIFactory) ServerOption {
	return func(s *Server) {
		s.sellers = factory
	}
}

// WithMetrics replaces the default metrics collectors.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

func New(cfg config.Config, authService *auth.AuthorizationService, options ...ServerOption) (*Server, error) {
	if cfg == nil || authService == nil {
		return nil, fmt.Errorf("[Server New] config and authorization service are required")
	}

	s := &Server{
		env:    cfg.GetEnv(),
		router: chi.NewRouter(),
		config: cfg,
		auth:   authService,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if s.sellers == nil {
		s.sellers = func(tokens spapi.TokenSource) CredentialValidator {
			return spapi.NewClient(cfg, tokens)
		}
	}
	if cfg.GetEnableRateLimiting() {
		s.limiter = NewRateLimiter(cfg.GetRateLimit())
	}

	s.router.Use(middleware.RequestID, middleware.RealIP, s.corsHandler())
	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// RegisterRouteHandler registers handler for a "METHOD /path" pattern.
func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	method, path, found := strings.Cut(pattern, " ")
	if !found {
		s.router.Handle(pattern, handler)
		return
	}
	s.router.Method(method, path, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.RegisterRouteHandler(pattern, http.HandlerFunc(handler))
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%-19s] %s", color+paddedMethod+ResetColor, path)
}

// getScheme determines the scheme (http/https) of the incoming request.
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
