package server

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

type Middleware = func(http.HandlerFunc) http.HandlerFunc

func ChainMiddleware(routeFunction http.HandlerFunc, mw ...Middleware) http.HandlerFunc {
	chainedHandler := routeFunction
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) HTMLMiddleWare(mw ...Middleware) []Middleware {
	chainedMiddleWare := []Middleware{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
		s.FrameSecurityMiddleware,
	}
	return append(chainedMiddleWare, mw...)
}

func (s *Server) APIMiddleware(mw ...Middleware) []Middleware {
	chainedMiddleWare := []Middleware{
		s.LoggingMiddleware,
		s.RecoverMiddleware,
	}
	return append(chainedMiddleWare, mw...)
}

// AuthAPIMiddleware is the chain for /api/auth/* routes.
func (s *Server) AuthAPIMiddleware(mw ...Middleware) []Middleware {
	chainedMiddleWare := s.APIMiddleware(
		s.AuthSecurityHeadersMiddleware,
		s.RateLimitMiddleware,
	)
	return append(chainedMiddleWare, mw...)
}

func (s *Server) LoggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.ObserveRequest(r.Method, route, status, elapsed)

		if s.env == "DEV" {
			logRoute(r.Method, r.URL.Path)
		}
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("duration", elapsed).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	}
}

func (s *Server) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				log.Error().
					Str("path", r.URL.Path).
					Str("panic", fmt.Sprint(rec)).
					Bytes("stack", debug.Stack()).
					Msg("recovered from panic")
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}
		}()
		next(w, r)
	}
}

func (s *Server) FrameSecurityMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		next(w, r)
	}
}

// AuthSecurityHeadersMiddleware keeps auth responses out of caches, frames
// and referrer headers.
func (s *Server) AuthSecurityHeadersMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate")
		h.Set("Pragma", "no-cache")
		next(w, r)
	}
}

func (s *Server) RateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(r.RemoteAddr) {
			log.Warn().Str("remote_addr", r.RemoteAddr).Str("path", r.URL.Path).Msg("rate limit exceeded")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "Rate limit exceeded. Please try again later."})
			return
		}
		next(w, r)
	}
}

// corsHandler answers preflight requests before routing so that routes only
// register their real methods.
func (s *Server) corsHandler() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   s.config.GetAllowedOrigins(),
		AllowedMethods:   s.config.GetAllowedMethods(),
		AllowedHeaders:   s.config.GetAllowedHeaders(),
		AllowCredentials: true,
		MaxAge:           300,
	})
}
