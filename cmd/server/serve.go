package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jrsteele09/go-listing-server/auth"
	"github.com/jrsteele09/go-listing-server/internal/config"
	"github.com/jrsteele09/go-listing-server/lwa"
	"github.com/jrsteele09/go-listing-server/server"
	"github.com/jrsteele09/go-listing-server/storage/sqlite"
	"github.com/jrsteele09/go-listing-server/token"
	"github.com/jrsteele09/go-listing-server/token/keys"
	"github.com/rs/zerolog/log"
)

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	configureLogging(cfg.GetEnv(), cfg.GetLogLevel())
	displayAppname(cfg.GetAppName())

	if report := cfg.ValidateRedirectURI(server.RouteAmazonCallback); !report.IsValid {
		log.Warn().Strs("errors", report.Errors).Msg("redirect URI configuration is invalid")
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Err(err).Msg("failed to close store")
		}
	}()

	provider, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}

	tokens, err := newTokenManager(cfg)
	if err != nil {
		return err
	}
	authService, err := auth.NewAuthorizationService(provider, tokens, store.Repos(), cfg, auth.WithTransactor(store))
	if err != nil {
		return err
	}

	handler, err := server.New(cfg, authService,
		server.WithStore(store, store.Repos()),
		server.WithTokenEndpointProber(provider),
	)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.GetPort(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() {
		errs <- listenAndServe(httpServer)
	}()

	select {
	case err := <-errs:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(httpServer)
}

// openStore opens the SQLite store with account tokens sealed at rest.
func openStore(ctx context.Context, cfg config.Config) (*sqlite.Store, error) {
	sealer, err := keys.NewSealerFromSecret(cfg.GetTokenEncryptionSecret())
	if err != nil {
		return nil, fmt.Errorf("create token sealer: %w", err)
	}
	store, err := sqlite.Open(ctx, cfg.GetDatabasePath(), sqlite.WithTokenSealer(sealer))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return store, nil
}

// newTokenManager signs state and session tokens with separate derived keys,
// even when both fall back to the same configured secret.
func newTokenManager(cfg config.Config) (*token.Manager, error) {
	stateKey, err := keys.Derive(cfg.GetStateSecret(), keys.PurposeState)
	if err != nil {
		return nil, err
	}
	sessionKey, err := keys.Derive(cfg.GetSessionSecret(), keys.PurposeSession)
	if err != nil {
		return nil, err
	}
	return token.New(
		token.NewHMACSignerFromKey(stateKey),
		token.NewHMACSignerFromKey(sessionKey),
		token.WithExpiry(cfg.GetStateTokenExpiry(), cfg.GetSessionMaxAge()),
		token.WithIssuer(cfg.GetBaseURL()),
	), nil
}

// newProvider builds the LWA client, resolving endpoints through OIDC
// discovery when an issuer is configured.
func newProvider(ctx context.Context, cfg config.Config) (*lwa.Client, error) {
	issuer := cfg.GetOIDCIssuer()
	if issuer == "" {
		return lwa.NewClient(cfg), nil
	}
	hc := &http.Client{Timeout: cfg.GetOutboundTimeout()}
	endpoints, err := lwa.Discover(ctx, issuer, hc)
	if err != nil {
		return nil, fmt.Errorf("discover provider endpoints: %w", err)
	}
	log.Info().Str("issuer", issuer).Str("token_url", endpoints.TokenURL).Msg("using discovered provider endpoints")
	return lwa.NewClient(cfg, lwa.WithEndpoints(endpoints), lwa.WithHTTPClient(hc)), nil
}

func listenAndServe(server *http.Server) error {
	log.Info().Str("addr", server.Addr).Msg("server listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
