package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/jrsteele09/go-listing-server/internal/config"
	"github.com/jrsteele09/go-listing-server/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Bytes("stack", debug.Stack()).Msg("recovered from panic")
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		log.Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Seller listing server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			configureLogging(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP server",
			RunE: func(cmd *cobra.Command, args []string) error {
				return serve(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or upgrade the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "check-config",
			Short: "Validate the OAuth redirect URI configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return checkConfig(cmd)
			},
		},
	)
	return cmd
}

// configureLogging writes readable console output in development and JSON
// everywhere else.
func configureLogging(env, level string) {
	zerolog.TimeFieldFormat = time.RFC3339
	if strings.ToUpper(env) == "DEV" || env == "" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}

func migrate(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	log.Info().Str("path", cfg.GetDatabasePath()).Msg("database schema is up to date")
	return store.Close()
}

func checkConfig(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	report := cfg.ValidateRedirectURI(server.RouteAmazonCallback)
	fmt.Fprint(cmd.OutOrStdout(), report.String())
	if !report.IsValid {
		return fmt.Errorf("redirect URI configuration is invalid")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
