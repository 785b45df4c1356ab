package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	ProviderConfig
	SecurityConfig
	StorageConfig
	ValidateRedirectURI(callbackPath string) RedirectURIReport
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	IsProduction() bool
	GetBaseURL() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() []string
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
}

type StorageConfig interface {
	GetDatabasePath() string
}

// Settings is the process configuration, resolved once from the environment at
// start-up and handed to every component constructor.
type Settings struct {
	Port     string `env:"PORT" envDefault:"8080"`
	AppName  string `env:"APP_NAME" envDefault:"Listing Server"`
	Env      string `env:"ENV" envDefault:"DEV"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/listing.db"`

	ClientID            string        `env:"AMAZON_LWA_CLIENT_ID"`
	ClientSecret        string        `env:"AMAZON_LWA_CLIENT_SECRET"`
	RedirectURI         string        `env:"AMAZON_REDIRECT_URI"`
	ApplicationID       string        `env:"AMAZON_APPLICATION_ID"`
	AppIsDraft          bool          `env:"AMAZON_APP_IS_DRAFT"`
	DefaultCallbackPath string        `env:"DEFAULT_CALLBACK_URL" envDefault:"/amazon-listing"`
	OutboundTimeout     time.Duration `env:"OUTBOUND_HTTP_TIMEOUT" envDefault:"10s"`

	ConsentURL     string  `env:"AMAZON_CONSENT_URL" envDefault:"https://sellercentral.amazon.com/apps/authorize/consent"`
	TokenURL       string  `env:"AMAZON_LWA_ENDPOINT" envDefault:"https://api.amazon.com/auth/o2/token"`
	ProfileURL     string  `env:"AMAZON_PROFILE_URL" envDefault:"https://api.amazon.com/user/profile"`
	OIDCIssuer     string  `env:"OAUTH_OIDC_ISSUER"`
	MarketplaceID  string  `env:"AMAZON_MARKETPLACE_ID" envDefault:"ATVPDKIKX0DER"`
	Region         string  `env:"AMAZON_REGION" envDefault:"na"`
	Sandbox        bool    `env:"AMAZON_USE_SANDBOX"`
	SPAPIEndpoint  string  `env:"AMAZON_SPAPI_ENDPOINT"`
	StateSecret    string  `env:"JWT_STATE_SECRET"`
	SessionSecret  string  `env:"SESSION_SECRET"`
	TokenSecret    string  `env:"TOKEN_ENCRYPTION_SECRET"`
	RateLimiting   bool    `env:"ENABLE_RATE_LIMITING" envDefault:"true"`
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

var _ Config = (*Settings)(nil)

// Load parses the environment into Settings and validates the result.
func Load() (*Settings, error) {
	s := &Settings{}
	if err := env.Parse(s); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
