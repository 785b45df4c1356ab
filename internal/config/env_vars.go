package config

import (
	"fmt"
	"strings"
)

const (
	envDevelopment = "DEV"
	envProduction  = "PROD"
)

var _ EnvConfig = (*Settings)(nil)

func (s *Settings) GetPort() string {
	port := s.Port
	if port == "" {
		port = "8080"
	}
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (s *Settings) GetAppName() string {
	return s.AppName
}

func (s *Settings) GetEnv() string {
	if s.Env == "" {
		return envDevelopment
	}
	return strings.ToUpper(s.Env)
}

// IsProduction accepts both PROD and PRODUCTION.
func (s *Settings) IsProduction() bool {
	env := s.GetEnv()
	return env == envProduction || env == "PRODUCTION"
}

// GetBaseURL returns the public base URL (e.g., "https://listing.example.com")
// used to build absolute redirects.
func (s *Settings) GetBaseURL() string {
	return strings.TrimSuffix(s.BaseURL, "/")
}

func (s *Settings) GetLogLevel() string {
	return s.LogLevel
}

func (s *Settings) GetDatabasePath() string {
	return s.DatabasePath
}
