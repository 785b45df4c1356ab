package config

import (
	"fmt"
	"net/url"
	"strings"
)

const minProductionSecretLength = 32

var insecureSecrets = []string{
	"secret",
	"password",
	"changeme",
	"change-me-in-production",
}

// Validate checks the settings that would make the OAuth flow unusable or unsafe.
func (s *Settings) Validate() error {
	if s.StateSecret == "" {
		return fmt.Errorf("JWT_STATE_SECRET is required")
	}
	if !s.IsProduction() {
		return nil
	}
	for _, secret := range []string{s.GetStateSecret(), s.GetSessionSecret()} {
		if len(secret) < minProductionSecretLength {
			return fmt.Errorf("signing secrets must be at least %d characters in production", minProductionSecretLength)
		}
		for _, insecure := range insecureSecrets {
			if secret == insecure {
				return fmt.Errorf("signing secret is set to an insecure default value")
			}
		}
	}
	return nil
}

// RedirectURIReport is the outcome of checking the provider redirect URI
// configuration against the application's base URL and environment.
type RedirectURIReport struct {
	IsValid         bool     `json:"isValid"`
	Errors          []string `json:"errors"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

func (r *RedirectURIReport) fail(format string, args ...any) {
	r.IsValid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// ValidateRedirectURI checks that the configured redirect URI points at
// callbackPath, uses an acceptable scheme for the environment and shares an
// origin with the base URL.
func (s *Settings) ValidateRedirectURI(callbackPath string) RedirectURIReport {
	report := RedirectURIReport{
		IsValid:         true,
		Errors:          []string{},
		Warnings:        []string{},
		Recommendations: []string{},
	}

	if s.RedirectURI == "" {
		report.fail("AMAZON_REDIRECT_URI is not configured")
		report.Recommendations = append(report.Recommendations, "set AMAZON_REDIRECT_URI in the environment")
	}
	if s.BaseURL == "" {
		report.Warnings = append(report.Warnings, "BASE_URL is not configured")
	}
	if s.ApplicationID == "" {
		report.Warnings = append(report.Warnings, "AMAZON_APPLICATION_ID is not configured")
		report.Recommendations = append(report.Recommendations, "copy the application id from the developer console")
	}

	if s.RedirectURI != "" {
		uri, err := url.Parse(s.RedirectURI)
		switch {
		case err != nil:
			report.fail("redirect URI is malformed: %v", err)
		case uri.Scheme != "http" && uri.Scheme != "https":
			report.fail("redirect URI scheme %q must be http or https", uri.Scheme)
		default:
			if !strings.Contains(uri.Path, callbackPath) {
				report.fail("redirect URI path must contain %s", callbackPath)
			}
			host := uri.Hostname()
			if s.IsProduction() {
				if uri.Scheme != "https" {
					report.fail("production redirect URI must use https")
				}
				if host == "localhost" || host == "127.0.0.1" {
					report.fail("production redirect URI must not point at %s", host)
				}
			} else if uri.Scheme == "https" && host == "localhost" {
				report.Warnings = append(report.Warnings, "https on localhost may cause certificate errors")
			}

			if base, err := url.Parse(s.BaseURL); err == nil && s.BaseURL != "" {
				if base.Scheme+"://"+base.Host != uri.Scheme+"://"+uri.Host {
					report.Warnings = append(report.Warnings, "AMAZON_REDIRECT_URI and BASE_URL have different origins")
					report.Recommendations = append(report.Recommendations, "use the same scheme, host and port for both URLs")
				}
			}
		}
	}

	report.Recommendations = append(report.Recommendations,
		"register the exact same redirect URI in the developer console",
		"set AMAZON_APP_IS_DRAFT=true while the application is unpublished",
	)
	return report
}

// String renders the report for terminal output.
func (r RedirectURIReport) String() string {
	var b strings.Builder
	if r.IsValid {
		b.WriteString("redirect URI configuration is valid\n")
	} else {
		b.WriteString("redirect URI configuration is invalid\n")
	}
	section := func(title string, lines []string) {
		if len(lines) == 0 {
			return
		}
		b.WriteString("\n" + title + ":\n")
		for _, l := range lines {
			b.WriteString("  - " + l + "\n")
		}
	}
	section("errors", r.Errors)
	section("warnings", r.Warnings)
	section("recommendations", r.Recommendations)
	return b.String()
}
