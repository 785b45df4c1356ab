package config

type SecurityConfig interface {
	GetStateSecret() string
	GetSessionSecret() string
	GetTokenEncryptionSecret() string
	GetEnableRateLimiting() bool
	GetRateLimit() (perSecond float64, burst int)
}

var _ SecurityConfig = (*Settings)(nil)

func (s *Settings) GetStateSecret() string {
	return s.StateSecret
}

// GetSessionSecret falls back to the state secret when no dedicated session
// secret is configured.
func (s *Settings) GetSessionSecret() string {
	if s.SessionSecret != "" {
		return s.SessionSecret
	}
	return s.StateSecret
}

// GetTokenEncryptionSecret keys the at-rest encryption of account tokens.
// It falls back to the state secret.
func (s *Settings) GetTokenEncryptionSecret() string {
	if s.TokenSecret != "" {
		return s.TokenSecret
	}
	return s.StateSecret
}

func (s *Settings) GetEnableRateLimiting() bool {
	return s.RateLimiting
}

func (s *Settings) GetRateLimit() (float64, int) {
	rps, burst := s.RateLimitRPS, s.RateLimitBurst
	if rps <= 0 {
		rps = 5
	}
	if burst <= 0 {
		burst = 10
	}
	return rps, burst
}
