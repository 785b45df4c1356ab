package config

var _ CorsConfig = (*Settings)(nil)

func (s *Settings) GetAllowedOrigins() []string {
	return s.AllowedOrigins
}

func (s *Settings) GetAllowedMethods() []string {
	return []string{"GET", "POST", "OPTIONS"}
}

func (s *Settings) GetAllowedHeaders() []string {
	return []string{"Accept", "Authorization", "Content-Type"}
}
