package server

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"strings"
)

type checkStatus string

const (
	checkPass checkStatus = "pass"
	checkWarn checkStatus = "warn"
	checkFail checkStatus = "fail"
)

type healthCheck struct {
	Status  checkStatus    `json:"status"`
	Details map[string]any `json:"details"`
}

type healthReport struct {
	Timestamp       string                  `json:"timestamp"`
	Status          string                  `json:"status"`
	Environment     string                  `json:"environment"`
	Checks          map[string]*healthCheck `json:"checks"`
	Recommendations []string                `json:"recommendations"`
}

// overall is healthy when every check passes and unhealthy when any fails.
func (h *healthReport) overall() (string, int) {
	status := "healthy"
	for _, check := range h.Checks {
		switch check.Status {
		case checkFail:
			return "unhealthy", http.StatusServiceUnavailable
		case checkWarn:
			status = "degraded"
		}
	}
	return status, http.StatusOK
}

// HealthHandler reports configuration presence, database connectivity and
// provider token endpoint reachability.
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := &healthReport{
			Timestamp:       timestamp(),
			Environment:     s.config.GetEnv(),
			Checks:          map[string]*healthCheck{},
			Recommendations: []string{},
		}

		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		report.Checks["environment_variables"] = s.checkEnvironment(report)
		report.Checks["database"] = s.checkDatabase(ctx, report)
		report.Checks["amazon_api"] = s.checkProvider(ctx, report)

		var code int
		report.Status, code = report.overall()
		writeJSON(w, code, report)
	}
}

func (s *Server) checkEnvironment(report *healthReport) *healthCheck {
	configured := map[string]bool{
		"AMAZON_LWA_CLIENT_ID":     s.config.GetClientID() != "",
		"AMAZON_LWA_CLIENT_SECRET": s.config.GetClientSecret() != "",
		"AMAZON_REDIRECT_URI":      s.config.GetRedirectURI() != "",
		"AMAZON_APPLICATION_ID":    s.config.GetApplicationID() != "",
		"BASE_URL":                 s.config.GetBaseURL() != "",
		"JWT_STATE_SECRET":         s.config.GetStateSecret() != "",
		"DATABASE_PATH":            s.config.GetDatabasePath() != "",
		"DEFAULT_CALLBACK_URL":     s.config.GetDefaultCallbackPath() != "",
	}
	missing := []string{}
	for _, name := range slices.Sorted(maps.Keys(configured)) {
		if !configured[name] {
			missing = append(missing, name)
		}
	}

	check := &healthCheck{
		Status: checkPass,
		Details: map[string]any{
			"configured": configured,
			"missing":    missing,
			"values": map[string]string{
				"AMAZON_REDIRECT_URI":  s.config.GetRedirectURI(),
				"BASE_URL":             s.config.GetBaseURL(),
				"DEFAULT_CALLBACK_URL": s.config.GetDefaultCallbackPath(),
				"ENV":                  s.config.GetEnv(),
			},
		},
	}
	if len(missing) > 0 {
		check.Status = checkWarn
		report.Recommendations = append(report.Recommendations, "configure the missing environment variables: "+strings.Join(missing, ", "))
	}
	return check
}

func (s *Server) checkDatabase(ctx context.Context, report *healthReport) *healthCheck {
	if s.pinger == nil {
		return &healthCheck{Status: checkWarn, Details: map[string]any{"connected": false, "error": "no database configured"}}
	}
	fail := func(err error) *healthCheck {
		report.Recommendations = append(report.Recommendations, "check DATABASE_PATH and database connectivity")
		return &healthCheck{Status: checkFail, Details: map[string]any{"connected": false, "error": err.Error()}}
	}

	if err := s.pinger.Ping(ctx); err != nil {
		return fail(err)
	}
	details := map[string]any{"connected": true}
	if s.repos.Users != nil {
		count, err := s.repos.Users.Count(ctx)
		if err != nil {
			return fail(err)
		}
		details["userCount"] = count
	}
	if s.repos.Accounts != nil {
		count, err := s.repos.Accounts.Count(ctx)
		if err != nil {
			return fail(err)
		}
		details["accountCount"] = count
	}
	return &healthCheck{Status: checkPass, Details: details}
}

func (s *Server) checkProvider(ctx context.Context, report *healthReport) *healthCheck {
	if s.prober == nil {
		return &healthCheck{Status: checkWarn, Details: map[string]any{"endpoint_reachable": false, "error": "no provider configured"}}
	}
	status, err := s.prober.ProbeTokenEndpoint(ctx)
	if err != nil {
		report.Recommendations = append(report.Recommendations, "check network access to the Amazon token endpoint")
		return &healthCheck{Status: checkFail, Details: map[string]any{"endpoint_reachable": false, "error": err.Error()}}
	}

	// an invalid probe code is expected to be rejected with 400
	check := &healthCheck{
		Status: checkPass,
		Details: map[string]any{
			"endpoint_reachable": true,
			"status":             status,
			"expected_400":       status == http.StatusBadRequest,
		},
	}
	if status != http.StatusBadRequest {
		check.Status = checkWarn
		report.Recommendations = append(report.Recommendations, "the Amazon token endpoint answered unexpectedly, check network configuration")
	}
	return check
}
