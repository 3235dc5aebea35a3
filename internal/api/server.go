package api

import (
	"fmt"
	"net/http"

	"github.com/averen/sigil/internal/api/middleware"
	"github.com/averen/sigil/internal/authz"
	"github.com/averen/sigil/internal/core"
	"github.com/averen/sigil/internal/service"
)

type Server struct {
	authService *service.AuthService
	policies    *authz.Registry
	auditor     core.Auditor

	// routePolicies maps protected route patterns to policy names.
	// Resolved against the registry when routes are built.
	routePolicies map[string]string
}

func NewServer(
	authService *service.AuthService,
	policies *authz.Registry,
	auditor core.Auditor,
	routePolicies map[string]string,
) *Server {
	return &Server{
		authService:   authService,
		policies:      policies,
		auditor:       auditor,
		routePolicies: routePolicies,
	}
}

// Routes builds the handler tree. Policy attachments are resolved here, so an
// attachment naming an absent policy aborts startup.
func (s *Server) Routes() (http.Handler, error) {
	mux := http.NewServeMux()

	// public routes
	mux.HandleFunc("GET "+HealthCheckRoute, s.handleHealth)
	mux.HandleFunc("GET "+AboutRoute, s.handleAbout)
	mux.HandleFunc("POST "+LoginRoute, s.handleLogin)

	// authenticated routes
	authed := middleware.Authenticate(s.authService)
	mux.Handle("GET "+WhoamiRoute, authed(http.HandlerFunc(s.handleWhoami)))

	protected := map[string]http.Handler{
		ListAuditsRoute: http.HandlerFunc(s.handleAdminAudits),
	}
	for route, handler := range protected {
		policyName, ok := s.routePolicies[route]
		if !ok {
			return nil, fmt.Errorf("no policy attached to protected route '%s'", route)
		}
		if _, err := s.policies.Get(policyName); err != nil {
			return nil, fmt.Errorf("attaching policy to route '%s': %w", route, err)
		}
		guard := middleware.RequirePolicy(s.authService, policyName)
		mux.Handle("GET "+route, authed(guard(handler)))
	}

	return middleware.RecoverMiddleware(
		middleware.CorrelationIDMiddleware(
			middleware.LoggingMiddleware(
				mux))), nil
}
