package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/averen/sigil/internal/api/middleware"
	"github.com/averen/sigil/internal/api/presenter"
	"github.com/averen/sigil/internal/buildinfo"
	"github.com/averen/sigil/internal/core"
	"github.com/averen/sigil/internal/service"
)

// handleHealth responds with a simple OK status to indicate the server is healthy.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleAbout responds with service information including version and commit hash.
func (s *Server) handleAbout(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, buildinfo.GetBuildInfo(), http.StatusOK)
}

// handleLogin verifies credentials and issues a bearer token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logger.Warn().Err(err).Msg("failed to decode login request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}
	if payload.Username == "" || payload.Password == "" {
		presenter.Error(w, r, "username and password are required", http.StatusBadRequest)
		return
	}

	result, err := s.authService.Login(ctx, payload)
	if err != nil {
		logger.Warn().Err(err).Msg("login failed")
		presenter.Err(w, r, err, "login failed")
		return
	}

	logger.Info().Msg("token issued successfully")
	presenter.JSON(w, r, result, http.StatusCreated)
}

// handleWhoami echoes the verified claim set of the presented token.
func (s *Server) handleWhoami(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsCtx(r.Context())
	if !ok {
		presenter.Error(w, r, "login required", http.StatusUnauthorized)
		return
	}

	presenter.JSON(w, r, service.WhoamiResponse{
		Subject: claims.Subject(),
		Roles:   claims.Roles(),
		Claims:  claims,
	}, http.StatusOK)
}

// auditReader is satisfied by auditors that can list recent entries
// (currently only the in-memory auditor).
type auditReader interface {
	GetRecent(limit int) ([]core.AuditEntry, error)
}

// handleAdminAudits lists recent audit entries. Policy-guarded.
func (s *Server) handleAdminAudits(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.auditor.(auditReader)
	if !ok {
		presenter.Error(w, r, "configured auditor does not support listing", http.StatusNotImplemented)
		return
	}

	entries, err := reader.GetRecent(100)
	if err != nil {
		presenter.Err(w, r, err, "listing audit entries failed")
		return
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}
