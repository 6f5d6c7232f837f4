package api

import (
	"net/http"
	"time"

	"yatrinivas/internal/metrics"
	"yatrinivas/internal/models"
)

type loginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type meResponse struct {
	User    *models.User `json:"user"`
	IsAdmin bool         `json:"is_admin"`
}

// POST /api/auth/login opens the admin session. There are no credentials to check.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("login")

	user, err := s.session.Login(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.Info().Str("user_id", user.ID).Msg("admin logged in")
	writeJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires.UTC(), User: user})
}

// POST /api/auth/logout
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("logout")

	if err := s.session.Logout(r.Context()); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info().Msg("admin logged out")
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/auth/me
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("me")

	user, err := s.session.Me(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{User: user, IsAdmin: user.IsAdmin()})
}
