package api

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/api/presenter"
	"github.com/darmiel/vigil/internal/core"
	"github.com/darmiel/vigil/internal/service"
)

func (s *Server) handleListIdentities(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.accessService.ListIdentities(), http.StatusOK)
}

func (s *Server) handleGetIdentity(w http.ResponseWriter, r *http.Request) {
	ident, err := s.accessService.GetIdentity(r.PathValue("id"))
	if err != nil {
		presenter.Err(w, r, err, "identity lookup failed")
		return
	}
	presenter.JSON(w, r, ident, http.StatusOK)
}

func (s *Server) handleRemoveIdentity(w http.ResponseWriter, r *http.Request) {
	if err := s.accessService.RemoveIdentity(r.PathValue("id")); err != nil {
		presenter.Err(w, r, err, "identity removal failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleChangeTrust(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var payload service.TrustChangeRequest
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode trust change payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	ident, err := s.accessService.ChangeTrust(r.PathValue("id"), payload)
	if err != nil {
		presenter.Err(w, r, err, "trust change failed")
		return
	}
	presenter.JSON(w, r, ident, http.StatusOK)
}

func (s *Server) handleUpdateRisk(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var payload service.RiskUpdateRequest
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode risk update payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	ident, err := s.accessService.UpdateRiskScore(r.PathValue("id"), payload)
	if err != nil {
		presenter.Err(w, r, err, "risk update failed")
		return
	}
	presenter.JSON(w, r, ident, http.StatusOK)
}

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.accessService.ListPolicies(), http.StatusOK)
}

func (s *Server) handleAddPolicy(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var payload core.NetworkPolicy
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode policy payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	policy, err := s.accessService.AddPolicy(payload)
	if err != nil {
		presenter.Err(w, r, err, "policy creation failed")
		return
	}
	presenter.JSON(w, r, policy, http.StatusCreated)
}

func (s *Server) handleRemovePolicy(w http.ResponseWriter, r *http.Request) {
	if err := s.accessService.RemovePolicy(r.PathValue("id")); err != nil {
		presenter.Err(w, r, err, "policy removal failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	presenter.JSON(w, r, s.accessService.ListActiveSessions(), http.StatusOK)
}

type SessionResponse struct {
	Session *core.AccessSession `json:"session"`
	Active  bool                `json:"active"`
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, active, err := s.accessService.GetSession(r.PathValue("id"))
	if err != nil {
		presenter.Err(w, r, err, "session lookup failed")
		return
	}
	presenter.JSON(w, r, SessionResponse{Session: sess, Active: active}, http.StatusOK)
}

// handleAdminAudit processes requests to retrieve audit log entries.
func (s *Server) handleAdminAudit(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := r.URL.Query()
	limit := 50
	if limitStr := q.Get("limit"); limitStr != "" {
		v, err := strconv.Atoi(limitStr)
		if err != nil {
			logger.Warn().Err(err).Str("limit", limitStr).Msg("invalid limit parameter")
			presenter.Error(w, r, "invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = v
	}

	entries, err := s.accessService.RecentAudits(limit)
	if err != nil {
		presenter.Err(w, r, err, "failed to retrieve audit logs")
		return
	}

	// optional in-handler filters
	entityID := q.Get("entity_id")
	deniedOnly := q.Get("denied") == "true"
	if entityID != "" || deniedOnly {
		filtered := make([]core.AuditEntry, 0, len(entries))
		for _, entry := range entries {
			if entityID != "" && entry.EntityID != entityID {
				continue
			}
			if deniedOnly && entry.Granted {
				continue
			}
			filtered = append(filtered, entry)
		}
		entries = filtered
	}

	presenter.JSON(w, r, entries, http.StatusOK)
}

// handleExplain dry-runs an access decision and returns the step-by-step
// trace. Nothing is audited and no session is created.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload service.VerifyRequest
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode explain payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	trace, err := s.accessService.Explain(ctx, payload)
	if err != nil {
		presenter.Err(w, r, err, "explain failed")
		return
	}
	presenter.JSON(w, r, trace, http.StatusOK)
}
