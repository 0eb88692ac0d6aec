package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/darmiel/vigil/internal/api/presenter"
	"github.com/darmiel/vigil/internal/buildinfo"
	"github.com/darmiel/vigil/internal/service"
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

func DecodePayload(r *http.Request, dest any, allowEmpty bool) error {
	switch r.Header.Get("Content-Type") {
	case "application/json", "":
		// strict encoding for JSON
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dest); err != nil {
			if !errors.Is(err, io.EOF) || !allowEmpty {
				return err
			}
		}
		// ensure there's no extra data
		if dec.More() {
			return errors.New("extra data in request body")
		}
		return nil
	default:
		return errors.New("unsupported content type")
	}
}

// handleVerify processes access verification requests. A denial is a regular
// 200 response with granted=false; only malformed input yields an error
// status.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload service.VerifyRequest
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode verify request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	decision, err := s.accessService.Verify(ctx, payload)
	if err != nil {
		presenter.Err(w, r, err, "verification failed")
		return
	}

	presenter.JSON(w, r, decision, http.StatusOK)
}

// handleRegister enrolls a new network identity or refreshes an existing one.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.Ctx(ctx)

	var payload service.RegisterRequest
	if err := DecodePayload(r, &payload, false); err != nil {
		logger.Warn().Err(err).Msg("failed to decode register request payload")
		presenter.Error(w, r, "invalid request payload", http.StatusBadRequest)
		return
	}

	ident, err := s.accessService.RegisterIdentity(ctx, payload)
	if err != nil {
		presenter.Err(w, r, err, "registration failed")
		return
	}

	presenter.JSON(w, r, ident, http.StatusCreated)
}
