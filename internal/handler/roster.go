// Package handler exposes the roster engine over HTTP.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	oaerrors "github.com/go-openapi/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/amara/rosterd/internal/auth"
	"github.com/amara/rosterd/internal/service"
)

// RosterHandler serves the synchronous and asynchronous solve endpoints.
type RosterHandler struct {
	svc *service.RosterService
}

// NewRosterHandler creates a new RosterHandler.
func NewRosterHandler(svc *service.RosterService) *RosterHandler {
	return &RosterHandler{svc: svc}
}

// Routes mounts the roster endpoints. Launching and cancelling runs needs
// the planner role; reading results does not.
func (h *RosterHandler) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(requirePlanner)
		r.Post("/roster/solve", h.solve)
		r.Post("/roster/jobs", h.submit)
		r.Delete("/roster/jobs/{id}", h.cancel)
	})
	r.Get("/roster/jobs/{id}", h.get)
}

// requirePlanner rejects tokens without rostering authority. Unauthenticated
// requests (dev mode) carry no claims and pass through.
func requirePlanner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if claims := auth.ClaimsFromContext(r.Context()); claims != nil && !claims.CanPlan() {
			writeError(w, http.StatusForbidden, "planner role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkOuScope verifies the caller may roster every organisational unit the
// input document touches, returning the first unit out of scope.
func checkOuScope(r *http.Request, raw []byte) (string, bool) {
	claims := auth.ClaimsFromContext(r.Context())
	if claims == nil || len(claims.OuIDs) == 0 {
		return "", true
	}
	var probe struct {
		DemandItems []struct {
			OuID string `json:"ouId"`
		} `json:"demandItems"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return "", true // malformed documents fail validation downstream
	}
	for _, item := range probe.DemandItems {
		if !claims.AllowsOu(item.OuID) {
			return item.OuID, false
		}
	}
	return "", true
}

// solve runs a roster synchronously and returns the output document.
func (h *RosterHandler) solve(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if ou, ok := checkOuScope(r, raw); !ok {
		writeError(w, http.StatusForbidden, "not authorised for organisational unit "+ou)
		return
	}

	out, err := h.svc.SolveSync(r.Context(), raw)
	if err != nil {
		writeInputError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, out)
}

// submit queues an async roster job and returns 202 with the run id.
func (h *RosterHandler) submit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	if ou, ok := checkOuScope(r, raw); !ok {
		writeError(w, http.StatusForbidden, "not authorised for organisational unit "+ou)
		return
	}

	id, err := h.svc.Submit(r.Context(), raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"runId": id.String()})
}

// get returns the state (and result, when finished) of an async job.
func (h *RosterHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	run, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrRunNotFound) {
			writeError(w, http.StatusNotFound, "run not found")
			return
		}
		log.Error().Err(err).Msg("failed to load run")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// cancel requests cooperative cancellation of a queued or running job.
func (h *RosterHandler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid run id")
		return
	}

	switch err := h.svc.Cancel(r.Context(), id); {
	case errors.Is(err, service.ErrRunNotFound):
		writeError(w, http.StatusNotFound, "run not found")
	case errors.Is(err, service.ErrRunNotCancellable):
		writeError(w, http.StatusConflict, "run is not cancellable")
	case err != nil:
		log.Error().Err(err).Msg("failed to cancel run")
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// writeInputError renders input-validation failures with their offending
// paths; any other error, such as an unparseable document, is also answered
// with 422 and its message.
func writeInputError(w http.ResponseWriter, err error) {
	var composite *oaerrors.CompositeError
	if errors.As(err, &composite) {
		messages := make([]string, 0, len(composite.Errors))
		for _, e := range composite.Errors {
			messages = append(messages, e.Error())
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "invalid input",
			"issues": messages,
		})
		return
	}
	writeError(w, http.StatusUnprocessableEntity, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
