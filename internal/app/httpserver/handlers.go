package httpserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/spounge-ai/logshipper/internal/domain"
	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	"github.com/spounge-ai/logshipper/internal/service"
	"go.uber.org/zap"
)

// Pub/Sub messages are capped at 10MB.
const maxBodyBytes = 10 << 20

type handlers struct {
	shipper    service.LogShipper
	classifier *app_errors.ErrorClassifier
	logger     *zap.Logger
}

type shipResponse struct {
	InvocationID string `json:"invocation_id"`
	SubjectID    string `json:"subject_id"`
	ManualLookup bool   `json:"manual_lookup"`
	Method       string `json:"method"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) handleEvent(w http.ResponseWriter, r *http.Request) {
	var event domain.Event
	if err := decodeBody(w, r, &event); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ship(w, r, &event)
}

func (h *handlers) handlePush(w http.ResponseWriter, r *http.Request) {
	var push domain.PushRequest
	if err := decodeBody(w, r, &push); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ship(w, r, push.Event())
}

func (h *handlers) ship(w http.ResponseWriter, r *http.Request, event *domain.Event) {
	result, err := h.shipper.Handle(r.Context(), event)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, shipResponse{
		InvocationID: result.InvocationID,
		SubjectID:    result.Payload.SubjectID,
		ManualLookup: result.Payload.ManualLookup,
		Method:       string(result.Method),
	})
}

func (h *handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	classified := h.classifier.Classify(err, "ship_log")
	status, msg := h.classifier.LogAndSanitize(r.Context(), classified,
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	writeJSON(w, status, errorResponse{Error: msg})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readyz reports whether the api key is cached. It never triggers a fetch.
func (h *handlers) readyz(w http.ResponseWriter, r *http.Request) {
	if !h.shipper.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "api key not loaded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid event body: %w", app_errors.ErrDecodeFailure, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
