package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/trogers1052/watchlist-alert-relay/internal/models"
	"github.com/trogers1052/watchlist-alert-relay/internal/relay"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Relayer is the alert pipeline behind the HTTP handlers
type Relayer interface {
	Relay(ctx context.Context, req models.AlertRequest) (*relay.Result, error)
	SendTest(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	relay  Relayer
	logger *zap.Logger
}

// NewHandler creates a new Handler
func NewHandler(r Relayer, logger *zap.Logger) *Handler {
	return &Handler{
		relay:  r,
		logger: logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type alertResponse struct {
	Success bool   `json:"success"`
	Ticker  string `json:"ticker"`
}

type testResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleAlert handles POST /webhook
func (h *Handler) HandleAlert(w http.ResponseWriter, r *http.Request) {
	var req models.AlertRequest
	if err := decodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	res, err := h.relay.Relay(r.Context(), req)
	if err != nil {
		status, message := mapError(err)
		respondError(w, status, message)
		return
	}

	respondJSON(w, http.StatusOK, alertResponse{Success: true, Ticker: res.Ticker})
}

// HandleTest handles GET|POST /test-discord
func (h *Handler) HandleTest(w http.ResponseWriter, r *http.Request) {
	if err := h.relay.SendTest(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to send test message to Discord")
		return
	}

	respondJSON(w, http.StatusOK, testResponse{Success: true, Message: "Test message sent to Discord"})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		h.logger.Info(
			"http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", m.Code),
			zap.Duration("duration", m.Duration),
		)
	})
}

// decodeJSON decodes exactly one JSON value from r; anything after it is an error
func decodeJSON(r io.Reader, v interface{}) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(v); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errors.New("unexpected data after JSON value")
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Not found")
}

func mapError(err error) (int, string) {
	var notFound *relay.NotFoundError
	var lookupErr *relay.LookupError
	var deliveryErr *relay.DeliveryError

	switch {
	case errors.Is(err, relay.ErrMissingFields):
		return http.StatusBadRequest, "Missing required fields: ticker and price"
	case errors.Is(err, relay.ErrInvalidPrice):
		return http.StatusBadRequest, "Price must be positive"
	case errors.As(err, &notFound):
		return http.StatusNotFound, fmt.Sprintf("Ticker %s not found in watchlist", notFound.Ticker)
	case errors.As(err, &lookupErr):
		return http.StatusInternalServerError, "Failed to query watchlist"
	case errors.As(err, &deliveryErr):
		return http.StatusInternalServerError, "Failed to post to Discord"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Error: message})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
