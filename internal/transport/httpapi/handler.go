// Package httpapi exposes the action manager over HTTP.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/tidwall/gjson"

	"github.com/malikkrehic/action/internal/action"
	"github.com/malikkrehic/action/internal/log"
	"github.com/malikkrehic/action/internal/presentation"
	"github.com/malikkrehic/action/internal/validation"
)

// IdempotencyHeader carries the caller's idempotency key.
const IdempotencyHeader = "Idempotency-Key"

// maxBodyBytes bounds POST /actions request bodies.
const maxBodyBytes = 1 << 20

// Handler provides HTTP endpoints for a Manager.
type Handler struct {
	manager *action.Manager
}

// NewHandler creates a new API handler wrapping the given Manager.
func NewHandler(m *action.Manager) *Handler {
	return &Handler{manager: m}
}

// Routes returns an http.Handler with all API routes registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /actions", h.List)
	mux.HandleFunc("POST /actions", h.Execute)

	// Health check
	mux.HandleFunc("GET /health", h.Health)

	return mux
}

// === Request/Response Types ===

// ExecuteResponse is the response body for a successful execution.
type ExecuteResponse struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	Result  any    `json:"result"`
}

// ErrorResponse is the response body for errors.
type ErrorResponse struct {
	Error            string                `json:"error"`
	Message          string                `json:"message,omitempty"`
	Action           string                `json:"action,omitempty"`
	AvailableActions []string              `json:"available_actions,omitempty"`
	Errors           validation.Violations `json:"errors,omitempty"`
}

// HealthResponse is the response body for the health check.
type HealthResponse struct {
	Status  string `json:"status"`
	Actions int    `json:"actions"`
}

// Error titles, one per failure class.
const (
	TitleNotFound      = "Action not found"
	TitleValidation    = "Validation failed"
	TitleInvalidFormat = "Invalid data format"
	TitleInvalidInput  = "Invalid action or data"
	TitleExecution     = "Action execution failed"
	TitleConflict      = "Idempotency key conflict"
)

// === Handlers ===

// List returns every registered action keyed by name.
// GET /actions
func (h *Handler) List(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, presentation.FromRegistry(h.manager.Registry()))
}

// Execute runs the named action with the given data.
// POST /actions
func (h *Handler) Execute(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: TitleInvalidInput, Message: "could not read request body"})
		return
	}

	name, data, msg := parseExecuteBody(body)
	if msg != "" {
		// an unknown action outranks a malformed data field
		if name != "" && !h.manager.Has(name) {
			_, err := h.manager.Make(name)
			status, resp := h.errorResponse(name, err)
			h.writeJSON(w, status, resp)
			return
		}
		h.writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: TitleInvalidInput, Message: msg})
		return
	}

	ctx := r.Context()
	if key := r.Header.Get(IdempotencyHeader); key != "" {
		ctx = action.WithIdempotencyKey(ctx, key)
	}

	result, err := h.manager.Execute(ctx, name, data)
	if err != nil {
		status, resp := h.errorResponse(name, err)
		log.Debug(log.CatHTTP, "action request failed", "action", name, "status", status, "error", err)
		h.writeJSON(w, status, resp)
		return
	}

	h.writeJSON(w, http.StatusOK, ExecuteResponse{Success: true, Action: name, Result: result})
}

// Health reports liveness and the number of registered actions.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Actions: h.manager.Registry().Len()})
}

// === Helpers ===

// parseExecuteBody extracts the action name and data object. A non-empty msg
// describes why the body was rejected; name is still set when only data was
// at fault. An absent data field or an empty array is empty data.
func parseExecuteBody(body []byte) (name string, data map[string]any, msg string) {
	if !gjson.ValidBytes(body) {
		return "", nil, "request body must be valid JSON"
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return "", nil, "request body must be a JSON object"
	}

	nameField := root.Get("action")
	if nameField.Type != gjson.String || nameField.String() == "" {
		return "", nil, "the action field is required and must be a string"
	}

	name = nameField.String()
	dataField := root.Get("data")
	switch {
	case !dataField.Exists():
		return name, map[string]any{}, ""
	case dataField.IsArray() && len(dataField.Array()) == 0:
		return name, map[string]any{}, ""
	case !dataField.IsObject():
		return name, nil, "the data field must be an object"
	}
	data, _ = dataField.Value().(map[string]any)
	return name, data, ""
}

func (h *Handler) errorResponse(name string, err error) (int, ErrorResponse) {
	var ae *action.Error
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, ErrorResponse{Error: TitleExecution, Message: err.Error()}
	}

	switch ae.Kind {
	case action.KindNotFound:
		return http.StatusNotFound, ErrorResponse{
			Error:            TitleNotFound,
			Action:           name,
			AvailableActions: h.manager.Names(),
		}
	case action.KindValidation:
		return http.StatusBadRequest, ErrorResponse{
			Error:   TitleValidation,
			Message: ae.Error(),
			Errors:  ae.Fields,
		}
	case action.KindCoercion:
		return http.StatusBadRequest, ErrorResponse{Error: TitleInvalidFormat, Message: ae.Error()}
	case action.KindConflict:
		return http.StatusConflict, ErrorResponse{Error: TitleConflict, Message: ae.Error()}
	case action.KindMissingData, action.KindInvalidHandler:
		return http.StatusBadRequest, ErrorResponse{Error: TitleInvalidInput, Message: ae.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: TitleExecution, Message: ae.Error()}
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error(log.CatHTTP, "Failed to encode JSON response", "error", err)
	}
}
