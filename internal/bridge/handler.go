package bridge

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

// TargetSource resolves the stored integration credential for a user. found is
// false when the user has not configured the integration.
type TargetSource interface {
	LookupTarget(ctx context.Context, userID string) (target Target, found bool, err error)
}

// SecretHeader carries the shared secret between a bridge caller and the endpoint.
const SecretHeader = "X-Bridge-Secret"

// Handler exposes the worker over HTTP for remote callers.
type Handler struct {
	serverName string
	secret     string
	targets    TargetSource
	runner     Runner
	logger     *logging.Logger
}

// NewHandler creates a bridge handler accepting requests for serverName only.
// Callers must present secret in SecretHeader; an empty secret rejects every
// request.
func NewHandler(serverName, secret string, targets TargetSource, runner Runner, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if serverName == "" {
		serverName = "calendly"
	}
	return &Handler{
		serverName: serverName,
		secret:     secret,
		targets:    targets,
		runner:     runner,
		logger:     logger.WithComponent("bridge.handler"),
	}
}

// Call handles POST /api/mcp.
func (h *Handler) Call(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	var env Envelope
	if err := json.NewDecoder(io.LimitReader(r.Body, maxHTTPBodyBytes)).Decode(&env); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if env.Server != h.serverName {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "server '" + env.Server + "' is not supported"})
		return
	}
	userID := strings.TrimSpace(env.UserID)
	if userID == "" {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}
	if env.Request == nil || strings.TrimSpace(env.Request.Method) == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request.method is required"})
		return
	}
	if env.Request.JSONRPC == "" {
		env.Request.JSONRPC = Version
	}

	target, found, err := h.targets.LookupTarget(r.Context(), userID)
	if err != nil {
		h.logger.Error("credential lookup failed", "user_id", userID, "error", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if !found {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "integration not configured"})
		return
	}
	// The endpoint is the hop itself; never forward again.
	target.BridgeURL = ""

	resp, err := h.runner.Call(r.Context(), target, env.Request)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "invalid worker response"})
			return
		}
		details := Diagnostic(err)
		if details == "" {
			details = "no diagnostic output"
		}
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "worker failed",
			"details": details,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return false
	}
	presented := r.Header.Get(SecretHeader)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.secret)) == 1
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
