package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/nextchat-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

const maxHTTPBodyBytes = 1 << 20

// Envelope is the body accepted by a bridge endpoint.
type Envelope struct {
	Server  string   `json:"server"`
	Request *Request `json:"request"`
	UserID  string   `json:"userId"`
}

// HTTPRunner forwards calls to a remote bridge endpoint that runs the worker.
type HTTPRunner struct {
	client     *http.Client
	serverName string
	secret     string
	logger     *logging.Logger
	metrics    *metrics.EngineMetrics
}

var _ Runner = (*HTTPRunner)(nil)

// NewHTTPRunner creates an HTTP runner. A nil client gets a default bounded by
// timeout. secret is sent in SecretHeader on every call.
func NewHTTPRunner(client *http.Client, serverName, secret string, timeout time.Duration, logger *logging.Logger, m *metrics.EngineMetrics) *HTTPRunner {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if logger == nil {
		logger = logging.Default()
	}
	if serverName == "" {
		serverName = "calendly"
	}
	return &HTTPRunner{
		client:     client,
		serverName: serverName,
		secret:     secret,
		logger:     logger.WithComponent("bridge.http"),
		metrics:    m,
	}
}

// Call posts the request envelope to target.BridgeURL.
func (r *HTTPRunner) Call(ctx context.Context, target Target, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := r.call(ctx, target, req)
	r.metrics.ObserveBridgeCall(req.Method, callStatus(resp, err), time.Since(start).Seconds())
	if err != nil {
		r.logger.Warn("bridge call failed",
			"method", req.Method,
			"user_id", target.UserID,
			"error", err,
		)
		return nil, err
	}
	return resp, nil
}

func (r *HTTPRunner) call(ctx context.Context, target Target, req *Request) (*Response, error) {
	if strings.TrimSpace(target.BridgeURL) == "" {
		return nil, errors.New("bridge: bridge url is required")
	}
	body, err := json.Marshal(Envelope{Server: r.serverName, Request: req, UserID: target.UserID})
	if err != nil {
		return nil, fmt.Errorf("bridge: encode envelope: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.BridgeURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("bridge: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if r.secret != "" {
		httpReq.Header.Set(SecretHeader, r.secret)
	}

	httpResp, err := r.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w (%s): %v", ErrTimeout, req.Method, err)
		}
		return nil, fmt.Errorf("bridge: post %s: %w", req.Method, err)
	}
	defer httpResp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxHTTPBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("bridge: read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: httpResp.StatusCode, Body: errorMessage(data)}
	}
	return decodeResponse(bytes.TrimSpace(data))
}

// errorMessage extracts the "error" field of a failure body, falling back to the raw text.
func errorMessage(data []byte) string {
	var payload struct {
		Error   any    `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != nil {
		msg := fmt.Sprint(payload.Error)
		if m, ok := payload.Error.(map[string]any); ok {
			if text, ok := m["message"].(string); ok {
				msg = text
			}
		}
		if payload.Details != "" {
			msg += ": " + payload.Details
		}
		return msg
	}
	return strings.TrimSpace(string(data))
}
