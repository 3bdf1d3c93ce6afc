package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTargets map[string]Target

func (s stubTargets) LookupTarget(_ context.Context, userID string) (Target, bool, error) {
	if userID == "broken" {
		return Target{}, false, errors.New("db down")
	}
	target, ok := s[userID]
	return target, ok, nil
}

type stubRunner struct {
	resp   *Response
	err    error
	target Target
	req    *Request
}

func (s *stubRunner) Call(_ context.Context, target Target, req *Request) (*Response, error) {
	s.target = target
	s.req = req
	return s.resp, s.err
}

const testSecret = "shared-secret"

func postEnvelope(t *testing.T, h *Handler, body any) *httptest.ResponseRecorder {
	t.Helper()
	return postEnvelopeWithSecret(t, h, body, testSecret)
}

func postEnvelopeWithSecret(t *testing.T, h *Handler, body any, secret string) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/mcp", bytes.NewReader(data))
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.Call(rec, req)
	return rec
}

func TestHandlerCall(t *testing.T) {
	targets := stubTargets{"user-1": {UserID: "user-1", AccessToken: "tok", BridgeURL: "https://loop.example"}}
	okRunner := &stubRunner{resp: &Response{JSONRPC: Version, ID: "1", Result: json.RawMessage(`[{"name":"Demo"}]`)}}

	validRequest := map[string]any{"id": "1", "jsonrpc": "2.0", "method": "list_event_types", "params": map[string]any{}}

	tests := []struct {
		name       string
		runner     *stubRunner
		body       any
		wantStatus int
		wantBody   string
	}{
		{"success", okRunner, map[string]any{"server": "calendly", "userId": "user-1", "request": validRequest}, http.StatusOK, `"result":[{"name":"Demo"}]`},
		{"unsupported server", okRunner, map[string]any{"server": "zoom", "userId": "user-1", "request": validRequest}, http.StatusBadRequest, "not supported"},
		{"missing user", okRunner, map[string]any{"server": "calendly", "request": validRequest}, http.StatusUnauthorized, "not authenticated"},
		{"missing method", okRunner, map[string]any{"server": "calendly", "userId": "user-1", "request": map[string]any{"id": "1"}}, http.StatusBadRequest, "method"},
		{"no credential", okRunner, map[string]any{"server": "calendly", "userId": "user-2", "request": validRequest}, http.StatusNotFound, "not configured"},
		{"lookup failure", okRunner, map[string]any{"server": "calendly", "userId": "broken", "request": validRequest}, http.StatusInternalServerError, "internal"},
		{"worker exit", &stubRunner{err: &ProcessError{ExitCode: 1, Stderr: "Traceback"}}, map[string]any{"server": "calendly", "userId": "user-1", "request": validRequest}, http.StatusInternalServerError, `"details":"Traceback"`},
		{"bad worker output", &stubRunner{err: &RPCError{Code: ParseError, Message: "bad"}}, map[string]any{"server": "calendly", "userId": "user-1", "request": validRequest}, http.StatusInternalServerError, "invalid worker response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler("calendly", testSecret, targets, tt.runner, nil)
			rec := postEnvelope(t, h, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
		})
	}

	assert.Empty(t, okRunner.target.BridgeURL, "handler must not forward to another bridge")
	assert.Equal(t, "tok", okRunner.target.AccessToken)
}

func TestHandlerInvalidJSON(t *testing.T) {
	h := NewHandler("calendly", testSecret, stubTargets{}, &stubRunner{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/mcp", bytes.NewBufferString("{"))
	req.Header.Set(SecretHeader, testSecret)
	rec := httptest.NewRecorder()
	h.Call(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerRequiresSharedSecret(t *testing.T) {
	targets := stubTargets{"user-1": {UserID: "user-1", AccessToken: "tok"}}
	body := map[string]any{
		"server":  "calendly",
		"userId":  "user-1",
		"request": map[string]any{"id": "1", "jsonrpc": "2.0", "method": "list_event_types"},
	}

	tests := []struct {
		name    string
		secret  string
		present string
	}{
		{"missing header", testSecret, ""},
		{"wrong secret", testSecret, "guess"},
		{"prefix of secret", testSecret, "shared"},
		{"no secret configured", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &stubRunner{resp: &Response{JSONRPC: Version, ID: "1"}}
			h := NewHandler("calendly", tt.secret, targets, runner, nil)
			rec := postEnvelopeWithSecret(t, h, body, tt.present)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, runner.req, "worker must not run for unauthenticated callers")
		})
	}
}

func TestHandlerAcceptsHTTPRunnerSecret(t *testing.T) {
	runner := &stubRunner{resp: &Response{JSONRPC: Version, ID: "1", Result: json.RawMessage(`[]`)}}
	h := NewHandler("calendly", testSecret, stubTargets{"user-1": {UserID: "user-1", AccessToken: "tok"}}, runner, nil)
	srv := httptest.NewServer(http.HandlerFunc(h.Call))
	defer srv.Close()

	remote := NewHTTPRunner(srv.Client(), "calendly", testSecret, time.Second, nil, nil)
	_, err := remote.Call(context.Background(), Target{UserID: "user-1", BridgeURL: srv.URL}, NewRequest(MethodListEventTypes, nil))
	require.NoError(t, err)
	require.NotNil(t, runner.req)
	assert.Equal(t, MethodListEventTypes, runner.req.Method)
}
