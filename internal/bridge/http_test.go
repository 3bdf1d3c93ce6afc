package bridge

import (
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

func TestHTTPRunnerPostsEnvelope(t *testing.T) {
	var got Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "s3cret", r.Header.Get(SecretHeader))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{\n  \"jsonrpc\": \"2.0\",\n  \"id\": \"1\",\n  \"result\": []\n}\n"))
	}))
	defer srv.Close()

	runner := NewHTTPRunner(srv.Client(), "calendly", "s3cret", time.Second, nil, nil)
	req := NewRequest(MethodListEventTypes, nil)
	resp, err := runner.Call(context.Background(), Target{UserID: "user-7", AccessToken: "never-sent", BridgeURL: srv.URL}, req)
	require.NoError(t, err)

	var result []any
	require.NoError(t, resp.DecodeResult(&result))
	assert.Empty(t, result)
	assert.Equal(t, "calendly", got.Server)
	assert.Equal(t, "user-7", got.UserID)
	require.NotNil(t, got.Request)
	assert.Equal(t, req.ID, got.Request.ID)
	assert.Equal(t, MethodListEventTypes, got.Request.Method)
}

func TestHTTPRunnerNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"worker failed","details":"Traceback"}`))
	}))
	defer srv.Close()

	runner := NewHTTPRunner(srv.Client(), "", "", time.Second, nil, nil)
	_, err := runner.Call(context.Background(), Target{UserID: "u", BridgeURL: srv.URL}, NewRequest(MethodListEventTypes, nil))

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "worker failed: Traceback", httpErr.Body)
}

func TestHTTPRunnerMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer srv.Close()

	runner := NewHTTPRunner(srv.Client(), "calendly", "", time.Second, nil, nil)
	_, err := runner.Call(context.Background(), Target{UserID: "u", BridgeURL: srv.URL}, NewRequest(MethodListEventTypes, nil))
	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
}

func TestHTTPRunnerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	runner := NewHTTPRunner(nil, "calendly", "", 100*time.Millisecond, nil, nil)
	_, err := runner.Call(context.Background(), Target{UserID: "u", BridgeURL: srv.URL}, NewRequest(MethodListEventTypes, nil))
	require.Error(t, err)
}

func TestHTTPRunnerRequiresURL(t *testing.T) {
	runner := NewHTTPRunner(nil, "calendly", "", time.Second, nil, nil)
	_, err := runner.Call(context.Background(), Target{UserID: "u"}, NewRequest(MethodListEventTypes, nil))
	assert.Error(t, err)
}
