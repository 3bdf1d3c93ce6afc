package bridge

import (
	"context"
	"errors"
	"fmt"
)

// ErrTimeout is returned when the worker does not answer within the configured bound.
var ErrTimeout = errors.New("bridge: worker timed out")

// Target identifies whose integration a call runs under.
type Target struct {
	UserID      string
	AccessToken string
	// BridgeURL, when set, routes the call over HTTP instead of a local process.
	BridgeURL string
}

// Runner performs one request/response exchange with a scheduling worker.
type Runner interface {
	Call(ctx context.Context, target Target, req *Request) (*Response, error)
}

// ProcessError reports a worker that exited non-zero. Stderr is diagnostic
// output for operators and must not reach end users.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("bridge: worker exited with code %d", e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// HTTPError reports a non-2xx answer from a remote bridge endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("bridge: http status %d", e.StatusCode)
	}
	return fmt.Sprintf("bridge: http status %d: %s", e.StatusCode, e.Body)
}

// Diagnostic returns operator-facing detail for a failed call, if any.
func Diagnostic(err error) string {
	var procErr *ProcessError
	if errors.As(err, &procErr) {
		return procErr.Stderr
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Body
	}
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr.Error()
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

func callStatus(resp *Response, err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case err != nil:
		return "error"
	case resp != nil && resp.IsError():
		return "rpc_error"
	default:
		return "ok"
	}
}
