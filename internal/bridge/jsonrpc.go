// Package bridge reaches the external scheduling worker through a one-shot
// JSON-RPC 2.0 exchange, either over a spawned process or over HTTP.
package bridge

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Version is the JSON-RPC version spoken with the worker.
const Version = "2.0"

// Worker methods.
const (
	MethodListEventTypes  = "list_event_types"
	MethodBookAppointment = "book_appointment"
)

// Standard JSON-RPC error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InternalError  = -32603
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	ID      string         `json:"id"`
	JSONRPC string         `json:"jsonrpc"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params"`
}

// Response is a JSON-RPC 2.0 response. Result is kept raw so callers decode
// the shape they expect.
type Response struct {
	JSONRPC string          `json:"jsonrpc,omitempty"`
	ID      any             `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object. The worker sometimes omits the code.
type RPCError struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("JSON-RPC error %d: %s (data: %v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("JSON-RPC error %d: %s", e.Code, e.Message)
}

// NewRequest builds a request with a fresh id. Nil params are sent as {}.
func NewRequest(method string, params map[string]any) *Request {
	if params == nil {
		params = map[string]any{}
	}
	return &Request{
		ID:      uuid.NewString(),
		JSONRPC: Version,
		Method:  method,
		Params:  params,
	}
}

// IsError reports whether the worker answered with an error object.
func (r *Response) IsError() bool {
	return r.Error != nil
}

// DecodeResult unmarshals the result payload into v.
func (r *Response) DecodeResult(v any) error {
	if r.Error != nil {
		return r.Error
	}
	if len(r.Result) == 0 || bytes.Equal(r.Result, []byte("null")) {
		return errors.New("bridge: response has no result")
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("bridge: decode result: %w", err)
	}
	return nil
}

// ParseResponse decodes the last non-empty line of the worker output. Earlier
// lines are stray prints from the worker and are ignored.
func ParseResponse(output []byte) (*Response, error) {
	return decodeResponse(lastLine(output))
}

func decodeResponse(data []byte) (*Response, error) {
	if len(data) == 0 {
		return nil, &RPCError{Code: ParseError, Message: "empty worker output"}
	}
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &RPCError{
			Code:    ParseError,
			Message: "failed to parse JSON-RPC response",
			Data:    err.Error(),
		}
	}
	if resp.Error == nil && len(resp.Result) == 0 {
		return nil, &RPCError{Code: InvalidRequest, Message: "response carries neither result nor error"}
	}
	return &resp, nil
}

func lastLine(output []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(output), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if line := bytes.TrimSpace(lines[i]); len(line) > 0 {
			return line
		}
	}
	return nil
}
