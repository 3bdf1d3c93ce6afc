package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/wolfman30/nextchat-ai-platform/internal/observability/metrics"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

const maxStderrBytes = 64 << 10

// ProcessConfig configures the one-shot worker process.
type ProcessConfig struct {
	Command string
	Args    []string
	// TokenEnv names the environment variable that receives the access token.
	TokenEnv string
	// Env is appended to the inherited environment.
	Env     []string
	Timeout time.Duration
}

// ProcessRunner spawns a fresh worker per call, writes one request line to its
// stdin, buffers stdout until exit and parses the final line.
type ProcessRunner struct {
	cfg     ProcessConfig
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
}

var _ Runner = (*ProcessRunner)(nil)

// NewProcessRunner creates a process runner.
func NewProcessRunner(cfg ProcessConfig, logger *logging.Logger, m *metrics.EngineMetrics) *ProcessRunner {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.TokenEnv == "" {
		cfg.TokenEnv = "CALENDLY_TOKEN"
	}
	return &ProcessRunner{
		cfg:     cfg,
		logger:  logger.WithComponent("bridge.process"),
		metrics: m,
	}
}

// Call runs req against a new worker process.
func (r *ProcessRunner) Call(ctx context.Context, target Target, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := r.call(ctx, target, req)
	elapsed := time.Since(start)
	r.metrics.ObserveBridgeCall(req.Method, callStatus(resp, err), elapsed.Seconds())

	if err != nil {
		r.logger.Warn("bridge call failed",
			"method", req.Method,
			"user_id", target.UserID,
			"token", logging.Redact(target.AccessToken),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
			"diagnostic", Diagnostic(err),
		)
		return nil, err
	}
	r.logger.Debug("bridge call completed",
		"method", req.Method,
		"user_id", target.UserID,
		"duration_ms", elapsed.Milliseconds(),
		"rpc_error", resp.IsError(),
	)
	return resp, nil
}

func (r *ProcessRunner) call(ctx context.Context, target Target, req *Request) (*Response, error) {
	command := strings.TrimSpace(r.cfg.Command)
	if command == "" {
		return nil, errors.New("bridge: worker command is required")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("bridge: encode request: %w", err)
	}
	payload = append(payload, '\n')

	callCtx := ctx
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	stderr := &cappedBuffer{limit: maxStderrBytes}

	cmd := exec.CommandContext(callCtx, command, r.cfg.Args...)
	cmd.Env = r.environ(target.AccessToken)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	runErr := cmd.Run()
	if callCtx.Err() != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("bridge: %s: %w", req.Method, ctx.Err())
		}
		return nil, fmt.Errorf("%w after %s (%s)", ErrTimeout, r.cfg.Timeout, req.Method)
	}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			return nil, &ProcessError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String(), Err: runErr}
		}
		return nil, fmt.Errorf("bridge: start worker: %w", runErr)
	}

	resp, err := ParseResponse(stdout.Bytes())
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// environ passes the token only through the child's environment. Any inherited
// value of the token variable is replaced.
func (r *ProcessRunner) environ(token string) []string {
	prefix := r.cfg.TokenEnv + "="
	base := os.Environ()
	env := make([]string, 0, len(base)+len(r.cfg.Env)+1)
	for _, kv := range base {
		if !strings.HasPrefix(kv, prefix) {
			env = append(env, kv)
		}
	}
	env = append(env, r.cfg.Env...)
	return append(env, prefix+token)
}

// cappedBuffer keeps the first limit bytes and silently drops the rest so a
// chatty worker cannot block on a full pipe.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	if room := b.limit - b.buf.Len(); room > 0 {
		if len(p) > room {
			b.buf.Write(p[:room])
		} else {
			b.buf.Write(p)
		}
	}
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	return strings.TrimSpace(b.buf.String())
}
