// Command leadcheck runs lead extraction over a transcript file and prints the
// derived lead state and reply instructions. With -probe it also asks the
// scheduling worker for the user's event types.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/nextchat-ai-platform/internal/bridge"
	appconfig "github.com/wolfman30/nextchat-ai-platform/internal/config"
	"github.com/wolfman30/nextchat-ai-platform/internal/leads"
	"github.com/wolfman30/nextchat-ai-platform/pkg/logging"
)

type report struct {
	Lead          leads.LeadState  `json:"lead"`
	Instructions  string           `json:"instructions"`
	MissingFields []string         `json:"missingFields"`
	Probe         *bridge.Response `json:"probe,omitempty"`
}

type options struct {
	path     string
	probe    bool
	userID   string
	tokenEnv string
	timeout  time.Duration
}

func main() {
	_ = godotenv.Load()
	if err := run(context.Background(), os.Args[1:], os.Stdin, os.Stdout, os.Getenv, nil); err != nil {
		fmt.Fprintln(os.Stderr, "leadcheck:", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	fs := flag.NewFlagSet("leadcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	fs.BoolVar(&opts.probe, "probe", false, "call list_event_types through the scheduling worker")
	fs.StringVar(&opts.userID, "user", "", "user id the probe runs under")
	fs.StringVar(&opts.tokenEnv, "token-env", "CALENDLY_TOKEN", "environment variable holding the access token")
	fs.DurationVar(&opts.timeout, "timeout", 0, "worker timeout (defaults to BRIDGE_TIMEOUT)")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 1 {
		return opts, errors.New("at most one transcript file may be given")
	}
	if fs.NArg() == 1 {
		opts.path = fs.Arg(0)
	}
	return opts, nil
}

// run is main without process globals. runner overrides the worker built from config.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, getenv func(string) string, runner bridge.Runner) error {
	opts, err := parseFlags(args, io.Discard)
	if err != nil {
		return err
	}

	input := stdin
	if opts.path != "" && opts.path != "-" {
		f, err := os.Open(opts.path)
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}
	raw, err := io.ReadAll(input)
	if err != nil {
		return fmt.Errorf("read transcript: %w", err)
	}
	transcript, err := parseTranscript(raw)
	if err != nil {
		return err
	}

	state := leads.Extract(transcript)
	out := report{
		Lead:          state,
		Instructions:  leads.InstructionsFor(state),
		MissingFields: state.MissingFields(),
	}
	if out.MissingFields == nil {
		out.MissingFields = []string{}
	}

	if opts.probe {
		resp, err := probe(ctx, opts, getenv, runner)
		if err != nil {
			return err
		}
		out.Probe = resp
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// parseTranscript accepts a JSON array of turns or plain text with one user
// turn per non-empty line.
func parseTranscript(raw []byte) ([]leads.Turn, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var turns []leads.Turn
		if err := json.Unmarshal(trimmed, &turns); err != nil {
			return nil, fmt.Errorf("decode transcript: %w", err)
		}
		return turns, nil
	}
	var turns []leads.Turn
	for _, line := range strings.Split(string(trimmed), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			turns = append(turns, leads.Turn{Role: leads.RoleUser, Content: line})
		}
	}
	return turns, nil
}

func probe(ctx context.Context, opts options, getenv func(string) string, runner bridge.Runner) (*bridge.Response, error) {
	if strings.TrimSpace(opts.userID) == "" {
		return nil, errors.New("-probe requires -user")
	}
	token := strings.TrimSpace(getenv(opts.tokenEnv))
	if token == "" {
		return nil, fmt.Errorf("%s is not set", opts.tokenEnv)
	}

	if runner == nil {
		cfg := appconfig.Load()
		timeout := cfg.BridgeTimeout
		if opts.timeout > 0 {
			timeout = opts.timeout
		}
		runner = bridge.NewProcessRunner(bridge.ProcessConfig{
			Command:  cfg.BridgeCommand,
			Args:     cfg.BridgeArgs,
			TokenEnv: cfg.BridgeTokenEnv,
			Timeout:  timeout,
		}, logging.New(cfg.LogLevel), nil)
	}

	resp, err := runner.Call(ctx, bridge.Target{UserID: opts.userID, AccessToken: token},
		bridge.NewRequest("list_event_types", map[string]any{}))
	if err != nil {
		if details := bridge.Diagnostic(err); details != "" {
			return nil, fmt.Errorf("probe failed: %w (%s)", err, details)
		}
		return nil, fmt.Errorf("probe failed: %w", err)
	}
	return resp, nil
}
