package conversation

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
)

const defaultOllamaModel = "llama3"

// OllamaLLMClient implements LLMClient against a local Ollama server using
// the non-streaming /api/generate endpoint.
type OllamaLLMClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
}

// NewOllamaLLMClient creates a client. baseURL may be the server root or the
// full generate endpoint.
func NewOllamaLLMClient(baseURL, model string, timeout time.Duration) *OllamaLLMClient {
	endpoint := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if !strings.HasSuffix(endpoint, "/api/generate") {
		endpoint = strings.TrimSuffix(endpoint, "/api") + "/api/generate"
	}
	if strings.TrimSpace(model) == "" {
		model = defaultOllamaModel
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OllamaLLMClient{
		endpoint:   endpoint,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *OllamaLLMClient) Provider() string { return "ollama" }

type ollamaGenerateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int32  `json:"prompt_eval_count"`
	EvalCount       int32  `json:"eval_count"`
	Error           string `json:"error"`
}

// Complete renders the messages into a single prompt and generates a reply.
func (c *OllamaLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	prompt := renderPrompt(req.Messages)
	if strings.TrimSpace(prompt) == "" {
		return LLMResponse{}, errors.New("conversation: ollama requires a prompt")
	}
	model := req.Model
	if model == "" {
		model = c.model
	}

	options := map[string]any{}
	if req.Temperature > 0 {
		options["temperature"] = req.Temperature
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	if req.TopP > 0 {
		options["top_p"] = req.TopP
	}

	payload, err := json.Marshal(ollamaGenerateRequest{
		Model:   model,
		Prompt:  prompt,
		System:  strings.Join(req.System, "\n\n"),
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: encode ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: build ollama request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: ollama request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return LLMResponse{}, fmt.Errorf("conversation: ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: decode ollama response: %w", err)
	}
	if decoded.Error != "" {
		return LLMResponse{}, fmt.Errorf("conversation: ollama error: %s", decoded.Error)
	}

	return LLMResponse{
		Text:       strings.TrimSpace(decoded.Response),
		Model:      decoded.Model,
		StopReason: decoded.DoneReason,
		Usage: TokenUsage{
			InputTokens:  decoded.PromptEvalCount,
			OutputTokens: decoded.EvalCount,
			TotalTokens:  decoded.PromptEvalCount + decoded.EvalCount,
		},
	}, nil
}

// renderPrompt flattens chat messages for completion-style endpoints. A single
// user message is passed through unchanged.
func renderPrompt(messages []ChatMessage) string {
	if len(messages) == 1 && messages[0].Role != ChatRoleAssistant {
		return messages[0].Content
	}
	var b strings.Builder
	for _, msg := range messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" || msg.Role == ChatRoleSystem {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		if msg.Role == ChatRoleAssistant {
			b.WriteString("Bot: ")
		} else {
			b.WriteString("Benutzer: ")
		}
		b.WriteString(content)
	}
	return b.String()
}
