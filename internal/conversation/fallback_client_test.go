package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userRequest(text string) LLMRequest {
	return LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: text}}}
}

func TestFallbackLLMClient(t *testing.T) {
	t.Run("primary success skips secondary", func(t *testing.T) {
		primary := &stubLLM{name: "ollama", text: "lokal"}
		secondary := &stubLLM{name: "gemini", text: "remote"}
		resp, err := NewFallbackLLMClient(primary, secondary, quietLogger()).Complete(context.Background(), userRequest("hi"))
		require.NoError(t, err)
		assert.Equal(t, "lokal", resp.Text)
		assert.Equal(t, 0, secondary.calls)
	})

	t.Run("primary error retries on secondary", func(t *testing.T) {
		primary := &stubLLM{name: "ollama", err: errors.New("connection refused")}
		secondary := &stubLLM{name: "gemini", text: "remote"}
		client := NewFallbackLLMClient(primary, secondary, quietLogger())
		assert.Equal(t, "ollama", client.Provider())

		resp, err := client.Complete(context.Background(), userRequest("hi"))
		require.NoError(t, err)
		assert.Equal(t, "remote", resp.Text)
		assert.Equal(t, 1, secondary.calls)
	})

	t.Run("both fail returns secondary error", func(t *testing.T) {
		primary := &stubLLM{name: "ollama", err: errors.New("down")}
		secondary := &stubLLM{name: "gemini", err: errors.New("quota")}
		_, err := NewFallbackLLMClient(primary, secondary, quietLogger()).Complete(context.Background(), userRequest("hi"))
		assert.EqualError(t, err, "quota")
	})

	t.Run("malformed request is not retried", func(t *testing.T) {
		primary := &stubLLM{name: "ollama", err: errNoUserTurn}
		secondary := &stubLLM{name: "gemini", text: "remote"}
		_, err := NewFallbackLLMClient(primary, secondary, quietLogger()).Complete(context.Background(), LLMRequest{})
		assert.ErrorIs(t, err, errNoUserTurn)
		assert.Equal(t, 0, secondary.calls)
	})

	t.Run("cancelled context is not retried", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		primary := &stubLLM{name: "ollama", err: context.Canceled}
		secondary := &stubLLM{name: "gemini", text: "remote"}
		_, err := NewFallbackLLMClient(primary, secondary, quietLogger()).Complete(ctx, userRequest("hi"))
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 0, secondary.calls)
	})

	t.Run("nil secondary returns primary error", func(t *testing.T) {
		primary := &stubLLM{name: "ollama", err: errors.New("down")}
		_, err := NewFallbackLLMClient(primary, nil, quietLogger()).Complete(context.Background(), userRequest("hi"))
		assert.EqualError(t, err, "down")
	})
}
