package conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConverse struct {
	out   *bedrockruntime.ConverseOutput
	err   error
	input *bedrockruntime.ConverseInput
}

func (f *fakeConverse) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	f.input = params
	return f.out, f.err
}

func textOutput(text string) *bedrockruntime.ConverseOutput {
	return &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: text}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(10),
			OutputTokens: aws.Int32(5),
			TotalTokens:  aws.Int32(15),
		},
	}
}

func TestBedrockLLMClient_Complete(t *testing.T) {
	api := &fakeConverse{out: textOutput(" Hallo! ")}
	client := NewBedrockLLMClient(api, "anthropic.claude-3-haiku")
	assert.Equal(t, "bedrock", client.Provider())

	resp, err := client.Complete(context.Background(), LLMRequest{
		System:      []string{DefaultSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: "prompt"}},
		MaxTokens:   100,
		Temperature: 0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hallo!", resp.Text)
	assert.Equal(t, "anthropic.claude-3-haiku", resp.Model)
	assert.Equal(t, int32(15), resp.Usage.TotalTokens)
	assert.Equal(t, "end_turn", resp.StopReason)

	require.NotNil(t, api.input)
	assert.Equal(t, "anthropic.claude-3-haiku", aws.ToString(api.input.ModelId))
	assert.Len(t, api.input.System, 1)
	assert.Equal(t, int32(100), aws.ToInt32(api.input.InferenceConfig.MaxTokens))
}

func TestBedrockLLMClient_MapsTranscriptRoles(t *testing.T) {
	api := &fakeConverse{out: textOutput("ok")}
	_, err := NewBedrockLLMClient(api, "model").Complete(context.Background(), LLMRequest{
		System: []string{"sei freundlich"},
		Messages: []ChatMessage{
			{Role: ChatRoleSystem, Content: "kurz antworten"},
			{Role: ChatRoleUser, Content: "Hallo"},
			{Role: "bot", Content: "Hi!"},
			{Role: ChatRoleUser, Content: "Termin?"},
		},
		Temperature: -1,
	})
	require.NoError(t, err)

	require.Len(t, api.input.System, 1)
	system, ok := api.input.System[0].(*brtypes.SystemContentBlockMemberText)
	require.True(t, ok)
	assert.Equal(t, "sei freundlich\n\nkurz antworten", system.Value)
	require.Len(t, api.input.Messages, 3)
	assert.Equal(t, brtypes.ConversationRoleAssistant, api.input.Messages[1].Role)
	assert.Nil(t, api.input.InferenceConfig)
}

func TestBedrockLLMClient_BlankOutputIsEmptyText(t *testing.T) {
	api := &fakeConverse{out: textOutput("   ")}
	resp, err := NewBedrockLLMClient(api, "model").Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}})
	require.NoError(t, err)
	assert.Empty(t, resp.Text)
	assert.Nil(t, api.input.InferenceConfig, "zero temperature leaves the model default")
}

func TestBedrockLLMClient_Errors(t *testing.T) {
	_, err := NewBedrockLLMClient(&fakeConverse{}, "").Complete(context.Background(), LLMRequest{})
	assert.Error(t, err)

	api := &fakeConverse{err: errors.New("throttled")}
	_, err = NewBedrockLLMClient(api, "model").Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleUser, Content: "hi"}}})
	assert.ErrorContains(t, err, "throttled")

	api = &fakeConverse{out: textOutput("x")}
	_, err = NewBedrockLLMClient(api, "model").Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: "tool", Content: "hi"}}})
	assert.Error(t, err)

	_, err = NewBedrockLLMClient(api, "model").Complete(context.Background(), LLMRequest{Messages: []ChatMessage{{Role: ChatRoleAssistant, Content: "hi"}}})
	assert.ErrorIs(t, err, errNoUserTurn)
	assert.Nil(t, api.input)
}
