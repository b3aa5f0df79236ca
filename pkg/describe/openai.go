package describe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAI generates descriptions through the chat completions API.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the backend for the given API key. An empty model
// selects the default.
func NewOpenAI(apiKey, model string) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (o *OpenAI) Source() string { return "openai" }

func (o *OpenAI) Describe(ctx context.Context, step guide.Step) (string, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt(step)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai describe: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("openai describe: empty response")
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("openai describe: empty response")
	}
	return text, nil
}
