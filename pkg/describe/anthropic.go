package describe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

const defaultAnthropicModel = "claude-sonnet-4-5"

// Anthropic generates descriptions through the Anthropic Messages API.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic builds the backend for the given API key. An empty model
// selects the default.
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

func (a *Anthropic) Source() string { return "anthropic" }

func (a *Anthropic) Describe(ctx context.Context, step guide.Step) (string, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: 128,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt(step))),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic describe: %w", err)
	}
	for _, block := range message.Content {
		if text := strings.TrimSpace(block.Text); text != "" {
			return text, nil
		}
	}
	return "", errors.New("anthropic describe: empty response")
}
