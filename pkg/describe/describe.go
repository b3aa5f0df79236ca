// Package describe produces the human-readable sentence attached to a
// captured step. The default backend is a local heuristic; hosted model
// backends are opt-in and fall back cleanly when they fail, leaving the
// step marked with the error instead of losing it.
package describe

import (
	"context"
	"errors"
	"fmt"

	"github.com/offlinefirst/guidecast/pkg/guide"
)

// ErrNoAPIKey indicates a hosted backend was selected without credentials.
var ErrNoAPIKey = errors.New("no api key stored for provider")

// Generator turns one step into a short instruction sentence.
type Generator interface {
	Describe(ctx context.Context, step guide.Step) (string, error)
	Source() string
}

// New resolves a generator by provider name. Hosted providers read their
// API key from the key store.
func New(provider, model string, keys *KeyStore) (Generator, error) {
	switch provider {
	case "", "heuristic":
		return Heuristic{}, nil
	case "anthropic":
		key, err := keys.APIKey(provider)
		if err != nil {
			return nil, err
		}
		return NewAnthropic(key, model), nil
	case "openai":
		key, err := keys.APIKey(provider)
		if err != nil {
			return nil, err
		}
		return NewOpenAI(key, model), nil
	default:
		return nil, fmt.Errorf("unknown describe provider %q", provider)
	}
}

// prompt renders the step context handed to hosted models.
func prompt(step guide.Step) string {
	return fmt.Sprintf(
		"Write one short imperative sentence describing this UI action for a how-to guide.\n"+
			"Action: %s\nApplication: %s\nWindow: %s\nShortcut: %s\nClick position: %.0f%%, %.0f%% of the window.\n"+
			"Reply with the sentence only.",
		step.Action, step.App, step.WindowTitle, step.Shortcut, step.ClickXPercent, step.ClickYPercent)
}
