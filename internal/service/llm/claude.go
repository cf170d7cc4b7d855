package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Claude generates text with the Anthropic Messages API.
type Claude struct {
	client anthropic.Client
	opts   Options
}

// NewClaude creates a Claude generator.
func NewClaude(opts Options) (*Claude, error) {
	opts = opts.withDefaults("claude-sonnet-4-20250514")
	if opts.APIKey == "" {
		return nil, fmt.Errorf("claude: api key is required")
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		// retries belong to the caller
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &Claude{client: anthropic.NewClient(reqOpts...), opts: opts}, nil
}

func (c *Claude) Name() string { return ProviderClaude }

func (c *Claude) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := c.opts.callContext(ctx)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.opts.Model),
		MaxTokens: int64(c.opts.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if c.opts.Temperature > 0 {
		params.Temperature = anthropic.Float(float64(c.opts.Temperature))
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude generate: %w", err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}

	if out.Len() == 0 {
		return "", fmt.Errorf("claude: %w", ErrEmptyResponse)
	}
	return out.String(), nil
}
