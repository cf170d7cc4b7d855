package service

import "context"

// TextGenerator is an opaque prompt-in, text-out model call.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Name() string
}
