package ai

import (
	"context"
	"fmt"
)

// stubProvider answers every prompt with a canned response. It stands in for
// a real language model in tests and demos.
type stubProvider struct{}

func (p *stubProvider) Name() string {
	return "stub"
}

func (p *stubProvider) Generate(ctx context.Context, model string, prompt string) (string, error) {
	_ = ctx
	_ = model
	return fmt.Sprintf("Demo answer generated with confidential context. Prompt size: %d.", len(prompt)), nil
}

func init() {
	Register("stub", func(args interface{}) (IChatProvider, error) {
		_ = args
		return &stubProvider{}, nil
	})
}
