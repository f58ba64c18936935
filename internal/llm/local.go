// File path: internal/llm/local.go
package llm

import (
	"context"
	"fmt"
)

// LocalProvider answers without a model. It never produces a parseable
// selection, which deliberately routes callers onto their deterministic
// fallback path when no API key is configured.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

func (p *LocalProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("local provider: no model configured (%d messages received)", len(messages)), nil
}

func (p *LocalProvider) Name() string { return "local" }
