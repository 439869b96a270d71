package output

import (
	"context"

	"research-agent/internal/domain/entity"
)

// LLMPort is the reasoning service: one rendered prompt plus the transcript
// so far, one free-form completion back.
type LLMPort interface {
	Complete(ctx context.Context, prompt string, history []entity.Message) (string, error)
}
