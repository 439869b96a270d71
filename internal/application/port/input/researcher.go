package input

import (
	"context"

	"research-agent/internal/domain/entity"
)

// Researcher runs one complete research task. Every call is an independent
// run with a fresh task state and a fresh identifier, and always yields a
// structured result, never an error escaping the run.
type Researcher interface {
	Research(ctx context.Context, question string) *entity.ResearchResult
}
