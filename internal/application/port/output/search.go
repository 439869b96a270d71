package output

import (
	"context"

	"research-agent/internal/domain/entity"
)

type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
)

// SearchPort is the retrieval service. An empty result slice is not an
// error; implementations return an error only when the call itself failed.
type SearchPort interface {
	Search(ctx context.Context, query string, maxResults int, depth SearchDepth) ([]entity.SourceRecord, error)
}
