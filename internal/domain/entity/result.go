package entity

import "time"

// ResultSource is one deduplicated citation in the final result.
type ResultSource struct {
	URL   string
	Title string
}

type ResearchStats struct {
	Duration        time.Duration
	QueriesExecuted int
	SourcesFound    int
	Errors          []string
}

// ResearchResult is the only externally observable output of one run.
type ResearchResult struct {
	ResearchID string
	Question   string
	Answer     string
	Sources    []ResultSource
	Stats      ResearchStats
}
