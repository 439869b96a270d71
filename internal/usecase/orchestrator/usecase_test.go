package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/usecase/stages"
)

type funcLLM struct {
	mu    sync.Mutex
	calls []string
	fn    func(prompt string) (string, error)
}

func (m *funcLLM) Complete(ctx context.Context, prompt string, history []entity.Message) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, prompt)
	m.mu.Unlock()
	return m.fn(prompt)
}

func (m *funcLLM) countCalls(marker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.calls {
		if strings.Contains(p, marker) {
			n++
		}
	}
	return n
}

type funcSearch struct {
	mu      sync.Mutex
	queries []string
	fn      func(query string) ([]entity.SourceRecord, error)
}

func (m *funcSearch) Search(ctx context.Context, query string, maxResults int, depth output.SearchDepth) ([]entity.SourceRecord, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	return m.fn(query)
}

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any) {}
func (nopLogger) Warn(msg string, args ...any) {}
func (nopLogger) Error(msg string, args ...any) {}
func (l nopLogger) WithField(key string, value any) output.LoggerPort { return l }
func (nopLogger) Close() error { return nil }

func planJSON(queries ...string) string {
	parts := make([]string, 0, len(queries))
	for _, q := range queries {
		parts = append(parts, fmt.Sprintf(`{"text": %q, "rationale": "covers one angle"}`, q))
	}
	return fmt.Sprintf(`{"main_question": "q", "queries": [%s]}`, strings.Join(parts, ", "))
}

func healthyLLM(queries ...string) *funcLLM {
	return &funcLLM{fn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Shape (plan)"):
			return planJSON(queries...), nil
		case strings.Contains(prompt, "Shape (analysis)"):
			return `{"key_findings": ["f1"], "knowledge_gaps": [], "conflicts": [], "credibility": {}}`, nil
		case strings.Contains(prompt, "research planner"):
			return "planning narrative", nil
		case strings.Contains(prompt, "research analyst"):
			return "analysis narrative", nil
		case strings.Contains(prompt, "research writer"):
			return "the synthesized answer", nil
		}
		return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
	}}
}

func newResearcher(llm output.LLMPort, search output.SearchPort, cfg Config) *UseCase {
	log := nopLogger{}
	return New(
		stages.NewGather(llm, search, log, 5, output.SearchDepthBasic),
		stages.NewAnalyze(llm, log),
		stages.NewSynthesize(llm, log),
		log,
		cfg,
	)
}

// Single-query plan, retrieval returns two sources.
func TestResearch_SingleQueryTwoSources(t *testing.T) {
	llm := healthyLLM("X query")
	search := &funcSearch{fn: func(query string) ([]entity.SourceRecord, error) {
		return []entity.SourceRecord{
			{URL: "https://a", Title: "A", Snippet: "s1"},
			{URL: "https://b", Title: "B", Snippet: "s2"},
		}, nil
	}}

	result := newResearcher(llm, search, Config{}).Research(context.Background(), "X")

	if result.Stats.QueriesExecuted != 1 {
		t.Errorf("expected 1 query executed, got %d", result.Stats.QueriesExecuted)
	}
	if result.Stats.SourcesFound != 2 {
		t.Errorf("expected 2 sources found, got %d", result.Stats.SourcesFound)
	}
	if result.Answer != "the synthesized answer" {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if result.Question != "X" {
		t.Errorf("unexpected question: %q", result.Question)
	}
	if result.ResearchID == "" {
		t.Error("research id must be set")
	}
	if len(result.Stats.Errors) != 0 {
		t.Errorf("expected clean run, got errors %v", result.Stats.Errors)
	}
}

// Extraction always fails: the run still reaches an answer on fallbacks.
func TestResearch_ExtractionAlwaysFails(t *testing.T) {
	llm := &funcLLM{fn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "Extract a structured object"):
			return "no json here", nil
		case strings.Contains(prompt, "research planner"):
			return "planning narrative", nil
		case strings.Contains(prompt, "research analyst"):
			return "analysis narrative", nil
		case strings.Contains(prompt, "research writer"):
			return "answer from raw content", nil
		}
		return "", fmt.Errorf("unexpected prompt")
	}}
	search := &funcSearch{fn: func(query string) ([]entity.SourceRecord, error) {
		return []entity.SourceRecord{{URL: "https://a", Title: "A", Snippet: "s"}}, nil
	}}

	result := newResearcher(llm, search, Config{}).Research(context.Background(), "the question")

	if result.Answer != "answer from raw content" {
		t.Errorf("run must still produce an answer, got %q", result.Answer)
	}
	// Fallback plan searches the question itself.
	if len(search.queries) != 1 || search.queries[0] != "the question" {
		t.Errorf("expected one direct search for the question, got %v", search.queries)
	}
	// One extraction error per adapter use (plan + analysis).
	if len(result.Stats.Errors) != 2 {
		t.Errorf("expected 2 extraction errors, got %v", result.Stats.Errors)
	}
}

// Retrieval fails for every query: gather still completes via the attempted
// ledger and the run proceeds through analyze and synthesize.
func TestResearch_RetrievalAlwaysFails(t *testing.T) {
	llm := healthyLLM("q1", "q2")
	search := &funcSearch{fn: func(query string) ([]entity.SourceRecord, error) {
		return nil, errors.New("connection refused")
	}}

	result := newResearcher(llm, search, Config{}).Research(context.Background(), "X")

	if result.Stats.QueriesExecuted != 0 {
		t.Errorf("no query succeeded, expected 0 executed, got %d", result.Stats.QueriesExecuted)
	}
	if result.Stats.SourcesFound != 0 {
		t.Errorf("expected 0 sources, got %d", result.Stats.SourcesFound)
	}
	searchErrs := 0
	for _, e := range result.Stats.Errors {
		if strings.Contains(e, "connection refused") {
			searchErrs++
		}
	}
	if searchErrs != 2 {
		t.Errorf("expected one error per attempted query, got %v", result.Stats.Errors)
	}
	if result.Answer != "the synthesized answer" {
		t.Errorf("run must still synthesize, got %q", result.Answer)
	}
}

// The reasoning service fails on the very first call: fatal, placeholder
// answer, no later stage runs.
func TestResearch_FatalGatherFailure(t *testing.T) {
	llm := &funcLLM{fn: func(prompt string) (string, error) {
		return "", errors.New("auth failed")
	}}
	search := &funcSearch{fn: func(query string) ([]entity.SourceRecord, error) {
		t.Error("retrieval must not run after a fatal planning failure")
		return nil, nil
	}}

	result := newResearcher(llm, search, Config{}).Research(context.Background(), "X")

	if result.Answer != "research failed to complete" {
		t.Errorf("expected failure placeholder, got %q", result.Answer)
	}
	if len(result.Stats.Errors) != 1 {
		t.Errorf("expected exactly the gather error, got %v", result.Stats.Errors)
	}
	if got := llm.countCalls("research analyst"); got != 0 {
		t.Errorf("analyze must not run, saw %d analysis calls", got)
	}
	if got := llm.countCalls("research writer"); got != 0 {
		t.Errorf("synthesize must not run, saw %d synthesis calls", got)
	}
}

// Seven planned queries need ceil(7/3) = 3 gather passes, then one analyze
// and one synthesize.
func TestResearch_TerminationBound(t *testing.T) {
	llm := healthyLLM("q1", "q2", "q3", "q4", "q5", "q6", "q7")
	search := &funcSearch{fn: func(query string) ([]entity.SourceRecord, error) {
		return []entity.SourceRecord{{URL: "https://" + query, Title: query, Snippet: "s"}}, nil
	}}

	result := newResearcher(llm, search, Config{}).Research(context.Background(), "X")

	if got := llm.countCalls("research planner"); got != 3 {
		t.Errorf("expected 3 gather passes, got %d", got)
	}
	if got := llm.countCalls("research analyst"); got != 1 {
		t.Errorf("expected 1 analyze pass, got %d", got)
	}
	if got := llm.countCalls("research writer"); got != 1 {
		t.Errorf("expected 1 synthesize pass, got %d", got)
	}
	if result.Stats.QueriesExecuted != 7 {
		t.Errorf("expected 7 queries executed, got %d", result.Stats.QueriesExecuted)
	}
}

type loopStage struct{}

func (loopStage) Run(ctx context.Context, state *entity.TaskState) {
	state.NextStep = entity.StepGather
}

func TestResearch_IterationCeiling(t *testing.T) {
	uc := New(loopStage{}, loopStage{}, loopStage{}, nopLogger{}, Config{MaxIterations: 5})

	result := uc.Research(context.Background(), "X")

	if result.Answer != "research failed to complete" {
		t.Errorf("expected failure placeholder, got %q", result.Answer)
	}
	found := false
	for _, e := range result.Stats.Errors {
		if strings.Contains(e, "iteration limit") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an iteration limit error, got %v", result.Stats.Errors)
	}
}

func TestResearch_SourceDeduplication(t *testing.T) {
	llm := healthyLLM("q1", "q2")
	search := &funcSearch{fn: func(query string) ([]entity.SourceRecord, error) {
		return []entity.SourceRecord{{URL: "https://same", Title: "Same", Snippet: "s"}}, nil
	}}

	result := newResearcher(llm, search, Config{}).Research(context.Background(), "X")

	if len(result.Sources) != 1 {
		t.Errorf("expected deduplicated source list, got %v", result.Sources)
	}
	if result.Stats.SourcesFound != 2 {
		t.Errorf("sources_found counts raw records, expected 2, got %d", result.Stats.SourcesFound)
	}
}

func TestResearch_IndependentRuns(t *testing.T) {
	llm := healthyLLM("q1")
	search := &funcSearch{fn: func(query string) ([]entity.SourceRecord, error) {
		return []entity.SourceRecord{{URL: "https://a", Title: "A", Snippet: "s"}}, nil
	}}
	uc := newResearcher(llm, search, Config{})

	first := uc.Research(context.Background(), "X")
	second := uc.Research(context.Background(), "X")

	if first.ResearchID == second.ResearchID {
		t.Error("each call must get a fresh research id")
	}
	if second.Stats.QueriesExecuted != 1 {
		t.Errorf("state leaked across runs: %d queries", second.Stats.QueriesExecuted)
	}
}
