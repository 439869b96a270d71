package stages

import (
	"context"
	"fmt"
	"sync"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/prompts"
	"research-agent/internal/usecase/extract"
)

// queryBatchSize caps how many retrieval calls one Gather invocation issues.
// Remaining planned queries are picked up by the next loop through Gather.
const queryBatchSize = 3

var planSchema = extract.Schema{
	Name: "plan",
	Shape: `{
  "main_question": "string",
  "queries": [{"text": "string", "rationale": "string"}]
}`,
}

func fallbackPlan(question string) entity.Plan {
	return entity.Plan{
		MainQuestion: question,
		Queries: []entity.PlannedQuery{
			{Text: question, Rationale: "direct search for the main question."},
		},
	}
}

// Gather plans the research on its first pass and executes planned searches
// in batches until every planned query has been attempted.
type Gather struct {
	llm        output.LLMPort
	search     output.SearchPort
	logger     output.LoggerPort
	maxResults int
	depth      output.SearchDepth
}

func NewGather(llm output.LLMPort, search output.SearchPort, logger output.LoggerPort, maxResults int, depth output.SearchDepth) *Gather {
	return &Gather{
		llm:        llm,
		search:     search,
		logger:     logger,
		maxResults: maxResults,
		depth:      depth,
	}
}

// Run mutates the task state in place. Planning errors are fatal for the
// run; per-query retrieval failures are recorded and skipped.
func (g *Gather) Run(ctx context.Context, state *entity.TaskState) {
	g.logger.Info("Gather stage", "attempted", len(state.Attempted))

	prompt, err := prompts.GeneratePlanningPrompt(state)
	if err != nil {
		state.Fail(fmt.Sprintf("gather: render planning prompt: %v", err))
		return
	}

	response, err := g.llm.Complete(ctx, prompt, state.Messages)
	if err != nil {
		state.Fail(fmt.Sprintf("gather: planning call failed: %v", err))
		return
	}
	state.AppendMessage(entity.RoleAssistant, response)

	if state.Plan == nil {
		plan := extract.Run(ctx, g.llm, g.logger, response, planSchema,
			func() entity.Plan { return fallbackPlan(state.Question) }, state)
		state.Plan = &plan
		state.Status = entity.TaskStatusInProgress
		g.logger.Info("Plan created", "queries", len(plan.Queries))
	}

	if state.Status == entity.TaskStatusInProgress {
		g.runSearchBatch(ctx, state)
	}

	if len(state.Attempted) >= len(state.Plan.Queries) {
		state.Status = entity.TaskStatusComplete
		state.NextStep = entity.StepAnalyze
	} else {
		state.NextStep = entity.StepGather
	}
}

// runSearchBatch issues up to queryBatchSize retrieval calls for planned
// queries not yet attempted. Calls run concurrently; results merge back in
// plan order and one failing query never blocks its siblings.
func (g *Gather) runSearchBatch(ctx context.Context, state *entity.TaskState) {
	var batch []string
	seen := make(map[string]bool)
	for _, q := range state.Plan.Queries {
		if state.HasAttempted(q.Text) || seen[q.Text] {
			continue
		}
		seen[q.Text] = true
		batch = append(batch, q.Text)
		if len(batch) == queryBatchSize {
			break
		}
	}
	if len(batch) == 0 {
		return
	}

	g.logger.Debug("Executing search batch", "size", len(batch))

	sources := make([][]entity.SourceRecord, len(batch))
	failures := make([]error, len(batch))

	var wg sync.WaitGroup
	for i, query := range batch {
		wg.Add(1)
		go func(i int, query string) {
			defer wg.Done()
			sources[i], failures[i] = g.search.Search(ctx, query, g.maxResults, g.depth)
		}(i, query)
	}
	wg.Wait()

	for i, query := range batch {
		state.Attempted = append(state.Attempted, query)
		if failures[i] != nil {
			g.logger.Warn("Search failed", "query", query, "error", failures[i])
			state.AddError(fmt.Sprintf("gather: search %q: %v", query, failures[i]))
			continue
		}
		g.logger.Debug("Search completed", "query", query, "sources", len(sources[i]))
		state.AddSearchEntry(query, sources[i])
	}
}
