package stages

import (
	"context"
	"fmt"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/prompts"
	"research-agent/internal/usecase/extract"
)

var analysisSchema = extract.Schema{
	Name: "analysis",
	Shape: `{
  "key_findings": ["string"],
  "knowledge_gaps": ["string"],
  "conflicts": [{"description": "string", "sources": ["string"]}],
  "credibility": {"url": 0.0}
}`,
}

func fallbackAnalysis() entity.Analysis {
	return entity.Analysis{
		KeyFindings:   []string{"analysis parsing failed, using raw content instead"},
		KnowledgeGaps: []string{"unable to determine knowledge gaps"},
		Conflicts:     []entity.Conflict{},
		Credibility:   map[string]float64{},
	}
}

// Analyze reviews the accumulated search results. It is best-effort: every
// failure path still advances the run to Synthesize.
type Analyze struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

func NewAnalyze(llm output.LLMPort, logger output.LoggerPort) *Analyze {
	return &Analyze{llm: llm, logger: logger}
}

func (a *Analyze) Run(ctx context.Context, state *entity.TaskState) {
	a.logger.Info("Analyze stage", "results", len(state.SearchResults))
	state.NextStep = entity.StepSynthesize

	prompt, err := prompts.GenerateAnalysisPrompt(state)
	if err != nil {
		state.AddError(fmt.Sprintf("analyze: render analysis prompt: %v", err))
		return
	}

	response, err := a.llm.Complete(ctx, prompt, state.Messages)
	if err != nil {
		a.logger.Warn("Analysis call failed, continuing degraded", "error", err)
		state.AddError(fmt.Sprintf("analyze: analysis call failed: %v", err))
		return
	}
	state.AppendMessage(entity.RoleAssistant, response)

	analysis := extract.Run(ctx, a.llm, a.logger, response, analysisSchema, fallbackAnalysis, state)
	state.Analysis = &analysis
}
