package stages

import (
	"context"
	"fmt"

	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/infrastructure/prompts"
)

// Synthesize writes the final answer. It is the only stage with an
// unconditional terminal transition: NextStep is Done on every path, so the
// run always terminates once Synthesize is entered.
type Synthesize struct {
	llm    output.LLMPort
	logger output.LoggerPort
}

func NewSynthesize(llm output.LLMPort, logger output.LoggerPort) *Synthesize {
	return &Synthesize{llm: llm, logger: logger}
}

func (s *Synthesize) Run(ctx context.Context, state *entity.TaskState) {
	s.logger.Info("Synthesize stage")
	state.NextStep = entity.StepDone

	prompt, err := prompts.GenerateSynthesisPrompt(state)
	if err != nil {
		state.AddError(fmt.Sprintf("synthesize: render synthesis prompt: %v", err))
		return
	}

	response, err := s.llm.Complete(ctx, prompt, state.Messages)
	if err != nil {
		s.logger.Warn("Synthesis call failed", "error", err)
		state.AddError(fmt.Sprintf("synthesize: synthesis call failed: %v", err))
		return
	}
	state.AppendMessage(entity.RoleAssistant, response)

	if state.FinalAnswer == "" {
		state.FinalAnswer = response
	}
}
