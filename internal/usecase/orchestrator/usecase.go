package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"research-agent/internal/application/port/input"
	"research-agent/internal/application/port/output"
	"research-agent/internal/domain/entity"
	"research-agent/internal/usecase/router"
)

const (
	defaultMaxIterations = 30

	// failedAnswer is returned when the run never produced a final answer.
	failedAnswer = "research failed to complete"
)

// Stage is one unit of work in the research state machine. Implementations
// mutate the state in place and must set NextStep before returning.
type Stage interface {
	Run(ctx context.Context, state *entity.TaskState)
}

var _ input.Researcher = (*UseCase)(nil)

// UseCase drives the research state machine: it dispatches the stage named
// by the state's NextStep, routes the proposed transition, and loops until
// Done. Each Research call owns a fresh task state, so one UseCase may serve
// concurrent runs.
type UseCase struct {
	stages        map[entity.Step]Stage
	logger        output.LoggerPort
	maxIterations int
}

type Config struct {
	MaxIterations int
}

func New(
	gather Stage,
	analyze Stage,
	synthesize Stage,
	logger output.LoggerPort,
	cfg Config,
) *UseCase {
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = defaultMaxIterations
	}

	return &UseCase{
		stages: map[entity.Step]Stage{
			entity.StepGather:     gather,
			entity.StepAnalyze:    analyze,
			entity.StepSynthesize: synthesize,
		},
		logger:        logger,
		maxIterations: maxIterations,
	}
}

// Research runs one complete research task. It never returns an error:
// every failure path still yields a structured result with the errors that
// were accumulated along the way.
func (uc *UseCase) Research(ctx context.Context, question string) *entity.ResearchResult {
	state := entity.NewTaskState(uuid.NewString(), question)
	log := uc.logger.WithField("research_id", state.ID)

	log.Info("Research started", "question", question)

	for iteration := 1; ; iteration++ {
		if iteration > uc.maxIterations {
			log.Error("Iteration limit reached", "limit", uc.maxIterations)
			state.AddError(fmt.Sprintf("iteration limit (%d) reached, aborting run", uc.maxIterations))
			break
		}

		stage, ok := uc.stages[state.NextStep]
		if !ok {
			break
		}

		current := state.NextStep
		log.Debug("Dispatching stage", "stage", current, "iteration", iteration)
		stage.Run(ctx, state)

		state.NextStep = router.Route(current, state.NextStep)
		if state.NextStep == entity.StepDone {
			break
		}
	}

	result := uc.assembleResult(state)
	log.Info("Research finished",
		"status", state.Status,
		"queries", result.Stats.QueriesExecuted,
		"sources", result.Stats.SourcesFound,
		"errors", len(result.Stats.Errors),
		"duration", result.Stats.Duration)

	return result
}

func (uc *UseCase) assembleResult(state *entity.TaskState) *entity.ResearchResult {
	answer := state.FinalAnswer
	if answer == "" {
		answer = failedAnswer
	}

	var sources []entity.ResultSource
	seen := make(map[string]bool)
	total := 0
	for _, entry := range state.SearchResults {
		for _, src := range entry.Sources {
			total++
			if seen[src.URL] {
				continue
			}
			seen[src.URL] = true
			sources = append(sources, entity.ResultSource{URL: src.URL, Title: src.Title})
		}
	}

	return &entity.ResearchResult{
		ResearchID: state.ID,
		Question:   state.Question,
		Answer:     answer,
		Sources:    sources,
		Stats: entity.ResearchStats{
			Duration:        time.Since(state.StartedAt),
			QueriesExecuted: len(state.SearchResults),
			SourcesFound:    total,
			Errors:          state.Errors,
		},
	}
}
