package router

import "research-agent/internal/domain/entity"

// transitions is the authoritative contract for stage-to-stage movement.
// It is keyed by the stage that just ran and lists every destination that
// stage may legally emit.
var transitions = map[entity.Step]map[entity.Step]bool{
	entity.StepGather: {
		entity.StepGather:     true,
		entity.StepAnalyze:    true,
		entity.StepSynthesize: true,
		entity.StepDone:       true,
	},
	entity.StepAnalyze: {
		entity.StepGather:     true,
		entity.StepSynthesize: true,
		entity.StepDone:       true,
	},
	entity.StepSynthesize: {
		entity.StepGather:  true,
		entity.StepAnalyze: true,
		entity.StepDone:    true,
	},
}

// Route validates the step a stage proposed against the transition table.
// Any value outside the table collapses to Done, which guarantees the
// state machine terminates even on a corrupted signal.
func Route(current, proposed entity.Step) entity.Step {
	allowed, ok := transitions[current]
	if !ok {
		return entity.StepDone
	}
	if !allowed[proposed] {
		return entity.StepDone
	}
	return proposed
}
