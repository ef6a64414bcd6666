// Package checker provides the default automated verification collaborator.
// It applies cheap structural heuristics to a submission payload; anything it
// cannot decide confidently is left to the peer phase as uncertain.
package checker

import (
	"context"
	"encoding/json"

	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	"flow/contexts/task-lifecycle/task-engine/domain/strategy"
)

// DefaultMinPayloadBytes is the smallest payload the heuristic will pass
// without deferring to peer review.
const DefaultMinPayloadBytes = 16

// Heuristic is a deterministic AIChecker. It fails submissions with no usable
// payload, passes well-formed payloads above the size floor, and reports
// uncertain for everything in between.
type Heuristic struct {
	MinPayloadBytes int
}

func (h Heuristic) Check(_ context.Context, task entities.TaskUnit, submission entities.Submission) (strategy.Outcome, error) {
	if len(submission.Payload) == 0 && len(submission.Photos) == 0 {
		return strategy.OutcomeFail, nil
	}
	if task.RequiresPhysicalEvidence() && !submission.HasPhysicalEvidence() {
		return strategy.OutcomeFail, nil
	}

	minBytes := h.MinPayloadBytes
	if minBytes <= 0 {
		minBytes = DefaultMinPayloadBytes
	}
	if len(submission.Payload) < minBytes {
		return strategy.OutcomeUncertain, nil
	}
	if !json.Valid(submission.Payload) {
		return strategy.OutcomeUncertain, nil
	}
	return strategy.OutcomePass, nil
}
