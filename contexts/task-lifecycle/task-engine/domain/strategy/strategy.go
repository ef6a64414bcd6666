// Package strategy models verification as a tagged set of variants behind a
// uniform contract, replacing free-form strategy strings and metadata dicts.
// Real checkers are pluggable; tests inject deterministic fakes.
package strategy

import (
	"context"
	"sort"

	"flow/contexts/task-lifecycle/task-engine/domain/entities"
)

// Outcome is the result of the automated evaluation step.
type Outcome string

const (
	OutcomePass      Outcome = "pass"
	OutcomeFail      Outcome = "fail"
	OutcomeUncertain Outcome = "uncertain"
)

// Decision is the result of a consensus tally over recorded verdicts.
type Decision string

const (
	DecisionNone     Decision = "none"
	DecisionComplete Decision = "complete"
	DecisionDispute  Decision = "dispute"
)

// AIChecker is the automated verification collaborator. The engine only
// depends on its pass/fail/uncertain outcome, never on model mechanics.
type AIChecker interface {
	Check(ctx context.Context, task entities.TaskUnit, submission entities.Submission) (Outcome, error)
}

// Strategy drives the submitted → verifying/completed/disputed transitions.
// Evaluate runs once on submission; OnValidation runs after every recorded
// verdict and must be idempotent, returning the same decision for the same
// set of validations.
type Strategy interface {
	Kind() entities.StrategyKind
	Evaluate(ctx context.Context, task entities.TaskUnit, submission entities.Submission) (Outcome, error)
	RequiresPeerReview(evaluation Outcome) bool
	OnValidation(task entities.TaskUnit, validations []entities.Validation) Decision
}

// ForSpec resolves the strategy variant for a persisted spec. Unknown kinds
// degrade to peer consensus, the platform default.
func ForSpec(spec entities.StrategySpec, checker AIChecker) Strategy {
	switch spec.Kind {
	case entities.StrategyAIOnly:
		return AIOnly{Checker: checker}
	case entities.StrategySupervisor:
		return Supervisor{RequiredApprovals: spec.RequiredApprovals}
	case entities.StrategyHybrid:
		return Hybrid{Checker: checker, Consensus: PeerConsensus{
			RequiredPeers:     spec.RequiredPeers,
			RequiredApprovals: spec.RequiredApprovals,
		}}
	default:
		return PeerConsensus{
			RequiredPeers:     spec.RequiredPeers,
			RequiredApprovals: spec.RequiredApprovals,
		}
	}
}

// AIOnly completes or disputes directly from the automated check; an
// uncertain outcome escalates to dispute because no peer phase follows.
type AIOnly struct {
	Checker AIChecker
}

func (AIOnly) Kind() entities.StrategyKind { return entities.StrategyAIOnly }

func (s AIOnly) Evaluate(ctx context.Context, task entities.TaskUnit, submission entities.Submission) (Outcome, error) {
	if s.Checker == nil {
		return OutcomeUncertain, nil
	}
	return s.Checker.Check(ctx, task, submission)
}

func (AIOnly) RequiresPeerReview(Outcome) bool { return false }

func (AIOnly) OnValidation(entities.TaskUnit, []entities.Validation) Decision {
	return DecisionNone
}

// PeerConsensus awaits verdicts from K independent reviewers and decides
// from the first K recorded, ignoring stragglers.
type PeerConsensus struct {
	RequiredPeers     int
	RequiredApprovals int
}

func (PeerConsensus) Kind() entities.StrategyKind { return entities.StrategyPeerConsensus }

func (PeerConsensus) Evaluate(context.Context, entities.TaskUnit, entities.Submission) (Outcome, error) {
	return OutcomeUncertain, nil
}

func (PeerConsensus) RequiresPeerReview(Outcome) bool { return true }

func (s PeerConsensus) OnValidation(_ entities.TaskUnit, validations []entities.Validation) Decision {
	return Tally(validations, s.RequiredPeers, s.RequiredApprovals)
}

// Supervisor uses the same tally mechanism with a single supervisor verdict;
// the submission must carry a supervisor code to enter review at all.
type Supervisor struct {
	RequiredApprovals int
}

func (Supervisor) Kind() entities.StrategyKind { return entities.StrategySupervisor }

func (Supervisor) Evaluate(_ context.Context, _ entities.TaskUnit, submission entities.Submission) (Outcome, error) {
	if submission.SupervisorCode == "" {
		return OutcomeFail, nil
	}
	return OutcomeUncertain, nil
}

func (Supervisor) RequiresPeerReview(evaluation Outcome) bool {
	return evaluation != OutcomeFail
}

func (s Supervisor) OnValidation(_ entities.TaskUnit, validations []entities.Validation) Decision {
	approvals := s.RequiredApprovals
	if approvals <= 0 {
		approvals = 1
	}
	return Tally(validations, 1, approvals)
}

// Hybrid gates peer consensus behind the automated check: a failed check
// disputes immediately, anything else proceeds to the peer phase.
type Hybrid struct {
	Checker   AIChecker
	Consensus PeerConsensus
}

func (Hybrid) Kind() entities.StrategyKind { return entities.StrategyHybrid }

func (s Hybrid) Evaluate(ctx context.Context, task entities.TaskUnit, submission entities.Submission) (Outcome, error) {
	if s.Checker == nil {
		return OutcomeUncertain, nil
	}
	return s.Checker.Check(ctx, task, submission)
}

func (Hybrid) RequiresPeerReview(evaluation Outcome) bool {
	return evaluation != OutcomeFail
}

func (s Hybrid) OnValidation(task entities.TaskUnit, validations []entities.Validation) Decision {
	return s.Consensus.OnValidation(task, validations)
}

// Tally decides from the first requiredPeers recorded verdicts, ordered by
// resolution time. Fewer recorded verdicts than requiredPeers means no
// decision yet; verdicts beyond the window are persisted but ignored.
func Tally(validations []entities.Validation, requiredPeers int, requiredApprovals int) Decision {
	if requiredPeers <= 0 {
		requiredPeers = 2
	}
	if requiredApprovals <= 0 {
		requiredApprovals = 1
	}

	recorded := make([]entities.Validation, 0, len(validations))
	for _, validation := range validations {
		if validation.Recorded() {
			recorded = append(recorded, validation)
		}
	}
	if len(recorded) < requiredPeers {
		return DecisionNone
	}
	sort.SliceStable(recorded, func(i, j int) bool {
		return recorded[i].UpdatedAt.Before(recorded[j].UpdatedAt)
	})

	approved := 0
	for _, validation := range recorded[:requiredPeers] {
		if validation.Verdict == entities.VerdictApproved {
			approved++
		}
	}
	if approved >= requiredApprovals {
		return DecisionComplete
	}
	return DecisionDispute
}
