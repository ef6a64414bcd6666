package strategy

import (
	"context"
	"testing"
	"time"

	"flow/contexts/task-lifecycle/task-engine/domain/entities"
)

func recordedValidation(id string, verdict entities.Verdict, at time.Time) entities.Validation {
	return entities.Validation{
		ValidationID: id,
		TaskID:       "task-1",
		ValidatorID:  "validator-" + id,
		Verdict:      verdict,
		CreatedAt:    at.Add(-time.Minute),
		UpdatedAt:    at,
	}
}

func TestTallyNoDecisionBeforeConsensusSize(t *testing.T) {
	now := time.Now().UTC()
	validations := []entities.Validation{
		recordedValidation("1", entities.VerdictApproved, now),
		{ValidationID: "2", Verdict: entities.VerdictPending, UpdatedAt: now},
	}
	if decision := Tally(validations, 2, 1); decision != DecisionNone {
		t.Fatalf("expected no decision with one recorded verdict, got %s", decision)
	}
}

func TestTallyOneApprovalOneRejectionCompletes(t *testing.T) {
	now := time.Now().UTC()
	validations := []entities.Validation{
		recordedValidation("1", entities.VerdictApproved, now),
		recordedValidation("2", entities.VerdictRejected, now.Add(time.Second)),
	}
	if decision := Tally(validations, 2, 1); decision != DecisionComplete {
		t.Fatalf("expected completion with 1 approval of 2, got %s", decision)
	}
}

func TestTallyTwoRejectionsDisputes(t *testing.T) {
	now := time.Now().UTC()
	validations := []entities.Validation{
		recordedValidation("1", entities.VerdictRejected, now),
		recordedValidation("2", entities.VerdictRejected, now.Add(time.Second)),
	}
	if decision := Tally(validations, 2, 1); decision != DecisionDispute {
		t.Fatalf("expected dispute with 0 approvals of 2, got %s", decision)
	}
}

func TestTallyIgnoresStragglersBeyondWindow(t *testing.T) {
	now := time.Now().UTC()
	// First two recorded verdicts reject; a later approval must not flip the decision.
	validations := []entities.Validation{
		recordedValidation("3", entities.VerdictApproved, now.Add(10*time.Second)),
		recordedValidation("1", entities.VerdictRejected, now),
		recordedValidation("2", entities.VerdictRejected, now.Add(time.Second)),
	}
	if decision := Tally(validations, 2, 1); decision != DecisionDispute {
		t.Fatalf("expected straggler approval to be ignored, got %s", decision)
	}
}

func TestTallyIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	validations := []entities.Validation{
		recordedValidation("1", entities.VerdictApproved, now),
		recordedValidation("2", entities.VerdictApproved, now.Add(time.Second)),
	}
	first := Tally(validations, 2, 2)
	second := Tally(validations, 2, 2)
	if first != second || first != DecisionComplete {
		t.Fatalf("expected stable complete decision, got %s then %s", first, second)
	}
}

func TestSupervisorFailsWithoutCode(t *testing.T) {
	s := Supervisor{RequiredApprovals: 1}
	outcome, err := s.Evaluate(context.Background(), entities.TaskUnit{}, entities.Submission{})
	if err != nil {
		t.Fatalf("evaluate failed: %v", err)
	}
	if outcome != OutcomeFail {
		t.Fatalf("expected fail without supervisor code, got %s", outcome)
	}
	if s.RequiresPeerReview(outcome) {
		t.Fatalf("failed supervisor evaluation must not enter review")
	}
}

func TestForSpecDefaultsToPeerConsensus(t *testing.T) {
	s := ForSpec(entities.StrategySpec{Kind: "unknown"}, nil)
	if s.Kind() != entities.StrategyPeerConsensus {
		t.Fatalf("expected peer consensus fallback, got %s", s.Kind())
	}
}
