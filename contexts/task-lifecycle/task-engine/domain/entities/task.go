package entities

import (
	"encoding/json"
	"time"

	"flow/internal/shared/money"
)

type TaskType string

const (
	TaskTypeDigital  TaskType = "digital"
	TaskTypePhysical TaskType = "physical"
	TaskTypeHybrid   TaskType = "hybrid"
)

type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusAvailable TaskStatus = "available"
	TaskStatusAssigned  TaskStatus = "assigned"
	TaskStatusSubmitted TaskStatus = "submitted"
	TaskStatusVerifying TaskStatus = "verifying"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusDisputed  TaskStatus = "disputed"
)

type StrategyKind string

const (
	StrategyAIOnly        StrategyKind = "ai_only"
	StrategyPeerConsensus StrategyKind = "peer_consensus"
	StrategySupervisor    StrategyKind = "supervisor"
	StrategyHybrid        StrategyKind = "hybrid"
)

// StrategySpec is the persisted verification configuration of a task unit.
// RequiredPeers is the consensus size, RequiredApprovals the minimum number
// of approved verdicts among the first RequiredPeers recorded.
type StrategySpec struct {
	Kind              StrategyKind
	RequiredPeers     int
	RequiredApprovals int
}

// TaskUnit is the smallest independently payable unit of project work.
type TaskUnit struct {
	TaskID               string
	ProjectID            string
	UnitIndex            int
	Title                string
	Description          string
	Type                 TaskType
	PayAmount            money.Money
	EstimatedTimeSeconds int
	Payload              json.RawMessage
	Strategy             StrategySpec
	Status               TaskStatus
	AssigneeID           string
	AssignedAt           *time.Time
	SubmittedAt          *time.Time
	CompletedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// RequiresPhysicalEvidence reports whether photo and GPS evidence is
// mandatory at submission time.
func (t TaskUnit) RequiresPhysicalEvidence() bool {
	return t.Type == TaskTypePhysical || t.Type == TaskTypeHybrid
}

// SettlementReference derives the deterministic wallet-transaction reference
// for this unit, so settlement retries can never double-pay.
func (t TaskUnit) SettlementReference() string {
	return "TASK-" + t.TaskID
}

type GeoPoint struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Accuracy float64 `json:"accuracy,omitempty"`
}

// Submission is the worker's completed-work record, one per task unit.
type Submission struct {
	SubmissionID   string
	TaskID         string
	WorkerID       string
	Payload        json.RawMessage
	Photos         []string
	Location       *GeoPoint
	SupervisorCode string
	SubmittedAt    time.Time
}

// HasPhysicalEvidence reports whether the submission carries the evidence
// required for physical/hybrid task types.
func (s Submission) HasPhysicalEvidence() bool {
	return len(s.Photos) > 0 && s.Location != nil
}

type Verdict string

const (
	VerdictPending  Verdict = "pending"
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
)

// Validation is one peer reviewer's verdict on a task unit. The
// (task, validator) pair is unique; rows are created pending at validator
// selection and resolved exactly once.
type Validation struct {
	ValidationID string
	TaskID       string
	ValidatorID  string
	Verdict      Verdict
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (v Validation) Recorded() bool {
	return v.Verdict == VerdictApproved || v.Verdict == VerdictRejected
}
