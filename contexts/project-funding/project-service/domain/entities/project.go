package entities

import (
	"time"

	"flow/internal/shared/money"
)

type ProjectStatus string

const (
	ProjectStatusDraft     ProjectStatus = "draft"
	ProjectStatusFunded    ProjectStatus = "funded"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
	ProjectStatusCancelled ProjectStatus = "cancelled"
)

type TaskType string

const (
	TaskTypeDigital  TaskType = "digital"
	TaskTypePhysical TaskType = "physical"
	TaskTypeHybrid   TaskType = "hybrid"
)

// Project is a client-funded body of work. Funds lock into escrow before
// atomization and leave only through per-unit settlement.
type Project struct {
	ProjectID      string
	ClientID       string
	Title          string
	Description    string
	TaskType       TaskType
	TotalAmount    money.Money
	Status         ProjectStatus
	EscrowLocked   bool
	TotalUnits     int
	CompletedUnits int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Fundable reports whether the project can still accept escrow funding.
func (p Project) Fundable() bool {
	return p.Status == ProjectStatusDraft && !p.EscrowLocked
}

// ProjectAudit is one append-only record of an actor-visible project change.
type ProjectAudit struct {
	AuditID   string
	ProjectID string
	ActorID   string
	Action    string
	Detail    string
	CreatedAt time.Time
}
