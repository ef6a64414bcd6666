package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"flow/contexts/task-lifecycle/task-engine/domain/entities"
	domainerrors "flow/contexts/task-lifecycle/task-engine/domain/errors"
	"flow/contexts/task-lifecycle/task-engine/ports"
	"flow/internal/shared/money"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

// Store backs every task-engine port with process-local state. The settlement
// section mirrors the relational transaction under one mutex so concurrency
// tests observe the same exactly-once behavior as the database adapter.
type Store struct {
	mu sync.RWMutex

	tasks       map[string]entities.TaskUnit
	submissions map[string]entities.Submission
	validations map[string]entities.Validation
	projects    map[string]ports.ProjectProjection
	workers     map[string]ports.WorkerProfile
	outbox      map[string]outboxRecord
	eventDedup  map[string]dedupRecord

	balances    map[string]money.Money
	settledRefs map[string]string
	escrowPaid  []ports.SettlementRecord
}

func NewStore() *Store {
	return &Store{
		tasks:       make(map[string]entities.TaskUnit),
		submissions: make(map[string]entities.Submission),
		validations: make(map[string]entities.Validation),
		projects:    make(map[string]ports.ProjectProjection),
		workers:     make(map[string]ports.WorkerProfile),
		outbox:      make(map[string]outboxRecord),
		eventDedup:  make(map[string]dedupRecord),
		balances:    make(map[string]money.Money),
		settledRefs: make(map[string]string),
	}
}

func (s *Store) SetProject(project ports.ProjectProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[strings.TrimSpace(project.ProjectID)] = project
}

func (s *Store) SetWorker(worker ports.WorkerProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[strings.TrimSpace(worker.UserID)] = worker
}

// WalletBalance reports the credited balance for a worker, zero when the
// worker has never been paid.
func (s *Store) WalletBalance(workerID string) money.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	balance, ok := s.balances[strings.TrimSpace(workerID)]
	if !ok {
		return money.Zero(money.DefaultCurrency)
	}
	return balance
}

// EscrowPayouts returns every settlement applied so far, in order.
func (s *Store) EscrowPayouts() []ports.SettlementRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ports.SettlementRecord, len(s.escrowPaid))
	copy(out, s.escrowPaid)
	return out
}

func (s *Store) GetProject(_ context.Context, projectID string) (ports.ProjectProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[strings.TrimSpace(projectID)]
	if !ok {
		return ports.ProjectProjection{}, domainerrors.ErrProjectNotFound
	}
	return project, nil
}

func (s *Store) ActivateProject(_ context.Context, projectID string, totalUnits int, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[strings.TrimSpace(projectID)]
	if !ok {
		return domainerrors.ErrProjectNotFound
	}
	switch project.Status {
	case "draft", "funded":
	default:
		return domainerrors.ErrPreconditionFailed
	}
	project.Status = "active"
	project.TotalUnits = totalUnits
	s.projects[strings.TrimSpace(projectID)] = project
	return nil
}

func (s *Store) CreateTaskUnits(_ context.Context, units []entities.TaskUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, unit := range units {
		if _, ok := s.tasks[unit.TaskID]; ok {
			return domainerrors.ErrConflict
		}
	}
	for _, unit := range units {
		s.tasks[unit.TaskID] = unit
	}
	return nil
}

func (s *Store) GetTask(_ context.Context, taskID string) (entities.TaskUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[strings.TrimSpace(taskID)]
	if !ok {
		return entities.TaskUnit{}, domainerrors.ErrTaskNotFound
	}
	return task, nil
}

func (s *Store) ListAvailableTasks(_ context.Context, limit int) ([]entities.TaskUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	items := make([]entities.TaskUnit, 0, limit)
	for _, task := range s.tasks {
		if task.Status == entities.TaskStatusAvailable {
			items = append(items, task)
		}
	}
	sortTasksByCreation(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) ListTasksByProject(_ context.Context, projectID string) ([]entities.TaskUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.TaskUnit, 0)
	for _, task := range s.tasks {
		if task.ProjectID == strings.TrimSpace(projectID) {
			items = append(items, task)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UnitIndex < items[j].UnitIndex })
	return items, nil
}

func (s *Store) ClaimTask(_ context.Context, taskID string, workerID string, now time.Time) (entities.TaskUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[strings.TrimSpace(taskID)]
	if !ok {
		return entities.TaskUnit{}, domainerrors.ErrTaskNotFound
	}
	if task.Status != entities.TaskStatusAvailable {
		return entities.TaskUnit{}, domainerrors.ErrAlreadyTaken
	}
	assignedAt := now.UTC()
	task.Status = entities.TaskStatusAssigned
	task.AssigneeID = strings.TrimSpace(workerID)
	task.AssignedAt = &assignedAt
	task.UpdatedAt = assignedAt
	s.tasks[task.TaskID] = task
	return task, nil
}

func (s *Store) SubmitTask(_ context.Context, submission entities.Submission, now time.Time) (entities.TaskUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[strings.TrimSpace(submission.TaskID)]
	if !ok {
		return entities.TaskUnit{}, domainerrors.ErrTaskNotFound
	}
	if task.Status != entities.TaskStatusAssigned {
		return entities.TaskUnit{}, domainerrors.ErrPreconditionFailed
	}
	if _, exists := s.submissions[task.TaskID]; exists {
		return entities.TaskUnit{}, domainerrors.ErrConflict
	}
	submittedAt := now.UTC()
	task.Status = entities.TaskStatusSubmitted
	task.SubmittedAt = &submittedAt
	task.UpdatedAt = submittedAt
	s.tasks[task.TaskID] = task
	s.submissions[task.TaskID] = submission
	return task, nil
}

func (s *Store) TransitionStatus(_ context.Context, taskID string, from []entities.TaskStatus, to entities.TaskStatus, now time.Time) (entities.TaskUnit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[strings.TrimSpace(taskID)]
	if !ok {
		return entities.TaskUnit{}, domainerrors.ErrTaskNotFound
	}
	matched := false
	for _, status := range from {
		if task.Status == status {
			matched = true
			break
		}
	}
	if !matched {
		return entities.TaskUnit{}, domainerrors.ErrPreconditionFailed
	}
	task.Status = to
	task.UpdatedAt = now.UTC()
	s.tasks[task.TaskID] = task
	return task, nil
}

func (s *Store) CountActiveAssignments(_ context.Context, workerID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, task := range s.tasks {
		if task.AssigneeID != strings.TrimSpace(workerID) {
			continue
		}
		switch task.Status {
		case entities.TaskStatusAssigned, entities.TaskStatusSubmitted, entities.TaskStatusVerifying:
			count++
		}
	}
	return count, nil
}

func (s *Store) ListVerifyingOlderThan(_ context.Context, cutoff time.Time, limit int) ([]entities.TaskUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]entities.TaskUnit, 0)
	for _, task := range s.tasks {
		if task.Status == entities.TaskStatusVerifying && task.UpdatedAt.Before(cutoff) {
			items = append(items, task)
		}
	}
	sortTasksByCreation(items)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetSubmission(_ context.Context, taskID string) (entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[strings.TrimSpace(taskID)]
	if !ok {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return submission, nil
}

func validationKey(taskID string, validatorID string) string {
	return strings.TrimSpace(taskID) + "|" + strings.TrimSpace(validatorID)
}

func (s *Store) CreateValidations(_ context.Context, validations []entities.Validation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, validation := range validations {
		if _, ok := s.validations[validationKey(validation.TaskID, validation.ValidatorID)]; ok {
			return domainerrors.ErrDuplicateValidation
		}
	}
	for _, validation := range validations {
		s.validations[validationKey(validation.TaskID, validation.ValidatorID)] = validation
	}
	return nil
}

func (s *Store) RecordVerdict(_ context.Context, taskID string, validatorID string, verdict entities.Verdict, notes string, now time.Time) (entities.Validation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := validationKey(taskID, validatorID)
	validation, ok := s.validations[key]
	if !ok {
		return entities.Validation{}, domainerrors.ErrIneligible
	}
	if validation.Recorded() {
		return entities.Validation{}, domainerrors.ErrDuplicateValidation
	}
	validation.Verdict = verdict
	validation.Notes = notes
	validation.UpdatedAt = now.UTC()
	s.validations[key] = validation
	return validation, nil
}

func (s *Store) ListValidationsByTask(_ context.Context, taskID string) ([]entities.Validation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Validation, 0)
	for _, validation := range s.validations {
		if validation.TaskID == strings.TrimSpace(taskID) {
			items = append(items, validation)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetValidation(_ context.Context, taskID string, validatorID string) (entities.Validation, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	validation, ok := s.validations[validationKey(taskID, validatorID)]
	return validation, ok, nil
}

func (s *Store) GetWorker(_ context.Context, userID string) (ports.WorkerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	worker, ok := s.workers[strings.TrimSpace(userID)]
	if !ok {
		return ports.WorkerProfile{}, domainerrors.ErrWorkerNotFound
	}
	return worker, nil
}

func (s *Store) ListEligibleValidators(_ context.Context, minReputation float64, exclude []string, limit int) ([]ports.WorkerProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 2
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[strings.TrimSpace(id)] = struct{}{}
	}
	items := make([]ports.WorkerProfile, 0, limit)
	for _, worker := range s.workers {
		if _, skip := excluded[worker.UserID]; skip {
			continue
		}
		if !worker.Verified || worker.ReputationScore < minReputation {
			continue
		}
		items = append(items, worker)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].ReputationScore != items[j].ReputationScore {
			return items[i].ReputationScore > items[j].ReputationScore
		}
		return items[i].UserID < items[j].UserID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// SettleTask applies the completion stamp, wallet credit, escrow payout, and
// project counter under one lock. A reference seen before applies nothing.
func (s *Store) SettleTask(_ context.Context, record ports.SettlementRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, done := s.settledRefs[record.Reference]; done {
		return false, nil
	}
	task, ok := s.tasks[strings.TrimSpace(record.TaskID)]
	if !ok {
		return false, domainerrors.ErrTaskNotFound
	}
	switch task.Status {
	case entities.TaskStatusSubmitted, entities.TaskStatusVerifying:
	case entities.TaskStatusCompleted:
		return false, nil
	default:
		return false, domainerrors.ErrPreconditionFailed
	}

	completedAt := record.CompletedAt.UTC()
	task.Status = entities.TaskStatusCompleted
	task.CompletedAt = &completedAt
	task.UpdatedAt = completedAt
	s.tasks[task.TaskID] = task

	balance, ok := s.balances[record.WorkerID]
	if !ok {
		balance = money.Zero(record.Amount.Currency)
	}
	credited, err := balance.Add(record.Amount)
	if err != nil {
		return false, err
	}
	s.balances[record.WorkerID] = credited

	if project, ok := s.projects[record.ProjectID]; ok {
		project.CompletedUnits++
		if project.TotalUnits > 0 && project.CompletedUnits >= project.TotalUnits {
			project.Status = "completed"
		}
		s.projects[record.ProjectID] = project
	}

	s.settledRefs[record.Reference] = record.TaskID
	s.escrowPaid = append(s.escrowPaid, record)
	return true, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return domainerrors.ErrConflict
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && time.Now().UTC().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, domainerrors.ErrConflict
			}
			return true, nil
		}
	}

	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

func sortTasksByCreation(items []entities.TaskUnit) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].UnitIndex < items[j].UnitIndex
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}

var (
	_ ports.TaskRepository       = (*Store)(nil)
	_ ports.ValidationRepository = (*Store)(nil)
	_ ports.WorkerDirectory      = (*Store)(nil)
	_ ports.ProjectStore         = (*Store)(nil)
	_ ports.SettlementStore      = (*Store)(nil)
	_ ports.OutboxWriter         = (*Store)(nil)
	_ ports.OutboxRepository     = (*Store)(nil)
	_ ports.EventDedupStore      = (*Store)(nil)
	_ ports.Clock                = (*Store)(nil)
	_ ports.IDGenerator          = (*Store)(nil)
)
