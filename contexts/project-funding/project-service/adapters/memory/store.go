package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"flow/contexts/project-funding/project-service/domain/entities"
	domainerrors "flow/contexts/project-funding/project-service/domain/errors"
	"flow/contexts/project-funding/project-service/ports"
	"flow/internal/shared/money"

	"github.com/google/uuid"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

type Store struct {
	mu sync.RWMutex

	projects map[string]entities.Project
	audits   map[string][]entities.ProjectAudit
	escrowed map[string]money.Money
	outbox   map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		projects: make(map[string]entities.Project),
		audits:   make(map[string][]entities.ProjectAudit),
		escrowed: make(map[string]money.Money),
		outbox:   make(map[string]outboxRecord),
	}
}

func (s *Store) CreateProject(_ context.Context, project entities.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[project.ProjectID]; ok {
		return domainerrors.ErrConflict
	}
	s.projects[project.ProjectID] = project
	return nil
}

func (s *Store) GetProject(_ context.Context, projectID string) (entities.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[strings.TrimSpace(projectID)]
	if !ok {
		return entities.Project{}, domainerrors.ErrProjectNotFound
	}
	return project, nil
}

func (s *Store) ListProjectsByClient(_ context.Context, clientID string) ([]entities.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Project, 0)
	for _, project := range s.projects {
		if project.ClientID == strings.TrimSpace(clientID) {
			items = append(items, project)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) MarkFunded(_ context.Context, projectID string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[strings.TrimSpace(projectID)]
	if !ok {
		return domainerrors.ErrProjectNotFound
	}
	if !project.Fundable() {
		return domainerrors.ErrProjectStateInvalid
	}
	project.Status = entities.ProjectStatusFunded
	project.EscrowLocked = true
	project.UpdatedAt = now.UTC()
	s.projects[project.ProjectID] = project
	return nil
}

func (s *Store) AppendAudit(_ context.Context, audit entities.ProjectAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits[audit.ProjectID] = append(s.audits[audit.ProjectID], audit)
	return nil
}

func (s *Store) ListAudits(_ context.Context, projectID string) ([]entities.ProjectAudit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	audits := s.audits[strings.TrimSpace(projectID)]
	out := make([]entities.ProjectAudit, len(audits))
	copy(out, audits)
	return out, nil
}

// LockEscrow makes the memory store usable as a standalone escrow funder in
// tests that run the project module without the finance context.
func (s *Store) LockEscrow(_ context.Context, projectID string, _ string, amount money.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.escrowed[strings.TrimSpace(projectID)]; ok {
		return nil
	}
	s.escrowed[strings.TrimSpace(projectID)] = amount
	return nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
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
			EventType:    envelope.EventType,
			PartitionKey: envelope.PartitionKey,
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
	items := make([]ports.OutboxMessage, 0)
	for _, record := range s.outbox {
		if !record.published {
			items = append(items, record.message)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].OutboxID < items[j].OutboxID
		}
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
	record, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return domainerrors.ErrConflict
	}
	record.published = true
	s.outbox[strings.TrimSpace(outboxID)] = record
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var (
	_ ports.ProjectRepository = (*Store)(nil)
	_ ports.EscrowFunder      = (*Store)(nil)
	_ ports.OutboxWriter      = (*Store)(nil)
	_ ports.OutboxRepository  = (*Store)(nil)
	_ ports.Clock             = (*Store)(nil)
	_ ports.IDGenerator       = (*Store)(nil)
)
