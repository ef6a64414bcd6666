package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"flow/contexts/community-experience/reputation-service/domain/entities"
	domainerrors "flow/contexts/community-experience/reputation-service/domain/errors"
	"flow/contexts/community-experience/reputation-service/ports"
)

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type Store struct {
	mu sync.RWMutex

	reputations map[string]entities.WorkerReputation
	eventDedup  map[string]dedupRecord
}

func NewStore() *Store {
	return &Store{
		reputations: make(map[string]entities.WorkerReputation),
		eventDedup:  make(map[string]dedupRecord),
	}
}

// SetReputation seeds a worker profile for tests.
func (s *Store) SetReputation(reputation entities.WorkerReputation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reputations[strings.TrimSpace(reputation.UserID)] = reputation
}

// RecordCompletion bumps the completed counter the way the settlement
// transaction does in the relational schema.
func (s *Store) RecordCompletion(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reputation := s.reputations[strings.TrimSpace(userID)]
	reputation.UserID = strings.TrimSpace(userID)
	reputation.CompletedTasks++
	s.reputations[reputation.UserID] = reputation
}

func (s *Store) GetReputation(_ context.Context, userID string) (entities.WorkerReputation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reputation, ok := s.reputations[strings.TrimSpace(userID)]
	if !ok {
		return entities.WorkerReputation{}, domainerrors.ErrProfileNotFound
	}
	return reputation, nil
}

func (s *Store) UpdateScore(_ context.Context, userID string, score float64, tier int, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	reputation, ok := s.reputations[strings.TrimSpace(userID)]
	if !ok {
		return domainerrors.ErrProfileNotFound
	}
	reputation.ReputationScore = score
	reputation.Tier = tier
	reputation.UpdatedAt = now.UTC()
	s.reputations[strings.TrimSpace(userID)] = reputation
	return nil
}

func (s *Store) ReserveEvent(_ context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	eventID = strings.TrimSpace(eventID)
	if existing, ok := s.eventDedup[eventID]; ok {
		if existing.payloadHash != payloadHash {
			return false, domainerrors.ErrConflict
		}
		return true, nil
	}
	s.eventDedup[eventID] = dedupRecord{payloadHash: payloadHash, expiresAt: expiresAt.UTC()}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

var (
	_ ports.ReputationRepository = (*Store)(nil)
	_ ports.EventDedupStore      = (*Store)(nil)
	_ ports.Clock                = (*Store)(nil)
)
