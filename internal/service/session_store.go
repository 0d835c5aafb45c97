package service

import (
	"context"
	"log"

	"commutesurvey/internal/cache"
	"commutesurvey/internal/model"
	"commutesurvey/internal/repository"
)

// SnapshotStore persists survey session snapshots
type SnapshotStore interface {
	Save(ctx context.Context, snap *model.SessionSnapshot) error
	Get(ctx context.Context, id string) (*model.SessionSnapshot, error)
	Delete(ctx context.Context, id string) error
}

// SessionStore writes snapshots to Mongo and keeps a Redis copy for fast reads
type SessionStore struct {
	repo  repository.SessionRepo
	cache cache.SessionCache
}

// NewSessionStore creates a two-tier snapshot store. cache may be nil.
func NewSessionStore(repo repository.SessionRepo, cache cache.SessionCache) *SessionStore {
	return &SessionStore{repo: repo, cache: cache}
}

func (s *SessionStore) Save(ctx context.Context, snap *model.SessionSnapshot) error {
	if err := s.repo.Save(ctx, snap); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			log.Printf("[Session Store] Cache write failed for %s: %v", snap.ID, err)
		}
	}
	return nil
}

// Get returns nil, nil when the session does not exist
func (s *SessionStore) Get(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	if s.cache != nil {
		snap, err := s.cache.Get(ctx, id)
		if err != nil {
			log.Printf("[Session Store] Cache read failed for %s: %v", id, err)
		} else if snap != nil {
			return snap, nil
		}
	}

	snap, err := s.repo.GetByID(ctx, id)
	if err != nil || snap == nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, snap); err != nil {
			log.Printf("[Session Store] Cache warm failed for %s: %v", id, err)
		}
	}
	return snap, nil
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, id); err != nil {
			log.Printf("[Session Store] Cache delete failed for %s: %v", id, err)
		}
	}
	return s.repo.Delete(ctx, id)
}
