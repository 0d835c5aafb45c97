package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"commutesurvey/internal/cache"
	"commutesurvey/internal/model"
)

// RecordStore loads and saves participant records through the collect API
type RecordStore struct {
	api       CollectAPI
	infoCache cache.InfoCache

	mu   sync.Mutex
	busy map[string]int
}

// NewRecordStore creates a record store. infoCache may be nil.
func NewRecordStore(api CollectAPI, infoCache cache.InfoCache) *RecordStore {
	return &RecordStore{
		api:       api,
		infoCache: infoCache,
		busy:      make(map[string]int),
	}
}

func (s *RecordStore) acquire(tokenOrSlug string) func() {
	s.mu.Lock()
	s.busy[tokenOrSlug]++
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		if s.busy[tokenOrSlug]--; s.busy[tokenOrSlug] <= 0 {
			delete(s.busy, tokenOrSlug)
		}
		s.mu.Unlock()
	}
}

// Busy reports whether a load or save is in flight for tokenOrSlug
func (s *RecordStore) Busy(tokenOrSlug string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy[tokenOrSlug] > 0
}

// Load fetches a record and fills every field the stored data lacks with its default
func (s *RecordStore) Load(ctx context.Context, tokenOrSlug string) (*model.Record, error) {
	defer s.acquire(tokenOrSlug)()

	payload, err := s.api.GetRecord(ctx, tokenOrSlug)
	if err != nil {
		return nil, err
	}
	data, err := model.MergeRecordData(payload.Data)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", tokenOrSlug, err)
	}
	token := payload.Token
	if token == "" {
		token = tokenOrSlug
	}
	return &model.Record{Token: token, Data: data}, nil
}

// Save sends the full record. A slug creates the participant.
func (s *RecordStore) Save(ctx context.Context, tokenOrSlug string, record *model.Record) error {
	defer s.acquire(tokenOrSlug)()

	if err := s.api.PostRecord(ctx, tokenOrSlug, record); err != nil {
		log.Printf("[Record Store] Save failed for %s: %v", tokenOrSlug, err)
		return err
	}
	return nil
}

// LoadTypo fetches the recommendation computed for a saved record
func (s *RecordStore) LoadTypo(ctx context.Context, record *model.Record, locale string) (*model.Recommendation, error) {
	return s.api.GetTypo(ctx, record.Token, locale)
}

// SaveComments updates only the comments of a saved record
func (s *RecordStore) SaveComments(ctx context.Context, record *model.Record) error {
	defer s.acquire(record.Token)()
	return s.api.PutComments(ctx, record.Token, record.Data.Comments)
}

// Info returns the campaign a token or slug belongs to, from cache when possible
func (s *RecordStore) Info(ctx context.Context, tokenOrSlug string) (*model.CampaignInfo, error) {
	if s.infoCache != nil {
		info, err := s.infoCache.Get(ctx, tokenOrSlug)
		if err != nil {
			log.Printf("[Record Store] Info cache read failed for %s: %v", tokenOrSlug, err)
		} else if info != nil {
			return info, nil
		}
	}

	info, err := s.api.GetInfo(ctx, tokenOrSlug)
	if err != nil {
		return nil, err
	}

	if s.infoCache != nil {
		if err := s.infoCache.Set(ctx, tokenOrSlug, info); err != nil {
			log.Printf("[Record Store] Info cache write failed for %s: %v", tokenOrSlug, err)
		}
	}
	return info, nil
}
