package service

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"commutesurvey/internal/model"
	"commutesurvey/internal/survey"

	"github.com/google/uuid"
)

const sessionLockStripes = 64

// SessionService hosts survey sessions: it loads records, drives the engine
// and persists a snapshot after every mutation.
type SessionService struct {
	records     *RecordStore
	store       SnapshotStore
	authSvc     *AuthService
	flow        *survey.Flow
	locale      string
	now         func() time.Time
	broadcaster Broadcaster

	locks [sessionLockStripes]sync.Mutex
}

// NewSessionService creates a new session service
func NewSessionService(records *RecordStore, store SnapshotStore, authSvc *AuthService, flow *survey.Flow, locale string) *SessionService {
	if flow == nil {
		flow = survey.DefaultFlow
	}
	return &SessionService{
		records: records,
		store:   store,
		authSvc: authSvc,
		flow:    flow,
		locale:  locale,
		now:     time.Now,
	}
}

// SetBroadcaster sets the WebSocket broadcaster (called after hub is created)
func (s *SessionService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetClock overrides the time source of the engines this service drives
func (s *SessionService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *SessionService) lock(id string) func() {
	h := fnv.New32a()
	h.Write([]byte(id))
	mu := &s.locks[h.Sum32()%sessionLockStripes]
	mu.Lock()
	return mu.Unlock
}

// Start loads the record for tokenOrSlug and opens a session on the first step
func (s *SessionService) Start(ctx context.Context, tokenOrSlug string) (*model.StartSessionResponse, error) {
	if tokenOrSlug == "" {
		return nil, fmt.Errorf("%w: token or slug is required", model.ErrValidation)
	}

	record, err := s.records.Load(ctx, tokenOrSlug)
	if err != nil {
		return nil, err
	}

	engine := survey.NewEngine(survey.WithFlow(s.flow), survey.WithClock(s.now))
	engine.SetTokenOrSlug(tokenOrSlug)
	engine.Init(record)

	id := uuid.New().String()
	if err := s.persist(ctx, id, engine); err != nil {
		return nil, err
	}

	token, err := s.authSvc.GenerateSessionToken(id, tokenOrSlug)
	if err != nil {
		return nil, err
	}

	log.Printf("[Session] Started %s for %s (flow=%s)", id, tokenOrSlug, s.flow.Name())
	return &model.StartSessionResponse{
		SessionID: id,
		Token:     token,
		Session:   s.view(id, engine),
	}, nil
}

// Get returns the current view of a session
func (s *SessionService) Get(ctx context.Context, id string) (*model.SessionView, error) {
	engine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(id, engine), nil
}

// Answer overlays answers on the session record. Answers given before the
// recommendation step invalidate a recommendation already fetched.
func (s *SessionService) Answer(ctx context.Context, id string, patch json.RawMessage) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(engine *survey.Engine) error {
		if err := engine.Answer(patch); err != nil {
			return err
		}
		if engine.IsBeforeStep(survey.StepRecommendations.String()) {
			engine.ClearRecommendation()
		}
		return nil
	})
}

// Next advances the session. Entering the recommendation step saves the
// record and fetches its recommendation; if either call fails the session
// stays where it was and the error is returned.
func (s *SessionService) Next(ctx context.Context, id, locale string) (*model.SessionView, error) {
	if locale == "" {
		locale = s.locale
	}
	return s.mutate(ctx, id, func(engine *survey.Engine) error {
		if engine.Advance() != survey.StepRecommendations || engine.Recommendation() != nil {
			return nil
		}
		if err := s.recommend(ctx, engine, locale); err != nil {
			engine.Retreat()
			return err
		}
		return nil
	})
}

func (s *SessionService) recommend(ctx context.Context, engine *survey.Engine, locale string) error {
	record := engine.Record()
	if err := s.records.Save(ctx, engine.TokenOrSlug(), record); err != nil {
		return err
	}
	reco, err := s.records.LoadTypo(ctx, record, locale)
	if err != nil {
		return err
	}
	engine.SetRecommendation(reco)
	return nil
}

// Previous moves the session back one applicable step
func (s *SessionService) Previous(ctx context.Context, id string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(engine *survey.Engine) error {
		engine.Retreat()
		return nil
	})
}

// Comments stores the free text comments on the saved record
func (s *SessionService) Comments(ctx context.Context, id, comments string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(engine *survey.Engine) error {
		record := engine.Record()
		if record == nil || engine.Recommendation() == nil {
			return fmt.Errorf("%w: record has not been saved yet", model.ErrValidation)
		}
		previous := record.Data.Comments
		engine.SetComments(comments)
		if err := s.records.SaveComments(ctx, record); err != nil {
			record.Data.Comments = previous
			return err
		}
		return nil
	})
}

// Finish closes the survey once it has been submitted
func (s *SessionService) Finish(ctx context.Context, id string) (*model.SessionView, error) {
	return s.mutate(ctx, id, func(engine *survey.Engine) error {
		engine.Finish()
		return nil
	})
}

// Reset closes the survey and forgets the token or slug. Open tabs are told
// the session is over and disconnected.
func (s *SessionService) Reset(ctx context.Context, id string) (*model.SessionView, error) {
	view, err := s.mutate(ctx, id, func(engine *survey.Engine) error {
		engine.Reset()
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(id, MsgSessionClosed, view)
		s.broadcaster.DisconnectSession(id)
	}
	log.Printf("[Session] Reset %s", id)
	return view, nil
}

// mutate runs op on the restored engine under the session lock and persists
// the result. Nothing is persisted when op fails.
func (s *SessionService) mutate(ctx context.Context, id string, op func(*survey.Engine) error) (*model.SessionView, error) {
	defer s.lock(id)()

	engine, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := op(engine); err != nil {
		log.Printf("[Session] %s: %v", id, err)
		return nil, err
	}
	if err := s.persist(ctx, id, engine); err != nil {
		return nil, err
	}
	return s.view(id, engine), nil
}

func (s *SessionService) load(ctx context.Context, id string) (*survey.Engine, error) {
	snap, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, model.ErrSessionNotFound
	}
	return survey.Restore(snap, survey.WithClock(s.now))
}

func (s *SessionService) persist(ctx context.Context, id string, engine *survey.Engine) error {
	if err := s.store.Save(ctx, engine.Snapshot(id)); err != nil {
		return fmt.Errorf("failed to persist session %s: %w", id, err)
	}
	if s.broadcaster != nil {
		s.broadcaster.BroadcastToSession(id, MsgSessionUpdated, s.view(id, engine))
	}
	return nil
}

func (s *SessionService) view(id string, engine *survey.Engine) *model.SessionView {
	return &model.SessionView{
		ID:             id,
		TokenOrSlug:    engine.TokenOrSlug(),
		Flow:           engine.Flow().Name(),
		Started:        engine.Started(),
		Step:           engine.StepIndex(),
		StepName:       engine.StepName(),
		Steps:          engine.Flow().Names(),
		Timestamp:      engine.Timestamp(),
		Record:         engine.Record(),
		Recommendation: engine.Recommendation(),
		Summary:        engine.Summary(),
	}
}
