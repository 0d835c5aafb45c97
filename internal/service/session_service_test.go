package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"commutesurvey/internal/model"
	"commutesurvey/internal/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionFixture struct {
	svc   *SessionService
	api   *fakeAPI
	store *memStore
	bc    *recordingBroadcaster
	auth  *AuthService
}

func newSessionFixture(t *testing.T, flow *survey.Flow) *sessionFixture {
	t.Helper()
	api := newFakeAPI()
	api.put("tk-1", "tk-1", `{"agreement":true}`)
	api.put("acme", "issued", `{}`)
	api.typo = &model.Recommendation{Reco: &model.Reco{RecoDT2: []string{"velo", "tpu", "inter"}}}

	store := newMemStore()
	auth := NewAuthService("test-secret", time.Hour)
	svc := NewSessionService(NewRecordStore(api, nil), store, auth, flow, "en")
	svc.SetClock(func() time.Time { return time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC) })
	bc := &recordingBroadcaster{}
	svc.SetBroadcaster(bc)

	return &sessionFixture{svc: svc, api: api, store: store, bc: bc, auth: auth}
}

func (f *sessionFixture) start(t *testing.T, tokenOrSlug string) string {
	t.Helper()
	resp, err := f.svc.Start(context.Background(), tokenOrSlug)
	require.NoError(t, err)
	return resp.SessionID
}

// nextUntil advances until the named step is active
func (f *sessionFixture) nextUntil(t *testing.T, id, step string) *model.SessionView {
	t.Helper()
	ctx := context.Background()
	view, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	for i := 0; view.StepName != step; i++ {
		require.Less(t, i, 20, "never reached %s", step)
		view, err = f.svc.Next(ctx, id, "")
		require.NoError(t, err)
	}
	return view
}

func TestStartSession(t *testing.T) {
	f := newSessionFixture(t, nil)

	resp, err := f.svc.Start(context.Background(), "tk-1")
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Equal(t, 1, resp.Session.Step)
	assert.Equal(t, "agreement", resp.Session.StepName)
	assert.True(t, resp.Session.Started)
	assert.True(t, resp.Session.Record.Data.Agreement)
	assert.Equal(t, 3, resp.Session.Record.Data.NeedsBike)
	assert.Len(t, resp.Session.Steps, survey.DefaultFlow.Len())
	assert.Nil(t, resp.Session.Recommendation)

	claims, err := f.auth.ValidateSessionToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.SessionID, claims.SessionID)
	assert.Equal(t, "tk-1", claims.TokenOrSlug)

	assert.Equal(t, 1, f.store.saves)
	require.Len(t, f.bc.sent, 1)
	assert.Equal(t, MsgSessionUpdated, f.bc.sent[0].msgType)
}

func TestStartSessionErrors(t *testing.T) {
	f := newSessionFixture(t, nil)

	_, err := f.svc.Start(context.Background(), "missing")
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = f.svc.Start(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrValidation)
	assert.Equal(t, 0, f.store.saves)
}

func TestUnknownSession(t *testing.T) {
	f := newSessionFixture(t, nil)

	_, err := f.svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
	_, err = f.svc.Next(context.Background(), "nope", "")
	assert.ErrorIs(t, err, model.ErrSessionNotFound)
}

func TestNextSkipsProfessionalTravel(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	id := f.start(t, "tk-1")

	_, err := f.svc.Answer(ctx, id, json.RawMessage(`{"travel_pro":false,"freq_mod_pro_journeys":[{"mode":"car","days":2}],"freq_trav_pro_local":4}`))
	require.NoError(t, err)

	f.nextUntil(t, id, "travel_pro")
	view, err := f.svc.Next(ctx, id, "")
	require.NoError(t, err)

	assert.Equal(t, "importance", view.StepName)
	assert.Empty(t, view.Record.Data.FreqModProJourneys)
	assert.Equal(t, 0, view.Record.Data.FreqTravProLocal)

	view, err = f.svc.Previous(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "travel_pro", view.StepName)
}

func TestAnswerMovesOffInapplicableStep(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	id := f.start(t, "tk-1")

	_, err := f.svc.Answer(ctx, id, json.RawMessage(`{"travel_pro":true}`))
	require.NoError(t, err)
	f.nextUntil(t, id, "freq_mod_pro")

	view, err := f.svc.Answer(ctx, id, json.RawMessage(`{"freq_mod_pro_journeys":[{"mode":"car","days":3}],"travel_pro":false}`))
	require.NoError(t, err)
	assert.Equal(t, "travel_pro", view.StepName)
	assert.Empty(t, view.Record.Data.FreqModProJourneys)

	stored, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "travel_pro", stored.StepName)
	assert.Empty(t, stored.Record.Data.FreqModProJourneys)
}

func TestNextFetchesRecommendation(t *testing.T) {
	f := newSessionFixture(t, nil)
	id := f.start(t, "acme")

	view := f.nextUntil(t, id, "recommendations")

	require.Len(t, f.api.saved, 1)
	assert.Equal(t, "issued", f.api.saved[0].Token)
	require.NotNil(t, view.Recommendation)
	assert.Equal(t, []string{"bike", "pub", "inter"}, view.Summary.RecoModes)

	view, err := f.svc.Next(context.Background(), id, "")
	require.NoError(t, err)
	assert.Equal(t, "change", view.StepName)
	assert.NotNil(t, view.Recommendation)
	assert.Len(t, f.api.saved, 1)
}

func TestNextRecommendationFailureKeepsStep(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(api *fakeAPI)
		want   error
	}{
		{"save fails", func(api *fakeAPI) { api.postErr = model.ErrRejected }, model.ErrRejected},
		{"typo fails", func(api *fakeAPI) { api.typoErr = model.ErrNetwork }, model.ErrNetwork},
	} {
		t.Run(tc.name, func(t *testing.T) {
			f := newSessionFixture(t, nil)
			ctx := context.Background()
			id := f.start(t, "tk-1")
			before := f.nextUntil(t, id, "needs")
			saves := f.store.saves

			tc.mutate(f.api)
			_, err := f.svc.Next(ctx, id, "fr")
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, saves, f.store.saves)

			after, err := f.svc.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, "needs", after.StepName)
			assert.Equal(t, before.Step, after.Step)
			assert.Nil(t, after.Recommendation)
		})
	}
}

func TestAnswerBeforeRecommendationInvalidatesIt(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	id := f.start(t, "tk-1")
	f.nextUntil(t, id, "recommendations")

	view, err := f.svc.Previous(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "needs", view.StepName)
	assert.NotNil(t, view.Recommendation)

	view, err = f.svc.Answer(ctx, id, json.RawMessage(`{"needs_bike":5}`))
	require.NoError(t, err)
	assert.Nil(t, view.Recommendation)

	view, err = f.svc.Next(ctx, id, "")
	require.NoError(t, err)
	assert.NotNil(t, view.Recommendation)
	assert.Len(t, f.api.saved, 2)
	assert.Equal(t, 5, f.api.saved[1].Data.NeedsBike)
}

func TestAnswerMalformed(t *testing.T) {
	f := newSessionFixture(t, nil)
	id := f.start(t, "tk-1")

	_, err := f.svc.Answer(context.Background(), id, json.RawMessage(`{"employment_rate":"full"}`))
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestComments(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	id := f.start(t, "tk-1")

	_, err := f.svc.Comments(ctx, id, "too early")
	assert.ErrorIs(t, err, model.ErrValidation)

	f.nextUntil(t, id, "comments")
	view, err := f.svc.Comments(ctx, id, "more bike racks")
	require.NoError(t, err)
	assert.Equal(t, "more bike racks", view.Record.Data.Comments)
	assert.Equal(t, "more bike racks", f.api.comments["tk-1"])

	f.api.commentsErr = model.ErrNetwork
	_, err = f.svc.Comments(ctx, id, "lost")
	assert.ErrorIs(t, err, model.ErrNetwork)

	view, err = f.svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "more bike racks", view.Record.Data.Comments)
}

func TestFinishAndReset(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	id := f.start(t, "tk-1")
	f.nextUntil(t, id, "final")

	view, err := f.svc.Finish(ctx, id)
	require.NoError(t, err)
	assert.False(t, view.Started)
	assert.Equal(t, 0, view.Step)
	assert.Nil(t, view.Record)
	assert.Nil(t, view.Recommendation)
	assert.Equal(t, "tk-1", view.TokenOrSlug)

	view, err = f.svc.Next(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, 0, view.Step)

	view, err = f.svc.Reset(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, view.TokenOrSlug)
	last := f.bc.sent[len(f.bc.sent)-1]
	assert.Equal(t, MsgSessionClosed, last.msgType)
}

func TestBreakdownFlowSession(t *testing.T) {
	f := newSessionFixture(t, survey.BreakdownFlow)
	ctx := context.Background()
	id := f.start(t, "tk-1")

	_, err := f.svc.Answer(ctx, id, json.RawMessage(`{"travel_pro":["region"]}`))
	require.NoError(t, err)

	f.nextUntil(t, id, "travel_pro")
	view, err := f.svc.Next(ctx, id, "")
	require.NoError(t, err)
	assert.Equal(t, "freq_mod_pro_region", view.StepName)
	assert.Equal(t, "breakdown", view.Flow)
}

func TestConcurrentAnswersAreSerialised(t *testing.T) {
	f := newSessionFixture(t, nil)
	ctx := context.Background()
	id := f.start(t, "tk-1")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Next(ctx, id, "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	view, err := f.svc.Get(ctx, id)
	require.NoError(t, err)
	// ten forward moves from agreement, freq_mod_pro skipped
	assert.Equal(t, "needs", view.StepName)
}
