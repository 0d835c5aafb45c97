package service

import (
	"context"
	"encoding/json"
	"sync"

	"commutesurvey/internal/model"
)

// fakeAPI is an in-memory collect backend
type fakeAPI struct {
	mu       sync.Mutex
	records  map[string]*RecordPayload
	typo     *model.Recommendation
	info     *model.CampaignInfo
	saved    []*model.Record
	comments map[string]string

	getErr, postErr, typoErr, commentsErr error
	infoCalls                             int
	onPost                                func()
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		records:  make(map[string]*RecordPayload),
		comments: make(map[string]string),
	}
}

func (f *fakeAPI) GetRecord(ctx context.Context, tokenOrSlug string) (*RecordPayload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	p, ok := f.records[tokenOrSlug]
	if !ok {
		return nil, model.ErrNotFound
	}
	return p, nil
}

func (f *fakeAPI) PostRecord(ctx context.Context, tokenOrSlug string, record *model.Record) error {
	if f.onPost != nil {
		f.onPost()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.saved = append(f.saved, record.Clone())
	return nil
}

func (f *fakeAPI) PutComments(ctx context.Context, token, comments string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commentsErr != nil {
		return f.commentsErr
	}
	f.comments[token] = comments
	return nil
}

func (f *fakeAPI) GetTypo(ctx context.Context, token, locale string) (*model.Recommendation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.typoErr != nil {
		return nil, f.typoErr
	}
	return f.typo, nil
}

func (f *fakeAPI) GetInfo(ctx context.Context, tokenOrSlug string) (*model.CampaignInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	if f.info == nil {
		return nil, model.ErrNotFound
	}
	return f.info, nil
}

func (f *fakeAPI) put(tokenOrSlug, token, data string) {
	f.records[tokenOrSlug] = &RecordPayload{Token: token, Data: json.RawMessage(data)}
}

// memStore keeps snapshots as JSON so each load sees an independent copy
type memStore struct {
	mu    sync.Mutex
	snaps map[string][]byte
	saves int
}

func newMemStore() *memStore {
	return &memStore{snaps: make(map[string][]byte)}
}

func (m *memStore) Save(ctx context.Context, snap *model.SessionSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[snap.ID] = data
	m.saves++
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*model.SessionSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.snaps[id]
	if !ok {
		return nil, nil
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, id)
	return nil
}

type broadcast struct {
	sessionID string
	msgType   string
}

type recordingBroadcaster struct {
	mu   sync.Mutex
	sent []broadcast
}

func (b *recordingBroadcaster) BroadcastToSession(sessionID string, msgType string, payload interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, broadcast{sessionID, msgType})
}

func (b *recordingBroadcaster) DisconnectSession(sessionID string) {}

// memInfoCache is an in-memory cache.InfoCache
type memInfoCache struct {
	items map[string]*model.CampaignInfo
}

func (c *memInfoCache) Get(ctx context.Context, tokenOrSlug string) (*model.CampaignInfo, error) {
	return c.items[tokenOrSlug], nil
}

func (c *memInfoCache) Set(ctx context.Context, tokenOrSlug string, info *model.CampaignInfo) error {
	c.items[tokenOrSlug] = info
	return nil
}

func (c *memInfoCache) Delete(ctx context.Context, tokenOrSlug string) error {
	delete(c.items, tokenOrSlug)
	return nil
}
