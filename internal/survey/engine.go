package survey

import (
	"encoding/json"
	"fmt"
	"time"

	"commutesurvey/internal/model"
)

// Engine drives one participant through the questionnaire. It is not safe
// for concurrent use; callers serialise navigation, answers and saves.
type Engine struct {
	flow        *Flow
	now         func() time.Time
	tokenOrSlug string
	record      *model.Record
	reco        RecommendationView
	step        int
	started     bool
	timestamp   time.Time
}

// Option configures an Engine
type Option func(*Engine)

// WithFlow selects the step sequence
func WithFlow(f *Flow) Option {
	return func(e *Engine) {
		if f != nil {
			e.flow = f
		}
	}
}

// WithClock overrides the time source used for timestamps
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine that has not started yet
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		flow: DefaultFlow,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.timestamp = e.now()
	return e
}

// Restore rebuilds an engine from a persisted snapshot
func Restore(snap *model.SessionSnapshot, opts ...Option) (*Engine, error) {
	flow, err := FlowByName(snap.Flow)
	if err != nil {
		return nil, err
	}
	e := NewEngine(append([]Option{WithFlow(flow)}, opts...)...)
	if snap.Step < 0 || snap.Step > flow.Len() {
		return nil, fmt.Errorf("snapshot %s: step %d out of range for flow %s", snap.ID, snap.Step, flow.Name())
	}
	if snap.Step > 0 && snap.Record == nil {
		return nil, fmt.Errorf("snapshot %s: step %d without a record", snap.ID, snap.Step)
	}
	e.tokenOrSlug = snap.TokenOrSlug
	e.record = snap.Record.Clone()
	e.reco.Set(snap.Recommendation)
	e.step = snap.Step
	e.started = snap.Started
	e.timestamp = snap.Timestamp
	return e, nil
}

// Snapshot captures the engine state for persistence
func (e *Engine) Snapshot(id string) *model.SessionSnapshot {
	return &model.SessionSnapshot{
		ID:             id,
		TokenOrSlug:    e.tokenOrSlug,
		Flow:           e.flow.Name(),
		Record:         e.record.Clone(),
		Started:        e.started,
		Step:           e.step,
		StepName:       e.StepName(),
		Timestamp:      e.timestamp,
		Recommendation: e.reco.Get(),
	}
}

// SetTokenOrSlug remembers what the record was loaded with
func (e *Engine) SetTokenOrSlug(tokenOrSlug string) {
	e.tokenOrSlug = tokenOrSlug
}

func (e *Engine) TokenOrSlug() string { return e.tokenOrSlug }

// Init starts the survey on the first step with the given record
func (e *Engine) Init(record *model.Record) {
	if record == nil {
		record = &model.Record{Data: model.DefaultRecordData()}
	}
	e.record = record.Clone()
	e.reco.Clear()
	e.step = 1
	e.started = true
	e.touch()
}

// Advance moves to the next applicable step. Steps passed over have their
// answers reset so that a branch the participant left does not leak into the
// saved record. At the last step it does nothing.
func (e *Engine) Advance() Step {
	if !e.active() {
		return e.Current()
	}
	next, skipped := e.flow.Transition(e.Current(), Forward, &e.record.Data)
	if next == StepNone {
		return e.Current()
	}
	if !Applies(e.Current(), &e.record.Data) {
		skipped = append(skipped, e.Current())
	}
	for _, s := range skipped {
		ResetStep(s, &e.record.Data)
	}
	e.step = e.flow.Position(next)
	e.touch()
	return next
}

// Retreat moves to the previous applicable step. At the first step it does nothing.
func (e *Engine) Retreat() Step {
	if !e.active() {
		return e.Current()
	}
	prev, _ := e.flow.Transition(e.Current(), Backward, &e.record.Data)
	if prev == StepNone {
		return e.Current()
	}
	e.step = e.flow.Position(prev)
	e.touch()
	return prev
}

// Finish drops the record and the recommendation once the survey is submitted
func (e *Engine) Finish() {
	e.record = nil
	e.reco.Clear()
	e.step = 0
	e.started = false
	e.touch()
}

// Reset is Finish plus forgetting the token or slug
func (e *Engine) Reset() {
	e.Finish()
	e.tokenOrSlug = ""
}

// Answer overlays answers on the current record
func (e *Engine) Answer(patch json.RawMessage) error {
	if e.record == nil {
		return fmt.Errorf("%w: no survey in progress", model.ErrValidation)
	}
	if err := e.record.Data.Apply(patch); err != nil {
		return err
	}
	e.realign()
	e.touch()
	return nil
}

// realign leaves a step that the latest answers made inapplicable. The step is
// reset and the engine moves back to the closest applicable step, or forward
// when there is none before it.
func (e *Engine) realign() {
	if !e.active() {
		return
	}
	cur := e.Current()
	if Applies(cur, &e.record.Data) {
		return
	}
	ResetStep(cur, &e.record.Data)
	target, _ := e.flow.Transition(cur, Backward, &e.record.Data)
	if target == StepNone {
		var skipped []Step
		target, skipped = e.flow.Transition(cur, Forward, &e.record.Data)
		for _, s := range skipped {
			ResetStep(s, &e.record.Data)
		}
	}
	if target != StepNone {
		e.step = e.flow.Position(target)
	}
}

// SetComments replaces the free text comments
func (e *Engine) SetComments(comments string) {
	if e.record == nil {
		return
	}
	e.record.Data.Comments = comments
	e.touch()
}

func (e *Engine) active() bool {
	return e.started && e.record != nil && e.step > 0
}

func (e *Engine) touch() {
	e.timestamp = e.now()
}

// IsBeforeStep reports whether the current position precedes the named step.
// Unknown names, or names outside this flow, report false.
func (e *Engine) IsBeforeStep(name string) bool {
	pos, ok := e.positionOf(name)
	return ok && e.step < pos
}

// IsAfterStep reports whether the current position follows the named step
func (e *Engine) IsAfterStep(name string) bool {
	pos, ok := e.positionOf(name)
	return ok && e.step > pos
}

func (e *Engine) positionOf(name string) (int, bool) {
	s, ok := ParseStep(name)
	if !ok {
		return 0, false
	}
	pos := e.flow.Position(s)
	return pos, pos > 0
}

// Current is the active step, StepNone before the survey starts
func (e *Engine) Current() Step { return e.flow.At(e.step) }

// StepIndex is the 1-based position of the active step, 0 when not started
func (e *Engine) StepIndex() int { return e.step }

func (e *Engine) StepName() string { return e.Current().String() }

func (e *Engine) Started() bool { return e.started }

func (e *Engine) Flow() *Flow { return e.flow }

func (e *Engine) Timestamp() time.Time { return e.timestamp }

// Record is the live record, nil when no survey is in progress
func (e *Engine) Record() *model.Record { return e.record }

func (e *Engine) SetRecommendation(reco *model.Recommendation) {
	e.reco.Set(reco)
	e.touch()
}

func (e *Engine) Recommendation() *model.Recommendation { return e.reco.Get() }

// ClearRecommendation drops a recommendation that no longer matches the answers
func (e *Engine) ClearRecommendation() {
	if e.reco.Get() == nil {
		return
	}
	e.reco.Clear()
	e.touch()
}

// IsModeInRecommendation reports whether the held recommendation suggests mode
func (e *Engine) IsModeInRecommendation(mode string) bool {
	return e.reco.Contains(mode)
}

func (e *Engine) data() *model.RecordData {
	if e.record == nil {
		return nil
	}
	return &e.record.Data
}

func (e *Engine) GetFreqMod(mode string) int { return FreqMod(e.data(), mode) }

func (e *Engine) GetFreqModCombined() bool { return FreqModCombined(e.data()) }

func (e *Engine) GetMainFreqMod() string { return MainFreqMod(e.data()) }

// Summary computes the commute aggregates for the current record
func (e *Engine) Summary() *model.ModeSummary {
	if e.record == nil {
		return nil
	}
	return Summarize(e.data(), e.reco.Get())
}
