package model

import "time"

// SessionView is what the client renders for the current step
type SessionView struct {
	ID             string          `json:"id"`
	TokenOrSlug    string          `json:"tokenOrSlug,omitempty"`
	Flow           string          `json:"flow"`
	Started        bool            `json:"started"`
	Step           int             `json:"step"`
	StepName       string          `json:"stepName,omitempty"`
	Steps          []string        `json:"steps"`
	Timestamp      time.Time       `json:"timestamp"`
	Record         *Record         `json:"record,omitempty"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
	Summary        *ModeSummary    `json:"summary,omitempty"`
}

// ModeSummary are the commute aggregates derived from the journeys
type ModeSummary struct {
	FreqMod       map[string]int `json:"freqMod"`
	Combined      bool           `json:"combined"`
	MainMode      string         `json:"mainMode"`
	RecoModes     []string       `json:"recoModes,omitempty"`
	TotalDays     int            `json:"totalDays"`
	Multimodality bool           `json:"multimodality"`
}
