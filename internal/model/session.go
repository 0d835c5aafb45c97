package model

import "time"

// SessionSnapshot is the persisted state of one survey session. It is written
// as a whole after every mutation.
type SessionSnapshot struct {
	ID             string          `json:"id" bson:"_id"`
	TokenOrSlug    string          `json:"tokenOrSlug" bson:"tokenOrSlug"`
	Flow           string          `json:"flow" bson:"flow"`
	Record         *Record         `json:"record,omitempty" bson:"record,omitempty"`
	Started        bool            `json:"started" bson:"started"`
	Step           int             `json:"step" bson:"step"`
	StepName       string          `json:"stepName,omitempty" bson:"stepName,omitempty"`
	Timestamp      time.Time       `json:"timestamp" bson:"timestamp"`
	Recommendation *Recommendation `json:"recommendation,omitempty" bson:"recommendation,omitempty"`
}
