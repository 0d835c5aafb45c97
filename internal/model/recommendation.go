package model

// Reco is the home-to-work part of a recommendation
type Reco struct {
	RecoDT2 []string               `json:"reco_dt2" bson:"reco_dt2"` // ranked recommendation codes
	Scores  map[string]interface{} `json:"scores,omitempty" bson:"scores,omitempty"`
	Access  map[string]interface{} `json:"access,omitempty" bson:"access,omitempty"`
}

// Recommendation is computed by the backend from a saved record (the record's
// modal typology). It is read-only here.
type Recommendation struct {
	Reco        *Reco                  `json:"reco,omitempty" bson:"reco,omitempty"`
	RecoActions map[string]interface{} `json:"reco_actions,omitempty" bson:"reco_actions,omitempty"`
	RecoPro     map[string]interface{} `json:"reco_pro,omitempty" bson:"reco_pro,omitempty"`
}

// Codes returns the ranked recommendation codes, nil when there are none
func (r *Recommendation) Codes() []string {
	if r == nil || r.Reco == nil {
		return nil
	}
	return r.Reco.RecoDT2
}
