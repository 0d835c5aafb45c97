package survey

import (
	"slices"

	"commutesurvey/internal/model"
)

// codeModes maps recommendation codes to the mode keys used by the collector
var codeModes = map[string]string{
	"marche": "walking",
	"velo":   "bike",
	"vae":    "ebike",
	"tpu":    "pub",
	"covoit": "carpool",
	"elec":   "car",
	"train":  "train",
}

// benefitCodes have a benefits sheet in the collector
var benefitCodes = map[string]bool{
	"velo":   true,
	"covoit": true,
	"elec":   true,
	"inter":  true,
	"marche": true,
	"tpu":    true,
	"train":  true,
	"vae":    true,
}

// ModeForCode maps a recommendation code to a mode key. Unknown codes are returned as is.
func ModeForCode(code string) string {
	if mode, ok := codeModes[code]; ok {
		return mode
	}
	return code
}

// HasBenefits reports whether a recommendation code has a benefits sheet
func HasBenefits(code string) bool {
	return benefitCodes[code]
}

// RecoModes maps the ranked recommendation codes to mode keys, keeping order
func RecoModes(reco *model.Recommendation) []string {
	codes := reco.Codes()
	if len(codes) == 0 {
		return nil
	}
	modes := make([]string, len(codes))
	for i, c := range codes {
		modes[i] = ModeForCode(c)
	}
	return modes
}

// RecommendationView holds the recommendation fetched for the session. It is
// replaced as a whole on fetch and cleared on reset.
type RecommendationView struct {
	reco *model.Recommendation
}

func (v *RecommendationView) Set(reco *model.Recommendation) { v.reco = reco }

func (v *RecommendationView) Clear() { v.reco = nil }

func (v *RecommendationView) Get() *model.Recommendation { return v.reco }

// Modes returns the recommended mode keys in rank order
func (v *RecommendationView) Modes() []string { return RecoModes(v.reco) }

// Contains reports whether mode is among the recommended modes
func (v *RecommendationView) Contains(mode string) bool {
	return slices.Contains(v.Modes(), mode)
}
