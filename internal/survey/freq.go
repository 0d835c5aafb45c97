package survey

import (
	"slices"

	"commutesurvey/internal/model"
)

// ModeCombined is reported as main mode when a journey mixes several modes
const ModeCombined = "combined"

const modeWalking = "walking"

// CandidateModes are the commute modes considered for the main mode. The
// order breaks ties: an earlier mode wins over a later one with equal days.
var CandidateModes = []string{"walking", "bike", "ebike", "pub", "moto", "car", "carpool", "train"}

// FreqMod sums the days of every journey that uses mode
func FreqMod(d *model.RecordData, mode string) int {
	if d == nil {
		return 0
	}
	total := 0
	for _, j := range d.FreqModJourneys {
		if slices.Contains(j.Modes, mode) {
			total += j.Days
		}
	}
	return total
}

// FreqModCombined reports whether at least one journey lists more than one mode
func FreqModCombined(d *model.RecordData) bool {
	if d == nil {
		return false
	}
	for _, j := range d.FreqModJourneys {
		if len(j.Modes) > 1 {
			return true
		}
	}
	return false
}

// MainFreqMod returns the dominant commute mode, ModeCombined when a journey
// mixes modes, or "" when no candidate mode has any days.
func MainFreqMod(d *model.RecordData) string {
	if FreqModCombined(d) {
		return ModeCombined
	}
	main, best := "", 0
	for _, mode := range CandidateModes {
		if days := FreqMod(d, mode); days > best {
			main, best = mode, days
		}
	}
	return main
}

// Multimodal reports whether a journey chains distinct modes other than
// walking. Walking to a stop is not counted as intermodality.
func Multimodal(d *model.RecordData) bool {
	if d == nil {
		return false
	}
	for _, j := range d.FreqModJourneys {
		seen := make(map[string]struct{}, len(j.Modes))
		for _, m := range j.Modes {
			if m != modeWalking {
				seen[m] = struct{}{}
			}
		}
		if len(seen) > 1 {
			return true
		}
	}
	return false
}

// TotalDays sums the days of all journeys
func TotalDays(d *model.RecordData) int {
	if d == nil {
		return 0
	}
	total := 0
	for _, j := range d.FreqModJourneys {
		total += j.Days
	}
	return total
}

// FreqModAll returns FreqMod for every candidate mode
func FreqModAll(d *model.RecordData) map[string]int {
	out := make(map[string]int, len(CandidateModes))
	for _, mode := range CandidateModes {
		out[mode] = FreqMod(d, mode)
	}
	return out
}

// Summarize computes the commute aggregates shown next to the recommendation
func Summarize(d *model.RecordData, reco *model.Recommendation) *model.ModeSummary {
	return &model.ModeSummary{
		FreqMod:       FreqModAll(d),
		Combined:      FreqModCombined(d),
		MainMode:      MainFreqMod(d),
		RecoModes:     RecoModes(reco),
		TotalDays:     TotalDays(d),
		Multimodality: Multimodal(d),
	}
}
