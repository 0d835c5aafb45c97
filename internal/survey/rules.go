package survey

import (
	"slices"

	"commutesurvey/internal/model"
)

// rule decides whether a step is shown for the current answers. reset puts
// the step's fields back to their empty values when the step is skipped.
type rule struct {
	applies func(d *model.RecordData) bool
	reset   func(d *model.RecordData)
}

var rules = map[Step]rule{
	StepFreqModPro:       {applies: travelsPro, reset: resetFreqModPro},
	StepFreqModProLocal:  extentRule(model.ExtentLocal),
	StepFreqModProRegion: extentRule(model.ExtentRegion),
	StepFreqModProInter:  extentRule(model.ExtentInter),
}

// Applies reports whether a step is shown for the given answers. Steps
// without a rule always apply.
func Applies(s Step, d *model.RecordData) bool {
	r, ok := rules[s]
	if !ok || r.applies == nil || d == nil {
		return true
	}
	return r.applies(d)
}

// ResetStep clears the fields owned by a step
func ResetStep(s Step, d *model.RecordData) {
	if r, ok := rules[s]; ok && r.reset != nil && d != nil {
		r.reset(d)
	}
}

// Transition walks from a step in a direction until it reaches an applicable
// step. It returns StepNone when there is no applicable step that way, and the
// steps it passed over.
func (f *Flow) Transition(from Step, dir Direction, d *model.RecordData) (Step, []Step) {
	var skipped []Step
	for next := f.Neighbour(from, dir); next != StepNone; next = f.Neighbour(next, dir) {
		if Applies(next, d) {
			return next, skipped
		}
		skipped = append(skipped, next)
	}
	return StepNone, nil
}

func travelsPro(d *model.RecordData) bool {
	return d.TravelPro.Enabled || len(d.TravelPro.Extents) > 0 || len(d.TravPro) > 0
}

func hasExtent(d *model.RecordData, extent string) bool {
	return slices.Contains(d.TravelPro.Extents, extent) || slices.Contains(d.TravPro, extent)
}

func resetFreqModPro(d *model.RecordData) {
	d.FreqModProJourneys = []model.ProJourney{}
	d.FreqTravProLocal = 0
	d.FreqTravProRegion = 0
	d.FreqTravProInter = 0
}

func extentRule(extent string) rule {
	return rule{
		applies: func(d *model.RecordData) bool {
			return hasExtent(d, extent)
		},
		reset: func(d *model.RecordData) {
			switch extent {
			case model.ExtentLocal:
				d.FreqTravProLocal = 0
			case model.ExtentRegion:
				d.FreqTravProRegion = 0
			case model.ExtentInter:
				d.FreqTravProInter = 0
			}
			kept := make([]model.ProJourney, 0, len(d.FreqModProJourneys))
			for _, j := range d.FreqModProJourneys {
				if j.Extent != extent {
					kept = append(kept, j)
				}
			}
			d.FreqModProJourneys = kept
			if !travelsPro(d) {
				// untagged journeys from the single page variant
				resetFreqModPro(d)
			}
		},
	}
}
