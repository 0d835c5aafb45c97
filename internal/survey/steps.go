package survey

import "fmt"

// Step is one page of the questionnaire
type Step int

const (
	StepNone Step = iota
	StepAgreement
	StepAgeClass
	StepEmployment
	StepPlaces
	StepTravelTime
	StepConstraints
	StepEquipments
	StepIntermodality
	StepTravelPro
	StepFreqModPro
	StepFreqModProLocal
	StepFreqModProRegion
	StepFreqModProInter
	StepImportance
	StepNeeds
	StepRecommendations
	StepChange
	StepComments
	StepFinal
)

var stepNames = map[Step]string{
	StepAgreement:        "agreement",
	StepAgeClass:         "age_class",
	StepEmployment:       "employment",
	StepPlaces:           "places",
	StepTravelTime:       "travel_time",
	StepConstraints:      "constraints",
	StepEquipments:       "equipments",
	StepIntermodality:    "intermodality",
	StepTravelPro:        "travel_pro",
	StepFreqModPro:       "freq_mod_pro",
	StepFreqModProLocal:  "freq_mod_pro_local",
	StepFreqModProRegion: "freq_mod_pro_region",
	StepFreqModProInter:  "freq_mod_pro_inter",
	StepImportance:       "importance",
	StepNeeds:            "needs",
	StepRecommendations:  "recommendations",
	StepChange:           "change",
	StepComments:         "comments",
	StepFinal:            "final",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return ""
}

// ParseStep resolves a step by name
func ParseStep(name string) (Step, bool) {
	for step, n := range stepNames {
		if n == name {
			return step, true
		}
	}
	return StepNone, false
}

// Direction of a navigation move
type Direction int

const (
	Forward Direction = iota
	Backward
)

type edge struct {
	from Step
	dir  Direction
}

// Flow is an immutable ordered list of steps together with its transition
// table. Positions are 1-based, 0 means "not started".
type Flow struct {
	name     string
	steps    []Step
	position map[Step]int
	table    map[edge]Step
}

// NewFlow builds a flow and its neighbour table
func NewFlow(name string, steps ...Step) *Flow {
	f := &Flow{
		name:     name,
		steps:    append([]Step(nil), steps...),
		position: make(map[Step]int, len(steps)),
		table:    make(map[edge]Step, 2*len(steps)),
	}
	for i, s := range f.steps {
		f.position[s] = i + 1
		if i+1 < len(f.steps) {
			f.table[edge{s, Forward}] = f.steps[i+1]
		}
		if i > 0 {
			f.table[edge{s, Backward}] = f.steps[i-1]
		}
	}
	return f
}

var commonHead = []Step{
	StepAgreement,
	StepAgeClass,
	StepEmployment,
	StepPlaces,
	StepTravelTime,
	StepConstraints,
	StepEquipments,
	StepIntermodality,
	StepTravelPro,
}

var commonTail = []Step{
	StepImportance,
	StepNeeds,
	StepRecommendations,
	StepChange,
	StepComments,
	StepFinal,
}

func concat(parts ...[]Step) []Step {
	var out []Step
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

var (
	// DefaultFlow asks professional trip frequencies on a single page
	DefaultFlow = NewFlow("default", concat(commonHead, []Step{StepFreqModPro}, commonTail)...)

	// BreakdownFlow splits professional trips into local, regional and international pages
	BreakdownFlow = NewFlow("breakdown", concat(commonHead,
		[]Step{StepFreqModProLocal, StepFreqModProRegion, StepFreqModProInter}, commonTail)...)
)

// FlowByName returns a known flow
func FlowByName(name string) (*Flow, error) {
	switch name {
	case "", DefaultFlow.name:
		return DefaultFlow, nil
	case BreakdownFlow.name:
		return BreakdownFlow, nil
	}
	return nil, fmt.Errorf("unknown survey flow %q", name)
}

func (f *Flow) Name() string { return f.name }

// Len is the number of steps
func (f *Flow) Len() int { return len(f.steps) }

// At returns the step at a 1-based position, StepNone when out of range
func (f *Flow) At(pos int) Step {
	if pos < 1 || pos > len(f.steps) {
		return StepNone
	}
	return f.steps[pos-1]
}

// Position returns the 1-based position of a step, 0 when the flow does not contain it
func (f *Flow) Position(s Step) int {
	return f.position[s]
}

// Names lists the step names in order
func (f *Flow) Names() []string {
	names := make([]string, len(f.steps))
	for i, s := range f.steps {
		names[i] = s.String()
	}
	return names
}

// Neighbour is the adjacent step in a direction, StepNone at either end
func (f *Flow) Neighbour(from Step, dir Direction) Step {
	return f.table[edge{from, dir}]
}
