package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"commutesurvey/internal/model"
)

func journeys(js ...model.Journey) *model.RecordData {
	d := model.DefaultRecordData()
	d.FreqModJourneys = js
	return &d
}

func j(days int, modes ...string) model.Journey {
	return model.Journey{Modes: modes, Days: days}
}

func TestFreqModAccumulatesAcrossCombinedJourneys(t *testing.T) {
	d := journeys(j(2, "car", "carpool"), j(1, "car"))

	assert.Equal(t, 3, FreqMod(d, "car"))
	assert.Equal(t, 2, FreqMod(d, "carpool"))
	assert.Equal(t, 0, FreqMod(d, "bike"))

	d = journeys(j(1, "bike", "train"), j(2, "pub", "train"), j(1, "train"))
	assert.Equal(t, 4, FreqMod(d, "train"))
}

func TestFreqModMatchesJourneyDays(t *testing.T) {
	d := journeys(j(2, "walking", "pub"), j(1, "bike"), j(3, "pub", "train", "walking"))

	for _, mode := range CandidateModes {
		want := 0
		for _, jr := range d.FreqModJourneys {
			for _, m := range jr.Modes {
				if m == mode {
					want += jr.Days
					break
				}
			}
		}
		assert.Equal(t, want, FreqMod(d, mode), mode)
	}
}

func TestFreqModCombined(t *testing.T) {
	assert.False(t, FreqModCombined(journeys(j(5, "bike"))))
	assert.True(t, FreqModCombined(journeys(j(5, "bike", "pub"))))
	assert.False(t, FreqModCombined(journeys()))
	assert.False(t, FreqModCombined(nil))
}

func TestMainFreqMod(t *testing.T) {
	tests := []struct {
		name string
		data *model.RecordData
		want string
	}{
		{"no journeys", journeys(), ""},
		{"nil record", nil, ""},
		{"single mode", journeys(j(4, "pub")), "pub"},
		{"greatest wins", journeys(j(1, "walking"), j(3, "car"), j(2, "bike")), "car"},
		{"tie goes to first candidate", journeys(j(2, "walking"), j(2, "car")), "walking"},
		{"tie between later candidates", journeys(j(2, "train"), j(2, "carpool")), "carpool"},
		{"combined beats totals", journeys(j(5, "car"), j(1, "bike", "pub")), ModeCombined},
		{"zero days", journeys(j(0, "car")), ""},
		{"unknown mode ignored", journeys(j(3, "plane")), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MainFreqMod(tt.data))
		})
	}
}

func TestMultimodalIgnoresWalking(t *testing.T) {
	assert.False(t, Multimodal(journeys(j(3, "walking", "pub"))))
	assert.True(t, Multimodal(journeys(j(3, "bike", "train"))))
	assert.True(t, Multimodal(journeys(j(1, "walking", "pub", "train"))))
}

func TestSummarize(t *testing.T) {
	d := journeys(j(3, "bike"), j(1, "pub"))
	reco := &model.Recommendation{Reco: &model.Reco{RecoDT2: []string{"vae", "inter"}}}

	s := Summarize(d, reco)
	assert.Equal(t, 3, s.FreqMod["bike"])
	assert.Equal(t, 1, s.FreqMod["pub"])
	assert.Equal(t, "bike", s.MainMode)
	assert.False(t, s.Combined)
	assert.Equal(t, 4, s.TotalDays)
	assert.Equal(t, []string{"ebike", "inter"}, s.RecoModes)
}
