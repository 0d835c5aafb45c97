package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeRecordDataSeedsMissingFields(t *testing.T) {
	// a record saved before journeys and professional trips were introduced
	legacy := json.RawMessage(`{
		"age_class": "25_44",
		"employment_rate": 80,
		"workplace": {"address": "Rue du Rhône 1, Genève", "lat": 46.2, "lon": 6.14}
	}`)

	d, err := MergeRecordData(legacy)
	require.NoError(t, err)

	want := DefaultRecordData()
	want.AgeClass = "25_44"
	want.EmploymentRate = 80
	lat, lon := 46.2, 6.14
	want.Workplace = AddressLocation{Address: "Rue du Rhône 1, Genève", Lat: &lat, Lon: &lon}
	assert.Equal(t, want, d)

	assert.Equal(t, 40.0, d.RemoteWorkRate)
	assert.Equal(t, []Journey{}, d.FreqModJourneys)
	assert.Equal(t, CurrentSchemaVersion, d.Version)
}

func TestMergeRecordDataKeepsStoredVersion(t *testing.T) {
	d, err := MergeRecordData(json.RawMessage(`{"version": "1.0"}`))
	require.NoError(t, err)
	assert.Equal(t, "1.0", d.Version)
}

func TestMergeRecordDataEmptyPayload(t *testing.T) {
	d, err := MergeRecordData(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultRecordData(), d)

	d, err = MergeRecordData(json.RawMessage(`null`))
	require.NoError(t, err)
	assert.Equal(t, DefaultRecordData(), d)
}

func TestApplyIsShallow(t *testing.T) {
	d := DefaultRecordData()
	d.FreqModJourneys = []Journey{{Modes: []string{"car", "carpool"}, Days: 2}, {Modes: []string{"car"}, Days: 1}}
	d.Origin = AddressLocation{Address: "Carouge"}

	require.NoError(t, d.Apply(json.RawMessage(`{"freq_mod_journeys":[{"days":4,"modes":["bike"]}],"origin":{"lat":46.1}}`)))

	assert.Equal(t, []Journey{{Modes: []string{"bike"}, Days: 4}}, d.FreqModJourneys)
	assert.Equal(t, "", d.Origin.Address)
	require.NotNil(t, d.Origin.Lat)
	assert.Equal(t, 46.1, *d.Origin.Lat)
}

func TestApplyNullSliceBecomesEmpty(t *testing.T) {
	d := DefaultRecordData()
	d.Equipments = []string{"bike"}
	require.NoError(t, d.Apply(json.RawMessage(`{"equipments": null}`)))
	assert.Equal(t, []string{}, d.Equipments)
}

func TestApplyRejectsMalformedPayload(t *testing.T) {
	d := DefaultRecordData()
	err := d.Apply(json.RawMessage(`{"employment_rate": "full"}`))
	assert.ErrorIs(t, err, ErrValidation)

	err = d.Apply(json.RawMessage(`[1,2]`))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTravelProJSON(t *testing.T) {
	var d RecordData
	require.NoError(t, json.Unmarshal([]byte(`{"travel_pro": true}`), &d))
	assert.Equal(t, TravelPro{Enabled: true}, d.TravelPro)

	require.NoError(t, json.Unmarshal([]byte(`{"travel_pro": ["local","inter"]}`), &d))
	assert.Equal(t, TravelPro{Enabled: true, Extents: []string{"local", "inter"}}, d.TravelPro)

	require.NoError(t, json.Unmarshal([]byte(`{"travel_pro": []}`), &d))
	assert.False(t, d.TravelPro.Enabled)

	out, err := json.Marshal(TravelPro{Enabled: true, Extents: []string{"region"}})
	require.NoError(t, err)
	assert.JSONEq(t, `["region"]`, string(out))

	out, err = json.Marshal(TravelPro{})
	require.NoError(t, err)
	assert.JSONEq(t, `false`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"travel_pro": "yes"}`), &d))
}

func TestRecordClone(t *testing.T) {
	var nilRecord *Record
	assert.Nil(t, nilRecord.Clone())

	r := &Record{Token: "tk", Data: DefaultRecordData()}
	r.Data.Equipments = []string{"ebike"}
	cp := r.Clone()
	cp.Data.Equipments[0] = "moto"
	assert.Equal(t, "ebike", r.Data.Equipments[0])
	assert.Equal(t, "tk", cp.Token)
}

func TestRecordCloneSharesNothing(t *testing.T) {
	lat, motivation := 46.2, 4
	r := &Record{Token: "tk", Data: DefaultRecordData()}
	r.Data.Workplace = AddressLocation{Address: "Rue du Rhône 1", Lat: &lat}
	r.Data.FreqModJourneys = []Journey{{Modes: []string{"bike", "train"}, Days: 3}}
	r.Data.FreqModProJourneys = []ProJourney{{Mode: "train", Days: 2, Extent: ExtentRegion}}
	r.Data.TravelPro = TravelPro{Enabled: true, Extents: []string{ExtentRegion}}
	r.Data.Change = Change{Motivation: &motivation, Levers: []string{"cost"}}

	cp := r.Clone()
	assert.Equal(t, r, cp)

	*cp.Data.Workplace.Lat = 0
	cp.Data.FreqModJourneys[0].Modes[0] = "car"
	cp.Data.FreqModProJourneys[0].Mode = "car"
	cp.Data.TravelPro.Extents[0] = ExtentInter
	*cp.Data.Change.Motivation = 1
	cp.Data.Change.Levers[0] = "time"

	assert.Equal(t, 46.2, *r.Data.Workplace.Lat)
	assert.Equal(t, []string{"bike", "train"}, r.Data.FreqModJourneys[0].Modes)
	assert.Equal(t, "train", r.Data.FreqModProJourneys[0].Mode)
	assert.Equal(t, []string{ExtentRegion}, r.Data.TravelPro.Extents)
	assert.Equal(t, 4, *r.Data.Change.Motivation)
	assert.Equal(t, []string{"cost"}, r.Data.Change.Levers)
}

func TestRecommendationCodes(t *testing.T) {
	var r *Recommendation
	assert.Nil(t, r.Codes())
	assert.Nil(t, (&Recommendation{}).Codes())
	assert.Equal(t, []string{"tpu"}, (&Recommendation{Reco: &Reco{RecoDT2: []string{"tpu"}}}).Codes())
}
