package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// CurrentSchemaVersion is stamped on records that predate versioning
const CurrentSchemaVersion = "2.0"

// Professional travel extents
const (
	ExtentLocal  = "local"
	ExtentRegion = "region"
	ExtentInter  = "inter"
)

// Record is one participant's survey answers
type Record struct {
	Token string     `json:"token" bson:"token"`
	Data  RecordData `json:"data" bson:"data"`
}

// AddressLocation is a geocoded place answer (workplace, origin)
type AddressLocation struct {
	Address string   `json:"address,omitempty" bson:"address,omitempty"`
	Lat     *float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lon     *float64 `json:"lon,omitempty" bson:"lon,omitempty"`
}

// Journey is a commuting pattern: modes used together and how many days a week
type Journey struct {
	Modes []string `json:"modes" bson:"modes"`
	Days  int      `json:"days" bson:"days"`
}

// ProJourney is a professional trip pattern
type ProJourney struct {
	Mode   string `json:"mode" bson:"mode"`
	Days   int    `json:"days" bson:"days"`
	HexID  string `json:"hex_id,omitempty" bson:"hex_id,omitempty"`   // H3 cell of the destination
	Extent string `json:"extent,omitempty" bson:"extent,omitempty"` // breakdown variant only
}

// Change holds the willingness-to-change answers
type Change struct {
	Motivation *int     `json:"motivation,omitempty" bson:"motivation,omitempty"`
	Levers     []string `json:"levers,omitempty" bson:"levers,omitempty"`
}

// TravelPro is the professional travel answer. Older collectors stored a
// boolean, the breakdown variant stores the selected extents.
type TravelPro struct {
	Enabled bool     `bson:"enabled"`
	Extents []string `bson:"extents,omitempty"`
}

func (t TravelPro) MarshalJSON() ([]byte, error) {
	if len(t.Extents) > 0 {
		return json.Marshal(t.Extents)
	}
	return json.Marshal(t.Enabled)
}

func (t *TravelPro) UnmarshalJSON(b []byte) error {
	trimmed := bytes.TrimSpace(b)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*t = TravelPro{}
		return nil
	case len(trimmed) > 0 && trimmed[0] == '[':
		var extents []string
		if err := json.Unmarshal(trimmed, &extents); err != nil {
			return fmt.Errorf("travel_pro extents: %w", err)
		}
		*t = TravelPro{Enabled: len(extents) > 0, Extents: extents}
		return nil
	default:
		var enabled bool
		if err := json.Unmarshal(trimmed, &enabled); err != nil {
			return fmt.Errorf("travel_pro: %w", err)
		}
		*t = TravelPro{Enabled: enabled}
		return nil
	}
}

// RecordData is the answer payload of a record
type RecordData struct {
	Version string `json:"version" bson:"version"`

	Agreement      bool    `json:"agreement" bson:"agreement"`
	AgeClass       string  `json:"age_class,omitempty" bson:"age_class,omitempty"`
	EmploymentRate float64 `json:"employment_rate" bson:"employment_rate"`
	RemoteWorkRate float64 `json:"remote_work_rate" bson:"remote_work_rate"`
	CompanyVehicle bool    `json:"company_vehicle" bson:"company_vehicle"`

	Workplace  AddressLocation `json:"workplace" bson:"workplace"`
	Origin     AddressLocation `json:"origin" bson:"origin"`
	TravelTime int             `json:"travel_time" bson:"travel_time"`

	Constraints     []string  `json:"constraints" bson:"constraints"`
	Equipments      []string  `json:"equipments" bson:"equipments"`
	FreqModJourneys []Journey `json:"freq_mod_journeys" bson:"freq_mod_journeys"`

	TravelPro          TravelPro    `json:"travel_pro" bson:"travel_pro"`
	TravPro            []string     `json:"trav_pro,omitempty" bson:"trav_pro,omitempty"` // legacy extents answer
	FreqTravProLocal   int          `json:"freq_trav_pro_local" bson:"freq_trav_pro_local"`
	FreqTravProRegion  int          `json:"freq_trav_pro_region" bson:"freq_trav_pro_region"`
	FreqTravProInter   int          `json:"freq_trav_pro_inter" bson:"freq_trav_pro_inter"`
	FreqModProJourneys []ProJourney `json:"freq_mod_pro_journeys" bson:"freq_mod_pro_journeys"`

	ImportanceTime    int `json:"importance_time" bson:"importance_time"`
	ImportanceCost    int `json:"importance_cost" bson:"importance_cost"`
	ImportanceFlex    int `json:"importance_flex" bson:"importance_flex"`
	ImportanceRel     int `json:"importance_rel" bson:"importance_rel"`
	ImportanceComfort int `json:"importance_comfort" bson:"importance_comfort"`
	ImportanceMost    int `json:"importance_most" bson:"importance_most"`
	ImportanceEnv     int `json:"importance_env" bson:"importance_env"`

	NeedsWalking int `json:"needs_walking" bson:"needs_walking"`
	NeedsBike    int `json:"needs_bike" bson:"needs_bike"`
	NeedsPub     int `json:"needs_pub" bson:"needs_pub"`
	NeedsMoto    int `json:"needs_moto" bson:"needs_moto"`
	NeedsCar     int `json:"needs_car" bson:"needs_car"`
	NeedsTrain   int `json:"needs_train" bson:"needs_train"`

	Change   Change `json:"change" bson:"change"`
	Comments string `json:"comments,omitempty" bson:"comments,omitempty"`
}

// defaultRating is the neutral value on the 1-5 scales
const defaultRating = 3

// DefaultRecordData returns a fully populated record payload
func DefaultRecordData() RecordData {
	return RecordData{
		Version:            CurrentSchemaVersion,
		EmploymentRate:     100,
		RemoteWorkRate:     40,
		Constraints:        []string{},
		Equipments:         []string{},
		FreqModJourneys:    []Journey{},
		FreqModProJourneys: []ProJourney{},

		ImportanceTime:    defaultRating,
		ImportanceCost:    defaultRating,
		ImportanceFlex:    defaultRating,
		ImportanceRel:     defaultRating,
		ImportanceComfort: defaultRating,
		ImportanceMost:    defaultRating,
		ImportanceEnv:     defaultRating,

		NeedsWalking: defaultRating,
		NeedsBike:    defaultRating,
		NeedsPub:     defaultRating,
		NeedsMoto:    defaultRating,
		NeedsCar:     defaultRating,
		NeedsTrain:   defaultRating,
	}
}

// MergeRecordData overlays a stored payload on the defaults. Fields absent
// from the payload keep their default value.
func MergeRecordData(payload json.RawMessage) (RecordData, error) {
	data := DefaultRecordData()
	if err := data.Apply(payload); err != nil {
		return RecordData{}, err
	}
	return data, nil
}

// recordDataFields maps json keys to RecordData field indexes
var recordDataFields = func() map[string]int {
	t := reflect.TypeOf(RecordData{})
	fields := make(map[string]int, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		fields[name] = i
	}
	return fields
}()

// Apply overlays a partial payload on the current answers. The overlay is
// shallow: a top-level key present in the payload replaces the whole field.
func (d *RecordData) Apply(payload json.RawMessage) error {
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(payload, &present); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var patch RecordData
	if err := json.Unmarshal(payload, &patch); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	dst := reflect.ValueOf(d).Elem()
	src := reflect.ValueOf(&patch).Elem()
	for key := range present {
		if i, ok := recordDataFields[key]; ok {
			dst.Field(i).Set(src.Field(i))
		}
	}
	d.normalize()
	return nil
}

func (d *RecordData) normalize() {
	if d.Version == "" {
		d.Version = CurrentSchemaVersion
	}
	if d.Constraints == nil {
		d.Constraints = []string{}
	}
	if d.Equipments == nil {
		d.Equipments = []string{}
	}
	if d.FreqModJourneys == nil {
		d.FreqModJourneys = []Journey{}
	}
	if d.FreqModProJourneys == nil {
		d.FreqModProJourneys = []ProJourney{}
	}
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	cp := *r
	d := &cp.Data
	d.Workplace = r.Data.Workplace.clone()
	d.Origin = r.Data.Origin.clone()
	d.Constraints = slices.Clone(r.Data.Constraints)
	d.Equipments = slices.Clone(r.Data.Equipments)
	d.TravPro = slices.Clone(r.Data.TravPro)
	d.TravelPro.Extents = slices.Clone(r.Data.TravelPro.Extents)
	d.FreqModProJourneys = slices.Clone(r.Data.FreqModProJourneys)
	if r.Data.FreqModJourneys != nil {
		d.FreqModJourneys = make([]Journey, len(r.Data.FreqModJourneys))
		for i, j := range r.Data.FreqModJourneys {
			d.FreqModJourneys[i] = Journey{Modes: slices.Clone(j.Modes), Days: j.Days}
		}
	}
	d.Change.Motivation = clonePtr(r.Data.Change.Motivation)
	d.Change.Levers = slices.Clone(r.Data.Change.Levers)
	return &cp
}

func (a AddressLocation) clone() AddressLocation {
	return AddressLocation{Address: a.Address, Lat: clonePtr(a.Lat), Lon: clonePtr(a.Lon)}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
