package domain

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMissingProfile is returned when no phenology profile exists for a crop type.
	ErrMissingProfile = errors.New("missing crop phenology profile")

	// ErrInvalidProfile is returned when a profile violates its invariants.
	ErrInvalidProfile = errors.New("invalid crop phenology profile")
)

// Defaults applied to the quality curve when a profile leaves them unset.
const (
	DefaultAcid0          = 2.0
	DefaultAcidK          = 0.0003
	DefaultChillThreshold = 45.0
)

// QualityCurve holds the per-crop sugar and acid curve constants.
type QualityCurve struct {
	BrixMin float64 `json:"brix_min" yaml:"brix_min"`
	BrixMax float64 `json:"brix_max" yaml:"brix_max"`
	Acid0   float64 `json:"acid0,omitempty" yaml:"acid0"`
	AcidK   float64 `json:"acid_k,omitempty" yaml:"acid_k"`
}

// CropProfile is the static phenology reference record for one crop type.
type CropProfile struct {
	Key  string `json:"key" yaml:"-"`
	Name string `json:"name" yaml:"name"`

	// GDD accumulation after bloom.
	BaseTemp   float64  `json:"base_temp" yaml:"base_temp"`
	MaxTempCap *float64 `json:"max_temp_cap,omitempty" yaml:"max_temp_cap"`

	// Dormancy release.
	ChillHoursRequired float64    `json:"chill_hours_required" yaml:"chill_hours_required"`
	ChillThreshold     float64    `json:"chill_threshold" yaml:"chill_threshold"`
	ChillStartMonth    time.Month `json:"chill_start_month" yaml:"chill_start_month"`

	// Post-dormancy heat toward bloom.
	HeatUnitsToBloom float64 `json:"heat_units_to_bloom" yaml:"heat_units_to_bloom"`
	HeatBaseTemp     float64 `json:"heat_base_temp" yaml:"heat_base_temp"`

	TypicalBloomMonth time.Month `json:"typical_bloom_month" yaml:"typical_bloom_month"`
	TypicalBloomDay   int        `json:"typical_bloom_day" yaml:"typical_bloom_day"`

	// NetworkSpeciesID is the phenology-network species identifier; 0 disables
	// the external crosscheck for this crop.
	NetworkSpeciesID int `json:"network_species_id,omitempty" yaml:"network_species_id"`

	GDDToMaturity float64 `json:"gdd_to_maturity" yaml:"gdd_to_maturity"`
	GDDToPeak     float64 `json:"gdd_to_peak" yaml:"gdd_to_peak"`
	GDDWindow     float64 `json:"gdd_window" yaml:"gdd_window"`

	Quality QualityCurve `json:"quality" yaml:"quality"`
}

// Validate checks the profile invariants.
func (p CropProfile) Validate() error {
	switch {
	case p.Key == "":
		return fmt.Errorf("%w: empty key", ErrInvalidProfile)
	case p.HeatUnitsToBloom <= 0:
		return fmt.Errorf("%w: %s: heat_units_to_bloom must be > 0", ErrInvalidProfile, p.Key)
	case p.GDDToMaturity <= 0:
		return fmt.Errorf("%w: %s: gdd_to_maturity must be > 0", ErrInvalidProfile, p.Key)
	case p.GDDToPeak < p.GDDToMaturity:
		return fmt.Errorf("%w: %s: gdd_to_peak must be >= gdd_to_maturity", ErrInvalidProfile, p.Key)
	case p.GDDWindow < 0:
		return fmt.Errorf("%w: %s: gdd_window must be >= 0", ErrInvalidProfile, p.Key)
	case p.ChillHoursRequired < 0:
		return fmt.Errorf("%w: %s: chill_hours_required must be >= 0", ErrInvalidProfile, p.Key)
	case p.ChillStartMonth < time.January || p.ChillStartMonth > time.December:
		return fmt.Errorf("%w: %s: chill_start_month out of range", ErrInvalidProfile, p.Key)
	case p.TypicalBloomMonth < time.January || p.TypicalBloomMonth > time.December:
		return fmt.Errorf("%w: %s: typical_bloom_month out of range", ErrInvalidProfile, p.Key)
	case p.TypicalBloomDay < 1 || p.TypicalBloomDay > 31:
		return fmt.Errorf("%w: %s: typical_bloom_day out of range", ErrInvalidProfile, p.Key)
	case p.Quality.BrixMax < p.Quality.BrixMin:
		return fmt.Errorf("%w: %s: quality brix_max must be >= brix_min", ErrInvalidProfile, p.Key)
	}
	return nil
}

// TypicalBloomDate returns the calendar fallback bloom date for year.
func (p CropProfile) TypicalBloomDate(year int) time.Time {
	return time.Date(year, p.TypicalBloomMonth, p.TypicalBloomDay, 0, 0, 0, 0, time.UTC)
}

// ChillStart returns the first day of dormancy accumulation for a bloom year.
func (p CropProfile) ChillStart(year int) time.Time {
	return time.Date(year-1, p.ChillStartMonth, 1, 0, 0, 0, 0, time.UTC)
}

// withDefaults fills unset optional fields. Zero counts as unset, so a Go
// literal cannot set these fields to zero; YAML overrides can.
func (p CropProfile) withDefaults() CropProfile {
	if p.ChillThreshold == 0 {
		p.ChillThreshold = DefaultChillThreshold
	}
	if p.ChillStartMonth == 0 {
		p.ChillStartMonth = time.November
	}
	if p.HeatBaseTemp == 0 {
		p.HeatBaseTemp = p.BaseTemp
	}
	if p.Quality.Acid0 == 0 {
		p.Quality.Acid0 = DefaultAcid0
	}
	if p.Quality.AcidK == 0 {
		p.Quality.AcidK = DefaultAcidK
	}
	return p
}

// ProfileRegistry is an immutable lookup table of crop profiles.
// It is safe for concurrent use because it is never mutated after construction.
type ProfileRegistry struct {
	profiles map[string]CropProfile
}

// NewProfileRegistry fills defaults, then validates and indexes profiles by key.
func NewProfileRegistry(profiles ...CropProfile) (*ProfileRegistry, error) {
	defaulted := make([]CropProfile, len(profiles))
	for i, p := range profiles {
		defaulted[i] = p.withDefaults()
	}
	return indexProfiles(defaulted)
}

func indexProfiles(profiles []CropProfile) (*ProfileRegistry, error) {
	m := make(map[string]CropProfile, len(profiles))
	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		m[p.Key] = p
	}
	return &ProfileRegistry{profiles: m}, nil
}

// Lookup returns the profile for cropType or an error wrapping ErrMissingProfile.
func (r *ProfileRegistry) Lookup(cropType string) (CropProfile, error) {
	p, ok := r.profiles[cropType]
	if !ok {
		return CropProfile{}, fmt.Errorf("%w: %q", ErrMissingProfile, cropType)
	}
	return p, nil
}

// Keys returns the registered crop types in sorted order.
func (r *ProfileRegistry) Keys() []string {
	keys := make([]string, 0, len(r.profiles))
	for k := range r.profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WithOverrides returns a new registry with YAML overrides merged over r.
// The document maps crop keys to profile fields; only the fields present are
// replaced, so an explicit zero is kept. Unknown keys add new crops, starting
// from the defaults:
//
//	profiles:
//	  apple:
//	    heat_units_to_bloom: 380
//	  plum:
//	    name: Plum
//	    ...
func (r *ProfileRegistry) WithOverrides(src io.Reader) (*ProfileRegistry, error) {
	var doc struct {
		Profiles map[string]yaml.Node `yaml:"profiles"`
	}
	if err := yaml.NewDecoder(src).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode profile overrides: %w", err)
	}

	merged := make([]CropProfile, 0, len(r.profiles)+len(doc.Profiles))
	for key, p := range r.profiles {
		if _, overridden := doc.Profiles[key]; !overridden {
			merged = append(merged, p)
		}
	}
	for key, node := range doc.Profiles {
		p, ok := r.profiles[key]
		if !ok {
			p = newProfileTemplate(key)
		}
		if err := node.Decode(&p); err != nil {
			return nil, fmt.Errorf("decode profile %q: %w", key, err)
		}
		if !ok && !hasField(&node, "heat_base_temp") {
			p.HeatBaseTemp = p.BaseTemp
		}
		p.Key = key
		merged = append(merged, p)
	}
	return indexProfiles(merged)
}

// newProfileTemplate is the starting point for a crop added by override.
func newProfileTemplate(key string) CropProfile {
	return CropProfile{
		Key:             key,
		ChillThreshold:  DefaultChillThreshold,
		ChillStartMonth: time.November,
		Quality:         QualityCurve{Acid0: DefaultAcid0, AcidK: DefaultAcidK},
	}
}

func hasField(node *yaml.Node, name string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == name {
			return true
		}
	}
	return false
}

func cap86() *float64 {
	v := 86.0
	return &v
}

// builtinProfiles is the static reference table. GDD targets are calibrated
// against farm-reported harvest months; bloom parameters are regional norms.
func builtinProfiles() []CropProfile {
	return []CropProfile{
		{
			Key: "citrus_orange", Name: "Orange",
			BaseTemp: 55, HeatBaseTemp: 55, HeatUnitsToBloom: 250,
			TypicalBloomMonth: time.March, TypicalBloomDay: 15,
			GDDToMaturity: 5100, GDDToPeak: 6100, GDDWindow: 3500,
			Quality: QualityCurve{BrixMin: 6, BrixMax: 12, Acid0: 3.0, AcidK: 0.0005},
		},
		{
			Key: "citrus_grapefruit", Name: "Grapefruit",
			BaseTemp: 55, HeatBaseTemp: 55, HeatUnitsToBloom: 200,
			TypicalBloomMonth: time.March, TypicalBloomDay: 1,
			GDDToMaturity: 5500, GDDToPeak: 7100, GDDWindow: 4400,
			Quality: QualityCurve{BrixMin: 6, BrixMax: 11, Acid0: 3.2, AcidK: 0.0004},
		},
		{
			Key: "citrus_tangerine", Name: "Tangerine",
			BaseTemp: 55, HeatBaseTemp: 55, HeatUnitsToBloom: 270,
			TypicalBloomMonth: time.March, TypicalBloomDay: 20,
			GDDToMaturity: 4800, GDDToPeak: 5700, GDDWindow: 1800,
			Quality: QualityCurve{BrixMin: 7, BrixMax: 13, Acid0: 2.6, AcidK: 0.0005},
		},
		{
			Key: "apple", Name: "Apple",
			BaseTemp: 43, HeatBaseTemp: 43, MaxTempCap: cap86(),
			ChillHoursRequired: 1000, ChillThreshold: 45, ChillStartMonth: time.November,
			HeatUnitsToBloom: 400, NetworkSpeciesID: 1226,
			TypicalBloomMonth: time.April, TypicalBloomDay: 20,
			GDDToMaturity: 1800, GDDToPeak: 2400, GDDWindow: 1400,
			Quality: QualityCurve{BrixMin: 8, BrixMax: 14},
		},
		{
			Key: "peach", Name: "Peach",
			BaseTemp: 45, HeatBaseTemp: 45, MaxTempCap: cap86(),
			ChillHoursRequired: 650, ChillThreshold: 45, ChillStartMonth: time.November,
			HeatUnitsToBloom: 350, NetworkSpeciesID: 1228,
			TypicalBloomMonth: time.March, TypicalBloomDay: 15,
			GDDToMaturity: 1600, GDDToPeak: 2000, GDDWindow: 1200,
			Quality: QualityCurve{BrixMin: 8, BrixMax: 14},
		},
		{
			Key: "cherry", Name: "Sweet Cherry",
			BaseTemp: 40, HeatBaseTemp: 40,
			ChillHoursRequired: 1000, ChillThreshold: 45, ChillStartMonth: time.November,
			HeatUnitsToBloom: 450, NetworkSpeciesID: 1232,
			TypicalBloomMonth: time.April, TypicalBloomDay: 10,
			GDDToMaturity: 1100, GDDToPeak: 1400, GDDWindow: 600,
			Quality: QualityCurve{BrixMin: 12, BrixMax: 20},
		},
		{
			Key: "blueberry", Name: "Highbush Blueberry",
			BaseTemp: 45, HeatBaseTemp: 45,
			ChillHoursRequired: 800, ChillThreshold: 45, ChillStartMonth: time.November,
			HeatUnitsToBloom: 400, NetworkSpeciesID: 1569,
			TypicalBloomMonth: time.May, TypicalBloomDay: 1,
			GDDToMaturity: 900, GDDToPeak: 1200, GDDWindow: 700,
			Quality: QualityCurve{BrixMin: 8, BrixMax: 14},
		},
		{
			Key: "pear", Name: "Pear",
			BaseTemp: 40, HeatBaseTemp: 40,
			ChillHoursRequired: 900, ChillThreshold: 45, ChillStartMonth: time.November,
			HeatUnitsToBloom: 450, NetworkSpeciesID: 1230,
			TypicalBloomMonth: time.April, TypicalBloomDay: 5,
			GDDToMaturity: 2200, GDDToPeak: 2700, GDDWindow: 1000,
			Quality: QualityCurve{BrixMin: 9, BrixMax: 14},
		},
	}
}

var defaultProfiles = mustProfileRegistry(builtinProfiles())

func mustProfileRegistry(profiles []CropProfile) *ProfileRegistry {
	r, err := NewProfileRegistry(profiles...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultProfiles returns the built-in profile registry.
func DefaultProfiles() *ProfileRegistry {
	return defaultProfiles
}
