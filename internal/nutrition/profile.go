// internal/nutrition/profile.go
package nutrition

import (
	"encoding/json"
	"fmt"

	"mcp-nutrition-scan/internal/units"
)

// Profile maps nutrient identities to canonical measurements. A Profile is
// never mutated after construction; With returns a copy.
type Profile struct {
	values map[units.Nutrient]units.Measurement
}

// NewProfile copies values into a new profile. Unknown nutrients are dropped.
func NewProfile(values map[units.Nutrient]units.Measurement) Profile {
	p := Profile{values: make(map[units.Nutrient]units.Measurement, len(values))}
	for n, m := range values {
		if n.Valid() {
			p.values[n] = m
		}
	}
	return p
}

// defaultNutrients are the nutrients an AI analysis reports.
var defaultNutrients = []units.Nutrient{
	units.Carbohydrates, units.Starch, units.Proteins, units.Fat, units.SeedOils,
	units.Sugars, units.Fiber, units.EnergyKcal, units.SaturatedFat, units.Sodium,
}

// Default is the zeroed profile callers substitute when no record could be
// parsed.
func Default() Profile {
	values := make(map[units.Nutrient]units.Measurement, len(defaultNutrients))
	for _, n := range defaultNutrients {
		values[n] = units.Zero(units.Grams)
	}
	return NewProfile(values)
}

// Build normalizes every raw measurement. The returned errors are the
// normalizer's non-fatal unit diagnostics.
func Build(raws []units.RawMeasurement, n *units.Normalizer) (Profile, []error) {
	if n == nil {
		n = units.NewNormalizer()
	}
	values := make(map[units.Nutrient]units.Measurement, len(raws))
	var diags []error
	for _, raw := range raws {
		m, err := n.Normalize(raw)
		if err != nil {
			diags = append(diags, err)
		}
		values[raw.Nutrient] = m
	}
	return NewProfile(values), diags
}

// Get returns the measurement for a nutrient if the profile holds one.
func (p Profile) Get(n units.Nutrient) (units.Measurement, bool) {
	m, ok := p.values[n]
	return m, ok
}

// Measurement returns the nutrient's measurement, or zero grams when absent.
func (p Profile) Measurement(n units.Nutrient) units.Measurement {
	if m, ok := p.values[n]; ok {
		return m
	}
	return units.Zero(units.Grams)
}

// Grams returns the nutrient amount in grams, zero when absent.
func (p Profile) Grams(n units.Nutrient) float64 {
	return p.Measurement(n).Grams()
}

// With returns a new profile with one measurement replaced.
func (p Profile) With(n units.Nutrient, m units.Measurement) Profile {
	values := make(map[units.Nutrient]units.Measurement, len(p.values)+1)
	for k, v := range p.values {
		values[k] = v
	}
	values[n] = m
	return NewProfile(values)
}

// Nutrients lists the nutrients present, in the fixed display order.
func (p Profile) Nutrients() []units.Nutrient {
	out := make([]units.Nutrient, 0, len(p.values))
	for _, n := range units.AllNutrients() {
		if _, ok := p.values[n]; ok {
			out = append(out, n)
		}
	}
	return out
}

func (p Profile) Len() int {
	return len(p.values)
}

func (p Profile) MarshalJSON() ([]byte, error) {
	if p.values == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.values)
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var values map[units.Nutrient]units.Measurement
	if err := json.Unmarshal(data, &values); err != nil {
		return fmt.Errorf("failed to decode nutrient profile: %w", err)
	}
	for n := range values {
		if !n.Valid() {
			return fmt.Errorf("unknown nutrient %q in profile", n)
		}
	}
	*p = NewProfile(values)
	return nil
}

// MarshalYAML renders the profile as an ordered list for the CLI.
func (p Profile) MarshalYAML() (interface{}, error) {
	type entry struct {
		Nutrient units.Nutrient `yaml:"nutrient"`
		Value    float64        `yaml:"value"`
		Unit     units.Unit     `yaml:"unit"`
	}
	keys := p.Nutrients()
	out := make([]entry, 0, len(keys))
	for _, n := range keys {
		m := p.values[n]
		out = append(out, entry{Nutrient: n, Value: m.Value, Unit: m.Unit})
	}
	return out, nil
}
