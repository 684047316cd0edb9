// internal/units/normalize.go
package units

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
)

// RawMeasurement is what a producer hands to the normalizer. Value and Unit
// may each be absent; Nutrient must always be set.
type RawMeasurement struct {
	Value    *float64 `json:"value,omitempty"`
	Unit     *string  `json:"unit,omitempty"`
	Nutrient Nutrient `json:"nutrient"`
}

// Raw builds a RawMeasurement with both value and unit present.
func Raw(n Nutrient, value float64, unit string) RawMeasurement {
	return RawMeasurement{Value: &value, Unit: &unit, Nutrient: n}
}

// Normalizer converts raw measurements into canonical ones. It holds no
// mutable state.
type Normalizer struct {
	logger *slog.Logger
}

type Option func(*Normalizer)

func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) {
		if l != nil {
			n.logger = l
		}
	}
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{logger: slog.Default()}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize always returns a usable measurement. A non-nil error wraps
// ErrUnknownUnit and only reports that grams were substituted for an
// unrecognised unit token.
//
// Rules, in order:
//   - no unit token at all means milligrams;
//   - energy units keep their value and are labelled grams;
//   - IU amounts are converted per vitamin (A: ×0.3 µg, D: ×0.025 µg,
//     E: ×0.67 mg, anything else unchanged in µg);
//   - an absent value is zero in the unit the rules above would give, except
//     that IU context always yields µg.
func (n *Normalizer) Normalize(raw RawMeasurement) (Measurement, error) {
	token := ""
	if raw.Unit != nil {
		token = strings.ToLower(strings.TrimSpace(*raw.Unit))
	}

	var warn error
	unit := Milligrams
	if token != "" {
		u, ok := ParseUnit(token)
		if !ok {
			warn = fmt.Errorf("%w %q for %s, using %s", ErrUnknownUnit, token, raw.Nutrient, Grams)
			n.logger.Warn("unknown nutrient unit, defaulting to grams",
				"unit", token,
				"nutrient", string(raw.Nutrient),
			)
			u = Grams
		}
		unit = u
	}

	value, present := finite(raw.Value)

	switch unit.Kind() {
	case KindEnergy:
		return Measurement{Value: value, Unit: Grams}, warn
	case KindIU:
		if !present {
			return Zero(Micrograms), warn
		}
		conv, ok := iuFactors[raw.Nutrient]
		if !ok {
			return Measurement{Value: value, Unit: Micrograms}, warn
		}
		return Measurement{Value: value * conv.factor, Unit: conv.unit}, warn
	default:
		return Measurement{Value: value, Unit: unit}, warn
	}
}

// Normalize uses a normalizer bound to the current default logger.
func Normalize(raw RawMeasurement) (Measurement, error) {
	return NewNormalizer().Normalize(raw)
}

// finite treats a missing, NaN or infinite value as absent and returns zero.
func finite(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return 0, false
	}
	return *v, true
}
