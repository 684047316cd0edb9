// internal/units/units.go
package units

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is a canonical unit symbol.
type Unit string

const (
	Grams       Unit = "g"
	Milligrams  Unit = "mg"
	Micrograms  Unit = "µg"
	Kilograms   Unit = "kg"
	Ounces      Unit = "oz"
	Pounds      Unit = "lb"
	Kilocalorie Unit = "kcal"
	Kilojoule   Unit = "kJ"
	// InternationalUnit is a dose unit whose mass depends on the nutrient.
	InternationalUnit Unit = "IU"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindMass
	KindEnergy
	KindIU
)

// gramsPer is the size of one unit expressed in grams.
var gramsPer = map[Unit]float64{
	Grams:      1,
	Milligrams: 1e-3,
	Micrograms: 1e-6,
	Kilograms:  1e3,
	Ounces:     28.349523125,
	Pounds:     453.59237,
}

var aliases = map[string]Unit{
	"g": Grams, "gram": Grams, "grams": Grams,
	"mg": Milligrams, "milligram": Milligrams, "milligrams": Milligrams,
	"µg": Micrograms, "μg": Micrograms, "ug": Micrograms, "mcg": Micrograms,
	"microgram": Micrograms, "micrograms": Micrograms,
	"kg": Kilograms, "kilogram": Kilograms, "kilograms": Kilograms,
	"oz": Ounces, "ounce": Ounces, "ounces": Ounces,
	"lb": Pounds, "lbs": Pounds, "pound": Pounds, "pounds": Pounds,
	"kcal": Kilocalorie, "kilocalorie": Kilocalorie, "kilocalories": Kilocalorie,
	"kj": Kilojoule, "kilojoule": Kilojoule, "kilojoules": Kilojoule,
	"iu": InternationalUnit,
}

// ParseUnit maps a raw unit token (any case, surrounding space allowed) to its
// canonical unit.
func ParseUnit(token string) (Unit, bool) {
	u, ok := aliases[strings.ToLower(strings.TrimSpace(token))]
	return u, ok
}

func (u Unit) Kind() Kind {
	switch u {
	case Kilocalorie, Kilojoule:
		return KindEnergy
	case InternationalUnit:
		return KindIU
	}
	if _, ok := gramsPer[u]; ok {
		return KindMass
	}
	return KindUnknown
}

// Measurement is the canonical (value, unit) container shared by every
// nutrient once normalized.
type Measurement struct {
	Value float64 `json:"value" yaml:"value"`
	Unit  Unit    `json:"unit" yaml:"unit"`
}

// Zero returns a zero-valued measurement in u.
func Zero(u Unit) Measurement {
	return Measurement{Unit: u}
}

// Convert re-expresses a mass measurement in another mass unit. Converting to
// the measurement's own unit returns it unchanged.
func (m Measurement) Convert(to Unit) (Measurement, error) {
	if m.Unit == to {
		return m, nil
	}
	from, okFrom := gramsPer[m.Unit]
	target, okTo := gramsPer[to]
	if !okFrom || !okTo {
		return Measurement{}, fmt.Errorf("%w: %s to %s", ErrIncompatibleUnits, m.Unit, to)
	}
	return Measurement{Value: m.Value * from / target, Unit: to}, nil
}

// Grams returns the value in grams. Non-mass measurements return their raw
// value, which matches the energy-as-grams convention used by Normalize.
func (m Measurement) Grams() float64 {
	if f, ok := gramsPer[m.Unit]; ok {
		return m.Value * f
	}
	return m.Value
}

func (m Measurement) String() string {
	return strconv.FormatFloat(m.Value, 'f', -1, 64) + " " + string(m.Unit)
}
