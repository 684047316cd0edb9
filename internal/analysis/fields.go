// internal/analysis/fields.go
package analysis

import "fmt"

// Field is one of the mandatory numeric values of a nutrition record.
type Field int

const (
	FieldCarbohydrates Field = iota
	FieldStarch
	FieldProteins
	FieldFats
	FieldSeedOils
	FieldSugars
	FieldFiber
	FieldEnergyKcal
	FieldSaturatedFat
	FieldSodium
	FieldJunkScore
	FieldAddedSugars
	FieldRefinedCarbs

	fieldCount
)

type fieldInfo struct {
	name  string
	label string
}

var fieldTable = [fieldCount]fieldInfo{
	FieldCarbohydrates: {name: "carbohydrates", label: "Carbohydrates:"},
	FieldStarch:        {name: "starch", label: "Starch:"},
	FieldProteins:      {name: "proteins", label: "Proteins:"},
	FieldFats:          {name: "fats", label: "Fats:"},
	FieldSeedOils:      {name: "seedOils", label: "Seed Oils:"},
	FieldSugars:        {name: "sugars", label: "Sugars:"},
	FieldFiber:         {name: "fiber", label: "Fiber:"},
	FieldEnergyKcal:    {name: "energyKcal", label: "Energy (kcal):"},
	FieldSaturatedFat:  {name: "saturatedFat", label: "Saturated Fat:"},
	FieldSodium:        {name: "sodium", label: "Sodium:"},
	FieldJunkScore:     {name: "junkScore", label: "Junk Score:"},
	FieldAddedSugars:   {name: "addedSugars", label: "Added Sugars:"},
	FieldRefinedCarbs:  {name: "refinedCarbs", label: "Refined Carbs:"},
}

func (f Field) String() string {
	if f < 0 || f >= fieldCount {
		return fmt.Sprintf("field(%d)", int(f))
	}
	return fieldTable[f].name
}

// Label is the literal text that precedes the value in the analysis text.
func (f Field) Label() string {
	if f < 0 || f >= fieldCount {
		return ""
	}
	return fieldTable[f].label
}

// NutritionalFieldList is read from the "Nutritional Information" block.
func NutritionalFieldList() []Field {
	return []Field{
		FieldCarbohydrates, FieldStarch, FieldProteins, FieldFats, FieldSeedOils,
		FieldSugars, FieldFiber, FieldEnergyKcal, FieldSaturatedFat, FieldSodium,
	}
}

// HealthFields are read from the "Health Metrics" block.
func HealthFields() []Field {
	return []Field{FieldJunkScore, FieldAddedSugars, FieldRefinedCarbs}
}

// MandatoryFields returns all thirteen fields a record cannot be built without.
func MandatoryFields() []Field {
	return append(NutritionalFieldList(), HealthFields()...)
}
