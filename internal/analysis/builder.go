// internal/analysis/builder.go
package analysis

// Builder accumulates optional fields and produces a Record only when every
// mandatory field has been set.
type Builder struct {
	mainDish    string
	ingredients []string
	portionSize string
	processed   []string
	notes       string
	values      map[Field]float64
}

func NewBuilder() *Builder {
	return &Builder{values: make(map[Field]float64, fieldCount)}
}

// FromExtraction seeds a builder with everything an extraction found.
func FromExtraction(e *Extraction) *Builder {
	b := NewBuilder().
		SetMainDish(e.MainDish).
		SetIngredients(e.Ingredients).
		SetPortionSize(e.PortionSize).
		SetProcessedIngredients(e.ProcessedIngredients).
		SetAdditionalNotes(e.AdditionalNotes)
	for f, v := range e.values {
		b.SetValue(f, v)
	}
	return b
}

func (b *Builder) SetMainDish(s string) *Builder {
	b.mainDish = s
	return b
}

func (b *Builder) SetIngredients(items []string) *Builder {
	b.ingredients = append([]string(nil), items...)
	return b
}

func (b *Builder) SetPortionSize(s string) *Builder {
	b.portionSize = s
	return b
}

func (b *Builder) SetProcessedIngredients(items []string) *Builder {
	b.processed = append([]string(nil), items...)
	return b
}

func (b *Builder) SetAdditionalNotes(s string) *Builder {
	b.notes = s
	return b
}

// SetValue records a numeric field. Unknown fields are ignored.
func (b *Builder) SetValue(f Field, v float64) *Builder {
	if f >= 0 && f < fieldCount {
		b.values[f] = v
	}
	return b
}

// Build validates completeness once and returns either a full Record or an
// *IncompleteError; nothing partial is ever returned.
func (b *Builder) Build() (*Record, error) {
	var missing []Field
	for _, f := range MandatoryFields() {
		if _, ok := b.values[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}

	v := b.values
	rec := &Record{
		MainDish:    b.mainDish,
		Ingredients: append([]string{}, b.ingredients...),
		NutritionalInfo: NutritionalFields{
			Carbohydrates: v[FieldCarbohydrates],
			Starch:        v[FieldStarch],
			Proteins:      v[FieldProteins],
			Fats:          v[FieldFats],
			SeedOils:      v[FieldSeedOils],
			Sugars:        v[FieldSugars],
			Fiber:         v[FieldFiber],
			EnergyKcal:    v[FieldEnergyKcal],
			SaturatedFat:  v[FieldSaturatedFat],
			Sodium:        v[FieldSodium],
		},
		PortionSize: b.portionSize,
		HealthMetrics: HealthMetricsFields{
			JunkScore:            v[FieldJunkScore],
			AddedSugars:          v[FieldAddedSugars],
			RefinedCarbs:         v[FieldRefinedCarbs],
			ProcessedIngredients: append([]string{}, b.processed...),
		},
		AdditionalNotes: b.notes,
	}
	return rec, nil
}
