// internal/analysis/scanner_test.go
package analysis

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanSections(t *testing.T) {
	text := "Sure! Calories: 999\n\n" +
		"Main Dish:   Caesar Salad  \n" +
		"Ingredients:\n" +
		"  - Romaine\n" +
		"  croutons without a marker\n" +
		"Portion Size:\n" +
		"Health Metrics:\n" +
		"Additional Notes:\r\n" +
		"line one\r\n" +
		"\r\n" +
		"line two"

	s := ScanSections(text)

	assert.Equal(t, "Caesar Salad", s.MainDish())
	assert.Equal(t, "", s.PortionSize())
	assert.True(t, s.Has(SectionPortion))
	assert.Empty(t, s.Content(SectionPortion))
	assert.False(t, s.Has(SectionNutritional))
	assert.Equal(t, []string{"- Romaine", "croutons without a marker"}, s.Content(SectionIngredients))
	assert.Equal(t, []string{"line one", "line two"}, s.Content(SectionNotes))
	assert.Empty(t, s.Content(SectionNone), "lines before the first header are discarded")

	idx, ok := s.HeaderLine(SectionIngredients)
	require.True(t, ok)
	assert.Equal(t, "Ingredients:", s.Lines[idx])

	missing := s.Missing()
	require.Len(t, missing, 1)
	assert.True(t, errors.Is(missing[0], ErrSectionNotFound))
	assert.Contains(t, missing[0].Error(), "nutritional information")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		line    string
		section Section
		rest    string
		ok      bool
	}{
		{"Main Dish: Tacos", SectionMainDish, "Tacos", true},
		{"Nutritional Information (per 100g):", SectionNutritional, "", true},
		{"Nutritional Information", SectionNutritional, "", true},
		{"Portion Size: 1 bowl", SectionPortion, "1 bowl", true},
		{"Health Metrics:", SectionHealth, "", true},
		{"Additional Notes: spicy", SectionNotes, "spicy", true},
		{"Ingredients: beans, rice", SectionIngredients, "beans, rice", true},
		{"- Main Dish: not a header", SectionNone, "", false},
		{"main dish: lowercase", SectionNone, "", false},
	}

	for _, tc := range tests {
		t.Run(tc.line, func(t *testing.T) {
			section, rest, ok := classify(tc.line)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.section, section)
			assert.Equal(t, tc.rest, rest)
		})
	}
}

func TestNumberAfter(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{" 300kcal", 300, true},
		{" 0.5g", 0.5, true},
		{" 12.", 12, true},
		{" about 7 (0-10)", 7, true},
		{" n/a", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := numberAfter(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestExtractNumbers_FirstMatchingLineWins(t *testing.T) {
	values := make(map[Field]float64)
	extractNumbers([]string{
		"- Energy (kcal): ~",
		"- Energy (kcal): 250kcal",
		"- Proteins: 10g",
		"- Proteins: 99g",
	}, NutritionalFieldList(), values)

	_, hasEnergy := values[FieldEnergyKcal]
	assert.False(t, hasEnergy, "a label line without digits leaves the field absent")
	assert.Equal(t, 10.0, values[FieldProteins])
}

func TestFieldLists(t *testing.T) {
	nutritional := NutritionalFieldList()
	health := HealthFields()
	require.Len(t, nutritional, 10)
	require.Len(t, health, 3)

	all := MandatoryFields()
	assert.Len(t, all, int(fieldCount))
	assert.Equal(t, nutritional, all[:len(nutritional)])
	assert.Equal(t, health, all[len(nutritional):])

	seen := make(map[Field]bool)
	for _, f := range all {
		assert.False(t, seen[f], "duplicate field %s", f)
		seen[f] = true
		assert.NotEmpty(t, f.Label())
	}
}
