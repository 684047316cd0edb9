package scan_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcp-nutrition-scan/internal/analysis"
	"mcp-nutrition-scan/internal/foodfacts"
	"mcp-nutrition-scan/internal/models"
	"mcp-nutrition-scan/internal/nutrition"
	"mcp-nutrition-scan/internal/scan"
	"mcp-nutrition-scan/internal/units"
)

const chickenText = `Main Dish: Grilled Chicken
Ingredients:
- Chicken
- Rice
Nutritional Information (per 100g):
- Carbohydrates: 30.0g
- Starch: 5.0g
- Proteins: 25.0g
- Fats: 10.0g
- Seed Oils: 2.0g
- Sugars: 1.0g
- Fiber: 3.0g
- Energy (kcal): 300kcal
- Saturated Fat: 2.0g
- Sodium: 0.5g
Portion Size: 200g
Health Metrics:
- Junk Score: 2
- Added Sugars: 0.5g
- Refined Carbs: 10.0g
- Processed Ingredients: none
Additional Notes: tasty`

var fixedTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService() *scan.Service {
	return scan.NewService(
		scan.WithClock(func() time.Time { return fixedTime }),
		scan.WithIDGenerator(func() string { return "fixed" }),
	)
}

func TestFromAnalysis(t *testing.T) {
	out := newService().FromAnalysis(chickenText)
	require.NoError(t, out.Err)
	require.NotNil(t, out.Record)

	p := out.Product
	assert.Equal(t, "AI_fixed", p.ID)
	assert.Equal(t, "Grilled Chicken", p.Name)
	assert.Equal(t, scan.AIBrand, p.Brand)
	assert.Equal(t, models.ScanModeAI, p.ScanMode)
	assert.Equal(t, "200g", p.Quantity)
	assert.Equal(t, scan.AIServingSize, p.ServingSize)
	assert.Equal(t, []string{"Chicken", "Rice"}, p.Ingredients)
	assert.Equal(t, "Chicken, Rice", p.IngredientsText)
	assert.Equal(t, chickenText, p.AIAnalysis)
	assert.Equal(t, fixedTime, p.CreatedAt)
	require.NotNil(t, p.AIJunkScore)
	assert.Equal(t, 2.0, *p.AIJunkScore)

	assert.Equal(t, units.Measurement{Value: 25, Unit: units.Grams}, p.Nutrients.Measurement(units.Proteins))
	assert.Equal(t, units.Measurement{Value: 10, Unit: units.Grams}, p.Nutrients.Measurement(units.Fat))
	assert.Equal(t, units.Measurement{Value: 0.5, Unit: units.Grams}, p.Nutrients.Measurement(units.Sodium))
	// energy keeps its value under the grams label
	assert.Equal(t, units.Measurement{Value: 300, Unit: units.Grams}, p.Nutrients.Measurement(units.EnergyKcal))
	assert.Equal(t, 10, p.Nutrients.Len())
}

func TestFromAnalysis_RejectedText(t *testing.T) {
	text := strings.Replace(chickenText, "- Sodium: 0.5g\n", "", 1)
	out := newService().FromAnalysis(text)

	require.Error(t, out.Err)
	assert.True(t, errors.Is(out.Err, analysis.ErrRecordIncomplete))
	var incomplete *analysis.IncompleteError
	require.True(t, errors.As(out.Err, &incomplete))
	assert.Equal(t, []analysis.Field{analysis.FieldSodium}, incomplete.Missing)

	assert.Nil(t, out.Record)
	p := out.Product
	require.NotNil(t, p)
	assert.Equal(t, scan.FallbackMealName, p.Name)
	assert.Equal(t, "AI_fixed", p.ID)
	assert.Nil(t, p.AIJunkScore)
	assert.Equal(t, nutrition.Default(), p.Nutrients)
	assert.Equal(t, text, p.AIAnalysis)
}

func TestView(t *testing.T) {
	svc := newService()
	out := svc.FromAnalysis(chickenText)
	require.NoError(t, out.Err)

	view := svc.View(out.Product)
	assert.Same(t, out.Product, view.Product)
	assert.InDelta(t, 65.0, view.Metrics.TotalMacros, 1e-9)
	assert.InDelta(t, 27.0, view.Metrics.NetCarbs, 1e-9)
	assert.InDelta(t, 0.2, view.Metrics.JunkScore, 1e-9)
	assert.Equal(t, nutrition.JunkSourceAI, view.Metrics.JunkScoreSource)
}

func TestView_FallbackProductUsesComputedJunk(t *testing.T) {
	svc := newService()
	out := svc.FromAnalysis("nothing useful here")
	require.Error(t, out.Err)

	m := svc.Metrics(out.Product)
	assert.Equal(t, nutrition.JunkSourceComputed, m.JunkScoreSource)
	assert.Equal(t, 0.0, m.JunkScore)
	assert.Equal(t, 0.0, m.TotalMacros)
}

func TestWithAIJunkScale(t *testing.T) {
	svc := scan.NewService(scan.WithAIJunkScale(4))
	out := svc.FromAnalysis(chickenText)
	require.NoError(t, out.Err)
	assert.InDelta(t, 0.5, svc.Metrics(out.Product).JunkScore, 1e-9)
}

func TestFromFoodFacts(t *testing.T) {
	fp := &foodfacts.Product{
		Code:            "3017620422003",
		ProductNameEn:   "Nutella",
		Brands:          "Ferrero",
		IngredientsText: "Sugar, palm oil",
		Ingredients:     []foodfacts.Ingredient{{Text: "Sugar"}, {Text: "palm oil"}},
		NutriscoreGrade: "e",
		NovaGroup:       4,
		Nutriments: map[string]any{
			"sugars_value":    56.3,
			"sugars_unit":     "g",
			"starch_value":    0.0,
			"starch_unit":     "g",
			"sodium_value":    42.8,
			"sodium_unit":     "mg",
			"vitamin-a_value": 5000.0,
			"vitamin-a_unit":  "IU",
			"fiber_value":     3.4,
			"fiber_unit":      "ounces?",
		},
	}

	p, diags := newService().FromFoodFacts(fp)
	require.Len(t, diags, 1)
	assert.True(t, errors.Is(diags[0], units.ErrUnknownUnit))

	assert.Equal(t, "3017620422003", p.ID)
	assert.Equal(t, "3017620422003", p.Barcode)
	assert.Equal(t, "Nutella", p.Name)
	assert.Equal(t, "Ferrero", p.Brand)
	assert.Equal(t, models.ScanModeBarcode, p.ScanMode)
	assert.Equal(t, []string{"Sugar", "palm oil"}, p.Ingredients)
	assert.Equal(t, 4, p.NovaGroup)

	assert.Equal(t, units.Measurement{Value: 42.8, Unit: units.Milligrams}, p.Nutrients.Measurement(units.Sodium))
	vitA := p.Nutrients.Measurement(units.VitaminA)
	assert.Equal(t, units.Micrograms, vitA.Unit)
	assert.InDelta(t, 1500.0, vitA.Value, 1e-9)
	assert.Equal(t, units.Measurement{Value: 3.4, Unit: units.Grams}, p.Nutrients.Measurement(units.Fiber))
	// absent value and unit: zero milligrams
	assert.Equal(t, units.Measurement{Value: 0, Unit: units.Milligrams}, p.Nutrients.Measurement(units.Iron))

	m := newService().Metrics(p)
	assert.Equal(t, nutrition.JunkSourceComputed, m.JunkScoreSource)
	assert.InDelta(t, 0.563, m.JunkScore, 1e-9)
}
