// internal/units/nutrients.go
package units

// Nutrient identifies what a measurement is of. Values follow the Open Food
// Facts nutriment keys.
type Nutrient string

const (
	Proteins      Nutrient = "proteins"
	Carbohydrates Nutrient = "carbohydrates"
	Fat           Nutrient = "fat"
	SaturatedFat  Nutrient = "saturated-fat"
	TransFat      Nutrient = "trans-fat"
	Sugars        Nutrient = "sugars"
	Fiber         Nutrient = "fiber"
	Starch        Nutrient = "starch"
	SeedOils      Nutrient = "seed_oils"
	Cholesterol   Nutrient = "cholesterol"
	Sodium        Nutrient = "sodium"
	Calcium       Nutrient = "calcium"
	Phosphorus    Nutrient = "phosphorus"
	Magnesium     Nutrient = "magnesium"
	Potassium     Nutrient = "potassium"
	Iron          Nutrient = "iron"
	Zinc          Nutrient = "zinc"
	Copper        Nutrient = "copper"
	Selenium      Nutrient = "selenium"
	Manganese     Nutrient = "manganese"
	Iodine        Nutrient = "iodine"
	VitaminA      Nutrient = "vitamin-a"
	VitaminC      Nutrient = "vitamin-c"
	VitaminD      Nutrient = "vitamin-d"
	VitaminE      Nutrient = "vitamin-e"
	VitaminK      Nutrient = "vitamin-k"
	VitaminB1     Nutrient = "vitamin-b1"
	VitaminB2     Nutrient = "vitamin-b2"
	VitaminB3     Nutrient = "vitamin-b3"
	VitaminB5     Nutrient = "vitamin-b5"
	VitaminB6     Nutrient = "vitamin-b6"
	VitaminB9     Nutrient = "vitamin-b9"
	VitaminB12    Nutrient = "vitamin-b12"
	EnergyKcal    Nutrient = "energy-kcal"
	EnergyKj      Nutrient = "energy-kj"
)

var allNutrients = []Nutrient{
	Proteins, Carbohydrates, Fat, SaturatedFat, TransFat, Sugars, Fiber, Starch,
	SeedOils, Cholesterol, Sodium, Calcium, Phosphorus, Magnesium, Potassium,
	Iron, Zinc, Copper, Selenium, Manganese, Iodine,
	VitaminA, VitaminC, VitaminD, VitaminE, VitaminK,
	VitaminB1, VitaminB2, VitaminB3, VitaminB5, VitaminB6, VitaminB9, VitaminB12,
	EnergyKcal, EnergyKj,
}

var knownNutrients = func() map[Nutrient]bool {
	m := make(map[Nutrient]bool, len(allNutrients))
	for _, n := range allNutrients {
		m[n] = true
	}
	return m
}()

// AllNutrients returns the fixed identity set in display order.
func AllNutrients() []Nutrient {
	return append([]Nutrient(nil), allNutrients...)
}

func (n Nutrient) Valid() bool {
	return knownNutrients[n]
}

// iuFactor converts an IU amount of a vitamin to a mass.
type iuFactor struct {
	factor float64
	unit   Unit
}

var iuFactors = map[Nutrient]iuFactor{
	VitaminA: {factor: 0.3, unit: Micrograms},
	VitaminD: {factor: 0.025, unit: Micrograms},
	VitaminE: {factor: 0.67, unit: Milligrams},
}
