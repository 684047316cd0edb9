// internal/analysis/record.go
package analysis

// NutritionalFields are per-100g amounts as written by the analysis service:
// grams for masses, kcal for energy.
type NutritionalFields struct {
	Carbohydrates float64 `json:"carbohydrates" yaml:"carbohydrates"`
	Starch        float64 `json:"starch" yaml:"starch"`
	Proteins      float64 `json:"proteins" yaml:"proteins"`
	Fats          float64 `json:"fats" yaml:"fats"`
	SeedOils      float64 `json:"seedOils" yaml:"seedOils"`
	Sugars        float64 `json:"sugars" yaml:"sugars"`
	Fiber         float64 `json:"fiber" yaml:"fiber"`
	EnergyKcal    float64 `json:"energyKcal" yaml:"energyKcal"`
	SaturatedFat  float64 `json:"saturatedFat" yaml:"saturatedFat"`
	Sodium        float64 `json:"sodium" yaml:"sodium"`
}

type HealthMetricsFields struct {
	JunkScore            float64  `json:"junkScore" yaml:"junkScore"`
	AddedSugars          float64  `json:"addedSugars" yaml:"addedSugars"`
	RefinedCarbs         float64  `json:"refinedCarbs" yaml:"refinedCarbs"`
	ProcessedIngredients []string `json:"processedIngredients" yaml:"processedIngredients"`
}

// Record is a complete parse of one analysis text. A Record only exists when
// all mandatory numeric fields were read; see Builder.
type Record struct {
	MainDish        string              `json:"mainDish" yaml:"mainDish"`
	Ingredients     []string            `json:"ingredients" yaml:"ingredients"`
	NutritionalInfo NutritionalFields   `json:"nutritionalInfo" yaml:"nutritionalInfo"`
	PortionSize     string              `json:"portionSize" yaml:"portionSize"`
	HealthMetrics   HealthMetricsFields `json:"healthMetrics" yaml:"healthMetrics"`
	AdditionalNotes string              `json:"additionalNotes" yaml:"additionalNotes"`
}
