// internal/nutrition/metrics.go
package nutrition

import (
	"math"

	"mcp-nutrition-scan/internal/units"
)

// DefaultAIJunkScale is the scale the analysis prompt asks the model to use
// for its junk score (0 healthiest, 10 worst).
const DefaultAIJunkScale = 10.0

type JunkSource string

const (
	JunkSourceAI       JunkSource = "ai"
	JunkSourceComputed JunkSource = "computed"
)

// Metrics are derived on demand from a profile and never stored on their own.
// Every percentage is in [0, 100]; JunkScore is on the canonical 0–1 scale.
type Metrics struct {
	CarbsPercentage    float64    `json:"carbsPercentage" yaml:"carbsPercentage"`
	ProteinPercentage  float64    `json:"proteinPercentage" yaml:"proteinPercentage"`
	FatsPercentage     float64    `json:"fatsPercentage" yaml:"fatsPercentage"`
	NetCarbs           float64    `json:"netCarbs" yaml:"netCarbs"`
	NetCarbsPercentage float64    `json:"netCarbsPercentage" yaml:"netCarbsPercentage"`
	TotalMacros        float64    `json:"totalMacros" yaml:"totalMacros"`
	JunkScore          float64    `json:"junkScore" yaml:"junkScore"`
	JunkScoreSource    JunkSource `json:"junkScoreSource" yaml:"junkScoreSource"`
}

// Calculator computes Metrics. AIJunkScale is the scale an AI-provided junk
// score is declared on; zero means DefaultAIJunkScale.
type Calculator struct {
	AIJunkScale float64
}

// Compute derives all metrics. aiJunkScore is the analysis service's score
// when one is available.
func (c Calculator) Compute(p Profile, aiJunkScore *float64) Metrics {
	carbs, protein, fat := MacroPercentages(p)
	score, source := c.JunkScore(p, aiJunkScore)
	return Metrics{
		CarbsPercentage:    carbs,
		ProteinPercentage:  protein,
		FatsPercentage:     fat,
		NetCarbs:           NetCarbs(p),
		NetCarbsPercentage: NetCarbsPercentage(p),
		TotalMacros:        TotalMacros(p),
		JunkScore:          score,
		JunkScoreSource:    source,
	}
}

// Compute uses the default AI junk-score scale.
func Compute(p Profile, aiJunkScore *float64) Metrics {
	return Calculator{}.Compute(p, aiJunkScore)
}

// NetCarbs is carbohydrates minus fiber, floored at zero.
func NetCarbs(p Profile) float64 {
	return math.Max(0, p.Grams(units.Carbohydrates)-p.Grams(units.Fiber))
}

// TotalMacros is carbohydrates + proteins + fat in grams. Display code must
// treat zero as "nothing to show" rather than divide by it.
func TotalMacros(p Profile) float64 {
	return p.Grams(units.Carbohydrates) + p.Grams(units.Proteins) + p.Grams(units.Fat)
}

// MacroPercentages splits the macro total into carbs, protein and fat shares.
func MacroPercentages(p Profile) (carbs, protein, fat float64) {
	c, pr, f := p.Grams(units.Carbohydrates), p.Grams(units.Proteins), p.Grams(units.Fat)
	total := c + pr + f
	return percentage(c, total), percentage(pr, total), percentage(f, total)
}

// NetCarbsPercentage is the net-carb share of netCarbs + protein + fat.
func NetCarbsPercentage(p Profile) float64 {
	net := NetCarbs(p)
	return percentage(net, net+p.Grams(units.Proteins)+p.Grams(units.Fat))
}

// JunkScore prefers the AI score, rescaled from AIJunkScale to 0–1; without one
// it falls back to min(1, (sugars + starch) / 100).
func (c Calculator) JunkScore(p Profile, aiJunkScore *float64) (float64, JunkSource) {
	if aiJunkScore != nil && !math.IsNaN(*aiJunkScore) {
		scale := c.AIJunkScale
		if scale <= 0 {
			scale = DefaultAIJunkScale
		}
		return clamp01(*aiJunkScore / scale), JunkSourceAI
	}
	return clamp01((p.Grams(units.Sugars) + p.Grams(units.Starch)) / 100), JunkSourceComputed
}

func percentage(x, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * x / total
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
