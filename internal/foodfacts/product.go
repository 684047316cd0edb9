// internal/foodfacts/product.go
package foodfacts

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"mcp-nutrition-scan/internal/units"
)

// Response is the envelope of GET /api/v0/product/{barcode}.json.
type Response struct {
	Code          string  `json:"code"`
	Status        int     `json:"status"`
	StatusVerbose string  `json:"status_verbose"`
	Product       Product `json:"product"`
}

// Product is the subset of an Open Food Facts product this service reads.
type Product struct {
	ID              string         `json:"_id"`
	Code            string         `json:"code"`
	ProductName     string         `json:"product_name"`
	ProductNameEn   string         `json:"product_name_en"`
	GenericName     string         `json:"generic_name"`
	Brands          string         `json:"brands"`
	IngredientsText string         `json:"ingredients_text"`
	Ingredients     []Ingredient   `json:"ingredients"`
	NutriscoreGrade string         `json:"nutriscore_grade"`
	NovaGroup       int            `json:"nova_group"`
	Quantity        string         `json:"quantity"`
	ServingSize     string         `json:"serving_size"`
	Nutriments      map[string]any `json:"nutriments"`
}

type Ingredient struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Vegan           string   `json:"vegan"`
	Vegetarian      string   `json:"vegetarian"`
	PercentEstimate *float64 `json:"percent_estimate"`
}

// Name returns the best available product name using the fallback order:
// product_name → product_name_en → generic_name → "".
func (p *Product) Name() string {
	if p.ProductName != "" {
		return p.ProductName
	}
	if p.ProductNameEn != "" {
		return p.ProductNameEn
	}
	return p.GenericName
}

// Barcode prefers the code field and falls back to the document id.
func (p *Product) Barcode() string {
	if p.Code != "" {
		return p.Code
	}
	return p.ID
}

// IngredientNames returns the ingredient texts in listed order.
func (p *Product) IngredientNames() []string {
	names := make([]string, 0, len(p.Ingredients))
	for _, ing := range p.Ingredients {
		if t := strings.TrimSpace(ing.Text); t != "" {
			names = append(names, t)
		}
	}
	return names
}

// Measurements maps every known nutrient's "<key>_value" / "<key>_unit" pair
// to a RawMeasurement. Missing halves stay nil for the normalizer to default.
func (p *Product) Measurements() []units.RawMeasurement {
	out := make([]units.RawMeasurement, 0, len(units.AllNutrients()))
	for _, n := range units.AllNutrients() {
		raw := units.RawMeasurement{Nutrient: n}
		if v, ok := extractFloat(p.Nutriments, string(n)+"_value"); ok {
			raw.Value = &v
		}
		if u, ok := extractString(p.Nutriments, string(n)+"_unit"); ok {
			raw.Unit = &u
		}
		out = append(out, raw)
	}
	return out
}

// extractFloat coerces a nutriments map value to float64.
func extractFloat(m map[string]any, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

func extractString(m map[string]any, key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}
