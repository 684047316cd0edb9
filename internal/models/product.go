// internal/models/product.go
package models

import (
	"time"

	"mcp-nutrition-scan/internal/nutrition"
)

// ScanMode records how a product entered the system.
type ScanMode string

const (
	ScanModeBarcode ScanMode = "barcode"
	ScanModeAI      ScanMode = "ai_scan"
)

// Product is a scanned item or analysed meal. Its nutrient profile is fixed
// once created; changing it means saving a replacement product.
type Product struct {
	ID              string            `json:"id"`
	Barcode         string            `json:"barcode,omitempty"`
	Name            string            `json:"name"`
	Brand           string            `json:"brand"`
	ScanMode        ScanMode          `json:"scan_mode"`
	Ingredients     []string          `json:"ingredients"`
	IngredientsText string            `json:"ingredients_text,omitempty"`
	Quantity        string            `json:"quantity,omitempty"`
	ServingSize     string            `json:"serving_size,omitempty"`
	NutriscoreGrade string            `json:"nutriscore_grade,omitempty"`
	NovaGroup       int               `json:"nova_group,omitempty"`
	Nutrients       nutrition.Profile `json:"nutrients"`
	AIAnalysis      string            `json:"ai_analysis,omitempty"` // raw analysis text
	AIJunkScore     *float64          `json:"ai_junk_score,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ProductView is a product together with its derived metrics, as returned to
// clients.
type ProductView struct {
	*Product
	Metrics nutrition.Metrics `json:"metrics"`
}
