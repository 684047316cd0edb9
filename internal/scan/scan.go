// internal/scan/scan.go
package scan

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"mcp-nutrition-scan/internal/analysis"
	"mcp-nutrition-scan/internal/foodfacts"
	"mcp-nutrition-scan/internal/models"
	"mcp-nutrition-scan/internal/nutrition"
	"mcp-nutrition-scan/internal/units"
)

const (
	AIBrand          = "AI Analysis"
	AIServingSize    = "100g"
	FallbackMealName = "AI Analyzed Meal"
)

// Service turns analysis text and food-database records into products.
type Service struct {
	parser     *analysis.Parser
	normalizer *units.Normalizer
	calc       nutrition.Calculator
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAIJunkScale sets the scale AI junk scores are declared on.
func WithAIJunkScale(scale float64) Option {
	return func(s *Service) { s.calc.AIJunkScale = scale }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(opts ...Option) *Service {
	s := &Service{
		logger: slog.Default(),
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	s.parser = analysis.NewParser(analysis.WithLogger(s.logger))
	s.normalizer = units.NewNormalizer(units.WithLogger(s.logger))
	return s
}

// Outcome is the result of turning analysis text into a product. Product is
// always set. Record is nil when Err reports why the text was rejected.
type Outcome struct {
	Product     *models.Product
	Record      *analysis.Record
	Err         error
	Diagnostics []error
}

// FromAnalysis builds a product from AI analysis text. A rejected text still
// yields a product, named FallbackMealName and carrying the default profile.
func (s *Service) FromAnalysis(text string) *Outcome {
	record, diags, err := s.parser.ParseDetailed(text)

	p := &models.Product{
		ID:          "AI_" + s.newID(),
		Brand:       AIBrand,
		ScanMode:    models.ScanModeAI,
		ServingSize: AIServingSize,
		AIAnalysis:  text,
		CreatedAt:   s.now().UTC(),
	}

	if err != nil {
		p.Name = FallbackMealName
		p.Ingredients = []string{}
		p.Nutrients = nutrition.Default()
		return &Outcome{Product: p, Err: err, Diagnostics: diags}
	}

	profile, unitDiags := nutrition.Build(RecordMeasurements(record), s.normalizer)
	junk := record.HealthMetrics.JunkScore

	p.Name = record.MainDish
	if p.Name == "" {
		p.Name = FallbackMealName
	}
	p.Quantity = record.PortionSize
	p.Ingredients = append([]string{}, record.Ingredients...)
	p.IngredientsText = strings.Join(record.Ingredients, ", ")
	p.Nutrients = profile
	p.AIJunkScore = &junk

	return &Outcome{
		Product:     p,
		Record:      record,
		Diagnostics: append(diags, unitDiags...),
	}
}

// RecordMeasurements lists the per-100g amounts of a record as raw
// measurements: grams for masses (sodium included) and kcal for energy.
func RecordMeasurements(r *analysis.Record) []units.RawMeasurement {
	info := r.NutritionalInfo
	g := string(units.Grams)
	return []units.RawMeasurement{
		units.Raw(units.Carbohydrates, info.Carbohydrates, g),
		units.Raw(units.Starch, info.Starch, g),
		units.Raw(units.Proteins, info.Proteins, g),
		units.Raw(units.Fat, info.Fats, g),
		units.Raw(units.SeedOils, info.SeedOils, g),
		units.Raw(units.Sugars, info.Sugars, g),
		units.Raw(units.Fiber, info.Fiber, g),
		units.Raw(units.EnergyKcal, info.EnergyKcal, string(units.Kilocalorie)),
		units.Raw(units.SaturatedFat, info.SaturatedFat, g),
		units.Raw(units.Sodium, info.Sodium, g),
	}
}

// FromFoodFacts builds a barcode product from an Open Food Facts record.
// The returned errors are unit diagnostics from normalization.
func (s *Service) FromFoodFacts(fp *foodfacts.Product) (*models.Product, []error) {
	profile, diags := nutrition.Build(fp.Measurements(), s.normalizer)

	barcode := fp.Barcode()
	id := barcode
	if id == "" {
		id = s.newID()
	}

	return &models.Product{
		ID:              id,
		Barcode:         barcode,
		Name:            fp.Name(),
		Brand:           fp.Brands,
		ScanMode:        models.ScanModeBarcode,
		Ingredients:     fp.IngredientNames(),
		IngredientsText: fp.IngredientsText,
		Quantity:        fp.Quantity,
		ServingSize:     fp.ServingSize,
		NutriscoreGrade: fp.NutriscoreGrade,
		NovaGroup:       fp.NovaGroup,
		Nutrients:       profile,
		CreatedAt:       s.now().UTC(),
	}, diags
}

func (s *Service) Metrics(p *models.Product) nutrition.Metrics {
	return s.calc.Compute(p.Nutrients, p.AIJunkScore)
}

// View pairs a product with its derived metrics.
func (s *Service) View(p *models.Product) models.ProductView {
	return models.ProductView{Product: p, Metrics: s.Metrics(p)}
}
