// internal/server/tools.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ThinkInAIXYZ/go-mcp/protocol"

	"mcp-nutrition-scan/internal/analysis"
	"mcp-nutrition-scan/internal/models"
	"mcp-nutrition-scan/internal/units"
)

var errInvalidParams = errors.New("invalid parameters")

type toolHandler func(context.Context, *protocol.CallToolRequest) (*protocol.CallToolResult, error)

type AnalyzeMealTextParams struct {
	Text string `json:"text" description:"Analysis text in the six-section meal format"`
	Save bool   `json:"save,omitempty" description:"Store the resulting product in the Scanned list"`
}

type AnalyzeMealImageParams struct {
	ImageBase64 string `json:"image_base64" description:"Base64 JPEG of the meal, optionally as a data URL"`
	Save        bool   `json:"save,omitempty" description:"Store the resulting product in the Scanned list"`
}

type LookupBarcodeParams struct {
	Barcode string `json:"barcode" description:"EAN/UPC barcode"`
	Save    bool   `json:"save,omitempty" description:"Store the product in the Scanned list"`
}

type NormalizeMeasurementParams struct {
	Value    *float64 `json:"value,omitempty" description:"Amount, absent means zero"`
	Unit     *string  `json:"unit,omitempty" description:"Unit token such as g, mg, µg, kcal or IU"`
	Nutrient string   `json:"nutrient" description:"Nutrient key, e.g. vitamin-a or sodium"`
}

type GetProductParams struct {
	ID string `json:"id" description:"Product ID"`
}

type SearchProductsParams struct {
	Query string `json:"query" description:"Words to match against product names"`
	Limit int    `json:"limit,omitempty" description:"Maximum number of products to return"`
}

type GetListProductsParams struct {
	ListID    string `json:"list_id,omitempty" description:"List ID, defaults to the Scanned list"`
	Sort      string `json:"sort,omitempty" description:"date or name"`
	Direction string `json:"direction,omitempty" description:"asc or desc"`
	Filter    string `json:"filter,omitempty" description:"barcode or ai_scan"`
	Limit     int    `json:"limit,omitempty" description:"Maximum number of products to return"`
}

type CreateListParams struct {
	Name string `json:"name" description:"List name"`
}

type ListMembershipParams struct {
	ListID    string `json:"list_id" description:"List ID"`
	ProductID string `json:"product_id" description:"Product ID"`
}

// AnalysisResult is returned by both meal analysis tools.
type AnalysisResult struct {
	Product       models.ProductView `json:"product"`
	Record        *analysis.Record   `json:"record,omitempty"`
	Error         string             `json:"error,omitempty"`
	MissingFields []string           `json:"missing_fields,omitempty"`
	Diagnostics   []string           `json:"diagnostics,omitempty"`
	Saved         bool               `json:"saved"`
}

type BarcodeResult struct {
	Product     models.ProductView `json:"product"`
	Diagnostics []string           `json:"diagnostics,omitempty"`
	Saved       bool               `json:"saved"`
}

type NormalizeResult struct {
	Nutrient    units.Nutrient    `json:"nutrient"`
	Measurement units.Measurement `json:"measurement"`
	Warning     string            `json:"warning,omitempty"`
}

// extractParams decodes the request arguments into target.
func extractParams(req *protocol.CallToolRequest, target interface{}) error {
	jsonBytes, err := json.Marshal(req.Arguments)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	if err := json.Unmarshal(jsonBytes, target); err != nil {
		return fmt.Errorf("%w: %v", errInvalidParams, err)
	}

	return nil
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errInvalidParams, fmt.Sprintf(format, args...))
}

func (s *NutritionServer) handleAnalyzeMealText(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params AnalyzeMealTextParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Text) == "" {
		return nil, invalid("text is required")
	}

	result, err := s.analyze(params.Text, params.Save)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(result)
}

func (s *NutritionServer) handleAnalyzeMealImage(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params AnalyzeMealImageParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.ImageBase64 == "" {
		return nil, invalid("image_base64 is required")
	}

	text, err := s.samplingClient.AnalyzeMealImage(ctx, params.ImageBase64)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze meal image: %w", err)
	}

	result, err := s.analyze(text, params.Save)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(result)
}

// analyze turns analysis text into a product. A rejected text is not a tool
// error: the fallback product is returned alongside the reason.
func (s *NutritionServer) analyze(text string, save bool) (*AnalysisResult, error) {
	out := s.scanner.FromAnalysis(text)

	result := &AnalysisResult{
		Record:      out.Record,
		Diagnostics: errorStrings(out.Diagnostics),
	}
	if out.Err != nil {
		result.Error = out.Err.Error()
		var incomplete *analysis.IncompleteError
		if errors.As(out.Err, &incomplete) {
			for _, f := range incomplete.Missing {
				result.MissingFields = append(result.MissingFields, f.String())
			}
		}
		s.logger.Info("analysis text rejected", "product_id", out.Product.ID, "error", out.Err)
	}

	if save {
		if err := s.storage.SaveScanned(out.Product); err != nil {
			return nil, fmt.Errorf("failed to save product: %w", err)
		}
		result.Saved = true
	}

	result.Product = s.scanner.View(out.Product)
	return result, nil
}

func (s *NutritionServer) handleLookupBarcode(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params LookupBarcodeParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Barcode) == "" {
		return nil, invalid("barcode is required")
	}

	fp, err := s.foodFacts.FetchProduct(ctx, params.Barcode)
	if err != nil {
		return nil, fmt.Errorf("failed to look up barcode: %w", err)
	}

	product, diags := s.scanner.FromFoodFacts(fp)
	result := BarcodeResult{Diagnostics: errorStrings(diags)}

	if params.Save {
		if err := s.storage.SaveScanned(product); err != nil {
			return nil, fmt.Errorf("failed to save product: %w", err)
		}
		result.Saved = true
	}

	result.Product = s.scanner.View(product)
	return s.createJSONResponse(result)
}

func (s *NutritionServer) handleNormalizeMeasurement(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params NormalizeMeasurementParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	nutrient := units.Nutrient(strings.ToLower(strings.TrimSpace(params.Nutrient)))
	if !nutrient.Valid() {
		return nil, invalid("unknown nutrient %q", params.Nutrient)
	}

	m, warn := s.normalizer.Normalize(units.RawMeasurement{
		Value:    params.Value,
		Unit:     params.Unit,
		Nutrient: nutrient,
	})

	result := NormalizeResult{Nutrient: nutrient, Measurement: m}
	if warn != nil {
		result.Warning = warn.Error()
	}
	return s.createJSONResponse(result)
}

func (s *NutritionServer) handleGetProduct(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetProductParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.ID == "" {
		return nil, invalid("id is required")
	}

	p, err := s.storage.GetProduct(params.ID)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.scanner.View(p))
}

func (s *NutritionServer) handleSearchProducts(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params SearchProductsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Query) == "" {
		return nil, invalid("query is required")
	}
	if params.Limit <= 0 {
		params.Limit = 20
	}

	products, err := s.storage.SearchProducts(params.Query, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return s.createJSONResponse(s.views(products))
}

func (s *NutritionServer) handleGetListProducts(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params GetListProductsParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}

	q := models.ListQuery{
		ListID:    params.ListID,
		Sort:      models.SortOption(params.Sort),
		Direction: models.SortDirection(params.Direction),
		ScanMode:  models.ScanMode(params.Filter),
		Limit:     params.Limit,
	}
	switch q.Sort {
	case "", models.SortByDate, models.SortByName:
	default:
		return nil, invalid("sort must be %q or %q", models.SortByDate, models.SortByName)
	}
	switch q.Direction {
	case "", models.SortAscending, models.SortDescending:
	default:
		return nil, invalid("direction must be %q or %q", models.SortAscending, models.SortDescending)
	}
	switch q.ScanMode {
	case "", models.ScanModeBarcode, models.ScanModeAI:
	default:
		return nil, invalid("filter must be %q or %q", models.ScanModeBarcode, models.ScanModeAI)
	}

	if q.ListID == "" {
		scanned, err := s.storage.EnsureScannedList()
		if err != nil {
			return nil, err
		}
		q.ListID = scanned.ID
	}

	products, err := s.storage.ListProducts(q)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(s.views(products))
}

func (s *NutritionServer) handleCreateList(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params CreateListParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Name) == "" {
		return nil, invalid("name is required")
	}

	l, err := s.storage.CreateList(params.Name)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(l)
}

func (s *NutritionServer) handleAddToList(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ListMembershipParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.ListID == "" || params.ProductID == "" {
		return nil, invalid("list_id and product_id are required")
	}

	added, err := s.storage.AddToList(params.ListID, params.ProductID)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(map[string]bool{"added": added})
}

func (s *NutritionServer) handleRemoveFromList(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	var params ListMembershipParams
	if err := extractParams(req, &params); err != nil {
		return nil, err
	}
	if params.ListID == "" || params.ProductID == "" {
		return nil, invalid("list_id and product_id are required")
	}

	removed, err := s.storage.RemoveFromList(params.ListID, params.ProductID)
	if err != nil {
		return nil, err
	}
	return s.createJSONResponse(map[string]bool{"removed": removed})
}

func (s *NutritionServer) views(products []*models.Product) []models.ProductView {
	out := make([]models.ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, s.scanner.View(p))
	}
	return out
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Error())
	}
	return out
}

func (s *NutritionServer) handleGetLists(ctx context.Context, req *protocol.CallToolRequest) (*protocol.CallToolResult, error) {
	lists, err := s.storage.Lists()
	if err != nil {
		return nil, err
	}
	if lists == nil {
		lists = []*models.ProductList{}
	}
	return s.createJSONResponse(lists)
}

type toolDef struct {
	name        string
	description string
	params      interface{}
	handler     toolHandler
}

func (s *NutritionServer) toolDefs() []toolDef {
	return []toolDef{
		{"analyze_meal_text", "Parse a six-section meal analysis into a nutrition record and product",
			AnalyzeMealTextParams{}, s.handleAnalyzeMealText},
		{"analyze_meal_image", "Analyze a meal photo with the vision model and parse the result",
			AnalyzeMealImageParams{}, s.handleAnalyzeMealImage},
		{"lookup_barcode", "Fetch a packaged product from Open Food Facts by barcode",
			LookupBarcodeParams{}, s.handleLookupBarcode},
		{"normalize_measurement", "Convert a nutrient amount to its canonical unit",
			NormalizeMeasurementParams{}, s.handleNormalizeMeasurement},
		{"get_product", "Get a saved product with its derived metrics",
			GetProductParams{}, s.handleGetProduct},
		{"search_products", "Search saved products by name",
			SearchProductsParams{}, s.handleSearchProducts},
		{"get_lists", "List all product lists, the Scanned list first",
			nil, s.handleGetLists},
		{"get_list_products", "List the products of a list, sorted and filtered",
			GetListProductsParams{}, s.handleGetListProducts},
		{"create_list", "Create a user product list",
			CreateListParams{}, s.handleCreateList},
		{"add_to_list", "Add a saved product to a list",
			ListMembershipParams{}, s.handleAddToList},
		{"remove_from_list", "Remove a product from a list",
			ListMembershipParams{}, s.handleRemoveFromList},
	}
}

// registerTools makes every tool reachable both on the plain POST route and
// through the MCP server.
func (s *NutritionServer) registerTools() {
	defs := s.toolDefs()
	s.tools = make(map[string]toolHandler, len(defs))
	for _, d := range defs {
		s.tools[d.name] = d.handler
		s.server.RegisterTool(&protocol.Tool{
			Name:        d.name,
			Description: d.description,
			InputSchema: inputSchema(d.params),
		}, s.mcpHandler(d.name, d.handler))
		s.logger.Debug("registered tool", "tool", d.name)
	}
}

// ToolNames lists the registered tools.
func (s *NutritionServer) ToolNames() []string {
	names := make([]string, 0, len(s.tools))
	for name := range s.tools {
		names = append(names, name)
	}
	return names
}
