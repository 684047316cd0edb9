// internal/analysis/extract.go
package analysis

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`\d+\.?\d*`)

const processedLabel = "Processed Ingredients:"

// nutritionalStops end the "Nutritional Information" block (substring match).
var nutritionalStops = []string{"Health Metrics:", "Portion Size:", "Additional Notes:"}

// emptyListMarkers are placeholder values that mean "no items".
var emptyListMarkers = map[string]bool{"none": true, "n/a": true, "na": true, "-": true}

// Extraction holds every value that could be read from a scan. Numeric fields
// are independently optional.
type Extraction struct {
	MainDish             string
	Ingredients          []string
	PortionSize          string
	ProcessedIngredients []string
	AdditionalNotes      string

	// Diagnostics collects ErrSectionNotFound and ErrFieldNotExtracted values.
	Diagnostics []error

	values map[Field]float64
}

// Value returns an extracted numeric field.
func (e *Extraction) Value(f Field) (float64, bool) {
	v, ok := e.values[f]
	return v, ok
}

// Extract reads all fields from a scan. It never fails.
func Extract(s *Scan) *Extraction {
	e := &Extraction{
		MainDish:    s.MainDish(),
		PortionSize: s.PortionSize(),
		Ingredients: extractIngredients(s),
		values:      make(map[Field]float64, fieldCount),
	}

	e.Diagnostics = append(e.Diagnostics, s.Missing()...)

	if lines, ok := nutritionalBlock(s); ok {
		extractNumbers(lines, NutritionalFieldList(), e.values)
	}
	if lines, ok := healthBlock(s); ok {
		extractNumbers(lines, HealthFields(), e.values)
		e.ProcessedIngredients = extractProcessed(lines)
	}
	e.AdditionalNotes = extractNotes(s)

	for _, f := range MandatoryFields() {
		if _, ok := e.values[f]; !ok {
			e.Diagnostics = append(e.Diagnostics, fmt.Errorf("%w: %s", ErrFieldNotExtracted, f))
		}
	}

	return e
}

func extractIngredients(s *Scan) []string {
	var out []string
	for _, item := range strings.Split(s.Inline(SectionIngredients), ",") {
		if item = strings.TrimSpace(item); item != "" && !emptyListMarkers[strings.ToLower(item)] {
			out = append(out, item)
		}
	}
	for _, line := range s.Content(SectionIngredients) {
		if !strings.HasPrefix(line, "-") {
			continue
		}
		if item := strings.TrimSpace(line[1:]); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// nutritionalBlock returns the raw lines strictly between the nutritional
// header and the next stop label.
func nutritionalBlock(s *Scan) ([]string, bool) {
	start, ok := s.HeaderLine(SectionNutritional)
	if !ok {
		return nil, false
	}
	var block []string
	for _, line := range s.Lines[start+1:] {
		if containsAny(line, nutritionalStops) {
			break
		}
		block = append(block, line)
	}
	return block, true
}

// healthBlock returns the raw lines after the health header up to the next
// section header.
func healthBlock(s *Scan) ([]string, bool) {
	start, ok := s.HeaderLine(SectionHealth)
	if !ok {
		return nil, false
	}
	var block []string
	for _, line := range s.Lines[start+1:] {
		if _, _, isHeader := classify(strings.TrimSpace(line)); isHeader {
			break
		}
		block = append(block, line)
	}
	return block, true
}

// extractNumbers stores, per field, the first decimal literal following its
// label on the first line that contains the label.
func extractNumbers(lines []string, fields []Field, into map[Field]float64) {
	for _, f := range fields {
		label := f.Label()
		for _, line := range lines {
			idx := strings.Index(line, label)
			if idx < 0 {
				continue
			}
			if v, ok := numberAfter(line[idx+len(label):]); ok {
				into[f] = v
			}
			break
		}
	}
}

func numberAfter(s string) (float64, bool) {
	lit := numberPattern.FindString(s)
	if lit == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// extractProcessed reads the processed-ingredient list: inline items after the
// label, then following lines until a blank line, the notes header, another
// health label or another section header.
func extractProcessed(lines []string) []string {
	at := -1
	for i, line := range lines {
		if strings.Contains(line, processedLabel) {
			at = i
			break
		}
	}
	if at < 0 {
		return nil
	}

	var out []string
	inline := lines[at][strings.Index(lines[at], processedLabel)+len(processedLabel):]
	for _, item := range strings.Split(inline, ",") {
		if item = strings.TrimSpace(item); item != "" && !emptyListMarkers[strings.ToLower(item)] {
			out = append(out, item)
		}
	}

	for _, line := range lines[at+1:] {
		content := stripMarker(strings.TrimSpace(line))
		if content == "" || strings.Contains(content, "Additional Notes:") || hasHealthLabel(content) {
			break
		}
		if strings.HasPrefix(content, "-") || emptyListMarkers[strings.ToLower(content)] {
			continue
		}
		out = append(out, content)
	}
	return out
}

func extractNotes(s *Scan) string {
	var notes []string
	if inline := s.Inline(SectionNotes); inline != "" {
		notes = append(notes, inline)
	}
	notes = append(notes, s.Content(SectionNotes)...)
	return strings.Join(notes, "\n")
}

// stripMarker drops one leading "-" list marker and the space after it.
func stripMarker(line string) string {
	if strings.HasPrefix(line, "-") {
		return strings.TrimSpace(line[1:])
	}
	return line
}

func hasHealthLabel(line string) bool {
	for _, f := range HealthFields() {
		if strings.Contains(line, f.Label()) {
			return true
		}
	}
	return false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
