// internal/analysis/scanner.go
package analysis

import (
	"fmt"
	"strings"
)

// Section identifies which part of the analysis text a line belongs to.
type Section int

const (
	SectionNone Section = iota
	SectionMainDish
	SectionIngredients
	SectionNutritional
	SectionPortion
	SectionHealth
	SectionNotes
)

var sectionNames = map[Section]string{
	SectionNone:        "none",
	SectionMainDish:    "main dish",
	SectionIngredients: "ingredients",
	SectionNutritional: "nutritional information",
	SectionPortion:     "portion size",
	SectionHealth:      "health metrics",
	SectionNotes:       "additional notes",
}

func (s Section) String() string {
	if name, ok := sectionNames[s]; ok {
		return name
	}
	return fmt.Sprintf("section(%d)", int(s))
}

type header struct {
	prefix  string
	section Section
}

// headers are checked in order against the trimmed line; the first prefix wins.
var headers = []header{
	{prefix: "Main Dish:", section: SectionMainDish},
	{prefix: "Ingredients:", section: SectionIngredients},
	{prefix: "Nutritional Information", section: SectionNutritional},
	{prefix: "Portion Size:", section: SectionPortion},
	{prefix: "Health Metrics:", section: SectionHealth},
	{prefix: "Additional Notes:", section: SectionNotes},
}

// classify reports whether a trimmed line opens a section and returns the text
// that follows the header on the same line.
func classify(trimmed string) (Section, string, bool) {
	for _, h := range headers {
		if strings.HasPrefix(trimmed, h.prefix) {
			rest := strings.TrimPrefix(trimmed, h.prefix)
			if h.section == SectionNutritional {
				// "Nutritional Information (per 100g):" carries no value.
				rest = ""
			}
			return h.section, strings.TrimSpace(rest), true
		}
	}
	return SectionNone, "", false
}

// Scan is the line classification of one analysis text.
type Scan struct {
	// Lines holds every line of the input, untrimmed and including blanks,
	// so extractors can re-scan bounded regions.
	Lines []string

	content map[Section][]string
	inline  map[Section]string
	start   map[Section]int
}

// ScanSections walks the text once, accumulating non-empty lines under the
// most recent header. Lines before the first header are dropped.
func ScanSections(text string) *Scan {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	s := &Scan{
		Lines:   strings.Split(text, "\n"),
		content: make(map[Section][]string),
		inline:  make(map[Section]string),
		start:   make(map[Section]int),
	}

	current := SectionNone
	for i, line := range s.Lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if section, rest, ok := classify(trimmed); ok {
			current = section
			s.inline[section] = rest
			if _, seen := s.start[section]; !seen {
				s.start[section] = i
			}
			if _, seen := s.content[section]; !seen {
				s.content[section] = nil
			}
			continue
		}

		if current == SectionNone {
			continue
		}
		s.content[current] = append(s.content[current], trimmed)
	}

	return s
}

// Has reports whether the section header appeared in the text.
func (s *Scan) Has(section Section) bool {
	_, ok := s.start[section]
	return ok
}

// Content returns the trimmed lines accumulated under a section.
func (s *Scan) Content(section Section) []string {
	return s.content[section]
}

// Inline returns the text written after a header on its own line.
func (s *Scan) Inline(section Section) string {
	return s.inline[section]
}

// HeaderLine returns the index into Lines of the first header for a section.
func (s *Scan) HeaderLine(section Section) (int, bool) {
	i, ok := s.start[section]
	return i, ok
}

func (s *Scan) MainDish() string {
	return s.inline[SectionMainDish]
}

func (s *Scan) PortionSize() string {
	return s.inline[SectionPortion]
}

// Missing returns an ErrSectionNotFound diagnostic per absent header.
func (s *Scan) Missing() []error {
	var errs []error
	for _, h := range headers {
		if !s.Has(h.section) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrSectionNotFound, h.section))
		}
	}
	return errs
}
