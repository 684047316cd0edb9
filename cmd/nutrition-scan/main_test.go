package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const soupText = `Main Dish: Tomato Soup
Ingredients: tomato, cream
Nutritional Information (per 100g):
- Carbohydrates: 8g
- Starch: 1g
- Proteins: 2g
- Fats: 3g
- Seed Oils: 0g
- Sugars: 5g
- Fiber: 1g
- Energy (kcal): 70kcal
- Saturated Fat: 1.5g
- Sodium: 0.4g
Portion Size: 300ml
Health Metrics:
- Junk Score: 3
- Added Sugars: 1g
- Refined Carbs: 0g
- Processed Ingredients: stock cube`

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "mcp-nutrition-scan version "+version+"\n", out)
}

func TestParse_StdinJSON(t *testing.T) {
	out, err := run(t, soupText, "parse")
	require.NoError(t, err)

	var got struct {
		Record struct {
			MainDish      string `json:"mainDish"`
			PortionSize   string `json:"portionSize"`
			HealthMetrics struct {
				ProcessedIngredients []string `json:"processedIngredients"`
			} `json:"healthMetrics"`
		} `json:"record"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "Tomato Soup", got.Record.MainDish)
	assert.Equal(t, "300ml", got.Record.PortionSize)
	assert.Equal(t, []string{"stock cube"}, got.Record.HealthMetrics.ProcessedIngredients)
	assert.Empty(t, got.Error)
}

func TestParse_FileYAMLWithProduct(t *testing.T) {
	path := filepath.Join(t.TempDir(), "soup.txt")
	require.NoError(t, os.WriteFile(path, []byte(soupText), 0o600))

	out, err := run(t, "", "parse", path, "--output", "yaml", "--product")
	require.NoError(t, err)
	assert.Contains(t, out, "mainDish: Tomato Soup")
	assert.Contains(t, out, "junkScoreSource: ai")
	assert.Contains(t, out, "AI Analysis")
}

func TestParse_Rejected(t *testing.T) {
	out, err := run(t, "Main Dish: Nothing else", "parse")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errRejected))
	assert.Contains(t, out, `"missingFields"`)
	assert.Contains(t, out, "carbohydrates")
}

func TestParse_UnknownFormat(t *testing.T) {
	_, err := run(t, soupText, "parse", "-o", "xml")
	assert.Error(t, err)
}

func TestNormalize(t *testing.T) {
	out, err := run(t, "", "normalize", "--nutrient", "vitamin-d", "--value", "400", "--unit", "IU")
	require.NoError(t, err)

	var m struct {
		Value float64 `json:"value"`
		Unit  string  `json:"unit"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.InDelta(t, 10.0, m.Value, 1e-9)
	assert.Equal(t, "µg", m.Unit)

	out, err = run(t, "", "normalize", "-n", "sodium")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, 0.0, m.Value)
	assert.Equal(t, "mg", m.Unit)

	_, err = run(t, "", "normalize", "-n", "kryptonite")
	assert.Error(t, err)
}
