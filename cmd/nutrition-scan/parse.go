// cmd/nutrition-scan/parse.go
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"mcp-nutrition-scan/internal/analysis"
	"mcp-nutrition-scan/internal/models"
	"mcp-nutrition-scan/internal/nutrition"
	"mcp-nutrition-scan/internal/scan"
	"mcp-nutrition-scan/internal/units"
)

type parseOutput struct {
	Record        *analysis.Record   `json:"record,omitempty" yaml:"record,omitempty"`
	Product       *models.Product    `json:"product,omitempty" yaml:"product,omitempty"`
	Metrics       *nutrition.Metrics `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	Error         string             `json:"error,omitempty" yaml:"error,omitempty"`
	MissingFields []string           `json:"missingFields,omitempty" yaml:"missingFields,omitempty"`
	Diagnostics   []string           `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// errRejected makes the process exit non-zero after the output was written.
var errRejected = errors.New("analysis text rejected")

func newParseCmd(root *rootOptions) *cobra.Command {
	var (
		output      string
		withProduct bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse meal analysis text from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, false)

			text, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			svc := scan.NewService(scan.WithLogger(logger), scan.WithAIJunkScale(cfg.Analysis.AIJunkScale))
			out := svc.FromAnalysis(text)

			result := parseOutput{Record: out.Record}
			for _, d := range out.Diagnostics {
				result.Diagnostics = append(result.Diagnostics, d.Error())
			}
			if out.Err != nil {
				result.Error = out.Err.Error()
				var incomplete *analysis.IncompleteError
				if errors.As(out.Err, &incomplete) {
					for _, f := range incomplete.Missing {
						result.MissingFields = append(result.MissingFields, f.String())
					}
				}
			}
			if withProduct {
				m := svc.Metrics(out.Product)
				result.Product = out.Product
				result.Metrics = &m
			}

			if err := writeOutput(cmd.OutOrStdout(), output, result); err != nil {
				return err
			}
			if out.Err != nil {
				cmd.SilenceErrors = true
				return errRejected
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	cmd.Flags().BoolVar(&withProduct, "product", false, "Include the assembled product and its derived metrics")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var (
		nutrient string
		value    string
		unit     string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "normalize",
		Short: "Normalize one nutrient measurement to its canonical unit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := units.Nutrient(nutrient)
			if !n.Valid() {
				return fmt.Errorf("unknown nutrient %q", nutrient)
			}

			raw := units.RawMeasurement{Nutrient: n}
			if cmd.Flags().Changed("value") {
				v, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return fmt.Errorf("invalid value %q: %w", value, err)
				}
				raw.Value = &v
			}
			if cmd.Flags().Changed("unit") {
				raw.Unit = &unit
			}

			m, warn := units.Normalize(raw)
			if warn != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "warning:", warn)
			}
			return writeOutput(cmd.OutOrStdout(), output, m)
		},
	}

	cmd.Flags().StringVarP(&nutrient, "nutrient", "n", "", "Nutrient key, e.g. vitamin-a")
	cmd.Flags().StringVarP(&value, "value", "v", "", "Amount (omit for none)")
	cmd.Flags().StringVarP(&unit, "unit", "u", "", "Unit token (omit for none)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	_ = cmd.MarkFlagRequired("nutrient")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return string(data), nil
}

func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "yml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
