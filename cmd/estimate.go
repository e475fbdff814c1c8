package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealboard/internal/estimate"
	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/validate"
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate fair value for one property",
	Long: `Estimate fair value from NOI, cap rate or location.

Examples:
  estimate --price 24000000 --noi 1900000 --city Pune
  estimate --file property.json`,
	RunE: runEstimate,
}

func init() {
	f := estimateCmd.Flags()
	f.String("file", "", "property JSON file (overrides the value flags)")
	f.Float64("price", 0, "listing price")
	f.Float64("noi", 0, "net operating income")
	f.Float64("cap-rate", 0, "cap rate as a fraction (0.075 = 7.5%)")
	f.Float64("market-cap-rate", 0, "market cap rate as a percentage")
	f.String("city", "", "city")
	f.Float64("sqft", 0, "floor area in square feet")
	f.Int("year-built", 0, "year built")

	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")

	var p model.Property
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := validate.Decode(validate.Property, raw, &p); err != nil {
			return err
		}
	} else {
		p = propertyFromFlags(cmd)
	}

	est, err := estimate.Value(p, cfg.Scoring)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), est)
}

// propertyFromFlags reads the value flags; zero means unset.
func propertyFromFlags(cmd *cobra.Command) model.Property {
	f := cmd.Flags()
	var p model.Property
	p.Price, _ = f.GetFloat64("price")
	p.City, _ = f.GetString("city")
	if v, _ := f.GetFloat64("noi"); v != 0 {
		p.NOI = model.Ptr(v)
	}
	if v, _ := f.GetFloat64("cap-rate"); v != 0 {
		p.CapRate = model.Ptr(v)
	}
	if v, _ := f.GetFloat64("market-cap-rate"); v != 0 {
		p.MarketCapRate = model.Ptr(v)
	}
	if v, _ := f.GetFloat64("sqft"); v != 0 {
		p.Sqft = model.Ptr(v)
	}
	if v, _ := f.GetInt("year-built"); v != 0 {
		p.YearBuilt = model.Ptr(v)
	}
	return p
}
