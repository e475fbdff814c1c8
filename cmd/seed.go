package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/dealsource"
	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/sheet"
	"github.com/sells-group/dealboard/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load deals into the database",
	Long: `Upsert deals into the configured store so the "store" deal source can
serve them. Without --file the embedded sample deals are loaded.

Supported files: .yaml/.yml (a "deals:" list), .xlsx and .csv (header row
naming the deal fields, e.g. id, title, city, price, cap_rate, noi).`,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().String("file", "", "deal file to import (.yaml, .xlsx or .csv)")
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("seed"); err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("file")

	deals, err := loadDealFile(ctx, path)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck

	n, err := st.UpsertDeals(ctx, deals)
	if err != nil {
		return err
	}
	zap.L().Info("deals seeded",
		zap.Int64("upserted", n),
		zap.String("file", path),
		zap.String("driver", cfg.Store.Driver),
	)
	return nil
}

// loadDealFile reads and validates deals from path, or the embedded sample
// when path is empty.
func loadDealFile(ctx context.Context, path string) ([]model.Property, error) {
	if path == "" {
		return dealsource.Static{}.Load(ctx)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "seed: read %s", path)
		}
		return dealsource.ParseYAML(raw)
	default:
		rows, err := sheet.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return sheet.ParseDeals(rows)
	}
}
