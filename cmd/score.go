package main

import (
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/filter"
	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/scoring"
	"github.com/sells-group/dealboard/internal/sheet"
	"github.com/sells-group/dealboard/internal/store"
)

// Scoring modes.
const (
	modeBoard  = "board"
	modeProfit = "profit"
)

type scoreOptions struct {
	Mode   string
	Sort   string
	Limit  int
	Format string
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score the deal collection and print the ranked list",
	Long: `Score every deal from the configured source.

Mode "board" uses the 0-100 deal-board score (the public listing). Mode
"profit" uses the 0-1 profitability score and applies investor preferences
from --prefs or a user's saved preferences (--user).

Examples:
  # Public board, top 5 by score
  score --limit 5

  # Preference-aware view exported to a spreadsheet
  score --mode profit --prefs prefs.json --format xlsx --output deals.xlsx

  # A saved user's view sorted by discount
  score --mode profit --user alice --sort discount`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("mode", modeBoard, "scoring mode: board or profit")
	f.String("prefs", "", "preferences JSON file (profit mode)")
	f.String("user", "", "load saved preferences for this user id (profit mode)")
	f.String("sort", "score", "sort key: score, price, capRate or discount")
	f.Int("limit", 0, "maximum number of deals (0 = all)")
	f.String("format", sheet.FormatTable, "output format: table, csv or xlsx")
	f.String("output", "", "output file path (default: stdout)")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("score"); err != nil {
		return err
	}

	var opts scoreOptions
	opts.Mode, _ = cmd.Flags().GetString("mode")
	opts.Sort, _ = cmd.Flags().GetString("sort")
	opts.Limit, _ = cmd.Flags().GetInt("limit")
	opts.Format, _ = cmd.Flags().GetString("format")
	prefsPath, _ := cmd.Flags().GetString("prefs")
	userID, _ := cmd.Flags().GetString("user")
	outputPath, _ := cmd.Flags().GetString("output")

	if opts.Mode != modeBoard && opts.Mode != modeProfit {
		return eris.Errorf("score: --mode must be board or profit (got %q)", opts.Mode)
	}
	if opts.Format == sheet.FormatXLSX && outputPath == "" {
		return eris.New("score: --format xlsx requires --output")
	}

	env, err := initApp(ctx, userID != "")
	if err != nil {
		return err
	}
	defer env.Close()

	prefs, err := readPreferences(prefsPath)
	if err != nil {
		return err
	}
	if userID != "" {
		saved, err := env.Store.GetPreferences(ctx, userID)
		switch {
		case err == nil:
			prefs = *saved
		case store.IsNotFound(err):
			zap.L().Info("no saved preferences, using defaults", zap.String("user", userID))
		default:
			return err
		}
	}

	deals, err := scoreDeals(env.Board.Snapshot().Copy(), prefs, opts, time.Now())
	if err != nil {
		return err
	}

	w, closeFn, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer closeFn()
	return writeScored(w, opts.Format, deals)
}

// scoreDeals scores, filters (profit mode only), sorts and truncates.
func scoreDeals(deals []model.Property, prefs model.UserPreferences, opts scoreOptions, now time.Time) ([]model.ScoredProperty, error) {
	key, err := filter.ParseSortKey(opts.Sort)
	if err != nil {
		return nil, err
	}

	if opts.Mode == modeProfit {
		scored := scoring.ScoreProfitability(deals, &prefs, cfg.Scoring)
		return filter.Top(scored, prefs, key, opts.Limit)
	}

	out := filter.SortScored(scoring.ScoreBoard(deals, now), key)
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func writeScored(w io.Writer, format string, deals []model.ScoredProperty) error {
	if err := sheet.Write(w, format, deals); err != nil {
		return eris.Wrap(err, "score: write output")
	}
	return nil
}
