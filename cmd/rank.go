package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/analyst"
	"github.com/sells-group/dealboard/internal/ranking"
	"github.com/sells-group/dealboard/internal/store"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank raw listings with the configured analyst",
	Long: `Rank raw listings read from a JSON file shaped like the POST /api/rank
body: {"deals": [...], "migrationPatterns": "...", "marketEconomics": "...",
"preferences": {...}}.

With --save the result is recorded in the rank history.`,
	RunE: runRank,
}

func init() {
	f := rankCmd.Flags()
	f.String("file", "", "rank request JSON file (required)")
	f.Bool("save", false, "record the result in the rank history")
	_ = rankCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(rankCmd)
}

func runRank(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cfg.Validate("rank"); err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("file")
	save, _ := cmd.Flags().GetBool("save")

	raw, err := os.ReadFile(path)
	if err != nil {
		return eris.Wrapf(err, "rank: read %s", path)
	}
	req, err := ranking.ParseRequest(raw)
	if err != nil {
		return err
	}

	a, err := analyst.New(cfg)
	if err != nil {
		return err
	}
	result, err := ranking.New(a, cfg.Scoring, cfg.Analyst.MaxConcurrency).Rank(ctx, req)
	if err != nil {
		return err
	}

	if save {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		body, err := json.Marshal(result)
		if err != nil {
			return eris.Wrap(err, "rank: marshal result")
		}
		run, err := st.SaveRankRun(ctx, len(result.RankedDeals), body)
		if err != nil {
			return err
		}
		zap.L().Info("rank run saved", zap.String("run_id", run.ID), zap.Int("deals", run.DealCount))
	}

	return writeJSON(cmd.OutOrStdout(), result)
}
