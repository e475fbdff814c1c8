package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/analyst"
	"github.com/sells-group/dealboard/internal/ranking"
	"github.com/sells-group/dealboard/internal/refresh"
	"github.com/sells-group/dealboard/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the deal board HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initApp(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		a, err := analyst.New(cfg)
		if err != nil {
			return err
		}
		ttl := time.Duration(cfg.Analyst.CacheTTLMins) * time.Minute

		if cfg.Refresh.Cron != "" {
			runner, err := refresh.NewRunner(ctx, cfg.Refresh.Cron, env.Board, env.Store)
			if err != nil {
				return err
			}
			runner.Start()
			defer runner.Stop()
		}

		srv := server.New(server.Deps{
			Board:       env.Board,
			Store:       env.Store,
			Ranker:      ranking.New(a, cfg.Scoring, cfg.Analyst.MaxConcurrency),
			AI:          analyst.NewService(a, env.Store, ttl),
			Scoring:     cfg.Scoring,
			CORSOrigins: cfg.Server.CORSOrigins,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		zap.L().Info("deal board ready",
			zap.String("analyst", cfg.Analyst.Provider),
			zap.Int("deals", len(env.Board.Snapshot().Deals)),
		)
		return srv.ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
