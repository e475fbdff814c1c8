package main

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dealboard/internal/dealsource"
	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/refresh"
	"github.com/sells-group/dealboard/internal/store"
	"github.com/sells-group/dealboard/internal/validate"
)

// appEnv holds the store and board shared by the commands.
type appEnv struct {
	Store store.Store // nil when the command runs without a database
	Board *refresh.Board
}

// Close releases the store.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp opens the store when withStore is set (or the deal source needs
// it) and loads the board once. Callers should defer env.Close().
func initApp(ctx context.Context, withStore bool) (*appEnv, error) {
	env := &appEnv{}
	if withStore || cfg.Deals.Source == "store" {
		st, err := store.Open(ctx, cfg.Store)
		if err != nil {
			return nil, eris.Wrap(err, "open store")
		}
		env.Store = st
	}

	src, err := dealsource.New(cfg.Deals, listerOrNil(env.Store))
	if err != nil {
		env.Close()
		return nil, err
	}
	env.Board = refresh.NewBoard(src, cfg.Scoring)
	if err := env.Board.Reload(ctx); err != nil {
		env.Close()
		return nil, err
	}
	zap.L().Debug("app initialized",
		zap.String("source", src.Name()),
		zap.Bool("store", env.Store != nil),
	)
	return env, nil
}

func listerOrNil(st store.Store) dealsource.Lister {
	if st == nil {
		return nil
	}
	return st
}

// readPreferences reads a preferences document and overlays it on the
// defaults. An empty path returns the defaults.
func readPreferences(path string) (model.UserPreferences, error) {
	prefs := model.DefaultPreferences()
	if path == "" {
		return prefs, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return prefs, eris.Wrapf(err, "read preferences %s", path)
	}
	if err := validate.Decode(validate.Preferences, raw, &prefs); err != nil {
		return prefs, err
	}
	if err := prefs.Validate(); err != nil {
		return prefs, err
	}
	return prefs, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

// openOutput returns stdout for an empty path.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "create output file %s", path)
	}
	return f, func() { _ = f.Close() }, nil
}
