package main

import (
	"context"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dealboard/internal/model"
	"github.com/sells-group/dealboard/internal/store"
	"github.com/sells-group/dealboard/internal/validate"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show, update or reset a user's saved preferences",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show <user-id>",
	Short: "Print saved preferences (defaults when none are saved)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return showPreferences(ctx, st, args[0], cmd.OutOrStdout())
		})
	},
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <user-id>",
	Short: "Merge a partial preferences JSON file into the saved preferences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		raw, err := os.ReadFile(path)
		if err != nil {
			return eris.Wrapf(err, "prefs: read %s", path)
		}
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			prefs, err := patchPreferences(ctx, st, args[0], raw)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), prefs)
		})
	},
}

var prefsResetCmd = &cobra.Command{
	Use:   "reset <user-id>",
	Short: "Delete saved preferences",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, st store.Store) error {
			return st.DeletePreferences(ctx, args[0])
		})
	},
}

func init() {
	prefsSetCmd.Flags().String("file", "", "preferences patch JSON file (required)")
	_ = prefsSetCmd.MarkFlagRequired("file")

	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd, prefsResetCmd)
	rootCmd.AddCommand(prefsCmd)
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, st store.Store) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	return fn(ctx, st)
}

func loadSaved(ctx context.Context, st store.Store, userID string) (model.UserPreferences, error) {
	saved, err := st.GetPreferences(ctx, userID)
	if store.IsNotFound(err) {
		return model.DefaultPreferences(), nil
	}
	if err != nil {
		return model.UserPreferences{}, err
	}
	return *saved, nil
}

func showPreferences(ctx context.Context, st store.Store, userID string, w io.Writer) error {
	prefs, err := loadSaved(ctx, st, userID)
	if err != nil {
		return err
	}
	return writeJSON(w, prefs)
}

// patchPreferences applies a PreferencesPatch document and saves the result.
// Nothing is written if the merged preferences are invalid.
func patchPreferences(ctx context.Context, st store.Store, userID string, raw []byte) (model.UserPreferences, error) {
	var patch model.PreferencesPatch
	if err := validate.Decode(validate.Preferences, raw, &patch); err != nil {
		return model.UserPreferences{}, err
	}
	prefs, err := loadSaved(ctx, st, userID)
	if err != nil {
		return prefs, err
	}
	if err := prefs.Apply(patch); err != nil {
		return prefs, err
	}
	if err := st.PutPreferences(ctx, userID, prefs); err != nil {
		return prefs, err
	}
	return prefs, nil
}
