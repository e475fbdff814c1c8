package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/dealboard/internal/config"
)

// testConfig returns a config for the static deal source and a SQLite store
// in a temp dir, and installs it as the package config.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{
		Server: config.ServerConfig{Port: 8080},
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "cmd.db"),
		},
		Deals:   config.DealsConfig{Source: "static"},
		Scoring: config.DefaultScoringConfig(),
		Analyst: config.AnalystConfig{Provider: "template", MaxConcurrency: 2},
	}
	prev := cfg
	cfg = c
	t.Cleanup(func() { cfg = prev })
	return c
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	for _, name := range []string{"serve", "score", "estimate", "rank", "seed", "prefs"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "dealboard", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestScoreCommand_Flags(t *testing.T) {
	for name, def := range map[string]string{
		"mode": "board", "sort": "score", "limit": "0", "format": "table", "prefs": "", "user": "", "output": "",
	} {
		flag := scoreCmd.Flags().Lookup(name)
		require.NotNil(t, flag, "score should have --%s", name)
		assert.Equal(t, def, flag.DefValue, name)
	}
}

func TestRankCommand_FileRequired(t *testing.T) {
	flag := rankCmd.Flags().Lookup("file")
	require.NotNil(t, flag)
	assert.Equal(t, []string{"true"}, flag.Annotations["cobra_annotation_bash_completion_one_required_flag"])
}

func TestPrefsCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range prefsCmd.Commands() {
		names[c.Name()] = true
	}
	for _, name := range []string{"show", "set", "reset"} {
		assert.True(t, names[name], "prefs should have subcommand %q", name)
	}
}
