package cmd

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), "level %q", in)
	}
}

func TestMigrateArgs(t *testing.T) {
	assert.NoError(t, migrateCmd.Args(migrateCmd, []string{"up"}))
	assert.NoError(t, migrateCmd.Args(migrateCmd, []string{"down"}))
	assert.Error(t, migrateCmd.Args(migrateCmd, []string{"sideways"}))
	assert.Error(t, migrateCmd.Args(migrateCmd, nil))
	assert.Error(t, migrateCmd.Args(migrateCmd, []string{"up", "down"}))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
}
