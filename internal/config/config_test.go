package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutFiles(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	cfg, err := Load(filepath.Join(dir, "missing.yml"), filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "tsh> ", cfg.Prompt)
	assert.True(t, cfg.EmitPrompt)
	assert.Equal(t, 16, cfg.MaxJobs)
	assert.Equal(t, 1024, cfg.MaxLine)
	assert.Equal(t, dir, cfg.HomeDir)
	assert.Equal(t, filepath.Join(dir, ".tsh_history"), cfg.HistoryFile)
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(file, []byte(`
prompt: "$ "
emit_prompt: false
home_dir: /tmp/home
max_jobs: 4
accurate_stop_notice: true
`), 0o644))

	cfg, err := Load(file, "")
	require.NoError(t, err)

	assert.Equal(t, "$ ", cfg.Prompt)
	assert.False(t, cfg.EmitPrompt)
	assert.Equal(t, 4, cfg.MaxJobs)
	assert.Equal(t, 1024, cfg.MaxLine)
	assert.True(t, cfg.AccurateStopNotice)
	assert.Equal(t, "/tmp/home/.tsh_history", cfg.HistoryFile)
}

func TestLoadEnvFileOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(file, []byte("max_jobs: 4\n"), 0o644))
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("TSH_MAX_JOBS=8\nTSH_VERBOSE=true\nTSH_LOG_LEVEL=debug\n"), 0o644))
	t.Cleanup(func() {
		os.Unsetenv("TSH_MAX_JOBS")
		os.Unsetenv("TSH_VERBOSE")
		os.Unsetenv("TSH_LOG_LEVEL")
	})

	cfg, err := Load(file, envFile)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.MaxJobs)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadEnvCoversLineLengthAndStopNotice(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(file, []byte("max_line: 512\naccurate_stop_notice: false\n"), 0o644))
	t.Setenv("HOME", dir)
	t.Setenv("TSH_MAX_LINE", "64")
	t.Setenv("TSH_ACCURATE_STOP_NOTICE", "true")

	cfg, err := Load(file, "")
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.MaxLine)
	assert.True(t, cfg.AccurateStopNotice)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(file, []byte("max_jobs: 0\n"), 0o644))

	_, err := Load(file, "")
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(file, []byte("max_jobs: [\n"), 0o644))
	_, err = Load(file, "")
	assert.Error(t, err)
}
