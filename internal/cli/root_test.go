package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/gcmp/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "gcmp", cmd.Use)
	assert.Contains(t, cmd.Long, "left to right")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"eval", "apply", "repl", "test", "replay", "validate"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "precision", "base", "angle", "output"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
}

func TestScenarioFlags(t *testing.T) {
	cmd := NewRootCommand()
	for _, name := range []string{"test", "replay"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.NotNil(t, sub.Flags().Lookup("filter"), name)
	}
}

func TestInvalidFormat(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"eval", "1", "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootExecute_Eval(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"eval", "2 + 3 * 4", "--precision", "10"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "20\n", buf.String())
}

func TestRootOptions_ConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gcmp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("precision: 12\nbase: 8\nangle_mode: radians\n"), 0644))

	t.Setenv(config.EnvPrecision, "")
	t.Setenv(config.EnvBase, "")
	t.Setenv(config.EnvAngle, "")
	t.Setenv(config.EnvOutput, "")

	opts := &RootOptions{ConfigPath: path}
	cfg, err := opts.Config()
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Precision, "file")
	assert.Equal(t, 8, cfg.Base)
	assert.Equal(t, config.Radians, cfg.AngleMode)
	assert.Equal(t, config.General, cfg.OutputFormat, "default")

	t.Setenv(config.EnvPrecision, "20")
	t.Setenv(config.EnvOutput, "fixed")
	cfg, err = opts.Config()
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Precision, "environment beats file")
	assert.Equal(t, config.Fixed, cfg.OutputFormat)

	opts.Precision = 5
	opts.Angle = "deg"
	cfg, err = opts.Config()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.Precision, "flag beats environment")
	assert.Equal(t, config.Degrees, cfg.AngleMode)
	assert.Equal(t, 8, cfg.Base)
}

func TestRootOptions_ConfigMissingFile(t *testing.T) {
	t.Setenv(config.EnvPrecision, "")
	opts := &RootOptions{ConfigPath: filepath.Join(t.TempDir(), "absent.yaml")}
	cfg, err := opts.Config()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultPrecision, cfg.Precision)
}

func TestRootOptions_ConfigClamps(t *testing.T) {
	t.Setenv(config.EnvPrecision, "")
	opts := &RootOptions{Precision: 5000, Base: 40}
	cfg, err := opts.Config()
	require.NoError(t, err)
	assert.Equal(t, config.MaxPrecision, cfg.Precision)
	assert.Equal(t, config.MaxBase, cfg.Base)
}

func TestRootOptions_ConfigBadFlag(t *testing.T) {
	opts := &RootOptions{Output: "roman"}
	_, err := opts.Config()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output")
}
