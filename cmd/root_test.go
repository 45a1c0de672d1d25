package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"suite-installer/internal/mode"
)

func TestEveryModeHasACommand(t *testing.T) {
	for _, name := range mode.Names() {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}

func TestModeFlags(t *testing.T) {
	cases := map[string][]string{
		mode.All:               {"branch", "jobs", "keep-output", "overwrite"},
		mode.Config:            {"overwrite"},
		mode.GetSources:        {"branch"},
		mode.ConfigBuild:       {"keep-output"},
		mode.CompileAndInstall: {"branch", "jobs", "keep-output"},
		mode.Test:              {"show-tests", "tests", "jobs"},
	}
	for name, flags := range cases {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		for _, f := range flags {
			assert.NotNil(t, c.Flags().Lookup(f), "%s --%s", name, f)
		}
		assert.NotNil(t, c.InheritedFlags().Lookup("manifest"), name)
	}
}

func TestExecuteVersion(t *testing.T) {
	t.Setenv("SUITE_INSTALLER_NO_TELEMETRY", "1")
	dir := t.TempDir()

	code := execute([]string{"--manifest", filepath.Join(dir, "suite.yaml"), mode.Version})

	assert.Zero(t, code)
	_, err := os.Stat(filepath.Join(dir, "logs"))
	assert.True(t, os.IsNotExist(err), "version must not start a log file")
}

func TestExecuteRejectsBadUsage(t *testing.T) {
	assert.Equal(t, usageExitCode, execute([]string{"deploy"}))
	assert.Equal(t, usageExitCode, execute([]string{mode.AddModel, "jdoe"}))
	assert.Equal(t, usageExitCode, execute([]string{mode.Git}))
}

func TestExecuteBadManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suite.yaml")
	require.NoError(t, os.WriteFile(path, []byte("repositories: {not: [a list"), 0644))

	assert.Equal(t, 2, execute([]string{"--manifest", path, mode.Version}))
}

func TestGitKeepsGlobalFlags(t *testing.T) {
	t.Setenv("SUITE_INSTALLER_NO_TELEMETRY", "1")
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("suite:\n  name: custom\n"), 0644))

	code := execute([]string{"--manifest", path, mode.Git, "status"})

	assert.Zero(t, code)
	assert.Equal(t, path, manifestPath)
	assert.Equal(t, []string{"status"}, opts.GitArgs)

	code = execute([]string{"--manifest", path, mode.Git, "--", "log", "--oneline", "-3"})

	assert.Zero(t, code)
	assert.Equal(t, []string{"log", "--oneline", "-3"}, opts.GitArgs)
}

func TestGitFlagsRequireSeparator(t *testing.T) {
	assert.Equal(t, usageExitCode, execute([]string{mode.Git, "status", "--porcelain"}))
}

func TestAddModelRejectsBlankArguments(t *testing.T) {
	assert.Equal(t, usageExitCode, execute([]string{mode.AddModel, "", "/tmp/model"}))
	assert.Equal(t, usageExitCode, execute([]string{mode.AddModel, "jdoe", "  "}))
}
