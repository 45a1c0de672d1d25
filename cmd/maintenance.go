package cmd

import (
	"github.com/spf13/cobra"

	"suite-installer/internal/mode"
)

var cleanAllCmd = &cobra.Command{
	Use:   mode.CleanAll,
	Short: "Delete sources, build tree, installation and build configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.CleanAll)
	},
}

var cleanBinCmd = &cobra.Command{
	Use:   mode.CleanBin,
	Short: "Delete the build tree and the installation",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.CleanBin)
	},
}

// gitCmd passes its arguments to git. The installer's own flags are parsed as
// usual, so git flags must follow "--".
var gitCmd = &cobra.Command{
	Use:     "git [--] <args>...",
	Short:   "Run a git command in every repository of the suite",
	Example: "  suite-installer git status\n  suite-installer --manifest other.yaml git -- log --oneline -3",
	Args:    cobra.MatchAll(cobra.MinimumNArgs(1), nonEmptyArgs),
	Run: func(cmd *cobra.Command, args []string) {
		opts.GitArgs = args
		exitCode = runMode(mode.Git)
	},
}

var testCmd = &cobra.Command{
	Use:   mode.Test,
	Short: "List or run the suite's tests",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.Test)
	},
}

var versionCmd = &cobra.Command{
	Use:   mode.Version,
	Short: "Show the installer version and the state of each repository",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.Version)
	},
}

func init() {
	testCmd.Flags().BoolVar(&opts.ShowTests, "show-tests", false, "List the tests without running them")
	testCmd.Flags().StringSliceVar(&opts.TestNames, "tests", nil, "Comma-separated test names to run (default: all)")
	testCmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Tests to run in parallel")

	rootCmd.AddCommand(cleanAllCmd, cleanBinCmd, gitCmd, testCmd, versionCmd)
}
