package cmd

import (
	"github.com/spf13/cobra"

	"suite-installer/internal/mode"
)

// Version is the installer version, set at build time with
// -ldflags "-X suite-installer/cmd.Version=...".
var Version = "dev"

// usageExitCode is returned when cobra rejects the command line.
const usageExitCode = 2

var (
	debug        bool
	manifestPath string
	assumeYes    bool
)

// opts collects the mode flags; every subcommand binds the fields it accepts.
var opts mode.Options

// exitCode is the result of the mode that ran during Execute.
var exitCode int

// rootCmd runs the complete installation when no subcommand is given.
var rootCmd = &cobra.Command{
	Use:           "suite-installer",
	Short:         "Build and install the scientific suite from source",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.All)
	},
}

// Execute parses the command line, runs the selected mode and returns the
// process exit code.
func Execute() int {
	return execute(nil)
}

func execute(args []string) int {
	exitCode = 0
	if args != nil {
		rootCmd.SetArgs(args)
	}
	if err := rootCmd.Execute(); err != nil {
		return usageExitCode
	}
	return exitCode
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Print debug output")
	rootCmd.PersistentFlags().StringVar(&manifestPath, "manifest", "suite.yaml", "Path to the suite manifest")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "Answer yes to every confirmation")

	addPipelineFlags(rootCmd)
}

// addPipelineFlags registers the flags of the all pipeline on cmd.
func addPipelineFlags(cmd *cobra.Command) {
	addBranchFlag(cmd)
	addBuildFlags(cmd)
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Regenerate the build configuration from defaults")
}

func addBranchFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&opts.Branch, "branch", "b", "", "Branch to check out in every repository")
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "Parallel build jobs (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.KeepOutput, "keep-output", false, "Stream the full CMake output")
}
