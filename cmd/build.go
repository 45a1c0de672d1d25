package cmd

import (
	"github.com/spf13/cobra"

	"suite-installer/internal/mode"
)

var allCmd = &cobra.Command{
	Use:   mode.All,
	Short: "Configure, fetch, build and install the suite (same as no subcommand)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.All)
	},
}

var configCmd = &cobra.Command{
	Use:   mode.Config,
	Short: "Write the build configuration file and show its values",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.Config)
	},
}

var getSourcesCmd = &cobra.Command{
	Use:   mode.GetSources,
	Short: "Clone the suite's repositories, or switch them to --branch",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.GetSources)
	},
}

var configBuildCmd = &cobra.Command{
	Use:   mode.ConfigBuild,
	Short: "Run the CMake configure step with the build configuration",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.ConfigBuild)
	},
}

var compileAndInstallCmd = &cobra.Command{
	Use:   mode.CompileAndInstall,
	Short: "Compile the configured build and install it",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.CompileAndInstall)
	},
}

func init() {
	addPipelineFlags(allCmd)
	configCmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "Regenerate the build configuration from defaults")
	addBranchFlag(getSourcesCmd)
	configBuildCmd.Flags().BoolVar(&opts.KeepOutput, "keep-output", false, "Stream the full CMake output")
	addBranchFlag(compileAndInstallCmd)
	addBuildFlags(compileAndInstallCmd)

	rootCmd.AddCommand(allCmd, configCmd, getSourcesCmd, configBuildCmd, compileAndInstallCmd)
}
