package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"suite-installer/internal/mode"
)

var getModelsCmd = &cobra.Command{
	Use:   mode.GetModels,
	Short: "Download and unpack the model archives listed in the manifest",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode = runMode(mode.GetModels)
	},
}

var addModelCmd = &cobra.Command{
	Use:   "addModel <login> <model-dir>",
	Short: "Pack a model directory and upload it to the model host",
	Args:  cobra.MatchAll(cobra.ExactArgs(2), nonEmptyArgs),
	Run: func(cmd *cobra.Command, args []string) {
		opts.Login, opts.ModelPath = args[0], args[1]
		exitCode = runMode(mode.AddModel)
	},
}

// nonEmptyArgs rejects blank positional arguments.
func nonEmptyArgs(cmd *cobra.Command, args []string) error {
	for i, arg := range args {
		if strings.TrimSpace(arg) == "" {
			return fmt.Errorf("argument %d of %s must not be empty", i+1, cmd.Name())
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(getModelsCmd, addModelCmd)
}
