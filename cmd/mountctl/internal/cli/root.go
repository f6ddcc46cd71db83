// Package cli implements the mountctl command-line interface.
//
// mountctl replays scenarios, YAML files listing successive render tree
// generations, through a MountState and prints the lifecycle calls each
// generation caused. It is a debugging aid for descriptor authors and the
// source of the golden traces in testdata/golden.
//
// All commands read an optional mountcore.yaml from --config and support
// --verbose for debug logging. Loggers are passed through context.Context.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/go-drift/mountcore/pkg/config"
	"github.com/go-drift/mountcore/pkg/errors"
)

// Execute runs the mountctl CLI.
func Execute(ctx context.Context) error {
	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	var (
		verbose   bool
		configDir string
	)

	root := &cobra.Command{
		Use:           "mountctl",
		Short:         "Replay render tree generations through the mount engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(configDir)
			if err != nil {
				return err
			}
			level, err := cfg.LogLevel()
			if err != nil {
				return err
			}
			if verbose {
				level = log.DebugLevel
			}
			logger := newLogger(errOut, level)
			errors.SetHandler(&errors.LogHandler{Verbose: verbose || cfg.Log.Verbose, Logger: logger})

			ctx := withLogger(cmd.Context(), logger)
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&configDir, "config", "c", ".", "directory containing "+config.FileName)

	root.AddCommand(newReplayCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newConfigCmd())
	return root
}
