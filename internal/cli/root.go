// Package cli implements timetablectl, an offline planner for trying the allocator on YAML fixtures.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagVerbose bool
	flagNoColor bool

	logger = zap.NewNop()
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "timetablectl",
		Short: "Plan faculty timetables offline",
		Long:  "timetablectl runs the timetable allocator against YAML fixtures without a database.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagNoColor {
				color.NoColor = true
			}
			if !flagVerbose {
				logger = zap.NewNop()
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log allocator phases")
	root.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")

	root.AddCommand(newPlanCmd())
	return root
}
