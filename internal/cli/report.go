package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feastradar/feastradar/internal/feast"
)

// NewReportCommand creates the report command.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report <feast-id>",
		Short: "Report a feast as over or inaccurate",
		Long: `Report a feast. Enough reports deactivate it server-side; once a
feast is known to be inactive, further reports are refused locally.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, rootOpts, args[0])
		},
	}
	return cmd
}

func runReport(cmd *cobra.Command, rootOpts *RootOptions, feastID string) error {
	e, err := newEnv(rootOpts)
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck // nothing local to roll back

	reported, err := e.feasts.Report(cmd.Context(), feastID)
	if err != nil {
		if errors.Is(err, feast.ErrInactive) {
			return fmt.Errorf("feast %s is no longer active", feastID)
		}
		return err
	}

	f := &Formatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return f.Feast(reported)
}
