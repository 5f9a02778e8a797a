package cli

import (
	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sign-in, registration, and location push",
		Long: `Run one full sync pass: ensure a signed-in session exists, register
this installation with the backend if it has not been already, and push
the current location. The same pass the agent runs periodically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, rootOpts)
		},
	}
	return cmd
}

func runSync(cmd *cobra.Command, rootOpts *RootOptions) error {
	e, err := newEnv(rootOpts)
	if err != nil {
		return err
	}
	defer e.Close() //nolint:errcheck // profile writes are already flushed

	ctx := cmd.Context()
	e.orch.Initialize(ctx)
	e.orch.RefreshLocation(ctx)

	principal := e.identity.CurrentPrincipal()
	registered := false
	if principal != "" {
		registered, _ = e.store.Registered(ctx, principal) //nolint:errcheck // display only
	}

	data := map[string]interface{}{
		"principal":  principal,
		"registered": registered,
	}
	text := "Sync pass completed."
	if principal == "" {
		text = "Sync pass completed, but no session could be established."
	}

	f := &Formatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
	return f.Message(data, text)
}
