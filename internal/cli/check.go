package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the database has the expected tables and columns",
		Long: `Connect to the database and confirm that the users table exposes Name,
Email and EmailVerified, plus the optional token and activity-log columns
when those features are enabled. No rows are read or written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			if err := store.CheckSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Schema OK: %s\n", a.cfg.GetTable(&a.flags))
			return nil
		},
	}
}
