package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show how many users are verified",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "Total users:       %d\n", counts.Total)
			fmt.Fprintf(a.out, "  ✓ verified:      %d\n", counts.Verified)
			fmt.Fprintf(a.out, "  ○ unverified:    %d\n", counts.Unverified)
			if counts.Unverified == 0 {
				fmt.Fprintln(a.out, "\nNothing to do.")
			}
			return nil
		},
	}
}
