package cli

import (
	"github.com/spf13/cobra"

	"github.com/terminally-online/verifyusers/internal/verify"
)

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the user table without changing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeDB()

			return verify.List(cmd.Context(), store, a.out)
		},
	}
}
