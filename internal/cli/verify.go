package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/terminally-online/verifyusers/internal/logger"
	"github.com/terminally-online/verifyusers/internal/verify"
)

func newVerifyCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Mark all unverified users as verified",
		Long: `Set EmailVerified on every user where it is currently false, commit, and
print the full user table. Use --dry-run to preview without writing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd.Context(), dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report how many users would change without updating")

	return cmd
}

func (a *app) runVerify(ctx context.Context, dryRun bool) error {
	store, closeDB, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if dryRun {
		n, err := verify.Preview(ctx, store, a.out)
		if err != nil {
			return err
		}
		logger.Logger.Info().Int64("unverified", n).Msg("dry run complete")
		return nil
	}

	_, err = verify.Run(ctx, store, a.out)
	return err
}
