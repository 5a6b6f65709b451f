package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/terminally-online/verifyusers/internal/config"
	"github.com/terminally-online/verifyusers/internal/database"
	"github.com/terminally-online/verifyusers/internal/logger"
	"github.com/terminally-online/verifyusers/internal/verify"
)

var version = "dev"

// app carries the per-invocation state shared by every command.
type app struct {
	cfgFile string
	envFile string
	cfg     *config.Config
	flags   config.Flags
	out     io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	rootCmd := &cobra.Command{
		Use:   "verifyusers",
		Short: "Mark every unverified user as verified",
		Long: `verifyusers connects to the users database, sets EmailVerified on every
user that has not confirmed their email yet, and prints the resulting
user table.

Run without a subcommand to perform the update.`,
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.loadConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runVerify(cmd.Context(), false)
		},
	}
	rootCmd.SetOut(out)

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "verifyusers.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&a.flags.URL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().StringVar(&a.flags.Driver, "driver", "", "database driver: sqlserver, postgres or sqlite")
	rootCmd.PersistentFlags().StringVar(&a.flags.Table, "table", "", "users table name")

	rootCmd.AddCommand(newVerifyCmd(a))
	rootCmd.AddCommand(newStatusCmd(a))
	rootCmd.AddCommand(newListCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.out, "verifyusers %s\n", version)
		},
	})

	return rootCmd
}

func (a *app) loadConfig() error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}
	cfg, err := config.LoadOrDefault(a.cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	a.cfg = cfg
	return nil
}

// openStore resolves the connection settings and connects. The returned
// close function must be called on every path.
func (a *app) openStore(ctx context.Context) (*verify.Store, func(), error) {
	driver, err := a.cfg.GetDriver(&a.flags)
	if err != nil {
		return nil, nil, err
	}
	dsn, err := a.cfg.GetDatabaseURL(&a.flags)
	if err != nil {
		return nil, nil, err
	}
	timeout, err := a.cfg.GetConnectTimeout()
	if err != nil {
		return nil, nil, err
	}
	dialect, err := database.DialectFor(driver)
	if err != nil {
		return nil, nil, err
	}

	table := a.cfg.GetTable(&a.flags)
	logger.Logger.Debug().Str("driver", driver).Str("table", table).Dur("timeout", timeout).Msg("connecting")

	db, err := verify.Connect(ctx, dialect, dsn, timeout)
	if err != nil {
		return nil, nil, err
	}

	store := verify.NewStore(db, dialect, verify.Options{
		Table:                   table,
		ActivityLog:             a.cfg.ActivityLog,
		ClearVerificationTokens: a.cfg.ClearVerificationTokens,
	})
	return store, closer(db), nil
}

func closer(db *sql.DB) func() {
	return func() {
		if err := db.Close(); err != nil {
			logger.Logger.Warn().Err(err).Msg("failed to close database")
		}
	}
}

func SetVersion(v string) {
	version = v
}

// Execute runs the command line and returns the process exit code. Every
// failure is printed to out as "Error: <message>" and yields exit code 1.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) int {
	logger.InitWithWriter(errOut)

	rootCmd := newRootCmd(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Logger.Error().Err(err).Str("kind", verify.Kind(err)).Msg("verifyusers failed")
		fmt.Fprintf(out, "Error: %v\n", err)
		return 1
	}
	return 0
}

// Root returns the command tree, for documentation generation.
func Root() *cobra.Command {
	return newRootCmd(io.Discard)
}
