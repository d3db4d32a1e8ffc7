package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "clinic [dbname port user]",
		Short: "Clinic scheduling: doctors, patients, appointments and bookings",
		Long: "Without a subcommand clinic opens the interactive menu. The optional\n" +
			"positional arguments name the database, port and user to connect as.",
		Args:         cobra.RangeArgs(0, 3),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyConnectionArgs(cmd, args); err != nil {
				return err
			}
			return runMenuCmd(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("database-url", "", "Postgres connection URL (overrides DATABASE_URL)")
	pf.String("db-host", "", "database host (DB_HOST)")
	pf.String("db-port", "", "database port (DB_PORT)")
	pf.String("db-name", "", "database name (DB_NAME)")
	pf.String("db-user", "", "database user (DB_USER)")
	pf.String("db-schema", "", "search_path schema (DB_SCHEMA)")
	pf.String("log-level", "", "log level: debug, info, warn, error (LOG_LEVEL)")
	pf.String("migrations", "", "migrations directory (MIGRATIONS_DIR)")

	rootCmd.AddCommand(menuCmd())
	rootCmd.AddCommand(departmentCmd())
	rootCmd.AddCommand(doctorCmd())
	rootCmd.AddCommand(patientCmd())
	rootCmd.AddCommand(appointmentCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tokenCmd())

	return rootCmd
}

// applyConnectionArgs maps "clinic <dbname> <port> <user>" onto the
// connection flags.
func applyConnectionArgs(cmd *cobra.Command, args []string) error {
	names := []string{"db-name", "db-port", "db-user"}
	if len(args) != 0 && len(args) != len(names) {
		return fmt.Errorf("expected <dbname> <port> <user>, got %d argument(s)", len(args))
	}
	for i, v := range args {
		if err := cmd.Flags().Set(names[i], v); err != nil {
			return err
		}
	}
	return nil
}

func menuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Open the interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenuCmd(cmd)
		},
	}
}

func runMenuCmd(cmd *cobra.Command) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		fmt.Fprint(cmd.OutOrStdout(), "Disconnecting from database...")
		a.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "Done\n\nBye !")
	}()

	m := &menu{registry: a.registry, booking: a.booking, reports: a.reports}
	return m.run(context.Background(), cmd.InOrStdin(), cmd.OutOrStdout())
}
