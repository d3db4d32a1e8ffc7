package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/clinic/clinic/internal/domain/reporting"
	"github.com/clinic/clinic/internal/platform/console"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "List and run predefined reports"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the predefined reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0, len(reporting.Predefined))
			for _, d := range reporting.Predefined {
				params := make([]string, 0, len(d.Parameters))
				for _, p := range d.Parameters {
					params = append(params, p.Name+"="+p.Kind)
				}
				rows = append(rows, []string{d.ID, fmt.Sprint(d.Menu), d.Description, strings.Join(params, " ")})
			}
			return console.Table(cmd.OutOrStdout(), []string{"ID", "MENU", "DESCRIPTION", "PARAMETERS"}, rows)
		},
	})

	var params []string
	run := &cobra.Command{
		Use:   "run <id>",
		Short: "Run a report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := parseParams(params)
			if err != nil {
				return err
			}
			if reporting.Find(args[0]) == nil {
				return fmt.Errorf("%w: %s", reporting.ErrReportNotFound, args[0])
			}
			return withApp(cmd, func(ctx context.Context, a *app) error {
				rep, err := a.reports.Run(ctx, args[0], raw)
				if err != nil {
					return err
				}
				return console.Table(cmd.OutOrStdout(), rep.Result.Columns, rep.Result.Rows)
			})
		},
	}
	run.Flags().StringArrayVar(&params, "param", nil, "report parameter as name=value (repeatable)")
	cmd.AddCommand(run)

	return cmd
}

// parseParams turns name=value pairs into a map. A name given twice keeps
// the last value.
func parseParams(pairs []string) (map[string]string, error) {
	raw := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --param %q: want name=value", pair)
		}
		raw[name] = value
	}
	return raw, nil
}
