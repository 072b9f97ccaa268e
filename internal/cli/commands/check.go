package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/ormbind/internal/cli/ui"
	"github.com/conduit-lang/ormbind/internal/orm/schemacheck"
)

func newCheckCommand(opts *globalOptions) *cobra.Command {
	var (
		driver string
		url    string
	)

	cmd := &cobra.Command{
		Use:   "check <files...>",
		Short: "Compare the bound tables with a live database",
		Long: `Check binds the declaration documents, then looks up every concrete table
and column in the configured database and lists what is missing.

Examples:
  ormbind check zoo.yaml
  ormbind check zoo.yaml --driver sqlite3 --database-url zoo.db`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			if driver != "" {
				s.cfg.Database.Driver = driver
			}
			if url != "" {
				s.cfg.Database.URL = url
			}
			if s.cfg.Database.URL == "" {
				err := fmt.Errorf("database.url is not set")
				ui.ConfigFailure(err).Write(cmd.ErrOrStderr(), s.noColor)
				return reported(err)
			}

			b, _, err := s.bind(args)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			checker, err := schemacheck.Open(ctx, s.cfg.Database.Driver, s.cfg.Database.URL, s.logger)
			if err != nil {
				return err
			}
			defer checker.Close()

			result, err := checker.Check(ctx, b.Context().Collector.Tables())
			if err != nil {
				return err
			}
			return renderCheck(cmd.OutOrStdout(), result, s.noColor)
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Database driver: pgx, postgres or sqlite3 (default from config)")
	cmd.Flags().StringVar(&url, "database-url", "", "Database URL (default from config)")

	return cmd
}

func renderCheck(w io.Writer, result *schemacheck.Result, noColor bool) error {
	if result.OK() {
		ui.Success(w, fmt.Sprintf("all %d tables match the database", result.Checked), noColor)
		return nil
	}

	table := ui.NewTable(w, noColor, "TABLE", "MISSING")
	for _, t := range result.MissingTables {
		table.AddRow(t, "table")
	}
	for _, c := range result.MissingColumns {
		table.AddRow(c.Table, "column "+c.Column)
	}
	table.Render()

	err := fmt.Errorf("schema check found %d missing tables and %d missing columns",
		len(result.MissingTables), len(result.MissingColumns))
	fmt.Fprintln(w)
	ui.Message{Level: ui.LevelError, Title: "schema mismatch", Problem: err.Error()}.Write(w, noColor)
	return reported(err)
}
