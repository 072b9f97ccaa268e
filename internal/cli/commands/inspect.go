package commands

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/ormbind/internal/cache"
	"github.com/conduit-lang/ormbind/internal/cli/ui"
	"github.com/conduit-lang/ormbind/internal/orm/report"
)

func newInspectCommand(opts *globalOptions) *cobra.Command {
	var (
		reportPath string
		table      string
	)

	cmd := &cobra.Command{
		Use:   "inspect [entity]",
		Short: "Show the entities of the latest stored report",
		Long: `Inspect reads the latest report saved by "ormbind bind --store", or a
report file written by "ormbind bind --format json", and lists its entities.
With an entity name it shows that entity's properties and callbacks.

Examples:
  ormbind inspect
  ormbind inspect com.acme.Dog
  ormbind inspect --table Animal
  ormbind inspect Dog --report zoo-report.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			r, err := s.loadReport(cmd, reportPath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case table != "":
				return s.showTable(out, r, table)
			case len(args) == 1:
				return s.showEntity(out, r, args[0])
			default:
				ui.Heading(out, fmt.Sprintf("Report %s (%s)", r.RunID, r.CreatedAt.Format("2006-01-02 15:04:05")), s.noColor)
				renderEntities(out, r.Entities, s.noColor)
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&reportPath, "report", "", "Read a report file instead of the report store")
	cmd.Flags().StringVar(&table, "table", "", "Show one table instead of the entities")

	return cmd
}

func (s *session) loadReport(cmd *cobra.Command, path string) (*report.Report, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read report: %w", err)
		}
		return report.Parse(data)
	}

	ctx := cmd.Context()
	reports, backend, err := s.store(ctx)
	if err != nil {
		return nil, err
	}
	defer backend.Close()

	r, err := reports.Latest(ctx)
	if cache.IsCacheMiss(err) {
		ui.Message{
			Level:   ui.LevelError,
			Title:   "no stored report",
			Problem: "The report store holds no report.",
			Help: []string{
				"Store one: ormbind bind <files...> --store",
				"Or read a file: ormbind inspect --report <file>",
			},
		}.Write(cmd.ErrOrStderr(), s.noColor)
		return nil, reported(err)
	}
	return r, err
}

func (s *session) showEntity(w io.Writer, r *report.Report, name string) error {
	entity, ok := r.Entity(name)
	if !ok {
		var names []string
		for _, e := range r.Entities {
			names = append(names, e.Name, e.JPAName)
		}
		ui.NotFound("entity", name, ui.Suggest(name, names, 3), "ormbind inspect").
			Write(s.cmd.ErrOrStderr(), s.noColor)
		return reported(fmt.Errorf("entity %s not found", name))
	}

	ui.Heading(w, entity.Name, s.noColor)
	details := ui.NewDetails(w, s.noColor)
	details.Add("Entity name", entity.JPAName)
	details.Add("Kind", entity.Kind)
	details.Add("Table", entity.Table)
	details.Add("Super", entity.Super)
	details.Add("Mapped superclass", entity.MappedSuperclass)
	details.Add("Discriminator", entity.DiscriminatorValue)
	if entity.Identifier != nil {
		details.Add("Identifier", entity.Identifier.Name+" ("+entity.Identifier.Column+")")
	}
	details.Add("Version", entity.Version)
	if entity.Abstract {
		details.Add("Abstract", "yes")
	}
	details.Render()
	fmt.Fprintln(w)

	props := ui.NewTable(w, s.noColor, "PROPERTY", "TABLE", "COLUMN", "TYPE", "NULLABLE", "CONVERTER")
	for _, p := range entity.Properties {
		props.AddRow(p.Name, p.Table, p.Column, p.Type, strconv.FormatBool(p.Nullable), dash(p.Converter))
	}
	props.Render()

	if len(entity.Callbacks) > 0 {
		fmt.Fprintln(w)
		callbacks := ui.NewTable(w, s.noColor, "EVENT", "SOURCE", "CLASS", "METHOD")
		for _, c := range entity.Callbacks {
			callbacks.AddRow(c.Event, c.Source, c.Class, c.Method)
		}
		callbacks.Render()
	}
	return nil
}

func (s *session) showTable(w io.Writer, r *report.Report, name string) error {
	table, ok := r.Table(name)
	if !ok {
		names := make([]string, len(r.Tables))
		for i, t := range r.Tables {
			names[i] = t.Name
		}
		ui.NotFound("table", name, ui.Suggest(name, names, 3), "ormbind bind <files...>").
			Write(s.cmd.ErrOrStderr(), s.noColor)
		return reported(fmt.Errorf("table %s not found", name))
	}

	ui.Heading(w, table.Name, s.noColor)
	details := ui.NewDetails(w, s.noColor)
	details.Add("Includes", table.Includes)
	if table.Abstract {
		details.Add("Abstract", "yes")
	}
	details.Render()

	columns := ui.NewTable(w, s.noColor, "COLUMN", "DEFINITION", "NULLABLE", "UNIQUE")
	for _, c := range table.Columns {
		columns.AddRow(c.Name, c.Definition, strconv.FormatBool(c.Nullable), strconv.FormatBool(c.Unique))
	}
	columns.Render()
	return nil
}
