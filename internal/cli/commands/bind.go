package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/ormbind/internal/cli/ui"
	"github.com/conduit-lang/ormbind/internal/orm/report"
)

func newBindCommand(opts *globalOptions) *cobra.Command {
	var (
		format string
		store  bool
	)

	cmd := &cobra.Command{
		Use:   "bind <files...>",
		Short: "Bind declaration documents and print the mapping summary",
		Long: `Bind loads one or more YAML declaration documents, binds every managed
entity hierarchy and prints the resulting hierarchies, entities and tables.

Examples:
  ormbind bind zoo.yaml
  ormbind bind zoo.yaml keepers.yaml --format json
  ormbind bind zoo.yaml --store`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "json" {
				return fmt.Errorf("unknown format %q (expected text or json)", format)
			}

			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			_, r, err := s.bind(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				data, err := r.JSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			} else {
				renderSummary(out, r, s.noColor)
			}

			if !store {
				return nil
			}
			ctx := cmd.Context()
			reports, backend, err := s.store(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()
			if err := reports.Save(ctx, r); err != nil {
				return err
			}
			if !s.cfg.UsesRedis() {
				ui.Message{
					Level:   ui.LevelWarning,
					Title:   "memory store",
					Problem: "redis.addr is not set; the report is kept only for this process",
					Help:    []string{"Configure redis.addr to inspect reports later"},
				}.Write(cmd.ErrOrStderr(), s.noColor)
			}
			ui.Success(cmd.ErrOrStderr(), "stored report "+r.RunID.String(), s.noColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&store, "store", false, "Save the report in the report store")

	return cmd
}

// renderSummary prints hierarchies, entities, tables and diagnostics
func renderSummary(w io.Writer, r *report.Report, noColor bool) {
	ui.Heading(w, "Hierarchies", noColor)
	hierarchies := ui.NewTable(w, noColor, "ROOT", "INHERITANCE", "ACCESS", "CACHE", "ENTITIES")
	for _, h := range r.Hierarchies {
		cache := "-"
		if h.Cached {
			cache = h.CacheRegion + " (" + h.CacheConcurrency + ")"
		}
		hierarchies.AddRow(h.Root, h.Inheritance, h.Access, cache, strconv.Itoa(len(h.Entities)))
	}
	hierarchies.Render()
	fmt.Fprintln(w)

	ui.Heading(w, "Entities", noColor)
	renderEntities(w, r.Entities, noColor)
	fmt.Fprintln(w)

	ui.Heading(w, "Tables", noColor)
	tables := ui.NewTable(w, noColor, "TABLE", "PRIMARY KEY", "COLUMNS")
	for _, t := range r.Tables {
		name := t.Name
		if t.Abstract {
			name += " (abstract)"
		}
		columns := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			columns[i] = c.Name
		}
		tables.AddRow(name, strings.Join(t.PrimaryKey, ","), strings.Join(columns, ", "))
	}
	tables.Render()

	if len(r.Diagnostics) > 0 {
		fmt.Fprintln(w)
		for _, d := range r.Diagnostics {
			ui.Message{
				Level:   ui.LevelWarning,
				Title:   d.Code,
				Problem: d.Message,
			}.Write(w, noColor)
		}
	}

	fmt.Fprintln(w)
	ui.Success(w, fmt.Sprintf("bound %d entities in %d hierarchies", len(r.Entities), len(r.Hierarchies)), noColor)
}

func renderEntities(w io.Writer, entities []report.Entity, noColor bool) {
	table := ui.NewTable(w, noColor, "ENTITY", "KIND", "TABLE", "SUPER", "DISCRIMINATOR")
	for _, e := range entities {
		table.AddRow(e.Name, e.Kind, e.Table, dash(e.Super), dash(e.DiscriminatorValue))
	}
	table.Render()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
