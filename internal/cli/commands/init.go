package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conduit-lang/ormbind/internal/cli/ui"
	"github.com/conduit-lang/ormbind/internal/config"
)

// initAnswers is the subset of the configuration init asks about
type initAnswers struct {
	SharedCacheMode    string
	DefaultConcurrency string
	ImplicitNaming     string
	PhysicalNaming     string
	DefaultSchema      string
	Driver             string
	DatabaseURL        string
	RedisAddr          string
}

func defaultAnswers() *initAnswers {
	cfg := config.Default()
	return &initAnswers{
		SharedCacheMode:    cfg.Cache.SharedCacheMode,
		DefaultConcurrency: cfg.Cache.DefaultConcurrency,
		ImplicitNaming:     cfg.Naming.Implicit,
		PhysicalNaming:     cfg.Naming.Physical,
		DefaultSchema:      cfg.Naming.DefaultSchema,
		Driver:             cfg.Database.Driver,
		DatabaseURL:        cfg.Database.URL,
		RedisAddr:          cfg.Redis.Addr,
	}
}

func newInitCommand(opts *globalOptions) *cobra.Command {
	var (
		output   string
		force    bool
		defaults bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write an ormbind.yaml configuration",
		Long: `Init asks for the binding, naming, database and report store settings
and writes them to ormbind.yaml. Use --defaults to skip the prompts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = config.FileName + ".yaml"
			}
			if _, err := os.Stat(output); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", output)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			answers := defaultAnswers()
			if !defaults {
				if err := askInit(answers); err != nil {
					return err
				}
			}

			data, err := yaml.Marshal(answers.document())
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			if _, err := config.Load(output); err != nil {
				ui.ConfigFailure(err).Write(cmd.ErrOrStderr(), opts.noColor)
				return reported(err)
			}

			ui.Success(cmd.OutOrStdout(), "wrote "+output, opts.noColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default ormbind.yaml)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Write the defaults without prompting")

	return cmd
}

func askInit(a *initAnswers) error {
	questions := []*survey.Question{
		{
			Name: "SharedCacheMode",
			Prompt: &survey.Select{
				Message: "Shared cache mode:",
				Options: []string{"unspecified", "all", "enable_selective", "disable_selective", "none"},
				Default: a.SharedCacheMode,
			},
		},
		{
			Name: "DefaultConcurrency",
			Prompt: &survey.Select{
				Message: "Default cache concurrency:",
				Options: []string{"read_write", "read_only", "nonstrict_read_write", "transactional"},
				Default: a.DefaultConcurrency,
			},
		},
		{
			Name: "ImplicitNaming",
			Prompt: &survey.Select{
				Message: "Implicit naming strategy:",
				Options: []string{"jpa", "component_path"},
				Default: a.ImplicitNaming,
			},
		},
		{
			Name: "PhysicalNaming",
			Prompt: &survey.Select{
				Message: "Physical naming strategy:",
				Options: []string{"identity", "snake_case"},
				Default: a.PhysicalNaming,
			},
		},
		{
			Name:   "DefaultSchema",
			Prompt: &survey.Input{Message: "Default schema (empty for none):", Default: a.DefaultSchema},
		},
		{
			Name: "Driver",
			Prompt: &survey.Select{
				Message: "Database driver for schema checks:",
				Options: []string{"postgres", "pgx", "sqlite3"},
				Default: a.Driver,
			},
		},
		{
			Name:   "DatabaseURL",
			Prompt: &survey.Input{Message: "Database URL (empty to skip):", Default: a.DatabaseURL},
		},
		{
			Name:   "RedisAddr",
			Prompt: &survey.Input{Message: "Redis address for the report store (empty for memory):", Default: a.RedisAddr},
		},
	}
	return survey.Ask(questions, a)
}

// document lays the answers out as ormbind.yaml
func (a *initAnswers) document() map[string]interface{} {
	doc := map[string]interface{}{
		"cache": map[string]string{
			"shared_cache_mode":   a.SharedCacheMode,
			"default_concurrency": a.DefaultConcurrency,
		},
		"naming": map[string]string{
			"implicit":       a.ImplicitNaming,
			"physical":       a.PhysicalNaming,
			"default_schema": a.DefaultSchema,
		},
		"database": map[string]string{
			"driver": a.Driver,
			"url":    a.DatabaseURL,
		},
	}
	if a.RedisAddr != "" {
		doc["redis"] = map[string]string{"addr": a.RedisAddr}
	}
	return doc
}
