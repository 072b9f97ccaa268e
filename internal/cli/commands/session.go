package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/ormbind/internal/cache"
	"github.com/conduit-lang/ormbind/internal/cli/ui"
	"github.com/conduit-lang/ormbind/internal/config"
	"github.com/conduit-lang/ormbind/internal/orm/binder"
	"github.com/conduit-lang/ormbind/internal/orm/decl"
	"github.com/conduit-lang/ormbind/internal/orm/report"
)

// session is the loaded configuration and logger of one command run
type session struct {
	cmd     *cobra.Command
	cfg     *config.Config
	logger  *zap.Logger
	noColor bool
}

func (o *globalOptions) open(cmd *cobra.Command) (*session, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		ui.ConfigFailure(err).Write(cmd.ErrOrStderr(), o.noColor)
		return nil, reported(err)
	}
	if o.verbose {
		cfg.Logging.Level = zapcore.DebugLevel.String()
	}
	logger, err := cfg.Logger()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &session{cmd: cmd, cfg: cfg, logger: logger, noColor: o.noColor}, nil
}

func (s *session) close() {
	_ = s.logger.Sync()
}

// bind loads the declaration documents and runs one bootstrap
func (s *session) bind(paths []string) (*binder.Binder, *report.Report, error) {
	registry, err := decl.LoadFiles(paths...)
	if err != nil {
		ui.BindFailure(err).Write(s.cmd.ErrOrStderr(), s.noColor)
		return nil, nil, reported(err)
	}

	options, err := s.cfg.BindingOptions()
	if err != nil {
		return nil, nil, err
	}
	strategies, err := s.cfg.NamingStrategies()
	if err != nil {
		return nil, nil, err
	}

	b := binder.New(&binder.BuildingContext{
		Registry: registry,
		Options:  options,
		Naming:   strategies,
		Logger:   s.logger,
	})
	if err := b.Bind(binder.ManagedResources{}); err != nil {
		ui.BindFailure(err).Write(s.cmd.ErrOrStderr(), s.noColor)
		return nil, nil, reported(err)
	}

	r, err := report.Build(b)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build report: %w", err)
	}
	return b, r, nil
}

// store opens the configured report store. The caller closes the cache.
func (s *session) store(ctx context.Context) (*cache.ReportStore, cache.Cache, error) {
	var backend cache.Cache
	if s.cfg.UsesRedis() {
		redisCache, err := cache.NewRedisCache(ctx, s.cfg.StoreConfig())
		if err != nil {
			return nil, nil, err
		}
		backend = redisCache
	} else {
		backend = cache.NewMemoryCacheWithConfig(s.cfg.StoreConfig().Cache)
	}
	return cache.NewReportStore(backend, s.cfg.Redis.TTL, s.logger), backend, nil
}
