package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/ormbind/internal/introspect"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var (
		addr  string
		store bool
	)

	cmd := &cobra.Command{
		Use:   "serve <files...>",
		Short: "Bind declarations and serve the report over HTTP",
		Long: `Serve binds the declaration documents and exposes the report on a
read-only JSON API until interrupted.

Endpoints:
  GET /health
  GET /hierarchies
  GET /entities, /entities/{name}
  GET /tables, /tables/{name}
  GET /diagnostics`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer s.close()

			_, r, err := s.bind(args)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if store {
				reports, backend, err := s.store(ctx)
				if err != nil {
					return err
				}
				defer backend.Close()
				if err := reports.Save(ctx, r); err != nil {
					return err
				}
			}

			if addr == "" {
				addr = s.cfg.ServerAddr()
			}
			s.logger.Info("serving report", zap.String("run_id", r.RunID.String()), zap.String("addr", addr))
			server := introspect.NewServer(addr, introspect.NewRouter(r, s.logger), s.logger)
			return server.Serve(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default server.host:server.port)")
	cmd.Flags().BoolVar(&store, "store", false, "Also save the report in the report store")

	return cmd
}
