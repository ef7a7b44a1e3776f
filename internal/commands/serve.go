package commands

import (
	"github.com/spf13/cobra"

	httpadapter "github.com/custodia-labs/documind/internal/adapters/driving/http"
	"github.com/custodia-labs/documind/internal/worker"
)

func (c *cli) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the ingestion worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.serve(cmd)
		},
	}

	cmd.Flags().String("host", "", "listen host")
	cmd.Flags().Int("port", 0, "listen port")
	_ = c.viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))
	_ = c.viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

func (c *cli) serve(cmd *cobra.Command) error {
	ctx := cmd.Context()
	cfg := c.cfg

	c.logger.Info("documind starting", "version", c.version)

	a, err := newApp(ctx, cfg, c.logger)
	if err != nil {
		return err
	}
	defer a.Close()

	w, err := worker.NewWorker(worker.WorkerConfig{
		Runner:         a.newRunner(),
		Logger:         c.logger,
		Concurrency:    cfg.Worker.Concurrency,
		ReleaseTimeout: cfg.Worker.ReleaseTimeout,
	})
	if err != nil {
		return err
	}
	defer w.Stop()
	a.services.AddCheck("worker", w.Check)

	server := httpadapter.NewServer(httpadapter.Config{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        c.version,
		MaxUploadBytes: cfg.Upload.MaxFileSize(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         c.logger,
	}, a.handlers(w), a.services)

	return server.Start(ctx)
}
