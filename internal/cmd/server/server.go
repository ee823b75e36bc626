// Package server parses server command flags and starts the HTTP runtime.
package server

import (
	"context"
	"flag"

	app "github.com/caldermtz/tidechest/internal/app/server"
	entrypoint "github.com/caldermtz/tidechest/internal/platform/cmd"
)

// ParseConfig parses environment and flags into a server config.
func ParseConfig(fs *flag.FlagSet, args []string) (app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, err
	}
	fs.IntVar(&cfg.Port, "port", cfg.Port, "The HTTP server port")
	fs.StringVar(&cfg.DBPath, "db", cfg.DBPath, "The SQLite database path")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

// Run starts the tidechest HTTP service.
func Run(ctx context.Context, cfg app.Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		srv, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			_ = srv.Close()
		}()
		return srv.Serve(ctx)
	})
}
