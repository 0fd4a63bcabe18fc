package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/poet/internal/api"
	"github.com/samcharles93/poet/internal/catalog"
	"github.com/samcharles93/poet/internal/inference"
	"github.com/samcharles93/poet/internal/logger"
)

func serveCmd() *cli.Command {
	var (
		settings    samplingSettings
		addr        string
		readTimeout time.Duration
		lazy        bool
	)

	flags := append(catalogFlags(), genreFlag(),
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:7860",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read header timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.BoolFlag{
			Name:        "lazy",
			Usage:       "load models on first request instead of at startup",
			Destination: &lazy,
		},
	)
	flags = append(flags, samplingFlags(&settings)...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the poem REST API",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			applySamplingConfig(cmd, userConfig, &settings)
			applyServeConfig(cmd, userConfig, &addr)
			defaults, err := settings.defaults()
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			entries, err := catalog.Resolve(catalog.Options{
				ConfigPath: genresConfig,
				Genre:      genreName,
				VocabPath:  vocabPath,
				ModelPath:  modelPath,
			})
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: genre registry: %v", err), 1)
			}

			provider := api.NewCachedEngineProvider(api.EngineProviderConfig{
				Entries:  entries,
				Defaults: defaults,
				Loader:   inference.Loader{},
			})
			if !lazy {
				if err := provider.Preload(ctx); err != nil {
					return cli.Exit(fmt.Sprintf("error: load model: %v", err), 1)
				}
			}

			service := api.NewPoemService(provider, api.NewPoemStore())
			e := api.NewEcho(api.NewServer(service))
			log.Info("starting server", "address", addr, "genres", len(entries))
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
