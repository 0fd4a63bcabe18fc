package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/poet/internal/logger"
)

func main() {
	app := &cli.Command{
		Name:  "poet",
		Usage: "Classical Chinese poem generator",
		Flags: loggingFlags(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg, err := LoadConfig(configPath())
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("error: config: %v", err), 1)
			}
			userConfig = cfg
			applyRootConfig(cmd, cfg)

			level := logLevel
			if debug {
				level = "debug"
			}
			log, err := logger.Build(os.Stderr, logFormat, level, stderrIsTTY())
			if err != nil {
				return ctx, cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			return logger.WithContext(ctx, log), nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			generateCmd(),
			serveCmd(),
			genresCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
