package main

import "github.com/urfave/cli/v3"

var (
	genresConfig string
	genreName    string
	vocabPath    string
	modelPath    string
	logLevel     string
	logFormat    string
	debug        bool
)

func catalogFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "genres-config",
			Aliases:     []string{"catalog"},
			Usage:       "path to the genre registry JSON (defaults to $POET_GENRES_CONFIG, then ./poem_config.json)",
			Destination: &genresConfig,
		},
		&cli.StringFlag{
			Name:        "vocab",
			Aliases:     []string{"vocabulary"},
			Usage:       "vocabulary file for the single-genre setup",
			Destination: &vocabPath,
		},
		&cli.StringFlag{
			Name:        "model",
			Aliases:     []string{"m"},
			Usage:       "safetensors model for the single-genre setup",
			Destination: &modelPath,
		},
	}
}

func genreFlag() cli.Flag {
	return &cli.StringFlag{
		Name:        "genre",
		Aliases:     []string{"g"},
		Usage:       "poetic form (WUJUE, QIJUE, WULV, QILV or a Chinese alias)",
		Destination: &genreName,
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}
