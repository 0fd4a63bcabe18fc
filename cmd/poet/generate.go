package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/poet/internal/catalog"
	"github.com/samcharles93/poet/internal/genre"
	"github.com/samcharles93/poet/internal/inference"
	"github.com/samcharles93/poet/internal/logger"
)

func generateCmd() *cli.Command {
	var (
		settings samplingSettings
		prompt   string
		stream   bool
	)

	flags := append(catalogFlags(), genreFlag(),
		&cli.StringFlag{
			Name:        "prompt",
			Aliases:     []string{"p"},
			Usage:       "starting characters; omit to read prompts interactively",
			Destination: &prompt,
		},
		&cli.BoolFlag{
			Name:        "stream",
			Usage:       "print characters as they are generated",
			Destination: &stream,
		},
	)
	flags = append(flags, samplingFlags(&settings)...)

	return &cli.Command{
		Name:    "generate",
		Aliases: []string{"gen"},
		Usage:   "Write a poem from a starting phrase",
		Flags:   flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			applySamplingConfig(cmd, userConfig, &settings)
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
			entry, err := selectEntry(entries, genreName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			loaded, err := inference.Loader{}.Load(entry.Genre, entry.VocabularyPath, entry.ModelPath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: load model: %v", err), 1)
			}
			log.Info("model loaded",
				"genre", entry.Genre.Key,
				"vocab", loaded.Vocab.Size(),
				"model", entry.ModelPath,
			)

			if cmd.IsSet("prompt") {
				req := inference.ResolveRequest(inference.RequestOptions{Prompt: prompt}, defaults)
				return writePoem(ctx, os.Stdout, loaded.Engine, req, stream)
			}
			return promptLoop(ctx, os.Stdout, loaded.Engine, defaults, stream, readInteractiveLine)
		},
	}
}

// selectEntry picks the entry for name, or the first entry when name is
// empty.
func selectEntry(entries []catalog.Entry, name string) (catalog.Entry, error) {
	if len(entries) == 0 {
		return catalog.Entry{}, catalog.ErrEmpty
	}
	if strings.TrimSpace(name) == "" {
		return entries[0], nil
	}
	g, err := genre.Parse(name)
	if err != nil {
		return catalog.Entry{}, err
	}
	e, ok := catalog.Find(entries, g)
	if !ok {
		return catalog.Entry{}, fmt.Errorf("genre %s is not configured", g.Key)
	}
	return e, nil
}

// writePoem runs one generation and prints either the warning or the
// formatted poem. In stream mode characters are printed as they arrive and
// broken into the form's lines.
func writePoem(ctx context.Context, w io.Writer, engine inference.Engine, req inference.Request, stream bool) error {
	var emit inference.StreamFunc
	if stream {
		g := engine.Genre()
		width, total := g.LineWidth(), g.Length()
		n := 0
		emit = func(ch string) {
			_, _ = io.WriteString(w, ch)
			n++
			if n%width == 0 && n < total {
				_, _ = io.WriteString(w, "\n")
			}
		}
	}

	res, err := engine.Generate(ctx, &req, emit)
	if err != nil {
		return err
	}
	if res.Warning != "" {
		_, err = fmt.Fprintln(w, res.Warning)
		return err
	}
	if stream {
		_, err = fmt.Fprintln(w)
		return err
	}
	_, err = fmt.Fprintln(w, res.Text)
	return err
}

// promptLoop reads one prompt per line until EOF or /exit and writes a poem
// for each. Generation failures are logged and the loop continues unless
// the context is done.
func promptLoop(ctx context.Context, w io.Writer, engine inference.Engine, defaults inference.GenDefaults, stream bool, read func(prompt string) (string, error)) error {
	log := logger.FromContext(ctx)
	g := engine.Genre()
	_, _ = fmt.Fprintf(w, "%s (%s). Type a starting phrase, /exit to quit.\n", g.Name, g.Key)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := read("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		}

		req := inference.ResolveRequest(inference.RequestOptions{Prompt: line}, defaults)
		if err := writePoem(ctx, w, engine, req, stream); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Error("generation failed", "error", err)
		}
		_, _ = fmt.Fprintln(w)
	}
}
