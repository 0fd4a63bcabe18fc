package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/poet/internal/catalog"
	"github.com/samcharles93/poet/internal/genre"
	"github.com/samcharles93/poet/internal/logger"
)

func genresCmd() *cli.Command {
	return &cli.Command{
		Name:  "genres",
		Usage: "List poetic forms and the configured models",
		Flags: append(catalogFlags(), genreFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			if userConfig.GenresConfig != "" && !cmd.IsSet("genres-config") {
				genresConfig = userConfig.GenresConfig
			}
			entries, err := catalog.Resolve(catalog.Options{
				ConfigPath: genresConfig,
				Genre:      genreName,
				VocabPath:  vocabPath,
				ModelPath:  modelPath,
			})
			if err != nil {
				log.Warn("genre registry unavailable", "error", err)
			}
			printGenres(os.Stdout, entries)
			return nil
		},
	}
}

func printGenres(w io.Writer, entries []catalog.Entry) {
	for _, g := range genre.All() {
		_, _ = fmt.Fprintf(w, "  %-6s %s  %dx%d (%d chars)  aliases: %s\n",
			g.Key, g.Name, g.Rows, g.Cols, g.Length(), strings.Join(genre.Aliases(g), ", "))
		if e, ok := catalog.Find(entries, g); ok {
			_, _ = fmt.Fprintf(w, "         vocab: %s\n         model: %s\n", e.VocabularyPath, e.ModelPath)
		}
	}
	_, _ = fmt.Fprintf(w, "\n%d of %d form(s) configured\n", len(entries), len(genre.All()))
}
