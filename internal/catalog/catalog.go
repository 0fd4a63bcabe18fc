// Package catalog maps selectable genres to the vocabulary and model files
// that serve them.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/samcharles93/poet/internal/genre"
)

const (
	EnvConfigPath = "POET_GENRES_CONFIG"
	EnvVocabPath  = "POETRY_VOCAB_PATH"
	EnvModelPath  = "POETRY_MODEL_PATH"

	DefaultConfigFile = "poem_config.json"
	DefaultVocabPath  = "poetry_vocabulary.txt"
	DefaultModelPath  = "lstm_poetry_model.safetensors"
)

var (
	ErrEmpty     = errors.New("genre catalog is empty")
	ErrDuplicate = errors.New("genre configured more than once")
)

type Entry struct {
	Genre          genre.Genre
	VocabularyPath string
	ModelPath      string
}

type entryJSON struct {
	Genre          string `json:"genre"`
	VocabularyPath string `json:"vocabulary_path"`
	ModelPath      string `json:"model_path"`
}

// Parse decodes a JSON list of {genre, vocabulary_path, model_path}
// records. Relative paths are resolved against baseDir.
func Parse(data []byte, baseDir string) ([]Entry, error) {
	var raw []entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode genre catalog: %w", err)
	}
	if len(raw) == 0 {
		return nil, ErrEmpty
	}

	entries := make([]Entry, 0, len(raw))
	seen := make(map[string]int, len(raw))
	for i, r := range raw {
		g, err := genre.Parse(r.Genre)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if prev, ok := seen[g.Key]; ok {
			return nil, fmt.Errorf("entry %d: %w: %s (first at entry %d)", i, ErrDuplicate, g.Key, prev)
		}
		seen[g.Key] = i

		vocabPath := strings.TrimSpace(r.VocabularyPath)
		modelPath := strings.TrimSpace(r.ModelPath)
		if vocabPath == "" {
			return nil, fmt.Errorf("entry %d (%s): vocabulary_path is required", i, g.Key)
		}
		if modelPath == "" {
			return nil, fmt.Errorf("entry %d (%s): model_path is required", i, g.Key)
		}
		entries = append(entries, Entry{
			Genre:          g,
			VocabularyPath: resolve(baseDir, vocabPath),
			ModelPath:      resolve(baseDir, modelPath),
		})
	}
	return entries, nil
}

// Load reads and parses the catalog file at path.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genre catalog: %w", err)
	}
	entries, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) || base == "" {
		return p
	}
	return filepath.Join(base, p)
}

// Options selects where the catalog comes from. Getenv defaults to
// os.Getenv.
type Options struct {
	// ConfigPath names a catalog file. Empty falls back to
	// $POET_GENRES_CONFIG, then to DefaultConfigFile when it exists.
	ConfigPath string

	// Single-genre setup used when no catalog file is found.
	Genre     string
	VocabPath string
	ModelPath string

	Getenv func(string) string
}

// Resolve returns the configured entries. An explicitly named catalog must
// exist; otherwise a single entry is built from the flags, with
// $POETRY_VOCAB_PATH and $POETRY_MODEL_PATH taking precedence over them.
func Resolve(opts Options) ([]Entry, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}

	if path := firstNonEmpty(opts.ConfigPath, getenv(EnvConfigPath)); path != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return Load(DefaultConfigFile)
	}

	g := genre.WuJue
	if strings.TrimSpace(opts.Genre) != "" {
		var err error
		if g, err = genre.Parse(opts.Genre); err != nil {
			return nil, err
		}
	}
	return []Entry{{
		Genre:          g,
		VocabularyPath: firstNonEmpty(getenv(EnvVocabPath), opts.VocabPath, DefaultVocabPath),
		ModelPath:      firstNonEmpty(getenv(EnvModelPath), opts.ModelPath, DefaultModelPath),
	}}, nil
}

// Find returns the entry serving g.
func Find(entries []Entry, g genre.Genre) (Entry, bool) {
	for _, e := range entries {
		if e.Genre.Key == g.Key {
			return e, true
		}
	}
	return Entry{}, false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
