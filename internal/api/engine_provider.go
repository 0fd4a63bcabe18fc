package api

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/samcharles93/poet/internal/catalog"
	"github.com/samcharles93/poet/internal/genre"
	"github.com/samcharles93/poet/internal/inference"
	"github.com/samcharles93/poet/internal/logger"
)

type EngineProvider interface {
	WithEngine(ctx context.Context, g genre.Genre, fn func(engine inference.Engine, defaults inference.GenDefaults) error) error
	// Genres lists the configured genres; the first one is the default.
	Genres() []genre.Genre
}

type EngineProviderConfig struct {
	Entries  []catalog.Entry
	Defaults inference.GenDefaults
	Loader   inference.Loader
}

// CachedEngineProvider loads each genre's engine on first use and keeps it.
// Engines are safe for concurrent use, so requests are not serialized.
type CachedEngineProvider struct {
	cfg   EngineProviderConfig
	mu    sync.Mutex
	cache map[string]*engineEntry
}

type engineEntry struct {
	once   sync.Once
	engine inference.Engine
	err    error
}

func NewCachedEngineProvider(cfg EngineProviderConfig) *CachedEngineProvider {
	return &CachedEngineProvider{
		cfg:   cfg,
		cache: make(map[string]*engineEntry, len(cfg.Entries)),
	}
}

func (p *CachedEngineProvider) Genres() []genre.Genre {
	out := make([]genre.Genre, 0, len(p.cfg.Entries))
	for _, e := range p.cfg.Entries {
		out = append(out, e.Genre)
	}
	return out
}

func (p *CachedEngineProvider) WithEngine(ctx context.Context, g genre.Genre, fn func(engine inference.Engine, defaults inference.GenDefaults) error) error {
	entry, ok := catalog.Find(p.cfg.Entries, g)
	if !ok {
		return newInvalidRequest("genre", fmt.Sprintf("genre %s is not configured", g.Key))
	}
	engine, err := p.getOrLoad(ctx, entry)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(engine, p.cfg.Defaults)
}

// Preload loads every configured engine so configuration errors surface
// before the server starts accepting requests.
func (p *CachedEngineProvider) Preload(ctx context.Context) error {
	var errs []error
	for _, entry := range p.cfg.Entries {
		if _, err := p.getOrLoad(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (p *CachedEngineProvider) getOrLoad(ctx context.Context, entry catalog.Entry) (inference.Engine, error) {
	p.mu.Lock()
	ce, ok := p.cache[entry.Genre.Key]
	if !ok {
		ce = &engineEntry{}
		p.cache[entry.Genre.Key] = ce
	}
	p.mu.Unlock()

	ce.once.Do(func() {
		log := logger.FromContext(ctx).With("genre", entry.Genre.Key)
		res, err := p.cfg.Loader.Load(entry.Genre, entry.VocabularyPath, entry.ModelPath)
		if err != nil {
			ce.err = fmt.Errorf("load engine: %w", err)
			log.Error("engine load failed", "error", err)
			return
		}
		ce.engine = res.Engine
		log.Info("engine loaded",
			"vocabulary", entry.VocabularyPath,
			"model", entry.ModelPath,
			"vocab_size", res.Vocab.Size(),
		)
	})
	return ce.engine, ce.err
}
