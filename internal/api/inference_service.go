package api

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/samcharles93/poet/internal/genre"
	"github.com/samcharles93/poet/internal/inference"
)

const (
	MinTemperature = 0.0
	MaxTemperature = 2.0
)

type PoemService struct {
	provider EngineProvider
	store    *PoemStore
	clock    func() time.Time
}

func NewPoemService(provider EngineProvider, store *PoemStore) *PoemService {
	if store == nil {
		store = NewPoemStore()
	}
	return &PoemService{provider: provider, store: store, clock: time.Now}
}

// PoemJob is a validated PoemRequest.
type PoemJob struct {
	id     string
	genre  genre.Genre
	prompt string
	opts   inference.RequestOptions
}

// Prepare validates req and assigns the poem id. Every error it returns
// wraps ErrInvalidRequest.
func (s *PoemService) Prepare(req *PoemRequest) (PoemJob, error) {
	if req == nil {
		return PoemJob{}, newInvalidRequest("", "request body is required")
	}

	var g genre.Genre
	if strings.TrimSpace(req.Genre) == "" {
		genres := s.provider.Genres()
		if len(genres) == 0 {
			return PoemJob{}, newInvalidRequest("genre", "no genres are configured")
		}
		g = genres[0]
	} else {
		var err error
		if g, err = genre.Parse(req.Genre); err != nil {
			return PoemJob{}, newInvalidRequest("genre", err.Error())
		}
	}

	if t := req.Temperature; t != nil && (*t < MinTemperature || *t > MaxTemperature || math.IsNaN(*t)) {
		return PoemJob{}, newInvalidRequest("temperature", fmt.Sprintf("temperature must be between %g and %g", MinTemperature, MaxTemperature))
	}

	opts := inference.RequestOptions{
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		Seed:        req.Seed,
	}
	if strings.TrimSpace(req.Strategy) != "" {
		st, err := inference.ParseStrategy(req.Strategy)
		if err != nil {
			return PoemJob{}, newInvalidRequest("strategy", err.Error())
		}
		opts.Strategy = &st
	}

	return PoemJob{id: newPoemID(), genre: g, prompt: req.Prompt, opts: opts}, nil
}

// Run generates the poem for job, stores it and returns it. emit, when set,
// receives each displayed character.
func (s *PoemService) Run(ctx context.Context, job PoemJob, emit inference.StreamFunc) (*Poem, error) {
	poem := Poem{
		ID:      job.id,
		Object:  "poem",
		Created: s.clock().Unix(),
		Genre:   job.genre.Key,
		Prompt:  job.prompt,
	}

	err := s.provider.WithEngine(ctx, job.genre, func(engine inference.Engine, defaults inference.GenDefaults) error {
		req := inference.ResolveRequest(job.opts, defaults)
		poem.Temperature = req.Temperature
		poem.Strategy = string(req.Strategy)

		result, err := engine.Generate(ctx, &req, emit)
		if err != nil {
			return err
		}
		poem.Text = result.Text
		poem.Lines = result.Lines
		poem.Warning = result.Warning
		if result.Warning == "" {
			poem.Stats = &PoemStats{
				PromptTokens: result.Stats.PromptTokens,
				DecodeSteps:  result.Stats.DecodeSteps,
				ModelCalls:   result.Stats.ModelCalls,
				Padded:       result.Stats.Padded,
				DurationMS:   float64(result.Stats.Duration.Microseconds()) / 1000,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if poem.Lines == nil {
		poem.Lines = []string{}
	}
	s.store.Put(poem)
	return &poem, nil
}

// CreatePoem validates and runs req in one call.
func (s *PoemService) CreatePoem(ctx context.Context, req *PoemRequest, emit inference.StreamFunc) (*Poem, error) {
	job, err := s.Prepare(req)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx, job, emit)
}
