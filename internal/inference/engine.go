package inference

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/samcharles93/poet/internal/format"
	"github.com/samcharles93/poet/internal/genre"
	"github.com/samcharles93/poet/internal/logger"
	"github.com/samcharles93/poet/internal/logits"
	"github.com/samcharles93/poet/internal/model"
	"github.com/samcharles93/poet/internal/vocab"
)

// EngineImpl generates poems of one genre from one vocabulary and model.
// It holds no per-request state and is safe for concurrent use when its
// model is.
type EngineImpl struct {
	genre genre.Genre
	vocab *vocab.Vocab
	model model.Predictor
}

func NewEngine(g genre.Genre, v *vocab.Vocab, m model.Predictor) (*EngineImpl, error) {
	if g.IsZero() {
		return nil, fmt.Errorf("genre is required")
	}
	if v == nil {
		return nil, fmt.Errorf("vocabulary is required")
	}
	if m == nil {
		return nil, fmt.Errorf("model is required")
	}
	if m.VocabSize() != v.Size() {
		return nil, fmt.Errorf("%w: model emits %d, vocabulary has %d tokens", ErrDimensionMismatch, m.VocabSize(), v.Size())
	}
	return &EngineImpl{genre: g, vocab: v, model: m}, nil
}

func (e *EngineImpl) Genre() genre.Genre { return e.genre }
func (e *EngineImpl) VocabSize() int     { return e.vocab.Size() }

// Generate extends req.Prompt to exactly Genre().Length() displayed
// characters and lays the result out in lines.
//
// An empty prompt, or under the incremental strategy a prompt without any
// candidate character, yields a Result carrying only EmptyPromptWarning and
// no model calls. A prompt that already fills the poem is truncated without
// calling the model. When the safety bound runs out first the poem is padded
// with Placeholder.
func (e *EngineImpl) Generate(ctx context.Context, req *Request, stream StreamFunc) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	strategy, err := ParseStrategy(string(req.Strategy))
	if err != nil {
		return nil, err
	}
	safety := req.SafetySteps
	if safety <= 0 {
		safety = DefaultSafetySteps
	}

	start := time.Now()
	log := logger.FromContext(ctx).With("genre", e.genre.Key, "strategy", string(strategy))

	prompt := NormalizePrompt(req.Prompt)
	if prompt == "" {
		return &Result{Warning: EmptyPromptWarning}, nil
	}

	d := &decoder{
		engine: e,
		target: e.genre.Length(),
		stream: stream,
	}
	switch strategy {
	case StrategyIncremental:
		d.shown = vocab.CandidateRunes(prompt)
		if len(d.shown) == 0 {
			return &Result{Warning: EmptyPromptWarning}, nil
		}
		d.candidates = e.vocab.CandidateIDs()
		if len(d.candidates) == 0 {
			return nil, fmt.Errorf("vocabulary has no candidate tokens")
		}
		d.sampler = logits.NewSampler(logits.SamplerConfig{
			Seed:        req.Seed,
			Temperature: req.Temperature,
			LogEpsilon:  logits.DefaultLogEpsilon,
		})
	case StrategyResequence:
		d.shown = []rune(prompt)
		d.resequence = true
		d.sampler = logits.NewSampler(logits.SamplerConfig{
			Seed:        req.Seed,
			Temperature: req.Temperature,
			LogEpsilon:  logits.ResequenceLogEpsilon,
			TempEpsilon: logits.ResequenceTempEps,
		})
	}

	d.ids = e.vocab.Encode(prompt)
	d.stats.PromptTokens = len(d.ids)

	if err := d.run(ctx, safety); err != nil {
		return nil, err
	}
	if n := d.target - len(d.shown); n > 0 {
		log.Warn("safety bound reached, padding poem",
			"safety_steps", safety,
			"missing", n,
		)
		padded := []rune(format.Fit(string(d.shown), e.genre, Placeholder))
		for _, r := range padded[len(d.shown):] {
			d.accept(r)
		}
		d.stats.Padded = n
	}

	raw := string(d.shown)
	text, err := format.Format(raw, e.genre)
	if err != nil {
		return nil, err
	}
	lines, err := format.Lines(raw, e.genre)
	if err != nil {
		return nil, err
	}
	d.stats.Duration = time.Since(start)

	log.Debug("poem generated",
		"prompt_tokens", d.stats.PromptTokens,
		"decode_steps", d.stats.DecodeSteps,
		"model_calls", d.stats.ModelCalls,
		"duration", d.stats.Duration,
	)

	return &Result{
		Text:  text,
		Raw:   raw,
		Lines: lines,
		Stats: d.stats,
	}, nil
}

// decoder is the state of one Generate call.
type decoder struct {
	engine     *EngineImpl
	sampler    *logits.Sampler
	candidates []int
	resequence bool
	target     int
	stream     StreamFunc

	ids   []int
	shown []rune
	stats Stats
}

func (d *decoder) run(ctx context.Context, safety int) error {
	prompt := d.shown
	if len(prompt) > d.target {
		prompt = prompt[:d.target]
	}
	d.shown = make([]rune, 0, d.target)
	for _, r := range prompt {
		d.accept(r)
	}

	v := d.engine.vocab
	for step := 0; len(d.shown) < d.target && step < safety; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		probs, err := d.engine.predictLast(ctx, d.ids)
		d.stats.ModelCalls++
		if err != nil {
			return fmt.Errorf("decode step %d: %w", step, err)
		}
		if len(probs) != v.Size() {
			return fmt.Errorf("decode step %d: %w: got %d values", step, ErrDimensionMismatch, len(probs))
		}
		id, err := safeSample(d.sampler, probs, d.candidates)
		if err != nil {
			return fmt.Errorf("decode step %d: %w", step, err)
		}
		d.ids = append(d.ids, id)
		d.stats.DecodeSteps++

		if d.resequence || v.IsCandidateID(id) {
			d.accept(d.slot(id))
		}
	}
	return nil
}

func (d *decoder) accept(r rune) {
	d.shown = append(d.shown, r)
	if d.stream != nil {
		d.stream(string(r))
	}
}

// slot renders a token as one display character. Reserved and
// multi-character tokens render as Placeholder.
func (d *decoder) slot(id int) rune {
	tok := d.engine.vocab.Token(id)
	r, size := utf8.DecodeRuneInString(tok)
	if size == 0 || size != len(tok) || r == utf8.RuneError {
		return Placeholder
	}
	return r
}

// predictLast returns the distribution after the final id, converting
// model panics to errors.
func (e *EngineImpl) predictLast(ctx context.Context, ids []int) (probs []float32, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Predict: %v", rec)
		}
	}()
	if lp, ok := e.model.(model.LastPredictor); ok {
		return lp.PredictLast(ctx, ids)
	}
	out, err := e.model.Predict(ctx, [][]int{ids})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 || len(out[0]) == 0 {
		return nil, errors.New("model returned no distributions")
	}
	return out[0][len(out[0])-1], nil
}

func safeSample(s *logits.Sampler, probs []float32, candidates []int) (id int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic in Sample: %v", rec)
		}
	}()
	return s.Sample(probs, candidates), nil
}
