package inference

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/poet/internal/genre"
	"github.com/samcharles93/poet/internal/model"
	"github.com/samcharles93/poet/internal/vocab"
)

var testTokens = []string{"[PAD]", "[UNK]", "春", "风", "，", "海", "外"}

const (
	idPad   = 0
	idChun  = 2
	idFeng  = 3
	idComma = 4
)

func testVocab(t *testing.T) *vocab.Vocab {
	t.Helper()
	v, err := vocab.New(testTokens)
	require.NoError(t, err)
	return v
}

// countingModel returns fn(last id) as a one-hot distribution and counts
// calls.
type countingModel struct {
	size  int
	calls atomic.Int64
	next  func(ids []int) []float32
}

func (m *countingModel) VocabSize() int { return m.size }

func (m *countingModel) Predict(_ context.Context, batch [][]int) ([][][]float32, error) {
	m.calls.Add(1)
	ids := batch[0]
	out := make([][]float32, len(ids))
	for i := range ids {
		out[i] = m.next(ids[:i+1])
	}
	return [][][]float32{out}, nil
}

func oneHot(size, id int) []float32 {
	p := make([]float32, size)
	p[id] = 1
	return p
}

// alternating peaks on 春 after anything but 春, and on 风 after 春.
func alternating(size int) *countingModel {
	return &countingModel{size: size, next: func(ids []int) []float32 {
		if ids[len(ids)-1] == idChun {
			return oneHot(size, idFeng)
		}
		return oneHot(size, idChun)
	}}
}

func constant(size, id int) *countingModel {
	return &countingModel{size: size, next: func([]int) []float32 { return oneHot(size, id) }}
}

func uniform(size int) *countingModel {
	return &countingModel{size: size, next: func([]int) []float32 {
		p := make([]float32, size)
		for i := range p {
			p[i] = 1 / float32(size)
		}
		return p
	}}
}

func newTestEngine(t *testing.T, g genre.Genre, m model.Predictor) *EngineImpl {
	t.Helper()
	e, err := NewEngine(g, testVocab(t), m)
	require.NoError(t, err)
	return e
}

func TestGenerateAlternatingGreedy(t *testing.T) {
	t.Parallel()

	m := alternating(len(testTokens))
	e := newTestEngine(t, genre.WuJue, m)

	res, err := e.Generate(context.Background(), &Request{Prompt: "海外", Temperature: 0}, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Warning)
	assert.Equal(t, "海外春风春风\n春风春风春风\n春风春风春风\n春风春风春风", res.Text)
	assert.Equal(t, []string{"海外春风春风", "春风春风春风", "春风春风春风", "春风春风春风"}, res.Lines)
	assert.Equal(t, 24, utf8.RuneCountInString(res.Raw))
	assert.EqualValues(t, 22, m.calls.Load())
	assert.Equal(t, 22, res.Stats.ModelCalls)
	assert.Equal(t, 22, res.Stats.DecodeSteps)
	assert.Equal(t, 2, res.Stats.PromptTokens)
	assert.Zero(t, res.Stats.Padded)
}

func TestGenerateEmptyPromptWarns(t *testing.T) {
	t.Parallel()

	for _, prompt := range []string{"", "   ", "　\n"} {
		m := alternating(len(testTokens))
		e := newTestEngine(t, genre.WuJue, m)
		for _, s := range []Strategy{StrategyIncremental, StrategyResequence} {
			res, err := e.Generate(context.Background(), &Request{Prompt: prompt, Strategy: s}, nil)
			require.NoError(t, err)
			assert.Equal(t, EmptyPromptWarning, res.Warning)
			assert.Empty(t, res.Text)
			assert.Empty(t, res.Lines)
		}
		assert.Zero(t, m.calls.Load())
	}
}

func TestGenerateIneligiblePromptWarns(t *testing.T) {
	t.Parallel()

	m := alternating(len(testTokens))
	e := newTestEngine(t, genre.WuJue, m)
	res, err := e.Generate(context.Background(), &Request{Prompt: "abc，"}, nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyPromptWarning, res.Warning)
	assert.Zero(t, m.calls.Load())
}

func TestGenerateLongPromptShortCircuits(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("春风，海外", 10) // 40 candidate characters
	want := []rune(strings.ReplaceAll(long, "，", ""))[:24]

	m := alternating(len(testTokens))
	e := newTestEngine(t, genre.WuJue, m)
	res, err := e.Generate(context.Background(), &Request{Prompt: long, Temperature: 1}, nil)
	require.NoError(t, err)
	assert.Equal(t, string(want), res.Raw)
	assert.Len(t, res.Lines, 4)
	assert.Zero(t, m.calls.Load())
	assert.Zero(t, res.Stats.ModelCalls)
}

func TestGenerateExactLengthPromptShortCircuits(t *testing.T) {
	t.Parallel()

	prompt := strings.Repeat("海", 24)
	m := alternating(len(testTokens))
	e := newTestEngine(t, genre.WuJue, m)
	res, err := e.Generate(context.Background(), &Request{Prompt: prompt}, nil)
	require.NoError(t, err)
	assert.Equal(t, prompt, res.Raw)
	assert.Zero(t, m.calls.Load())
}

func TestGenerateAlwaysFillsGenre(t *testing.T) {
	t.Parallel()

	for _, g := range genre.All() {
		for _, temp := range []float64{0, 0.5, 1, 2} {
			for _, s := range []Strategy{StrategyIncremental, StrategyResequence} {
				e := newTestEngine(t, g, uniform(len(testTokens)))
				res, err := e.Generate(context.Background(), &Request{
					Prompt:      "海外",
					Temperature: temp,
					Seed:        int64(g.Rows*10 + g.Cols),
					Strategy:    s,
				}, nil)
				require.NoError(t, err)
				assert.Equal(t, g.Length(), utf8.RuneCountInString(res.Raw), "%s T=%v %s", g.Key, temp, s)
				assert.Len(t, res.Lines, g.Rows)
				assert.True(t, strings.HasPrefix(res.Raw, "海外"))
			}
		}
	}
}

func TestGenerateIncrementalOnlyShowsCandidates(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, genre.WuJue, uniform(len(testTokens)))
	res, err := e.Generate(context.Background(), &Request{Prompt: "海，外", Temperature: 1.5, Seed: 4}, nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Raw, "海外"))
	for _, r := range res.Raw {
		assert.True(t, vocab.IsCandidateRune(r), "unexpected %q", r)
	}
	// the prompt's punctuation reaches the model but not the poem
	assert.Equal(t, 3, res.Stats.PromptTokens)
}

func TestGenerateSafetyBoundPads(t *testing.T) {
	t.Parallel()

	m := alternating(len(testTokens))
	e := newTestEngine(t, genre.WuJue, m)
	var streamed strings.Builder
	res, err := e.Generate(context.Background(), &Request{Prompt: "海外", SafetySteps: 5}, func(ch string) { streamed.WriteString(ch) })
	require.NoError(t, err)
	assert.Equal(t, 24, utf8.RuneCountInString(res.Raw))
	assert.Equal(t, res.Raw, streamed.String())
	assert.Equal(t, 3, strings.Count(res.Text, "\n"))
	assert.Equal(t, res.Lines, strings.Split(res.Text, "\n"))
	assert.Equal(t, 17, res.Stats.Padded)
	assert.Equal(t, 5, res.Stats.DecodeSteps)
	assert.EqualValues(t, 5, m.calls.Load())
	assert.Equal(t, "海外春风春"+strings.Repeat(string(Placeholder), 17), res.Raw)
}

func TestGenerateResequenceShowsEveryToken(t *testing.T) {
	t.Parallel()

	m := constant(len(testTokens), idComma)
	e := newTestEngine(t, genre.WuJue, m)
	res, err := e.Generate(context.Background(), &Request{Prompt: "海外", Strategy: StrategyResequence}, nil)
	require.NoError(t, err)
	assert.Equal(t, "海外"+strings.Repeat("，", 22), res.Raw)
	assert.EqualValues(t, 22, m.calls.Load())
}

func TestGenerateResequenceRendersReservedAsPlaceholder(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, genre.WuJue, constant(len(testTokens), idPad))
	res, err := e.Generate(context.Background(), &Request{Prompt: "ab", Strategy: StrategyResequence}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ab"+strings.Repeat(string(Placeholder), 22), res.Raw)
	assert.Zero(t, res.Stats.Padded)
}

func TestGenerateIncrementalIgnoresMassOutsideCandidates(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, genre.WuJue, constant(len(testTokens), idComma))
	res, err := e.Generate(context.Background(), &Request{Prompt: "海外", Temperature: 0.8, Seed: 1}, nil)
	require.NoError(t, err)
	assert.NotContains(t, res.Raw, "，")
	assert.Equal(t, 24, utf8.RuneCountInString(res.Raw))
}

func TestGenerateSeedIsReproducible(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, genre.QiLv, uniform(len(testTokens)))
	req := &Request{Prompt: "春", Temperature: 1, Seed: 99}
	a, err := e.Generate(context.Background(), req, nil)
	require.NoError(t, err)
	b, err := e.Generate(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, a.Raw, b.Raw)
}

func TestGenerateStreamsEveryDisplayedCharacter(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, genre.WuJue, alternating(len(testTokens)))
	var sb strings.Builder
	calls := 0
	res, err := e.Generate(context.Background(), &Request{Prompt: "海外", SafetySteps: 10}, func(ch string) {
		calls++
		sb.WriteString(ch)
	})
	require.NoError(t, err)
	assert.Equal(t, res.Raw, sb.String())
	assert.Equal(t, 24, calls)
}

func TestGenerateStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m := alternating(len(testTokens))
	next := m.next
	m.next = func(ids []int) []float32 {
		if m.calls.Load() == 3 {
			cancel()
		}
		return next(ids)
	}
	e := newTestEngine(t, genre.WuJue, m)
	_, err := e.Generate(ctx, &Request{Prompt: "海外"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.EqualValues(t, 3, m.calls.Load())
}

func TestGenerateRejectsCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := alternating(len(testTokens))
	e := newTestEngine(t, genre.WuJue, m)
	_, err := e.Generate(ctx, &Request{Prompt: "海外"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, m.calls.Load())
}

func TestGenerateConvertsPredictPanicToError(t *testing.T) {
	t.Parallel()

	m := model.PredictFunc{Vocab: len(testTokens), Fn: func(context.Context, [][]int) ([][][]float32, error) {
		panic("boom")
	}}
	e := newTestEngine(t, genre.WuJue, m)
	_, err := e.Generate(context.Background(), &Request{Prompt: "海外"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in Predict")
}

func TestGenerateReturnsModelError(t *testing.T) {
	t.Parallel()

	m := model.PredictFunc{Vocab: len(testTokens), Fn: func(context.Context, [][]int) ([][][]float32, error) {
		return nil, errors.New("forced predict failure")
	}}
	e := newTestEngine(t, genre.WuJue, m)
	_, err := e.Generate(context.Background(), &Request{Prompt: "海外"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forced predict failure")
}

func TestGenerateRejectsShortDistribution(t *testing.T) {
	t.Parallel()

	m := model.PredictFunc{Vocab: len(testTokens), Fn: func(context.Context, [][]int) ([][][]float32, error) {
		return [][][]float32{{{1, 0}}}, nil
	}}
	e := newTestEngine(t, genre.WuJue, m)
	_, err := e.Generate(context.Background(), &Request{Prompt: "海外"}, nil)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestGenerateRejectsUnknownStrategy(t *testing.T) {
	t.Parallel()

	e := newTestEngine(t, genre.WuJue, alternating(len(testTokens)))
	_, err := e.Generate(context.Background(), &Request{Prompt: "海外", Strategy: "beam"}, nil)
	assert.ErrorContains(t, err, "unknown strategy")
}

type lastOnly struct {
	countingModel
	last atomic.Int64
}

func (m *lastOnly) PredictLast(_ context.Context, ids []int) ([]float32, error) {
	m.last.Add(1)
	return m.next(ids), nil
}

func TestGeneratePrefersLastPredictor(t *testing.T) {
	t.Parallel()

	m := &lastOnly{}
	m.size = len(testTokens)
	m.next = alternating(m.size).next
	e := newTestEngine(t, genre.WuJue, m)
	res, err := e.Generate(context.Background(), &Request{Prompt: "海外"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "海外春风春风", res.Lines[0])
	assert.EqualValues(t, 22, m.last.Load())
	assert.Zero(t, m.calls.Load())
}

func TestNewEngineChecksDimensions(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(genre.WuJue, testVocab(t), constant(len(testTokens)+1, 0))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDimensionMismatch))

	_, err = NewEngine(genre.Genre{}, testVocab(t), constant(len(testTokens), 0))
	assert.Error(t, err)
}

func TestParseStrategy(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Strategy{
		"":            StrategyIncremental,
		"incremental": StrategyIncremental,
		" Resequence": StrategyResequence,
	} {
		got, err := ParseStrategy(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStrategy("greedy")
	assert.Error(t, err)
}
