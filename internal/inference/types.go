package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samcharles93/poet/internal/genre"
)

// EmptyPromptWarning is returned in Result.Warning when a prompt has nothing
// to seed generation with.
const EmptyPromptWarning = "⚠️ 请至少输入一个起始字。"

// Placeholder fills display slots that no character could be produced for.
const Placeholder = '\u3000'

// DefaultSafetySteps bounds the number of decode steps per request.
const DefaultSafetySteps = 2048

var ErrDimensionMismatch = errors.New("model output dimension does not match vocabulary size")

// StreamFunc receives each displayed character as it is accepted.
type StreamFunc func(ch string)

type Engine interface {
	Generate(ctx context.Context, req *Request, stream StreamFunc) (*Result, error)
	Genre() genre.Genre
	VocabSize() int
}

// Strategy selects how the decode loop extends a prompt.
type Strategy string

const (
	// StrategyIncremental samples only candidate characters, counts only
	// candidate characters toward the poem length and keeps every sampled id
	// in the model context.
	StrategyIncremental Strategy = "incremental"
	// StrategyResequence samples over the whole vocabulary and gives every
	// sampled token one display slot.
	StrategyResequence Strategy = "resequence"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyIncremental:
		return StrategyIncremental, nil
	case StrategyResequence:
		return StrategyResequence, nil
	}
	return "", fmt.Errorf("unknown strategy %q (want %s or %s)", s, StrategyIncremental, StrategyResequence)
}

type Request struct {
	Prompt      string
	Temperature float64
	// Seed for the per-request sampler; negative picks one at random.
	Seed        int64
	Strategy    Strategy
	SafetySteps int
}

type Result struct {
	// Text is the poem laid out one line per row.
	Text string
	// Raw is the unformatted poem, exactly Genre().Length() characters.
	Raw     string
	Lines   []string
	Warning string
	Stats   Stats
}

type Stats struct {
	PromptTokens int
	DecodeSteps  int
	ModelCalls   int
	// Padded counts placeholder characters appended after the safety bound
	// was reached.
	Padded   int
	Duration time.Duration
}
