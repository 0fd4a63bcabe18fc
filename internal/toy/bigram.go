// Package toy provides a tiny random-weight next-character model. It gives
// tests and benchmarks a dense, non-degenerate distribution without
// trained weights.
package toy

import (
	"context"
	"errors"
	"fmt"

	"github.com/samcharles93/poet/internal/tensor"
)

// Bigram predicts the next token from the last one only:
// softmax(Out * Emb[last] + Bias).
type Bigram struct {
	vocab  int
	hidden int

	Emb  tensor.Mat // [vocab x hidden]
	Out  tensor.Mat // [vocab x hidden]
	Bias []float32  // [vocab]
}

// New returns a model with reproducible weights derived from seed.
func New(vocab, hidden int, seed int64) *Bigram {
	m := &Bigram{
		vocab:  vocab,
		hidden: hidden,
		Emb:    tensor.NewMat(vocab, hidden),
		Out:    tensor.NewMat(vocab, hidden),
		Bias:   make([]float32, vocab),
	}
	tensor.FillRand(&m.Emb, seed+11, 2)
	tensor.FillRand(&m.Out, seed+23, 2)
	return m
}

func (m *Bigram) VocabSize() int { return m.vocab }

func (m *Bigram) PredictLast(ctx context.Context, ids []int) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.New("toy: empty sequence")
	}
	return m.next(ids[len(ids)-1])
}

// Predict returns a distribution for every position of every sequence.
func (m *Bigram) Predict(ctx context.Context, batch [][]int) ([][][]float32, error) {
	out := make([][][]float32, len(batch))
	for b, ids := range batch {
		out[b] = make([][]float32, len(ids))
		for t, id := range ids {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p, err := m.next(id)
			if err != nil {
				return nil, err
			}
			out[b][t] = p
		}
	}
	return out, nil
}

func (m *Bigram) next(id int) ([]float32, error) {
	if id < 0 || id >= m.vocab {
		return nil, fmt.Errorf("toy: token id %d out of range [0,%d)", id, m.vocab)
	}
	p := make([]float32, m.vocab)
	tensor.MatVecBias(p, &m.Out, m.Emb.Row(id), m.Bias)
	tensor.Softmax(p)
	return p, nil
}
