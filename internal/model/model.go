// Package model defines the next-token distribution contract the generation
// engine drives, and a character-level LSTM implementation of it.
package model

import "context"

// Predictor maps a batch of token-id sequences to next-token probability
// distributions: out[b][t] is the distribution after reading batch[b][:t+1],
// a vector of VocabSize() non-negative values summing to about 1.
//
// Implementations must be safe for concurrent use.
type Predictor interface {
	Predict(ctx context.Context, batch [][]int) ([][][]float32, error)
	VocabSize() int
}

// LastPredictor is implemented by predictors that can return only the
// distribution at the final position of a single sequence without
// materializing the others.
type LastPredictor interface {
	PredictLast(ctx context.Context, ids []int) ([]float32, error)
}

// PredictFunc adapts a function to Predictor.
type PredictFunc struct {
	Vocab int
	Fn    func(ctx context.Context, batch [][]int) ([][][]float32, error)
}

func (p PredictFunc) Predict(ctx context.Context, batch [][]int) ([][][]float32, error) {
	return p.Fn(ctx, batch)
}

func (p PredictFunc) VocabSize() int {
	return p.Vocab
}
