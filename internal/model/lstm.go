package model

import (
	"context"
	"fmt"

	"github.com/samcharles93/poet/internal/safetensors"
	"github.com/samcharles93/poet/internal/tensor"
)

// Tensor names of a Keras Embedding -> LSTM -> Dense(softmax) model exported
// to safetensors.
const (
	TensorEmbedding     = "embedding/embeddings"  // [V, E]
	TensorLSTMKernel    = "lstm/kernel"           // [E, 4U]
	TensorLSTMRecurrent = "lstm/recurrent_kernel" // [U, 4U]
	TensorLSTMBias      = "lstm/bias"             // [4U]
	TensorOutputKernel  = "output/kernel"         // [U, V]
	TensorOutputBias    = "output/bias"           // [V]
)

// LSTM is a single-layer character LSTM with a softmax output head. Gate
// order is input, forget, cell, output. Weights are read-only after load, so
// one LSTM can serve concurrent requests.
type LSTM struct {
	vocab int
	embed int
	units int
	emb   *tensor.Mat // [V, E]
	wx    tensor.Mat  // [4U, E]
	wh    tensor.Mat  // [4U, U]
	bias  []float32   // [4U]
	wo    tensor.Mat  // [V, U]
	biasO []float32   // [V]
}

// LSTMWeights holds the Keras-layout weights of an LSTM.
type LSTMWeights struct {
	Embedding       *tensor.Mat
	Kernel          *tensor.Mat
	RecurrentKernel *tensor.Mat
	Bias            []float32
	OutputKernel    *tensor.Mat
	OutputBias      []float32
}

// NewLSTM validates shapes and lays the kernels out for row-wise mat-vec.
func NewLSTM(w LSTMWeights) (*LSTM, error) {
	if w.Embedding == nil || w.Kernel == nil || w.RecurrentKernel == nil || w.OutputKernel == nil {
		return nil, fmt.Errorf("lstm: missing weight matrix")
	}
	v, e := w.Embedding.R, w.Embedding.C
	u := w.RecurrentKernel.R
	switch {
	case v == 0 || e == 0 || u == 0:
		return nil, fmt.Errorf("lstm: empty dimension (vocab=%d embed=%d units=%d)", v, e, u)
	case w.Kernel.R != e || w.Kernel.C != 4*u:
		return nil, fmt.Errorf("lstm: kernel shape [%d %d], want [%d %d]", w.Kernel.R, w.Kernel.C, e, 4*u)
	case w.RecurrentKernel.C != 4*u:
		return nil, fmt.Errorf("lstm: recurrent kernel shape [%d %d], want [%d %d]", w.RecurrentKernel.R, w.RecurrentKernel.C, u, 4*u)
	case len(w.Bias) != 4*u:
		return nil, fmt.Errorf("lstm: bias length %d, want %d", len(w.Bias), 4*u)
	case w.OutputKernel.R != u || w.OutputKernel.C != v:
		return nil, fmt.Errorf("lstm: output kernel shape [%d %d], want [%d %d]", w.OutputKernel.R, w.OutputKernel.C, u, v)
	case len(w.OutputBias) != v:
		return nil, fmt.Errorf("lstm: output bias length %d, want %d", len(w.OutputBias), v)
	}
	return &LSTM{
		vocab: v,
		embed: e,
		units: u,
		emb:   w.Embedding,
		wx:    w.Kernel.Transpose(),
		wh:    w.RecurrentKernel.Transpose(),
		bias:  w.Bias,
		wo:    w.OutputKernel.Transpose(),
		biasO: w.OutputBias,
	}, nil
}

// LoadLSTM reads an LSTM from a safetensors file.
func LoadLSTM(path string) (*LSTM, error) {
	st, err := safetensors.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model %s: %w", path, err)
	}
	var w LSTMWeights
	mats := []struct {
		name string
		dst  **tensor.Mat
	}{
		{TensorEmbedding, &w.Embedding},
		{TensorLSTMKernel, &w.Kernel},
		{TensorLSTMRecurrent, &w.RecurrentKernel},
		{TensorOutputKernel, &w.OutputKernel},
	}
	for _, m := range mats {
		if *m.dst, err = tensor.LoadSafetensorsMat(st, m.name); err != nil {
			return nil, fmt.Errorf("load model %s: %w", path, err)
		}
	}
	if w.Bias, err = tensor.LoadSafetensorsVec(st, TensorLSTMBias); err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	if w.OutputBias, err = tensor.LoadSafetensorsVec(st, TensorOutputBias); err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	m, err := NewLSTM(w)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", path, err)
	}
	return m, nil
}

func (m *LSTM) VocabSize() int { return m.vocab }
func (m *LSTM) Units() int     { return m.units }

// Predict returns the distribution at every position of every sequence.
func (m *LSTM) Predict(ctx context.Context, batch [][]int) ([][][]float32, error) {
	out := make([][][]float32, len(batch))
	for b, ids := range batch {
		seq := make([][]float32, 0, len(ids))
		err := m.run(ctx, ids, func(_ int, h []float32) {
			seq = append(seq, m.head(h))
		})
		if err != nil {
			return nil, err
		}
		out[b] = seq
	}
	return out, nil
}

// PredictLast returns only the distribution after the final id.
func (m *LSTM) PredictLast(ctx context.Context, ids []int) ([]float32, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("lstm: empty sequence")
	}
	var last []float32
	err := m.run(ctx, ids, func(t int, h []float32) {
		if t == len(ids)-1 {
			last = m.head(h)
		}
	})
	return last, err
}

// run feeds ids through the recurrent layer, calling visit with the hidden
// state after each position. h is reused between calls.
func (m *LSTM) run(ctx context.Context, ids []int, visit func(t int, h []float32)) error {
	u := m.units
	h := make([]float32, u)
	c := make([]float32, u)
	z := make([]float32, 4*u)
	zh := make([]float32, 4*u)
	for t, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		if id < 0 || id >= m.vocab {
			return fmt.Errorf("lstm: token id %d out of range [0,%d)", id, m.vocab)
		}
		tensor.MatVecBias(z, &m.wx, m.emb.Row(id), m.bias)
		tensor.MatVec(zh, &m.wh, h)
		tensor.Add(z, zh)
		for j := 0; j < u; j++ {
			i := tensor.Sigmoid(z[j])
			f := tensor.Sigmoid(z[u+j])
			g := tensor.Tanh(z[2*u+j])
			o := tensor.Sigmoid(z[3*u+j])
			c[j] = f*c[j] + i*g
			h[j] = o * tensor.Tanh(c[j])
		}
		visit(t, h)
	}
	return nil
}

func (m *LSTM) head(h []float32) []float32 {
	logits := make([]float32, m.vocab)
	tensor.MatVecBias(logits, &m.wo, h, m.biasO)
	tensor.Softmax(logits)
	return logits
}
