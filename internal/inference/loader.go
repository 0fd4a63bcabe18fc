package inference

import (
	"fmt"
	"strings"

	"github.com/samcharles93/poet/internal/genre"
	"github.com/samcharles93/poet/internal/model"
	"github.com/samcharles93/poet/internal/vocab"
)

// Loader builds engines from vocabulary and model files. LoadModel defaults
// to the safetensors LSTM loader.
type Loader struct {
	LoadModel func(path string) (model.Predictor, error)
}

type LoadResult struct {
	Engine Engine
	Vocab  *vocab.Vocab
	Model  model.Predictor
	Genre  genre.Genre
}

// Load reads the vocabulary and the model and checks that the model's output
// dimension matches the vocabulary size. Every failure here is a
// configuration error.
func (l Loader) Load(g genre.Genre, vocabPath, modelPath string) (*LoadResult, error) {
	if strings.TrimSpace(vocabPath) == "" {
		return nil, fmt.Errorf("%s: vocabulary path is required", g.Key)
	}
	if strings.TrimSpace(modelPath) == "" {
		return nil, fmt.Errorf("%s: model path is required", g.Key)
	}

	v, err := vocab.Load(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Key, err)
	}

	loadModel := l.LoadModel
	if loadModel == nil {
		loadModel = func(path string) (model.Predictor, error) {
			return model.LoadLSTM(path)
		}
	}
	m, err := loadModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Key, err)
	}

	engine, err := NewEngine(g, v, m)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Key, err)
	}

	return &LoadResult{
		Engine: engine,
		Vocab:  v,
		Model:  m,
		Genre:  g,
	}, nil
}
