package tensor

import (
	"fmt"

	"github.com/samcharles93/poet/internal/safetensors"
)

// LoadSafetensorsMat loads a 2D matrix from a Safetensors file.
func LoadSafetensorsMat(st *safetensors.File, name string) (*Mat, error) {
	data, info, err := st.ReadTensorF32(name)
	if err != nil {
		return nil, err
	}
	if len(info.Shape) != 2 {
		return nil, fmt.Errorf("%s: expected 2D tensor, got shape %v", name, info.Shape)
	}
	m, err := NewMatFromData(info.Shape[0], info.Shape[1], data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &m, nil
}

// LoadSafetensorsVec loads a 1D vector from a Safetensors file.
func LoadSafetensorsVec(st *safetensors.File, name string) ([]float32, error) {
	data, info, err := st.ReadTensorF32(name)
	if err != nil {
		return nil, err
	}
	if len(info.Shape) != 1 {
		return nil, fmt.Errorf("%s: expected 1D tensor, got shape %v", name, info.Shape)
	}
	return data, nil
}
