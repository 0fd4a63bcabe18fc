package safetensors

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRaw creates a safetensors file from an arbitrary header and payload.
func writeRaw(t *testing.T, path string, header map[string]any, data []byte) {
	t.Helper()
	headerBytes, err := json.Marshal(header)
	require.NoError(t, err)

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(headerBytes)))
	out := append(lenBuf[:], headerBytes...)
	out = append(out, data...)
	require.NoError(t, os.WriteFile(path, out, 0o644))
}

func TestWriteThenRead(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "w.safetensors")

	err := WriteF32(path, map[string]F32Tensor{
		"lstm/bias":            {Shape: []int{4}, Data: []float32{1, 2, 3, 4}},
		"embedding/embeddings": {Shape: []int{2, 3}, Data: []float32{0.5, -1, 2, 3, 4, 5}},
	}, map[string]string{"format": "keras"})
	require.NoError(t, err)

	f, err := Open(path)
	require.NoError(t, err)
	assert.Len(t, f.Tensors, 2)
	assert.Equal(t, "keras", f.Metadata["format"])

	got, info, err := f.ReadTensorF32("embedding/embeddings")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, info.Shape)
	assert.Equal(t, []float32{0.5, -1, 2, 3, 4, 5}, got)

	bias, _, err := f.ReadTensorF32("lstm/bias")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3, 4}, bias)
}

func TestWriteRejectsShapeMismatch(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.safetensors")
	err := WriteF32(path, map[string]F32Tensor{"x": {Shape: []int{3}, Data: []float32{1}}}, nil)
	assert.Error(t, err)
}

func TestOpenErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.safetensors"))
	assert.Error(t, err)

	short := filepath.Join(dir, "short.safetensors")
	require.NoError(t, os.WriteFile(short, []byte{0, 0, 0, 0}, 0o644))
	_, err = Open(short)
	assert.Error(t, err)

	badJSON := filepath.Join(dir, "json.safetensors")
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], 12)
	require.NoError(t, os.WriteFile(badJSON, append(lenBuf[:], []byte("not valid js")...), 0o644))
	_, err = Open(badJSON)
	assert.Error(t, err)

	hugeHeader := filepath.Join(dir, "huge.safetensors")
	binary.LittleEndian.PutUint64(lenBuf[:], 1<<40)
	require.NoError(t, os.WriteFile(hugeHeader, lenBuf[:], 0o644))
	_, err = Open(hugeHeader)
	assert.Error(t, err)
}

func TestOpenRejectsBadOffsets(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	single := filepath.Join(dir, "single.safetensors")
	writeRaw(t, single, map[string]any{
		"x": map[string]any{"dtype": "F32", "shape": []int{1}, "data_offsets": []int64{0}},
	}, nil)
	_, err := Open(single)
	assert.Error(t, err)

	past := filepath.Join(dir, "past.safetensors")
	writeRaw(t, past, map[string]any{
		"x": map[string]any{"dtype": "F32", "shape": []int{4}, "data_offsets": []int64{0, 16}},
	}, make([]byte, 8))
	_, err = Open(past)
	assert.Error(t, err)
}

func TestReadTensorHalfPrecision(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	data := make([]byte, 6)
	binary.LittleEndian.PutUint16(data[0:], 0x3F80) // bf16 1.0
	binary.LittleEndian.PutUint16(data[2:], 0x4000) // bf16 2.0
	binary.LittleEndian.PutUint16(data[4:], 0x3C00) // f16 1.0
	path := filepath.Join(dir, "half.safetensors")
	writeRaw(t, path, map[string]any{
		"b": map[string]any{"dtype": "BF16", "shape": []int{2}, "data_offsets": []int64{0, 4}},
		"h": map[string]any{"dtype": "F16", "shape": []int{1}, "data_offsets": []int64{4, 6}},
	}, data)

	f, err := Open(path)
	require.NoError(t, err)

	b, _, err := f.ReadTensorF32("b")
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2}, b)

	h, _, err := f.ReadTensorF32("h")
	require.NoError(t, err)
	assert.Equal(t, []float32{1}, h)
}

func TestReadTensorErrors(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "e.safetensors")
	writeRaw(t, path, map[string]any{
		"i32":   map[string]any{"dtype": "I32", "shape": []int{2}, "data_offsets": []int64{0, 8}},
		"short": map[string]any{"dtype": "F32", "shape": []int{4}, "data_offsets": []int64{0, 8}},
	}, make([]byte, 8))

	f, err := Open(path)
	require.NoError(t, err)

	_, _, err = f.ReadTensorF32("i32")
	assert.ErrorContains(t, err, "unsupported dtype")

	_, _, err = f.ReadTensorF32("short")
	assert.ErrorContains(t, err, "invalid f32 data size")

	_, _, err = f.ReadTensor("missing")
	assert.ErrorContains(t, err, "tensor not found")
}

func TestFP16Subnormal(t *testing.T) {
	t.Parallel()
	// smallest positive subnormal half: 2^-24
	assert.InDelta(t, 5.960464477539063e-08, float64(fp16ToFloat32(0x0001)), 1e-15)
	assert.Equal(t, float32(-2), fp16ToFloat32(0xC000))
}
