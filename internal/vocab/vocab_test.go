package vocab

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, tokens ...string) *Vocab {
	t.Helper()
	v, err := New(tokens)
	require.NoError(t, err)
	return v
}

func TestReservedIDs(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		tokens  []string
		pad     int
		unk     int
		wantLen int
	}{
		{"keras layout", []string{"", "[UNK]", "春", "风"}, 0, 1, 4},
		{"angle markers", []string{"春", "<unk>", "<pad>"}, 2, 1, 3},
		{"no markers", []string{"春", "风", "花"}, 0, 1, 3},
		{"single token", []string{"春"}, 0, 0, 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			v := mustNew(t, tc.tokens...)
			assert.Equal(t, tc.pad, v.PadID())
			assert.Equal(t, tc.unk, v.UnkID())
			assert.Equal(t, tc.wantLen, v.Size())
		})
	}
}

func TestNewRejectsEmptyAndDuplicates(t *testing.T) {
	t.Parallel()

	_, err := New(nil)
	assert.True(t, errors.Is(err, ErrEmpty))

	_, err = New([]string{"[PAD]", "春", "春"})
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestEncodeUnknownCharacters(t *testing.T) {
	t.Parallel()

	v := mustNew(t, "[PAD]", "[UNK]", "春", "风", "，")
	assert.Equal(t, []int{2, 4, 1, 3}, v.Encode("春，x风"))
	assert.Empty(t, v.Encode(""))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	v := mustNew(t, "[PAD]", "[UNK]", "春", "风", "，", "海", "外", "。")
	for _, s := range []string{"海外春风，", "春。", "风风风", ""} {
		assert.Equal(t, s, v.Decode(v.Encode(s)))
	}
}

func TestDecodeOutOfRangePanics(t *testing.T) {
	t.Parallel()

	v := mustNew(t, "[PAD]", "[UNK]", "春")
	assert.Panics(t, func() { v.Decode([]int{3}) })
}

func TestIsCandidate(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"春":      true,
		"\u4e00": true,
		"\u9fff": true,
		"\u3007": false,
		"，":      false,
		"a":      false,
		"":       false,
		"春风":     false,
		"[UNK]":  false,
		"\u3400": false, // extension A
	}
	for tok, want := range cases {
		assert.Equal(t, want, IsCandidate(tok), "token %q", tok)
	}
}

func TestCandidateIDs(t *testing.T) {
	t.Parallel()

	v := mustNew(t, "[PAD]", "[UNK]", "春", "风", "，", "海", "外")
	assert.Equal(t, []int{2, 3, 5, 6}, v.CandidateIDs())
	assert.True(t, v.IsCandidateID(5))
	assert.False(t, v.IsCandidateID(4))

	fallback := mustNew(t, "[PAD]", "[UNK]", "a", "b")
	assert.Equal(t, []int{2, 3}, fallback.CandidateIDs())
}

func TestCandidateRunes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []rune("海外春风"), CandidateRunes("海外, 春风！"))
	assert.Empty(t, CandidateRunes("   "))
}

func TestLoad(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte("\n[UNK]\n春\n风\n"), 0o644))

	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Size())
	assert.Equal(t, "", v.Token(0))
	assert.Equal(t, 0, v.PadID())
	assert.Equal(t, 1, v.UnkID())
	assert.Equal(t, "风", v.Token(3))
}

func TestLoadCRLF(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vocab.txt")
	require.NoError(t, os.WriteFile(path, []byte("[PAD]\r\n[UNK]\r\n春\r\n风\r\n"), 0o644))

	v, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, v.Size())
	assert.Equal(t, 0, v.PadID())
	assert.Equal(t, 1, v.UnkID())
	assert.Equal(t, "春", v.Token(2))
	assert.Equal(t, []int{2, 3}, v.CandidateIDs())
	assert.Equal(t, []int{2, 3}, v.Encode("春风"))
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = Load(empty)
	assert.True(t, errors.Is(err, ErrEmpty))
}
