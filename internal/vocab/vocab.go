// Package vocab maps characters to token ids and back for a fixed,
// per-character vocabulary.
//
// A vocabulary is an ordered list of distinct tokens; a token's position is
// its id. Tokens are usually single characters, plus a pad marker and an
// unknown marker.
package vocab

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmpty     = errors.New("vocabulary is empty")
	ErrDuplicate = errors.New("duplicate vocabulary token")
)

var (
	padLike = []string{"", "[PAD]", "<PAD>", "[pad]", "<pad>"}
	unkLike = []string{"[UNK]", "<UNK>", "[unk]", "<unk>"}
)

// Vocab is immutable after construction and safe for concurrent use.
type Vocab struct {
	tokens     []string
	ids        map[string]int
	padID      int
	unkID      int
	candidates []int
}

// New builds a vocabulary from tokens in id order.
func New(tokens []string) (*Vocab, error) {
	if len(tokens) == 0 {
		return nil, ErrEmpty
	}
	v := &Vocab{
		tokens: append([]string(nil), tokens...),
		ids:    make(map[string]int, len(tokens)),
		padID:  -1,
		unkID:  -1,
	}
	for i, t := range v.tokens {
		if _, ok := v.ids[t]; ok {
			return nil, fmt.Errorf("%w: %q at id %d", ErrDuplicate, t, i)
		}
		v.ids[t] = i
		if v.padID < 0 && isOneOf(t, padLike) {
			v.padID = i
		}
		if v.unkID < 0 && isOneOf(t, unkLike) {
			v.unkID = i
		}
	}
	if v.padID < 0 {
		v.padID = 0
	}
	if v.unkID < 0 {
		v.unkID = 0
		if len(v.tokens) > 1 {
			v.unkID = 1
		}
	}

	for i, t := range v.tokens {
		if IsCandidate(t) {
			v.candidates = append(v.candidates, i)
		}
	}
	if len(v.candidates) == 0 {
		for i := range v.tokens {
			if i != v.padID && i != v.unkID {
				v.candidates = append(v.candidates, i)
			}
		}
	}
	return v, nil
}

// Load reads a vocabulary file: UTF-8, one token per line, order defines ids.
// Only the line terminator ("\n" or "\r\n") is stripped, so an empty line
// is a valid (pad) token.
func Load(path string) (*Vocab, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("load vocabulary %s: not valid UTF-8", path)
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	if text == "" {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, ErrEmpty)
	}
	text = strings.TrimSuffix(text, "\n")
	v, err := New(strings.Split(text, "\n"))
	if err != nil {
		return nil, fmt.Errorf("load vocabulary %s: %w", path, err)
	}
	return v, nil
}

// Size is the number of tokens.
func (v *Vocab) Size() int { return len(v.tokens) }

func (v *Vocab) PadID() int { return v.padID }
func (v *Vocab) UnkID() int { return v.unkID }

// Token returns the token string for id. Out of range ids panic.
func (v *Vocab) Token(id int) string {
	return v.tokens[id]
}

// Encode maps every character of text to its id; characters outside the
// vocabulary map to the unknown id.
func (v *Vocab) Encode(text string) []int {
	ids := make([]int, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		id, ok := v.ids[string(r)]
		if !ok {
			id = v.unkID
		}
		ids = append(ids, id)
	}
	return ids
}

// Decode concatenates the tokens for ids with no separator.
func (v *Vocab) Decode(ids []int) string {
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteString(v.tokens[id])
	}
	return sb.String()
}

// CandidateIDs returns the ids eligible for generation, in ascending order.
// The returned slice must not be modified.
func (v *Vocab) CandidateIDs() []int {
	return v.candidates
}

// IsCandidateID reports whether the token at id is a generation candidate.
func (v *Vocab) IsCandidateID(id int) bool {
	return IsCandidate(v.tokens[id])
}

// IsCandidate reports whether token is exactly one CJK Unified Ideograph
// (U+4E00 to U+9FFF).
func IsCandidate(token string) bool {
	r, size := utf8.DecodeRuneInString(token)
	if size == 0 || size != len(token) {
		return false
	}
	return IsCandidateRune(r)
}

func IsCandidateRune(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// CandidateRunes returns the characters of text that are generation candidates.
func CandidateRunes(text string) []rune {
	var out []rune
	for _, r := range text {
		if IsCandidateRune(r) {
			out = append(out, r)
		}
	}
	return out
}

func isOneOf(s string, set []string) bool {
	for _, x := range set {
		if s == x {
			return true
		}
	}
	return false
}
