package logits

import (
	"math"
	"math/rand"
)

// Epsilon presets. The incremental engine guards only the log; the
// resequence engine also guards the temperature divisor.
const (
	DefaultLogEpsilon    = 1e-9
	ResequenceLogEpsilon = 1e-20
	ResequenceTempEps    = 1e-9
)

// SamplerConfig configures the behaviour of a Sampler.
type SamplerConfig struct {
	// Seed for the sampler's RNG; negative draws a seed from the
	// process-wide source.
	Seed        int64
	Temperature float64
	// LogEpsilon is added to every probability before taking its log.
	LogEpsilon float64
	// TempEpsilon is added to the temperature before dividing.
	TempEpsilon float64
}

// Sampler draws token ids from probability vectors. It is not safe for
// concurrent use; create one per generation request.
type Sampler struct {
	rng    *rand.Rand
	cfg    SamplerConfig
	greedy bool
	prob   []float64
	all    []int
}

// NewSampler returns a new sampler with the provided configuration.
func NewSampler(cfg SamplerConfig) *Sampler {
	seed := cfg.Seed
	if seed < 0 {
		seed = rand.Int63()
	}
	if cfg.LogEpsilon <= 0 {
		cfg.LogEpsilon = DefaultLogEpsilon
	}
	if cfg.TempEpsilon < 0 {
		cfg.TempEpsilon = 0
	}
	return &Sampler{
		rng:    rand.New(rand.NewSource(seed)),
		cfg:    cfg,
		greedy: cfg.Temperature <= 0,
	}
}

// Greedy reports whether the sampler always returns the arg-max.
func (s *Sampler) Greedy() bool {
	return s.greedy
}

// Sample draws a single index from probs, a distribution over the whole
// vocabulary. When candidates is non-nil only those ids can be returned.
//
//  1. Mass outside the candidate set is dropped; negative and NaN entries
//     count as zero.
//  2. The remaining mass is renormalized. If it is not positive a uniform
//     draw over the candidates (or the whole vocabulary) is returned.
//  3. Temperature <= 0 returns the arg-max; ties go to the lowest id.
//  4. Otherwise log(p+LogEpsilon)/(T+TempEpsilon) is computed, the maximum is
//     subtracted before exponentiating, and one index is drawn from the
//     renormalized result.
func (s *Sampler) Sample(probs []float32, candidates []int) int {
	support := candidates
	if support == nil {
		support = s.allIDs(len(probs))
	}
	if len(support) == 0 {
		panic("logits: empty candidate set")
	}

	if cap(s.prob) < len(support) {
		s.prob = make([]float64, len(support))
	}
	prob := s.prob[:len(support)]

	var sum float64
	for i, id := range support {
		p := float64(probs[id])
		if !(p > 0) || math.IsInf(p, 1) {
			p = 0
		}
		prob[i] = p
		sum += p
	}
	if !(sum > 0) || math.IsInf(sum, 1) {
		return s.uniform(support)
	}
	invSum := 1.0 / sum
	for i := range prob {
		prob[i] *= invSum
	}

	if s.greedy {
		return support[argmax(prob)]
	}

	// Temperatures small enough to overflow the scaled logits sharpen to
	// the arg-max.
	best := support[argmax(prob)]
	invTemp := 1.0 / (s.cfg.Temperature + s.cfg.TempEpsilon)
	if math.IsInf(invTemp, 0) || math.IsNaN(invTemp) {
		return best
	}
	maxv := math.Inf(-1)
	for i, p := range prob {
		l := math.Log(p+s.cfg.LogEpsilon) * invTemp
		prob[i] = l
		if l > maxv {
			maxv = l
		}
	}
	if math.IsInf(maxv, 0) {
		return best
	}
	sum = 0
	for i := range prob {
		e := math.Exp(prob[i] - maxv)
		prob[i] = e
		sum += e
	}
	if !(sum > 0) || math.IsInf(sum, 1) {
		return s.uniform(support)
	}

	r := s.rng.Float64() * sum
	var c float64
	for i, p := range prob {
		c += p
		if r < c {
			return support[i]
		}
	}
	return support[len(support)-1]
}

func (s *Sampler) uniform(ids []int) int {
	return ids[s.rng.Intn(len(ids))]
}

func (s *Sampler) allIDs(n int) []int {
	if len(s.all) != n {
		s.all = make([]int, n)
		for i := range s.all {
			s.all[i] = i
		}
	}
	return s.all
}

// argmax returns the index of the maximum value in the slice. If the slice is empty it panics.
func argmax(x []float64) int {
	if len(x) == 0 {
		panic("argmax: empty slice")
	}
	bestI := 0
	bestV := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > bestV {
			bestV = x[i]
			bestI = i
		}
	}
	return bestI
}
