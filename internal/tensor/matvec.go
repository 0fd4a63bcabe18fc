package tensor

import (
	"runtime"
	"sync"
)

// Rows below this are computed on the calling goroutine.
const parallelMinRows = 256

// rowJob computes one contiguous row band of an affine mat-vec.
type rowJob struct {
	dst    []float32
	w      *Mat
	x      []float32
	bias   []float32
	rs, re int
	wg     *sync.WaitGroup
}

var (
	rowJobs     chan rowJob
	rowWorkers  int
	rowPoolOnce sync.Once
)

func startRowPool() {
	rowWorkers = max(runtime.GOMAXPROCS(0), 1)
	rowJobs = make(chan rowJob, rowWorkers*2)
	for range rowWorkers {
		go func() {
			for j := range rowJobs {
				affineRows(j.dst, j.w, j.x, j.bias, j.rs, j.re)
				j.wg.Done()
			}
		}()
	}
}

// MatVec computes dst = w * x.
func MatVec(dst []float32, w *Mat, x []float32) {
	MatVecBias(dst, w, x, nil)
}

// MatVecBias computes dst = w * x + bias; a nil bias is treated as zero.
// Matrices with many rows are split into bands across a shared worker pool.
func MatVecBias(dst []float32, w *Mat, x []float32, bias []float32) {
	if w.R == 0 || w.C == 0 {
		return
	}
	if len(dst) < w.R || len(x) < w.C || (bias != nil && len(bias) < w.R) {
		panic("matvec shape mismatch")
	}

	rowPoolOnce.Do(startRowPool)
	bands := min(rowWorkers, w.R)
	if bands <= 1 || w.R < parallelMinRows {
		affineRows(dst, w, x, bias, 0, w.R)
		return
	}

	var wg sync.WaitGroup
	size := (w.R + bands - 1) / bands
	for rs := 0; rs < w.R; rs += size {
		wg.Add(1)
		rowJobs <- rowJob{dst: dst, w: w, x: x, bias: bias, rs: rs, re: min(rs+size, w.R), wg: &wg}
	}
	wg.Wait()
}

func affineRows(dst []float32, w *Mat, x []float32, bias []float32, rs, re int) {
	n := w.C
	for i := rs; i < re; i++ {
		row := w.Data[i*w.Stride : i*w.Stride+n]
		var s0, s1 float32
		j := 0
		for ; j+3 < n; j += 4 {
			s0 += row[j]*x[j] + row[j+1]*x[j+1]
			s1 += row[j+2]*x[j+2] + row[j+3]*x[j+3]
		}
		for ; j < n; j++ {
			s0 += row[j] * x[j]
		}
		if bias != nil {
			s0 += bias[i]
		}
		dst[i] = s0 + s1
	}
}
