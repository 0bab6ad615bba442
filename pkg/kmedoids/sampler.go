package kmedoids

import "math/rand"

// Sampler draws a without-replacement subset of rows from a Matrix,
// used by CLARA to build the reduced working sets it runs PAM over.
type Sampler[T Float] struct {
	rng *rand.Rand
}

// NewSampler builds a Sampler driven by rng. Callers own rng's seed,
// which is what makes a CLARA run reproducible: the same *rand.Rand
// sequence (same seed, same draw order) yields the same samples.
func NewSampler[T Float](rng *rand.Rand) *Sampler[T] {
	return &Sampler[T]{rng: rng}
}

// sampleResult pairs a drawn sub-matrix with the row indices (into the
// source matrix) it was drawn from, needed to reproject a sample-local
// medoid back onto the full data set.
type sampleResult[T Float] struct {
	rows    *Matrix[T]
	indices []int
}

// Rows returns the drawn sub-matrix.
func (r *sampleResult[T]) Rows() *Matrix[T] { return r.rows }

// Sample draws size distinct rows from data without replacement. It
// fails with InvalidArgument if size is non-positive or exceeds the
// number of rows available.
func (s *Sampler[T]) Sample(size int, data *Matrix[T]) (*sampleResult[T], error) {
	n := data.Rows()
	if size <= 0 {
		return nil, invalidArgument("sample size must be positive, got %d", size)
	}
	if size > n {
		return nil, invalidArgument("sample size (%d) exceeds data size (%d)", size, n)
	}

	perm := s.rng.Perm(n)
	indices := make([]int, size)
	copy(indices, perm[:size])

	out := NewMatrix[T](size, data.Cols())
	for i, idx := range indices {
		out.SetRow(i, data.Row(idx))
	}
	return &sampleResult[T]{rows: out, indices: indices}, nil
}
