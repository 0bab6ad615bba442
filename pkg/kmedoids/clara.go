package kmedoids

// DefaultSampleSize is CLARA's default sample size calculation:
// 40 + 2*numClusters, large enough that a PAM run over the sample
// reliably approximates the full data set's medoids while staying far
// cheaper than PAM's O(n^2) pairwise distance matrix on the full set.
func DefaultSampleSize(numData, numClusters int) int {
	size := 40 + 2*numClusters
	if size > numData {
		return numData
	}
	return size
}

// SampleSizeFunc computes CLARA's per-iteration sample size from the
// full data set's row count and the number of clusters requested.
type SampleSizeFunc func(numData, numClusters int) int

// CLARA is Clustering LARge Applications: it repeatedly draws a
// sub-sample of the working set, runs KMedoids (PAM) over just that
// sample, reprojects the resulting medoids onto the full data set via
// AssignToCentroids, and keeps the lowest full-data error seen across
// samples. This is what lets it scale to data sets where PAM's O(n^2)
// pairwise distance matrix would be too large to build.
type CLARA[T Float] struct {
	cfg            Config[T]
	sampleSizeCalc SampleSizeFunc
	best           *Result[T]
}

// NewCLARA validates cfg and returns a CLARA driver. A nil
// sampleSizeCalc defaults to DefaultSampleSize.
func NewCLARA[T Float](cfg Config[T], sampleSizeCalc SampleSizeFunc) (*CLARA[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if sampleSizeCalc == nil {
		sampleSizeCalc = DefaultSampleSize
	}
	return &CLARA[T]{cfg: cfg, sampleSizeCalc: sampleSizeCalc}, nil
}

// Fit draws numSamplingIters samples of data, clusters each into k
// medoids with numRepeats PAM restarts per sample, and returns the
// sample whose reprojection onto the full data set has the lowest
// error.
func (c *CLARA[T]) Fit(data *Matrix[T], k, numRepeats, numSamplingIters int) (*Result[T], error) {
	if numSamplingIters <= 0 {
		return nil, invalidArgument("numSamplingIters must be positive, got %d", numSamplingIters)
	}
	sampleSize := c.sampleSizeCalc(data.Rows(), k)
	if sampleSize < k {
		return nil, invalidArgument("sample size (%d) is smaller than k (%d)", sampleSize, k)
	}

	inner, err := New[T](c.cfg)
	if err != nil {
		return nil, err
	}
	sampler := NewSampler[T](c.cfg.Rand)

	var best *Result[T]
	for i := 0; i < numSamplingIters; i++ {
		sampled, err := sampler.Sample(sampleSize, data)
		if err != nil {
			return nil, err
		}
		inner.Reset()
		sampleResult, err := inner.Fit(sampled.rows, k, numRepeats)
		if err != nil {
			return nil, err
		}
		projected := AssignToCentroids(data, sampleResult.Centroids, c.cfg.DistanceFunc)
		if projected.betterThan(best) {
			best = projected
		}
	}
	c.best = best
	return best, nil
}

// GetResults returns the best result from the most recent Fit call, or
// nil if Fit has not been called since construction or the last Reset.
func (c *CLARA[T]) GetResults() *Result[T] {
	return c.best
}

// Reset discards the best result from any prior Fit call.
func (c *CLARA[T]) Reset() {
	c.best = nil
}
