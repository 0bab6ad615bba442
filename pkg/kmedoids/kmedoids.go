package kmedoids

import "math/rand"

// Config selects the strategies a KMedoids driver uses: which
// Initializer and Maximizer factory strings to resolve, which
// DistanceFunc to measure with, how to parallelize, and the seeded
// random source that makes repeated Fit calls reproducible.
type Config[T Float] struct {
	Initializer     string // factory string, e.g. "random" or "kmeans_pp"
	Maximizer       string // factory string, e.g. "pam_swap"
	DistanceFunc    DistanceFunc[T]
	Parallelism     Parallelism
	ToleranceFactor T // 0 means DefaultToleranceFactor
	Rand            *rand.Rand
}

func (c *Config[T]) validate() error {
	if c.DistanceFunc == nil {
		return invalidArgument("Config.DistanceFunc must be set")
	}
	if c.Rand == nil {
		return invalidArgument("Config.Rand must be set")
	}
	return nil
}

// KMedoids is Partition Around Medoids driven by a configurable
// initializer and maximizer: Fit runs numRepeats independent restarts
// (each with a fresh initial medoid draw) and keeps the lowest-error
// outcome.
type KMedoids[T Float] struct {
	cfg  Config[T]
	best *Result[T]
}

// New validates cfg and returns a KMedoids driver.
func New[T Float](cfg Config[T]) (*KMedoids[T], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &KMedoids[T]{cfg: cfg}, nil
}

// Fit clusters data into k medoids, repeating the initialize-then-swap
// search numRepeats times and keeping the lowest-error restart. It
// fails with InvalidArgument if k is non-positive or exceeds the
// number of rows in data.
func (km *KMedoids[T]) Fit(data *Matrix[T], k, numRepeats int) (*Result[T], error) {
	if numRepeats <= 0 {
		return nil, invalidArgument("numRepeats must be positive, got %d", numRepeats)
	}
	initializer, err := NewInitializer[T](km.cfg.Initializer, km.cfg.DistanceFunc)
	if err != nil {
		return nil, err
	}
	maximizer, err := NewMaximizer[T](km.cfg.Maximizer, km.cfg.Parallelism)
	if err != nil {
		return nil, err
	}
	if pam, ok := maximizer.(*PAMSwap[T]); ok && km.cfg.ToleranceFactor != 0 {
		pam.ToleranceFactor = km.cfg.ToleranceFactor
	}

	var best *Result[T]
	for r := 0; r < numRepeats; r++ {
		result, err := km.fitOnce(data, k, initializer, maximizer)
		if err != nil {
			return nil, err
		}
		if result.betterThan(best) {
			best = result
		}
	}
	km.best = best
	return best, nil
}

func (km *KMedoids[T]) fitOnce(data *Matrix[T], k int, initializer Initializer[T], maximizer Maximizer[T]) (*Result[T], error) {
	selected, err := initializer.Initialize(data, k, km.cfg.Rand)
	if err != nil {
		return nil, err
	}
	clusters, err := NewClusters[T](data.Rows(), k)
	if err != nil {
		return nil, err
	}
	distMat := NewDistanceMatrix[T](data, km.cfg.DistanceFunc)
	distMat.InitializeMedoids(selected)
	if err := clusters.SetSelected(selected, distMat); err != nil {
		return nil, err
	}
	if err := maximizer.Maximize(data, clusters, distMat); err != nil {
		return nil, err
	}
	return resultFromClusters(data, clusters), nil
}

// GetResults returns the best result from the most recent Fit call, or
// nil if Fit has not been called since construction or the last Reset.
func (km *KMedoids[T]) GetResults() *Result[T] {
	return km.best
}

// Reset discards the best result from any prior Fit call.
func (km *KMedoids[T]) Reset() {
	km.best = nil
}
