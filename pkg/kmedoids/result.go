package kmedoids

// Result is the public, immutable outcome of a Fit call: the chosen
// medoids (as full rows of the data they were drawn from),
// per-point assignments and distances, and the aggregate error.
type Result[T Float] struct {
	Centroids   *Matrix[T]
	Assignments []int
	Distances   []T
	Error       T
}

// resultFromClusters materializes a Result from Clusters' internal,
// index-based state plus the data matrix the indices refer into.
func resultFromClusters[T Float](data *Matrix[T], clusters *Clusters[T]) *Result[T] {
	centroids := NewMatrix[T](clusters.K(), data.Cols())
	for s, idx := range clusters.Selected() {
		centroids.SetRow(s, data.Row(idx))
	}
	assignments := make([]int, len(clusters.Assignments()))
	copy(assignments, clusters.Assignments())
	distances := make([]T, len(clusters.Distances()))
	copy(distances, clusters.Distances())
	return &Result[T]{
		Centroids:   centroids,
		Assignments: assignments,
		Distances:   distances,
		Error:       clusters.Error(),
	}
}

// AssignToCentroids scores every row of data against a fixed set of
// centroid rows (not necessarily rows of data itself) and returns the
// resulting Result. It is O(n*k), the step CLARA uses to reproject a
// sample-local clustering onto the full working set without ever
// building a full-data pairwise distance matrix.
func AssignToCentroids[T Float](data, centroids *Matrix[T], distFn DistanceFunc[T]) *Result[T] {
	n := data.Rows()
	k := centroids.Rows()
	assignments := make([]int, n)
	distances := make([]T, n)
	var sum T
	for i := 0; i < n; i++ {
		row := data.Row(i)
		bestSlot := 0
		best := distFn(row, centroids.Row(0))
		for s := 1; s < k; s++ {
			d := distFn(row, centroids.Row(s))
			if d < best {
				best = d
				bestSlot = s
			}
		}
		assignments[i] = bestSlot
		distances[i] = best
		sum += best
	}
	return &Result[T]{Centroids: centroids, Assignments: assignments, Distances: distances, Error: sum}
}

// betterThan reports whether r has strictly lower error than other,
// i.e. whether it should replace other as the best-seen result. Ties
// keep the existing (first-seen) result, which is what keeps repeated
// Fit calls with the same seed deterministic.
func (r *Result[T]) betterThan(other *Result[T]) bool {
	if other == nil {
		return true
	}
	return r.Error < other.Error
}
