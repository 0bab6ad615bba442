package kmedoids

import "math"

// DistanceMatrix holds, for the current working set W, the pairwise
// distances between every pair of rows (computed once and never
// recomputed — that part of the working set never changes) plus the
// derived distance-to-each-medoid and distance-to-closest-medoid
// caches, which are delta-updated whenever the selected medoid set
// changes via RefreshMedoidColumn/RefreshClosest.
type DistanceMatrix[T Float] struct {
	n, k     int
	pairwise *Matrix[T]  // n x n, symmetric, zero diagonal
	toMedoid *Matrix[T]  // n x k: toMedoid[i][s] = d(i, medoid at slot s)
	closest  []T         // n: distance to the closest medoid
	closestS []int       // n: slot index achieving `closest`
}

// NewDistanceMatrix computes the full n x n pairwise distance matrix
// over data's rows using distFn. This is the O(n^2) step the algorithm
// is quadratic in sample size for.
func NewDistanceMatrix[T Float](data *Matrix[T], distFn DistanceFunc[T]) *DistanceMatrix[T] {
	n := data.Rows()
	pairwise := NewMatrix[T](n, n)
	for i := 0; i < n; i++ {
		ri := data.Row(i)
		pairwise.Set(i, i, 0)
		for j := i + 1; j < n; j++ {
			d := distFn(ri, data.Row(j))
			pairwise.Set(i, j, d)
			pairwise.Set(j, i, d)
		}
	}
	return &DistanceMatrix[T]{n: n, pairwise: pairwise}
}

// InitializeMedoids (re)builds the to-medoid and closest-medoid caches
// from scratch for the given selected slice (len(selected) == k).
func (d *DistanceMatrix[T]) InitializeMedoids(selected []int) {
	d.k = len(selected)
	d.toMedoid = NewMatrix[T](d.n, d.k)
	d.closest = make([]T, d.n)
	d.closestS = make([]int, d.n)
	for s, medoidIdx := range selected {
		d.refreshMedoidColumnFor(s, medoidIdx)
	}
	d.RefreshClosest()
}

// DistanceBetween returns the precomputed pairwise distance d(i, j).
func (d *DistanceMatrix[T]) DistanceBetween(i, j int) T {
	return d.pairwise.At(i, j)
}

// RefreshMedoidColumn recomputes the to-medoid column for slot s after
// its medoid has changed to newMedoidIdx, then refreshes the
// closest-medoid cache (which may have changed for any point).
func (d *DistanceMatrix[T]) RefreshMedoidColumn(s, newMedoidIdx int) {
	d.refreshMedoidColumnFor(s, newMedoidIdx)
	d.RefreshClosest()
}

func (d *DistanceMatrix[T]) refreshMedoidColumnFor(s, medoidIdx int) {
	for i := 0; i < d.n; i++ {
		d.toMedoid.Set(i, s, d.pairwise.At(i, medoidIdx))
	}
}

// RefreshClosest rescans the k to-medoid columns for every point and
// recomputes the closest-medoid distance and slot. O(n*k), far cheaper
// than recomputing the O(n^2) pairwise matrix.
func (d *DistanceMatrix[T]) RefreshClosest() {
	for i := 0; i < d.n; i++ {
		bestSlot := 0
		best := d.toMedoid.At(i, 0)
		for s := 1; s < d.k; s++ {
			v := d.toMedoid.At(i, s)
			if v < best {
				best = v
				bestSlot = s
			}
		}
		d.closest[i] = best
		d.closestS[i] = bestSlot
	}
}

// DistanceToMedoid returns d(i, medoid at slot s).
func (d *DistanceMatrix[T]) DistanceToMedoid(i, s int) T {
	return d.toMedoid.At(i, s)
}

// DistanceToClosestMedoid returns point i's distance to its nearest
// currently-selected medoid.
func (d *DistanceMatrix[T]) DistanceToClosestMedoid(i int) T {
	return d.closest[i]
}

// ClosestSlot returns the slot index achieving DistanceToClosestMedoid.
func (d *DistanceMatrix[T]) ClosestSlot(i int) int {
	return d.closestS[i]
}

// SecondLowestToMedoids returns point i's distance to its second
// closest medoid, skipping the slot that achieves the closest
// distance. With k == 1 there is no second medoid; +Inf is returned so
// that callers taking min(secondLowest, x) always fall through to x.
func (d *DistanceMatrix[T]) SecondLowestToMedoids(i int) T {
	if d.k <= 1 {
		return T(math.Inf(1))
	}
	skip := d.closestS[i]
	best := T(math.Inf(1))
	for s := 0; s < d.k; s++ {
		if s == skip {
			continue
		}
		v := d.toMedoid.At(i, s)
		if v < best {
			best = v
		}
	}
	return best
}
