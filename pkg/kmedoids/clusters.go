package kmedoids

// Clusters is the mutable clustering state for one working set W of
// size n. selected[s] is the index into W of the medoid occupying
// cluster slot s; unselected is its complement. assignments[i] is the
// slot each point is currently assigned to, and distances[i] is its
// distance to that slot's medoid. error is the sum of distances.
//
// Invariants (checked by CheckInvariants, not on every mutation — the
// hot path trusts its own bookkeeping):
//
//	(P1) len(selected) == k, selected and unselected partition {0..n-1}
//	(P2) error == sum(distances)
//	(P3) distances[i] == d(i, selected[assignments[i]]), the minimum over slots
type Clusters[T Float] struct {
	n, k        int
	selected    []int
	isSelected  []bool
	assignments []int
	distances   []T
	errSum      T
}

// NewClusters allocates empty clustering state for a working set of n
// points and k medoid slots. It fails with InvalidArgument if k <= 0 or
// k > n; an Initializer is expected to populate selected afterward.
func NewClusters[T Float](n, k int) (*Clusters[T], error) {
	if k <= 0 {
		return nil, invalidArgument("k must be positive, got %d", k)
	}
	if k > n {
		return nil, invalidArgument("k (%d) exceeds working set size (%d)", k, n)
	}
	return &Clusters[T]{
		n:           n,
		k:           k,
		selected:    make([]int, k),
		isSelected:  make([]bool, n),
		assignments: make([]int, n),
		distances:   make([]T, n),
	}, nil
}

// Size returns the working set size n.
func (c *Clusters[T]) Size() int { return c.n }

// K returns the number of medoid slots.
func (c *Clusters[T]) K() int { return c.k }

// Selected returns the medoid indices, slot-ordered. Callers must not
// mutate the returned slice.
func (c *Clusters[T]) Selected() []int { return c.selected }

// IsSelected reports whether index i is a currently-selected medoid.
func (c *Clusters[T]) IsSelected(i int) bool { return c.isSelected[i] }

// Unselected returns the complement of Selected in ascending index
// order. Ascending order (rather than map iteration order) is what
// makes the PAM swap search's summation deterministic across runs.
func (c *Clusters[T]) Unselected() []int {
	out := make([]int, 0, c.n-c.k)
	for i := 0; i < c.n; i++ {
		if !c.isSelected[i] {
			out = append(out, i)
		}
	}
	return out
}

// NumCandidates returns len(Unselected()) without allocating.
func (c *Clusters[T]) NumCandidates() int { return c.n - c.k }

// Assignments returns, for each point, the slot of its assigned
// medoid. Callers must not mutate the returned slice.
func (c *Clusters[T]) Assignments() []int { return c.assignments }

// Distances returns, for each point, its distance to its assigned
// medoid. Callers must not mutate the returned slice.
func (c *Clusters[T]) Distances() []T { return c.distances }

// Error returns the aggregate error, sum(Distances()).
func (c *Clusters[T]) Error() T { return c.errSum }

// SetSelected installs the medoid index set (used by an Initializer to
// populate fresh Clusters) and recomputes assignments from distMat,
// which must already have its medoid caches built from the same
// selected slice via DistanceMatrix.InitializeMedoids.
func (c *Clusters[T]) SetSelected(selected []int, distMat *DistanceMatrix[T]) error {
	if len(selected) != c.k {
		return invalidArgument("SetSelected: got %d medoids, want %d", len(selected), c.k)
	}
	for i := range c.isSelected {
		c.isSelected[i] = false
	}
	copy(c.selected, selected)
	for _, idx := range selected {
		c.isSelected[idx] = true
	}
	c.RecomputeAssignments(distMat)
	return nil
}

// RecomputeAssignments pulls the closest-medoid cache out of distMat
// into assignments/distances/error. Called after SetSelected and after
// every swap.
func (c *Clusters[T]) RecomputeAssignments(distMat *DistanceMatrix[T]) {
	var sum T
	for i := 0; i < c.n; i++ {
		c.assignments[i] = distMat.ClosestSlot(i)
		c.distances[i] = distMat.DistanceToClosestMedoid(i)
		sum += c.distances[i]
	}
	c.errSum = sum
}

// Swap replaces the medoid at slot with candidate, updates distMat's
// derived caches for the new medoid set, and recomputes
// assignments/distances/error. candidate must currently be unselected.
func (c *Clusters[T]) Swap(distMat *DistanceMatrix[T], slot, candidate int) error {
	if slot < 0 || slot >= c.k {
		return invalidArgument("Swap: slot %d out of range [0,%d)", slot, c.k)
	}
	if candidate < 0 || candidate >= c.n || c.isSelected[candidate] {
		return invalidArgument("Swap: candidate %d is not a valid unselected index", candidate)
	}
	old := c.selected[slot]
	c.selected[slot] = candidate
	c.isSelected[old] = false
	c.isSelected[candidate] = true
	distMat.RefreshMedoidColumn(slot, candidate)
	c.RecomputeAssignments(distMat)
	return nil
}

// CheckInvariants verifies P1-P3 and returns an InvariantViolation
// error describing the first violation found, or nil. It is not on the
// hot path; use it in tests and at trust boundaries.
func (c *Clusters[T]) CheckInvariants(distMat *DistanceMatrix[T]) error {
	if len(c.selected) != c.k {
		return invariantViolation("len(selected)=%d, want k=%d", len(c.selected), c.k)
	}
	seen := make(map[int]bool, c.k)
	for _, idx := range c.selected {
		if idx < 0 || idx >= c.n {
			return invariantViolation("selected index %d out of range [0,%d)", idx, c.n)
		}
		if seen[idx] {
			return invariantViolation("selected index %d appears twice", idx)
		}
		seen[idx] = true
		if !c.isSelected[idx] {
			return invariantViolation("index %d is in selected but isSelected is false", idx)
		}
	}
	if len(seen) != c.k {
		return invariantViolation("selected has %d distinct entries, want %d", len(seen), c.k)
	}
	var sum T
	for i := 0; i < c.n; i++ {
		slot := c.assignments[i]
		if slot < 0 || slot >= c.k {
			return invariantViolation("point %d assigned to out-of-range slot %d", i, slot)
		}
		want := distMat.DistanceBetween(i, c.selected[slot])
		if c.distances[i] != want {
			return invariantViolation("point %d distance %v does not match d(i, medoid)=%v", i, c.distances[i], want)
		}
		sum += c.distances[i]
	}
	if sum != c.errSum {
		return invariantViolation("error %v does not equal sum(distances) %v", c.errSum, sum)
	}
	return nil
}
