package kmedoids

import (
	"math"
	"math/rand"
)

// Initializer selects the initial k medoid indices (into data's rows)
// before PAM's swap phase begins. Implementations must return k
// distinct indices in [0, data.Rows()).
type Initializer[T Float] interface {
	Initialize(data *Matrix[T], k int, rng *rand.Rand) ([]int, error)
}

// NewInitializer is the factory-string registry: it resolves the
// configured initializer name to a concrete Initializer. Unknown names
// fail with InvalidArgument rather than silently falling back.
func NewInitializer[T Float](name string, distFn DistanceFunc[T]) (Initializer[T], error) {
	switch name {
	case "random":
		return randomInitializer[T]{}, nil
	case "kmeans_pp":
		if distFn == nil {
			return nil, invalidArgument("kmeans_pp initializer requires a distance function")
		}
		return kmeansPPInitializer[T]{distFn: distFn}, nil
	default:
		return nil, invalidArgument("unknown initializer %q", name)
	}
}

type randomInitializer[T Float] struct{}

func (randomInitializer[T]) Initialize(data *Matrix[T], k int, rng *rand.Rand) ([]int, error) {
	n := data.Rows()
	if k <= 0 || k > n {
		return nil, invalidArgument("random initializer: k (%d) must be in [1,%d]", k, n)
	}
	perm := rng.Perm(n)
	selected := make([]int, k)
	copy(selected, perm[:k])
	return selected, nil
}

// kmeansPPInitializer is the weighted-farthest-point seeding adapted
// from quantization.KMeansPlusPlus's first two steps: it picks a
// uniformly random first medoid, then repeatedly picks a further point
// with probability proportional to its squared distance to the
// nearest medoid chosen so far. Unlike k-means, it snaps every pick to
// an actual data row since a medoid must be a member of the working
// set — there is no mean-of-cluster update phase.
type kmeansPPInitializer[T Float] struct {
	distFn DistanceFunc[T]
}

func (in kmeansPPInitializer[T]) Initialize(data *Matrix[T], k int, rng *rand.Rand) ([]int, error) {
	n := data.Rows()
	if k <= 0 || k > n {
		return nil, invalidArgument("kmeans_pp initializer: k (%d) must be in [1,%d]", k, n)
	}

	isSelected := make([]bool, n)
	minDist := make([]T, n)
	for i := range minDist {
		minDist[i] = T(math.Inf(1))
	}

	first := rng.Intn(n)
	selected := make([]int, 0, k)
	selected = append(selected, first)
	isSelected[first] = true
	minDist[first] = 0

	for c := 1; c < k; c++ {
		last := selected[len(selected)-1]
		lastRow := data.Row(last)
		var total T
		for i := 0; i < n; i++ {
			if isSelected[i] {
				continue
			}
			d := in.distFn(data.Row(i), lastRow)
			d = d * d
			if d < minDist[i] {
				minDist[i] = d
			}
			total += minDist[i]
		}

		chosen := -1
		if total > 0 {
			target := T(rng.Float64()) * total
			var cumulative T
			for i := 0; i < n; i++ {
				if isSelected[i] {
					continue
				}
				cumulative += minDist[i]
				if cumulative >= target {
					chosen = i
					break
				}
			}
		}
		if chosen == -1 {
			// All remaining candidates are coincident with a chosen
			// medoid (total == 0) or a floating-point shortfall left the
			// roulette wheel short of target: fall back to the first
			// remaining unselected index, preserving determinism.
			for i := 0; i < n; i++ {
				if !isSelected[i] {
					chosen = i
					break
				}
			}
		}
		selected = append(selected, chosen)
		isSelected[chosen] = true
		minDist[chosen] = 0
	}
	return selected, nil
}
