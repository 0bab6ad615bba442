package kmedoids

import (
	"math"
	"runtime"
	"sync"
)

// PAMSwapName is the factory string PAM swap is registered under.
const PAMSwapName = "pam_swap"

// DefaultToleranceFactor is the factor applied to the mean per-point
// error to decide when PAM's swap search has converged: a candidate
// swap is only accepted if it reduces total error by more than
// |ToleranceFactor| * (error / n).
const DefaultToleranceFactor = -0.01

// Maximizer searches for medoid swaps that improve a Clusters' error
// and applies them until none remain worth taking.
type Maximizer[T Float] interface {
	Maximize(data *Matrix[T], clusters *Clusters[T], distMat *DistanceMatrix[T]) error
}

// NewMaximizer is the factory-string registry for Maximizer
// implementations. "pam_swap" is the only builtin.
func NewMaximizer[T Float](name string, parallelism Parallelism) (Maximizer[T], error) {
	switch name {
	case PAMSwapName:
		return &PAMSwap[T]{Parallelism: parallelism, ToleranceFactor: T(DefaultToleranceFactor)}, nil
	default:
		return nil, invalidArgument("unknown maximizer %q", name)
	}
}

// PAMSwap is Partition Around Medoids' swap phase: repeatedly find the
// (slot, candidate) pair whose swap reduces total error the most, and
// take it, until the best available swap no longer clears a tolerance
// computed once from the clustering's error on entry.
type PAMSwap[T Float] struct {
	Parallelism     Parallelism
	ToleranceFactor T // applied as ToleranceFactor * (error / n); default DefaultToleranceFactor
}

// Maximize runs PAM's swap loop against clusters in place.
func (p *PAMSwap[T]) Maximize(data *Matrix[T], clusters *Clusters[T], distMat *DistanceMatrix[T]) error {
	n := data.Rows()
	tf := p.ToleranceFactor
	if tf == 0 {
		tf = T(DefaultToleranceFactor)
	}
	tolerance := tf * (clusters.Error() / T(n))

	for {
		dissim := NewMatrix[T](clusters.K(), n)
		dissim.Fill(T(math.Inf(1)))
		p.maximizeIter(dissim, clusters, distMat)

		slot, candidate, minVal := dissim.ArgMin()
		if minVal >= tolerance {
			break
		}
		if err := clusters.Swap(distMat, slot, candidate); err != nil {
			return err
		}
	}
	return nil
}

func (p *PAMSwap[T]) maximizeIter(dissim *Matrix[T], clusters *Clusters[T], distMat *DistanceMatrix[T]) {
	k := clusters.K()
	if !p.Parallelism.usesGoroutinePool() {
		for slot := 0; slot < k; slot++ {
			p.maximizeSlot(slot, dissim, clusters, distMat)
		}
		return
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, runtime.GOMAXPROCS(0))
	for slot := 0; slot < k; slot++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(slot int) {
			defer wg.Done()
			defer func() { <-sem }()
			p.maximizeSlot(slot, dissim, clusters, distMat)
		}(slot)
	}
	wg.Wait()
}

// maximizeSlot fills dissim's row for one medoid slot: for every
// unselected candidate, the summed effect on every other unselected
// point's error if that candidate replaced the slot's current medoid.
// Each goroutine touches only its own row of dissim, so concurrent
// calls across slots never race.
func (p *PAMSwap[T]) maximizeSlot(slot int, dissim *Matrix[T], clusters *Clusters[T], distMat *DistanceMatrix[T]) {
	unselected := clusters.Unselected()
	for _, candidate := range unselected {
		var total T
		for _, point := range unselected {
			if point == candidate {
				continue
			}
			slotToPointDist := distMat.DistanceToMedoid(point, slot)
			pointToClosestDist := distMat.DistanceToClosestMedoid(point)
			pointToCandidateDist := distMat.DistanceBetween(candidate, point)

			if slotToPointDist > pointToClosestDist {
				contribution := pointToCandidateDist - pointToClosestDist
				if contribution > 0 {
					contribution = 0
				}
				total += contribution
			} else {
				// slotToPointDist <= pointToClosestDist: the equal case,
				// plus slotToPointDist < pointToClosestDist, which is
				// unreachable (pointToClosestDist is the minimum over
				// every slot's distance to point, including this one)
				// and is folded into the equal case rather than given
				// its own branch.
				secondLowest := distMat.SecondLowestToMedoids(point)
				m := pointToCandidateDist
				if secondLowest < m {
					m = secondLowest
				}
				total += m - pointToClosestDist
			}
		}
		dissim.Set(slot, candidate, total)
	}
}
