package kmedoids

import (
	"math"
	"math/rand"
	"testing"
)

func TestNewMaximizerUnknownName(t *testing.T) {
	if _, err := NewMaximizer[float64]("bogus", Serial); err == nil {
		t.Error("expected error for unknown maximizer name")
	}
}

func TestPAMSwapTrivialKEqualsN(t *testing.T) {
	// With k == n, every point is already its own medoid, so the swap
	// search must run zero iterations and leave error at zero.
	data := buildLineData()
	clusters, err := NewClusters[float64](5, 5)
	if err != nil {
		t.Fatalf("NewClusters failed: %v", err)
	}
	distMat := NewDistanceMatrix[float64](data, EuclideanDistance[float64])
	selected := []int{0, 1, 2, 3, 4}
	distMat.InitializeMedoids(selected)
	if err := clusters.SetSelected(selected, distMat); err != nil {
		t.Fatalf("SetSelected failed: %v", err)
	}

	pam := &PAMSwap[float64]{Parallelism: Serial}
	if err := pam.Maximize(data, clusters, distMat); err != nil {
		t.Fatalf("Maximize failed: %v", err)
	}

	if clusters.Error() != 0 {
		t.Errorf("expected zero error when k=n, got %v", clusters.Error())
	}
	if err := clusters.CheckInvariants(distMat); err != nil {
		t.Fatalf("CheckInvariants failed: %v", err)
	}
}

func blobData() *Matrix[float64] {
	// Two well-separated clusters of 4 points each, centered at 0 and 100.
	rows := [][]float64{
		{0, 0}, {1, 0}, {0, 1}, {1, 1},
		{100, 0}, {101, 0}, {100, 1}, {101, 1},
	}
	m, _ := NewMatrixFromRows(rows)
	return m
}

func TestPAMSwapFindsSeparatedClusters(t *testing.T) {
	data := blobData()
	distMat := NewDistanceMatrix[float64](data, EuclideanDistance[float64])
	clusters, _ := NewClusters[float64](8, 2)

	// Deliberately poor initial medoids both drawn from the first blob.
	selected := []int{0, 1}
	distMat.InitializeMedoids(selected)
	clusters.SetSelected(selected, distMat)

	pam := &PAMSwap[float64]{Parallelism: Serial}
	if err := pam.Maximize(data, clusters, distMat); err != nil {
		t.Fatalf("Maximize failed: %v", err)
	}

	// After convergence, one medoid must be in each blob (points 0-3 vs
	// 4-7); every point must be assigned to its own blob's medoid.
	finalMedoids := clusters.Selected()
	inFirstBlob := func(i int) bool { return i < 4 }
	oneInEach := (inFirstBlob(finalMedoids[0]) && !inFirstBlob(finalMedoids[1])) ||
		(!inFirstBlob(finalMedoids[0]) && inFirstBlob(finalMedoids[1]))
	if !oneInEach {
		t.Errorf("expected one medoid per blob, got selected=%v", finalMedoids)
	}

	for i := 0; i < 4; i++ {
		medoidIdx := clusters.Selected()[clusters.Assignments()[i]]
		if !inFirstBlob(medoidIdx) {
			t.Errorf("point %d assigned across blobs to medoid %d", i, medoidIdx)
		}
	}
	for i := 4; i < 8; i++ {
		medoidIdx := clusters.Selected()[clusters.Assignments()[i]]
		if inFirstBlob(medoidIdx) {
			t.Errorf("point %d assigned across blobs to medoid %d", i, medoidIdx)
		}
	}

	if err := clusters.CheckInvariants(distMat); err != nil {
		t.Fatalf("CheckInvariants failed: %v", err)
	}
}

func TestPAMSwapOMPMatchesSerial(t *testing.T) {
	data := blobData()

	runWith := func(p Parallelism) (float64, []int) {
		distMat := NewDistanceMatrix[float64](data, EuclideanDistance[float64])
		clusters, _ := NewClusters[float64](8, 2)
		selected := []int{0, 1}
		distMat.InitializeMedoids(selected)
		clusters.SetSelected(selected, distMat)
		pam := &PAMSwap[float64]{Parallelism: p}
		if err := pam.Maximize(data, clusters, distMat); err != nil {
			t.Fatalf("Maximize(%v) failed: %v", p, err)
		}
		return clusters.Error(), clusters.Selected()
	}

	serialErr, serialSelected := runWith(Serial)
	ompErr, ompSelected := runWith(OMP)

	if math.Abs(serialErr-ompErr) > 1e-9 {
		t.Errorf("OMP error %v diverges from serial error %v", ompErr, serialErr)
	}
	for i := range serialSelected {
		if serialSelected[i] != ompSelected[i] {
			t.Errorf("OMP and serial selected medoids diverge: %v vs %v", ompSelected, serialSelected)
		}
	}
}

func TestPAMSwapToleranceStopsEarly(t *testing.T) {
	// A huge negative tolerance factor puts the tolerance far below any
	// achievable dissimilarity (a swap is taken only if its delta is
	// below ToleranceFactor * (error / n)), so Maximize must return
	// immediately leaving the initial medoids untouched.
	data := blobData()
	distMat := NewDistanceMatrix[float64](data, EuclideanDistance[float64])
	clusters, _ := NewClusters[float64](8, 2)
	selected := []int{0, 4}
	distMat.InitializeMedoids(selected)
	clusters.SetSelected(selected, distMat)

	pam := &PAMSwap[float64]{Parallelism: Serial, ToleranceFactor: -1e9}
	if err := pam.Maximize(data, clusters, distMat); err != nil {
		t.Fatalf("Maximize failed: %v", err)
	}

	if clusters.Selected()[0] != 0 || clusters.Selected()[1] != 4 {
		t.Errorf("expected medoids to remain unchanged with an unreachable tolerance, got %v", clusters.Selected())
	}
}

func TestKMedoidsFitCollinearTieBreaksToLowestIndex(t *testing.T) {
	// Points on a line can be equally far from two medoids; each point
	// must then be assigned to the lowest slot index among its nearest
	// medoids, the same lowest-index tie-break ArgMin uses.
	data := buildLineData()
	cfg := Config[float64]{
		Initializer:  "random",
		Maximizer:    PAMSwapName,
		DistanceFunc: EuclideanDistance[float64],
		Parallelism:  Serial,
		Rand:         rand.New(rand.NewSource(1)),
	}
	km, err := New[float64](cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	result, err := km.Fit(data, 2, 3)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if result.Centroids.Rows() != 2 {
		t.Fatalf("expected 2 centroids, got %d", result.Centroids.Rows())
	}
	if len(result.Assignments) != 5 {
		t.Fatalf("expected 5 assignments, got %d", len(result.Assignments))
	}
	for i, slot := range result.Assignments {
		for s := 0; s < slot; s++ {
			if EuclideanDistance(data.Row(i), result.Centroids.Row(s)) <= result.Distances[i] {
				t.Errorf("point %d assigned to slot %d, but lower slot %d is at least as close", i, slot, s)
			}
		}
	}
}

func TestKMedoidsFitRejectsInvalidK(t *testing.T) {
	data := buildLineData()
	cfg := Config[float64]{
		Initializer:  "random",
		Maximizer:    PAMSwapName,
		DistanceFunc: EuclideanDistance[float64],
		Parallelism:  Serial,
		Rand:         rand.New(rand.NewSource(1)),
	}
	km, _ := New[float64](cfg)
	if _, err := km.Fit(data, 0, 1); err == nil {
		t.Error("expected error for k=0")
	}
	if _, err := km.Fit(data, 10, 1); err == nil {
		t.Error("expected error for k>n")
	}
	if _, err := km.Fit(data, 2, 0); err == nil {
		t.Error("expected error for numRepeats=0")
	}
}

func TestNewRejectsMissingDistanceFunc(t *testing.T) {
	if _, err := New[float64](Config[float64]{Rand: rand.New(rand.NewSource(1))}); err == nil {
		t.Error("expected error for missing DistanceFunc")
	}
}

func TestNewRejectsMissingRand(t *testing.T) {
	if _, err := New[float64](Config[float64]{DistanceFunc: EuclideanDistance[float64]}); err == nil {
		t.Error("expected error for missing Rand")
	}
}

func TestKMedoidsGetResultsAndReset(t *testing.T) {
	data := blobData()
	cfg := Config[float64]{
		Initializer:  "kmeans_pp",
		Maximizer:    PAMSwapName,
		DistanceFunc: EuclideanDistance[float64],
		Parallelism:  Serial,
		Rand:         rand.New(rand.NewSource(3)),
	}
	km, _ := New[float64](cfg)
	if km.GetResults() != nil {
		t.Error("expected nil results before any Fit call")
	}
	if _, err := km.Fit(data, 2, 2); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if km.GetResults() == nil {
		t.Error("expected non-nil results after Fit")
	}
	km.Reset()
	if km.GetResults() != nil {
		t.Error("expected nil results after Reset")
	}
}

func TestKMedoidsFitKeepsLowestErrorRepeat(t *testing.T) {
	data := blobData()
	cfg := Config[float64]{
		Initializer:  "random",
		Maximizer:    PAMSwapName,
		DistanceFunc: EuclideanDistance[float64],
		Parallelism:  Serial,
		Rand:         rand.New(rand.NewSource(99)),
	}
	km, _ := New[float64](cfg)
	result, err := km.Fit(data, 2, 5)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	// With 5 independent restarts on a clearly bimodal dataset, the
	// best-of-N result should reach the globally optimal 2-medoid error:
	// each blob's optimal within-cluster error is 1+1+sqrt(2) regardless
	// of which of its 4 points is chosen as medoid, for a total of
	// 2*(2+sqrt(2)).
	optimal := 2 * (2 + math.Sqrt(2))
	if result.Error > optimal+1e-6 {
		t.Errorf("expected best-of-5 restarts to reach optimal error %v, got %v", optimal, result.Error)
	}
}
