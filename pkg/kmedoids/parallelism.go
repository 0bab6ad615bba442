package kmedoids

// Parallelism selects how the PAM swap search and CLARA's repeated
// sampling fan out across goroutines and, for the distributed modes,
// across the Transport in pkg/distributed. The original implementation
// chose this at compile time via a template parameter; here it is a
// runtime value so a single binary supports all four modes.
type Parallelism int

const (
	// Serial evaluates swap candidates and sampling iterations on the
	// calling goroutine, in ascending index order. It is the only mode
	// whose output is guaranteed bit-identical across repeated runs with
	// the same seed.
	Serial Parallelism = iota
	// OMP fans the swap search out across goroutines, one per medoid
	// slot (each fills its own row of the dissimilarity matrix), with at
	// most GOMAXPROCS running at once. CLARA's sampling loop and the
	// driver's restarts still run sequentially.
	OMP
	// MPI runs as a distributed rank under pkg/distributed: a master
	// issues CLARA samples to worker ranks over a Transport and
	// aggregates their results.
	MPI
	// Hybrid combines MPI across ranks with OMP's goroutine fan-out
	// within each rank.
	Hybrid
)

// String renders the canonical lowercase token for a Parallelism value.
func (p Parallelism) String() string {
	switch p {
	case Serial:
		return "serial"
	case OMP:
		return "omp"
	case MPI:
		return "mpi"
	case Hybrid:
		return "hybrid"
	default:
		return "unknown"
	}
}

// ParseParallelism parses the exact lowercase tokens produced by
// String. It is case-sensitive so that configuration round-trips
// without silent normalization.
func ParseParallelism(s string) (Parallelism, error) {
	switch s {
	case "serial":
		return Serial, nil
	case "omp":
		return OMP, nil
	case "mpi":
		return MPI, nil
	case "hybrid":
		return Hybrid, nil
	default:
		return Serial, invalidArgument("unknown parallelism %q", s)
	}
}

// usesGoroutinePool reports whether this mode fans work out locally
// across a worker pool (OMP and Hybrid), as opposed to running on the
// calling goroutine (Serial) or delegating to a distributed master
// (MPI).
func (p Parallelism) usesGoroutinePool() bool {
	return p == OMP || p == Hybrid
}
