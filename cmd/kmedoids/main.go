package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/clusterforge/kmedoids/pkg/config"
	"github.com/clusterforge/kmedoids/pkg/distributed"
	"github.com/clusterforge/kmedoids/pkg/kmedoids"
	"github.com/clusterforge/kmedoids/pkg/observability"
)

var (
	version = "1.0.0"
	commit  = "dev"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version and exit")
		showHelp    = flag.Bool("help", false, "show help and exit")
		algorithm   = flag.String("algorithm", "pam", "clustering algorithm: pam, clara, distributed")
		numPoints   = flag.Int("points", 2000, "number of synthetic data points to generate")
		numBlobs    = flag.Int("blobs", 5, "number of Gaussian blobs in the synthetic data set")
		dims        = flag.Int("dims", 8, "vector dimension")
		k           = flag.Int("k", 0, "number of medoids to find (defaults to -blobs)")
		repeats     = flag.Int("repeats", 0, "PAM restarts per fit (overrides config default)")
		samplingIts = flag.Int("sampling-iters", 0, "CLARA samples to draw (overrides config default)")
		workers     = flag.Int("workers", 0, "worker ranks for -algorithm distributed (overrides config default)")
		parallelism = flag.String("parallelism", "", "serial, omp, mpi, or hybrid (overrides config default)")
		distance    = flag.String("distance", "", "euclidean or manhattan (overrides config default)")
		seed        = flag.Int64("seed", 0, "random seed (overrides config default)")
		logLevel    = flag.String("log-level", "", "debug, info, warn, error (overrides config default)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("kmedoids v%s (commit: %s)\n", version, commit)
		os.Exit(0)
	}
	if *showHelp {
		showUsage()
		os.Exit(0)
	}

	printBanner()

	cfg := config.LoadFromEnv()
	if *repeats > 0 {
		cfg.Clustering.NumRepeats = *repeats
	}
	if *samplingIts > 0 {
		cfg.Sampling.NumSamplingIters = *samplingIts
	}
	if *workers > 0 {
		cfg.Distributed.WorkerCount = *workers
	}
	if *parallelism != "" {
		cfg.Clustering.Parallelism = *parallelism
	}
	if *distance != "" {
		cfg.Clustering.DistanceMetric = *distance
	}
	if *seed != 0 {
		cfg.Sampling.Seed = *seed
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(observability.ParseLogLevel(cfg.Logging.Level), os.Stdout)
	metrics := observability.NewClusteringMetrics()

	clusters := *k
	if clusters <= 0 {
		clusters = *numBlobs
	}

	logger.Info("generating synthetic data", map[string]interface{}{
		"points": *numPoints, "dims": *dims, "blobs": *numBlobs,
	})
	rng := rand.New(rand.NewSource(cfg.Sampling.Seed))
	data, err := generateBlobs(rng, *numPoints, *dims, *numBlobs)
	if err != nil {
		logger.Fatalf("failed to generate synthetic data: %v", err)
	}

	parallelism2, err := kmedoids.ParseParallelism(cfg.Clustering.Parallelism)
	if err != nil {
		logger.Fatalf("invalid parallelism: %v", err)
	}
	distFn, err := resolveDistanceFunc(cfg.Clustering.DistanceMetric)
	if err != nil {
		logger.Fatalf("invalid distance metric: %v", err)
	}

	engineCfg := kmedoids.Config[float64]{
		Initializer:     cfg.Clustering.Initializer,
		Maximizer:       cfg.Clustering.Maximizer,
		DistanceFunc:    distFn,
		Parallelism:     parallelism2,
		ToleranceFactor: cfg.Clustering.ToleranceFactor,
		Rand:            rand.New(rand.NewSource(cfg.Sampling.Seed)),
	}

	var result *kmedoids.Result[float64]
	start := time.Now()

	switch *algorithm {
	case "pam":
		result, err = runPAM(engineCfg, data, clusters, cfg.Clustering.NumRepeats, metrics)
	case "clara":
		result, err = runCLARA(engineCfg, data, clusters, cfg, metrics)
	case "distributed":
		result, err = runDistributed(engineCfg, data, clusters, cfg, metrics)
	default:
		logger.Fatalf("unknown algorithm: %s (want pam, clara, or distributed)", *algorithm)
	}
	if err != nil {
		logger.Fatalf("fit failed: %v", err)
	}

	elapsed := time.Since(start)
	printResults(*algorithm, result, elapsed)
}

func runPAM(cfg kmedoids.Config[float64], data *kmedoids.Matrix[float64], k, numRepeats int, metrics *observability.ClusteringMetrics) (*kmedoids.Result[float64], error) {
	km, err := kmedoids.New[float64](cfg)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := km.Fit(data, k, numRepeats)
	if err != nil {
		return nil, err
	}
	metrics.RecordPAMFit(numRepeats, 0, time.Since(start), float64(result.Error))
	return result, nil
}

func runCLARA(cfg kmedoids.Config[float64], data *kmedoids.Matrix[float64], k int, ecfg *config.Config, metrics *observability.ClusteringMetrics) (*kmedoids.Result[float64], error) {
	var sampleSizeCalc kmedoids.SampleSizeFunc
	if ecfg.Sampling.SampleSize > 0 {
		fixed := ecfg.Sampling.SampleSize
		sampleSizeCalc = func(_, _ int) int { return fixed }
	}
	clara, err := kmedoids.NewCLARA[float64](cfg, sampleSizeCalc)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	result, err := clara.Fit(data, k, ecfg.Clustering.NumRepeats, ecfg.Sampling.NumSamplingIters)
	if err != nil {
		return nil, err
	}
	metrics.RecordCLARASample(time.Since(start), float64(result.Error))
	return result, nil
}

func runDistributed(cfg kmedoids.Config[float64], data *kmedoids.Matrix[float64], k int, ecfg *config.Config, metrics *observability.ClusteringMetrics) (*kmedoids.Result[float64], error) {
	network, err := distributed.NewChannelNetwork(ecfg.Distributed.WorkerCount + 1)
	if err != nil {
		return nil, err
	}
	metrics.SetActiveWorkers(ecfg.Distributed.WorkerCount)

	ctx := context.Background()
	var wg sync.WaitGroup
	errs := make(chan error, ecfg.Distributed.WorkerCount+1)
	var masterResult *kmedoids.Result[float64]

	for rank := 0; rank <= ecfg.Distributed.WorkerCount; rank++ {
		transport, err := network.Transport(rank)
		if err != nil {
			return nil, err
		}
		rankCfg := cfg
		rankCfg.Rand = rand.New(rand.NewSource(cfg.Rand.Int63() + int64(rank)))

		dc, err := distributed.NewDistributedCLARA[float64](rankCfg, nil, transport, 0, 1)
		if err != nil {
			return nil, err
		}

		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			result, err := dc.Fit(ctx, data, k, ecfg.Sampling.NumSamplingIters)
			if err != nil {
				errs <- err
				return
			}
			if rank == 0 {
				masterResult = result
			}
		}(rank)
	}

	wg.Wait()
	select {
	case err := <-errs:
		return nil, err
	default:
	}
	return masterResult, nil
}

func resolveDistanceFunc(name string) (kmedoids.DistanceFunc[float64], error) {
	switch name {
	case "euclidean":
		return kmedoids.EuclideanDistance[float64], nil
	case "manhattan":
		return kmedoids.ManhattanDistance[float64], nil
	default:
		return nil, fmt.Errorf("unknown distance metric: %s", name)
	}
}

// generateBlobs draws numPoints points from numBlobs Gaussian clusters
// with randomly placed centers, for exercising the engine without
// needing a real data set on disk.
func generateBlobs(rng *rand.Rand, numPoints, dims, numBlobs int) (*kmedoids.Matrix[float64], error) {
	if numBlobs <= 0 {
		return nil, fmt.Errorf("numBlobs must be positive, got %d", numBlobs)
	}
	centers := make([][]float64, numBlobs)
	for b := range centers {
		center := make([]float64, dims)
		for d := range center {
			center[d] = rng.Float64() * 100
		}
		centers[b] = center
	}

	const stddev = 3.0
	m := kmedoids.NewMatrix[float64](numPoints, dims)
	for i := 0; i < numPoints; i++ {
		center := centers[i%numBlobs]
		row := make([]float64, dims)
		for d := range row {
			row[d] = center[d] + rng.NormFloat64()*stddev
		}
		m.SetRow(i, row)
	}
	return m, nil
}

func printBanner() {
	banner := `
 _                          _       _     _
| | ___ __ ___   ___  __| | ___ (_) __| |___
| |/ / '_ ' _ \ / _ \/ _' |/ _ \| |/ _' / __|
|   <| | | | | |  __/ (_| | (_) | | (_| \__ \
|_|\_\_| |_| |_|\___|\__,_|\___/|_|\__,_|___/

  PAM / CLARA k-medoids clustering engine
`
	fmt.Println(banner)
	fmt.Printf("Version: %s (commit: %s)\n\n", version, commit)
}

func printResults(algorithm string, result *kmedoids.Result[float64], elapsed time.Duration) {
	fmt.Println("\n=== Fit complete ===")
	fmt.Printf("Algorithm:    %s\n", algorithm)
	fmt.Printf("Medoids:      %d\n", result.Centroids.Rows())
	fmt.Printf("Total error:  %.4f\n", result.Error)
	fmt.Printf("Duration:     %s\n", elapsed)
}

func showUsage() {
	fmt.Println("kmedoids - PAM/CLARA k-medoids clustering over synthetic Gaussian blobs")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  kmedoids [options]")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -help                 Show this help message")
	fmt.Println("  -version              Show version information")
	fmt.Println("  -algorithm NAME       pam, clara, or distributed (default: pam)")
	fmt.Println("  -points N             Number of synthetic data points (default: 2000)")
	fmt.Println("  -blobs N              Number of Gaussian blobs (default: 5)")
	fmt.Println("  -dims N               Vector dimension (default: 8)")
	fmt.Println("  -k N                  Number of medoids to find (default: -blobs)")
	fmt.Println("  -repeats N            PAM restarts per fit")
	fmt.Println("  -sampling-iters N     CLARA samples to draw")
	fmt.Println("  -workers N            Worker ranks for -algorithm distributed")
	fmt.Println("  -parallelism NAME     serial, omp, mpi, or hybrid")
	fmt.Println("  -distance NAME        euclidean or manhattan")
	fmt.Println("  -seed N               Random seed")
	fmt.Println("  -log-level LEVEL      debug, info, warn, error")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  KMEDOIDS_INITIALIZER, KMEDOIDS_MAXIMIZER, KMEDOIDS_DISTANCE_METRIC,")
	fmt.Println("  KMEDOIDS_PARALLELISM, KMEDOIDS_TOLERANCE_FACTOR, KMEDOIDS_NUM_REPEATS,")
	fmt.Println("  KMEDOIDS_SAMPLE_SIZE, KMEDOIDS_NUM_SAMPLING_ITERS, KMEDOIDS_SEED,")
	fmt.Println("  KMEDOIDS_WORKER_COUNT, KMEDOIDS_ISSUANCE_RATE, KMEDOIDS_ISSUANCE_BURST,")
	fmt.Println("  KMEDOIDS_LOG_LEVEL")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  kmedoids -algorithm pam -points 500 -blobs 4")
	fmt.Println("  kmedoids -algorithm clara -points 50000 -blobs 10")
	fmt.Println("  kmedoids -algorithm distributed -workers 4 -points 20000")
	fmt.Println()
}
