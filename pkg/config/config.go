package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all engine configuration.
type Config struct {
	Clustering  ClusteringConfig
	Sampling    SamplingConfig
	Distributed DistributedConfig
	Logging     LoggingConfig
}

// ClusteringConfig configures a single PAM/CLARA fit: which strategies
// to resolve by factory string, which distance metric to measure with,
// and how to parallelize the swap search.
type ClusteringConfig struct {
	Initializer     string  // factory string, e.g. "random" or "kmeans_pp" (default: "kmeans_pp")
	Maximizer       string  // factory string (default: "pam_swap")
	DistanceMetric  string  // "euclidean" or "manhattan" (default: "euclidean")
	Parallelism     string  // "serial", "omp", "mpi", "hybrid" (default: "serial")
	ToleranceFactor float64 // applied as ToleranceFactor * (error/n); default -0.01
	NumRepeats      int     // independent PAM restarts per fit (default: 5)
}

// SamplingConfig configures CLARA's subsample draw.
type SamplingConfig struct {
	SampleSize       int   // 0 means use the default 40 + 2k calculation
	NumSamplingIters int   // number of CLARA samples to draw (default: 5)
	Seed             int64 // seeds the injected random source (default: 1)
}

// DistributedConfig configures the master/worker CLARA protocol.
type DistributedConfig struct {
	WorkerCount        int     // number of worker ranks to simulate (default: 4)
	IssuanceRatePerSec float64 // master's sample-issuance throttle; 0 disables it
	IssuanceBurst      int     // token bucket burst size for the issuance throttle
}

// LoggingConfig configures the engine's structured logger.
type LoggingConfig struct {
	Level string // "debug", "info", "warn", "error" (default: "info")
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Clustering: ClusteringConfig{
			Initializer:     "kmeans_pp",
			Maximizer:       "pam_swap",
			DistanceMetric:  "euclidean",
			Parallelism:     "serial",
			ToleranceFactor: -0.01,
			NumRepeats:      5,
		},
		Sampling: SamplingConfig{
			SampleSize:       0,
			NumSamplingIters: 5,
			Seed:             1,
		},
		Distributed: DistributedConfig{
			WorkerCount:        4,
			IssuanceRatePerSec: 0,
			IssuanceBurst:      1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables, each
// prefixed KMEDOIDS_, falling back to Default() for anything unset.
func LoadFromEnv() *Config {
	cfg := Default()

	if v := os.Getenv("KMEDOIDS_INITIALIZER"); v != "" {
		cfg.Clustering.Initializer = v
	}
	if v := os.Getenv("KMEDOIDS_MAXIMIZER"); v != "" {
		cfg.Clustering.Maximizer = v
	}
	if v := os.Getenv("KMEDOIDS_DISTANCE_METRIC"); v != "" {
		cfg.Clustering.DistanceMetric = v
	}
	if v := os.Getenv("KMEDOIDS_PARALLELISM"); v != "" {
		cfg.Clustering.Parallelism = v
	}
	if v := os.Getenv("KMEDOIDS_TOLERANCE_FACTOR"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Clustering.ToleranceFactor = f
		}
	}
	if v := os.Getenv("KMEDOIDS_NUM_REPEATS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Clustering.NumRepeats = n
		}
	}

	if v := os.Getenv("KMEDOIDS_SAMPLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampling.SampleSize = n
		}
	}
	if v := os.Getenv("KMEDOIDS_NUM_SAMPLING_ITERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Sampling.NumSamplingIters = n
		}
	}
	if v := os.Getenv("KMEDOIDS_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sampling.Seed = n
		}
	}

	if v := os.Getenv("KMEDOIDS_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Distributed.WorkerCount = n
		}
	}
	if v := os.Getenv("KMEDOIDS_ISSUANCE_RATE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Distributed.IssuanceRatePerSec = f
		}
	}
	if v := os.Getenv("KMEDOIDS_ISSUANCE_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Distributed.IssuanceBurst = n
		}
	}

	if v := os.Getenv("KMEDOIDS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Clustering.Initializer == "" {
		return fmt.Errorf("clustering initializer must be set")
	}
	if c.Clustering.Maximizer == "" {
		return fmt.Errorf("clustering maximizer must be set")
	}
	switch c.Clustering.DistanceMetric {
	case "euclidean", "manhattan":
	default:
		return fmt.Errorf("invalid distance metric: %q (must be euclidean or manhattan)", c.Clustering.DistanceMetric)
	}
	switch c.Clustering.Parallelism {
	case "serial", "omp", "mpi", "hybrid":
	default:
		return fmt.Errorf("invalid parallelism: %q (must be serial, omp, mpi, or hybrid)", c.Clustering.Parallelism)
	}
	if c.Clustering.NumRepeats < 1 {
		return fmt.Errorf("invalid num repeats: %d (must be > 0)", c.Clustering.NumRepeats)
	}

	if c.Sampling.SampleSize < 0 {
		return fmt.Errorf("invalid sample size: %d (must be >= 0, 0 means auto)", c.Sampling.SampleSize)
	}
	if c.Sampling.NumSamplingIters < 1 {
		return fmt.Errorf("invalid num sampling iters: %d (must be > 0)", c.Sampling.NumSamplingIters)
	}

	if c.Distributed.WorkerCount < 1 {
		return fmt.Errorf("invalid worker count: %d (must be > 0)", c.Distributed.WorkerCount)
	}
	if c.Distributed.IssuanceRatePerSec < 0 {
		return fmt.Errorf("invalid issuance rate: %f (must be >= 0)", c.Distributed.IssuanceRatePerSec)
	}

	return nil
}
