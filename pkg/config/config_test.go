package config

import (
	"os"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if cfg.Clustering.Initializer != "kmeans_pp" {
		t.Errorf("Expected initializer kmeans_pp, got %s", cfg.Clustering.Initializer)
	}
	if cfg.Clustering.Maximizer != "pam_swap" {
		t.Errorf("Expected maximizer pam_swap, got %s", cfg.Clustering.Maximizer)
	}
	if cfg.Clustering.DistanceMetric != "euclidean" {
		t.Errorf("Expected distance metric euclidean, got %s", cfg.Clustering.DistanceMetric)
	}
	if cfg.Clustering.Parallelism != "serial" {
		t.Errorf("Expected parallelism serial, got %s", cfg.Clustering.Parallelism)
	}
	if cfg.Clustering.ToleranceFactor != -0.01 {
		t.Errorf("Expected tolerance factor -0.01, got %v", cfg.Clustering.ToleranceFactor)
	}
	if cfg.Clustering.NumRepeats != 5 {
		t.Errorf("Expected num repeats 5, got %d", cfg.Clustering.NumRepeats)
	}

	if cfg.Sampling.SampleSize != 0 {
		t.Errorf("Expected sample size 0 (auto), got %d", cfg.Sampling.SampleSize)
	}
	if cfg.Sampling.NumSamplingIters != 5 {
		t.Errorf("Expected num sampling iters 5, got %d", cfg.Sampling.NumSamplingIters)
	}
	if cfg.Sampling.Seed != 1 {
		t.Errorf("Expected seed 1, got %d", cfg.Sampling.Seed)
	}

	if cfg.Distributed.WorkerCount != 4 {
		t.Errorf("Expected worker count 4, got %d", cfg.Distributed.WorkerCount)
	}
	if cfg.Distributed.IssuanceRatePerSec != 0 {
		t.Errorf("Expected issuance rate 0 (disabled), got %v", cfg.Distributed.IssuanceRatePerSec)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromEnv(t *testing.T) {
	envVars := []string{
		"KMEDOIDS_INITIALIZER", "KMEDOIDS_MAXIMIZER", "KMEDOIDS_DISTANCE_METRIC",
		"KMEDOIDS_PARALLELISM", "KMEDOIDS_TOLERANCE_FACTOR", "KMEDOIDS_NUM_REPEATS",
		"KMEDOIDS_SAMPLE_SIZE", "KMEDOIDS_NUM_SAMPLING_ITERS", "KMEDOIDS_SEED",
		"KMEDOIDS_WORKER_COUNT", "KMEDOIDS_ISSUANCE_RATE", "KMEDOIDS_ISSUANCE_BURST",
		"KMEDOIDS_LOG_LEVEL",
	}

	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	os.Setenv("KMEDOIDS_INITIALIZER", "random")
	os.Setenv("KMEDOIDS_MAXIMIZER", "pam_swap")
	os.Setenv("KMEDOIDS_DISTANCE_METRIC", "manhattan")
	os.Setenv("KMEDOIDS_PARALLELISM", "omp")
	os.Setenv("KMEDOIDS_TOLERANCE_FACTOR", "-0.05")
	os.Setenv("KMEDOIDS_NUM_REPEATS", "10")

	os.Setenv("KMEDOIDS_SAMPLE_SIZE", "200")
	os.Setenv("KMEDOIDS_NUM_SAMPLING_ITERS", "8")
	os.Setenv("KMEDOIDS_SEED", "42")

	os.Setenv("KMEDOIDS_WORKER_COUNT", "8")
	os.Setenv("KMEDOIDS_ISSUANCE_RATE", "100.5")
	os.Setenv("KMEDOIDS_ISSUANCE_BURST", "16")

	os.Setenv("KMEDOIDS_LOG_LEVEL", "debug")

	cfg := LoadFromEnv()

	if cfg.Clustering.Initializer != "random" {
		t.Errorf("Expected initializer random, got %s", cfg.Clustering.Initializer)
	}
	if cfg.Clustering.DistanceMetric != "manhattan" {
		t.Errorf("Expected distance metric manhattan, got %s", cfg.Clustering.DistanceMetric)
	}
	if cfg.Clustering.Parallelism != "omp" {
		t.Errorf("Expected parallelism omp, got %s", cfg.Clustering.Parallelism)
	}
	if cfg.Clustering.ToleranceFactor != -0.05 {
		t.Errorf("Expected tolerance factor -0.05, got %v", cfg.Clustering.ToleranceFactor)
	}
	if cfg.Clustering.NumRepeats != 10 {
		t.Errorf("Expected num repeats 10, got %d", cfg.Clustering.NumRepeats)
	}

	if cfg.Sampling.SampleSize != 200 {
		t.Errorf("Expected sample size 200, got %d", cfg.Sampling.SampleSize)
	}
	if cfg.Sampling.NumSamplingIters != 8 {
		t.Errorf("Expected num sampling iters 8, got %d", cfg.Sampling.NumSamplingIters)
	}
	if cfg.Sampling.Seed != 42 {
		t.Errorf("Expected seed 42, got %d", cfg.Sampling.Seed)
	}

	if cfg.Distributed.WorkerCount != 8 {
		t.Errorf("Expected worker count 8, got %d", cfg.Distributed.WorkerCount)
	}
	if cfg.Distributed.IssuanceRatePerSec != 100.5 {
		t.Errorf("Expected issuance rate 100.5, got %v", cfg.Distributed.IssuanceRatePerSec)
	}
	if cfg.Distributed.IssuanceBurst != 16 {
		t.Errorf("Expected issuance burst 16, got %d", cfg.Distributed.IssuanceBurst)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromEnv_InvalidValues(t *testing.T) {
	originalVal := os.Getenv("KMEDOIDS_NUM_REPEATS")
	defer func() {
		if originalVal == "" {
			os.Unsetenv("KMEDOIDS_NUM_REPEATS")
		} else {
			os.Setenv("KMEDOIDS_NUM_REPEATS", originalVal)
		}
	}()

	os.Setenv("KMEDOIDS_NUM_REPEATS", "not-a-number")
	cfg := LoadFromEnv()

	if cfg.Clustering.NumRepeats != 5 {
		t.Errorf("Expected default num repeats 5 for invalid value, got %d", cfg.Clustering.NumRepeats)
	}
}

func TestLoadFromEnv_DefaultsWhenNotSet(t *testing.T) {
	envVars := []string{
		"KMEDOIDS_INITIALIZER", "KMEDOIDS_MAXIMIZER", "KMEDOIDS_DISTANCE_METRIC",
		"KMEDOIDS_PARALLELISM", "KMEDOIDS_TOLERANCE_FACTOR", "KMEDOIDS_NUM_REPEATS",
		"KMEDOIDS_SAMPLE_SIZE", "KMEDOIDS_NUM_SAMPLING_ITERS", "KMEDOIDS_SEED",
		"KMEDOIDS_WORKER_COUNT", "KMEDOIDS_ISSUANCE_RATE", "KMEDOIDS_ISSUANCE_BURST",
		"KMEDOIDS_LOG_LEVEL",
	}

	originalEnv := make(map[string]string)
	for _, key := range envVars {
		originalEnv[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	defer func() {
		for key, value := range originalEnv {
			if value != "" {
				os.Setenv(key, value)
			}
		}
	}()

	cfg := LoadFromEnv()
	defaults := Default()

	if cfg.Clustering.Initializer != defaults.Clustering.Initializer {
		t.Errorf("Expected default initializer, got %s", cfg.Clustering.Initializer)
	}
	if cfg.Clustering.Parallelism != defaults.Clustering.Parallelism {
		t.Errorf("Expected default parallelism, got %s", cfg.Clustering.Parallelism)
	}
	if cfg.Sampling.NumSamplingIters != defaults.Sampling.NumSamplingIters {
		t.Errorf("Expected default num sampling iters, got %d", cfg.Sampling.NumSamplingIters)
	}
	if cfg.Distributed.WorkerCount != defaults.Distributed.WorkerCount {
		t.Errorf("Expected default worker count, got %d", cfg.Distributed.WorkerCount)
	}
	if cfg.Logging.Level != defaults.Logging.Level {
		t.Errorf("Expected default log level, got %s", cfg.Logging.Level)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "Valid default config",
			config:  Default(),
			wantErr: false,
		},
		{
			name: "Invalid distance metric",
			config: &Config{
				Clustering: ClusteringConfig{
					Initializer: "kmeans_pp", Maximizer: "pam_swap",
					DistanceMetric: "cosine", Parallelism: "serial", NumRepeats: 1,
				},
				Sampling:    SamplingConfig{NumSamplingIters: 1},
				Distributed: DistributedConfig{WorkerCount: 1},
			},
			wantErr: true,
		},
		{
			name: "Invalid parallelism",
			config: &Config{
				Clustering: ClusteringConfig{
					Initializer: "kmeans_pp", Maximizer: "pam_swap",
					DistanceMetric: "euclidean", Parallelism: "gpu", NumRepeats: 1,
				},
				Sampling:    SamplingConfig{NumSamplingIters: 1},
				Distributed: DistributedConfig{WorkerCount: 1},
			},
			wantErr: true,
		},
		{
			name: "Invalid num repeats",
			config: &Config{
				Clustering: ClusteringConfig{
					Initializer: "kmeans_pp", Maximizer: "pam_swap",
					DistanceMetric: "euclidean", Parallelism: "serial", NumRepeats: 0,
				},
				Sampling:    SamplingConfig{NumSamplingIters: 1},
				Distributed: DistributedConfig{WorkerCount: 1},
			},
			wantErr: true,
		},
		{
			name: "Invalid worker count",
			config: &Config{
				Clustering: ClusteringConfig{
					Initializer: "kmeans_pp", Maximizer: "pam_swap",
					DistanceMetric: "euclidean", Parallelism: "serial", NumRepeats: 1,
				},
				Sampling:    SamplingConfig{NumSamplingIters: 1},
				Distributed: DistributedConfig{WorkerCount: 0},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
