package distributed

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/clusterforge/kmedoids/pkg/kmedoids"
)

// DistributedCLARA is CLARA run across ranks connected by a Transport:
// rank 0 is the master, holding the full data set and handing out
// samples on request; every other rank is a worker, running PAM over
// whatever sample it is handed and reporting the resulting medoids
// back. It is the goroutine-and-channel analogue of the original
// MPI master/worker protocol (REQUEST/COMPLETED/TERMINATE tags).
type DistributedCLARA[T kmedoids.Float] struct {
	cfg            kmedoids.Config[T]
	sampleSizeCalc kmedoids.SampleSizeFunc
	transport      Transport
	limiter        *rate.Limiter
	best           *kmedoids.Result[T]
}

// NewDistributedCLARA returns a driver bound to transport, failing if
// transport is nil; cfg is not checked here, only when a worker builds
// its per-sample kmedoids.New driver. issuanceLimit throttles how fast the master hands out new
// samples (0 disables throttling); it exists so a master with a very
// fast worker pool doesn't spend all its time serializing samples
// instead of folding in results. sampleSizeCalc defaults to
// kmedoids.DefaultSampleSize when nil.
func NewDistributedCLARA[T kmedoids.Float](cfg kmedoids.Config[T], sampleSizeCalc kmedoids.SampleSizeFunc, transport Transport, issuanceLimit rate.Limit, burst int) (*DistributedCLARA[T], error) {
	if transport == nil {
		return nil, kmedoids.NewInvalidArgument("transport must not be nil")
	}
	if sampleSizeCalc == nil {
		sampleSizeCalc = kmedoids.DefaultSampleSize
	}
	var limiter *rate.Limiter
	if issuanceLimit > 0 {
		limiter = rate.NewLimiter(issuanceLimit, burst)
	}
	return &DistributedCLARA[T]{
		cfg:            cfg,
		sampleSizeCalc: sampleSizeCalc,
		transport:      transport,
		limiter:        limiter,
	}, nil
}

// Fit runs this rank's role in one distributed CLARA pass. On rank 0
// (the master) it drives numSamplingIters samples to completion over
// the worker pool and returns the best reprojected result; on every
// other rank it blocks serving samples until the master sends
// TerminateTag, and returns a nil result.
func (d *DistributedCLARA[T]) Fit(ctx context.Context, data *kmedoids.Matrix[T], k, numSamplingIters int) (*kmedoids.Result[T], error) {
	if d.transport.Rank() == 0 {
		return d.runMaster(ctx, data, k, numSamplingIters)
	}
	return nil, d.runWorker(ctx, k)
}

func (d *DistributedCLARA[T]) runMaster(ctx context.Context, data *kmedoids.Matrix[T], k, numSamplingIters int) (*kmedoids.Result[T], error) {
	sampleSize := d.sampleSizeCalc(data.Rows(), k)
	if sampleSize < k {
		return nil, kmedoids.NewInvalidArgument("sample size (%d) is smaller than k (%d)", sampleSize, k)
	}
	sampler := kmedoids.NewSampler[T](d.cfg.Rand)
	numWorkers := d.transport.Size() - 1
	if numWorkers <= 0 {
		return nil, kmedoids.NewInvalidArgument("distributed CLARA needs at least one worker rank, transport has %d", d.transport.Size())
	}

	var best *kmedoids.Result[T]
	samplesIssued := 0

	allocateWork := func(to int) error {
		sampled, err := sampler.Sample(sampleSize, data)
		if err != nil {
			return err
		}
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				return kmedoids.NewTransportFailure("issuance throttle: %s", err)
			}
		}
		payload, err := encodeMatrix(sampled.Rows())
		if err != nil {
			return err
		}
		if err := d.transport.Send(ctx, to, RequestTag, payload); err != nil {
			return err
		}
		samplesIssued++
		return nil
	}

	processCompleted := func(env Envelope) error {
		centroids, err := decodeMatrix[T](env.Payload)
		if err != nil {
			return err
		}
		projected := kmedoids.AssignToCentroids(data, centroids, d.cfg.DistanceFunc)
		if best == nil || projected.Error < best.Error {
			best = projected
		}
		return nil
	}

	for samplesIssued < numSamplingIters {
		env, err := d.transport.Recv(ctx)
		if err != nil {
			return nil, err
		}
		switch env.Tag {
		case RequestTag:
			if err := allocateWork(env.From); err != nil {
				return nil, err
			}
		case CompletedTag:
			if err := processCompleted(env); err != nil {
				return nil, err
			}
			if samplesIssued < numSamplingIters {
				if err := allocateWork(env.From); err != nil {
					return nil, err
				}
			}
		}
	}

	// Drain: every worker still has exactly one message due (a worker
	// never holds more than one sample at a time): the COMPLETED for its
	// outstanding sample, or its initial REQUEST if it was never handed
	// a sample. numWorkers more receives collect them all, and each
	// sender is then told to stop.
	for i := 0; i < numWorkers; i++ {
		env, err := d.transport.Recv(ctx)
		if err != nil {
			return nil, err
		}
		if env.Tag == CompletedTag {
			if err := processCompleted(env); err != nil {
				return nil, err
			}
		}
		if err := d.transport.Send(ctx, env.From, TerminateTag, nil); err != nil {
			return nil, err
		}
	}

	d.best = best
	return best, nil
}

// runWorker always fits each assigned sample with a single restart
// (numRepeats=1), matching the original protocol exactly: diversity
// across restarts comes from numSamplingIters drawing many samples,
// not from re-running PAM per sample.
func (d *DistributedCLARA[T]) runWorker(ctx context.Context, k int) error {
	if err := d.transport.Send(ctx, 0, RequestTag, nil); err != nil {
		return err
	}
	for {
		env, err := d.transport.Recv(ctx)
		if err != nil {
			return err
		}
		if env.Tag == TerminateTag {
			return nil
		}
		sampled, err := decodeMatrix[T](env.Payload)
		if err != nil {
			return err
		}
		inner, err := kmedoids.New[T](d.cfg)
		if err != nil {
			return err
		}
		result, err := inner.Fit(sampled, k, 1)
		if err != nil {
			return err
		}
		payload, err := encodeMatrix(result.Centroids)
		if err != nil {
			return err
		}
		if err := d.transport.Send(ctx, 0, CompletedTag, payload); err != nil {
			return err
		}
	}
}

// GetResults returns the master's best result from the most recent
// Fit call, or nil on a worker rank or before any Fit call.
func (d *DistributedCLARA[T]) GetResults() *kmedoids.Result[T] {
	return d.best
}

// Reset discards the best result from any prior Fit call.
func (d *DistributedCLARA[T]) Reset() {
	d.best = nil
}
