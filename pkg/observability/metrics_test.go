package observability

import (
	"testing"
	"time"
)

func TestClusteringMetrics(t *testing.T) {
	m := NewClusteringMetrics()

	t.Run("NewClusteringMetrics", func(t *testing.T) {
		if m == nil {
			t.Fatal("NewClusteringMetrics returned nil")
		}
		if m.PAMIterationsTotal == nil {
			t.Error("PAMIterationsTotal not initialized")
		}
		if m.CLARASamplesProcessed == nil {
			t.Error("CLARASamplesProcessed not initialized")
		}
		if m.DistributedRequestLatency == nil {
			t.Error("DistributedRequestLatency not initialized")
		}
	})

	t.Run("RecordPAMFit", func(t *testing.T) {
		m.RecordPAMFit(3, 2, 15*time.Millisecond, 12.5)
		m.RecordPAMFit(10, 7, 120*time.Millisecond, 4.2)
	})

	t.Run("RecordCLARASample", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			m.RecordCLARASample(5*time.Millisecond, 8.0-float64(i)*0.1)
		}
	})

	t.Run("RecordSampleIssuedAndCompleted", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			m.RecordSampleIssued()
		}
		for i := 0; i < 5; i++ {
			m.RecordSampleCompleted(2 * time.Millisecond)
		}
	})

	t.Run("SetActiveWorkers", func(t *testing.T) {
		m.SetActiveWorkers(4)
		m.SetActiveWorkers(0)
	})

	t.Run("ConcurrentUpdates", func(t *testing.T) {
		done := make(chan bool, 10)
		for i := 0; i < 10; i++ {
			go func() {
				for j := 0; j < 10; j++ {
					m.RecordPAMFit(1, 1, time.Millisecond, 1.0)
					m.RecordSampleIssued()
					m.RecordSampleCompleted(time.Millisecond)
				}
				done <- true
			}()
		}
		for i := 0; i < 10; i++ {
			<-done
		}
	})
}
