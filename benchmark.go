package fuzzyctl

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Operation is one unit of load. Implementations must be safe for
// concurrent execution.
type Operation func(ctx context.Context) error

// LoadResult contains measurements from a single concurrency level.
type LoadResult struct {
	N          int                     // Number of concurrent workers
	Duration   time.Duration           // Measured wall time
	Operations int64                   // Successful operations
	Errors     int64                   // Failed operations
	Throughput float64                 // Successful operations per second
	Latency    *hdrhistogram.Histogram // Per-operation latency in nanoseconds
}

// Statistics summarises a latency histogram.
type Statistics struct {
	Mean   time.Duration
	Stddev time.Duration
	P50    time.Duration
	P95    time.Duration
	P99    time.Duration
	Max    time.Duration
}

// LoadConfig controls load generation.
type LoadConfig struct {
	Duration time.Duration // How long to run at each concurrency level
	Warmup   time.Duration // Warmup period before measurement
	Levels   []int         // Concurrency levels (default: [1,2,4,8])
	MaxProcs int           // GOMAXPROCS limit (0 = use runtime default)
}

// Latencies above this are clamped into the top bucket.
const maxTrackedLatency = int64(10 * time.Second)

// DefaultLoadConfig returns sensible defaults.
func DefaultLoadConfig() LoadConfig {
	return LoadConfig{
		Duration: 2 * time.Second,
		Warmup:   200 * time.Millisecond,
		Levels:   []int{1, 2, 4, 8},
	}
}

// RunLoad executes op at each concurrency level in cfg.Levels.
//
// Engine evaluations share no mutable state, so throughput should grow close
// to linearly with N up to GOMAXPROCS; Efficiency reports how close.
func RunLoad(ctx context.Context, op Operation, cfg LoadConfig) ([]LoadResult, error) {
	if len(cfg.Levels) == 0 {
		return nil, fmt.Errorf("benchmark: no concurrency levels configured")
	}
	if cfg.MaxProcs > 0 {
		old := runtime.GOMAXPROCS(cfg.MaxProcs)
		defer runtime.GOMAXPROCS(old)
	}

	results := make([]LoadResult, 0, len(cfg.Levels))
	for _, n := range cfg.Levels {
		if n <= 0 {
			return nil, fmt.Errorf("benchmark: invalid concurrency level %d", n)
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failed at N=%d: %w", n, err)
		}
		if cfg.Warmup > 0 {
			warmupCtx, cancel := context.WithTimeout(ctx, cfg.Warmup)
			runPhase(warmupCtx, op, n)
			cancel()
		}
		measureCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
		results = append(results, runPhase(measureCtx, op, n))
		cancel()
	}
	return results, nil
}

// runPhase drives n workers until ctx is done. Each worker records into its
// own histogram; they are merged once all workers have stopped.
func runPhase(ctx context.Context, op Operation, n int) LoadResult {
	var (
		wg         sync.WaitGroup
		operations int64
		failures   int64
		histograms = make([]*hdrhistogram.Histogram, n)
	)

	start := time.Now()
	for i := 0; i < n; i++ {
		h := hdrhistogram.New(1, maxTrackedLatency, 3)
		histograms[i] = h
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				opStart := time.Now()
				err := op(ctx)
				latency := int64(time.Since(opStart))
				if err != nil {
					atomic.AddInt64(&failures, 1)
					continue
				}
				atomic.AddInt64(&operations, 1)
				_ = h.RecordValue(min(max(latency, 1), maxTrackedLatency))
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	merged := hdrhistogram.New(1, maxTrackedLatency, 3)
	for _, h := range histograms {
		merged.Merge(h)
	}

	return LoadResult{
		N:          n,
		Duration:   elapsed,
		Operations: operations,
		Errors:     failures,
		Throughput: float64(operations) / elapsed.Seconds(),
		Latency:    merged,
	}
}

// Statistics returns latency percentiles for the result.
func (r LoadResult) Statistics() Statistics {
	if r.Latency == nil || r.Latency.TotalCount() == 0 {
		return Statistics{}
	}
	return Statistics{
		Mean:   time.Duration(r.Latency.Mean()),
		Stddev: time.Duration(r.Latency.StdDev()),
		P50:    time.Duration(r.Latency.ValueAtQuantile(50)),
		P95:    time.Duration(r.Latency.ValueAtQuantile(95)),
		P99:    time.Duration(r.Latency.ValueAtQuantile(99)),
		Max:    time.Duration(r.Latency.Max()),
	}
}

// Efficiency compares r with base scaled linearly: 1.0 means r.N workers
// achieved exactly r.N/base.N times the base throughput.
func (r LoadResult) Efficiency(base LoadResult) float64 {
	if base.N == 0 || base.Throughput == 0 {
		return 0
	}
	ideal := base.Throughput * float64(r.N) / float64(base.N)
	return r.Throughput / ideal
}

// EvaluateOperation adapts an engine to an Operation. sample is called with
// a monotonically increasing sequence number and must return the inputs for
// that call; it may be invoked from several goroutines at once.
func EvaluateOperation(e *Engine, sample func(seq int64) Inputs) Operation {
	var seq int64
	return func(ctx context.Context) error {
		_, err := e.Evaluate(sample(atomic.AddInt64(&seq, 1)))
		return err
	}
}
