// Package metrics tracks per-instrument update rates and tick-to-book
// latency and periodically logs them. Grounded on the reference gateway's
// MetricsRegistry/MetricsReporter: per-instrument counters reset on read, reported
// on two independent tickers (a fast rate interval, a slower latency
// interval) so a busy instrument's rate doesn't drown out a quiet one's
// latency report.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"okxgateway/internal/gwlog"
)

// rateCounter is an atomic count reset to zero on every read.
type rateCounter struct {
	count uint64
}

func (c *rateCounter) inc() {
	atomic.AddUint64(&c.count, 1)
}

func (c *rateCounter) reset() uint64 {
	return atomic.SwapUint64(&c.count, 0)
}

// latencyAccumulator sums nanoseconds and counts samples, reset together so
// a reader always divides a total by the count it was summed with.
type latencyAccumulator struct {
	mu      sync.Mutex
	totalNs uint64
	count   uint64
}

func (a *latencyAccumulator) add(ns int64) {
	if ns < 0 {
		ns = 0
	}
	a.mu.Lock()
	a.totalNs += uint64(ns)
	a.count++
	a.mu.Unlock()
}

func (a *latencyAccumulator) reset() (totalNs, count uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	totalNs, count = a.totalNs, a.count
	a.totalNs, a.count = 0, 0
	return totalNs, count
}

// Registry holds one rate counter and one latency accumulator per
// instrument. Safe for concurrent use: registration and the instrument
// lookup in IncUpdates/AddLatencyNs take the registry lock; the update
// counter itself is atomic and each latency accumulator has its own lock.
type Registry struct {
	mu          sync.Mutex
	instruments []string
	updates     map[string]*rateCounter
	latency     map[string]*latencyAccumulator
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		updates: make(map[string]*rateCounter),
		latency: make(map[string]*latencyAccumulator),
	}
}

// RegisterInstrument adds inst to the tracked set, if not already present.
func (r *Registry) RegisterInstrument(inst string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.updates[inst]; ok {
		return
	}
	r.updates[inst] = &rateCounter{}
	r.latency[inst] = &latencyAccumulator{}
	r.instruments = append(r.instruments, inst)
}

// IncUpdates records one applied update for inst.
func (r *Registry) IncUpdates(inst string) {
	r.mu.Lock()
	c, ok := r.updates[inst]
	r.mu.Unlock()
	if ok {
		c.inc()
	}
}

// AddLatencyNs records one tick-to-book latency sample for inst.
func (r *Registry) AddLatencyNs(inst string, ns int64) {
	r.mu.Lock()
	a, ok := r.latency[inst]
	r.mu.Unlock()
	if ok {
		a.add(ns)
	}
}

// Instruments returns the registered instrument IDs in registration order.
func (r *Registry) Instruments() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.instruments...)
}

func (r *Registry) resetUpdates(inst string) uint64 {
	r.mu.Lock()
	c := r.updates[inst]
	r.mu.Unlock()
	if c == nil {
		return 0
	}
	return c.reset()
}

func (r *Registry) resetLatency(inst string) (totalNs, count uint64) {
	r.mu.Lock()
	a := r.latency[inst]
	r.mu.Unlock()
	if a == nil {
		return 0, 0
	}
	return a.reset()
}

// Reporter periodically logs and resets Registry counters on two
// independent tickers.
type Reporter struct {
	registry        *Registry
	rateInterval    time.Duration
	latencyInterval time.Duration
	log             *gwlog.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewReporter builds a reporter for registry, reporting update rates every
// rateInterval and average latency every latencyInterval.
func NewReporter(registry *Registry, rateInterval, latencyInterval time.Duration) *Reporter {
	return &Reporter{
		registry:        registry,
		rateInterval:    rateInterval,
		latencyInterval: latencyInterval,
		log:             gwlog.Get().WithComponent("metrics_reporter"),
	}
}

// Start launches the reporting goroutine. Safe to call once.
func (r *Reporter) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(ctx)
	}()
}

// Stop halts the reporting goroutine and waits for it to exit.
func (r *Reporter) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.wg.Wait()
}

func (r *Reporter) run(ctx context.Context) {
	rateTicker := time.NewTicker(r.rateInterval)
	latencyTicker := time.NewTicker(r.latencyInterval)
	defer rateTicker.Stop()
	defer latencyTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rateTicker.C:
			r.reportRates()
		case <-latencyTicker.C:
			r.reportLatency()
		}
	}
}

func (r *Reporter) reportRates() {
	cycle := uuid.NewString()
	seconds := r.rateInterval.Seconds()
	for _, inst := range r.registry.Instruments() {
		updates := r.registry.resetUpdates(inst)
		rate := float64(updates) / seconds
		r.log.WithFields(gwlog.Fields{
			"cycle_id":      cycle,
			"instrument":    inst,
			"updates":       updates,
			"updates_per_s": fmt.Sprintf("%.2f", rate),
		}).Info("update rate")
	}
}

func (r *Reporter) reportLatency() {
	cycle := uuid.NewString()
	for _, inst := range r.registry.Instruments() {
		totalNs, count := r.registry.resetLatency(inst)
		fields := gwlog.Fields{
			"cycle_id":      cycle,
			"instrument":    inst,
			"interval_s":    r.latencyInterval.Seconds(),
			"sample_count":  count,
		}
		if count == 0 {
			r.log.WithFields(fields).Info("tick-to-book latency: no samples")
			continue
		}
		avgUs := float64(totalNs) / float64(count) / 1000.0
		fields["avg_latency_us"] = fmt.Sprintf("%.2f", avgUs)
		r.log.WithFields(fields).Info("tick-to-book latency")
	}
}
