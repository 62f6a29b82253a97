package height

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/infrastructure/monitoring"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// Options tune the per-instance measurement workers.
type Options struct {
	// FrameInterval is the coalescing window. Samples landing inside one
	// window fold into a single commit decision at the window edge.
	FrameInterval time.Duration
	// QueueSize bounds each sample channel. Overflow folds into a pending
	// candidate instead of blocking or dropping.
	QueueSize int
}

// DefaultOptions returns the production tuning. The frame interval mirrors
// a 60Hz animation frame.
func DefaultOptions() Options {
	return Options{
		FrameInterval: 16 * time.Millisecond,
		QueueSize:     64,
	}
}

// Negotiator owns one measurement worker per mounted instance and folds
// competing height samples into a single monotone committed height.
type Negotiator struct {
	mu      sync.Mutex
	workers map[id.InstanceID]*worker
	opts    Options

	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a negotiator.
func New(log *logging.Logger, opts Options) *Negotiator {
	if log == nil {
		log = logging.NewNop()
	}
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = 16 * time.Millisecond
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	return &Negotiator{
		workers: make(map[id.InstanceID]*worker),
		opts:    opts,
		log:     log,
	}
}

// WithMetrics attaches a metrics collector.
func (n *Negotiator) WithMetrics(m *monitoring.Metrics) *Negotiator {
	n.metrics = m
	return n
}

// Track starts a worker for the instance. The committed callback runs on
// the worker goroutine, at most once per frame interval, and only when the
// height strictly grows past the displayed value. Tracking an instance
// twice is a no-op.
func (n *Negotiator) Track(instanceID id.InstanceID, initial float64, committed func(float64)) {
	if committed == nil {
		committed = func(float64) {}
	}
	initial = clamp(initial)

	w := &worker{
		instance: instanceID,
		messages: make(chan message, n.opts.QueueSize),
		quit:     make(chan struct{}),
		finished: make(chan struct{}),
		interval: n.opts.FrameInterval,
		commit:   committed,
		metrics:  n.metrics,
	}
	w.committed = initial
	w.candidate = initial
	w.displayed.Store(math.Float64bits(initial))

	n.mu.Lock()
	if _, exists := n.workers[instanceID]; exists {
		n.mu.Unlock()
		n.log.Warn("Instance already tracked", zap.String("instance_id", instanceID.String()))
		return
	}
	n.workers[instanceID] = w
	n.mu.Unlock()

	go w.run()

	n.log.Debug("Tracking instance height",
		zap.String("instance_id", instanceID.String()),
		zap.Float64("initial", initial),
	)
}

// Observe feeds one sample. Returns false when the instance is untracked.
// Never blocks: on queue overflow the value folds into a pending candidate
// that the worker drains at the next frame edge. Junk measurements (NaN,
// infinite, non-positive) are discarded.
func (n *Negotiator) Observe(instanceID id.InstanceID, sample types.HeightSample) bool {
	n.mu.Lock()
	w, ok := n.workers[instanceID]
	n.mu.Unlock()
	if !ok {
		return false
	}

	v := sample.Value
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		n.log.Debug("Discarding junk height sample",
			zap.String("instance_id", instanceID.String()),
			zap.Float64("value", v),
		)
		return true
	}

	if n.metrics != nil {
		n.metrics.RecordHeightSample(string(sample.Source))
	}

	msg := message{value: v, epoch: w.epoch.Load()}
	select {
	case w.messages <- msg:
	default:
		w.foldPending(v)
	}
	return true
}

// Reset re-baselines the instance to initial when a new resource identity
// mounts into it. Queued samples from the previous identity are discarded;
// committed growth never leaks across identities.
func (n *Negotiator) Reset(instanceID id.InstanceID, initial float64) {
	n.mu.Lock()
	w, ok := n.workers[instanceID]
	n.mu.Unlock()
	if !ok {
		return
	}

	initial = clamp(initial)
	w.epoch.Add(1)
	w.pending.Store(0)
	w.displayed.Store(math.Float64bits(initial))

	select {
	case w.messages <- message{reset: true, value: initial}:
	case <-w.finished:
	}

	n.log.Debug("Height re-baselined",
		zap.String("instance_id", instanceID.String()),
		zap.Float64("initial", initial),
	)
}

// Release stops the instance worker and waits for it to exit. Safe to call
// for unknown instances and safe to call twice.
func (n *Negotiator) Release(instanceID id.InstanceID) {
	n.mu.Lock()
	w, ok := n.workers[instanceID]
	if ok {
		delete(n.workers, instanceID)
	}
	n.mu.Unlock()
	if !ok {
		return
	}

	close(w.quit)
	<-w.finished
}

// Close releases every tracked instance.
func (n *Negotiator) Close() {
	n.mu.Lock()
	workers := make([]*worker, 0, len(n.workers))
	for _, w := range n.workers {
		workers = append(workers, w)
	}
	n.workers = make(map[id.InstanceID]*worker)
	n.mu.Unlock()

	for _, w := range workers {
		close(w.quit)
		<-w.finished
	}
}

// Committed returns the currently displayed height for the instance.
func (n *Negotiator) Committed(instanceID id.InstanceID) (float64, bool) {
	n.mu.Lock()
	w, ok := n.workers[instanceID]
	n.mu.Unlock()
	if !ok {
		return 0, false
	}
	return math.Float64frombits(w.displayed.Load()), true
}

// Tracked reports whether the instance has a live worker.
func (n *Negotiator) Tracked(instanceID id.InstanceID) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	_, ok := n.workers[instanceID]
	return ok
}

// clamp bounds a measurement to the negotiable range.
func clamp(v float64) float64 {
	switch {
	case v < types.PlaceholderHeight:
		return types.PlaceholderHeight
	case v > types.MaxFrameHeight:
		return types.MaxFrameHeight
	default:
		return v
	}
}

// message is either one height sample or a re-baseline marker.
type message struct {
	reset bool
	value float64
	epoch uint64
}

// worker folds samples for one instance. The committed and candidate
// fields are owned by the run goroutine; displayed mirrors committed for
// outside readers.
type worker struct {
	instance id.InstanceID
	messages chan message
	quit     chan struct{}
	finished chan struct{}

	epoch     atomic.Uint64
	pending   atomic.Uint64 // Float64bits of the overflow candidate
	displayed atomic.Uint64 // Float64bits of the committed height

	committed float64
	candidate float64
	commit    func(float64)

	interval time.Duration
	metrics  *monitoring.Metrics
}

func (w *worker) run() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.finished)

	for {
		select {
		case <-w.quit:
			return
		case msg := <-w.messages:
			w.apply(msg)
		case <-ticker.C:
			w.drainPending()
			w.flush()
		}
	}
}

// apply ingests one message between frame edges.
func (w *worker) apply(msg message) {
	if msg.reset {
		w.candidate = msg.value
		w.committed = msg.value
		w.pending.Store(0)
		w.displayed.Store(math.Float64bits(msg.value))
		return
	}
	if msg.epoch != w.epoch.Load() {
		// Sample from a previous resource identity
		return
	}
	if v := clamp(msg.value); v > w.candidate {
		w.candidate = v
	}
}

// drainPending folds the overflow candidate, if any.
func (w *worker) drainPending() {
	bits := w.pending.Swap(0)
	if bits == 0 {
		return
	}
	if v := clamp(math.Float64frombits(bits)); v > w.candidate {
		w.candidate = v
	}
}

// flush commits at a frame edge when the candidate strictly exceeds the
// displayed height. Commits only ever grow the frame.
func (w *worker) flush() {
	if w.candidate <= w.committed {
		return
	}
	w.committed = w.candidate
	w.displayed.Store(math.Float64bits(w.committed))
	if w.metrics != nil {
		w.metrics.RecordHeightCommit(w.committed)
	}
	w.commit(w.committed)
}

// foldPending max-folds an overflowing sample into the pending candidate.
// Order independence of max keeps overflow lossless.
func (w *worker) foldPending(v float64) {
	for {
		old := w.pending.Load()
		if old != 0 && math.Float64frombits(old) >= v {
			return
		}
		if w.pending.CompareAndSwap(old, math.Float64bits(v)) {
			return
		}
	}
}
