package action

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/domain/detect"
	"github.com/easelhq/easel/internal/domain/height"
	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/domain/store"
	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/infrastructure/monitoring"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// ToolExecutor runs a tool action and returns its raw output.
type ToolExecutor interface {
	Execute(ctx context.Context, clientID id.ClientID, action types.UIAction) (string, error)
}

// ActionSink receives fire-and-forget actions and non-UI tool results
// for delivery to the conversation surface.
type ActionSink interface {
	Deliver(clientID id.ClientID, instanceID id.InstanceID, action types.UIAction)
	ToolResult(clientID id.ClientID, instanceID id.InstanceID, messageID, output string)
}

// Notifier receives failed-action notifications for the owning client.
type Notifier interface {
	ActionFailed(instanceID id.InstanceID, messageID, reason string)
}

// Deps wires the dispatcher to its collaborators.
type Deps struct {
	Detector *detect.Detector
	Store    *store.Store
	Host     *sandbox.Host
	Heights  *height.Negotiator
	Executor ToolExecutor
	Sink     ActionSink
}

// Dispatcher routes frame messages from sandboxed documents. Height
// reports feed the negotiator directly; actions run through one strict
// FIFO queue per instance, so a tool call completes before the next
// action for that instance is taken.
type Dispatcher struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	deps    Deps

	mu     sync.Mutex
	queues map[id.InstanceID]*queue
	wg     sync.WaitGroup
}

type queue struct {
	items []item
	busy  bool
}

type item struct {
	ctx      context.Context
	clientID id.ClientID
	action   types.UIAction
	notify   Notifier
}

// New creates a dispatcher.
func New(log *logging.Logger, deps Deps) *Dispatcher {
	return &Dispatcher{
		log:    log.Component("action"),
		deps:   deps,
		queues: make(map[id.InstanceID]*queue),
	}
}

// WithMetrics attaches metrics collection
func (d *Dispatcher) WithMetrics(m *monitoring.Metrics) *Dispatcher {
	d.metrics = m
	return d
}

// Dispatch routes one raw frame message. The origin check runs before
// anything else: messages for instances the host does not track for this
// client are dropped with a warning and never forwarded.
func (d *Dispatcher) Dispatch(ctx context.Context, clientID id.ClientID, instanceID id.InstanceID, data []byte, notify Notifier) {
	if !d.deps.Host.Tracks(instanceID, clientID) {
		d.drop("untrusted_origin", types.ErrUntrustedOrigin,
			zap.String("instance_id", instanceID.String()),
			zap.String("client_id", clientID.String()))
		return
	}

	cls, err := Classify(data)
	if err != nil {
		d.drop("unrecognized", err,
			zap.String("instance_id", instanceID.String()))
		return
	}

	switch cls.Class {
	case ClassHeight:
		d.deps.Heights.Observe(instanceID, cls.Sample)
	case ClassAction:
		d.enqueue(ctx, clientID, instanceID, cls.Action, notify)
	}
}

// ObserveResize feeds a client-side frame resize observation straight to
// the negotiator, subject to the same origin check as frame messages.
func (d *Dispatcher) ObserveResize(clientID id.ClientID, instanceID id.InstanceID, value float64) {
	if !d.deps.Host.Tracks(instanceID, clientID) {
		d.drop("untrusted_origin", types.ErrUntrustedOrigin,
			zap.String("instance_id", instanceID.String()),
			zap.String("client_id", clientID.String()))
		return
	}
	d.deps.Heights.Observe(instanceID, types.HeightSample{
		Source: types.SourceObserver,
		Value:  value,
		At:     time.Now(),
	})
}

// Close waits for all queued actions to finish.
func (d *Dispatcher) Close() {
	d.wg.Wait()
}

// QueueDepth returns the number of actions waiting for an instance.
func (d *Dispatcher) QueueDepth(instanceID id.InstanceID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	q, ok := d.queues[instanceID]
	if !ok {
		return 0
	}
	n := len(q.items)
	if q.busy {
		n++
	}
	return n
}

func (d *Dispatcher) enqueue(ctx context.Context, clientID id.ClientID, instanceID id.InstanceID, act types.UIAction, notify Notifier) {
	it := item{ctx: ctx, clientID: clientID, action: act, notify: notify}

	d.mu.Lock()
	q, ok := d.queues[instanceID]
	if !ok {
		q = &queue{}
		d.queues[instanceID] = q
	}
	q.items = append(q.items, it)
	start := !q.busy
	if start {
		q.busy = true
		d.wg.Add(1)
	}
	d.mu.Unlock()

	if start {
		go d.drain(instanceID)
	}
}

// drain runs queued actions for one instance in order until the queue
// empties, then retires.
func (d *Dispatcher) drain(instanceID id.InstanceID) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[instanceID]
		if q == nil || len(q.items) == 0 {
			delete(d.queues, instanceID)
			d.mu.Unlock()
			return
		}
		it := q.items[0]
		q.items = q.items[1:]
		d.mu.Unlock()

		d.run(it, instanceID)
	}
}

func (d *Dispatcher) run(it item, instanceID id.InstanceID) {
	if it.action.Kind == types.ActionTool {
		d.runTool(it, instanceID)
		return
	}

	// prompt, notify, link, intent are fire-and-forget; results ignored.
	d.deps.Sink.Deliver(it.clientID, instanceID, it.action)
	if d.metrics != nil {
		d.metrics.RecordAction(string(it.action.Kind), "delivered")
	}
	d.log.Debug("action delivered",
		zap.String("instance_id", instanceID.String()),
		zap.String("kind", string(it.action.Kind)))
}

// runTool awaits the executor, re-detects the result, and remounts any
// embedded resource into the same instance. The negotiator re-baselines
// so the replacement's height starts from its own placeholder.
func (d *Dispatcher) runTool(it item, instanceID id.InstanceID) {
	started := time.Now()
	output, err := d.deps.Executor.Execute(it.ctx, it.clientID, it.action)
	if d.metrics != nil {
		d.metrics.RecordToolCall(time.Since(started))
	}
	if err != nil {
		d.failAction(it, instanceID, fmt.Errorf("%w: %v", types.ErrActionFailed, err))
		return
	}

	res, ok := d.deps.Detector.Detect(output)
	if !ok {
		// No embedded resource; hand the raw output back to the
		// conversation surface.
		d.deps.Sink.ToolResult(it.clientID, instanceID, it.action.MessageID, output)
		if d.metrics != nil {
			d.metrics.RecordAction(string(types.ActionTool), "result")
		}
		return
	}

	d.deps.Store.Add(res)
	inst, err := d.deps.Host.Remount(it.ctx, instanceID, res)
	if err != nil {
		// The host already surfaced the render error and tore the
		// instance down; release its worker and report the failure.
		d.deps.Heights.Release(instanceID)
		d.failAction(it, instanceID, fmt.Errorf("%w: %v", types.ErrActionFailed, err))
		return
	}
	d.deps.Heights.Reset(instanceID, inst.Height)

	if d.metrics != nil {
		d.metrics.RecordAction(string(types.ActionTool), "remounted")
	}
	d.log.Info("tool result remounted",
		zap.String("instance_id", instanceID.String()),
		zap.String("uri", res.URI))
}

func (d *Dispatcher) failAction(it item, instanceID id.InstanceID, err error) {
	d.log.Warn("action failed",
		zap.String("instance_id", instanceID.String()),
		zap.String("kind", string(it.action.Kind)),
		zap.Error(err))
	if d.metrics != nil {
		d.metrics.RecordAction(string(it.action.Kind), "failed")
	}
	if it.notify != nil {
		it.notify.ActionFailed(instanceID, it.action.MessageID, err.Error())
	}
}

func (d *Dispatcher) drop(reason string, err error, fields ...zap.Field) {
	d.log.Warn("frame message dropped",
		append(fields, zap.String("reason", reason), zap.Error(err))...)
	if d.metrics != nil {
		d.metrics.RecordDrop(reason)
	}
}
