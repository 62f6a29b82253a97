package height

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// recorder collects commits from a worker callback.
type recorder struct {
	mu      sync.Mutex
	commits []float64
}

func (r *recorder) commit(h float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, h)
}

func (r *recorder) all() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]float64, len(r.commits))
	copy(out, r.commits)
	return out
}

func (r *recorder) last() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.commits) == 0 {
		return 0, false
	}
	return r.commits[len(r.commits)-1], true
}

func testNegotiator(interval time.Duration) *Negotiator {
	return New(logging.NewNop(), Options{FrameInterval: interval, QueueSize: 8})
}

func probe(v float64) types.HeightSample {
	return types.HeightSample{Source: types.SourceProbe, Value: v, At: time.Now()}
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}

func TestCommitGrowth(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	if !n.Observe(inst, probe(420)) {
		t.Fatal("tracked instance should accept samples")
	}

	if !waitFor(t, time.Second, func() bool {
		last, ok := rec.last()
		return ok && last == 420
	}) {
		t.Fatalf("sample should commit, commits: %v", rec.all())
	}

	committed, ok := n.Committed(inst)
	if !ok || committed != 420 {
		t.Errorf("displayed height should be 420, got %v", committed)
	}
}

func TestCommitsNeverShrink(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	n.Observe(inst, probe(200))
	if !waitFor(t, time.Second, func() bool {
		last, ok := rec.last()
		return ok && last == 200
	}) {
		t.Fatal("200 should commit")
	}

	// A shorter measurement arriving later must not shrink the frame
	n.Observe(inst, probe(150))
	time.Sleep(20 * time.Millisecond)

	last, _ := rec.last()
	if last != 200 {
		t.Errorf("displayed height should stay 200, got %v", last)
	}
	if committed, _ := n.Committed(inst); committed != 200 {
		t.Errorf("committed should stay 200, got %v", committed)
	}
}

func TestMonotoneUnderAnyOrder(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	for _, v := range []float64{300, 180, 600, 240, 590, 601} {
		n.Observe(inst, probe(v))
	}

	if !waitFor(t, time.Second, func() bool {
		last, ok := rec.last()
		return ok && last == 601
	}) {
		t.Fatalf("max sample should win, commits: %v", rec.all())
	}

	// Commit sequence must be strictly increasing
	commits := rec.all()
	for i := 1; i < len(commits); i++ {
		if commits[i] <= commits[i-1] {
			t.Errorf("commits should strictly grow: %v", commits)
		}
	}
}

func TestFrameCoalescing(t *testing.T) {
	n := testNegotiator(40 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	// A burst inside one frame folds into a single commit
	for _, v := range []float64{180, 220, 190, 210} {
		n.Observe(inst, probe(v))
	}

	if !waitFor(t, time.Second, func() bool {
		last, ok := rec.last()
		return ok && last == 220
	}) {
		t.Fatalf("burst should commit its max, commits: %v", rec.all())
	}

	if commits := rec.all(); len(commits) != 1 {
		t.Errorf("burst should coalesce into one commit, got %v", commits)
	}
}

func TestClampBounds(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	// Below the placeholder clamps up to it; equal to displayed, no commit
	n.Observe(inst, probe(10))
	time.Sleep(20 * time.Millisecond)
	if _, ok := rec.last(); ok {
		t.Errorf("sub-placeholder sample should not commit: %v", rec.all())
	}

	// Runaway growth clamps to the ceiling
	n.Observe(inst, probe(250000))
	if !waitFor(t, time.Second, func() bool {
		last, ok := rec.last()
		return ok && last == types.MaxFrameHeight
	}) {
		t.Fatalf("oversized sample should clamp, commits: %v", rec.all())
	}
}

func TestJunkSamplesIgnored(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	nan := types.HeightSample{Source: types.SourceProbe, Value: math.NaN()}
	n.Observe(inst, nan)
	n.Observe(inst, probe(-50))
	n.Observe(inst, probe(0))
	time.Sleep(20 * time.Millisecond)

	if _, ok := rec.last(); ok {
		t.Errorf("junk samples should never commit: %v", rec.all())
	}
}

func TestResetRestartsFromPlaceholder(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	n.Observe(inst, probe(400))
	if !waitFor(t, time.Second, func() bool {
		last, ok := rec.last()
		return ok && last == 400
	}) {
		t.Fatal("400 should commit")
	}

	// New resource identity mounts into the same instance
	n.Reset(inst, types.PlaceholderHeight)

	if !waitFor(t, time.Second, func() bool {
		committed, ok := n.Committed(inst)
		return ok && committed == types.PlaceholderHeight
	}) {
		t.Fatal("reset should re-baseline the displayed height")
	}

	// Fresh growth starts from the placeholder, not the old 400
	n.Observe(inst, probe(200))
	if !waitFor(t, time.Second, func() bool {
		last, ok := rec.last()
		return ok && last == 200
	}) {
		t.Fatalf("post-reset growth should commit at 200, commits: %v", rec.all())
	}
}

func TestResetDiscardsQueuedSamples(t *testing.T) {
	// Long frame so queued samples and the reset land inside one window
	n := testNegotiator(60 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	n.Observe(inst, probe(500))
	time.Sleep(5 * time.Millisecond)
	n.Reset(inst, types.PlaceholderHeight)

	time.Sleep(150 * time.Millisecond)
	if _, ok := rec.last(); ok {
		t.Errorf("pre-reset sample should never commit: %v", rec.all())
	}
}

func TestFallbackInitial(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.FallbackHeight, rec.commit)

	if committed, _ := n.Committed(inst); committed != types.FallbackHeight {
		t.Errorf("initial displayed should honor the fallback, got %v", committed)
	}

	// Samples below the fallback never shrink it
	n.Observe(inst, probe(300))
	time.Sleep(20 * time.Millisecond)
	if _, ok := rec.last(); ok {
		t.Errorf("sub-fallback sample should not commit: %v", rec.all())
	}
}

func TestObserveUntracked(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	if n.Observe(id.NewInstanceID(), probe(300)) {
		t.Error("untracked instance should be refused")
	}
}

func TestRelease(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)
	n.Release(inst)
	n.Release(inst) // idempotent

	if n.Tracked(inst) {
		t.Error("released instance should be untracked")
	}
	if n.Observe(inst, probe(300)) {
		t.Error("released instance should refuse samples")
	}
	if _, ok := n.Committed(inst); ok {
		t.Error("released instance should have no committed height")
	}
}

func TestQueueOverflowFolds(t *testing.T) {
	n := New(logging.NewNop(), Options{FrameInterval: 5 * time.Millisecond, QueueSize: 1})
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)

	// Flood far past the queue size; the max must survive the overflow
	max := 0.0
	for i := 1; i <= 500; i++ {
		v := float64(150 + i)
		if v > max {
			max = v
		}
		n.Observe(inst, probe(v))
	}

	if !waitFor(t, 2*time.Second, func() bool {
		committed, ok := n.Committed(inst)
		return ok && committed == max
	}) {
		committed, _ := n.Committed(inst)
		t.Errorf("overflowed max should fold in: want %v, got %v", max, committed)
	}
}

func TestTrackTwice(t *testing.T) {
	n := testNegotiator(2 * time.Millisecond)
	defer n.Close()

	rec := &recorder{}
	inst := id.NewInstanceID()
	n.Track(inst, types.PlaceholderHeight, rec.commit)
	n.Track(inst, types.FallbackHeight, rec.commit) // no-op

	if committed, _ := n.Committed(inst); committed != types.PlaceholderHeight {
		t.Errorf("second track should not rebind the worker, got %v", committed)
	}
}
