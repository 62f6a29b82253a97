package store

import (
	"strings"
	"sync"
	"testing"

	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/shared/types"
)

func newStore() *Store {
	return New(logging.NewNop())
}

func htmlResource(uri, text string) types.UIResource {
	return types.UIResource{URI: uri, Name: "res", MimeType: types.MimeHTML, Text: text}
}

func TestAddGet(t *testing.T) {
	s := newStore()

	res := htmlResource("ui://dash/1", "<html><body>dash</body></html>")
	if !s.Add(res) {
		t.Fatal("first add should succeed")
	}

	got, ok := s.Get("ui://dash/1")
	if !ok {
		t.Fatal("stored resource should be retrievable")
	}
	if got != res {
		t.Errorf("resource should round-trip unchanged: %+v != %+v", got, res)
	}
}

func TestAddGetCompressed(t *testing.T) {
	s := newStore()

	// Large enough to cross the compression threshold
	text := "<html><body>" + strings.Repeat("<div>row</div>", 4096) + "</body></html>"
	res := htmlResource("ui://dash/big", text)

	if !s.Add(res) {
		t.Fatal("add should succeed")
	}

	meta, ok := s.Meta("ui://dash/big")
	if !ok {
		t.Fatal("meta should exist")
	}
	if meta.Size != len(text) {
		t.Errorf("meta size should be the uncompressed length: %d != %d", meta.Size, len(text))
	}

	got, ok := s.Get("ui://dash/big")
	if !ok {
		t.Fatal("get should succeed")
	}
	if got.Text != text {
		t.Error("compressed body should decompress to the original text")
	}
}

func TestAddIdempotent(t *testing.T) {
	s := newStore()

	first := htmlResource("ui://form/1", "<p>first</p>")
	second := htmlResource("ui://form/1", "<p>second</p>")

	if !s.Add(first) {
		t.Fatal("first add should succeed")
	}
	if s.Add(second) {
		t.Error("second add for the same uri should be a no-op")
	}

	got, _ := s.Get("ui://form/1")
	if got.Text != "<p>first</p>" {
		t.Errorf("first writer should win, got %q", got.Text)
	}
	if s.Len() != 1 {
		t.Errorf("store should hold one resource, got %d", s.Len())
	}
}

func TestConcurrentAddSameURI(t *testing.T) {
	s := newStore()

	const writers = 32
	var wg sync.WaitGroup
	wins := make(chan int, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if s.Add(htmlResource("ui://race/1", "<p>w</p>")) {
				wins <- n
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Errorf("exactly one concurrent add should win, got %d", count)
	}
}

func TestSnapshotOrder(t *testing.T) {
	s := newStore()

	uris := []string{"ui://a/1", "ui://b/2", "ui://c/3"}
	for _, uri := range uris {
		s.Add(htmlResource(uri, "<p>x</p>"))
	}

	snap := s.Snapshot()
	if len(snap) != len(uris) {
		t.Fatalf("expected %d entries, got %d", len(uris), len(snap))
	}
	for i, meta := range snap {
		if meta.URI != uris[i] {
			t.Errorf("snapshot should keep insertion order: %s at %d", meta.URI, i)
		}
	}
}

func TestClear(t *testing.T) {
	s := newStore()

	s.Add(htmlResource("ui://a/1", "<p>x</p>"))
	s.Add(htmlResource("ui://b/2", "<p>y</p>"))
	s.Clear()

	if s.Len() != 0 {
		t.Errorf("store should be empty after clear, got %d", s.Len())
	}
	if _, ok := s.Get("ui://a/1"); ok {
		t.Error("cleared resource should be gone")
	}
	if len(s.Snapshot()) != 0 {
		t.Error("snapshot should be empty after clear")
	}

	// URI space is reusable after clear
	if !s.Add(htmlResource("ui://a/1", "<p>new</p>")) {
		t.Error("add should succeed after clear")
	}
}

func TestSubscribeBeforeAdd(t *testing.T) {
	s := newStore()

	var got []types.UIResource
	s.Subscribe("ui://late/1", func(res types.UIResource) {
		got = append(got, res)
	})

	res := htmlResource("ui://late/1", "<p>here</p>")
	s.Add(res)
	// Duplicate add must not re-fire
	s.Add(htmlResource("ui://late/1", "<p>again</p>"))

	if len(got) != 1 {
		t.Fatalf("subscription should fire exactly once, fired %d times", len(got))
	}
	if got[0] != res {
		t.Errorf("subscription should see the stored resource: %+v", got[0])
	}
}

func TestSubscribeAlreadyPresent(t *testing.T) {
	s := newStore()

	res := htmlResource("ui://now/1", "<p>x</p>")
	s.Add(res)

	fired := 0
	s.Subscribe("ui://now/1", func(types.UIResource) { fired++ })

	if fired != 1 {
		t.Errorf("subscription for a present uri should fire immediately, fired %d", fired)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := newStore()

	fired := false
	cancel := s.Subscribe("ui://never/1", func(types.UIResource) { fired = true })
	cancel()
	cancel() // idempotent

	s.Add(htmlResource("ui://never/1", "<p>x</p>"))
	if fired {
		t.Error("cancelled subscription should not fire")
	}
}

func TestSubscribeMultipleWaiters(t *testing.T) {
	s := newStore()

	firedA, firedB := 0, 0
	s.Subscribe("ui://multi/1", func(types.UIResource) { firedA++ })
	s.Subscribe("ui://multi/1", func(types.UIResource) { firedB++ })

	s.Add(htmlResource("ui://multi/1", "<p>x</p>"))

	if firedA != 1 || firedB != 1 {
		t.Errorf("every waiter should fire once: a=%d b=%d", firedA, firedB)
	}
}
