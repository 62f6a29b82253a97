package store

import (
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/infrastructure/monitoring"
	"github.com/easelhq/easel/internal/shared/types"
)

// Texts below this size are stored uncompressed.
const compressThreshold = 512

// Store keeps detected resources for the conversation lifetime.
// Adds are idempotent by URI: the first writer wins and later adds are
// silent no-ops. Construct one per conversation scope; the store is not
// a package-level singleton.
type Store struct {
	mu        sync.RWMutex
	resources map[string]entry
	order     []string
	waiters   map[string][]*waiter

	enc *zstd.Encoder
	dec *zstd.Decoder

	log     *logging.Logger
	metrics *monitoring.Metrics
}

type entry struct {
	meta       types.ResourceMeta
	body       []byte
	compressed bool
}

type waiter struct {
	fn func(types.UIResource)
}

// New creates an empty store.
func New(log *logging.Logger) *Store {
	if log == nil {
		log = logging.NewNop()
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	dec, _ := zstd.NewReader(nil)
	return &Store{
		resources: make(map[string]entry),
		waiters:   make(map[string][]*waiter),
		enc:       enc,
		dec:       dec,
		log:       log,
	}
}

// WithMetrics attaches a metrics collector.
func (s *Store) WithMetrics(m *monitoring.Metrics) *Store {
	s.metrics = m
	return s
}

// Add stores a resource under its URI. Returns false when the URI is
// already present; the stored resource is never replaced.
func (s *Store) Add(res types.UIResource) bool {
	s.mu.Lock()
	if _, exists := s.resources[res.URI]; exists {
		total := len(s.resources)
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordAdd(false, total)
		}
		s.log.Debug("Duplicate resource ignored", zap.String("uri", res.URI))
		return false
	}

	body := []byte(res.Text)
	compressed := false
	if len(body) >= compressThreshold {
		body = s.enc.EncodeAll(body, make([]byte, 0, len(body)/2))
		compressed = true
	}

	s.resources[res.URI] = entry{
		meta: types.ResourceMeta{
			URI:      res.URI,
			Name:     res.Name,
			MimeType: res.MimeType,
			Size:     len(res.Text),
		},
		body:       body,
		compressed: compressed,
	}
	s.order = append(s.order, res.URI)
	total := len(s.resources)

	pending := s.takeWaiters(res.URI)
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordAdd(true, total)
	}
	s.log.Info("Resource stored",
		zap.String("uri", res.URI),
		zap.String("mime", string(res.MimeType)),
		zap.Int("size", len(res.Text)),
		zap.Bool("compressed", compressed),
	)

	for _, w := range pending {
		w.fn(res)
	}
	return true
}

// Get returns the resource stored under uri.
func (s *Store) Get(uri string) (types.UIResource, bool) {
	s.mu.RLock()
	e, ok := s.resources[uri]
	s.mu.RUnlock()
	if !ok {
		return types.UIResource{}, false
	}

	text := e.body
	if e.compressed {
		var err error
		text, err = s.dec.DecodeAll(e.body, nil)
		if err != nil {
			s.log.Error("Failed to decompress resource", zap.String("uri", uri), zap.Error(err))
			return types.UIResource{}, false
		}
	}

	return types.UIResource{
		URI:      e.meta.URI,
		Name:     e.meta.Name,
		MimeType: e.meta.MimeType,
		Text:     string(text),
	}, true
}

// Meta returns the stored metadata for uri.
func (s *Store) Meta(uri string) (types.ResourceMeta, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.resources[uri]
	if !ok {
		return types.ResourceMeta{}, false
	}
	return e.meta, true
}

// Snapshot lists stored resource metadata in insertion order.
func (s *Store) Snapshot() []types.ResourceMeta {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ResourceMeta, 0, len(s.order))
	for _, uri := range s.order {
		if e, ok := s.resources[uri]; ok {
			out = append(out, e.meta)
		}
	}
	return out
}

// Len returns the number of stored resources.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.resources)
}

// Clear removes every stored resource. Pending subscriptions survive and
// fire on the next matching Add.
func (s *Store) Clear() {
	s.mu.Lock()
	n := len(s.resources)
	s.resources = make(map[string]entry)
	s.order = nil
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SetResourcesStored(0)
	}
	s.log.Info("Store cleared", zap.Int("dropped", n))
}

// Subscribe registers fn to run exactly once when a resource arrives under
// uri. If the resource is already present fn runs immediately on the
// calling goroutine. The returned func cancels the subscription.
func (s *Store) Subscribe(uri string, fn func(types.UIResource)) func() {
	s.mu.Lock()
	if _, exists := s.resources[uri]; exists {
		s.mu.Unlock()
		if res, ok := s.Get(uri); ok {
			fn(res)
		}
		return func() {}
	}

	w := &waiter{fn: fn}
	s.waiters[uri] = append(s.waiters[uri], w)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.waiters[uri]
		for i, cand := range list {
			if cand == w {
				s.waiters[uri] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(s.waiters[uri]) == 0 {
			delete(s.waiters, uri)
		}
	}
}

// takeWaiters removes and returns pending waiters for uri. Caller holds mu.
func (s *Store) takeWaiters(uri string) []*waiter {
	list := s.waiters[uri]
	if len(list) == 0 {
		return nil
	}
	delete(s.waiters, uri)
	return list
}
