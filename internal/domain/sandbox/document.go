package sandbox

import (
	"sync"
	"time"

	"github.com/easelhq/easel/internal/shared/id"
)

// errorDocTTL bounds how long an inline error document outlives its
// torn-down instance.
const errorDocTTL = 5 * time.Minute

// Document is a prepared sandbox document served under an opaque handle.
type Document struct {
	Handle      id.DocHandle
	InstanceID  id.InstanceID
	ContentType string
	Body        []byte
}

type docEntry struct {
	doc Document
	// expires is zero for documents pinned to a live instance. Error
	// documents outlive their instance briefly so an attached frame can
	// still fetch the inline error state.
	expires time.Time
}

// documents tracks served documents by handle. Handles are revoked when
// their instance unmounts or remounts, so stale frames cannot refetch
// superseded content.
type documents struct {
	mu       sync.Mutex
	byHandle map[id.DocHandle]docEntry
}

func newDocuments() *documents {
	return &documents{byHandle: make(map[id.DocHandle]docEntry)}
}

func (d *documents) put(doc Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked()
	d.byHandle[doc.Handle] = docEntry{doc: doc}
}

func (d *documents) putExpiring(doc Document, ttl time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweepLocked()
	d.byHandle[doc.Handle] = docEntry{doc: doc, expires: time.Now().Add(ttl)}
}

func (d *documents) get(handle id.DocHandle) (Document, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.byHandle[handle]
	if !ok {
		return Document{}, false
	}
	if !entry.expires.IsZero() && time.Now().After(entry.expires) {
		delete(d.byHandle, handle)
		return Document{}, false
	}
	return entry.doc, true
}

func (d *documents) revoke(handle id.DocHandle) {
	if handle == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.byHandle, handle)
}

func (d *documents) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.byHandle)
}

// sweepLocked drops expired error documents. Called with d.mu held.
func (d *documents) sweepLocked() {
	now := time.Now()
	for handle, entry := range d.byHandle {
		if !entry.expires.IsZero() && now.After(entry.expires) {
			delete(d.byHandle, handle)
		}
	}
}
