package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// Registry tracks live sessions by client ID.
type Registry struct {
	mu       sync.RWMutex
	sessions map[id.ClientID]*Session
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[id.ClientID]*Session)}
}

func (r *Registry) add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.id] = s
}

func (r *Registry) remove(clientID id.ClientID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, clientID)
}

// Get returns the live session for a client.
func (r *Registry) Get(clientID id.ClientID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[clientID]
	return s, ok
}

// Count returns the number of connected clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// CloseAll tears down every session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.close()
	}
}

// ClientExecutor routes tool calls back through the owning client's
// stream and awaits the result. It is the default executor when no
// outbound tools endpoint is configured.
type ClientExecutor struct {
	registry *Registry
	timeout  time.Duration
}

// NewClientExecutor creates a client round-trip executor.
func NewClientExecutor(registry *Registry, timeout time.Duration) *ClientExecutor {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ClientExecutor{registry: registry, timeout: timeout}
}

// Execute implements action.ToolExecutor.
func (e *ClientExecutor) Execute(ctx context.Context, clientID id.ClientID, act types.UIAction) (string, error) {
	sess, ok := e.registry.Get(clientID)
	if !ok {
		return "", fmt.Errorf("client %s is not connected", clientID)
	}
	return sess.ExecuteTool(ctx, act, e.timeout)
}
