// Package testutil provides testing utilities and helpers for bridge tests.
package testutil

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// DirectEnvelope returns the canonical embedded-resource JSON for a UI
// payload.
func DirectEnvelope(uri string, mime types.MimeType, text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"type": "resource",
		"resource": map[string]interface{}{
			"uri":      uri,
			"name":     uri,
			"mimeType": string(mime),
			"text":     text,
		},
	})
	return string(b)
}

// WrappedText wraps body as a text content item. Detection unwraps the
// text and scans it for a direct envelope.
func WrappedText(body string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"type": "text",
		"text": body,
	})
	return string(b)
}

// ContentArray builds a {"content": [...]} document from raw JSON items.
func ContentArray(items ...string) string {
	raw := make([]json.RawMessage, len(items))
	for i, item := range items {
		raw[i] = json.RawMessage(item)
	}
	b, _ := json.Marshal(map[string]interface{}{"content": raw})
	return string(b)
}

// FrameAction returns the wrapped action envelope a sandboxed frame
// posts for a user interaction.
func FrameAction(kind string, payload map[string]interface{}, messageID string) []byte {
	b, _ := json.Marshal(map[string]interface{}{
		"type": types.FrameTypeAction,
		"action": map[string]interface{}{
			"kind":      kind,
			"payload":   payload,
			"messageId": messageID,
		},
	})
	return b
}

// HTMLResource creates a store-ready HTML resource.
func HTMLResource(t *testing.T, uri, body string) types.UIResource {
	t.Helper()
	res := types.UIResource{
		URI:      uri,
		Name:     uri,
		MimeType: types.MimeHTML,
		Text:     body,
	}
	if !res.Valid() {
		t.Fatalf("test resource %q is not valid", uri)
	}
	return res
}

// MockToolExecutor is a mock implementation of action.ToolExecutor.
type MockToolExecutor struct {
	mock.Mock
}

// Execute mocks the Execute method.
func (m *MockToolExecutor) Execute(ctx context.Context, clientID id.ClientID, act types.UIAction) (string, error) {
	args := m.Called(ctx, clientID, act)
	return args.String(0), args.Error(1)
}

// NewMockToolExecutor creates a mock executor that answers every call
// with output.
func NewMockToolExecutor(t *testing.T, output string) *MockToolExecutor {
	t.Helper()
	m := new(MockToolExecutor)
	m.On("Execute", mock.Anything, mock.Anything, mock.Anything).
		Return(output, nil).
		Maybe()
	return m
}

// MockActionSink is a mock implementation of action.ActionSink. Deliver
// and ToolResult additionally feed buffered channels so tests can block
// on dispatcher output without polling mock state.
type MockActionSink struct {
	mock.Mock
	Delivered   chan types.UIAction
	ToolResults chan string
}

// Deliver mocks the Deliver method.
func (m *MockActionSink) Deliver(clientID id.ClientID, instID id.InstanceID, act types.UIAction) {
	m.Called(clientID, instID, act)
	select {
	case m.Delivered <- act:
	default:
	}
}

// ToolResult mocks the ToolResult method.
func (m *MockActionSink) ToolResult(clientID id.ClientID, instID id.InstanceID, messageID, output string) {
	m.Called(clientID, instID, messageID, output)
	select {
	case m.ToolResults <- output:
	default:
	}
}

// NewMockActionSink creates a sink that accepts everything.
func NewMockActionSink(t *testing.T) *MockActionSink {
	t.Helper()
	m := &MockActionSink{
		Delivered:   make(chan types.UIAction, 8),
		ToolResults: make(chan string, 8),
	}
	m.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Maybe()
	m.On("ToolResult", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()
	return m
}

// MockNotifier is a mock implementation of action.Notifier.
type MockNotifier struct {
	mock.Mock
}

// ActionFailed mocks the ActionFailed method.
func (m *MockNotifier) ActionFailed(instID id.InstanceID, messageID, reason string) {
	m.Called(instID, messageID, reason)
}

// NewMockNotifier creates a notifier that tolerates any failure report.
func NewMockNotifier(t *testing.T) *MockNotifier {
	t.Helper()
	m := new(MockNotifier)
	m.On("ActionFailed", mock.Anything, mock.Anything, mock.Anything).Maybe()
	return m
}

// RecordingSurface captures sandbox surface callbacks for assertions.
type RecordingSurface struct {
	mu        sync.Mutex
	mounts    []sandbox.Mount
	errors    []string
	unmounted []id.InstanceID
}

// NewRecordingSurface creates an empty recording surface.
func NewRecordingSurface() *RecordingSurface {
	return &RecordingSurface{}
}

// Mounted implements sandbox.Surface.
func (r *RecordingSurface) Mounted(m sandbox.Mount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mounts = append(r.mounts, m)
}

// RenderError implements sandbox.Surface.
func (r *RecordingSurface) RenderError(instID id.InstanceID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

// Unmounted implements sandbox.Surface.
func (r *RecordingSurface) Unmounted(instID id.InstanceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unmounted = append(r.unmounted, instID)
}

// Mounts returns a copy of the recorded mount events.
func (r *RecordingSurface) Mounts() []sandbox.Mount {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]sandbox.Mount, len(r.mounts))
	copy(out, r.mounts)
	return out
}

// Errors returns a copy of the recorded render errors.
func (r *RecordingSurface) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.errors))
	copy(out, r.errors)
	return out
}

// UnmountCount returns how many unmount callbacks fired.
func (r *RecordingSurface) UnmountCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.unmounted)
}
