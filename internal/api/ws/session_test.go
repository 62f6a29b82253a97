package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/easelhq/easel/internal/domain/action"
	"github.com/easelhq/easel/internal/domain/detect"
	"github.com/easelhq/easel/internal/domain/height"
	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/domain/store"
	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

type captureSink struct {
	mu      sync.Mutex
	actions []types.UIAction
	results []string
}

func (c *captureSink) Deliver(_ id.ClientID, _ id.InstanceID, act types.UIAction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actions = append(c.actions, act)
}

func (c *captureSink) ToolResult(_ id.ClientID, _ id.InstanceID, _ string, output string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, output)
}

func (c *captureSink) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.actions)
}

type wsFixture struct {
	conn     *websocket.Conn
	sink     *captureSink
	registry *Registry
	host     *sandbox.Host
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logging.NewNop()
	registry := NewRegistry()
	detector := detect.New(log)
	resources := store.New(log)
	host := sandbox.New(log, sandbox.DefaultConfig())
	heights := height.New(log, height.Options{FrameInterval: 2 * time.Millisecond, QueueSize: 8})
	sink := &captureSink{}
	dispatcher := action.New(log, action.Deps{
		Detector: detector,
		Store:    resources,
		Host:     host,
		Heights:  heights,
		Executor: NewClientExecutor(registry, 5*time.Second),
		Sink:     sink,
	})
	handler := NewHandler(log, registry, detector, resources, host, heights, dispatcher)

	router := gin.New()
	router.GET("/stream", handler.HandleConnection)
	ts := httptest.NewServer(router)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		ts.Close()
		heights.Close()
	})
	return &wsFixture{conn: conn, sink: sink, registry: registry, host: host}
}

func (f *wsFixture) send(t *testing.T, msg map[string]interface{}) {
	t.Helper()
	require.NoError(t, f.conn.WriteJSON(msg))
}

// awaitType reads commands until one of the wanted type arrives.
func awaitType(t *testing.T, conn *websocket.Conn, want string) map[string]interface{} {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
		var cmd map[string]interface{}
		require.NoError(t, conn.ReadJSON(&cmd), "waiting for %q", want)
		if cmd["type"] == want {
			return cmd
		}
	}
	t.Fatalf("no %q command arrived", want)
	return nil
}

func (f *wsFixture) mountDash(t *testing.T, uri, body string) string {
	t.Helper()
	payload := `{"type":"resource","resource":{"uri":"` + uri + `","mimeType":"text/html","text":"` + body + `"}}`
	f.send(t, map[string]interface{}{"type": "tool_output", "text": payload})
	awaitType(t, f.conn, "resource")

	f.send(t, map[string]interface{}{"type": "mount", "uri": uri})
	mounted := awaitType(t, f.conn, "mounted")
	return mounted["instance_id"].(string)
}

func TestStreamLifecycle(t *testing.T) {
	f := newWSFixture(t)

	welcome := awaitType(t, f.conn, "system")
	require.NotEmpty(t, welcome["client_id"])

	payload := `{"type":"resource","resource":{"uri":"ui://dash/1","name":"Dash","mimeType":"text/html","text":"<html><body><h1>Dash</h1></body></html>"}}`
	f.send(t, map[string]interface{}{"type": "tool_output", "text": payload})

	resource := awaitType(t, f.conn, "resource")
	require.Equal(t, "ui://dash/1", resource["uri"])
	require.Equal(t, "text/html", resource["mimeType"])

	f.send(t, map[string]interface{}{"type": "mount", "uri": "ui://dash/1"})
	mounted := awaitType(t, f.conn, "mounted")
	require.Equal(t, sandbox.SandboxTokens, mounted["sandbox"])
	require.Equal(t, float64(types.PlaceholderHeight), mounted["height"])
	instID := mounted["instance_id"].(string)
	require.True(t, strings.HasPrefix(instID, "inst_"))

	// The frame reports its height; the bridge commits and pushes it.
	frame := json.RawMessage(`{"type":"ui-size-change","payload":{"height":512}}`)
	f.send(t, map[string]interface{}{"type": "frame_message", "instance_id": instID, "data": frame})
	committed := awaitType(t, f.conn, "height")
	require.Equal(t, float64(512), committed["height"])
	require.Equal(t, instID, committed["instance_id"])

	// Fire-and-forget actions land in the sink.
	notify := json.RawMessage(`{"type":"notify","payload":{"message":"hello"}}`)
	f.send(t, map[string]interface{}{"type": "frame_message", "instance_id": instID, "data": notify})
	require.Eventually(t, func() bool { return f.sink.count() == 1 }, time.Second, 5*time.Millisecond)

	f.send(t, map[string]interface{}{"type": "unmount", "instance_id": instID})
	unmounted := awaitType(t, f.conn, "unmounted")
	require.Equal(t, instID, unmounted["instance_id"])
}

func TestClientToolRoundTrip(t *testing.T) {
	f := newWSFixture(t)
	awaitType(t, f.conn, "system")

	instID := f.mountDash(t, "ui://form/1", "<html><body><form>go</form></body></html>")

	// The frame posts a tool action; the bridge asks this client to run it.
	toolMsg := json.RawMessage(`{"type":"mcp-ui-action","action":{"kind":"tool","payload":{"toolName":"submit","params":{"a":1}},"messageId":"m1"}}`)
	f.send(t, map[string]interface{}{"type": "frame_message", "instance_id": instID, "data": toolMsg})

	exec := awaitType(t, f.conn, "execute_tool")
	require.Equal(t, "submit", exec["tool"])
	require.Equal(t, "m1", exec["message_id"])
	reqID := exec["request_id"].(string)
	require.True(t, strings.HasPrefix(reqID, "req_"))

	// Answer with a new resource; it remounts into the same instance.
	result := `{"type":"resource","resource":{"uri":"ui://form/1/done","mimeType":"text/html","text":"<html><body>done</body></html>"}}`
	f.send(t, map[string]interface{}{"type": "tool_result", "request_id": reqID, "output": result})

	remounted := awaitType(t, f.conn, "mounted")
	require.Equal(t, true, remounted["remount"])
	require.Equal(t, instID, remounted["instance_id"])
	require.Equal(t, "ui://form/1/done", remounted["uri"])
}

func TestClientToolFailureNotifies(t *testing.T) {
	f := newWSFixture(t)
	awaitType(t, f.conn, "system")

	instID := f.mountDash(t, "ui://form/2", "<html><body><form>go</form></body></html>")

	toolMsg := json.RawMessage(`{"type":"tool","payload":{"toolName":"flaky","params":{}},"messageId":"m2"}`)
	f.send(t, map[string]interface{}{"type": "frame_message", "instance_id": instID, "data": toolMsg})

	exec := awaitType(t, f.conn, "execute_tool")
	f.send(t, map[string]interface{}{"type": "tool_result", "request_id": exec["request_id"], "error": "backend exploded"})

	failed := awaitType(t, f.conn, "action_failed")
	require.Equal(t, instID, failed["instance_id"])
	require.Equal(t, "m2", failed["message_id"])
	require.Contains(t, failed["reason"], "backend exploded")

	// The instance survives executor failures.
	notify := json.RawMessage(`{"type":"notify","payload":{}}`)
	f.send(t, map[string]interface{}{"type": "frame_message", "instance_id": instID, "data": notify})
	require.Eventually(t, func() bool { return f.sink.count() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPingPong(t *testing.T) {
	f := newWSFixture(t)
	awaitType(t, f.conn, "system")

	f.send(t, map[string]interface{}{"type": "ping"})
	awaitType(t, f.conn, "pong")
}

func TestUnknownMessageType(t *testing.T) {
	f := newWSFixture(t)
	awaitType(t, f.conn, "system")

	f.send(t, map[string]interface{}{"type": "bogus"})
	errCmd := awaitType(t, f.conn, "error")
	require.Contains(t, errCmd["message"], "unknown message type")
}

func TestMountUnknownURI(t *testing.T) {
	f := newWSFixture(t)
	awaitType(t, f.conn, "system")

	f.send(t, map[string]interface{}{"type": "mount", "uri": "ui://never/seen"})
	errCmd := awaitType(t, f.conn, "error")
	require.Contains(t, errCmd["message"], "unknown resource uri")
}

func TestDisconnectSweepsInstances(t *testing.T) {
	f := newWSFixture(t)
	awaitType(t, f.conn, "system")

	f.mountDash(t, "ui://sweep/1", "<html><body>x</body></html>")
	require.Equal(t, 1, f.host.Count())
	require.Equal(t, 1, f.registry.Count())

	f.conn.Close()
	require.Eventually(t, func() bool {
		return f.host.Count() == 0 && f.registry.Count() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
