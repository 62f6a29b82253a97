//go:build integration
// +build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easelhq/easel/internal/domain/action"
	"github.com/easelhq/easel/internal/domain/detect"
	"github.com/easelhq/easel/internal/domain/height"
	"github.com/easelhq/easel/internal/domain/sandbox"
	"github.com/easelhq/easel/internal/domain/store"
	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
	"github.com/easelhq/easel/tests/helpers/testutil"
)

// headless wires the domain pipeline without any transport on top.
type headless struct {
	detector   *detect.Detector
	resources  *store.Store
	host       *sandbox.Host
	heights    *height.Negotiator
	dispatcher *action.Dispatcher
	executor   *testutil.MockToolExecutor
	sink       *testutil.MockActionSink
}

func newHeadless(t *testing.T, toolOutput string) *headless {
	t.Helper()
	log := logging.NewNop()

	h := &headless{
		detector:  detect.New(log),
		resources: store.New(log),
		host:      sandbox.New(log, sandbox.DefaultConfig()),
		heights:   height.New(log, height.Options{FrameInterval: 2 * time.Millisecond, QueueSize: 8}),
		executor:  testutil.NewMockToolExecutor(t, toolOutput),
		sink:      testutil.NewMockActionSink(t),
	}
	h.dispatcher = action.New(log, action.Deps{
		Detector: h.detector,
		Store:    h.resources,
		Host:     h.host,
		Heights:  h.heights,
		Executor: h.executor,
		Sink:     h.sink,
	})
	t.Cleanup(func() {
		h.dispatcher.Close()
		h.heights.Close()
	})
	return h
}

func TestHeadlessToolRefresh(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	next := testutil.DirectEnvelope("ui://itest/headless/v2", types.MimeHTML, "<p>two</p>")
	h := newHeadless(t, next)

	res := testutil.HTMLResource(t, "ui://itest/headless/v1", "<p>one</p>")
	require.True(t, h.resources.Add(res))

	surface := testutil.NewRecordingSurface()
	clientID := id.NewClientID()
	inst, err := h.host.Mount(context.Background(), res, clientID, surface)
	require.NoError(t, err)
	require.Len(t, surface.Mounts(), 1)

	notify := testutil.NewMockNotifier(t)
	h.dispatcher.Dispatch(context.Background(), clientID, inst.ID,
		testutil.FrameAction("tool", map[string]interface{}{"toolName": "refresh"}, "m1"),
		notify)

	require.Eventually(t, func() bool {
		return len(surface.Mounts()) == 2
	}, 2*time.Second, 10*time.Millisecond, "tool output should remount the instance")

	mounts := surface.Mounts()
	assert.Equal(t, inst.ID, mounts[1].InstanceID, "refresh keeps the instance identity")
	assert.True(t, mounts[1].Remount)
	assert.Equal(t, "ui://itest/headless/v2", mounts[1].URI)
	assert.Equal(t, types.PlaceholderHeight, mounts[1].Height, "height restarts on remount")
	assert.Empty(t, surface.Errors())

	// The refreshed resource is stored for later mounts.
	_, ok := h.resources.Get("ui://itest/headless/v2")
	assert.True(t, ok)
}

func TestHeadlessNotifyRelay(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	h := newHeadless(t, "")

	res := testutil.HTMLResource(t, "ui://itest/relay", "<p>r</p>")
	require.True(t, h.resources.Add(res))

	surface := testutil.NewRecordingSurface()
	clientID := id.NewClientID()
	inst, err := h.host.Mount(context.Background(), res, clientID, surface)
	require.NoError(t, err)

	notify := testutil.NewMockNotifier(t)
	h.dispatcher.Dispatch(context.Background(), clientID, inst.ID,
		testutil.FrameAction("notify", map[string]interface{}{"message": "done"}, "n1"),
		notify)

	select {
	case act := <-h.sink.Delivered:
		assert.Equal(t, types.ActionNotify, act.Kind)
		assert.Equal(t, "n1", act.MessageID)
	case <-time.After(2 * time.Second):
		t.Fatal("notify never reached the sink")
	}

	h.sink.AssertNotCalled(t, "ToolResult")
	notify.AssertNotCalled(t, "ActionFailed")
}
