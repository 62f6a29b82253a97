package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/infrastructure/monitoring"
	"github.com/easelhq/easel/internal/shared/id"
	"github.com/easelhq/easel/internal/shared/types"
)

// Surface receives render lifecycle notifications for one client's frames.
// The stream session implements it. Calls may perform network writes, so
// the host never invokes a surface while holding its lock.
type Surface interface {
	Mounted(m Mount)
	RenderError(instanceID id.InstanceID, message string)
	Unmounted(instanceID id.InstanceID)
}

// Mount describes a frame the client should attach or replace.
type Mount struct {
	InstanceID id.InstanceID  `json:"instance_id"`
	URI        string         `json:"uri"`
	Name       string         `json:"name,omitempty"`
	Kind       types.MimeKind `json:"kind"`
	Src        string         `json:"src"`
	Sandbox    string         `json:"sandbox"`
	Height     float64        `json:"height"`
	Remount    bool           `json:"remount,omitempty"`
}

// RenderInstance is one mounted rendering context. Identity survives
// remounts; the document, name, and height baseline do not.
type RenderInstance struct {
	ID          id.InstanceID
	ClientID    id.ClientID
	ResourceURI string
	Kind        types.MimeKind
	DocHandle   id.DocHandle
	Src         string
	Name        string
	Height      float64
	Probed      bool
	Loaded      bool
	MountedAt   time.Time

	surface Surface
}

// Config tunes document preparation.
type Config struct {
	// MaxDocumentBytes rejects oversized resource bodies as malformed.
	MaxDocumentBytes int
	// PreflightURIList enables an advisory HEAD request against uri-list
	// targets before mounting them.
	PreflightURIList bool
	// DocPath is the route prefix documents are served under.
	DocPath string
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxDocumentBytes: 10 * 1024 * 1024,
		DocPath:          "/sandbox/docs/",
	}
}

// Host mounts UI resources into isolated render instances and serves
// their prepared documents.
type Host struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
	cfg     Config

	docs      *documents
	preflight *resty.Client

	mu        sync.RWMutex
	instances map[id.InstanceID]*RenderInstance
}

// New creates a sandbox host.
func New(log *logging.Logger, cfg Config) *Host {
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = DefaultConfig().MaxDocumentBytes
	}
	if cfg.DocPath == "" {
		cfg.DocPath = DefaultConfig().DocPath
	}
	h := &Host{
		log:       log.Component("sandbox"),
		cfg:       cfg,
		docs:      newDocuments(),
		instances: make(map[id.InstanceID]*RenderInstance),
	}
	if cfg.PreflightURIList {
		h.preflight = resty.New().
			SetTimeout(5 * time.Second).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(3))
	}
	return h
}

// WithMetrics attaches metrics collection
func (h *Host) WithMetrics(m *monitoring.Metrics) *Host {
	h.metrics = m
	return h
}

// Mount prepares a resource and attaches it to a new render instance
// owned by clientID. Malformed resources notify the surface with an
// inline error state and return without mounting; there is no retry.
func (h *Host) Mount(ctx context.Context, res types.UIResource, clientID id.ClientID, surface Surface) (*RenderInstance, error) {
	instID := id.NewInstanceID()
	prep, err := h.prepare(ctx, instID, res)
	if err != nil {
		h.renderError(surface, instID, err)
		return nil, err
	}

	inst := &RenderInstance{
		ID:          instID,
		ClientID:    clientID,
		ResourceURI: res.URI,
		Kind:        res.MimeType.Kind(),
		DocHandle:   prep.handle,
		Src:         prep.src,
		Name:        prep.name,
		Height:      prep.height,
		Probed:      prep.probed,
		MountedAt:   time.Now(),
		surface:     surface,
	}
	cmd := h.mountCommand(inst, false)

	h.mu.Lock()
	h.instances[instID] = inst
	count := len(h.instances)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.RecordMount(string(inst.Kind))
		h.metrics.SetInstancesActive(count)
	}
	h.log.Info("instance mounted",
		zap.String("instance_id", instID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("uri", res.URI),
		zap.String("kind", string(inst.Kind)))

	if surface != nil {
		surface.Mounted(cmd)
	}
	return inst, nil
}

// Remount replaces the content of a live instance, typically with a tool
// call result, keeping the frame identity. A malformed replacement tears
// the instance down with no retry.
func (h *Host) Remount(ctx context.Context, instanceID id.InstanceID, res types.UIResource) (*RenderInstance, error) {
	h.mu.RLock()
	inst, ok := h.instances[instanceID]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("instance %s: %w", instanceID, types.ErrNotMounted)
	}

	prep, err := h.prepare(ctx, instanceID, res)
	if err != nil {
		detail := h.renderError(inst.surface, instanceID, err)
		// The frame is still attached to the old handle; swap in the
		// inline error document before tearing the instance down.
		if inst.DocHandle != "" {
			h.docs.putExpiring(Document{
				Handle:      inst.DocHandle,
				InstanceID:  instanceID,
				ContentType: "text/html; charset=utf-8",
				Body:        errorDocument(detail),
			}, errorDocTTL)
		}
		h.teardown(instanceID, false, false)
		return nil, err
	}

	h.mu.Lock()
	old := inst.DocHandle
	inst.ResourceURI = res.URI
	inst.Kind = res.MimeType.Kind()
	inst.DocHandle = prep.handle
	inst.Src = prep.src
	inst.Name = prep.name
	inst.Height = prep.height
	inst.Probed = prep.probed
	inst.Loaded = false
	cmd := h.mountCommand(inst, true)
	h.mu.Unlock()

	h.docs.revoke(old)
	if h.metrics != nil {
		h.metrics.RecordMount(string(res.MimeType.Kind()))
	}
	h.log.Info("instance remounted",
		zap.String("instance_id", instanceID.String()),
		zap.String("uri", res.URI),
		zap.String("kind", string(res.MimeType.Kind())))

	if inst.surface != nil {
		inst.surface.Mounted(cmd)
	}
	return inst, nil
}

// Unmount removes an instance at the client's request.
func (h *Host) Unmount(instanceID id.InstanceID) {
	if h.teardown(instanceID, true, true) {
		h.log.Info("instance unmounted", zap.String("instance_id", instanceID.String()))
	}
}

// Tracks reports whether instanceID is live and owned by clientID. The
// dispatcher uses this as its origin check before accepting any frame
// message.
func (h *Host) Tracks(instanceID id.InstanceID, clientID id.ClientID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	inst, ok := h.instances[instanceID]
	return ok && inst.ClientID == clientID
}

// Get returns a copy of a mounted instance.
func (h *Host) Get(instanceID id.InstanceID) (RenderInstance, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	inst, ok := h.instances[instanceID]
	if !ok {
		return RenderInstance{}, false
	}
	return *inst, true
}

// List returns copies of all mounted instances in mount order.
func (h *Host) List() []RenderInstance {
	h.mu.RLock()
	out := make([]RenderInstance, 0, len(h.instances))
	for _, inst := range h.instances {
		out = append(out, *inst)
	}
	h.mu.RUnlock()

	// Instance IDs are ULIDs, so lexicographic order is mount order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of mounted instances.
func (h *Host) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.instances)
}

// MarkLoaded records that the client finished attaching the frame.
func (h *Host) MarkLoaded(instanceID id.InstanceID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if inst, ok := h.instances[instanceID]; ok {
		inst.Loaded = true
	}
}

// Document resolves a served document by handle.
func (h *Host) Document(handle id.DocHandle) (Document, bool) {
	doc, ok := h.docs.get(handle)
	if ok && h.metrics != nil {
		h.metrics.RecordDocServed()
	}
	return doc, ok
}

// DocumentCount returns the number of live document handles.
func (h *Host) DocumentCount() int {
	return h.docs.count()
}

// CloseClient tears down every instance owned by a departed client and
// returns their IDs so callers can release per-instance state. No surface
// notifications are sent; the surface is already gone.
func (h *Host) CloseClient(clientID id.ClientID) []id.InstanceID {
	h.mu.Lock()
	var removed []id.InstanceID
	for iid, inst := range h.instances {
		if inst.ClientID == clientID {
			h.docs.revoke(inst.DocHandle)
			delete(h.instances, iid)
			removed = append(removed, iid)
		}
	}
	count := len(h.instances)
	h.mu.Unlock()

	if len(removed) == 0 {
		return nil
	}
	if h.metrics != nil {
		h.metrics.SetInstancesActive(count)
	}
	h.log.Info("client instances closed",
		zap.String("client_id", clientID.String()),
		zap.Int("count", len(removed)))
	return removed
}

// ============================================================================
// Document Preparation
// ============================================================================

type prepared struct {
	handle id.DocHandle
	src    string
	name   string
	height float64
	probed bool
}

func (h *Host) prepare(ctx context.Context, instID id.InstanceID, res types.UIResource) (prepared, error) {
	if !res.Valid() {
		return prepared{}, fmt.Errorf("resource %q fails the detection contract: %w", res.URI, types.ErrMalformedPayload)
	}
	if len(res.Text) > h.cfg.MaxDocumentBytes {
		return prepared{}, fmt.Errorf("document is %d bytes, limit is %d: %w", len(res.Text), h.cfg.MaxDocumentBytes, types.ErrMalformedPayload)
	}

	switch res.MimeType.Kind() {
	case types.KindHTML:
		return h.prepareHTML(instID, res)
	case types.KindURIList:
		return h.prepareURIList(ctx, res)
	case types.KindRemoteDOM:
		return h.prepareRemoteDOM(instID, res)
	default:
		return prepared{}, fmt.Errorf("unsupported mime type %q: %w", res.MimeType, types.ErrMalformedPayload)
	}
}

func (h *Host) prepareHTML(instID id.InstanceID, res types.UIResource) (prepared, error) {
	doc, err := loadHTML([]byte(res.Text))
	if err != nil {
		// The parser is error-tolerant; a hard failure means the charset
		// reader rejected the bytes. Serve the text verbatim without a
		// probe and let the frame render at the fallback height.
		h.denyProbe(res.URI, err)
		return h.storeDoc(instID, res.Name, []byte(res.Text), types.FallbackHeight, false), nil
	}
	if emptyBody(doc) {
		return prepared{}, fmt.Errorf("html document has no body content: %w", types.ErrMalformedPayload)
	}
	name := res.Name
	if name == "" {
		name = documentTitle(doc)
	}
	return h.finishDoc(instID, name, res.URI, doc, []byte(res.Text)), nil
}

func (h *Host) prepareURIList(ctx context.Context, res types.UIResource) (prepared, error) {
	target, rest, err := FirstURL(res.Text)
	if err != nil {
		return prepared{}, err
	}
	if len(rest) > 0 {
		h.log.Debug("uri-list has fallback entries",
			zap.String("uri", res.URI),
			zap.Int("ignored", len(rest)))
	}
	if h.preflight != nil {
		if resp, err := h.preflight.R().SetContext(ctx).Head(target); err != nil {
			h.log.Warn("uri-list preflight failed", zap.String("target", target), zap.Error(err))
		} else if resp.StatusCode() >= 400 {
			h.log.Warn("uri-list preflight rejected", zap.String("target", target), zap.Int("status", resp.StatusCode()))
		}
	}

	// External pages cannot take the probe. They render at the fallback
	// height until they post size reports of their own.
	h.denyProbe(res.URI, nil)
	return prepared{src: target, name: res.Name, height: types.FallbackHeight}, nil
}

func (h *Host) prepareRemoteDOM(instID id.InstanceID, res types.UIResource) (prepared, error) {
	if err := checkScript(res.Text); err != nil {
		return prepared{}, err
	}
	page := bootstrapDocument(res.Name, res.Text)
	doc, err := loadHTML([]byte(page))
	if err != nil {
		h.denyProbe(res.URI, err)
		return h.storeDoc(instID, res.Name, []byte(page), types.FallbackHeight, false), nil
	}
	return h.finishDoc(instID, res.Name, res.URI, doc, []byte(page)), nil
}

// finishDoc injects the probe, renders the tree, and registers the
// document. Injection failure downgrades the mount to the fallback
// height instead of failing it.
func (h *Host) finishDoc(instID id.InstanceID, name, uri string, doc *html.Node, raw []byte) prepared {
	probed := injectProbe(doc)
	body := raw
	if probed {
		var buf bytes.Buffer
		if err := html.Render(&buf, doc); err != nil {
			probed = false
			body = raw
		} else {
			body = buf.Bytes()
		}
	}

	height := types.PlaceholderHeight
	if !probed {
		h.denyProbe(uri, nil)
		height = types.FallbackHeight
	}
	return h.storeDoc(instID, name, body, height, probed)
}

func (h *Host) storeDoc(instID id.InstanceID, name string, body []byte, height float64, probed bool) prepared {
	handle := id.NewDocHandle()
	h.docs.put(Document{
		Handle:      handle,
		InstanceID:  instID,
		ContentType: "text/html; charset=utf-8",
		Body:        body,
	})
	return prepared{
		handle: handle,
		src:    h.cfg.DocPath + handle.String(),
		name:   name,
		height: height,
		probed: probed,
	}
}

func (h *Host) mountCommand(inst *RenderInstance, remount bool) Mount {
	return Mount{
		InstanceID: inst.ID,
		URI:        inst.ResourceURI,
		Name:       inst.Name,
		Kind:       inst.Kind,
		Src:        inst.Src,
		Sandbox:    SandboxTokens,
		Height:     inst.Height,
		Remount:    remount,
	}
}

// renderError reports a terminal render failure and returns the
// sanitized detail. The message is stripped to plain text before leaving
// the host.
func (h *Host) renderError(surface Surface, instID id.InstanceID, err error) string {
	h.log.Warn("render error",
		zap.String("instance_id", instID.String()),
		zap.Error(err))
	if h.metrics != nil {
		h.metrics.RecordRenderError()
	}
	detail := sanitizeDetail(err.Error())
	if surface != nil {
		surface.RenderError(instID, detail)
	}
	return detail
}

// denyProbe records a measurement denial. zap drops the error field when
// err is nil.
func (h *Host) denyProbe(uri string, err error) {
	h.log.Debug("measurement probe injection denied",
		zap.String("uri", uri),
		zap.Error(err))
	if h.metrics != nil {
		h.metrics.RecordProbeFallback()
	}
}

func (h *Host) teardown(instanceID id.InstanceID, notify, revoke bool) bool {
	h.mu.Lock()
	inst, ok := h.instances[instanceID]
	if ok {
		delete(h.instances, instanceID)
	}
	count := len(h.instances)
	h.mu.Unlock()
	if !ok {
		return false
	}

	if revoke {
		h.docs.revoke(inst.DocHandle)
	}
	if h.metrics != nil {
		h.metrics.SetInstancesActive(count)
	}
	if notify && inst.surface != nil {
		inst.surface.Unmounted(instanceID)
	}
	return true
}
