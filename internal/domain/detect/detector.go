package detect

import (
	"encoding/json"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/infrastructure/logging"
	"github.com/easelhq/easel/internal/infrastructure/monitoring"
	"github.com/easelhq/easel/internal/shared/types"
)

// Detection strategies, in cascade order.
const (
	StrategyDirect  = "direct"
	StrategyWrapped = "wrapped"
	StrategyArray   = "array"
)

// Detector recognizes embedded UI resources inside tool output text.
// Detection is pure: no detector state changes across calls.
type Detector struct {
	log     *logging.Logger
	metrics *monitoring.Metrics
}

// New creates a detector.
func New(log *logging.Logger) *Detector {
	if log == nil {
		log = logging.NewNop()
	}
	return &Detector{log: log}
}

// WithMetrics attaches a metrics collector.
func (d *Detector) WithMetrics(m *monitoring.Metrics) *Detector {
	d.metrics = m
	return d
}

// Detect parses raw tool output and returns the first embedded UI resource.
// Returns false on any input that does not carry one; it never errors and
// never coerces mismatched shapes.
func (d *Detector) Detect(raw string) (types.UIResource, bool) {
	res, strategy, ok := d.detect(raw)
	if d.metrics != nil {
		d.metrics.RecordDetection(ok, strategy)
	}
	if ok {
		d.log.Debug("Detected UI resource",
			zap.String("uri", res.URI),
			zap.String("mime", string(res.MimeType)),
			zap.String("strategy", strategy),
		)
	}
	return res, ok
}

// DetectAll returns every embedded UI resource in the output, in order.
// Single-resource shapes yield a one-element slice.
func (d *Detector) DetectAll(raw string) []types.UIResource {
	items, ok := contentItems(raw)
	if !ok {
		if res, _, ok := d.detect(raw); ok {
			return []types.UIResource{res}
		}
		return nil
	}

	var out []types.UIResource
	for _, item := range items {
		if res, ok := detectItem(item); ok {
			out = append(out, res)
		}
	}
	return out
}

// detect runs the cascade and reports which strategy matched.
func (d *Detector) detect(raw string) (types.UIResource, string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return types.UIResource{}, "", false
	}

	// Strategy 1: direct resource envelope
	if res, ok := detectDirect([]byte(trimmed)); ok {
		return res, StrategyDirect, true
	}

	// Strategy 2: resource envelope wrapped in a text block
	if res, ok := detectWrapped([]byte(trimmed)); ok {
		return res, StrategyWrapped, true
	}

	// Strategy 3: content array, scanning items with strategies 1 and 2
	if items, ok := contentItems(trimmed); ok {
		for _, item := range items {
			if res, ok := detectItem(item); ok {
				return res, StrategyArray, true
			}
		}
	}

	return types.UIResource{}, "", false
}

// detectDirect applies strategy 1 to a single JSON value.
func detectDirect(data []byte) (types.UIResource, bool) {
	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return types.UIResource{}, false
	}
	if env.Type != "resource" {
		return types.UIResource{}, false
	}
	return env.Resource.toResource()
}

// detectWrapped applies strategy 2: a text block whose text is itself the
// JSON serialization of a direct envelope.
func detectWrapped(data []byte) (types.UIResource, bool) {
	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return types.UIResource{}, false
	}
	if env.Type != "text" || env.Text == "" {
		return types.UIResource{}, false
	}
	return detectDirect([]byte(env.Text))
}

// detectItem applies strategies 1 then 2 to one content array item.
func detectItem(item json.RawMessage) (types.UIResource, bool) {
	if res, ok := detectDirect(item); ok {
		return res, true
	}
	return detectWrapped(item)
}

// contentItems extracts a content array from either a bare JSON array or a
// call result object with a content key.
func contentItems(raw string) ([]json.RawMessage, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, false
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := sonic.Unmarshal([]byte(trimmed), &items); err != nil {
			return nil, false
		}
		return items, true
	case '{':
		var result callResult
		if err := sonic.Unmarshal([]byte(trimmed), &result); err != nil {
			return nil, false
		}
		if result.Content == nil {
			return nil, false
		}
		return result.Content, true
	default:
		return nil, false
	}
}
