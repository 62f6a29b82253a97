package action

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/easelhq/easel/internal/shared/types"
)

// Class buckets a frame message into its dispatch path.
type Class int

const (
	// ClassHeight is a height report for the negotiator.
	ClassHeight Class = iota
	// ClassAction is a user action for the dispatch queue.
	ClassAction
)

// Classification is the interpretation of one frame message. Sample is
// set for ClassHeight, Action for ClassAction.
type Classification struct {
	Class  Class
	Sample types.HeightSample
	Action types.UIAction
}

// Classify interprets a raw message posted by a sandboxed document. Three
// shapes are accepted: height reports under any of the supported aliases,
// wrapped actions ({type:"mcp-ui-action", action:{...}}), and the legacy
// flat form where the action kind is the message type itself. Anything
// else is rejected for the caller to drop.
func Classify(data []byte) (Classification, error) {
	var env types.FrameEnvelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return Classification{}, fmt.Errorf("frame message is not an object: %w", types.ErrUnknownAction)
	}
	return ClassifyEnvelope(env)
}

// ClassifyEnvelope classifies an already-decoded frame envelope.
func ClassifyEnvelope(env types.FrameEnvelope) (Classification, error) {
	switch {
	case types.HeightAlias(env.Type):
		value, ok := numberField(env.Payload, "height")
		if !ok {
			// Well-formed mismatches are rejected, never coerced.
			return Classification{}, fmt.Errorf("height report %q without a numeric height: %w", env.Type, types.ErrUnknownAction)
		}
		return Classification{
			Class: ClassHeight,
			Sample: types.HeightSample{
				Source: sampleSource(env.Payload),
				Value:  value,
				At:     time.Now(),
			},
		}, nil

	case env.Type == types.FrameTypeAction:
		if env.Action == nil {
			return Classification{}, fmt.Errorf("action envelope without an action body: %w", types.ErrUnknownAction)
		}
		if !types.KnownKind(env.Action.Kind) {
			return Classification{}, fmt.Errorf("action kind %q: %w", env.Action.Kind, types.ErrUnknownAction)
		}
		return Classification{Class: ClassAction, Action: *env.Action}, nil

	default:
		kind := types.ActionKind(env.Type)
		if !types.KnownKind(kind) {
			return Classification{}, fmt.Errorf("frame message type %q: %w", env.Type, types.ErrUnknownAction)
		}
		return Classification{
			Class: ClassAction,
			Action: types.UIAction{
				Kind:      kind,
				Payload:   env.Payload,
				MessageID: env.MessageID,
			},
		}, nil
	}
}

// sampleSource maps the probe's self-reported trigger to a sample source.
// The injected probe tags its slow periodic tick as "interval"; everything
// else posted by a frame is a probe measurement.
func sampleSource(payload map[string]interface{}) types.SampleSource {
	if s, ok := payload["source"].(string); ok && s == "interval" {
		return types.SourcePeriodic
	}
	return types.SourceProbe
}

func numberField(payload map[string]interface{}, key string) (float64, bool) {
	if payload == nil {
		return 0, false
	}
	v, ok := payload[key].(float64)
	return v, ok
}
