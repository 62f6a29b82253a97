package detect

import (
	"encoding/json"

	"github.com/easelhq/easel/internal/shared/types"
)

// envelope mirrors the wire shape of a tool output content block.
type envelope struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Resource *resourceBlock `json:"resource,omitempty"`
}

// resourceBlock mirrors the embedded resource payload.
type resourceBlock struct {
	URI      string `json:"uri"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

// callResult mirrors a tool call result envelope carrying a content array.
type callResult struct {
	Content []json.RawMessage `json:"content"`
}

// toResource builds the canonical resource, copying wire fields verbatim.
// Returns false when the block violates the resource contract.
func (rb *resourceBlock) toResource() (types.UIResource, bool) {
	if rb == nil {
		return types.UIResource{}, false
	}
	res := types.UIResource{
		URI:      rb.URI,
		Name:     rb.Name,
		MimeType: types.MimeType(rb.MimeType),
		Text:     rb.Text,
	}
	if !res.Valid() {
		return types.UIResource{}, false
	}
	return res, true
}
