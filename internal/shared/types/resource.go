package types

import "strings"

// URIScheme is the reserved scheme identifying embedded UI resources.
const URIScheme = "ui://"

// MimeType is the wire-level content type of a UI resource.
// Remote-DOM types carry optional suffixes (script flavor, framework)
// which are preserved verbatim.
type MimeType string

const (
	MimeHTML            MimeType = "text/html"
	MimeURIList         MimeType = "text/uri-list"
	MimeRemoteDOMPrefix MimeType = "application/vnd.mcp-ui.remote-dom"
)

// MimeKind buckets a mime type into its rendering strategy.
type MimeKind string

const (
	KindHTML      MimeKind = "html"
	KindURIList   MimeKind = "uri-list"
	KindRemoteDOM MimeKind = "remote-dom"
	KindUnknown   MimeKind = ""
)

// Kind returns the rendering strategy for the mime type.
func (m MimeType) Kind() MimeKind {
	switch {
	case m == MimeHTML:
		return KindHTML
	case m == MimeURIList:
		return KindURIList
	case strings.HasPrefix(string(m), string(MimeRemoteDOMPrefix)):
		return KindRemoteDOM
	default:
		return KindUnknown
	}
}

// SupportedMime reports whether raw names a renderable content type.
func SupportedMime(raw string) bool {
	return MimeType(raw).Kind() != KindUnknown
}

// ValidURI reports whether uri carries the reserved UI scheme.
func ValidURI(uri string) bool {
	return strings.HasPrefix(uri, URIScheme) && len(uri) > len(URIScheme)
}

// UIResource is a renderable UI fragment emitted by a tool server.
// Identity is the URI; instances are immutable once detected.
type UIResource struct {
	URI      string   `json:"uri"`
	Name     string   `json:"name,omitempty"`
	MimeType MimeType `json:"mimeType"`
	Text     string   `json:"text"`
}

// Valid reports whether the resource satisfies the detection contract:
// reserved scheme, supported mime type, non-empty text.
func (r UIResource) Valid() bool {
	return ValidURI(r.URI) && r.MimeType.Kind() != KindUnknown && r.Text != ""
}

// ResourceMeta summarizes a stored resource without its text body.
type ResourceMeta struct {
	URI      string   `json:"uri"`
	Name     string   `json:"name,omitempty"`
	MimeType MimeType `json:"mimeType"`
	Size     int      `json:"size"`
}
