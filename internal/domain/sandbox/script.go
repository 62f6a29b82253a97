package sandbox

import (
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/microcosm-cc/bluemonday"

	"github.com/easelhq/easel/internal/shared/types"
)

// checkScript compiles the remote-dom script without running it. Scripts
// that do not parse would render a dead frame, so they are rejected up
// front as malformed.
func checkScript(src string) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("empty remote-dom script: %w", types.ErrMalformedPayload)
	}
	if _, err := goja.Compile("remote-dom", src, false); err != nil {
		return fmt.Errorf("remote-dom script does not parse: %w", types.ErrMalformedPayload)
	}
	return nil
}

// bootstrapDocument wraps a remote-dom script in the host page it executes
// in. The script receives a root element and a minimal remote-dom shim;
// the measurement probe is injected afterwards like any other document.
func bootstrapDocument(name, script string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	if name != "" {
		b.WriteString("<title>")
		b.WriteString(escapeText(name))
		b.WriteString("</title>\n")
	}
	b.WriteString(`<style>body { margin: 0; font-family: system-ui, sans-serif; }</style>
</head>
<body>
<div id="root"></div>
<script>
(function () {
  var root = document.getElementById("root");
  window.remoteDom = {
    root: root,
    createElement: function (tag) { return document.createElement(tag); },
    append: function (el) { root.appendChild(el); },
    postAction: function (kind, payload, messageId) {
      window.parent.postMessage({
        type: "` + types.FrameTypeAction + `",
        action: { kind: kind, payload: payload || {}, messageId: messageId }
      }, "*");
    }
  };
})();
</script>
<script>
`)
	b.WriteString(script)
	b.WriteString("\n</script>\n</body>\n</html>\n")
	return b.String()
}

// sanitizeDetail strips all markup from text destined for inline error
// states. Resource names and parser messages may echo attacker-controlled
// content, so only plain text survives.
func sanitizeDetail(detail string) string {
	return strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(detail))
}

// errorDocument renders the inline error state served in place of a
// document that failed preparation. detail must already be sanitized.
func errorDocument(detail string) []byte {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Render error</title>
<style>
body { margin: 0; padding: 12px; font-family: system-ui, sans-serif; }
.easel-error { border: 1px solid #d33; border-radius: 4px; padding: 12px; color: #922; background: #fdf3f3; }
.easel-error p { margin: 4px 0 0; font-size: 13px; }
</style>
</head>
<body>
<div class="easel-error">
<strong>This content could not be rendered.</strong>
<p>`)
	b.WriteString(escapeText(detail))
	b.WriteString(`</p>
</div>
</body>
</html>
`)
	return []byte(b.String())
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
