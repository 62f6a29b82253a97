package sandbox

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/easelhq/easel/internal/shared/types"
)

// probeScript is the measurement probe injected into served documents.
// It reports content height to the parent frame on load, after staggered
// delays, on DOM mutation, on body resize, and on a slow periodic tick.
// Shrinking or repeated heights are deduplicated at the source; the
// negotiator enforces monotone growth regardless.
const probeScript = `(function () {
  if (window.__easelProbe) { return; }
  window.__easelProbe = true;
  var last = 0;
  function measure() {
    var d = document.documentElement;
    var b = document.body;
    var h = Math.max(
      d ? d.getBoundingClientRect().height : 0,
      d ? d.scrollHeight : 0,
      d ? d.offsetHeight : 0,
      b ? b.scrollHeight : 0,
      b ? b.offsetHeight : 0
    );
    return Math.ceil(h);
  }
  function report(source) {
    var h = measure();
    if (h > 0 && h !== last) {
      last = h;
      window.parent.postMessage({ type: "` + types.FrameTypeSizeChange + `", payload: { height: h, source: source } }, "*");
    }
  }
  window.addEventListener("load", function () { report("load"); });
  [50, 250, 1000].forEach(function (ms) {
    setTimeout(function () { report("delay"); }, ms);
  });
  if (typeof MutationObserver !== "undefined") {
    new MutationObserver(function () { report("mutation"); }).observe(
      document.documentElement, { childList: true, subtree: true, attributes: true }
    );
  }
  if (typeof ResizeObserver !== "undefined" && document.body) {
    new ResizeObserver(function () { report("resize"); }).observe(document.body);
  }
  setInterval(function () { report("interval"); }, 2000);
  report("init");
})();`

// loadHTML parses document bytes with charset detection so mis-labelled
// or legacy encodings still produce a usable tree.
func loadHTML(data []byte) (*html.Node, error) {
	label := "utf-8"
	if best, err := chardet.NewTextDetector().DetectBest(data); err == nil && best.Charset != "" {
		label = best.Charset
	}
	reader, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		return html.Parse(bytes.NewReader(data))
	}
	return html.Parse(reader)
}

// injectProbe appends the measurement script to the document body. The
// parser synthesizes html/body elements for fragments, so a body is
// present in any tree it produced.
func injectProbe(doc *html.Node) bool {
	body := findElement(doc, atom.Body)
	if body == nil {
		return false
	}
	script := &html.Node{
		Type:     html.ElementNode,
		Data:     "script",
		DataAtom: atom.Script,
	}
	script.AppendChild(&html.Node{Type: html.TextNode, Data: probeScript})
	body.AppendChild(script)
	return true
}

// emptyBody reports whether the document body has no element children and
// no non-whitespace text. Such documents have nothing to render and are
// treated as malformed rather than mounted blank.
func emptyBody(doc *html.Node) bool {
	body := findElement(doc, atom.Body)
	if body == nil {
		return true
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			return false
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return false
			}
		}
	}
	return true
}

// documentTitle extracts the <title> text for resources mounted without a
// name of their own.
func documentTitle(doc *html.Node) string {
	q := goquery.NewDocumentFromNode(doc)
	return strings.TrimSpace(q.Find("title").First().Text())
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
