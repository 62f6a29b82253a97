package uitools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/easelhq/easel/internal/shared/types"
)

// Raw JSON schemas for the demo tools. Kept as literals so the wire
// shape is visible at the registration site.
const (
	dashboardSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Dashboard heading"},
    "metrics": {
      "type": "object",
      "description": "Label to value pairs rendered as cards",
      "additionalProperties": {"type": ["string", "number"]}
    }
  }
}`

	formSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Form heading"},
    "tool": {"type": "string", "description": "Tool invoked on submit"},
    "fields": {
      "type": "array",
      "description": "Input fields, each a name or a {name, label, placeholder} object",
      "items": {
        "oneOf": [
          {"type": "string"},
          {
            "type": "object",
            "properties": {
              "name": {"type": "string"},
              "label": {"type": "string"},
              "placeholder": {"type": "string"}
            },
            "required": ["name"]
          }
        ]
      }
    }
  }
}`

	chartSchema = `{
  "type": "object",
  "properties": {
    "title": {"type": "string", "description": "Chart heading"},
    "points": {
      "type": "object",
      "description": "Label to numeric value pairs rendered as bars",
      "additionalProperties": {"type": "number"}
    }
  }
}`

	openDocsSchema = `{
  "type": "object",
  "properties": {
    "url": {"type": "string", "description": "Page to open in the host browser"},
    "title": {"type": "string", "description": "Link title"}
  },
  "required": ["url"]
}`

	counterSchema = `{
  "type": "object",
  "properties": {
    "start": {"type": "integer", "description": "Initial counter value"}
  }
}`

	submitFormSchema = `{
  "type": "object",
  "description": "Accepts arbitrary form fields and renders a receipt",
  "additionalProperties": true
}`
)

type dashboardCard struct {
	Label string
	Value string
}

type dashboardData struct {
	Title   string
	Updated string
	Cards   []dashboardCard
}

type formField struct {
	Name        string
	Label       string
	Placeholder string
}

type formData struct {
	Title  string
	Tool   string
	Submit string
	Fields []formField
}

type chartBar struct {
	X, Y, W, H     int
	LabelX, LabelY int
	Label          string
	Value          float64
}

type chartData struct {
	Title  string
	Width  int
	Height int
	Bars   []chartBar
}

type receiptRow struct {
	Key   string
	Value string
}

type receiptData struct {
	Title string
	Rows  []receiptRow
}

func (s *Server) handleDashboard(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	title := stringArg(args, "title", "Service Dashboard")

	cards := make([]dashboardCard, 0)
	for label, value := range mapArg(args, "metrics") {
		cards = append(cards, dashboardCard{Label: label, Value: fmt.Sprintf("%v", value)})
	}
	sort.Slice(cards, func(i, j int) bool { return cards[i].Label < cards[j].Label })
	if len(cards) == 0 {
		cards = []dashboardCard{
			{Label: "Status", Value: "online"},
			{Label: "Version", Value: serverVersion},
		}
	}

	page, err := s.templates.Page("dashboard", dashboardData{
		Title:   title,
		Updated: time.Now().Format(time.RFC1123),
		Cards:   cards,
	})
	if err != nil {
		return errorResult("rendering dashboard: %v", err), nil
	}

	uri := "ui://dashboard/" + uuid.NewString()
	s.log.Debug("dashboard rendered", zap.String("uri", uri), zap.Int("cards", len(cards)))
	return s.resourceResult("Dashboard ready: "+title, uri, types.MimeHTML, page), nil
}

func (s *Server) handleForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	title := stringArg(args, "title", "Feedback")
	target := stringArg(args, "tool", "submit_form")

	fields := make([]formField, 0)
	for _, raw := range sliceArg(args, "fields") {
		switch v := raw.(type) {
		case string:
			fields = append(fields, formField{Name: v, Label: titleCase(v)})
		case map[string]interface{}:
			name := stringArg(v, "name", "")
			if name == "" {
				continue
			}
			fields = append(fields, formField{
				Name:        name,
				Label:       stringArg(v, "label", titleCase(name)),
				Placeholder: stringArg(v, "placeholder", ""),
			})
		}
	}
	if len(fields) == 0 {
		fields = []formField{
			{Name: "name", Label: "Name", Placeholder: "Ada Lovelace"},
			{Name: "message", Label: "Message", Placeholder: "What should we know?"},
		}
	}

	page, err := s.templates.Page("form", formData{
		Title:  title,
		Tool:   target,
		Submit: "Send",
		Fields: fields,
	})
	if err != nil {
		return errorResult("rendering form: %v", err), nil
	}

	uri := "ui://form/" + uuid.NewString()
	s.log.Debug("form rendered", zap.String("uri", uri), zap.String("target_tool", target))
	return s.resourceResult("Form ready: "+title, uri, types.MimeHTML, page), nil
}

func (s *Server) handleChart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	title := stringArg(args, "title", "Series")

	points := mapArg(args, "points")
	labels := make([]string, 0, len(points))
	for label := range points {
		if _, ok := asNumber(points[label]); ok {
			labels = append(labels, label)
		}
	}
	sort.Strings(labels)
	if len(labels) == 0 {
		return errorResult("show_chart requires a points object with numeric values"), nil
	}

	const (
		width   = 420
		height  = 220
		margin  = 20
		footer  = 30
		gap     = 10
		maxBarW = 60
	)
	plotW := width - 2*margin
	plotH := height - margin - footer

	maxVal := 0.0
	for _, label := range labels {
		if v, _ := asNumber(points[label]); v > maxVal {
			maxVal = v
		}
	}
	if maxVal <= 0 {
		maxVal = 1
	}

	barW := (plotW - gap*(len(labels)-1)) / len(labels)
	if barW > maxBarW {
		barW = maxBarW
	}
	if barW < 4 {
		barW = 4
	}

	bars := make([]chartBar, 0, len(labels))
	for i, label := range labels {
		v, _ := asNumber(points[label])
		h := int(float64(plotH) * (v / maxVal))
		if h < 0 {
			h = 0
		}
		x := margin + i*(barW+gap)
		bars = append(bars, chartBar{
			X: x, Y: margin + plotH - h, W: barW, H: h,
			LabelX: x + barW/2, LabelY: height - 10,
			Label: label, Value: v,
		})
	}

	page, err := s.templates.Page("chart", chartData{Title: title, Width: width, Height: height, Bars: bars})
	if err != nil {
		return errorResult("rendering chart: %v", err), nil
	}

	uri := "ui://chart/" + uuid.NewString()
	s.log.Debug("chart rendered", zap.String("uri", uri), zap.Int("bars", len(bars)))
	return s.resourceResult("Chart ready: "+title, uri, types.MimeHTML, page), nil
}

func (s *Server) handleOpenDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	url := stringArg(args, "url", "")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return errorResult("open_docs requires an http(s) url, got %q", url), nil
	}
	title := stringArg(args, "title", "Documentation")

	// text/uri-list per RFC 2483: comment line, then one URI per line, CRLF terminated.
	body := "# " + title + "\r\n" + url + "\r\n"

	uri := "ui://docs/" + uuid.NewString()
	s.log.Debug("doc link rendered", zap.String("uri", uri), zap.String("target", url))
	return s.resourceResult("Link ready: "+title, uri, types.MimeURIList, body), nil
}

func (s *Server) handleCounter(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	start := 0
	if v, ok := asNumber(args["start"]); ok {
		start = int(v)
	}

	script, ok := s.templates.Script("counter")
	if !ok {
		return errorResult("counter script template missing"), nil
	}
	src := fmt.Sprintf("var initialCount = %d;\n%s", start, script)

	uri := "ui://counter/" + uuid.NewString()
	s.log.Debug("counter rendered", zap.String("uri", uri), zap.Int("start", start))
	return s.resourceResult("Counter ready", uri, types.MimeRemoteDOMPrefix+"+javascript; framework=react", src), nil
}

func (s *Server) handleSubmitForm(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()

	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]receiptRow, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, receiptRow{Key: titleCase(k), Value: fmt.Sprintf("%v", args[k])})
	}
	if len(rows) == 0 {
		rows = []receiptRow{{Key: "Fields", Value: "none submitted"}}
	}

	page, err := s.templates.Page("receipt", receiptData{Title: "Submission received", Rows: rows})
	if err != nil {
		return errorResult("rendering receipt: %v", err), nil
	}

	uri := "ui://form/receipt/" + uuid.NewString()
	s.log.Info("form submission received", zap.Int("fields", len(rows)), zap.String("uri", uri))
	return s.resourceResult(fmt.Sprintf("Received %d field(s)", len(keys)), uri, types.MimeHTML, page), nil
}

func (s *Server) resourceResult(summary, uri string, mimeType types.MimeType, text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(summary),
			mcp.NewEmbeddedResource(mcp.TextResourceContents{
				URI:      uri,
				MIMEType: string(mimeType),
				Text:     text,
			}),
		},
	}
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(fmt.Sprintf(format, args...))},
		IsError: true,
	}
}

func stringArg(args map[string]interface{}, key, fallback string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func mapArg(args map[string]interface{}, key string) map[string]interface{} {
	if v, ok := args[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func sliceArg(args map[string]interface{}, key string) []interface{} {
	if v, ok := args[key].([]interface{}); ok {
		return v
	}
	return nil
}

// asNumber accepts the numeric shapes JSON decoding produces.
func asNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	s = strings.ReplaceAll(s, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}
