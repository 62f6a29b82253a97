package uitools

// Built-in templates keep the demo server usable with no template
// directory at all. A directory entry with the same base name wins.

var builtinPages = map[string]string{
	"dashboard": dashboardPage,
	"form":      formPage,
	"chart":     chartPage,
	"receipt":   receiptPage,
}

var builtinScripts = map[string]string{
	"counter": counterScript,
}

const dashboardPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 24px; color: #1a1a2e; }
h1 { font-size: 20px; margin: 0 0 4px; }
.updated { color: #666; font-size: 12px; margin: 0 0 16px; }
.cards { display: flex; flex-wrap: wrap; gap: 12px; }
.card { background: #f4f4f8; border-radius: 8px; padding: 14px 18px; min-width: 120px; }
.card .label { display: block; font-size: 12px; color: #666; text-transform: uppercase; }
.card .value { display: block; font-size: 22px; font-weight: 600; margin-top: 4px; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p class="updated">Updated {{.Updated}}</p>
<div class="cards">
{{range .Cards}}<div class="card"><span class="label">{{.Label}}</span><span class="value">{{.Value}}</span></div>
{{end}}</div>
</body>
</html>
`

const formPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 24px; color: #1a1a2e; }
h1 { font-size: 20px; margin: 0 0 16px; }
label { display: block; margin-bottom: 12px; font-size: 13px; color: #444; }
input { display: block; width: 100%; max-width: 360px; margin-top: 4px; padding: 8px 10px;
        border: 1px solid #ccc; border-radius: 6px; font-size: 14px; }
button { margin-top: 8px; padding: 9px 22px; border: 0; border-radius: 6px;
         background: #4361ee; color: #fff; font-size: 14px; cursor: pointer; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<form id="easel-form">
{{range .Fields}}<label>{{.Label}}<input name="{{.Name}}" placeholder="{{.Placeholder}}"></label>
{{end}}<button type="submit">{{.Submit}}</button>
</form>
<script>
document.getElementById("easel-form").addEventListener("submit", function (ev) {
  ev.preventDefault();
  var params = {};
  new FormData(ev.target).forEach(function (value, key) { params[key] = value; });
  window.parent.postMessage({
    type: "mcp-ui-action",
    action: {
      kind: "tool",
      payload: { toolName: "{{.Tool}}", params: params },
      messageId: "form-" + Date.now()
    }
  }, "*");
});
</script>
</body>
</html>
`

const chartPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 24px; color: #1a1a2e; }
h1 { font-size: 20px; margin: 0 0 16px; }
svg { background: #f4f4f8; border-radius: 8px; }
rect { fill: #4361ee; }
text { font-size: 10px; fill: #444; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<svg viewBox="0 0 {{.Width}} {{.Height}}" width="{{.Width}}" height="{{.Height}}">
{{range .Bars}}<rect x="{{.X}}" y="{{.Y}}" width="{{.W}}" height="{{.H}}"><title>{{.Label}}: {{.Value}}</title></rect>
<text x="{{.LabelX}}" y="{{.LabelY}}" text-anchor="middle">{{.Label}}</text>
{{end}}</svg>
</body>
</html>
`

const receiptPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 24px; color: #1a1a2e; }
h1 { font-size: 20px; margin: 0 0 16px; }
table { border-collapse: collapse; }
td { padding: 6px 14px 6px 0; font-size: 14px; }
td.key { color: #666; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<table>
{{range .Rows}}<tr><td class="key">{{.Key}}</td><td>{{.Value}}</td></tr>
{{end}}</table>
</body>
</html>
`

const counterScript = `var count = (typeof initialCount === "number") ? initialCount : 0;

var heading = remoteDom.createElement("h2");
heading.textContent = "Count: " + count;

var button = remoteDom.createElement("button");
button.textContent = "Increment";
button.addEventListener("click", function () {
  count += 1;
  heading.textContent = "Count: " + count;
  remoteDom.postAction("notify", { message: "count is now " + count }, "counter-" + count);
});

remoteDom.append(heading);
remoteDom.append(button);
`
