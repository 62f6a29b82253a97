package uitools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easelhq/easel/internal/infrastructure/logging"
)

func TestBuiltinsAlwaysPresent(t *testing.T) {
	ts, err := LoadTemplates(logging.NewNop(), "")
	require.NoError(t, err)

	page, err := ts.Page("dashboard", dashboardData{
		Title:   "Built-in",
		Updated: "now",
		Cards:   []dashboardCard{{Label: "Status", Value: "ok"}},
	})
	require.NoError(t, err)
	assert.Contains(t, page, "<title>Built-in</title>")
	assert.Contains(t, page, "Status")

	script, ok := ts.Script("counter")
	require.True(t, ok)
	assert.Contains(t, script, "remoteDom.postAction")
}

func TestMissingDirectoryFallsBack(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist")
	ts, err := LoadTemplates(logging.NewNop(), dir)
	require.NoError(t, err)

	_, err = ts.Page("form", formData{Title: "x", Tool: "submit_form", Submit: "Go"})
	assert.NoError(t, err)
}

func TestDirectoryOverridesBuiltin(t *testing.T) {
	dir := t.TempDir()
	custom := "<!DOCTYPE html>\n<html><body><h1>{{.Title}}</h1></body></html>\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dashboard.html"), []byte(custom), 0o644))

	ts, err := LoadTemplates(logging.NewNop(), dir)
	require.NoError(t, err)

	page, err := ts.Page("dashboard", dashboardData{Title: "Override"})
	require.NoError(t, err)
	assert.Contains(t, page, "<h1>Override</h1>")
	assert.NotContains(t, page, "cards", "built-in markup should be replaced")
}

func TestNestedTemplatesDiscovered(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pages", "extra")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	custom := "<!DOCTYPE html>\n<html><body>{{.Title}}</body></html>\n"
	require.NoError(t, os.WriteFile(filepath.Join(sub, "welcome.html"), []byte(custom), 0o644))

	ts, err := LoadTemplates(logging.NewNop(), dir)
	require.NoError(t, err)

	page, err := ts.Page("welcome", struct{ Title string }{"hi"})
	require.NoError(t, err)
	assert.Contains(t, page, "hi")
}

func TestBinaryFileSkipped(t *testing.T) {
	dir := t.TempDir()
	png := append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, make([]byte, 64)...)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dashboard.html"), png, 0o644))

	ts, err := LoadTemplates(logging.NewNop(), dir)
	require.NoError(t, err)

	// Built-in survives because the impostor never loaded.
	page, err := ts.Page("dashboard", dashboardData{Title: "Safe", Cards: nil})
	require.NoError(t, err)
	assert.Contains(t, page, "cards")
}

func TestMalformedTemplateFailsLoad(t *testing.T) {
	dir := t.TempDir()
	bad := "<!DOCTYPE html>\n<html>{{range .Cards}</html>\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dashboard.html"), []byte(bad), 0o644))

	_, err := LoadTemplates(logging.NewNop(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard")
}

func TestUnknownPage(t *testing.T) {
	ts, err := LoadTemplates(logging.NewNop(), "")
	require.NoError(t, err)

	_, err = ts.Page("nope", nil)
	assert.ErrorContains(t, err, "unknown page template")
}

func TestScriptOverride(t *testing.T) {
	dir := t.TempDir()
	js := "var custom = true;\nremoteDom.append(remoteDom.createElement(\"div\"));\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "counter.js"), []byte(js), 0o644))

	ts, err := LoadTemplates(logging.NewNop(), dir)
	require.NoError(t, err)

	script, ok := ts.Script("counter")
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(script, "var custom"))
}
