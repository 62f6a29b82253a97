// Package uitools is a demo MCP server whose tools answer with
// embedded UI resources, giving the bridge something real to render.
//
// Tools:
//   - show_dashboard: HTML metric cards
//   - show_form: HTML form posting back through the tool channel
//   - show_chart: HTML bar chart from labeled points
//   - open_docs: text/uri-list link for the host browser
//   - remote_counter: script-driven counter component
//   - submit_form: receipt page echoing submitted fields
//
// Every tool result carries a text summary plus an embedded resource
// with a fresh ui:// URI, so repeated calls remount rather than reuse.
//
// Templates are built in; a directory of *.html and *.js files can
// override them by base name.
//
// Usage:
//
//	templates, err := uitools.LoadTemplates(logger, "./templates")
//	if err != nil {
//		return err
//	}
//	srv := uitools.NewServer(logger, templates)
//	return srv.Start(ctx)           // stdio
//	return srv.StartSSE(ctx, 8091)  // or SSE
package uitools
