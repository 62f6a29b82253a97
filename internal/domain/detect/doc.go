/*
Package detect recognizes embedded UI resources inside tool output text.

# Overview

Tool servers return UI fragments wrapped in heterogeneous JSON envelopes.
This package implements a three-strategy cascade that normalizes them into
canonical UIResource values:

 1. Direct: {"type":"resource","resource":{uri,name,mimeType,text}}
 2. Wrapped: {"type":"text","text":"<serialized direct envelope>"}
 3. Array: a content array (bare, or under a call result's content key)
    whose items are scanned with strategies 1 and 2

The first match wins. A resource must carry the ui:// scheme, a supported
mime type, and non-empty text; well-formed JSON that misses any of these is
rejected without coercion. Detection has no side effects and never fails
loudly: mismatched input reports false.

# Example Usage

	d := detect.New(logger)
	if res, ok := d.Detect(toolOutput); ok {
		store.Add(res)
	}
*/
package detect
