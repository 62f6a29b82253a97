/*
Package sandbox mounts detected UI resources into isolated render instances.

# Overview

Every resource renders inside a sandboxed iframe. The host prepares one
document per mount and serves it under an opaque, revocable handle:

  - text/html bodies are parsed with charset detection, checked for
    renderable content, and get the measurement probe injected before
    the closing body tag.
  - text/uri-list bodies point the frame at the first http(s) URL; the
    remaining entries are advisory fallbacks and are ignored.
  - remote-dom scripts are syntax-checked without execution, then wrapped
    in a bootstrap page that exposes a root element and a postMessage
    shim, and probed like plain HTML.

Frames run under a fixed sandbox attribute that allows scripts, forms,
and same-origin execution but never top-level navigation or popups.
When the probe cannot be injected the mount downgrades to the fallback
height instead of failing. Malformed payloads surface an inline error
state and tear the instance down; there is no retry.

# Example Usage

	host := sandbox.New(logger, sandbox.DefaultConfig()).WithMetrics(metrics)
	inst, err := host.Mount(ctx, resource, clientID, surface)
	if err == nil {
		defer host.Unmount(inst.ID)
	}
*/
package sandbox
