/*
Package action classifies and dispatches messages from sandboxed frames.

# Overview

Sandboxed documents talk to the bridge with postMessage envelopes relayed
over the client stream. Classification sorts them into height reports
(three accepted aliases) and user actions (the wrapped mcp-ui-action shape
or the legacy flat shape). The action kind set is closed: tool, prompt,
notify, link, intent. Unknown types are rejected and dropped with a
warning, as is any message whose instance is not tracked for the sending
client.

Dispatch is strictly FIFO per instance. A tool action awaits the executor,
re-detects the output, and remounts any embedded resource into the same
instance, re-baselining its height. The other kinds are fire-and-forget
deliveries to the conversation surface. Executor failures become
failed-action notifications, never unhandled errors.

# Example Usage

	disp := action.New(logger, action.Deps{
		Detector: detector, Store: resources, Host: host,
		Heights: negotiator, Executor: executor, Sink: sink,
	}).WithMetrics(metrics)
	disp.Dispatch(ctx, clientID, instanceID, raw, session)
*/
package action
