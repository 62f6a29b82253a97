/*
Package ws serves the bidirectional client stream.

# Overview

Each connected frontend gets one Session with a reader goroutine and a
writer goroutine. Inbound messages carry tool output for detection, mount
and unmount requests, relayed frame messages, and resize observations.
Outbound commands announce detected resources, mounts, committed heights,
render errors, and failed actions.

The session doubles as the sandbox Surface and the dispatcher Notifier
for every instance it owns. Tool calls can round-trip through the client
itself: the bridge pushes execute_tool, the client answers tool_result,
and the ClientExecutor matches them by request ID. Disconnect tears down
the client's instances and their height workers.
*/
package ws
