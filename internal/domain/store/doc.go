/*
Package store keeps detected UI resources for the conversation lifetime.

# Overview

Resources are keyed by their ui:// URI. Adds are idempotent: the first
writer wins and later adds for the same URI are silent no-ops, so
overlapping detections of the same tool output are safe. Bodies are held
zstd-compressed past a small threshold; inline dashboards run to hundreds
of kilobytes and live as long as the conversation.

# Features

- First-writer-wins Add, transparent Get
- Notify-once subscriptions for late consumers
- Insertion-ordered metadata snapshots
- Clear for conversation reset

# Example Usage

	s := store.New(logger)
	cancel := s.Subscribe("ui://form/1", func(res types.UIResource) {
		host.Mount(ctx, res, clientID, surface)
	})
	defer cancel()
	s.Add(detected)
*/
package store
