/*
Package height negotiates displayed frame heights for mounted instances.

# Overview

Sandboxed documents report their height through several channels at once:
the injected probe posts measurements, the client observes frame resizes,
and a periodic probe re-measures as a fallback. This package fans those
samples into one worker per instance and folds them deterministically:

  - Samples are clamped to [150, 8000] CSS pixels.
  - Within one frame interval (16ms) samples coalesce; at the frame edge
    the worker commits only when the candidate strictly exceeds the
    displayed height. Commits only ever grow the frame.
  - Mounting a new resource identity re-baselines the instance to the
    placeholder, so growth never carries across documents.

The max-fold is order independent, which makes the committed height stable
under sample races and queue overflow.

# Example Usage

	neg := height.New(logger, height.DefaultOptions())
	neg.Track(instID, types.PlaceholderHeight, func(h float64) {
		surface.HeightCommitted(instID, h)
	})
	neg.Observe(instID, types.HeightSample{Source: types.SourceProbe, Value: 420})
	defer neg.Release(instID)
*/
package height
