// Package reveal implements the seeded pixel-reveal engine.
//
// # Overview
//
// A canvas of width*height pixels starts fully covered by an opaque mask. A
// seed string fixes a permutation of all pixel indices (the reveal order),
// and asking the engine for k revealed pixels makes exactly the first k
// entries of that permutation transparent:
//
//	e, err := reveal.New(1080, 1920, "my-seed")
//	if err != nil {
//	    return err
//	}
//	if err := e.Initialize(ctx); err != nil {
//	    return err
//	}
//	mask, err := e.GenerateMask(50000, "#000000")
//
// # Incremental Updates
//
// The engine remembers how many pixels are currently revealed. Moving the
// target forward clears alpha for the permutation slice between the old and
// new counts; moving it backward restores alpha for that slice. The cost of
// a call is proportional to the change in the count, not to the canvas size,
// which keeps per-frame work small when animating megapixel canvases.
//
// # Buffer Ownership
//
// [Engine.GenerateMask] returns the engine's live mask. The same *image.NRGBA
// is mutated by every later call. Callers that hand frames to another
// goroutine or keep them across calls must take [Engine.Snapshot] first.
//
// The mask stores straight alpha: revealed pixels keep the mask color in RGB
// and only their alpha drops to 0, so it composites correctly with
// draw.Over as an NRGBA source.
//
// # Concurrency
//
// An Engine has no internal locking. Calls on one instance must be
// serialized by the caller; separate instances share nothing.
package reveal
