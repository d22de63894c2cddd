// Package sink writes exported animation frames to their destination.
//
// # Overview
//
// A [Sink] receives frames in order and finalizes its output on Close. The
// exporter hands every sink a private copy of the frame, so sinks may keep
// or encode frames in the background without racing the renderer.
//
// Available sinks:
//
//   - [PNGSequence]: one numbered PNG per frame (frame_00000.png, ...),
//     encoded concurrently, the usual input for an external video encoder
//   - [APNG]: a single animated PNG
//   - [GIF]: a single animated GIF, quantized per frame to the Plan 9
//     palette with Floyd-Steinberg dithering
//
// Basic usage:
//
//	s, err := sink.Open(ctx, sink.FormatAPNG, "reveal.png")
//	if err != nil {
//	    return err
//	}
//	for i, img := range frames {
//	    if err := s.Write(ctx, sink.Frame{Index: i, Image: img, Delay: time.Second / 30}); err != nil {
//	        s.Close()
//	        return err
//	    }
//	}
//	return s.Close()
//
// # Frame Timing
//
// APNG and GIF store delays in hundredths of a second. [Centiseconds]
// spreads rounding across frames so the total length of a 30 fps clip stays
// exact instead of drifting by a third of a centisecond per frame.
package sink
