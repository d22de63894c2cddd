// Package compositor turns a base image, a reveal engine and a counter value
// into finished video frames.
//
// # Overview
//
// A [Compositor] owns one [reveal.Engine] and one base image. For every
// frame it:
//
//  1. fills the canvas with the mask color and draws the base image with
//     cover scaling, multiplied by the frame's zoom and centered
//  2. runs the configured filter chain over the image pixels
//  3. asks the engine for floor(counter * pixelsPerUnit) revealed pixels and
//     draws the mask over the image, so opaque mask pixels hide it and
//     transparent ones expose it
//  4. draws the text overlays and, while an animation is running, the
//     scan line and marker accents
//
// The compositor only talks to the engine through GenerateMask and
// ResetMask; the revealed count it reports comes from the engine's return.
//
// # Text Layout
//
// Overlay positions are defined for a 1080-pixel-wide canvas and scaled by
// width/1080: the day label at y=200, the counter line at y=270 and the
// percentage at height-220, all horizontally centered.
//
// # Concurrency
//
// A Compositor is not safe for concurrent use. It reuses one output buffer
// and its font faces keep internal state.
package compositor
