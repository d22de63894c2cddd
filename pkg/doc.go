// Package pkg provides the core libraries for llumina pixel reveals.
//
// # Overview
//
// Llumina turns a growing counter (followers, sales, signatures) into a
// progressive reveal of a photo: an opaque mask covers the image and clears a
// fixed number of pixels per counted unit, in a pseudo-random order fixed by the
// project seed. The same seed always reveals the same pixels in the same
// order, so a reveal can be picked up day after day. The pkg directory is
// organized into three areas:
//
//  1. Engine - seeded order and mask ([prng], [reveal])
//  2. Look - filters, personas and frame composition ([filter], [persona],
//     [compositor], [fonts])
//  3. Orchestration - projects, rendering, delivery ([project], [pipeline],
//     [sink], [session], [server], [cache])
//
// # Architecture
//
// The typical data flow:
//
//	Project file (TOML) + base photo
//	         ↓
//	    [project] package (days, display value, validation)
//	         ↓
//	    [reveal] package (permutation + incremental mask)
//	         ↓
//	    [compositor] package (photo + mask + tone/glitch + overlay)
//	         ↓
//	    PNG still, or [sink] (PNG sequence, APNG, GIF)
//
// # Quick Start
//
// Reveal the first 5,000 pixels of a 1080×1920 canvas:
//
//	import (
//	    "context"
//	    "github.com/matzehuels/llumina/pkg/reveal"
//	)
//
//	e, _ := reveal.New(1080, 1920, "my-seed")
//	if err := e.Initialize(context.Background()); err != nil {
//	    return err
//	}
//	mask, _ := e.GenerateMask(5000, "#000000")
//	// draw mask over the photo with draw.Over
//
// Render a full frame from a project file:
//
//	p, _ := project.Load("llumina.toml")
//	scene, _ := pipeline.LoadScene(p)
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, logger)
//	comp, _ := runner.NewCompositor(ctx, scene, pipeline.Options{})
//	defer comp.Close()
//	frame, _ := runner.RenderFrame(ctx, comp, scene, pipeline.Options{Day: 3, Counter: 420})
//
// # Main Packages
//
// [prng] - Mulberry32 generator and the seed-string hash that feeds it.
//
// [reveal] - Fisher-Yates permutation of pixel indices and the mask engine.
// Moving the target count only touches the pixels between the old and the
// new count.
//
// [filter] - Tone (none, warm, cool, mono) and glitch filters on RGBA frames.
//
// [persona] - The closed set of looks (Kore, Puck, Charon, Fenrir, Zephyr)
// and the filters each one selects.
//
// [compositor] - Cover-scales the photo, applies zoom and filters, draws the
// mask and the day/counter/percentage overlay plus animation accents.
//
// [project] - TOML project files and the per-day count history, including
// TOTAL and DELTA reveal modes.
//
// [pipeline] - Option defaults, cache keys and the export timeline shared by
// the CLI and the server.
//
// [sink] - Frame consumers for exports.
//
// [session] - Editing sessions over one compositor, with memory and file
// stores.
//
// [server] - HTTP preview API.
//
// [cache] - File, Redis and null caches for encoded frames.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...           # All tests
//	go test ./pkg/reveal/...    # Specific package
//	go test -run Example        # Examples only
//
// [prng]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/prng
// [reveal]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/reveal
// [filter]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/filter
// [persona]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/persona
// [compositor]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/compositor
// [fonts]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/fonts
// [project]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/project
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/pipeline
// [sink]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/sink
// [session]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/session
// [server]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/llumina/pkg/cache
package pkg
