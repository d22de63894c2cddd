// Package project models a reveal project and its per-day counter history.
//
// # Overview
//
// A [Project] fixes everything that determines the reveal order and the look
// of a frame: the canvas resolution, the seed, the mask color, how many
// pixels one counter unit reveals and the narrator persona. Its [DayRecord]
// entries hold the counter value observed on each day.
//
// Projects are stored as TOML files:
//
//	id = "4b7e..."
//	name = "Road to 10k"
//	platform = "TikTok"
//	base_image = "photo.jpg"
//	mask_color = "#000000"
//	seed = "road-to-10k"
//	pixels_per_unit = 10.0
//	reveal_mode = "TOTAL"
//	persona = "Kore"
//	locale = "en-US"
//
//	[resolution]
//	width = 1080
//	height = 1920
//
//	[[days]]
//	id = "9c1d..."
//	day = 1
//	count = 120
//	timestamp = 2026-01-01T00:00:00Z
//
// # Reveal Modes
//
// The [RevealMode] decides how a day's count becomes the displayed counter.
// In [ModeTotal] the count already is the running total. In [ModeDelta] each
// count is that day's increment, and [DisplayValue] adds the counts of all
// earlier days.
package project
