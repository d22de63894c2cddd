package prng

import (
	"unicode"
	"unicode/utf16"
)

// SeedFromString derives a 32-bit seed by summing character codes.
//
// Code points outside the Basic Multilingual Plane contribute their high
// surrogate, matching generators that iterate code points but read UTF-16
// code units. The sum wraps at 2^32. Invalid UTF-8 bytes count as U+FFFD.
func SeedFromString(s string) uint32 {
	var sum uint32
	for _, r := range s {
		if r1, _ := utf16.EncodeRune(r); r1 != unicode.ReplacementChar {
			sum += uint32(r1)
			continue
		}
		sum += uint32(r)
	}
	return sum
}
