// Package codepoint provides the half-open code-point ranges the generator
// uses as its alphabet, and the partitioning that turns the boundary points
// mentioned in a rule set into disjoint ranges.
package codepoint

import (
	"errors"
	"fmt"
	"slices"
)

const (
	// Max is the largest valid Unicode code point.
	Max rune = 0x10FFFF
	// Sentinel is the exclusive upper bound of the code-point space. It is
	// never a valid input; it only terminates the last range of a partition.
	Sentinel rune = 0x110000
)

var ErrNotBoundary = errors.New("range endpoint is not a partition boundary")

// Range is a half-open interval [Lo, Hi) of code points.
type Range struct {
	Lo, Hi rune
}

// New returns the range [lo, hi).
func New(lo, hi rune) Range {
	return Range{Lo: lo, Hi: hi}
}

// Single returns the range covering exactly c.
func Single(c rune) Range {
	return Range{Lo: c, Hi: c + 1}
}

func (r Range) Contains(c rune) bool {
	return r.Lo <= c && c < r.Hi
}

func (r Range) Width() int {
	return int(r.Hi - r.Lo)
}

// Valid reports whether the range is non-empty and within the code-point
// space.
func (r Range) Valid() bool {
	return 0 <= r.Lo && r.Lo < r.Hi && r.Hi <= Sentinel
}

func (r Range) String() string {
	if r.Width() == 1 {
		return fmt.Sprintf("U+%04X", r.Lo)
	}
	return fmt.Sprintf("U+%04X-U+%04X", r.Lo, r.Hi-1)
}

// Partition splits the code-point space into disjoint ranges whose endpoints
// are exactly the given boundaries plus the 0 and Sentinel sentinels. The
// result is sorted, disjoint, and covers [0, Sentinel). Every boundary
// strictly between 0 and Sentinel appears as the Lo of one range and the Hi
// of its predecessor, so any
// interval delimited by two boundaries coincides with a contiguous run of
// partition ranges.
func Partition(boundaries []rune) []Range {
	points := make([]rune, 0, len(boundaries)+2)
	points = append(points, 0, Sentinel)
	points = append(points, boundaries...)
	slices.Sort(points)
	points = slices.Compact(points)

	ranges := make([]Range, 0, len(points)-1)
	for i := 0; i+1 < len(points); i++ {
		ranges = append(ranges, Range{Lo: points[i], Hi: points[i+1]})
	}
	return ranges
}

// Span locates the contiguous run of partition indices covering r exactly:
// alphabet[lo].Lo == r.Lo and alphabet[hi].Hi == r.Hi. The alphabet must be
// a Partition result; r's endpoints must be boundaries of it.
func Span(alphabet []Range, r Range) (lo, hi int, err error) {
	lo, ok := slices.BinarySearchFunc(alphabet, r.Lo, func(a Range, c rune) int {
		return int(a.Lo - c)
	})
	if !ok {
		return 0, 0, fmt.Errorf("%w: start of %v", ErrNotBoundary, r)
	}
	hi, ok = slices.BinarySearchFunc(alphabet, r.Hi, func(a Range, c rune) int {
		return int(a.Hi - c)
	})
	if !ok {
		return 0, 0, fmt.Errorf("%w: end of %v", ErrNotBoundary, r)
	}
	return lo, hi, nil
}
