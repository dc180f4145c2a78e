// Package geometry implements the letter-number grid coordinate math used by
// the land map. A coordinate like "AA100" combines a base-26 letter run
// (A=1..Z=26, AA=27, ...) for one axis with a decimal run for the other.
package geometry

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/world-in-pieces/wip-backend/internal/domain"
)

// Point is a parsed grid coordinate. X is the numeric (digit) axis and Y the
// letter axis.
type Point struct {
	X int
	Y int
}

// ParseCoordinate splits a coordinate string into its letter and digit runs
// and converts them to a numeric point. It returns domain.ErrInvalidCoordinate
// when the string has no leading letters or no trailing digits.
func ParseCoordinate(coord string) (Point, error) {
	split := 0
	for split < len(coord) && coord[split] >= 'A' && coord[split] <= 'Z' {
		split++
	}

	if split == 0 || split == len(coord) {
		return Point{}, fmt.Errorf("%w: %q", domain.ErrInvalidCoordinate, coord)
	}

	y := 0
	for i := 0; i < split; i++ {
		y = y*26 + int(coord[i]-'A') + 1
	}

	x, err := strconv.Atoi(coord[split:])
	if err != nil || x <= 0 {
		return Point{}, fmt.Errorf("%w: %q", domain.ErrInvalidCoordinate, coord)
	}

	return Point{X: x, Y: y}, nil
}

// FormatCoordinate is the inverse of ParseCoordinate.
func FormatCoordinate(p Point) string {
	letters := ""
	for y := p.Y; y > 0; y = (y - 1) / 26 {
		letters = string(rune('A'+(y-1)%26)) + letters
	}

	return letters + strconv.Itoa(p.X)
}

// Bounds returns the top-left and bottom-right coordinates of a sorted
// coordinate slice. The slice is sorted lexicographically in place; the first
// element becomes the top-left bound and the last the bottom-right.
func Bounds(coords []string) (topLeft, bottomRight string) {
	sort.Strings(coords)
	return coords[0], coords[len(coords)-1]
}

// IsRectangleTiling reports whether the coordinate set exactly tiles the
/// bounding rectangle spanned by its lexicographic extremes: every cell of the
// rectangle is present and the set carries nothing outside it (duplicates
// inflating the count while missing a cell are rejected too). A single
// coordinate trivially tiles a 1x1 rectangle. Malformed coordinates make the
// set non-rectangular rather than raising an error.
func IsRectangleTiling(coords []string) bool {
	if len(coords) == 0 {
		return false
	}

	topLeft, bottomRight := Bounds(coords)

	tl, err := ParseCoordinate(topLeft)
	if err != nil {
		return false
	}
	br, err := ParseCoordinate(bottomRight)
	if err != nil {
		return false
	}

	width := br.X - tl.X + 1
	height := br.Y - tl.Y + 1
	if width <= 0 || height <= 0 {
		return false
	}

	present := make(map[string]struct{}, len(coords))
	for _, c := range coords {
		present[c] = struct{}{}
	}

	counted := 0
	for x := tl.X; x < tl.X+width; x++ {
		for y := tl.Y; y < tl.Y+height; y++ {
			cell := FormatCoordinate(Point{X: x, Y: y})
			if _, ok := present[cell]; !ok {
				return false
			}
			counted++
		}
	}

	// Extra coordinates outside the rectangle or duplicates in the input
	// would make the input longer than the rectangle's cell count.
	return counted == len(coords)
}
