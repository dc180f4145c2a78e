package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/world-in-pieces/wip-backend/internal/domain"
)

func TestParseCoordinate(t *testing.T) {
	tests := []struct {
		coord string
		want  Point
	}{
		{"A1", Point{X: 1, Y: 1}},
		{"Z1", Point{X: 1, Y: 26}},
		{"AA1", Point{X: 1, Y: 27}},
		{"AB28", Point{X: 28, Y: 28}},
		{"AA100", Point{X: 100, Y: 27}},
		{"B12", Point{X: 12, Y: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.coord, func(t *testing.T) {
			p, err := ParseCoordinate(tt.coord)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
		})
	}
}

func TestParseCoordinateInvalid(t *testing.T) {
	for _, coord := range []string{"", "123", "ABC", "A", "1A", "A-1", "A0", "aa1"} {
		t.Run(coord, func(t *testing.T) {
			_, err := ParseCoordinate(coord)
			assert.ErrorIs(t, err, domain.ErrInvalidCoordinate)
		})
	}
}

func TestFormatCoordinateRoundTrip(t *testing.T) {
	for _, coord := range []string{"A1", "Z1", "AA1", "AZ5", "BA17", "C100"} {
		p, err := ParseCoordinate(coord)
		require.NoError(t, err)
		assert.Equal(t, coord, FormatCoordinate(p))
	}
}

func TestIsRectangleTiling(t *testing.T) {
	tests := []struct {
		name   string
		coords []string
		want   bool
	}{
		{
			name:   "single coordinate is a 1x1 rectangle",
			coords: []string{"D4"},
			want:   true,
		},
		{
			name:   "2x3 rectangle",
			coords: []string{"A1", "A2", "B1", "B2", "C1", "C2"},
			want:   true,
		},
		{
			name:   "2x2 rectangle unsorted input",
			coords: []string{"B2", "A1", "B1", "A2"},
			want:   true,
		},
		{
			name:   "missing corner cell",
			coords: []string{"A1", "A2", "B1", "B2", "C1"},
			want:   false,
		},
		{
			name:   "missing interior cell",
			coords: []string{"A1", "A2", "A3", "B1", "B3", "C1", "C2", "C3"},
			want:   false,
		},
		{
			name:   "extra cell outside the bounding box",
			coords: []string{"A1", "A2", "B1", "B2", "D7"},
			want:   false,
		},
		{
			name:   "duplicate hides a missing cell",
			coords: []string{"A1", "A1", "A2", "B1"},
			want:   false,
		},
		{
			name:   "L shape",
			coords: []string{"A1", "B1", "B2"},
			want:   false,
		},
		{
			name:   "empty set",
			coords: []string{},
			want:   false,
		},
		{
			name:   "malformed coordinate",
			coords: []string{"A1", "oops"},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRectangleTiling(tt.coords))
		})
	}
}

func TestBounds(t *testing.T) {
	topLeft, bottomRight := Bounds([]string{"B2", "A1", "B1", "A2"})
	assert.Equal(t, "A1", topLeft)
	assert.Equal(t, "B2", bottomRight)
}
