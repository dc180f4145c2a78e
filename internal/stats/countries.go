package stats

import (
	"fmt"

	"github.com/world-in-pieces/wip-backend/internal/geometry"
)

// CountryBounds declares one country as a rectangle of coordinates
type CountryBounds struct {
	Name        string
	TopLeft     string
	BottomRight string
}

// defaultCountries is the static world layout. Country rectangles do not
// overlap.
var defaultCountries = []CountryBounds{
	{Name: "Avalon", TopLeft: "A1", BottomRight: "E10"},
	{Name: "Borealis", TopLeft: "A11", BottomRight: "E20"},
	{Name: "Cascadia", TopLeft: "F1", BottomRight: "J10"},
	{Name: "Drakonia", TopLeft: "F11", BottomRight: "J20"},
	{Name: "Elysium", TopLeft: "K1", BottomRight: "O10"},
	{Name: "Frontera", TopLeft: "K11", BottomRight: "O20"},
	{Name: "Galdoria", TopLeft: "P1", BottomRight: "T10"},
	{Name: "Hesperia", TopLeft: "P11", BottomRight: "T20"},
}

// CountryIndex is an immutable country to coordinate-set lookup built once at
// startup
type CountryIndex struct {
	countries map[string][]string
}

// NewCountryIndex enumerates each country rectangle into its coordinate set
func NewCountryIndex(bounds []CountryBounds) (*CountryIndex, error) {
	countries := make(map[string][]string, len(bounds))
	for _, country := range bounds {
		topLeft, err := geometry.ParseCoordinate(country.TopLeft)
		if err != nil {
			return nil, fmt.Errorf("country %s: %w", country.Name, err)
		}
		bottomRight, err := geometry.ParseCoordinate(country.BottomRight)
		if err != nil {
			return nil, fmt.Errorf("country %s: %w", country.Name, err)
		}
		if bottomRight.X < topLeft.X || bottomRight.Y < topLeft.Y {
			return nil, fmt.Errorf("country %s: inverted bounds", country.Name)
		}

		var coordinates []string
		for y := topLeft.Y; y <= bottomRight.Y; y++ {
			for x := topLeft.X; x <= bottomRight.X; x++ {
				coordinates = append(coordinates, geometry.FormatCoordinate(geometry.Point{X: x, Y: y}))
			}
		}
		countries[country.Name] = coordinates
	}

	return &CountryIndex{countries: countries}, nil
}

// NewDefaultCountryIndex builds the index from the static world layout
func NewDefaultCountryIndex() (*CountryIndex, error) {
	return NewCountryIndex(defaultCountries)
}

// RuledCountry returns the name of a country whose every coordinate is in the
// owned set, or "" when the owner rules no country
func (idx *CountryIndex) RuledCountry(owned map[string]struct{}) string {
	for name, coordinates := range idx.countries {
		if len(owned) < len(coordinates) {
			continue
		}

		rules := true
		for _, coordinate := range coordinates {
			if _, ok := owned[coordinate]; !ok {
				rules = false
				break
			}
		}
		if rules {
			return name
		}
	}

	return ""
}
