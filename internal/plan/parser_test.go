package plan

import (
	"testing"

	"wayfarer/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalPlan = `{"days":[{"day":1,"locations":[{"name":"A","description":"d","latitude":1.0,"longitude":2.0}]}]}`

func TestParseMinimalPlan(t *testing.T) {
	p, err := Parse(minimalPlan)
	require.NoError(t, err)

	require.Len(t, p.Locations, 1)
	require.Len(t, p.Days, 1)

	loc := p.Locations[0]
	assert.Equal(t, "A", loc.Name)
	assert.Equal(t, "d", loc.Description)
	assert.Equal(t, 1.0, loc.Coordinate.Latitude)
	assert.Equal(t, 2.0, loc.Coordinate.Longitude)
	assert.Equal(t, 1, loc.Day)
	assert.Equal(t, 0, loc.Order)
	assert.NotEmpty(t, loc.ID)

	assert.Equal(t, 1, p.Days[0].Day)
	assert.Equal(t, loc, p.Days[0].Locations[0])
}

func TestParseToleratesWrappingNoise(t *testing.T) {
	wrapped := "Here is your plan:\n```json\n" + minimalPlan + "\n```\nEnjoy!"

	got, err := Parse(wrapped)
	require.NoError(t, err)

	want, err := Parse(minimalPlan)
	require.NoError(t, err)

	require.Len(t, got.Locations, len(want.Locations))
	assert.Equal(t, want.Locations[0].Name, got.Locations[0].Name)
	assert.Equal(t, want.Locations[0].Coordinate, got.Locations[0].Coordinate)
	assert.Equal(t, want.Locations[0].Day, got.Locations[0].Day)
	assert.Equal(t, want.Locations[0].Order, got.Locations[0].Order)
}

func TestParseCarriesPlaceID(t *testing.T) {
	raw := `{"days":[{"day":1,"locations":[{"name":"A","description":"d","latitude":1,"longitude":2,"place_id":"ChIJabc"}]}]}`
	p, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "ChIJabc", p.Locations[0].PlaceID)
}

func TestParseSkipsMalformedEntries(t *testing.T) {
	raw := `{
		"days": [
			{"day": 1, "locations": [
				{"name":"keep","description":"d","latitude":1,"longitude":2},
				{"name":"no coords","description":"d"},
				{"description":"no name","latitude":1,"longitude":2},
				{"name":"keep too","description":"d","latitude":3,"longitude":4}
			]},
			{"locations": [{"name":"dayless","description":"d","latitude":1,"longitude":2}]},
			{"day": 2}
		]
	}`
	p, err := Parse(raw)
	require.NoError(t, err)

	require.Len(t, p.Locations, 2)
	assert.Equal(t, "keep", p.Locations[0].Name)
	assert.Equal(t, "keep too", p.Locations[1].Name)

	// Skipped entries must not leave holes in the ordering.
	assert.Equal(t, 0, p.Locations[0].Order)
	assert.Equal(t, 1, p.Locations[1].Order)
}

func TestParseMultipleDays(t *testing.T) {
	raw := `{"days":[
		{"day":1,"locations":[
			{"name":"A","description":"d","latitude":1,"longitude":2},
			{"name":"B","description":"d","latitude":3,"longitude":4}
		]},
		{"day":2,"locations":[
			{"name":"C","description":"d","latitude":5,"longitude":6}
		]}
	]}`
	p, err := Parse(raw)
	require.NoError(t, err)

	require.Len(t, p.Days, 2)
	require.Len(t, p.Locations, 3)
	assert.Equal(t, []int{0, 1}, []int{p.Days[0].Locations[0].Order, p.Days[0].Locations[1].Order})
	assert.Equal(t, 2, p.Locations[2].Day)
	assert.Equal(t, 0, p.Locations[2].Order)
}

func TestParseFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty days", `{"days": []}`},
		{"not JSON", "sorry, I cannot plan that trip"},
		{"no days field", `{"itinerary": []}`},
		{"all entries skipped", `{"days":[{"day":1,"locations":[{"name":"x"}]}]}`},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			assert.ErrorIs(t, err, model.ErrParse)
		})
	}
}
