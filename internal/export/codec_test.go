package export

import (
	"encoding/json"
	"testing"
	"time"

	"wayfarer/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBundle() (model.Trip, []model.Location, []model.TripDay) {
	trip := model.Trip{
		ID:               uuid.NewString(),
		Destination:      "Marrakesh",
		CreatedDate:      time.Unix(1700000000, 0),
		LastModifiedDate: time.Unix(1700086400, 0),
		NumberOfDays:     2,
		MapRegion: model.MapRegion{
			Center:         model.Coordinate{Latitude: 31.6295, Longitude: -7.9811},
			LatitudeDelta:  0.05,
			LongitudeDelta: 0.05,
		},
	}
	locations := []model.Location{
		{ID: uuid.NewString(), Name: "Jemaa el-Fnaa", Description: "Main square", Coordinate: model.Coordinate{Latitude: 31.6258, Longitude: -7.9891}, Day: 1, Order: 0},
		{ID: uuid.NewString(), Name: "Bahia Palace", Description: "19th century palace", Coordinate: model.Coordinate{Latitude: 31.6214, Longitude: -7.9825}, Day: 1, Order: 1},
		{ID: uuid.NewString(), Name: "Majorelle Garden", Description: "Botanical garden", Coordinate: model.Coordinate{Latitude: 31.6417, Longitude: -8.0035}, Day: 2, Order: 0},
	}
	days := []model.TripDay{
		{ID: uuid.NewString(), Day: 1, Locations: locations[:2]},
		{ID: uuid.NewString(), Day: 2, Locations: locations[2:]},
	}
	return trip, locations, days
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	trip, locations, days := sampleBundle()

	data, err := Encode(trip, locations, days)
	require.NoError(t, err)

	b, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, trip.Destination, b.Trip.Destination)
	assert.Equal(t, trip.CreatedDate.Unix(), b.Trip.CreatedDate.Unix())
	assert.Equal(t, trip.MapRegion, b.Trip.MapRegion)
	assert.Equal(t, 2, b.Trip.NumberOfDays)
	assert.Empty(t, b.Trip.ID)

	// Locations keep their identifiers, names, coordinates and ordering.
	assert.Equal(t, locations, b.Locations)
	assert.Equal(t, days, b.Days)
}

func TestDecodeLooseNestedForm(t *testing.T) {
	trip, locations, days := sampleBundle()

	// Build an envelope whose payloads are plain nested arrays rather than
	// base64 blobs.
	locsRaw, err := json.Marshal(locations)
	require.NoError(t, err)
	daysRaw, err := json.Marshal(days)
	require.NoError(t, err)

	env := Envelope{
		Destination: trip.Destination,
		CreatedDate: float64(trip.CreatedDate.Unix()),
		Locations:   locsRaw,
		TripDays:    daysRaw,
		Region: Region{
			CenterLatitude:  trip.MapRegion.Center.Latitude,
			CenterLongitude: trip.MapRegion.Center.Longitude,
			LatitudeDelta:   trip.MapRegion.LatitudeDelta,
			LongitudeDelta:  trip.MapRegion.LongitudeDelta,
		},
	}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	b, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, locations, b.Locations)
	assert.Equal(t, days, b.Days)
	assert.Equal(t, b.Trip.CreatedDate, b.Trip.LastModifiedDate)
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not JSON", "garbage"},
		{"missing destination", `{"createdDate":0,"locations":"W10=","tripDays":"W10=","region":{}}`},
		{"payload not base64", `{"destination":"x","createdDate":0,"locations":"!!!","tripDays":"W10=","region":{}}`},
		{"missing payload", `{"destination":"x","createdDate":0,"region":{}}`},
		{"payload wrong shape", `{"destination":"x","createdDate":0,"locations":"aGVsbG8=","tripDays":"W10=","region":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.ErrorIs(t, err, model.ErrImport)
		})
	}
}
