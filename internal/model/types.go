package model

import "time"

// Coordinate is a latitude/longitude pair. Values are taken from the plan
// response as-is and are not range-checked.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location represents a single stop in an itinerary. A location belongs to
// exactly one day and holds its zero-based position within that day.
type Location struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Coordinate  Coordinate `json:"coordinate"`
	PhotoURL    string     `json:"photoURL,omitempty"`
	PlaceID     string     `json:"placeID,omitempty"`
	Day         int        `json:"day"`
	Order       int        `json:"order"`
}

// TripDay groups the locations assigned to one itinerary day. The embedded
// locations are kept in lockstep with the flat location list. Day numbering
// starts at 1.
type TripDay struct {
	ID        string     `json:"id"`
	Day       int        `json:"day"`
	Locations []Location `json:"locations"`
}

// MapRegion describes the map viewport for a trip: a center plus a span.
type MapRegion struct {
	Center         Coordinate `json:"center"`
	LatitudeDelta  float64    `json:"latitudeDelta"`
	LongitudeDelta float64    `json:"longitudeDelta"`
}

// Trip is the metadata record for a saved plan. Its locations and day groups
// are persisted as separate records keyed by the same trip ID.
type Trip struct {
	ID               string    `json:"id"`
	Destination      string    `json:"destination"`
	CreatedDate      time.Time `json:"createdDate"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
	MapRegion        MapRegion `json:"mapRegion"`
	NumberOfDays     int       `json:"numberOfDays"`
}

// Plan is the result of parsing a generated itinerary: the same locations as
// a flat list and grouped by day.
type Plan struct {
	Locations []Location
	Days      []TripDay
}
