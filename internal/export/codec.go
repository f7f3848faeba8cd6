// Package export serializes a trip to a portable envelope and reconstructs
// one. The envelope is independent of the persisted record layout so files
// exchanged between installs survive storage changes.
package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"wayfarer/internal/model"
)

// Envelope is the wire form of an exported trip. Locations and TripDays are
// kept as raw JSON because two encodings are in circulation: a base64 string
// of the canonical JSON bytes, and the same data as a plain nested array.
type Envelope struct {
	Destination      string          `json:"destination"`
	CreatedDate      float64         `json:"createdDate"`
	LastModifiedDate *float64        `json:"lastModifiedDate,omitempty"`
	Locations        json.RawMessage `json:"locations"`
	TripDays         json.RawMessage `json:"tripDays"`
	Region           Region          `json:"region"`
}

// Region is the envelope's flattened map-region block.
type Region struct {
	CenterLatitude  float64 `json:"centerLatitude"`
	CenterLongitude float64 `json:"centerLongitude"`
	LatitudeDelta   float64 `json:"latitudeDelta"`
	LongitudeDelta  float64 `json:"longitudeDelta"`
}

// Bundle is a decoded envelope in domain terms. Trip.ID is left empty; the
// importer assigns a fresh one.
type Bundle struct {
	Trip      model.Trip
	Locations []model.Location
	Days      []model.TripDay
}

// Encode builds the envelope for a trip. Nested payloads are written in the
// canonical form: base64 over JSON bytes.
func Encode(trip model.Trip, locations []model.Location, days []model.TripDay) ([]byte, error) {
	locsRaw, err := encodePayload(locations)
	if err != nil {
		return nil, err
	}
	daysRaw, err := encodePayload(days)
	if err != nil {
		return nil, err
	}

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
	if !trip.LastModifiedDate.IsZero() {
		modified := float64(trip.LastModifiedDate.Unix())
		env.LastModifiedDate = &modified
	}
	return json.MarshalIndent(env, "", "  ")
}

// Decode reconstructs a trip bundle from an envelope, accepting either
// encoding of the nested payloads.
func Decode(data []byte) (*Bundle, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: not a valid envelope: %v", model.ErrImport, err)
	}
	if env.Destination == "" {
		return nil, fmt.Errorf("%w: envelope has no destination", model.ErrImport)
	}

	locsRaw, err := normalizePayload(env.Locations)
	if err != nil {
		return nil, fmt.Errorf("%w: locations: %v", model.ErrImport, err)
	}
	daysRaw, err := normalizePayload(env.TripDays)
	if err != nil {
		return nil, fmt.Errorf("%w: tripDays: %v", model.ErrImport, err)
	}

	b := &Bundle{}
	if err := json.Unmarshal(locsRaw, &b.Locations); err != nil {
		return nil, fmt.Errorf("%w: locations payload is undecodable: %v", model.ErrImport, err)
	}
	if err := json.Unmarshal(daysRaw, &b.Days); err != nil {
		return nil, fmt.Errorf("%w: tripDays payload is undecodable: %v", model.ErrImport, err)
	}

	b.Trip = model.Trip{
		Destination: env.Destination,
		CreatedDate: time.Unix(int64(env.CreatedDate), 0),
		MapRegion: model.MapRegion{
			Center: model.Coordinate{
				Latitude:  env.Region.CenterLatitude,
				Longitude: env.Region.CenterLongitude,
			},
			LatitudeDelta:  env.Region.LatitudeDelta,
			LongitudeDelta: env.Region.LongitudeDelta,
		},
		NumberOfDays: len(b.Days),
	}
	if env.LastModifiedDate != nil {
		b.Trip.LastModifiedDate = time.Unix(int64(*env.LastModifiedDate), 0)
	} else {
		b.Trip.LastModifiedDate = b.Trip.CreatedDate
	}
	return b, nil
}

func encodePayload(v any) (json.RawMessage, error) {
	canonical, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode payload: %v", model.ErrImport, err)
	}
	return json.Marshal(base64.StdEncoding.EncodeToString(canonical))
}

// normalizePayload coerces either payload form to canonical JSON bytes.
func normalizePayload(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("payload is missing")
	}

	// Canonical form: a base64 string of JSON bytes.
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("payload string is not base64: %v", err)
		}
		return decoded, nil
	}

	// Loose form: a generic nested structure. Re-encode so both forms pass
	// through the same decode path.
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("payload is neither a string nor a structure: %v", err)
	}
	return json.Marshal(v)
}
