package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"wayfarer/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TripStore implements multi-trip persistence on top of a Store. A trip is
// three records: metadata, locations and day groups. Load treats a missing
// or undecodable record as total failure, never partial recovery.
type TripStore struct {
	kv  Store
	log *logrus.Logger
}

// NewTripStore creates a trip store over the given backend.
func NewTripStore(kv Store, log *logrus.Logger) *TripStore {
	return &TripStore{kv: kv, log: log}
}

// Save persists the trip as create-or-update. An existing record keeps its
// original creation date; the modification date is always refreshed. The
// saved trip becomes the active one. Returns the metadata as stored.
func (s *TripStore) Save(trip model.Trip, locations []model.Location, days []model.TripDay) (model.Trip, error) {
	now := time.Now()
	if raw, err := s.kv.Get(metaKey(trip.ID)); err == nil {
		var existing model.Trip
		if err := json.Unmarshal(raw, &existing); err == nil {
			trip.CreatedDate = existing.CreatedDate
		}
	} else if trip.CreatedDate.IsZero() {
		trip.CreatedDate = now
	}
	trip.LastModifiedDate = now

	if err := s.Put(trip, locations, days); err != nil {
		return model.Trip{}, err
	}
	if err := s.SetActive(trip.ID); err != nil {
		return model.Trip{}, err
	}
	s.log.WithFields(logrus.Fields{"trip_id": trip.ID, "locations": len(locations)}).Debug("trip saved")
	return trip, nil
}

// Put writes all three records verbatim and ensures the trip is indexed.
// Unlike Save it does not touch dates or the active pointer; import uses it
// to keep the envelope's timestamps.
func (s *TripStore) Put(trip model.Trip, locations []model.Location, days []model.TripDay) error {
	metaRaw, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("%w: failed to encode trip metadata: %v", model.ErrPersistence, err)
	}
	locsRaw, err := json.Marshal(locations)
	if err != nil {
		return fmt.Errorf("%w: failed to encode locations: %v", model.ErrPersistence, err)
	}
	daysRaw, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("%w: failed to encode day groups: %v", model.ErrPersistence, err)
	}

	if err := s.kv.Set(metaKey(trip.ID), metaRaw); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	if err := s.kv.Set(locationsKey(trip.ID), locsRaw); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	if err := s.kv.Set(daysKey(trip.ID), daysRaw); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return s.addToIndex(trip.ID)
}

// Load reads a trip's three records. Any absent or undecodable record fails
// the whole load.
func (s *TripStore) Load(tripID string) (model.Trip, []model.Location, []model.TripDay, error) {
	var trip model.Trip
	if err := s.getJSON(metaKey(tripID), &trip); err != nil {
		return model.Trip{}, nil, nil, err
	}
	var locations []model.Location
	if err := s.getJSON(locationsKey(tripID), &locations); err != nil {
		return model.Trip{}, nil, nil, err
	}
	var days []model.TripDay
	if err := s.getJSON(daysKey(tripID), &days); err != nil {
		return model.Trip{}, nil, nil, err
	}
	return trip, locations, days, nil
}

// List returns metadata for every indexed trip, most recently modified
// first. Trips whose metadata fails to decode are skipped.
func (s *TripStore) List() []model.Trip {
	trips := []model.Trip{}
	for _, id := range s.readIndex() {
		var trip model.Trip
		if err := s.getJSON(metaKey(id), &trip); err != nil {
			s.log.WithField("trip_id", id).WithError(err).Warn("skipping unreadable trip record")
			continue
		}
		trips = append(trips, trip)
	}
	sort.Slice(trips, func(i, j int) bool {
		return trips[i].LastModifiedDate.After(trips[j].LastModifiedDate)
	})
	return trips
}

// Delete removes a trip from the index and erases its records. If the trip
// was active the active pointer is cleared.
func (s *TripStore) Delete(tripID string) error {
	ids := s.readIndex()
	kept := ids[:0]
	for _, id := range ids {
		if id != tripID {
			kept = append(kept, id)
		}
	}
	if err := s.writeIndex(kept); err != nil {
		return err
	}

	for _, key := range []string{metaKey(tripID), locationsKey(tripID), daysKey(tripID)} {
		if err := s.kv.Remove(key); err != nil {
			return fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
	}

	if active, ok := s.Active(); ok && active == tripID {
		if err := s.kv.Remove(activeTripKey); err != nil {
			return fmt.Errorf("%w: %v", model.ErrPersistence, err)
		}
	}
	return nil
}

// Rename updates a trip's destination in its metadata record only.
func (s *TripStore) Rename(tripID, destination string) error {
	var trip model.Trip
	if err := s.getJSON(metaKey(tripID), &trip); err != nil {
		return err
	}
	trip.Destination = destination
	trip.LastModifiedDate = time.Now()

	raw, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("%w: failed to encode trip metadata: %v", model.ErrPersistence, err)
	}
	if err := s.kv.Set(metaKey(tripID), raw); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return nil
}

// Duplicate deep-copies a trip's three records under a fresh trip ID and
// indexes the copy. Location and day content is copied byte for byte, so
// location IDs are shared between the original and the copy. The copy does
// not become active.
func (s *TripStore) Duplicate(tripID string) (model.Trip, error) {
	var trip model.Trip
	if err := s.getJSON(metaKey(tripID), &trip); err != nil {
		return model.Trip{}, err
	}
	locsRaw, err := s.getRaw(locationsKey(tripID))
	if err != nil {
		return model.Trip{}, err
	}
	daysRaw, err := s.getRaw(daysKey(tripID))
	if err != nil {
		return model.Trip{}, err
	}

	trip.ID = uuid.NewString()
	metaRaw, err := json.Marshal(trip)
	if err != nil {
		return model.Trip{}, fmt.Errorf("%w: failed to encode trip metadata: %v", model.ErrPersistence, err)
	}

	if err := s.kv.Set(metaKey(trip.ID), metaRaw); err != nil {
		return model.Trip{}, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	if err := s.kv.Set(locationsKey(trip.ID), locsRaw); err != nil {
		return model.Trip{}, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	if err := s.kv.Set(daysKey(trip.ID), daysRaw); err != nil {
		return model.Trip{}, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	if err := s.addToIndex(trip.ID); err != nil {
		return model.Trip{}, err
	}
	return trip, nil
}

// Active returns the active trip ID, if one is set.
func (s *TripStore) Active() (string, bool) {
	raw, err := s.kv.Get(activeTripKey)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return string(raw), true
}

// SetActive points the active-trip pointer at the given trip.
func (s *TripStore) SetActive(tripID string) error {
	if err := s.kv.Set(activeTripKey, []byte(tripID)); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return nil
}

func (s *TripStore) getRaw(key string) ([]byte, error) {
	raw, err := s.kv.Get(key)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: record %s not found", model.ErrPersistence, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return raw, nil
}

func (s *TripStore) getJSON(key string, out any) error {
	raw, err := s.getRaw(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: record %s is undecodable: %v", model.ErrPersistence, key, err)
	}
	return nil
}

func (s *TripStore) readIndex() []string {
	raw, err := s.kv.Get(indexKey)
	if err != nil {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		s.log.WithError(err).Warn("trip index is undecodable, treating as empty")
		return nil
	}
	return ids
}

func (s *TripStore) writeIndex(ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("%w: failed to encode trip index: %v", model.ErrPersistence, err)
	}
	if err := s.kv.Set(indexKey, raw); err != nil {
		return fmt.Errorf("%w: %v", model.ErrPersistence, err)
	}
	return nil
}

func (s *TripStore) addToIndex(tripID string) error {
	ids := s.readIndex()
	for _, id := range ids {
		if id == tripID {
			return nil
		}
	}
	return s.writeIndex(append(ids, tripID))
}
