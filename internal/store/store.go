// Package store persists trips through a small key-value interface. Each
// saved trip occupies three records (metadata, locations, day groups) keyed
// by trip ID, tracked by an index record plus an active-trip pointer.
package store

import "errors"

// ErrNotFound is returned by a Store when a key has no value.
var ErrNotFound = errors.New("key not found")

// Store is the key-value backend trips are persisted to.
type Store interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte) error
	Remove(key string) error
}

const (
	indexKey      = "trip_ids"
	activeTripKey = "active_trip_id"
	tripKeyPrefix = "trip_"
)

func metaKey(tripID string) string      { return tripKeyPrefix + tripID }
func locationsKey(tripID string) string { return tripKeyPrefix + tripID + "_locations" }
func daysKey(tripID string) string      { return tripKeyPrefix + tripID + "_days" }
