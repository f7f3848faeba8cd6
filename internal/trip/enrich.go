package trip

import (
	"context"
	"net/url"

	"wayfarer/internal/model"
)

const (
	nearbyRadiusMeters  = 500
	imageSearchEndpoint = "https://www.google.com/search?tbm=isch&q="
)

// enrich runs the photo fallback chain for one location. Every stage fails
// silently into the next; the chain never reports an error anywhere but the
// debug log. Runs in its own goroutine, one per location.
func (m *Manager) enrich(loc model.Location) {
	if m.places == nil {
		return
	}
	ctx := context.Background()

	// Stage 1: details on a place ID the plan already carried.
	if loc.PlaceID != "" {
		if photoURL, ok := m.photoFromDetails(ctx, loc.PlaceID); ok {
			m.applyPhoto(loc.ID, photoURL)
			return
		}
	}

	// Stage 2: text search by name. A discovered place ID is kept even when
	// it yields no photo.
	cand, err := m.places.FindPlace(ctx, loc.Name)
	if err != nil {
		m.log.WithError(err).WithField("location", loc.Name).Debug("place text search failed")
	}
	if cand != nil && cand.PlaceID != "" {
		m.applyPlaceID(loc.ID, cand.PlaceID)
		if len(cand.Photos) > 0 {
			m.applyPhoto(loc.ID, m.places.PhotoURL(cand.Photos[0].Reference))
			return
		}
		// Stage 3: details on the discovered ID.
		if photoURL, ok := m.photoFromDetails(ctx, cand.PlaceID); ok {
			m.applyPhoto(loc.ID, photoURL)
			return
		}
	}

	// Stage 4: proximity search around the location's coordinate.
	cand, err = m.places.Nearby(ctx, loc.Coordinate, nearbyRadiusMeters)
	if err != nil {
		m.log.WithError(err).WithField("location", loc.Name).Debug("nearby search failed")
	}
	if cand != nil && cand.PlaceID != "" {
		m.applyPlaceID(loc.ID, cand.PlaceID)
		if len(cand.Photos) > 0 {
			m.applyPhoto(loc.ID, m.places.PhotoURL(cand.Photos[0].Reference))
			return
		}
		if photoURL, ok := m.photoFromDetails(ctx, cand.PlaceID); ok {
			m.applyPhoto(loc.ID, photoURL)
			return
		}
	}

	// Last resort: an image-search URL keyed by name, never validated.
	m.applyPhoto(loc.ID, imageSearchEndpoint+url.QueryEscape(loc.Name))
}

func (m *Manager) photoFromDetails(ctx context.Context, placeID string) (string, bool) {
	photos, err := m.places.Details(ctx, placeID)
	if err != nil {
		m.log.WithError(err).WithField("place_id", placeID).Debug("place details lookup failed")
		return "", false
	}
	if len(photos) == 0 {
		return "", false
	}
	return m.places.PhotoURL(photos[0].Reference), true
}

// applyPhoto sets a location's photo in both views. A completion for a
// location that has since been replaced is dropped by identifier miss, and
// a photo is never overwritten once set.
func (m *Manager) applyPhoto(locationID, photoURL string) {
	m.mu.Lock()
	idx := m.flatIndex(locationID)
	if idx == -1 {
		m.mu.Unlock()
		m.log.WithField("location_id", locationID).Debug("dropping photo for removed location")
		return
	}
	if m.locations[idx].PhotoURL != "" {
		m.mu.Unlock()
		return
	}
	m.locations[idx].PhotoURL = photoURL
	if g := m.dayGroup(m.locations[idx].Day); g != nil {
		for i := range g.Locations {
			if g.Locations[i].ID == locationID {
				g.Locations[i].PhotoURL = photoURL
				break
			}
		}
	}
	m.mu.Unlock()
	m.emit(EventChanged)
}

// applyPlaceID back-fills a discovered place ID into both views.
func (m *Manager) applyPlaceID(locationID, placeID string) {
	m.mu.Lock()
	idx := m.flatIndex(locationID)
	if idx == -1 {
		m.mu.Unlock()
		return
	}
	m.locations[idx].PlaceID = placeID
	if g := m.dayGroup(m.locations[idx].Day); g != nil {
		for i := range g.Locations {
			if g.Locations[i].ID == locationID {
				g.Locations[i].PlaceID = placeID
				break
			}
		}
	}
	m.mu.Unlock()
	m.emit(EventChanged)
}
