// Package trip holds the in-memory source of truth for the current
// itinerary. The same locations live in two views, a flat list and a
// by-day grouping, and every operation keeps them in lockstep.
package trip

import (
	"context"
	"sync"
	"time"

	"wayfarer/internal/export"
	"wayfarer/internal/model"
	"wayfarer/internal/plan"
	"wayfarer/internal/places"
	"wayfarer/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	autosaveInterval = 30 * time.Second
	regionSpan       = 0.05
)

// Generator produces raw itinerary text for a destination and day count.
type Generator interface {
	GenerateItinerary(ctx context.Context, destination string, days int) (string, error)
}

// PlacesAPI is the slice of the places service the enrichment chain uses.
type PlacesAPI interface {
	Details(ctx context.Context, placeID string) ([]places.Photo, error)
	FindPlace(ctx context.Context, name string) (*places.Candidate, error)
	Nearby(ctx context.Context, coord model.Coordinate, radiusMeters int) (*places.Candidate, error)
	PhotoURL(reference string) string
}

// EventKind labels a change notification.
type EventKind int

const (
	// EventPlanStarted: a plan request is in flight.
	EventPlanStarted EventKind = iota
	// EventPlanLoaded: a new plan replaced the current trip.
	EventPlanLoaded
	// EventChanged: locations changed in place (move, edit, photo).
	EventChanged
	// EventTripReplaced: a load or import replaced the current trip.
	EventTripReplaced
	// EventSaved: the current trip was persisted.
	EventSaved
	// EventTripListChanged: the set of saved trips changed.
	EventTripListChanged
	// EventError: a user-visible error was recorded.
	EventError
)

// Event is a change notification. Consumers re-read the snapshot; events
// carry no payload.
type Event struct {
	Kind EventKind
}

// Snapshot is a copy of the manager's state, safe to read after release.
type Snapshot struct {
	Trip      model.Trip
	Locations []model.Location
	Days      []model.TripDay
	Err       string
	Planning  bool
}

// Manager owns the current trip. All mutations, including completions of
// asynchronous work, pass through its lock, so observers never see the two
// views disagree. Completions for locations that no longer exist are
// discarded by identifier miss.
type Manager struct {
	gen    Generator
	places PlacesAPI
	store  *store.TripStore
	log    *logrus.Logger

	mu        sync.Mutex
	trip      model.Trip
	locations []model.Location
	days      []model.TripDay
	errMsg    string
	planning  bool

	events chan Event
}

// NewManager creates a manager. gen and placesAPI may be nil when the
// corresponding API key is not configured; planning and photo enrichment
// degrade accordingly.
func NewManager(gen Generator, placesAPI PlacesAPI, ts *store.TripStore, log *logrus.Logger) *Manager {
	return &Manager{
		gen:    gen,
		places: placesAPI,
		store:  ts,
		log:    log,
		events: make(chan Event, 64),
	}
}

// Events returns the change-notification channel. Events are dropped rather
// than block a mutation when the consumer falls behind.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Snapshot returns a deep copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{
		Trip:      m.trip,
		Locations: copyLocations(m.locations),
		Days:      copyDays(m.days),
		Err:       m.errMsg,
		Planning:  m.planning,
	}
}

// PlanTrip requests a new itinerary and replaces the current trip when the
// response parses. It returns immediately; completion is signaled through
// the event channel. On any failure the previous trip is left untouched and
// the error is recorded for display.
func (m *Manager) PlanTrip(ctx context.Context, destination string, numberOfDays int) {
	m.mu.Lock()
	m.errMsg = ""
	m.planning = true
	m.mu.Unlock()
	m.emit(EventPlanStarted)

	go m.runPlan(ctx, destination, numberOfDays)
}

func (m *Manager) runPlan(ctx context.Context, destination string, numberOfDays int) {
	if m.gen == nil {
		m.failPlan("no generative service is configured; set GEMINI_API_KEY")
		return
	}

	text, err := m.gen.GenerateItinerary(ctx, destination, numberOfDays)
	if err != nil {
		m.log.WithError(err).WithField("destination", destination).Warn("itinerary request failed")
		m.failPlan(err.Error())
		return
	}

	p, err := plan.Parse(text)
	if err != nil {
		m.log.WithError(err).WithField("destination", destination).Warn("itinerary response unusable")
		m.failPlan(err.Error())
		return
	}

	now := time.Now()
	m.mu.Lock()
	m.trip = model.Trip{
		ID:               uuid.NewString(),
		Destination:      destination,
		CreatedDate:      now,
		LastModifiedDate: now,
		NumberOfDays:     numberOfDays,
		MapRegion: model.MapRegion{
			Center:         p.Locations[0].Coordinate,
			LatitudeDelta:  regionSpan,
			LongitudeDelta: regionSpan,
		},
	}
	m.locations = p.Locations
	m.days = p.Days
	m.planning = false
	toEnrich := copyLocations(p.Locations)
	m.mu.Unlock()
	m.emit(EventPlanLoaded)

	for _, loc := range toEnrich {
		go m.enrich(loc)
	}
}

func (m *Manager) failPlan(msg string) {
	m.mu.Lock()
	m.planning = false
	m.errMsg = msg
	m.mu.Unlock()
	m.emit(EventError)
}

// MoveLocation reorders a location within one day group and resequences the
// group. Out-of-range indices and unknown days are silent no-ops.
func (m *Manager) MoveLocation(day, from, to int) {
	m.mu.Lock()
	g := m.dayGroup(day)
	if g == nil || from < 0 || from >= len(g.Locations) || to < 0 || to >= len(g.Locations) {
		m.mu.Unlock()
		return
	}
	moved := g.Locations[from]
	g.Locations = append(g.Locations[:from], g.Locations[from+1:]...)
	g.Locations = append(g.Locations[:to], append([]model.Location{moved}, g.Locations[to:]...)...)
	m.resequence(g)
	m.mu.Unlock()
	m.emit(EventChanged)
}

// MoveLocationToDay moves a location to the end of another day group,
// resequences the group it left, and kicks off a save. An unknown location
// or target day is a silent no-op.
func (m *Manager) MoveLocationToDay(locationID string, targetDay int) {
	m.mu.Lock()
	target := m.dayGroup(targetDay)
	idx := m.flatIndex(locationID)
	if target == nil || idx == -1 {
		m.mu.Unlock()
		return
	}

	src := m.dayGroup(m.locations[idx].Day)
	if src != nil {
		for i := range src.Locations {
			if src.Locations[i].ID == locationID {
				src.Locations = append(src.Locations[:i], src.Locations[i+1:]...)
				break
			}
		}
		m.resequence(src)
	}

	m.locations[idx].Day = targetDay
	m.locations[idx].Order = len(target.Locations)
	target.Locations = append(target.Locations, m.locations[idx])
	m.mu.Unlock()
	m.emit(EventChanged)

	go m.saveQuietly()
}

// UpdateLocation edits a location's name and description in both views
// under a single lock acquisition.
func (m *Manager) UpdateLocation(locationID, name, description string) {
	m.mu.Lock()
	idx := m.flatIndex(locationID)
	if idx == -1 {
		m.mu.Unlock()
		return
	}
	m.locations[idx].Name = name
	m.locations[idx].Description = description
	if g := m.dayGroup(m.locations[idx].Day); g != nil {
		for i := range g.Locations {
			if g.Locations[i].ID == locationID {
				g.Locations[i].Name = name
				g.Locations[i].Description = description
				break
			}
		}
	}
	m.mu.Unlock()
	m.emit(EventChanged)
}

// Save persists the current trip and makes it active.
func (m *Manager) Save() error {
	m.mu.Lock()
	trip := m.trip
	locations := copyLocations(m.locations)
	days := copyDays(m.days)
	m.mu.Unlock()

	saved, err := m.store.Save(trip, locations, days)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if m.trip.ID == saved.ID {
		m.trip.CreatedDate = saved.CreatedDate
		m.trip.LastModifiedDate = saved.LastModifiedDate
	}
	m.mu.Unlock()
	m.emit(EventSaved)
	m.emit(EventTripListChanged)
	return nil
}

// Load replaces the current trip with a saved one. The in-memory state is
// only touched once all three records have decoded.
func (m *Manager) Load(tripID string) error {
	trip, locations, days, err := m.store.Load(tripID)
	if err != nil {
		return err
	}
	if err := m.store.SetActive(tripID); err != nil {
		return err
	}

	m.mu.Lock()
	m.trip = trip
	m.locations = locations
	m.days = days
	m.errMsg = ""
	m.planning = false
	m.mu.Unlock()
	m.emit(EventTripReplaced)
	return nil
}

// Delete removes a saved trip. The in-memory copy, if it was that trip,
// stays editable; only the active pointer is cleared by the store.
func (m *Manager) Delete(tripID string) error {
	if err := m.store.Delete(tripID); err != nil {
		return err
	}
	m.emit(EventTripListChanged)
	return nil
}

// Rename changes a saved trip's destination, and the live one when the
// renamed trip is currently loaded.
func (m *Manager) Rename(tripID, destination string) error {
	if err := m.store.Rename(tripID, destination); err != nil {
		return err
	}
	m.mu.Lock()
	if m.trip.ID == tripID {
		m.trip.Destination = destination
	}
	m.mu.Unlock()
	m.emit(EventTripListChanged)
	return nil
}

// Duplicate copies a saved trip under a fresh identifier.
func (m *Manager) Duplicate(tripID string) (model.Trip, error) {
	duplicated, err := m.store.Duplicate(tripID)
	if err != nil {
		return model.Trip{}, err
	}
	m.emit(EventTripListChanged)
	return duplicated, nil
}

// ListTrips returns every saved trip, most recently modified first.
func (m *Manager) ListTrips() []model.Trip {
	return m.store.List()
}

// Export serializes a trip to an envelope. With an empty tripID the current
// in-memory state is exported, saved or not.
func (m *Manager) Export(tripID string) ([]byte, error) {
	if tripID == "" {
		m.mu.Lock()
		trip := m.trip
		locations := copyLocations(m.locations)
		days := copyDays(m.days)
		m.mu.Unlock()
		return export.Encode(trip, locations, days)
	}

	trip, locations, days, err := m.store.Load(tripID)
	if err != nil {
		return nil, err
	}
	return export.Encode(trip, locations, days)
}

// Import reconstructs a trip from an envelope, persists it under a fresh
// identifier, makes it active, and replaces the in-memory state wholesale.
// On failure the current trip is left untouched.
func (m *Manager) Import(data []byte) error {
	b, err := export.Decode(data)
	if err != nil {
		m.mu.Lock()
		m.errMsg = err.Error()
		m.mu.Unlock()
		m.emit(EventError)
		return err
	}

	b.Trip.ID = uuid.NewString()
	if err := m.store.Put(b.Trip, b.Locations, b.Days); err != nil {
		return err
	}
	if err := m.store.SetActive(b.Trip.ID); err != nil {
		return err
	}

	m.mu.Lock()
	m.trip = b.Trip
	m.locations = b.Locations
	m.days = b.Days
	m.errMsg = ""
	m.planning = false
	m.mu.Unlock()
	m.emit(EventTripReplaced)
	m.emit(EventTripListChanged)
	return nil
}

// StartAutosave saves the current trip on a fixed interval until ctx is
// canceled. Saves are skipped while there is nothing to save.
func (m *Manager) StartAutosave(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(autosaveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.saveQuietly()
			}
		}
	}()
}

// Flush saves immediately, for shutdown or backgrounding. Failures are
// logged, never surfaced.
func (m *Manager) Flush() {
	m.saveQuietly()
}

func (m *Manager) saveQuietly() {
	m.mu.Lock()
	empty := len(m.locations) == 0
	m.mu.Unlock()
	if empty {
		return
	}
	if err := m.Save(); err != nil {
		m.log.WithError(err).Warn("auto-save failed")
	}
}

// resequence rewrites a group's orders to 0..n-1 and mirrors day and order
// onto the flat list. Callers hold the lock.
func (m *Manager) resequence(g *model.TripDay) {
	for i := range g.Locations {
		g.Locations[i].Order = i
		g.Locations[i].Day = g.Day
		if idx := m.flatIndex(g.Locations[i].ID); idx != -1 {
			m.locations[idx].Order = i
			m.locations[idx].Day = g.Day
		}
	}
}

func (m *Manager) dayGroup(day int) *model.TripDay {
	for i := range m.days {
		if m.days[i].Day == day {
			return &m.days[i]
		}
	}
	return nil
}

func (m *Manager) flatIndex(locationID string) int {
	for i := range m.locations {
		if m.locations[i].ID == locationID {
			return i
		}
	}
	return -1
}

func (m *Manager) emit(kind EventKind) {
	select {
	case m.events <- Event{Kind: kind}:
	default:
	}
}

func copyLocations(src []model.Location) []model.Location {
	out := make([]model.Location, len(src))
	copy(out, src)
	return out
}

func copyDays(src []model.TripDay) []model.TripDay {
	out := make([]model.TripDay, len(src))
	for i, d := range src {
		d.Locations = copyLocations(d.Locations)
		out[i] = d
	}
	return out
}
