package trip

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"testing"
	"time"

	"wayfarer/internal/model"
	"wayfarer/internal/places"
	"wayfarer/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGen struct {
	text string
	err  error
}

func (f *fakeGen) GenerateItinerary(ctx context.Context, destination string, days int) (string, error) {
	return f.text, f.err
}

// fakePlaces scripts the three lookup shapes with function fields; a nil
// field means that call shape fails.
type fakePlaces struct {
	details func(placeID string) ([]places.Photo, error)
	find    func(name string) (*places.Candidate, error)
	nearby  func(coord model.Coordinate) (*places.Candidate, error)
}

func (f *fakePlaces) Details(ctx context.Context, placeID string) ([]places.Photo, error) {
	if f.details == nil {
		return nil, fmt.Errorf("details unavailable")
	}
	return f.details(placeID)
}

func (f *fakePlaces) FindPlace(ctx context.Context, name string) (*places.Candidate, error) {
	if f.find == nil {
		return nil, fmt.Errorf("text search unavailable")
	}
	return f.find(name)
}

func (f *fakePlaces) Nearby(ctx context.Context, coord model.Coordinate, radiusMeters int) (*places.Candidate, error) {
	if f.nearby == nil {
		return nil, fmt.Errorf("nearby search unavailable")
	}
	return f.nearby(coord)
}

func (f *fakePlaces) PhotoURL(reference string) string {
	return "https://photos.test/" + reference
}

func newTestManager(gen Generator, placesAPI PlacesAPI) *Manager {
	log := logrus.New()
	log.SetOutput(io.Discard)
	ts := store.NewTripStore(store.NewMemory(), log)
	return NewManager(gen, placesAPI, ts, log)
}

const twoDayPlan = `{"days":[
	{"day":1,"locations":[
		{"name":"A","description":"first","latitude":1,"longitude":2},
		{"name":"B","description":"second","latitude":3,"longitude":4},
		{"name":"C","description":"third","latitude":5,"longitude":6}
	]},
	{"day":2,"locations":[
		{"name":"D","description":"fourth","latitude":7,"longitude":8}
	]}
]}`

func waitFor(t *testing.T, m *Manager, kind EventKind) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-m.Events():
			if ev.Kind == kind {
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event %d", kind)
		}
	}
}

// checkInvariants asserts that orders are dense per day and that the two
// views hold the same locations with matching fields.
func checkInvariants(t *testing.T, s Snapshot) {
	t.Helper()

	grouped := map[string]model.Location{}
	for _, d := range s.Days {
		for i, loc := range d.Locations {
			assert.Equal(t, i, loc.Order, "day %d order not dense at %s", d.Day, loc.Name)
			assert.Equal(t, d.Day, loc.Day, "day field of %s disagrees with its group", loc.Name)
			_, seen := grouped[loc.ID]
			assert.False(t, seen, "location %s appears in more than one group", loc.Name)
			grouped[loc.ID] = loc
		}
	}

	require.Equal(t, len(s.Locations), len(grouped), "flat list and groups differ in size")
	for _, loc := range s.Locations {
		g, ok := grouped[loc.ID]
		require.True(t, ok, "location %s missing from groups", loc.Name)
		assert.Equal(t, g.Day, loc.Day)
		assert.Equal(t, g.Order, loc.Order)
		assert.Equal(t, g.Name, loc.Name)
	}
}

func planned(t *testing.T, raw string) *Manager {
	t.Helper()
	m := newTestManager(&fakeGen{text: raw}, nil)
	m.PlanTrip(context.Background(), "Testville", 2)
	waitFor(t, m, EventPlanLoaded)
	return m
}

func TestPlanTripPopulatesBothViews(t *testing.T) {
	m := planned(t, twoDayPlan)
	s := m.Snapshot()

	assert.Equal(t, "Testville", s.Trip.Destination)
	assert.Equal(t, 2, s.Trip.NumberOfDays)
	assert.NotEmpty(t, s.Trip.ID)
	assert.False(t, s.Planning)
	assert.Empty(t, s.Err)

	require.Len(t, s.Locations, 4)
	require.Len(t, s.Days, 2)
	checkInvariants(t, s)

	// Map region is centered on the first location with a fixed span.
	assert.Equal(t, s.Locations[0].Coordinate, s.Trip.MapRegion.Center)
	assert.Equal(t, regionSpan, s.Trip.MapRegion.LatitudeDelta)
}

func TestPlanTripNetworkFailureLeavesStateUntouched(t *testing.T) {
	m := planned(t, twoDayPlan)
	before := m.Snapshot()

	m.gen = &fakeGen{err: fmt.Errorf("transport down")}
	m.PlanTrip(context.Background(), "Elsewhere", 3)
	waitFor(t, m, EventError)

	after := m.Snapshot()
	assert.Equal(t, before.Trip.ID, after.Trip.ID)
	assert.Equal(t, before.Locations, after.Locations)
	assert.Equal(t, before.Days, after.Days)
	assert.NotEmpty(t, after.Err)
	assert.False(t, after.Planning)
}

func TestPlanTripParseFailureSetsError(t *testing.T) {
	m := newTestManager(&fakeGen{text: "I cannot plan that trip, sorry."}, nil)
	m.PlanTrip(context.Background(), "Nowhere", 1)
	waitFor(t, m, EventError)

	s := m.Snapshot()
	assert.NotEmpty(t, s.Err)
	assert.Empty(t, s.Locations)
}

func TestPlanTripWithoutGenerator(t *testing.T) {
	m := newTestManager(nil, nil)
	m.PlanTrip(context.Background(), "Anywhere", 1)
	waitFor(t, m, EventError)
	assert.NotEmpty(t, m.Snapshot().Err)
}

func TestMoveLocationReordersDense(t *testing.T) {
	m := planned(t, twoDayPlan)

	m.MoveLocation(1, 0, 2) // A,B,C -> B,C,A

	s := m.Snapshot()
	checkInvariants(t, s)
	day1 := s.Days[0]
	require.Len(t, day1.Locations, 3)
	assert.Equal(t, []string{"B", "C", "A"}, []string{day1.Locations[0].Name, day1.Locations[1].Name, day1.Locations[2].Name})
}

func TestMoveLocationUnknownDayIsNoop(t *testing.T) {
	m := planned(t, twoDayPlan)
	before := m.Snapshot()

	m.MoveLocation(9, 0, 1)
	m.MoveLocation(1, 0, 99)

	after := m.Snapshot()
	assert.Equal(t, before.Locations, after.Locations)
	assert.Equal(t, before.Days, after.Days)
}

func TestMoveLocationToDayLeavesEmptyGroupBehind(t *testing.T) {
	m := planned(t, twoDayPlan)
	s := m.Snapshot()
	only := s.Days[1].Locations[0] // D, the sole location of day 2

	m.MoveLocationToDay(only.ID, 1)

	s = m.Snapshot()
	checkInvariants(t, s)

	// Day 2 stays present with an empty sequence.
	require.Len(t, s.Days, 2)
	assert.Equal(t, 2, s.Days[1].Day)
	assert.Empty(t, s.Days[1].Locations)

	// Day 1 grew by one, with the mover appended last.
	require.Len(t, s.Days[0].Locations, 4)
	last := s.Days[0].Locations[3]
	assert.Equal(t, "D", last.Name)
	assert.Equal(t, 1, last.Day)
	assert.Equal(t, 3, last.Order)
}

func TestMoveLocationToDayUnknownTargetIsNoop(t *testing.T) {
	m := planned(t, twoDayPlan)
	before := m.Snapshot()

	m.MoveLocationToDay(before.Locations[0].ID, 42)
	m.MoveLocationToDay("no-such-id", 1)

	after := m.Snapshot()
	assert.Equal(t, before.Locations, after.Locations)
	assert.Equal(t, before.Days, after.Days)
}

func TestUpdateLocationEditsBothViews(t *testing.T) {
	m := planned(t, twoDayPlan)
	target := m.Snapshot().Locations[1]

	m.UpdateLocation(target.ID, "Renamed", "new words")

	s := m.Snapshot()
	checkInvariants(t, s)
	assert.Equal(t, "Renamed", s.Locations[1].Name)
	assert.Equal(t, "new words", s.Locations[1].Description)
	assert.Equal(t, "Renamed", s.Days[0].Locations[1].Name)

	// Coordinates are never touched by edits.
	assert.Equal(t, target.Coordinate, s.Locations[1].Coordinate)
}

func TestRandomOperationSequenceKeepsInvariants(t *testing.T) {
	m := planned(t, twoDayPlan)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		s := m.Snapshot()
		switch rng.Intn(3) {
		case 0:
			day := 1 + rng.Intn(2)
			g := s.Days[day-1]
			if len(g.Locations) > 1 {
				m.MoveLocation(day, rng.Intn(len(g.Locations)), rng.Intn(len(g.Locations)))
			}
		case 1:
			if len(s.Locations) > 0 {
				loc := s.Locations[rng.Intn(len(s.Locations))]
				m.MoveLocationToDay(loc.ID, 1+rng.Intn(2))
			}
		case 2:
			if len(s.Locations) > 0 {
				loc := s.Locations[rng.Intn(len(s.Locations))]
				m.UpdateLocation(loc.ID, loc.Name, fmt.Sprintf("edit %d", i))
			}
		}
	}

	checkInvariants(t, m.Snapshot())
}

func TestSaveLoadRestoresTrip(t *testing.T) {
	m := planned(t, twoDayPlan)
	require.NoError(t, m.Save())
	saved := m.Snapshot()

	// Plan something else, then load the saved trip back.
	m.gen = &fakeGen{text: `{"days":[{"day":1,"locations":[{"name":"X","description":"d","latitude":0,"longitude":0}]}]}`}
	m.PlanTrip(context.Background(), "Otherplace", 1)
	waitFor(t, m, EventPlanLoaded)

	require.NoError(t, m.Load(saved.Trip.ID))
	s := m.Snapshot()
	assert.Equal(t, saved.Trip.ID, s.Trip.ID)
	assert.Equal(t, "Testville", s.Trip.Destination)
	assert.Equal(t, saved.Locations, s.Locations)
	assert.Equal(t, saved.Days, s.Days)
}

func TestLoadUnknownTripFails(t *testing.T) {
	m := newTestManager(nil, nil)
	assert.ErrorIs(t, m.Load("missing"), model.ErrPersistence)
}

func TestRenameUpdatesLiveDestination(t *testing.T) {
	m := planned(t, twoDayPlan)
	require.NoError(t, m.Save())
	id := m.Snapshot().Trip.ID

	require.NoError(t, m.Rename(id, "Somewhere Else"))
	assert.Equal(t, "Somewhere Else", m.Snapshot().Trip.Destination)
}

func TestExportImportRoundTrip(t *testing.T) {
	m := planned(t, twoDayPlan)
	require.NoError(t, m.Save())
	saved := m.Snapshot()

	data, err := m.Export("")
	require.NoError(t, err)

	other := newTestManager(nil, nil)
	require.NoError(t, other.Import(data))

	s := other.Snapshot()
	assert.Equal(t, saved.Trip.Destination, s.Trip.Destination)
	assert.NotEqual(t, saved.Trip.ID, s.Trip.ID)
	assert.Equal(t, saved.Locations, s.Locations)
	assert.Equal(t, saved.Days, s.Days)
	checkInvariants(t, s)

	// The imported trip is persisted and active.
	trips := other.ListTrips()
	require.Len(t, trips, 1)
	assert.Equal(t, s.Trip.ID, trips[0].ID)
}

func TestImportMalformedEnvelope(t *testing.T) {
	m := planned(t, twoDayPlan)
	before := m.Snapshot()

	err := m.Import([]byte(`{"createdDate": 0}`))
	assert.ErrorIs(t, err, model.ErrImport)

	after := m.Snapshot()
	assert.Equal(t, before.Locations, after.Locations)
	assert.NotEmpty(t, after.Err)
}
