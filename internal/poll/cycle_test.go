package poll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/closurewatch/closurewatch/internal/closure"
	"github.com/closurewatch/closurewatch/internal/feed"
	"github.com/closurewatch/closurewatch/internal/geo"
	"github.com/closurewatch/closurewatch/internal/subscription"
)

var testBounds = geo.Bounds{SouthLat: 39.084296, NorthLat: 40.517692, WestLon: -107.399081, EastLon: -105.128684}

var testNow = time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)

func inBounds() *closure.Location {
	return &closure.Location{Latitude: 39.7, Longitude: -106.0}
}

type fakeFetcher struct {
	alerts []closure.Alert
	err    error
}

func (f *fakeFetcher) FetchCurrentAlerts(context.Context) ([]closure.Alert, error) {
	return f.alerts, f.err
}

type memSnapshotStore struct {
	snap     closure.Snapshot
	saves    int
	archives []time.Time
}

func (m *memSnapshotStore) Load() (closure.Snapshot, error) { return m.snap, nil }
func (m *memSnapshotStore) Save(s closure.Snapshot) error {
	m.snap = s
	m.saves++
	return nil
}
func (m *memSnapshotStore) Archive(_ closure.Snapshot, ts time.Time) error {
	m.archives = append(m.archives, ts)
	return nil
}

type memRosterStore struct {
	roster subscription.Roster
	saves  int
}

func (m *memRosterStore) Load() (subscription.Roster, error) { return m.roster, nil }
func (m *memRosterStore) Save(r subscription.Roster) error {
	m.roster = r
	m.saves++
	return nil
}

type recordingTransport struct {
	batches    [][]string
	recipients [][]string
}

func (r *recordingTransport) SendBatch(_ context.Context, messages []string, recipients []string) {
	r.batches = append(r.batches, messages)
	r.recipients = append(r.recipients, recipients)
}

func newTestCycle(f *fakeFetcher, snaps *memSnapshotStore, roster *memRosterStore, tr *recordingTransport) *Cycle {
	return NewCycle(f, testBounds, snaps, roster, tr, zap.NewNop()).
		WithClock(func() time.Time { return testNow })
}

func TestFirstRunPersistsWithoutNotifying(t *testing.T) {
	f := &fakeFetcher{alerts: []closure.Alert{
		{ID: "A1", RoadName: "I-70", StartMileMarker: "100", Location: inBounds()},
	}}
	snaps := &memSnapshotStore{}
	roster := &memRosterStore{roster: subscription.Roster{{Number: "+1", ExpiresAt: testNow.Add(time.Hour)}}}
	tr := &recordingTransport{}

	require.NoError(t, newTestCycle(f, snaps, roster, tr).Run(context.Background()))

	assert.Empty(t, tr.batches, "first run never notifies")
	assert.Empty(t, snaps.archives)
	require.NotNil(t, snaps.snap)
	assert.Len(t, snaps.snap, 1)
	assert.Zero(t, roster.saves)
}

func TestFetchFailureLeavesStateUntouched(t *testing.T) {
	prev := closure.Snapshot{{ID: "A1"}}
	f := &fakeFetcher{err: &feed.Error{Op: "get", Err: errors.New("timeout")}}
	snaps := &memSnapshotStore{snap: prev}
	roster := &memRosterStore{}
	tr := &recordingTransport{}

	err := newTestCycle(f, snaps, roster, tr).Run(context.Background())
	require.Error(t, err)

	assert.Zero(t, snaps.saves)
	assert.Zero(t, roster.saves)
	assert.Empty(t, tr.batches)
	assert.Equal(t, prev, snaps.snap)
}

func TestNewClosureNotifiesActiveSubscribers(t *testing.T) {
	f := &fakeFetcher{alerts: []closure.Alert{
		{ID: "A1", RoadName: "I-70", Direction: "West", StartMileMarker: "100", RoadwayClosureID: "4", Location: inBounds()},
		{ID: "A2", RoadName: "US 6", Direction: "East", StartMileMarker: "226", RoadwayClosureID: "2", Location: inBounds()},
	}}
	snaps := &memSnapshotStore{snap: closure.Snapshot{
		{ID: "A1", RoadName: "I-70", Location: inBounds()},
	}}
	roster := &memRosterStore{roster: subscription.Roster{
		{Number: "+13035550100", ExpiresAt: testNow.Add(time.Hour)},
		{Number: "+13035550101", ExpiresAt: testNow.Add(-time.Hour)}, // expired
	}}
	tr := &recordingTransport{}

	require.NoError(t, newTestCycle(f, snaps, roster, tr).Run(context.Background()))

	require.Len(t, tr.batches, 1)
	require.Len(t, tr.batches[0], 1)
	assert.Contains(t, tr.batches[0][0], "US 6")
	assert.Contains(t, tr.batches[0][0], "(partial)")
	assert.Contains(t, tr.batches[0][0], "mile marker 226")

	require.Len(t, tr.recipients[0], 1, "expired subscriber excluded")
	assert.Equal(t, "+13035550100", tr.recipients[0][0])

	// Pruned roster persisted, snapshot replaced and archived.
	require.Len(t, roster.roster, 1)
	assert.Equal(t, "+13035550100", roster.roster[0].Number)
	assert.Len(t, snaps.snap, 2)
	require.Len(t, snaps.archives, 1)
	assert.Equal(t, testNow, snaps.archives[0])
}

func TestClearedClosureSendsOpening(t *testing.T) {
	f := &fakeFetcher{alerts: nil}
	snaps := &memSnapshotStore{snap: closure.Snapshot{
		{ID: "A1", RoadName: "I-70", Direction: "West", StartMileMarker: "100"},
	}}
	roster := &memRosterStore{roster: subscription.Roster{
		{Number: "+13035550100", ExpiresAt: testNow.Add(time.Hour)},
	}}
	tr := &recordingTransport{}

	require.NoError(t, newTestCycle(f, snaps, roster, tr).Run(context.Background()))

	require.Len(t, tr.batches, 1)
	require.Len(t, tr.batches[0], 1)
	assert.Contains(t, tr.batches[0][0], "Road reopened on I-70")
	require.NotNil(t, snaps.snap)
	assert.Empty(t, snaps.snap)
}

func TestUnchangedFeedIsIdempotent(t *testing.T) {
	alerts := []closure.Alert{
		{ID: "A1", RoadName: "I-70", StartMileMarker: "100", Location: inBounds()},
	}
	f := &fakeFetcher{alerts: alerts}
	snaps := &memSnapshotStore{}
	roster := &memRosterStore{roster: subscription.Roster{{Number: "+1", ExpiresAt: testNow.Add(time.Hour)}}}
	tr := &recordingTransport{}
	cycle := newTestCycle(f, snaps, roster, tr)

	// First run initializes, second and third see no change.
	require.NoError(t, cycle.Run(context.Background()))
	afterFirst := snaps.snap
	require.NoError(t, cycle.Run(context.Background()))
	require.NoError(t, cycle.Run(context.Background()))

	assert.Empty(t, tr.batches)
	assert.Empty(t, snaps.archives)
	assert.Zero(t, roster.saves)
	assert.Equal(t, afterFirst, snaps.snap)
}

func TestGeoFilterAppliedToCurrentOnly(t *testing.T) {
	f := &fakeFetcher{alerts: []closure.Alert{
		{ID: "A2", RoadName: "I-25", StartMileMarker: "1", Location: &closure.Location{Latitude: 50, Longitude: 0}},
	}}
	// Previous contains an in-bounds closure; current's only alert is out of
	// bounds, so the previous closure reads as reopened.
	snaps := &memSnapshotStore{snap: closure.Snapshot{
		{ID: "A1", RoadName: "I-70", Direction: "West", StartMileMarker: "100", Location: inBounds()},
	}}
	roster := &memRosterStore{}
	tr := &recordingTransport{}

	require.NoError(t, newTestCycle(f, snaps, roster, tr).Run(context.Background()))

	require.Len(t, tr.batches, 1)
	require.Len(t, tr.batches[0], 1)
	assert.Contains(t, tr.batches[0][0], "Road reopened on I-70")
	assert.Empty(t, snaps.snap)
}

func TestOverlappingRunRejected(t *testing.T) {
	f := &fakeFetcher{}
	cycle := newTestCycle(f, &memSnapshotStore{}, &memRosterStore{}, &recordingTransport{})

	cycle.running.Store(true)
	err := cycle.Run(context.Background())
	assert.ErrorIs(t, err, ErrCycleRunning)
}
