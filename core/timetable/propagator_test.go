package timetable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/network"
	"github.com/manvalan/fdc-railway-engine/infra/logger"
)

func testNetwork(t *testing.T) *network.Network {
	t.Helper()
	stations := []model.Station{
		{ID: "FI", Name: "Firenze", Platforms: 10},
		{ID: "PO", Name: "Prato", Platforms: 4},
		{ID: "PT", Name: "Pistoia", Platforms: 3},
		{ID: "LU", Name: "Lucca", Platforms: 3},
	}
	segments := []model.Segment{
		{From: "FI", To: "PO", DistanceKm: 17, SpeedLimit: 140, Type: model.TrackDouble},
		{From: "PO", To: "PT", DistanceKm: 15, SpeedLimit: 120, Type: model.TrackSingle},
		{From: "PT", To: "LU", DistanceKm: 40, SpeedLimit: 120, Type: model.TrackSingle},
	}
	n, err := network.New(stations, segments)
	require.NoError(t, err)
	return n
}

func testTrain(id string, dep time.Time, stations ...string) *model.Train {
	tr := &model.Train{
		ID:           id,
		Name:         "R" + id,
		Category:     "regional",
		MaxSpeed:     140,
		Acceleration: 0.5,
		Deceleration: 0.5,
		Priority:     5,
		Departure:    dep,
	}
	for _, st := range stations {
		tr.Stops = append(tr.Stops, model.Stop{StationID: st, MinDwell: 3 * time.Minute})
	}
	return tr
}

func TestPropagateResolvesTimes(t *testing.T) {
	p := NewPropagator(testNetwork(t), logger.NopLogger{})
	tr := testTrain("t1", model.ClockTime(8, 0), "FI", "PO", "PT")

	tt, err := p.Propagate(tr)
	require.NoError(t, err)

	assert.Nil(t, tr.Stops[0].Arrival)
	require.NotNil(t, tr.Stops[0].Departure)
	assert.Equal(t, model.ClockTime(8, 0), *tr.Stops[0].Departure)

	require.NotNil(t, tr.Stops[1].Arrival)
	require.NotNil(t, tr.Stops[1].Departure)
	assert.True(t, tr.Stops[1].Arrival.After(*tr.Stops[0].Departure))
	assert.Equal(t, tr.Stops[1].Arrival.Add(3*time.Minute), *tr.Stops[1].Departure)

	require.NotNil(t, tr.Stops[2].Arrival)
	assert.Nil(t, tr.Stops[2].Departure)

	// Origin, intermediate and terminus all occupy their stations.
	assert.Len(t, tt.Stations, 3)
	assert.Len(t, tt.Segments, 2)
	assert.False(t, tt.Segments[0].Single)
	assert.True(t, tt.Segments[1].Single)
}

func TestPropagateIdempotent(t *testing.T) {
	p := NewPropagator(testNetwork(t), logger.NopLogger{})
	tr := testTrain("t1", model.ClockTime(6, 30), "FI", "PO", "PT", "LU")

	_, err := p.Propagate(tr)
	require.NoError(t, err)
	first := tr.Clone()

	_, err = p.Propagate(tr)
	require.NoError(t, err)

	for i := range tr.Stops {
		if first.Stops[i].Arrival != nil {
			assert.True(t, first.Stops[i].Arrival.Equal(*tr.Stops[i].Arrival), "stop %d arrival", i)
		}
		if first.Stops[i].Departure != nil {
			assert.True(t, first.Stops[i].Departure.Equal(*tr.Stops[i].Departure), "stop %d departure", i)
		}
	}
}

func TestPropagatePlannedDepartureNeverShortensDwell(t *testing.T) {
	p := NewPropagator(testNetwork(t), logger.NopLogger{})
	tr := testTrain("t1", model.ClockTime(8, 0), "FI", "PO", "PT")

	// Pin the intermediate departure before the train can even arrive.
	early := model.ClockTime(8, 1)
	tr.Stops[1].PlannedDeparture = &early

	_, err := p.Propagate(tr)
	require.NoError(t, err)
	require.NotNil(t, tr.Stops[1].Departure)
	assert.Equal(t, tr.Stops[1].Arrival.Add(3*time.Minute), *tr.Stops[1].Departure,
		"the physically required dwell wins over an earlier plan")
}

func TestPropagatePlannedDepartureExtendsDwell(t *testing.T) {
	p := NewPropagator(testNetwork(t), logger.NopLogger{})
	tr := testTrain("t1", model.ClockTime(8, 0), "FI", "PO", "PT")

	late := model.ClockTime(10, 0)
	tr.Stops[1].PlannedDeparture = &late

	_, err := p.Propagate(tr)
	require.NoError(t, err)
	assert.Equal(t, model.ClockTime(10, 0), *tr.Stops[1].Departure)
}

func TestPropagatePlannedArrivalPin(t *testing.T) {
	p := NewPropagator(testNetwork(t), logger.NopLogger{})
	tr := testTrain("t1", model.ClockTime(8, 0), "FI", "PO", "PT")

	pinned := model.ClockTime(8, 45)
	tr.Stops[1].PlannedArrival = &pinned

	_, err := p.Propagate(tr)
	require.NoError(t, err)
	assert.Equal(t, pinned, *tr.Stops[1].Arrival)
	assert.Equal(t, pinned.Add(3*time.Minute), *tr.Stops[1].Departure)
}

func TestPropagateSkippedStop(t *testing.T) {
	p := NewPropagator(testNetwork(t), logger.NopLogger{})
	tr := testTrain("t1", model.ClockTime(8, 0), "FI", "PO", "PT")
	tr.Stops[1].Skip = true

	tt, err := p.Propagate(tr)
	require.NoError(t, err)

	// Zero dwell at the pass-through stop, and no station occupancy there.
	assert.Equal(t, *tr.Stops[1].Arrival, *tr.Stops[1].Departure)
	for _, use := range tt.Stations {
		assert.NotEqual(t, "PO", use.StationID)
	}
}

func TestPropagateUnreachableStop(t *testing.T) {
	stations := []model.Station{{ID: "A"}, {ID: "B"}, {ID: "X"}}
	segments := []model.Segment{{From: "A", To: "B", DistanceKm: 10, SpeedLimit: 100, Type: model.TrackSingle}}
	n, err := network.New(stations, segments)
	require.NoError(t, err)

	p := NewPropagator(n, logger.NopLogger{})
	tr := testTrain("t1", model.ClockTime(8, 0), "A", "X")

	_, err = p.Propagate(tr)
	assert.ErrorIs(t, err, ErrUnreachableStop)
	for _, s := range tr.Stops {
		assert.Nil(t, s.Arrival)
		assert.Nil(t, s.Departure)
	}

	reachable := testTrain("t2", model.ClockTime(9, 0), "A", "B")
	tables, failed := p.RefreshAll([]*model.Train{tr, reachable})
	assert.Len(t, tables, 1)
	assert.Equal(t, "t2", tables[0].TrainID)
	assert.Contains(t, failed, "t1")
}

func TestPropagateRejectsShortRoute(t *testing.T) {
	p := NewPropagator(testNetwork(t), logger.NopLogger{})
	tr := testTrain("t1", model.ClockTime(8, 0), "FI")
	_, err := p.Propagate(tr)
	assert.Error(t, err)
}
