package genetic

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/network"
	"github.com/manvalan/fdc-railway-engine/core/timetable"
	"github.com/manvalan/fdc-railway-engine/infra/logger"
	"github.com/manvalan/fdc-railway-engine/internal/eventbus"
)

func testNetwork(t *testing.T) *network.Network {
	t.Helper()
	n, err := network.New(
		[]model.Station{{ID: "FI", Platforms: 6}, {ID: "PO", Platforms: 4}, {ID: "PT", Platforms: 3}},
		[]model.Segment{
			{From: "FI", To: "PO", DistanceKm: 17, SpeedLimit: 140, Type: model.TrackDouble},
			{From: "PO", To: "PT", DistanceKm: 15, SpeedLimit: 120, Type: model.TrackSingle},
		})
	require.NoError(t, err)
	return n
}

func regional(id string, dep time.Time) *model.Train {
	return &model.Train{
		ID: id, Name: "R" + id, Category: "regional",
		MaxSpeed: 140, Acceleration: 0.5, Deceleration: 0.5, Priority: 5,
		Departure: dep,
		Stops: []model.Stop{
			{StationID: "FI", MinDwell: 3 * time.Minute},
			{StationID: "PO", MinDwell: 3 * time.Minute},
			{StationID: "PT", MinDwell: 3 * time.Minute},
		},
	}
}

func seededConfig() Config {
	return Config{Seed: 7, PopulationSize: 30, Generations: 40}
}

func TestOptimizeRemovesConflicts(t *testing.T) {
	net := testNetwork(t)
	prop := timetable.NewPropagator(net, logger.NopLogger{})
	o := New(prop, net, seededConfig(), logger.NopLogger{})

	existing := []*model.Train{regional("e1", model.ClockTime(8, 0))}
	incoming := []*model.Train{regional("n1", model.ClockTime(8, 0))}

	res := o.Optimize(context.Background(), incoming, existing)
	assert.Positive(t, res.InitialConflicts, "unadjusted insertion must clash")
	assert.LessOrEqual(t, res.FinalConflicts, res.InitialConflicts)
	assert.Equal(t, StatusConverged, res.Status)
	assert.Zero(t, res.FinalConflicts)

	// Inputs are never mutated: adjustments land on clones.
	assert.Zero(t, incoming[0].Stops[0].ExtraDwell)
	require.Len(t, res.Trains, 1)
	assert.Equal(t, "n1", res.Trains[0].ID)
}

func TestOptimizeFitnessNonIncreasing(t *testing.T) {
	net := testNetwork(t)
	prop := timetable.NewPropagator(net, logger.NopLogger{})
	cfg := seededConfig()
	cfg.Generations = 15
	o := New(prop, net, cfg, logger.NopLogger{})

	bus := eventbus.New[Progress]()
	sub := bus.Subscribe()
	o.SetEventBus(bus)

	existing := []*model.Train{
		regional("e1", model.ClockTime(8, 0)),
		regional("e2", model.ClockTime(8, 10)),
	}
	incoming := []*model.Train{
		regional("n1", model.ClockTime(8, 0)),
		regional("n2", model.ClockTime(8, 5)),
	}
	o.Optimize(context.Background(), incoming, existing)
	bus.Close()

	prev := -1.0
	seen := 0
	for p := range sub {
		if prev >= 0 {
			assert.LessOrEqual(t, p.BestFitness, prev, "generation %d regressed", p.Generation)
		}
		prev = p.BestFitness
		seen++
	}
	assert.Positive(t, seen, "progress must be published")
}

func TestOptimizeNoNewTrains(t *testing.T) {
	net := testNetwork(t)
	prop := timetable.NewPropagator(net, logger.NopLogger{})
	o := New(prop, net, seededConfig(), logger.NopLogger{})

	existing := []*model.Train{regional("e1", model.ClockTime(8, 0))}
	res := o.Optimize(context.Background(), nil, existing)
	assert.Equal(t, StatusConverged, res.Status)
	assert.Empty(t, res.Trains)
	assert.Zero(t, res.FinalConflicts)
}

func TestOptimizeCancellation(t *testing.T) {
	net := testNetwork(t)
	prop := timetable.NewPropagator(net, logger.NopLogger{})
	cfg := seededConfig()
	cfg.Generations = 10000
	o := New(prop, net, cfg, logger.NopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := o.Optimize(ctx, []*model.Train{regional("n1", model.ClockTime(8, 0))},
		[]*model.Train{regional("e1", model.ClockTime(8, 0))})
	assert.Equal(t, StatusCancelled, res.Status)
	assert.Zero(t, res.Generations)
}

func TestOptimizeReportsProgressState(t *testing.T) {
	net := testNetwork(t)
	prop := timetable.NewPropagator(net, logger.NopLogger{})
	o := New(prop, net, seededConfig(), logger.NopLogger{})

	o.Optimize(context.Background(), []*model.Train{regional("n1", model.ClockTime(8, 0))},
		[]*model.Train{regional("e1", model.ClockTime(8, 0))})

	p := o.Progress()
	assert.NotEqual(t, StatusRunning, p.Status, "terminal state exposed after the run")
}
