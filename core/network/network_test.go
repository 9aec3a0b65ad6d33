package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manvalan/fdc-railway-engine/core/model"
)

func testStations(ids ...string) []model.Station {
	out := make([]model.Station, len(ids))
	for i, id := range ids {
		out[i] = model.Station{ID: id, Name: id, Platforms: 2}
	}
	return out
}

func TestShortestPathPicksCheaperRoute(t *testing.T) {
	// A-B-C is 30 km, the direct A-C segment is 50 km.
	n, err := New(testStations("A", "B", "C"), []model.Segment{
		{From: "A", To: "B", DistanceKm: 10, SpeedLimit: 140, Type: model.TrackDouble},
		{From: "B", To: "C", DistanceKm: 20, SpeedLimit: 140, Type: model.TrackDouble},
		{From: "A", To: "C", DistanceKm: 50, SpeedLimit: 140, Type: model.TrackSingle},
	})
	require.NoError(t, err)

	route, dist, err := n.ShortestPath("A", "C")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, route)
	assert.InDelta(t, 30, dist, 1e-9)

	edges, err := n.PathEdges("A", "C")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, "A--B", edges[0].Key())
	assert.Equal(t, "B--C", edges[1].Key())
}

func TestShortestPathBidirectional(t *testing.T) {
	n, err := New(testStations("A", "B"), []model.Segment{
		{From: "A", To: "B", DistanceKm: 12, SpeedLimit: 100, Type: model.TrackSingle},
	})
	require.NoError(t, err)

	route, dist, err := n.ShortestPath("B", "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, route)
	assert.InDelta(t, 12, dist, 1e-9)
}

func TestShortestPathNoRoute(t *testing.T) {
	n, err := New(testStations("A", "B", "X"), []model.Segment{
		{From: "A", To: "B", DistanceKm: 5, SpeedLimit: 100, Type: model.TrackSingle},
	})
	require.NoError(t, err)

	_, _, err = n.ShortestPath("A", "X")
	assert.ErrorIs(t, err, ErrNoPath)
	_, err = n.PathEdges("A", "X")
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestNewRejectsBadSegments(t *testing.T) {
	_, err := New(testStations("A", "B"), []model.Segment{
		{From: "A", To: "B", DistanceKm: 0, SpeedLimit: 100},
	})
	assert.Error(t, err)

	_, err = New(testStations("A"), []model.Segment{
		{From: "A", To: "Z", DistanceKm: 3, SpeedLimit: 100},
	})
	assert.Error(t, err)
}

func TestShortestPathSameStation(t *testing.T) {
	n, err := New(testStations("A", "B"), []model.Segment{
		{From: "A", To: "B", DistanceKm: 5, SpeedLimit: 100},
	})
	require.NoError(t, err)
	route, dist, err := n.ShortestPath("A", "A")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, route)
	assert.Zero(t, dist)
}
