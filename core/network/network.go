// Package network implements the read-only railway graph consumed by the
// scheduling engine. All segments are bidirectional; shortest paths are
// computed with Dijkstra and cached per source station.
package network

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/manvalan/fdc-railway-engine/core/model"
)

// ErrNoPath is returned when two stations are not connected.
var ErrNoPath = errors.New("network: no path between stations")

// PathService is the lookup interface the propagator depends on.
type PathService interface {
	// PathEdges returns the ordered segments of the shortest path.
	PathEdges(from, to string) ([]model.Segment, error)
	// ShortestPath returns the ordered station ids and total distance in km.
	ShortestPath(from, to string) ([]string, float64, error)
	// Station looks up a station by id.
	Station(id string) (model.Station, bool)
}

// Network is an in-memory PathService backed by a weighted undirected graph.
type Network struct {
	g        *simple.WeightedUndirectedGraph
	ids      map[string]int64
	stations map[string]model.Station
	segments map[string]model.Segment // by undirected key
	byNode   map[int64]string

	mu    sync.Mutex
	cache map[string]path.Shortest // Dijkstra results per source
}

// New builds a Network from stations and segments. Segment endpoints must
// reference known stations and distances must be positive.
func New(stations []model.Station, segments []model.Segment) (*Network, error) {
	n := &Network{
		g:        simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		ids:      make(map[string]int64, len(stations)),
		stations: make(map[string]model.Station, len(stations)),
		segments: make(map[string]model.Segment, len(segments)),
		byNode:   make(map[int64]string, len(stations)),
		cache:    make(map[string]path.Shortest),
	}
	for i, st := range stations {
		if _, dup := n.ids[st.ID]; dup {
			return nil, fmt.Errorf("network: duplicate station %q", st.ID)
		}
		id := int64(i)
		n.ids[st.ID] = id
		n.byNode[id] = st.ID
		n.stations[st.ID] = st
		n.g.AddNode(simple.Node(id))
	}
	for _, seg := range segments {
		if seg.DistanceKm <= 0 {
			return nil, fmt.Errorf("network: segment %s: distance must be positive", seg.Key())
		}
		u, ok := n.ids[seg.From]
		if !ok {
			return nil, fmt.Errorf("network: segment %s: unknown station %q", seg.Key(), seg.From)
		}
		v, ok := n.ids[seg.To]
		if !ok {
			return nil, fmt.Errorf("network: segment %s: unknown station %q", seg.Key(), seg.To)
		}
		if u == v {
			return nil, fmt.Errorf("network: segment %s: self loop", seg.Key())
		}
		n.segments[seg.Key()] = seg
		n.g.SetWeightedEdge(simple.WeightedEdge{
			F: simple.Node(u), T: simple.Node(v), W: seg.DistanceKm,
		})
	}
	return n, nil
}

// Snapshot returns the stations and segments of the graph, for export to
// the external oracle. Order is deterministic.
func (n *Network) Snapshot() ([]model.Station, []model.Segment) {
	stations := make([]model.Station, 0, len(n.stations))
	for id := int64(0); id < int64(len(n.byNode)); id++ {
		stations = append(stations, n.stations[n.byNode[id]])
	}
	keys := make([]string, 0, len(n.segments))
	for k := range n.segments {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	segments := make([]model.Segment, 0, len(keys))
	for _, k := range keys {
		segments = append(segments, n.segments[k])
	}
	return stations, segments
}

// Station implements PathService.
func (n *Network) Station(id string) (model.Station, bool) {
	st, ok := n.stations[id]
	return st, ok
}

// Segment returns the segment connecting two adjacent stations.
func (n *Network) Segment(a, b string) (model.Segment, bool) {
	s, ok := n.segments[model.Segment{From: a, To: b}.Key()]
	return s, ok
}

// ShortestPath implements PathService.
func (n *Network) ShortestPath(from, to string) ([]string, float64, error) {
	src, ok := n.ids[from]
	if !ok {
		return nil, 0, fmt.Errorf("network: unknown station %q", from)
	}
	dst, ok := n.ids[to]
	if !ok {
		return nil, 0, fmt.Errorf("network: unknown station %q", to)
	}
	if src == dst {
		return []string{from}, 0, nil
	}

	n.mu.Lock()
	sp, ok := n.cache[from]
	if !ok {
		sp = path.DijkstraFrom(simple.Node(src), n.g)
		n.cache[from] = sp
	}
	n.mu.Unlock()

	nodes, dist := sp.To(dst)
	if math.IsInf(dist, 1) || len(nodes) == 0 {
		return nil, 0, fmt.Errorf("%w: %s -> %s", ErrNoPath, from, to)
	}
	route := make([]string, len(nodes))
	for i, nd := range nodes {
		route[i] = n.byNode[nd.ID()]
	}
	return route, dist, nil
}

// PathEdges implements PathService.
func (n *Network) PathEdges(from, to string) ([]model.Segment, error) {
	route, _, err := n.ShortestPath(from, to)
	if err != nil {
		return nil, err
	}
	edges := make([]model.Segment, 0, len(route)-1)
	for i := 0; i+1 < len(route); i++ {
		seg, ok := n.Segment(route[i], route[i+1])
		if !ok {
			return nil, fmt.Errorf("network: missing segment %s-%s on path", route[i], route[i+1])
		}
		edges = append(edges, seg)
	}
	return edges, nil
}
