// Package timetable walks a train's route and resolves arrival and
// departure times at every stop from the network's shortest paths and the
// train's kinematic profile.
package timetable

import (
	"errors"
	"fmt"
	"time"

	"github.com/manvalan/fdc-railway-engine/core/kinematics"
	"github.com/manvalan/fdc-railway-engine/core/logger"
	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/network"
)

// ErrUnreachableStop is returned when no path exists between two
// consecutive stops. The train's schedule is left undefined and the
// caller must exclude it from conflict detection.
var ErrUnreachableStop = errors.New("timetable: no path between consecutive stops")

// StationUse is the presence interval of a train at a station.
type StationUse struct {
	StationID string
	Platform  int // 0 = unassigned
	From, To  time.Time
}

// SegmentUse is the presence interval of a train on a track segment.
type SegmentUse struct {
	Key      string
	Single   bool // segment forbids simultaneous occupancy
	From, To time.Time
}

// Timetable is the propagated schedule of one train. It is derived state:
// recomputed from the train and the network whenever either changes.
type Timetable struct {
	TrainID    string
	TrainName  string
	Priority   int
	Stations   []StationUse
	Segments   []SegmentUse
	TotalDelay time.Duration
}

// Propagator resolves timetables against a path service.
type Propagator struct {
	paths network.PathService
	log   logger.Logger
}

// NewPropagator returns a Propagator using the given path service.
func NewPropagator(paths network.PathService, log logger.Logger) *Propagator {
	return &Propagator{paths: paths, log: log}
}

// Propagate computes arrival and departure times for every stop of the
// train, in place, and returns the occupancy timetable. The result depends
// only on the inputs, so repeated calls on unchanged input are identical.
func (p *Propagator) Propagate(tr *model.Train) (Timetable, error) {
	if err := tr.Validate(); err != nil {
		return Timetable{}, err
	}

	profile := kinematics.Profile{
		MaxSpeedKmh: tr.MaxSpeed,
		AccelMS2:    tr.Acceleration,
		DecelMS2:    tr.Deceleration,
	}
	tt := Timetable{
		TrainID:    tr.ID,
		TrainName:  tr.Name,
		Priority:   tr.Priority,
		TotalDelay: tr.TotalDelay,
	}

	// First stop: departure is the nominal time (or its own pin) plus any
	// extra dwell accumulated by resolution passes. Holding a train at its
	// origin is how a departure delay is expressed.
	dep := model.NormalizeClock(tr.Departure)
	if pin := tr.Stops[0].PlannedDeparture; pin != nil {
		dep = model.NormalizeClock(*pin)
	}
	dep = dep.Add(tr.Stops[0].ExtraDwell).Round(time.Second)
	tr.Stops[0].Arrival = nil
	tr.Stops[0].Departure = timePtr(dep)
	if use, ok := originUse(tr.Stops[0], dep); ok {
		tt.Stations = append(tt.Stations, use)
	}

	prevDep := dep
	for i := 1; i < len(tr.Stops); i++ {
		stop := &tr.Stops[i]
		edges, err := p.paths.PathEdges(tr.Stops[i-1].StationID, stop.StationID)
		if err != nil {
			clearTimes(tr)
			if errors.Is(err, network.ErrNoPath) {
				return Timetable{}, fmt.Errorf("%w: train %s, %s -> %s",
					ErrUnreachableStop, tr.ID, tr.Stops[i-1].StationID, stop.StationID)
			}
			return Timetable{}, fmt.Errorf("train %s: %w", tr.ID, err)
		}

		var hours float64
		for _, e := range edges {
			h, err := kinematics.TravelTime(e.DistanceKm, e.SpeedLimit, profile, 0, 0)
			if err != nil {
				clearTimes(tr)
				return Timetable{}, fmt.Errorf("train %s: segment %s: %w", tr.ID, e.Key(), err)
			}
			hours += h
		}

		arr := prevDep.Add(hoursToDuration(hours)).Round(time.Second)
		if stop.PlannedArrival != nil {
			arr = model.NormalizeClock(*stop.PlannedArrival)
		}
		stop.Arrival = timePtr(arr)

		for _, e := range edges {
			tt.Segments = append(tt.Segments, SegmentUse{
				Key:    e.Key(),
				Single: e.Type.SingleOccupancy(),
				From:   prevDep,
				To:     arr,
			})
		}

		if i == len(tr.Stops)-1 {
			stop.Departure = nil
			if !stop.Skip {
				tt.Stations = append(tt.Stations, StationUse{
					StationID: stop.StationID,
					Platform:  stop.Platform,
					From:      arr,
					To:        arr.Add(stop.Dwell()),
				})
			}
			break
		}

		next := arr.Add(stop.Dwell())
		if pin := stop.PlannedDeparture; pin != nil {
			// A plan can hold a train longer, never release it early.
			if pd := model.NormalizeClock(*pin); pd.After(next) {
				next = pd
			}
		}
		next = next.Round(time.Second)
		stop.Departure = timePtr(next)
		if !stop.Skip {
			tt.Stations = append(tt.Stations, StationUse{
				StationID: stop.StationID,
				Platform:  stop.Platform,
				From:      arr,
				To:        next,
			})
		}
		prevDep = next
	}
	return tt, nil
}

// RefreshAll propagates a whole fleet, returning the timetables of the
// trains that could be scheduled and the per-train errors of those that
// could not. Failed trains keep an undefined schedule and are excluded
// from detection.
func (p *Propagator) RefreshAll(trains []*model.Train) ([]Timetable, map[string]error) {
	tables := make([]Timetable, 0, len(trains))
	failed := make(map[string]error)
	for _, tr := range trains {
		tt, err := p.Propagate(tr)
		if err != nil {
			p.log.Warnf("train %s excluded from detection: %v", tr.ID, err)
			failed[tr.ID] = err
			continue
		}
		tables = append(tables, tt)
	}
	return tables, failed
}

// originUse synthesizes the platform occupancy before the first departure.
// The train sits at its origin for the minimum dwell window leading up to
// departure; without this interval origin conflicts are undetectable.
func originUse(s model.Stop, dep time.Time) (StationUse, bool) {
	if s.Skip || s.MinDwell == 0 {
		return StationUse{}, false
	}
	return StationUse{
		StationID: s.StationID,
		Platform:  s.Platform,
		From:      dep.Add(-s.MinDwell),
		To:        dep,
	}, true
}

func clearTimes(tr *model.Train) {
	for i := range tr.Stops {
		tr.Stops[i].Arrival = nil
		tr.Stops[i].Departure = nil
	}
}

func hoursToDuration(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func timePtr(t time.Time) *time.Time { return &t }
