// Package conflict finds overlapping station and track occupancy between
// propagated timetables. Detection is a pure function over its input.
package conflict

import (
	"sort"
	"time"

	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/timetable"
)

type interval struct {
	trainID  string
	name     string
	platform int
	from, to time.Time
}

// Detect returns every pairwise occupancy overlap across the timetables:
// station conflicts for trains dwelling at the same station, track
// conflicts for trains sharing a single-occupancy segment. The result is
// sorted by (kind, location, start) so downstream processing is
// deterministic.
func Detect(tables []timetable.Timetable) []model.Conflict {
	byStation := make(map[string][]interval)
	bySegment := make(map[string][]interval)

	for _, tt := range tables {
		for _, use := range tt.Stations {
			byStation[use.StationID] = append(byStation[use.StationID], interval{
				trainID: tt.TrainID, name: tt.TrainName,
				platform: use.Platform, from: use.From, to: use.To,
			})
		}
		for _, use := range tt.Segments {
			if !use.Single {
				continue
			}
			bySegment[use.Key] = append(bySegment[use.Key], interval{
				trainID: tt.TrainID, name: tt.TrainName,
				from: use.From, to: use.To,
			})
		}
	}

	var out []model.Conflict
	for loc, list := range byStation {
		out = append(out, sweep(model.ConflictStation, loc, list, true)...)
	}
	for loc, list := range bySegment {
		out = append(out, sweep(model.ConflictTrack, loc, list, false)...)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Location != b.Location {
			return a.Location < b.Location
		}
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.TrainA < b.TrainA
	})
	return out
}

// sweep sorts the intervals of one location by start and emits a conflict
// for every overlapping pair. Since starts are ordered, the inner scan can
// stop at the first interval starting after the current one ends.
func sweep(kind model.ConflictKind, location string, list []interval, byPlatform bool) []model.Conflict {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].from.Equal(list[j].from) {
			return list[i].from.Before(list[j].from)
		}
		return list[i].trainID < list[j].trainID
	})

	var out []model.Conflict
	for i := 0; i < len(list); i++ {
		for j := i + 1; j < len(list); j++ {
			if !list[j].from.Before(list[i].to) {
				break
			}
			if list[i].trainID == list[j].trainID {
				continue
			}
			if byPlatform && !samePlatform(list[i], list[j]) {
				continue
			}
			out = append(out, model.Conflict{
				Kind:     kind,
				Location: location,
				TrainA:   list[i].trainID,
				TrainB:   list[j].trainID,
				NameA:    list[i].name,
				NameB:    list[j].name,
				Start:    maxTime(list[i].from, list[j].from),
				End:      minTime(list[i].to, list[j].to),
			})
		}
	}
	return out
}

// samePlatform reports whether two station intervals compete for the same
// platform. An unassigned platform competes with everything.
func samePlatform(a, b interval) bool {
	return a.platform == 0 || b.platform == 0 || a.platform == b.platform
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
