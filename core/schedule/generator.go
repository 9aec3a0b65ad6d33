// Package schedule turns commercial lines into concrete train services.
// A Line only lists stations and dwell times; the generator stamps out
// trains with per-category rolling-stock presets, either one trip at a
// time or as a clock-face batch over a time window.
package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/manvalan/fdc-railway-engine/core/model"
)

// Preset is the rolling-stock profile of a service category.
type Preset struct {
	MaxSpeed     float64 // km/h
	Acceleration float64 // m/s²
	Deceleration float64 // m/s²
	Priority     int
}

// presets mirror the service classes of the imported network data:
// regional stock tops out at 140 km/h, intercity at 180, high-speed
// sets at 250 with better braking.
var presets = map[string]Preset{
	"regional":  {MaxSpeed: 140, Acceleration: 0.5, Deceleration: 0.5, Priority: 4},
	"intercity": {MaxSpeed: 180, Acceleration: 0.4, Deceleration: 0.45, Priority: 6},
	"highSpeed": {MaxSpeed: 250, Acceleration: 0.45, Deceleration: 0.6, Priority: 8},
}

// defaultDwell applies where a line stop declares no dwell of its own.
const defaultDwell = 3 * time.Minute

// Categories lists the known service categories.
func Categories() []string {
	return []string{"regional", "intercity", "highSpeed"}
}

// PresetFor returns the rolling-stock profile of a category.
func PresetFor(category string) (Preset, bool) {
	p, ok := presets[category]
	return p, ok
}

// Generator stamps out trains for a line. Codes are sequential per
// generator so a batch reads like a published timetable.
type Generator struct {
	line     model.Line
	category string
	preset   Preset
	nextCode int
}

// NewGenerator builds a generator for one line and category. The line
// needs at least two stops and the category must be known.
func NewGenerator(line model.Line, category string, firstCode int) (*Generator, error) {
	if len(line.Stops) < 2 {
		return nil, fmt.Errorf("schedule: line %s has %d stops, need at least 2", line.ID, len(line.Stops))
	}
	preset, ok := presets[category]
	if !ok {
		return nil, fmt.Errorf("schedule: unknown category %q", category)
	}
	if firstCode <= 0 {
		firstCode = 1000
	}
	return &Generator{line: line, category: category, preset: preset, nextCode: firstCode}, nil
}

// Trip builds a single service departing at the given time of day.
func (g *Generator) Trip(departure time.Time) *model.Train {
	code := g.nextCode
	g.nextCode++

	stops := make([]model.Stop, len(g.line.Stops))
	for i, ls := range g.line.Stops {
		dwell := time.Duration(ls.MinDwellTime) * time.Minute
		if dwell <= 0 {
			dwell = defaultDwell
		}
		stops[i] = model.Stop{StationID: ls.StationID, MinDwell: dwell}
	}

	return &model.Train{
		ID:           uuid.NewString(),
		Code:         code,
		Name:         fmt.Sprintf("%s %d", g.line.Name, code),
		Category:     g.category,
		LineID:       g.line.ID,
		MaxSpeed:     g.preset.MaxSpeed,
		Acceleration: g.preset.Acceleration,
		Deceleration: g.preset.Deceleration,
		Priority:     g.preset.Priority,
		Departure:    model.NormalizeClock(departure),
		Stops:        stops,
	}
}

// Batch builds a cadenced service: one trip every interval from first
// to last inclusive. Interval must be positive and last must not
// precede first.
func (g *Generator) Batch(first, last time.Time, interval time.Duration) ([]*model.Train, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("schedule: interval must be positive, got %s", interval)
	}
	first = model.NormalizeClock(first)
	last = model.NormalizeClock(last)
	if last.Before(first) {
		return nil, fmt.Errorf("schedule: window end %s precedes start %s",
			last.Format("15:04"), first.Format("15:04"))
	}

	var trains []*model.Train
	for dep := first; !dep.After(last); dep = dep.Add(interval) {
		trains = append(trains, g.Trip(dep))
	}
	return trains, nil
}
