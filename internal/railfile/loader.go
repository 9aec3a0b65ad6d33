// Package railfile reads .rail network documents: a single JSON file
// carrying the stations, segments, commercial lines and optionally the
// rolling timetable of one railway network.
package railfile

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/network"
)

// Document is the root of a .rail file.
type Document struct {
	Name   string          `json:"name"`
	Nodes  []model.Station `json:"nodes"`
	Edges  []model.Segment `json:"edges"`
	Lines  []model.Line    `json:"lines"`
	Trains []TrainRecord   `json:"trains"`
}

// TrainRecord is the on-disk form of a train. Times are clock strings
// ("HH:MM" or "HH:MM:SS") and dwells are minutes, so the files stay
// hand-editable.
type TrainRecord struct {
	ID           string       `json:"id"`
	Code         int          `json:"code"`
	Name         string       `json:"name"`
	Category     string       `json:"category"`
	LineID       string       `json:"lineId,omitempty"`
	MaxSpeed     float64      `json:"maxSpeed"`
	Acceleration float64      `json:"acceleration"`
	Deceleration float64      `json:"deceleration"`
	Priority     int          `json:"priority"`
	Departure    string       `json:"departure"`
	Stops        []StopRecord `json:"stops"`
}

// StopRecord is the on-disk form of a route stop.
type StopRecord struct {
	StationID        string `json:"stationId"`
	Platform         int    `json:"platform,omitempty"`
	MinDwellTime     int    `json:"minDwellTime"` // minutes
	Skip             bool   `json:"skip,omitempty"`
	PlannedArrival   string `json:"plannedArrival,omitempty"`
	PlannedDeparture string `json:"plannedDeparture,omitempty"`
}

// Load parses a .rail file from disk.
func Load(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("railfile: %w", err)
	}
	return Parse(raw)
}

// Parse decodes a .rail document and checks its referential integrity:
// every edge, line stop and train stop must name a declared station.
func Parse(raw []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("railfile: decode: %w", err)
	}

	known := make(map[string]struct{}, len(doc.Nodes))
	for _, st := range doc.Nodes {
		if st.ID == "" {
			return nil, fmt.Errorf("railfile: station with empty id")
		}
		if _, dup := known[st.ID]; dup {
			return nil, fmt.Errorf("railfile: duplicate station %q", st.ID)
		}
		known[st.ID] = struct{}{}
	}
	for _, e := range doc.Edges {
		if _, ok := known[e.From]; !ok {
			return nil, fmt.Errorf("railfile: edge %s references unknown station %q", e.Key(), e.From)
		}
		if _, ok := known[e.To]; !ok {
			return nil, fmt.Errorf("railfile: edge %s references unknown station %q", e.Key(), e.To)
		}
	}
	for _, ln := range doc.Lines {
		for _, ls := range ln.Stops {
			if _, ok := known[ls.StationID]; !ok {
				return nil, fmt.Errorf("railfile: line %s references unknown station %q", ln.ID, ls.StationID)
			}
		}
	}
	for _, tr := range doc.Trains {
		for _, s := range tr.Stops {
			if _, ok := known[s.StationID]; !ok {
				return nil, fmt.Errorf("railfile: train %s references unknown station %q", tr.ID, s.StationID)
			}
		}
	}
	return &doc, nil
}

// Network builds the routable graph from the document.
func (d *Document) Network() (*network.Network, error) {
	return network.New(d.Nodes, d.Edges)
}

// Line returns a line by id.
func (d *Document) Line(id string) (model.Line, bool) {
	for _, ln := range d.Lines {
		if ln.ID == id {
			return ln, true
		}
	}
	return model.Line{}, false
}

// TrainList converts the timetable records into engine trains.
func (d *Document) TrainList() ([]*model.Train, error) {
	trains := make([]*model.Train, 0, len(d.Trains))
	for _, rec := range d.Trains {
		tr, err := rec.Train()
		if err != nil {
			return nil, err
		}
		trains = append(trains, tr)
	}
	return trains, nil
}

// Train converts one record into an engine train.
func (r TrainRecord) Train() (*model.Train, error) {
	dep, err := parseClock(r.Departure)
	if err != nil {
		return nil, fmt.Errorf("railfile: train %s: departure: %w", r.ID, err)
	}

	tr := &model.Train{
		ID:           r.ID,
		Code:         r.Code,
		Name:         r.Name,
		Category:     r.Category,
		LineID:       r.LineID,
		MaxSpeed:     r.MaxSpeed,
		Acceleration: r.Acceleration,
		Deceleration: r.Deceleration,
		Priority:     r.Priority,
		Departure:    dep,
		Stops:        make([]model.Stop, len(r.Stops)),
	}
	for i, s := range r.Stops {
		stop := model.Stop{
			StationID: s.StationID,
			Platform:  s.Platform,
			MinDwell:  time.Duration(s.MinDwellTime) * time.Minute,
			Skip:      s.Skip,
		}
		if s.PlannedArrival != "" {
			at, err := parseClock(s.PlannedArrival)
			if err != nil {
				return nil, fmt.Errorf("railfile: train %s stop %s: plannedArrival: %w", r.ID, s.StationID, err)
			}
			stop.PlannedArrival = &at
		}
		if s.PlannedDeparture != "" {
			dt, err := parseClock(s.PlannedDeparture)
			if err != nil {
				return nil, fmt.Errorf("railfile: train %s stop %s: plannedDeparture: %w", r.ID, s.StationID, err)
			}
			stop.PlannedDeparture = &dt
		}
		tr.Stops[i] = stop
	}
	if err := tr.Validate(); err != nil {
		return nil, fmt.Errorf("railfile: %w", err)
	}
	return tr, nil
}

func parseClock(s string) (time.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return model.NormalizeClock(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid clock time %q", s)
}
