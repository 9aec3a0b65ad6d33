package oracle

import (
	"github.com/manvalan/fdc-railway-engine/core/model"
)

// Request is the snapshot sent to the optimization oracle: the network
// topology, every train's current timetable and the baseline conflicts.
type Request struct {
	Stations  []model.Station  `json:"stations"`
	Segments  []model.Segment  `json:"segments"`
	Trains    []TrainSnapshot  `json:"trains"`
	Conflicts []model.Conflict `json:"conflicts"`
}

// TrainSnapshot is one train with its propagated times.
type TrainSnapshot struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	Priority  int          `json:"priority"`
	New       bool         `json:"new"` // part of the batch being inserted
	Departure string       `json:"departure"`
	Stops     []model.Stop `json:"stops"`
}

// Response carries the oracle's proposed adjustments. The track hints are
// advisory: they are not guaranteed to map onto physically valid platform
// numbers and must be validated locally before use.
type Response struct {
	Adjustments []model.Adjustment `json:"adjustments"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
}
