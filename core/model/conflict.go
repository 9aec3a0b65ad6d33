package model

import (
	"fmt"
	"time"
)

// ConflictKind distinguishes the two occupancy categories.
type ConflictKind string

const (
	ConflictStation ConflictKind = "station"
	ConflictTrack   ConflictKind = "track"
)

// Conflict is a detected occupancy overlap between two trains. Conflicts
// are recomputed on every detection pass and never persisted.
type Conflict struct {
	Kind     ConflictKind `json:"kind"`
	Location string       `json:"location"` // station id or segment key
	TrainA   string       `json:"trainA"`
	TrainB   string       `json:"trainB"`
	NameA    string       `json:"nameA"`
	NameB    string       `json:"nameB"`
	Start    time.Time    `json:"start"` // max of the two interval starts
	End      time.Time    `json:"end"`   // min of the two interval ends
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s conflict at %s between %s and %s (%s-%s)",
		c.Kind, c.Location, c.NameA, c.NameB,
		c.Start.Format("15:04:05"), c.End.Format("15:04:05"))
}

// Involves reports whether the train takes part in the conflict.
func (c Conflict) Involves(trainID string) bool {
	return c.TrainA == trainID || c.TrainB == trainID
}

// Adjustment is a proposed correction for one train, produced by the
// priority resolver, the population optimizer or the external oracle.
type Adjustment struct {
	TrainID string `json:"trainId"`
	// ShiftMinutes moves the nominal departure, signed.
	ShiftMinutes float64 `json:"timeAdjustmentMinutes"`
	// DwellDelays is aligned to the stop index; missing entries mean zero.
	DwellDelays []float64 `json:"dwellDelays,omitempty"`
	// TrackHint is advisory and may not map onto a valid platform number.
	TrackHint  string  `json:"trackAssignment,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}
