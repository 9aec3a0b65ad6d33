package model

import (
	"fmt"
	"time"
)

// Stop is one element of a train's route. Arrival and Departure are
// computed by the propagator; PlannedArrival and PlannedDeparture pin a
// stop to a published timetable entry and take precedence over the
// computed values (a plan can extend a dwell, never shorten it).
type Stop struct {
	StationID  string        `json:"stationId"`
	Platform   int           `json:"platform"` // 0 = unassigned
	MinDwell   time.Duration `json:"minDwell"`
	ExtraDwell time.Duration `json:"extraDwell"` // accumulated resolution penalty
	Skip       bool          `json:"skip"`       // pass-through, zero dwell

	PlannedArrival   *time.Time `json:"plannedArrival,omitempty"`
	PlannedDeparture *time.Time `json:"plannedDeparture,omitempty"`

	Arrival   *time.Time `json:"arrival,omitempty"`   // nil on the first stop
	Departure *time.Time `json:"departure,omitempty"` // nil on the last stop
}

// Dwell returns the effective dwell time of the stop.
func (s Stop) Dwell() time.Duration {
	if s.Skip {
		return 0
	}
	return s.MinDwell + s.ExtraDwell
}

// Train is a scheduled service over the network.
type Train struct {
	ID       string `json:"id"`
	Code     int    `json:"code"`
	Name     string `json:"name"`
	Category string `json:"category"`
	LineID   string `json:"lineId,omitempty"`

	MaxSpeed     float64 `json:"maxSpeed"`     // km/h
	Acceleration float64 `json:"acceleration"` // m/s²
	Deceleration float64 `json:"deceleration"` // m/s²
	Priority     int     `json:"priority"`     // 1-10, lower is delayed first

	Departure time.Time `json:"departure"` // nominal departure, time of day
	Stops     []Stop    `json:"stops"`

	// TotalDelay accumulates the resolution deltas applied to this train.
	TotalDelay time.Duration `json:"totalDelay"`
}

// Validate rejects trains that cannot be scheduled at all.
func (t *Train) Validate() error {
	if len(t.Stops) < 2 {
		return fmt.Errorf("train %s: route needs at least two stops", t.ID)
	}
	if t.MaxSpeed <= 0 {
		return fmt.Errorf("train %s: max speed must be positive", t.ID)
	}
	if t.Acceleration <= 0 || t.Deceleration <= 0 {
		return fmt.Errorf("train %s: acceleration and deceleration must be positive", t.ID)
	}
	return nil
}

// Clone returns a deep copy of the train. Resolution passes operate on
// clones so a cancelled run never touches the shared fleet.
func (t *Train) Clone() *Train {
	cp := *t
	cp.Stops = make([]Stop, len(t.Stops))
	copy(cp.Stops, t.Stops)
	for i, s := range t.Stops {
		if s.PlannedArrival != nil {
			v := *s.PlannedArrival
			cp.Stops[i].PlannedArrival = &v
		}
		if s.PlannedDeparture != nil {
			v := *s.PlannedDeparture
			cp.Stops[i].PlannedDeparture = &v
		}
		if s.Arrival != nil {
			v := *s.Arrival
			cp.Stops[i].Arrival = &v
		}
		if s.Departure != nil {
			v := *s.Departure
			cp.Stops[i].Departure = &v
		}
	}
	return &cp
}

// ResetExtraDwell clears the accumulated resolution penalties. Called
// before every full resolution cycle so repeated runs do not drift.
func (t *Train) ResetExtraDwell() {
	for i := range t.Stops {
		t.Stops[i].ExtraDwell = 0
	}
	t.TotalDelay = 0
}
