// Package resolver implements the fast local conflict-resolution
// heuristic: the lower-priority train of every conflicting pair is pushed
// back by a fixed increment until detection comes up empty or the
// iteration budget runs out.
package resolver

import (
	"strings"
	"time"

	"github.com/manvalan/fdc-railway-engine/core/conflict"
	"github.com/manvalan/fdc-railway-engine/core/logger"
	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/timetable"
)

// State is the resolver's state machine position.
type State int

const (
	StateDetecting State = iota
	StateResolving
	StateConverged // terminal: no conflicts remain
	StateExhausted // terminal: iteration cap hit with conflicts remaining
)

func (s State) String() string {
	switch s {
	case StateDetecting:
		return "detecting"
	case StateResolving:
		return "resolving"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	}
	return "unknown"
}

// Config holds the resolver tuning knobs. The defaults are heuristic, not
// derived; they are configuration precisely so deployments can revisit them.
type Config struct {
	DelayIncrementMinutes int `json:"delay_increment_minutes"`
	MaxIterations         int `json:"max_iterations"`
}

// SetDefaults applies the stock increment and iteration cap.
func (c *Config) SetDefaults() {
	if c.DelayIncrementMinutes <= 0 {
		c.DelayIncrementMinutes = 5
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = 15
	}
}

// Report is the outcome of a resolution run. Exhaustion is reported, not
// returned as an error: the reached schedule is still the best available.
type Report struct {
	State      State
	Iterations int
	Residual   []model.Conflict
	Delayed    map[string]time.Duration // delay applied per train this run
}

// Resolver is the local greedy heuristic.
type Resolver struct {
	prop *timetable.Propagator
	cfg  Config
	log  logger.Logger
}

// New returns a Resolver. Config defaults are applied.
func New(prop *timetable.Propagator, cfg Config, log logger.Logger) *Resolver {
	cfg.SetDefaults()
	return &Resolver{prop: prop, cfg: cfg, log: log}
}

// Resolve mutates the trains until no conflicts remain or the iteration
// cap is reached. Conflicts are processed in the detector's sorted order,
// so identical input yields identical output.
func (r *Resolver) Resolve(trains []*model.Train) Report {
	byID := make(map[string]*model.Train, len(trains))
	for _, tr := range trains {
		byID[tr.ID] = tr
	}
	increment := time.Duration(r.cfg.DelayIncrementMinutes) * time.Minute
	report := Report{State: StateDetecting, Delayed: make(map[string]time.Duration)}

	for iter := 0; ; iter++ {
		tables, _ := r.prop.RefreshAll(trains)
		conflicts := conflict.Detect(tables)
		if len(conflicts) == 0 {
			report.State = StateConverged
			report.Iterations = iter
			return report
		}
		if iter >= r.cfg.MaxIterations {
			r.log.Warnf("resolution exhausted after %d iterations, %d conflicts remain", iter, len(conflicts))
			report.State = StateExhausted
			report.Iterations = iter
			report.Residual = conflicts
			return report
		}

		report.State = StateResolving
		for _, c := range conflicts {
			victim := lowerPriority(byID[c.TrainA], byID[c.TrainB])
			if victim == nil {
				continue
			}
			r.delayFrom(victim, c, increment)
			victim.TotalDelay += increment
			report.Delayed[victim.ID] += increment
		}
	}
}

// lowerPriority picks the train to delay: the lowest priority, ties broken
// by train id so repeated runs agree.
func lowerPriority(a, b *model.Train) *model.Train {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.Priority != b.Priority:
		if a.Priority < b.Priority {
			return a
		}
		return b
	case a.ID > b.ID:
		return a
	default:
		return b
	}
}

// delayFrom pushes the train back from the conflict's location onward.
// Stops already behind the train at that point must not move, so the delay
// is injected as extra dwell at the stop just upstream of the conflict.
// At the origin the extra dwell holds the departure itself.
func (r *Resolver) delayFrom(tr *model.Train, c model.Conflict, d time.Duration) {
	idx := r.conflictStopIndex(tr, c)
	upstream := idx - 1
	if upstream < 0 {
		upstream = 0
	}
	tr.Stops[upstream].ExtraDwell += d
}

// conflictStopIndex locates the stop at (station conflict) or just after
// (track conflict) the conflict point. Returns 0 when the conflict is at
// the origin or cannot be located.
func (r *Resolver) conflictStopIndex(tr *model.Train, c model.Conflict) int {
	if c.Kind == model.ConflictStation {
		for i, s := range tr.Stops {
			if s.StationID == c.Location {
				return i
			}
		}
		return 0
	}
	// Track conflict: find the transit leg whose interval covers the
	// overlap, then delay the departure that starts it.
	for i := 0; i+1 < len(tr.Stops); i++ {
		dep := tr.Stops[i].Departure
		arr := tr.Stops[i+1].Arrival
		if dep == nil || arr == nil {
			continue
		}
		if !dep.After(c.Start) && !arr.Before(c.End) {
			return i + 1
		}
	}
	return 0
}

// Summary renders a short human-readable account of the run.
func (r Report) Summary() string {
	var b strings.Builder
	b.WriteString(r.State.String())
	if len(r.Residual) > 0 {
		b.WriteString(": unresolved")
		for i, c := range r.Residual {
			if i == 5 {
				b.WriteString(", ...")
				break
			}
			b.WriteString(" [" + c.String() + "]")
		}
	}
	return b.String()
}
