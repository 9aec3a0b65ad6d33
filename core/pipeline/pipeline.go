// Package pipeline orchestrates a full resolution cycle: baseline
// detection, an optional external oracle round-trip, a genetic refinement
// pass and final re-verification. The pipeline is the sole writer of the
// fleet during a run, and it operates on clones of the new trains so a
// cancelled run leaves the existing fleet untouched.
package pipeline

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/manvalan/fdc-railway-engine/core/conflict"
	"github.com/manvalan/fdc-railway-engine/core/genetic"
	"github.com/manvalan/fdc-railway-engine/core/logger"
	"github.com/manvalan/fdc-railway-engine/core/metrics"
	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/network"
	"github.com/manvalan/fdc-railway-engine/core/resolver"
	"github.com/manvalan/fdc-railway-engine/core/timetable"
	"github.com/manvalan/fdc-railway-engine/oracle"
)

// residualDisplayCap bounds the conflicts surfaced in summaries; the full
// list always travels with the Result.
const residualDisplayCap = 5

// NetworkView is the graph access the pipeline needs: path lookups plus a
// serializable snapshot for the oracle.
type NetworkView interface {
	network.PathService
	Snapshot() ([]model.Station, []model.Segment)
}

// Result reports a completed (or cancelled) pipeline run.
type Result struct {
	RunID             string
	Trains            []*model.Train // merged fleet: existing + refined new trains
	BaselineConflicts int
	ResidualConflicts int
	Residual          []model.Conflict
	OracleApplied     bool
	OptimizerStatus   genetic.Status
	Cancelled         bool
}

// DisplayResidual returns the residual conflicts capped for display.
func (r Result) DisplayResidual() []model.Conflict {
	if len(r.Residual) <= residualDisplayCap {
		return r.Residual
	}
	return r.Residual[:residualDisplayCap]
}

// Pipeline wires the engine components together.
type Pipeline struct {
	net   NetworkView
	prop  *timetable.Propagator
	local *resolver.Resolver
	opt   *genetic.Optimizer
	orc   oracle.Proposer // nil when no oracle is configured
	sink  metrics.Sink
	log   logger.Logger
}

// New builds a Pipeline. orc may be nil; sink may be nil for no metrics.
func New(net NetworkView, prop *timetable.Propagator, local *resolver.Resolver,
	opt *genetic.Optimizer, orc oracle.Proposer, sink metrics.Sink, log logger.Logger) *Pipeline {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Pipeline{net: net, prop: prop, local: local, opt: opt, orc: orc, sink: sink, log: log}
}

// RefreshSchedules propagates the whole fleet in place, returning the
// per-train errors of the trains that could not be scheduled.
func (p *Pipeline) RefreshSchedules(trains []*model.Train) map[string]error {
	_, failed := p.prop.RefreshAll(trains)
	return failed
}

// DetectConflicts propagates and detects in one step.
func (p *Pipeline) DetectConflicts(trains []*model.Train) []model.Conflict {
	tables, _ := p.prop.RefreshAll(trains)
	conflicts := conflict.Detect(tables)
	p.recordConflicts(conflicts)
	return conflicts
}

// ResolveLocally runs the fast priority heuristic over the fleet.
func (p *Pipeline) ResolveLocally(trains []*model.Train) resolver.Report {
	return p.local.Resolve(trains)
}

// Execute runs the hybrid resolution cycle for a batch of new trains
// against the existing fleet. On cancellation the existing fleet is
// returned unmodified and Result.Cancelled is set.
func (p *Pipeline) Execute(ctx context.Context, newTrains, existing []*model.Train, useOracle bool) (Result, error) {
	start := time.Now()
	res := Result{RunID: uuid.NewString()}

	// Work on clones with clean accumulators so repeated invocations on
	// the same batch cannot drift.
	batch := make([]*model.Train, len(newTrains))
	for i, tr := range newTrains {
		batch[i] = tr.Clone()
		batch[i].ResetExtraDwell()
	}

	all := append(append([]*model.Train{}, existing...), batch...)
	tables, failed := p.prop.RefreshAll(all)
	baseline := conflict.Detect(tables)
	res.BaselineConflicts = len(baseline)
	p.recordConflicts(baseline)
	p.log.Infof("run %s: %d baseline conflicts, %d trains unschedulable", res.RunID, len(baseline), len(failed))

	if err := ctx.Err(); err != nil {
		res.Cancelled = true
		res.Trains = existing
		return res, err
	}

	if useOracle && p.orc != nil {
		res.OracleApplied = p.consultOracle(ctx, batch, all, baseline)
	}

	if err := ctx.Err(); err != nil {
		res.Cancelled = true
		res.Trains = existing
		return res, err
	}

	// Refinement pass: the oracle's hints are advisory, so local search
	// always re-validates and fixes what they missed.
	optRes := p.opt.Optimize(ctx, batch, existing)
	res.OptimizerStatus = optRes.Status
	if optRes.Status == genetic.StatusCancelled {
		res.Cancelled = true
		res.Trains = existing
		return res, ctx.Err()
	}

	merged := append(append([]*model.Train{}, existing...), optRes.Trains...)
	finalTables, _ := p.prop.RefreshAll(merged)
	res.Residual = conflict.Detect(finalTables)
	res.ResidualConflicts = len(res.Residual)
	res.Trains = merged

	p.sink.RecordResolution(metrics.ResolutionEvent{
		RunID:             res.RunID,
		BaselineConflicts: res.BaselineConflicts,
		ResidualConflicts: res.ResidualConflicts,
		Generations:       optRes.Generations,
		OracleUsed:        res.OracleApplied,
		Duration:          time.Since(start),
	})
	if res.ResidualConflicts > 0 {
		p.log.Warnf("run %s: %d residual conflicts after resolution", res.RunID, res.ResidualConflicts)
		for _, c := range res.DisplayResidual() {
			p.log.Warnf("run %s: residual: %s", res.RunID, c)
		}
	} else {
		p.log.Infof("run %s: resolved %d conflicts in %s", res.RunID, res.BaselineConflicts, time.Since(start).Round(time.Millisecond))
	}
	return res, nil
}

// consultOracle sends the snapshot and applies the proposal to the batch.
// Every failure degrades to local-only resolution.
func (p *Pipeline) consultOracle(ctx context.Context, batch, all []*model.Train, baseline []model.Conflict) bool {
	stations, segments := p.net.Snapshot()
	req := oracle.Request{Stations: stations, Segments: segments, Conflicts: baseline}

	inBatch := make(map[string]*model.Train, len(batch))
	for _, tr := range batch {
		inBatch[tr.ID] = tr
	}
	for _, tr := range all {
		_, isNew := inBatch[tr.ID]
		req.Trains = append(req.Trains, oracle.TrainSnapshot{
			ID:        tr.ID,
			Name:      tr.Name,
			Category:  tr.Category,
			Priority:  tr.Priority,
			New:       isNew,
			Departure: tr.Departure.Format("15:04:05"),
			Stops:     tr.Stops,
		})
	}

	resp, err := p.orc.Propose(ctx, req)
	if err != nil {
		p.log.Warnf("oracle unavailable, continuing with local resolution: %v", err)
		return false
	}

	applied := false
	for _, adj := range resp.Adjustments {
		tr, ok := inBatch[adj.TrainID]
		if !ok {
			continue
		}
		p.applyAdjustment(tr, adj)
		applied = true
	}
	return applied
}

// applyAdjustment maps an oracle proposal onto a train. The track hint is
// not trusted blindly: it is applied only where it names a platform the
// station actually has.
func (p *Pipeline) applyAdjustment(tr *model.Train, adj model.Adjustment) {
	tr.Stops[0].ExtraDwell += time.Duration(adj.ShiftMinutes * float64(time.Minute))
	tr.TotalDelay += time.Duration(adj.ShiftMinutes * float64(time.Minute))

	for i, m := range adj.DwellDelays {
		if m <= 0 || i == 0 || i >= len(tr.Stops)-1 {
			continue
		}
		d := time.Duration(m * float64(time.Minute))
		tr.Stops[i].ExtraDwell += d
		tr.TotalDelay += d
	}

	if adj.TrackHint != "" {
		platform, err := strconv.Atoi(adj.TrackHint)
		if err != nil || platform <= 0 {
			p.log.Debugf("train %s: discarding unusable track hint %q", tr.ID, adj.TrackHint)
			return
		}
		for i := range tr.Stops {
			if st, ok := p.net.Station(tr.Stops[i].StationID); ok && platform <= st.Platforms {
				tr.Stops[i].Platform = platform
			}
		}
	}
}

func (p *Pipeline) recordConflicts(conflicts []model.Conflict) {
	counts := map[string]int{}
	for _, c := range conflicts {
		counts[string(c.Kind)]++
	}
	for kind, n := range counts {
		p.sink.RecordConflicts(kind, n)
	}
}
