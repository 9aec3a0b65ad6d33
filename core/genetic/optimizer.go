// Package genetic searches for a low-disruption set of schedule
// adjustments for a batch of new trains against a fixed existing fleet.
// One individual is one candidate adjustment vector: a departure shift,
// per-stop dwell extensions and an optional platform reassignment per new
// train. Fitness weighs conflicts far above accumulated delay.
package genetic

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/manvalan/fdc-railway-engine/core/conflict"
	"github.com/manvalan/fdc-railway-engine/core/logger"
	"github.com/manvalan/fdc-railway-engine/core/model"
	"github.com/manvalan/fdc-railway-engine/core/network"
	"github.com/manvalan/fdc-railway-engine/core/timetable"
	"github.com/manvalan/fdc-railway-engine/internal/eventbus"
)

// Status reports where a search run ended up.
type Status int

const (
	StatusRunning Status = iota
	StatusConverged
	StatusIncomplete // generation budget exhausted with conflicts left
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusConverged:
		return "converged"
	case StatusIncomplete:
		return "incomplete"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Config holds the search parameters. The weights are heuristic and
// deliberately configurable.
type Config struct {
	PopulationSize  int     `json:"population_size"`
	Generations     int     `json:"generations"`
	EliteFraction   float64 `json:"elite_fraction"`
	MutationRate    float64 `json:"mutation_rate"`
	MaxShiftMinutes int     `json:"max_shift_minutes"`
	MaxDwellMinutes int     `json:"max_dwell_minutes"`
	ConflictWeight  float64 `json:"conflict_weight"`
	DelayWeight     float64 `json:"delay_weight"`
	// Seed fixes the random source; 0 derives one from the clock.
	Seed int64 `json:"seed"`
}

// SetDefaults applies the stock search parameters.
func (c *Config) SetDefaults() {
	if c.PopulationSize <= 0 {
		c.PopulationSize = 40
	}
	if c.Generations <= 0 {
		c.Generations = 60
	}
	if c.EliteFraction <= 0 || c.EliteFraction >= 1 {
		c.EliteFraction = 0.25
	}
	if c.MutationRate <= 0 || c.MutationRate > 1 {
		c.MutationRate = 0.2
	}
	if c.MaxShiftMinutes <= 0 {
		c.MaxShiftMinutes = 30
	}
	if c.MaxDwellMinutes <= 0 {
		c.MaxDwellMinutes = 10
	}
	if c.ConflictWeight <= 0 {
		c.ConflictWeight = 1000
	}
	if c.DelayWeight <= 0 {
		c.DelayWeight = 1
	}
}

// Progress is the externally visible search state, published on the event
// bus every generation and queryable at any time.
type Progress struct {
	Generation    int
	BestConflicts int
	BestFitness   float64
	Status        Status
}

// Result is the outcome of a search run.
type Result struct {
	// Trains are adjusted clones of the new trains; the inputs are never
	// mutated.
	Trains           []*model.Train
	InitialConflicts int
	FinalConflicts   int
	Generations      int
	Status           Status
}

// gene is the adjustment for one train.
type gene struct {
	shiftMin int   // signed departure shift, minutes
	dwellMin []int // extra dwell per interior stop, minutes, >= 0
	platform int   // platform to assign at every stop, 0 = keep
}

type individual struct {
	genes     []gene
	fitness   float64
	conflicts int
}

// Optimizer runs the population search.
type Optimizer struct {
	prop  *timetable.Propagator
	paths network.PathService
	cfg   Config
	log   logger.Logger
	bus   *eventbus.Bus[Progress]
	rng   *rand.Rand

	mu       sync.Mutex
	progress Progress
}

// New returns an Optimizer. Config defaults are applied.
func New(prop *timetable.Propagator, paths network.PathService, cfg Config, log logger.Logger) *Optimizer {
	cfg.SetDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Optimizer{
		prop:  prop,
		paths: paths,
		cfg:   cfg,
		log:   log,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

// SetEventBus wires a bus for per-generation progress events.
func (o *Optimizer) SetEventBus(bus *eventbus.Bus[Progress]) { o.bus = bus }

// Progress returns the latest published search state.
func (o *Optimizer) Progress() Progress {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.progress
}

// Optimize searches for adjustments to newTrains that minimize conflicts
// against the existing fleet, then delay. The context is checked at the
// top of every generation; on cancellation the best individual found so
// far is still returned with StatusCancelled.
func (o *Optimizer) Optimize(ctx context.Context, newTrains, existing []*model.Train) Result {
	existingTables, _ := o.prop.RefreshAll(existing)

	if len(newTrains) == 0 {
		n := len(conflict.Detect(existingTables))
		return Result{InitialConflicts: n, FinalConflicts: n, Status: StatusConverged}
	}

	// The zero individual doubles as the baseline measurement.
	zero := individual{genes: o.zeroGenes(newTrains)}
	o.evaluate(&zero, newTrains, existingTables)
	initial := zero.conflicts

	pop := make([]individual, 0, o.cfg.PopulationSize)
	pop = append(pop, zero)
	for len(pop) < o.cfg.PopulationSize {
		ind := individual{genes: o.randomGenes(newTrains)}
		o.evaluate(&ind, newTrains, existingTables)
		pop = append(pop, ind)
	}

	best := fittest(pop)
	status := StatusIncomplete
	gen := 0
	for ; gen < o.cfg.Generations; gen++ {
		if ctx.Err() != nil {
			status = StatusCancelled
			break
		}
		if best.conflicts == 0 {
			status = StatusConverged
			break
		}

		pop = o.nextGeneration(pop, newTrains, existingTables)
		if cand := fittest(pop); cand.fitness < best.fitness {
			best = cand
		}
		o.report(Progress{Generation: gen + 1, BestConflicts: best.conflicts, BestFitness: best.fitness, Status: StatusRunning})
	}
	if status == StatusIncomplete && best.conflicts == 0 {
		status = StatusConverged
	}
	if status == StatusIncomplete {
		o.log.Warnf("optimization incomplete after %d generations, %d conflicts remain", gen, best.conflicts)
	}

	o.report(Progress{Generation: gen, BestConflicts: best.conflicts, BestFitness: best.fitness, Status: status})
	return Result{
		Trains:           o.apply(best.genes, newTrains),
		InitialConflicts: initial,
		FinalConflicts:   best.conflicts,
		Generations:      gen,
		Status:           status,
	}
}

func (o *Optimizer) report(p Progress) {
	o.mu.Lock()
	o.progress = p
	o.mu.Unlock()
	if o.bus != nil {
		o.bus.Publish(p)
	}
}

func fittest(pop []individual) individual {
	best := pop[0]
	for _, ind := range pop[1:] {
		if ind.fitness < best.fitness {
			best = ind
		}
	}
	return best
}

// nextGeneration keeps the elite fraction and refills the population with
// mutated crossover offspring of random elites.
func (o *Optimizer) nextGeneration(pop []individual, newTrains []*model.Train, existing []timetable.Timetable) []individual {
	sort.Slice(pop, func(i, j int) bool { return pop[i].fitness < pop[j].fitness })
	eliteN := int(float64(len(pop)) * o.cfg.EliteFraction)
	if eliteN < 2 {
		eliteN = 2
	}

	next := make([]individual, 0, len(pop))
	next = append(next, pop[:eliteN]...)
	for len(next) < len(pop) {
		a := pop[o.rng.Intn(eliteN)]
		b := pop[o.rng.Intn(eliteN)]
		child := individual{genes: o.mutate(o.crossover(a.genes, b.genes))}
		o.evaluate(&child, newTrains, existing)
		next = append(next, child)
	}
	return next
}

// evaluate applies the genes to clones, propagates, merges with the
// existing timetables and scores the result.
func (o *Optimizer) evaluate(ind *individual, newTrains []*model.Train, existing []timetable.Timetable) {
	adjusted := o.apply(ind.genes, newTrains)
	tables := make([]timetable.Timetable, 0, len(existing)+len(adjusted))
	tables = append(tables, existing...)

	delayMin := 0.0
	for i, tr := range adjusted {
		tt, err := o.prop.Propagate(tr)
		if err != nil {
			// An unreachable or invalid train cannot be fixed by search.
			continue
		}
		tables = append(tables, tt)
		delayMin += geneDelayMinutes(ind.genes[i])
	}

	ind.conflicts = len(conflict.Detect(tables))
	ind.fitness = float64(ind.conflicts)*o.cfg.ConflictWeight + delayMin*o.cfg.DelayWeight
}

func geneDelayMinutes(g gene) float64 {
	d := float64(abs(g.shiftMin))
	for _, m := range g.dwellMin {
		d += float64(m)
	}
	return d
}

// apply builds adjusted clones of the new trains from the genes.
func (o *Optimizer) apply(genes []gene, newTrains []*model.Train) []*model.Train {
	out := make([]*model.Train, len(newTrains))
	for i, tr := range newTrains {
		cp := tr.Clone()
		g := genes[i]
		cp.Stops[0].ExtraDwell += time.Duration(g.shiftMin) * time.Minute
		for j, m := range g.dwellMin {
			cp.Stops[j+1].ExtraDwell += time.Duration(m) * time.Minute
		}
		if g.platform > 0 {
			for j := range cp.Stops {
				if st, ok := o.paths.Station(cp.Stops[j].StationID); ok && g.platform <= st.Platforms {
					cp.Stops[j].Platform = g.platform
				}
			}
		}
		cp.TotalDelay += time.Duration(geneDelayMinutes(g)) * time.Minute
		out[i] = cp
	}
	return out
}

func (o *Optimizer) zeroGenes(newTrains []*model.Train) []gene {
	genes := make([]gene, len(newTrains))
	for i, tr := range newTrains {
		genes[i] = gene{dwellMin: make([]int, interiorStops(tr))}
	}
	return genes
}

func (o *Optimizer) randomGenes(newTrains []*model.Train) []gene {
	genes := o.zeroGenes(newTrains)
	for i := range genes {
		genes[i].shiftMin = o.rng.Intn(2*o.cfg.MaxShiftMinutes+1) - o.cfg.MaxShiftMinutes
		for j := range genes[i].dwellMin {
			genes[i].dwellMin[j] = o.rng.Intn(o.cfg.MaxDwellMinutes + 1)
		}
		genes[i].platform = o.rng.Intn(maxPlatforms(o.paths, newTrains[i]) + 1)
	}
	return genes
}

// crossover mixes whole per-train genes from the two parents.
func (o *Optimizer) crossover(a, b []gene) []gene {
	child := make([]gene, len(a))
	for i := range a {
		src := a[i]
		if o.rng.Intn(2) == 1 {
			src = b[i]
		}
		child[i] = gene{
			shiftMin: src.shiftMin,
			dwellMin: append([]int(nil), src.dwellMin...),
			platform: src.platform,
		}
	}
	return child
}

// mutate perturbs a subset of genes in place.
func (o *Optimizer) mutate(genes []gene) []gene {
	for i := range genes {
		if o.rng.Float64() >= o.cfg.MutationRate {
			continue
		}
		switch o.rng.Intn(3) {
		case 0:
			genes[i].shiftMin = clamp(genes[i].shiftMin+o.rng.Intn(11)-5, -o.cfg.MaxShiftMinutes, o.cfg.MaxShiftMinutes)
		case 1:
			if len(genes[i].dwellMin) > 0 {
				j := o.rng.Intn(len(genes[i].dwellMin))
				genes[i].dwellMin[j] = clamp(genes[i].dwellMin[j]+o.rng.Intn(5)-2, 0, o.cfg.MaxDwellMinutes)
			}
		case 2:
			genes[i].platform = o.rng.Intn(8)
		}
	}
	return genes
}

func interiorStops(tr *model.Train) int {
	n := len(tr.Stops) - 2
	if n < 0 {
		return 0
	}
	return n
}

func maxPlatforms(paths network.PathService, tr *model.Train) int {
	max := 0
	for _, s := range tr.Stops {
		if st, ok := paths.Station(s.StationID); ok && st.Platforms > max {
			max = st.Platforms
		}
	}
	return max
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
