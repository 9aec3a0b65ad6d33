// Package app assembles the engine from its configuration: network
// document, propagator, resolvers, optional oracle and metrics.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/manvalan/fdc-railway-engine/config"
	"github.com/manvalan/fdc-railway-engine/core/genetic"
	"github.com/manvalan/fdc-railway-engine/core/metrics"
	"github.com/manvalan/fdc-railway-engine/core/network"
	"github.com/manvalan/fdc-railway-engine/core/pipeline"
	"github.com/manvalan/fdc-railway-engine/core/resolver"
	"github.com/manvalan/fdc-railway-engine/core/timetable"
	infralogger "github.com/manvalan/fdc-railway-engine/infra/logger"
	inframetrics "github.com/manvalan/fdc-railway-engine/infra/metrics"
	"github.com/manvalan/fdc-railway-engine/internal/eventbus"
	"github.com/manvalan/fdc-railway-engine/internal/railfile"
	"github.com/manvalan/fdc-railway-engine/oracle"
)

// Service holds a fully wired engine for one network document.
type Service struct {
	Doc      *railfile.Document
	Net      *network.Network
	Pipeline *pipeline.Pipeline
	Bus      *eventbus.Bus[genetic.Progress]

	cfg *config.Config
	log infralogger.Logger
}

// New loads the network document at path and wires the engine.
func New(cfg *config.Config, networkPath string) (*Service, error) {
	logg := infralogger.New("service")

	doc, err := railfile.Load(networkPath)
	if err != nil {
		return nil, fmt.Errorf("load network: %w", err)
	}
	net, err := doc.Network()
	if err != nil {
		return nil, fmt.Errorf("build network: %w", err)
	}

	prop := timetable.NewPropagator(net, infralogger.New("timetable"))
	local := resolver.New(prop, cfg.Resolver, infralogger.New("resolver"))

	bus := eventbus.New[genetic.Progress]()
	opt := genetic.New(prop, net, cfg.Genetic, infralogger.New("genetic"))
	opt.SetEventBus(bus)

	var orc oracle.Proposer
	if cfg.Oracle.Enabled {
		orc = oracle.NewClient(cfg.Oracle, infralogger.New("oracle"))
	}

	var sink metrics.Sink
	if cfg.Metrics.Enabled {
		sink = inframetrics.NewPromSink(prometheus.DefaultRegisterer)
	}

	pipe := pipeline.New(net, prop, local, opt, orc, sink, infralogger.New("pipeline"))

	logg.Infof("network %s: %d stations, %d segments, %d lines, %d timetabled trains",
		doc.Name, len(doc.Nodes), len(doc.Edges), len(doc.Lines), len(doc.Trains))
	return &Service{Doc: doc, Net: net, Pipeline: pipe, Bus: bus, cfg: cfg, log: logg}, nil
}

// StartMetrics serves /metrics when enabled; it returns immediately and
// the server shuts down with the context.
func (s *Service) StartMetrics(ctx context.Context) {
	if !s.cfg.Metrics.Enabled {
		return
	}
	go func() {
		if err := inframetrics.StartPromServer(ctx, s.cfg.Metrics.Addr); err != nil {
			s.log.Errorf("metrics server: %v", err)
		}
	}()
}

// WatchProgress logs optimizer generations until the bus closes or the
// context ends. Call it in a goroutine before a run.
func (s *Service) WatchProgress(ctx context.Context) {
	ch := s.Bus.Subscribe()
	defer s.Bus.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-ch:
			if !ok {
				return
			}
			s.log.Debugf("generation %d: best fitness %.1f, %d conflicts",
				p.Generation, p.BestFitness, p.BestConflicts)
		}
	}
}

// Close releases the progress bus.
func (s *Service) Close() error {
	s.Bus.Close()
	return nil
}
