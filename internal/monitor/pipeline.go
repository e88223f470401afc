package monitor

import (
	"context"
	"time"

	"github.com/p0l0/xknx/internal/dpt"
	"github.com/p0l0/xknx/internal/infrastructure/logging"
)

// Sink receives every event produced by the pipeline.
type Sink interface {
	Name() string
	HandleEvent(ctx context.Context, ev Event) error
}

// StatsSink is implemented by sinks that also publish periodic counter
// snapshots.
type StatsSink interface {
	PublishStats(ctx context.Context, snap Snapshot) error
}

// Source supplies datagrams to Run. *Receiver implements it.
type Source interface {
	Datagrams() <-chan Datagram
	Dropped() uint64
}

// Pipeline decodes datagrams, counts them and hands them to sinks in order.
type Pipeline struct {
	logger   *logging.Logger
	stats    *Stats
	sinks    []Sink
	resolver dpt.Resolver
}

// NewPipeline creates a pipeline. A nil stats gets a fresh tracker.
func NewPipeline(logger *logging.Logger, stats *Stats, sinks ...Sink) *Pipeline {
	if stats == nil {
		stats = NewStats()
	}
	return &Pipeline{logger: logger, stats: stats, sinks: sinks}
}

// SetGroupTypes enables group value decoding for the addresses r
// resolves. Call before Run.
func (p *Pipeline) SetGroupTypes(r dpt.Resolver) {
	p.resolver = r
}

// Stats returns the tracker the pipeline records into.
func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// Process decodes one datagram, records it and delivers it to every sink.
// Sink failures are logged; the returned event reflects the decode only.
func (p *Pipeline) Process(ctx context.Context, dg Datagram) Event {
	ev := DecodeDatagram(dg)
	p.stats.Record(ev)
	if err := DecodeValue(&ev, p.resolver); err != nil {
		p.logger.Debug("group value decode failed",
			"source", ev.Record.Source,
			"error", err,
		)
	}

	switch {
	case ev.Err != nil:
		p.logger.Debug("frame decode failed",
			"source", ev.Record.Source,
			"bytes", len(dg.Data),
			"error", ev.Err,
		)
	case ev.Record.Error != "":
		p.logger.Debug("frame decoded without cEMI",
			"source", ev.Record.Source,
			"service_type", ev.Record.ServiceType.String(),
			"reason", ev.Record.Error,
		)
	default:
		p.logger.Debug("frame decoded",
			"source", ev.Record.Source,
			"service_type", ev.Record.ServiceType.String(),
		)
	}

	for _, sink := range p.sinks {
		if err := sink.HandleEvent(ctx, ev); err != nil {
			p.logger.Warn("sink failed",
				"sink", sink.Name(),
				"service_type", ev.Record.ServiceType.String(),
				"error", err,
			)
		}
	}
	return ev
}

// Run processes datagrams from src until its channel closes or ctx is
// cancelled. When statsInterval is positive a counter summary is logged
// and published to every StatsSink at that interval, and once more on exit.
func (p *Pipeline) Run(ctx context.Context, src Source, statsInterval time.Duration) {
	var tick <-chan time.Time
	if statsInterval > 0 {
		ticker := time.NewTicker(statsInterval)
		defer ticker.Stop()
		tick = ticker.C
		defer p.publishStats(context.WithoutCancel(ctx), src)
	}

	datagrams := src.Datagrams()
	for {
		select {
		case <-ctx.Done():
			return
		case dg, ok := <-datagrams:
			if !ok {
				return
			}
			p.stats.SetDropped(src.Dropped())
			p.Process(ctx, dg)
		case <-tick:
			p.publishStats(ctx, src)
		}
	}
}

func (p *Pipeline) publishStats(ctx context.Context, src Source) {
	p.stats.SetDropped(src.Dropped())
	snap := p.stats.Snapshot()

	p.logger.Info("frame statistics",
		"total", snap.Total(),
		"dropped", snap.Dropped,
		"routing_lost", snap.RoutingLost,
		"tunnel_gaps", snap.TunnelGaps,
		"services", len(snap.Services),
	)

	for _, sink := range p.sinks {
		ss, ok := sink.(StatsSink)
		if !ok {
			continue
		}
		if err := ss.PublishStats(ctx, snap); err != nil {
			p.logger.Warn("stats publish failed", "sink", sink.Name(), "error", err)
		}
	}
}
