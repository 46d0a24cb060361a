// Package pipeline runs one scrape, geocode, fetch, aggregate, and export
// pass over the ranked universities.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/campus-climate-etl/internal/domain"
	"github.com/couchcryptid/campus-climate-etl/internal/observability"
	"github.com/couchcryptid/campus-climate-etl/internal/report"
)

// RankingSource extracts the ranked universities.
type RankingSource interface {
	Scrape(ctx context.Context) ([]domain.RankedEntry, error)
}

// Exporter writes the final table to a sink.
type Exporter interface {
	Name() string
	Export(ctx context.Context, table domain.Table) error
}

// Options tune a run.
type Options struct {
	MaxUniversities int
	CountrySuffix   string
	Trimesters      []domain.Trimester

	// SkipFailures drops a university whose geocode or climate lookup fails
	// instead of aborting the run.
	SkipFailures bool

	// Pacer gates climate calls. Nil disables pacing.
	Pacer *Pacer

	// Out receives the text report. Nil disables it.
	Out io.Writer

	Clock clockwork.Clock
}

// Pipeline orchestrates a single extract-transform-load run.
type Pipeline struct {
	source    RankingSource
	geocoder  domain.Geocoder
	climate   domain.ClimateSource
	exporters []Exporter
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(
	source RankingSource,
	geocoder domain.Geocoder,
	climate domain.ClimateSource,
	exporters []Exporter,
	opts Options,
	logger *slog.Logger,
	metrics *observability.Metrics,
) *Pipeline {
	if len(opts.Trimesters) == 0 {
		opts.Trimesters = domain.DefaultTrimesters()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		source:    source,
		geocoder:  geocoder,
		climate:   climate,
		exporters: exporters,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the ranking pages have been scraped, or an
// error describing why the run is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("ranking pages have not been scraped yet")
	}
	return nil
}

// Run executes the whole pipeline once and returns the exported table.
func (p *Pipeline) Run(ctx context.Context) (domain.Table, error) {
	start := p.opts.Clock.Now()
	p.logger.Info("pipeline started",
		"max_universities", p.opts.MaxUniversities,
		"trimesters", len(p.opts.Trimesters),
		"skip_failures", p.opts.SkipFailures,
	)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	entries, err := p.source.Scrape(ctx)
	if err != nil {
		return domain.Table{}, fmt.Errorf("scrape: %w", err)
	}
	p.metrics.EntriesScraped.Add(float64(len(entries)))
	p.ready.Store(true)

	selected := domain.SelectTop(entries, p.opts.MaxUniversities)
	p.logger.Info("universities selected", "scraped", len(entries), "selected", len(selected))

	climates, err := p.collect(ctx, selected)
	if err != nil {
		return domain.Table{}, err
	}

	table, err := p.aggregate(climates)
	if err != nil {
		return domain.Table{}, err
	}

	if p.opts.Out != nil {
		if err := report.Write(p.opts.Out, table); err != nil {
			return domain.Table{}, fmt.Errorf("write report: %w", err)
		}
	}

	for _, e := range p.exporters {
		if err := e.Export(ctx, table); err != nil {
			return domain.Table{}, fmt.Errorf("export %s: %w", e.Name(), err)
		}
		p.metrics.RowsExported.WithLabelValues(e.Name()).Add(float64(len(table.Rows)))
		p.logger.Info("table exported", "sink", e.Name(), "rows", len(table.Rows))
	}

	elapsed := p.opts.Clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.logger.Info("pipeline finished", "rows", len(table.Rows), "duration", elapsed)
	return table, nil
}

// collect geocodes each university and fetches its climate normals, in
// ranking order. Failures abort the run unless SkipFailures is set.
func (p *Pipeline) collect(ctx context.Context, entries []domain.RankedEntry) ([]domain.CityClimate, error) {
	out := make([]domain.CityClimate, 0, len(entries))
	for _, e := range entries {
		log := p.logger.With("university", e.Name, "id", e.ID, "place", e.Place)

		point, err := p.geocoder.Geocode(ctx, domain.GeocodeQuery(e.Place, p.opts.CountrySuffix))
		if err != nil {
			if skipErr := p.handleFailure(ctx, log, "geocode", e, err); skipErr != nil {
				return nil, skipErr
			}
			continue
		}

		if p.opts.Pacer != nil {
			if err := p.opts.Pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		normals, err := p.climate.Normals(ctx, point)
		if err != nil {
			if skipErr := p.handleFailure(ctx, log, "climate", e, err); skipErr != nil {
				return nil, skipErr
			}
			continue
		}

		log.Debug("climate normals fetched", "lat", point.Lat, "lon", point.Lon, "months", len(normals.Months))
		out = append(out, domain.CityClimate{Entry: e, Point: point, Normals: normals})
	}
	return out, nil
}

// handleFailure returns the error that should stop the run, or nil when the
// university is skipped.
func (p *Pipeline) handleFailure(ctx context.Context, log *slog.Logger, stage string, e domain.RankedEntry, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if !p.opts.SkipFailures {
		return fmt.Errorf("%s %s (%s): %w", stage, e.Name, e.Place, err)
	}
	log.Warn("university skipped", "stage", stage, "error", err)
	p.metrics.EntriesSkipped.WithLabelValues(stage).Inc()
	return nil
}

// aggregate summarizes every trimester and merges the results.
func (p *Pipeline) aggregate(climates []domain.CityClimate) (domain.Table, error) {
	entries := make([]domain.RankedEntry, len(climates))
	for i, c := range climates {
		entries[i] = c.Entry
	}

	tables := make([][]domain.TrimesterSummary, len(p.opts.Trimesters))
	for i, t := range p.opts.Trimesters {
		tables[i] = domain.SummarizeAll(climates, t)
		for _, s := range tables[i] {
			if !s.Complete(t) {
				p.logger.Warn("incomplete trimester normals",
					"id", s.UniversityID,
					"city", s.City,
					"trimester", t.Label,
					"months_matched", s.MonthsMatched,
					"months_expected", len(t.Months),
				)
			}
		}
	}

	table, err := domain.MergeTrimesters(entries, p.opts.Trimesters, tables)
	if err != nil {
		return domain.Table{}, fmt.Errorf("merge: %w", err)
	}
	return table, nil
}
