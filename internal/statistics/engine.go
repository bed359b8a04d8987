package statistics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "breathstats",
		Subsystem: "statistics",
		Name:      "pipeline_runs_total",
		Help:      "Statistics pipeline runs by outcome.",
	}, []string{"outcome"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "breathstats",
		Subsystem: "statistics",
		Name:      "pipeline_duration_seconds",
		Help:      "Time spent running the statistics pipeline.",
		Buckets:   prometheus.DefBuckets,
	})

	pipelineRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "breathstats",
		Subsystem: "statistics",
		Name:      "pipeline_rows",
		Help:      "Rows returned per statistics pipeline run.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})
)

type Engine struct {
	sessions store.SessionStore
	devices  store.DeviceStore
	loc      *time.Location
}

func NewEngine(sessions store.SessionStore, devices store.DeviceStore, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &Engine{sessions: sessions, devices: devices, loc: loc}
}

// Run compiles f and executes the resulting plan.
func (e *Engine) Run(ctx context.Context, f Filter) ([]Row, error) {
	return e.Execute(ctx, Compile(f, e.loc))
}

// Execute runs plan stage by stage. Any stage error aborts the run and no
// rows are returned.
func (e *Engine) Execute(ctx context.Context, plan Plan) ([]Row, error) {
	start := time.Now()
	defer func() { pipelineDuration.Observe(time.Since(start).Seconds()) }()

	var (
		items []item
		err   error
	)
	for _, stage := range plan {
		if err := ctx.Err(); err != nil {
			pipelineRuns.WithLabelValues("cancelled").Inc()
			return nil, apperr.Upstream("statistics run abandoned", err)
		}
		items, err = stage.apply(ctx, e, items)
		if err != nil {
			pipelineRuns.WithLabelValues("error").Inc()
			return nil, classify(err)
		}
	}

	rows := make([]Row, 0, len(items))
	for _, it := range items {
		if it.row == nil {
			pipelineRuns.WithLabelValues("error").Inc()
			return nil, apperr.Internal("statistics plan has no projection", nil)
		}
		rows = append(rows, *it.row)
	}
	pipelineRuns.WithLabelValues("ok").Inc()
	pipelineRows.Observe(float64(len(rows)))
	return rows, nil
}

func classify(err error) error {
	if errors.Is(err, store.ErrMalformedDocument) {
		return apperr.Internal("malformed document", err)
	}
	return apperr.Upstream("document store unavailable", fmt.Errorf("statistics: %w", err))
}
