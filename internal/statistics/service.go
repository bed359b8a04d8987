package statistics

import (
	"context"
	"time"
)

type Service struct {
	engine *Engine
	loc    *time.Location
}

func NewService(engine *Engine, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{engine: engine, loc: loc}
}

// PacientStatistics validates params and runs the pipeline.
func (s *Service) PacientStatistics(ctx context.Context, params map[string]string) ([]Row, error) {
	f, err := BuildFilter(params, s.loc)
	if err != nil {
		return nil, err
	}
	return s.engine.Run(ctx, f)
}
