package statistics

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"

	"backend-breathstats/internal/store"
)

// Stage is one step of a compiled Plan.
type Stage interface {
	Name() string
	apply(ctx context.Context, e *Engine, items []item) ([]item, error)
}

// Plan is the ordered list of stages a Filter compiles to.
type Plan []Stage

func (p Plan) Names() []string {
	names := make([]string, len(p))
	for i, s := range p {
		names[i] = s.Name()
	}
	return names
}

// Compile turns f into a Plan. Stage order is fixed; optional stages are left
// out rather than compiled as no-ops.
func Compile(f Filter, loc *time.Location) Plan {
	if loc == nil {
		loc = time.UTC
	}
	plan := Plan{MatchStage{Query: store.SessionQuery{
		PacientID: f.PacientID,
		Phase:     f.Phase,
		Level:     f.Level,
		CreatedAt: f.CreatedAt,
	}}}
	if f.Sort != store.SortNatural {
		plan = append(plan, SortStage{Order: f.Sort})
	}
	plan = append(plan, LookupStage{}, FlattenStage{})
	if f.DeviceName != "" {
		plan = append(plan, DeviceMatchStage{DeviceName: f.DeviceName})
	}
	plan = append(plan, DeriveStage{Location: loc}, ProjectStage{})
	if f.Skip > 0 {
		plan = append(plan, SkipStage{N: f.Skip})
	}
	if f.Limit != nil {
		plan = append(plan, LimitStage{N: *f.Limit})
	}
	return plan
}

// item is the working value carried between stages.
type item struct {
	session store.SessionRecord
	devices []store.DeviceRecord
	device  *store.DeviceRecord
	date    string
	minFlow *float64
	maxFlow *float64
	row     *Row
}

// MatchStage loads the candidate sessions from the store.
type MatchStage struct {
	Query store.SessionQuery
}

func (MatchStage) Name() string { return "match" }

func (s MatchStage) apply(ctx context.Context, e *Engine, _ []item) ([]item, error) {
	sessions, err := e.sessions.FindSessions(ctx, s.Query)
	if err != nil {
		return nil, fmt.Errorf("match: %w", err)
	}
	items := make([]item, len(sessions))
	for i, rec := range sessions {
		items[i] = item{session: rec}
	}
	return items, nil
}

// SortStage orders items by session creation time. Ties keep store order.
type SortStage struct {
	Order store.SortOrder
}

func (SortStage) Name() string { return "sort" }

func (s SortStage) apply(_ context.Context, _ *Engine, items []item) ([]item, error) {
	slices.SortStableFunc(items, func(a, b item) int {
		c := a.session.CreatedAt.Compare(b.session.CreatedAt)
		if s.Order == store.SortDescending {
			return -c
		}
		return c
	})
	return items, nil
}

// LookupStage resolves every session's device reference with one store call.
// Sessions whose reference does not resolve keep an empty device list.
type LookupStage struct{}

func (LookupStage) Name() string { return "lookup" }

func (LookupStage) apply(ctx context.Context, e *Engine, items []item) ([]item, error) {
	seen := make(map[string]struct{})
	var ids []string
	for _, it := range items {
		ref := it.session.FlowDataDevicesID
		if ref == "" {
			continue
		}
		if _, ok := seen[ref]; ok {
			continue
		}
		seen[ref] = struct{}{}
		ids = append(ids, ref)
	}
	if len(ids) == 0 {
		return items, nil
	}

	devices, err := e.devices.FindDevices(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	byID := make(map[string][]store.DeviceRecord, len(devices))
	for _, d := range devices {
		byID[d.ID] = append(byID[d.ID], d)
	}
	for i := range items {
		items[i].devices = byID[items[i].session.FlowDataDevicesID]
	}
	return items, nil
}

// FlattenStage emits one item per joined device, or a single item with no
// device when the lookup found nothing.
type FlattenStage struct{}

func (FlattenStage) Name() string { return "flatten" }

func (FlattenStage) apply(_ context.Context, _ *Engine, items []item) ([]item, error) {
	out := make([]item, 0, len(items))
	for _, it := range items {
		if len(it.devices) == 0 {
			it.devices = nil
			out = append(out, it)
			continue
		}
		for j := range it.devices {
			flat := it
			flat.device = &it.devices[j]
			flat.devices = nil
			out = append(out, flat)
		}
	}
	return out, nil
}

// DeviceMatchStage keeps items whose joined device has the given name. Items
// without a device are dropped.
type DeviceMatchStage struct {
	DeviceName string
}

func (DeviceMatchStage) Name() string { return "device_match" }

func (s DeviceMatchStage) apply(_ context.Context, _ *Engine, items []item) ([]item, error) {
	return slices.DeleteFunc(items, func(it item) bool {
		return it.device == nil || it.device.DeviceName != s.DeviceName
	}), nil
}

// DeriveStage computes the flow extrema and the display date. The
// inspiratory extremum is the numeric minimum of the signal and the
// expiratory extremum its maximum.
type DeriveStage struct {
	Location *time.Location
}

func (DeriveStage) Name() string { return "derive" }

func (s DeriveStage) apply(_ context.Context, _ *Engine, items []item) ([]item, error) {
	for i := range items {
		it := &items[i]
		it.date = it.session.CreatedAt.In(s.Location).Format("02/01/2006")
		if it.device == nil || len(it.device.FlowData) == 0 {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for j, sample := range it.device.FlowData {
			v := sample.FlowValue
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("derive: device %s flowData[%d]: %w", it.device.ID, j, store.ErrMalformedDocument)
			}
			lo = min(lo, v)
			hi = max(hi, v)
		}
		it.minFlow, it.maxFlow = &lo, &hi
	}
	return items, nil
}

// ProjectStage builds the output row from the session and derived values.
type ProjectStage struct{}

func (ProjectStage) Name() string { return "project" }

func (ProjectStage) apply(_ context.Context, _ *Engine, items []item) ([]item, error) {
	for i := range items {
		it := &items[i]
		rec := it.session
		row := Row{
			ID:                  rec.ID,
			CreatedAt:           it.date,
			PacientID:           rec.PacientID,
			FlowDataDevicesID:   rec.FlowDataDevicesID,
			PlayStart:           rec.PlayStart,
			PlayFinish:          rec.PlayFinish,
			Duration:            rec.Duration,
			Result:              rec.Result,
			StageID:             rec.StageID,
			Phase:               rec.Phase,
			Level:               rec.Level,
			RelaxTimeSpawned:    rec.RelaxTimeSpawned,
			MaxScore:            rec.MaxScore,
			ScoreRatio:          rec.ScoreRatio,
			TargetsSpawned:      rec.TargetsSpawned,
			TargetsExpSuccess:   rec.TargetsExpSuccess,
			TargetsFails:        rec.TargetsFails,
			TargetsInsFail:      rec.TargetsInsFail,
			TargetsExpFail:      rec.TargetsExpFail,
			ObstaclesSpawned:    rec.ObstaclesSpawned,
			ObstaclesSuccess:    rec.ObstaclesSuccess,
			ObstaclesFail:       rec.ObstaclesFail,
			ObstaclesInsSuccess: rec.ObstaclesInsSuccess,
			ObstaclesExpSuccess: rec.ObstaclesExpSuccess,
			ObstaclesInsFail:    rec.ObstaclesInsFail,
			ObstaclesExpFail:    rec.ObstaclesExpFail,
			PlayerHp:            rec.PlayerHp,
			MaxInsFlow:          it.minFlow,
			MaxExpFlow:          it.maxFlow,
		}
		if it.device != nil {
			row.DeviceName = it.device.DeviceName
		}
		it.row = &row
	}
	return items, nil
}

// SkipStage drops the first N items.
type SkipStage struct {
	N int64
}

func (SkipStage) Name() string { return "skip" }

func (s SkipStage) apply(_ context.Context, _ *Engine, items []item) ([]item, error) {
	return items[min(s.N, int64(len(items))):], nil
}

// LimitStage keeps at most N items.
type LimitStage struct {
	N int64
}

func (LimitStage) Name() string { return "limit" }

func (s LimitStage) apply(_ context.Context, _ *Engine, items []item) ([]item, error) {
	return items[:min(s.N, int64(len(items)))], nil
}
