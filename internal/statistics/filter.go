package statistics

import (
	"time"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	queryparams "backend-breathstats/internal/shared/params"
	"backend-breathstats/internal/store"
)

// Request parameter names.
const (
	ParamPacientID = "pacientId"
	ParamPhase     = "phase"
	ParamLevel     = "level"
	ParamDevices   = "devices"
	ParamDateFrom  = "dataIni"
	ParamDateTo    = "dataFim"
	ParamSort      = queryparams.Sort
	ParamLimit     = queryparams.Limit
	ParamSkip      = queryparams.Skip
)

const dateLayout = "2006-01-02"

// BuildFilter validates raw request parameters. Empty values are treated as
// absent and never add a clause. Calendar days are read in loc.
func BuildFilter(params map[string]string, loc *time.Location) (Filter, error) {
	if loc == nil {
		loc = time.UTC
	}

	f := Filter{PacientID: params[ParamPacientID]}
	if !store.IsObjectID(f.PacientID) {
		return Filter{}, apperr.InvalidRequest(envelope.MsgInvalidRequest)
	}
	f.Phase = params[ParamPhase]
	f.Level = params[ParamLevel]
	f.DeviceName = params[ParamDevices]

	if v := params[ParamDateFrom]; v != "" {
		day, err := time.ParseInLocation(dateLayout, v, loc)
		if err != nil {
			return Filter{}, apperr.InvalidRequest(envelope.MsgInvalidRequest)
		}
		f.CreatedAt.From = &day
	}
	if v := params[ParamDateTo]; v != "" {
		day, err := time.ParseInLocation(dateLayout, v, loc)
		if err != nil {
			return Filter{}, apperr.InvalidRequest(envelope.MsgInvalidRequest)
		}
		end := endOfDay(day)
		f.CreatedAt.To = &end
	}
	if f.CreatedAt.From != nil && f.CreatedAt.To != nil && f.CreatedAt.From.After(*f.CreatedAt.To) {
		return Filter{}, apperr.InvalidRequest(envelope.MsgInvalidRequest)
	}

	sort, err := queryparams.SortOrder(params[ParamSort])
	if err != nil {
		return Filter{}, err
	}
	f.Sort = sort

	if v := params[ParamSkip]; v != "" {
		n, err := queryparams.Count(v)
		if err != nil {
			return Filter{}, err
		}
		f.Skip = n
	}
	if v := params[ParamLimit]; v != "" {
		n, err := queryparams.Count(v)
		if err != nil {
			return Filter{}, err
		}
		f.Limit = &n
	}
	return f, nil
}

func endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Millisecond)
}
