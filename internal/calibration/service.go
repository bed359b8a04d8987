// Package calibration stores and lists device calibration results.
package calibration

import (
	"context"
	"errors"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/shared/params"
	"backend-breathstats/internal/store"
	"backend-breathstats/internal/stream"
	"backend-breathstats/internal/validation"
)

// SaveRequest is the body of POST /calibration-overviews.
type SaveRequest struct {
	PacientID           string `json:"pacientId" validate:"required,objectid"`
	GameDevice          string `json:"gameDevice" validate:"required,oneof=Pitaco Manovacuômetro Cinta"`
	CalibrationExercise string `json:"calibrationExercise" validate:"required,oneof=ExpiratoryPeak InspiratoryPeak ExpiratoryDuration InspiratoryDuration RespiratoryFrequency"`
	CalibrationValue    *int   `json:"calibrationValue" validate:"required"`
}

type Storage interface {
	store.PacientStore
	store.CalibrationStore
}

type Service struct {
	store     Storage
	publisher stream.Publisher
}

func NewService(s Storage, publisher stream.Publisher) *Service {
	return &Service{store: s, publisher: publisher}
}

func ParseQuery(q map[string]string, gameToken string) (store.CalibrationQuery, error) {
	id, err := params.OptionalID(q, "calibrationId")
	if err != nil {
		return store.CalibrationQuery{}, err
	}
	page, err := params.Page(q)
	if err != nil {
		return store.CalibrationQuery{}, err
	}
	return store.CalibrationQuery{
		ID:                  id,
		GameDevice:          q["gameDevice"],
		CalibrationExercise: q["calibrationExercise"],
		GameToken:           gameToken,
		Page:                page,
	}, nil
}

func (s *Service) List(ctx context.Context, q store.CalibrationQuery) ([]store.CalibrationOverview, error) {
	out, err := s.store.FindCalibrationOverviews(ctx, q)
	if err != nil {
		return nil, apperr.Upstream("calibration overview lookup failed", err)
	}
	if out == nil {
		out = []store.CalibrationOverview{}
	}
	return out, nil
}

func (s *Service) Save(ctx context.Context, req SaveRequest, gameToken string) (store.CalibrationOverview, error) {
	if err := validation.Struct(req); err != nil {
		return store.CalibrationOverview{}, err
	}
	if _, err := s.store.FindPacient(ctx, req.PacientID, gameToken); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.CalibrationOverview{}, apperr.NotFound(envelope.MsgNotFound)
		}
		return store.CalibrationOverview{}, apperr.Upstream("pacient lookup failed", err)
	}

	overview := store.CalibrationOverview{
		PacientID:           req.PacientID,
		GameDevice:          req.GameDevice,
		CalibrationExercise: req.CalibrationExercise,
		CalibrationValue:    *req.CalibrationValue,
		GameToken:           gameToken,
	}
	if err := s.store.InsertCalibrationOverview(ctx, &overview); err != nil {
		return store.CalibrationOverview{}, apperr.Upstream("calibration overview insert failed", err)
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, overview.PacientID, stream.EventCalibrationOverview, overview)
	}
	return overview, nil
}
