// Package minigame stores and lists minigame overviews. Each round's device
// samples are saved as separate device records and referenced by id.
package minigame

import (
	"context"
	"errors"
	"fmt"

	"backend-breathstats/internal/shared/apperr"
	"backend-breathstats/internal/shared/envelope"
	"backend-breathstats/internal/shared/params"
	"backend-breathstats/internal/store"
	"backend-breathstats/internal/stream"
	"backend-breathstats/internal/validation"
)

// Storage is the subset of store.Store the service uses.
type Storage interface {
	store.PacientStore
	store.DeviceStore
	store.MinigameStore
}

type Service struct {
	store     Storage
	publisher stream.Publisher
}

func NewService(s Storage, publisher stream.Publisher) *Service {
	return &Service{store: s, publisher: publisher}
}

// ParseQuery builds a list query from request parameters, scoped to gameToken.
func ParseQuery(q map[string]string, gameToken string) (store.MinigameQuery, error) {
	pacientID, err := params.OptionalID(q, "pacientId")
	if err != nil {
		return store.MinigameQuery{}, err
	}
	page, err := params.Page(q)
	if err != nil {
		return store.MinigameQuery{}, err
	}
	return store.MinigameQuery{
		PacientID:           pacientID,
		MinigameName:        q["minigameName"],
		RespiratoryExercise: q["respiratoryExercise"],
		GameToken:           gameToken,
		Page:                page,
	}, nil
}

func (s *Service) List(ctx context.Context, q store.MinigameQuery) ([]store.MinigameOverview, error) {
	out, err := s.store.FindMinigameOverviews(ctx, q)
	if err != nil {
		return nil, apperr.Upstream("minigame overview lookup failed", err)
	}
	if out == nil {
		out = []store.MinigameOverview{}
	}
	return out, nil
}

// Save validates req, stores its device samples and the overview, then
// announces the overview to the pacient's subscribers.
func (s *Service) Save(ctx context.Context, req SaveRequest, gameToken string) (store.MinigameOverview, error) {
	if err := validation.Struct(req); err != nil {
		return store.MinigameOverview{}, err
	}
	if _, err := s.store.FindPacient(ctx, req.PacientID, gameToken); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.MinigameOverview{}, apperr.NotFound(envelope.MsgNotFound)
		}
		return store.MinigameOverview{}, apperr.Upstream("pacient lookup failed", err)
	}

	overview := store.MinigameOverview{
		PacientID:           req.PacientID,
		MinigameName:        req.MinigameName,
		RespiratoryExercise: req.RespiratoryExercise,
		FlowDataRounds:      make([]store.MinigameRound, 0, len(req.FlowDataRounds)),
		GameToken:           gameToken,
	}
	for i, round := range req.FlowDataRounds {
		saved := store.MinigameRound{
			MinigameRound:   *round.MinigameRound,
			RoundScore:      *round.RoundScore,
			RoundFlowScore:  *round.RoundFlowScore,
			FlowDataDevices: make([]store.RoundDevice, 0, len(round.FlowDataDevices)),
		}
		for j, device := range round.FlowDataDevices {
			record := store.DeviceRecord{
				DeviceName: device.DeviceName,
				FlowData:   make([]store.FlowSample, 0, len(device.FlowData)),
			}
			for _, sample := range device.FlowData {
				record.FlowData = append(record.FlowData, store.FlowSample{FlowValue: *sample.FlowValue, Timestamp: *sample.Timestamp})
			}
			if err := s.store.InsertDevice(ctx, &record); err != nil {
				return store.MinigameOverview{}, apperr.Upstream("device insert failed", fmt.Errorf("round %d device %d: %w", i, j, err))
			}
			saved.FlowDataDevices = append(saved.FlowDataDevices, store.RoundDevice{DeviceName: record.DeviceName, FlowDataID: record.ID})
		}
		overview.FlowDataRounds = append(overview.FlowDataRounds, saved)
	}

	if err := s.store.InsertMinigameOverview(ctx, &overview); err != nil {
		return store.MinigameOverview{}, apperr.Upstream("minigame overview insert failed", err)
	}

	if s.publisher != nil {
		// delivery failures are logged by the hub and do not fail the save
		_ = s.publisher.Publish(ctx, overview.PacientID, stream.EventMinigameOverview, overview)
	}
	return overview, nil
}
