package minigame

import "time"

// SaveRequest is the body of POST /minigame-overviews.
type SaveRequest struct {
	PacientID           string         `json:"pacientId" validate:"required,objectid"`
	MinigameName        string         `json:"minigameName" validate:"required,oneof=CakeGame WaterGame"`
	RespiratoryExercise string         `json:"respiratoryExercise" validate:"required,oneof=ExpiratoryPeak InspiratoryPeak"`
	FlowDataRounds      []RoundRequest `json:"flowDataRounds" validate:"required,min=1,dive"`
}

type RoundRequest struct {
	MinigameRound   *int            `json:"minigameRound" validate:"required"`
	RoundScore      *int            `json:"roundScore" validate:"required"`
	RoundFlowScore  *float64        `json:"roundFlowScore" validate:"required"`
	FlowDataDevices []DeviceRequest `json:"flowDataDevices" validate:"dive"`
}

type DeviceRequest struct {
	DeviceName string          `json:"deviceName" validate:"required,oneof=Pitaco Manovacuômetro Cinta"`
	FlowData   []SampleRequest `json:"flowData" validate:"required,min=1,dive"`
}

type SampleRequest struct {
	FlowValue *float64   `json:"flowValue" validate:"required"`
	Timestamp *time.Time `json:"timestamp" validate:"required"`
}
