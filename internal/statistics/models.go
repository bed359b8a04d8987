// Package statistics reconstructs per-session flow statistics for a pacient
// by joining session records with the device records they reference.
package statistics

import (
	"time"

	"backend-breathstats/internal/store"
)

// Filter is the validated form of a statistics request.
type Filter struct {
	PacientID  string
	Phase      string
	Level      string
	DeviceName string
	CreatedAt  store.TimeRange
	Sort       store.SortOrder
	Skip       int64
	Limit      *int64
}

// Row is one session/device pair as shown to clinicians. Field order is the
// order the JSON object is rendered in.
type Row struct {
	ID                  string     `json:"_id"`
	CreatedAt           string     `json:"created_at"`
	PacientID           string     `json:"pacientId"`
	FlowDataDevicesID   string     `json:"flowDataDevicesId"`
	DeviceName          string     `json:"deviceName"`
	PlayStart           *time.Time `json:"playStart"`
	PlayFinish          *time.Time `json:"playFinish"`
	Duration            float64    `json:"duration"`
	Result              int        `json:"result"`
	StageID             int        `json:"stageId"`
	Phase               string     `json:"phase"`
	Level               string     `json:"level"`
	RelaxTimeSpawned    float64    `json:"relaxTimeSpawned"`
	MaxScore            float64    `json:"maxScore"`
	ScoreRatio          float64    `json:"scoreRatio"`
	TargetsSpawned      int        `json:"targetsSpawned"`
	TargetsExpSuccess   int        `json:"TargetsExpSuccess"`
	TargetsFails        int        `json:"TargetsFails"`
	TargetsInsFail      int        `json:"TargetsInsFail"`
	TargetsExpFail      int        `json:"TargetsExpFail"`
	ObstaclesSpawned    int        `json:"ObstaclesSpawned"`
	ObstaclesSuccess    int        `json:"ObstaclesSuccess"`
	ObstaclesFail       int        `json:"ObstaclesFail"`
	ObstaclesInsSuccess int        `json:"ObstaclesInsSuccess"`
	ObstaclesExpSuccess int        `json:"ObstaclesExpSuccess"`
	ObstaclesInsFail    int        `json:"ObstaclesInsFail"`
	ObstaclesExpFail    int        `json:"ObstaclesExpFail"`
	PlayerHp            int        `json:"PlayerHp"`
	MaxInsFlow          *float64   `json:"maxInsFlow"`
	MaxExpFlow          *float64   `json:"maxExpFlow"`
}
