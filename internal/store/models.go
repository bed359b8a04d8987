package store

import "time"

// Device names accepted by the platform.
const (
	DevicePitaco         = "Pitaco"
	DeviceManovacuometro = "Manovacuômetro"
	DeviceCinta          = "Cinta"
)

type Account struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	GameToken string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

type Pacient struct {
	ID           string     `json:"_id"`
	Name         string     `json:"name"`
	Sex          string     `json:"sex"`
	Birthday     *time.Time `json:"birthday,omitempty"`
	Condition    string     `json:"condition"`
	Observations string     `json:"observations"`
	GameToken    string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// SessionRecord is one recorded play-through of a minigame stage.
type SessionRecord struct {
	ID                  string     `json:"_id"`
	PacientID           string     `json:"pacientId"`
	FlowDataDevicesID   string     `json:"flowDataDevicesId,omitempty"`
	PlayStart           *time.Time `json:"playStart,omitempty"`
	PlayFinish          *time.Time `json:"playFinish,omitempty"`
	Duration            float64    `json:"duration"`
	Result              int        `json:"result"`
	StageID             int        `json:"stageId"`
	Phase               string     `json:"phase"`
	Level               string     `json:"level"`
	RelaxTimeSpawned    float64    `json:"relaxTimeSpawned"`
	MaxScore            float64    `json:"maxScore"`
	ScoreRatio          float64    `json:"scoreRatio"`
	TargetsSpawned      int        `json:"targetsSpawned"`
	TargetsSuccess      int        `json:"TargetsSuccess"`
	TargetsInsSuccess   int        `json:"TargetsInsSuccess"`
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
	GameToken           string     `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
}

type FlowSample struct {
	FlowValue float64   `json:"flowValue"`
	Timestamp time.Time `json:"timestamp"`
}

// DeviceRecord is the flow sample series one device captured during a session.
type DeviceRecord struct {
	ID         string       `json:"_id"`
	DeviceName string       `json:"deviceName"`
	FlowData   []FlowSample `json:"flowData"`
	CreatedAt  time.Time    `json:"created_at"`
}

type RoundDevice struct {
	DeviceName string `json:"deviceName"`
	FlowDataID string `json:"flowDataId"`
}

type MinigameRound struct {
	MinigameRound   int           `json:"minigameRound"`
	RoundScore      int           `json:"roundScore"`
	RoundFlowScore  float64       `json:"roundFlowScore"`
	FlowDataDevices []RoundDevice `json:"flowDataDevices"`
}

type MinigameOverview struct {
	ID                  string          `json:"_id"`
	PacientID           string          `json:"pacientId"`
	MinigameName        string          `json:"minigameName"`
	RespiratoryExercise string          `json:"respiratoryExercise"`
	FlowDataRounds      []MinigameRound `json:"flowDataRounds"`
	GameToken           string          `json:"-"`
	CreatedAt           time.Time       `json:"created_at"`
}

type CalibrationOverview struct {
	ID                  string    `json:"_id"`
	PacientID           string    `json:"pacientId"`
	GameDevice          string    `json:"gameDevice"`
	CalibrationExercise string    `json:"calibrationExercise"`
	CalibrationValue    int       `json:"calibrationValue"`
	GameToken           string    `json:"-"`
	CreatedAt           time.Time `json:"created_at"`
}
