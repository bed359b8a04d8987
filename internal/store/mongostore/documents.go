package mongostore

import (
	"fmt"
	"strconv"
	"time"

	"backend-breathstats/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type accountDoc struct {
	ID        bson.ObjectID `bson:"_id"`
	Username  string        `bson:"username"`
	Role      string        `bson:"role"`
	GameToken string        `bson:"gameToken"`
	CreatedAt time.Time     `bson:"created_at"`
}

func (d accountDoc) toAccount() store.Account {
	return store.Account{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Role:      d.Role,
		GameToken: d.GameToken,
		CreatedAt: d.CreatedAt,
	}
}

type pacientDoc struct {
	ID           bson.ObjectID `bson:"_id"`
	Name         string        `bson:"name"`
	Sex          string        `bson:"sex"`
	Birthday     *time.Time    `bson:"birthday,omitempty"`
	Condition    string        `bson:"condition"`
	Observations string        `bson:"observations"`
	GameToken    string        `bson:"_gameToken"`
	CreatedAt    time.Time     `bson:"created_at"`
}

func (d pacientDoc) toPacient() store.Pacient {
	return store.Pacient{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Sex:          d.Sex,
		Birthday:     d.Birthday,
		Condition:    d.Condition,
		Observations: d.Observations,
		GameToken:    d.GameToken,
		CreatedAt:    d.CreatedAt,
	}
}

// sessionDoc keeps flowDataDevicesId raw: older writers stored it as a string,
// newer ones as an ObjectId.
type sessionDoc struct {
	ID                  bson.ObjectID `bson:"_id"`
	PacientID           string        `bson:"pacientId"`
	FlowDataDevicesID   bson.RawValue `bson:"flowDataDevicesId"`
	PlayStart           *time.Time    `bson:"playStart"`
	PlayFinish          *time.Time    `bson:"playFinish"`
	Duration            float64       `bson:"duration"`
	Result              int           `bson:"result"`
	StageID             int           `bson:"stageId"`
	Phase               string        `bson:"phase"`
	Level               string        `bson:"level"`
	RelaxTimeSpawned    float64       `bson:"relaxTimeSpawned"`
	MaxScore            float64       `bson:"maxScore"`
	ScoreRatio          float64       `bson:"scoreRatio"`
	TargetsSpawned      int           `bson:"targetsSpawned"`
	TargetsSuccess      int           `bson:"TargetsSuccess"`
	TargetsInsSuccess   int           `bson:"TargetsInsSuccess"`
	TargetsExpSuccess   int           `bson:"TargetsExpSuccess"`
	TargetsFails        int           `bson:"TargetsFails"`
	TargetsInsFail      int           `bson:"TargetsInsFail"`
	TargetsExpFail      int           `bson:"TargetsExpFail"`
	ObstaclesSpawned    int           `bson:"ObstaclesSpawned"`
	ObstaclesSuccess    int           `bson:"ObstaclesSuccess"`
	ObstaclesFail       int           `bson:"ObstaclesFail"`
	ObstaclesInsSuccess int           `bson:"ObstaclesInsSuccess"`
	ObstaclesExpSuccess int           `bson:"ObstaclesExpSuccess"`
	ObstaclesInsFail    int           `bson:"ObstaclesInsFail"`
	ObstaclesExpFail    int           `bson:"ObstaclesExpFail"`
	PlayerHp            int           `bson:"PlayerHp"`
	GameToken           string        `bson:"_gameToken"`
	CreatedAt           time.Time     `bson:"created_at"`
}

func (d sessionDoc) toSession() (store.SessionRecord, error) {
	ref, err := refString(d.FlowDataDevicesID)
	if err != nil {
		return store.SessionRecord{}, fmt.Errorf("%w: session %s: %v", store.ErrMalformedDocument, d.ID.Hex(), err)
	}
	return store.SessionRecord{
		ID:                  d.ID.Hex(),
		PacientID:           d.PacientID,
		FlowDataDevicesID:   ref,
		PlayStart:           d.PlayStart,
		PlayFinish:          d.PlayFinish,
		Duration:            d.Duration,
		Result:              d.Result,
		StageID:             d.StageID,
		Phase:               d.Phase,
		Level:               d.Level,
		RelaxTimeSpawned:    d.RelaxTimeSpawned,
		MaxScore:            d.MaxScore,
		ScoreRatio:          d.ScoreRatio,
		TargetsSpawned:      d.TargetsSpawned,
		TargetsSuccess:      d.TargetsSuccess,
		TargetsInsSuccess:   d.TargetsInsSuccess,
		TargetsExpSuccess:   d.TargetsExpSuccess,
		TargetsFails:        d.TargetsFails,
		TargetsInsFail:      d.TargetsInsFail,
		TargetsExpFail:      d.TargetsExpFail,
		ObstaclesSpawned:    d.ObstaclesSpawned,
		ObstaclesSuccess:    d.ObstaclesSuccess,
		ObstaclesFail:       d.ObstaclesFail,
		ObstaclesInsSuccess: d.ObstaclesInsSuccess,
		ObstaclesExpSuccess: d.ObstaclesExpSuccess,
		ObstaclesInsFail:    d.ObstaclesInsFail,
		ObstaclesExpFail:    d.ObstaclesExpFail,
		PlayerHp:            d.PlayerHp,
		GameToken:           d.GameToken,
		CreatedAt:           d.CreatedAt,
	}, nil
}

type flowSampleDoc struct {
	FlowValue bson.RawValue `bson:"flowValue"`
	Timestamp time.Time     `bson:"timestamp"`
}

type deviceDoc struct {
	ID         bson.ObjectID   `bson:"_id"`
	DeviceName string          `bson:"deviceName"`
	FlowData   []flowSampleDoc `bson:"flowData"`
	CreatedAt  time.Time       `bson:"created_at"`
}

func (d deviceDoc) toDevice() (store.DeviceRecord, error) {
	out := store.DeviceRecord{
		ID:         d.ID.Hex(),
		DeviceName: d.DeviceName,
		FlowData:   make([]store.FlowSample, 0, len(d.FlowData)),
		CreatedAt:  d.CreatedAt,
	}
	for i, sample := range d.FlowData {
		v, err := numeric(sample.FlowValue)
		if err != nil {
			return store.DeviceRecord{}, fmt.Errorf("%w: device %s flowData[%d]: %v", store.ErrMalformedDocument, out.ID, i, err)
		}
		out.FlowData = append(out.FlowData, store.FlowSample{FlowValue: v, Timestamp: sample.Timestamp})
	}
	return out, nil
}

type flowSampleWriteDoc struct {
	FlowValue float64   `bson:"flowValue"`
	Timestamp time.Time `bson:"timestamp"`
}

type deviceWriteDoc struct {
	ID         bson.ObjectID        `bson:"_id"`
	DeviceName string               `bson:"deviceName"`
	FlowData   []flowSampleWriteDoc `bson:"flowData"`
	CreatedAt  time.Time            `bson:"created_at"`
}

type roundDeviceDoc struct {
	DeviceName string `bson:"deviceName"`
	FlowDataID string `bson:"flowDataId"`
}

type roundDoc struct {
	MinigameRound   int              `bson:"minigameRound"`
	RoundScore      int              `bson:"roundScore"`
	RoundFlowScore  float64          `bson:"roundFlowScore"`
	FlowDataDevices []roundDeviceDoc `bson:"flowDataDevices"`
}

type minigameDoc struct {
	ID                  bson.ObjectID `bson:"_id"`
	PacientID           string        `bson:"pacientId"`
	MinigameName        string        `bson:"minigameName"`
	RespiratoryExercise string        `bson:"respiratoryExercise"`
	FlowDataRounds      []roundDoc    `bson:"flowDataRounds"`
	GameToken           string        `bson:"_gameToken"`
	CreatedAt           time.Time     `bson:"created_at"`
	UpdatedAt           time.Time     `bson:"updated_at"`
}

func newMinigameDoc(m store.MinigameOverview) minigameDoc {
	doc := minigameDoc{
		ID:                  bson.NewObjectID(),
		PacientID:           m.PacientID,
		MinigameName:        m.MinigameName,
		RespiratoryExercise: m.RespiratoryExercise,
		GameToken:           m.GameToken,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.CreatedAt,
	}
	for _, r := range m.FlowDataRounds {
		rd := roundDoc{MinigameRound: r.MinigameRound, RoundScore: r.RoundScore, RoundFlowScore: r.RoundFlowScore}
		for _, dev := range r.FlowDataDevices {
			rd.FlowDataDevices = append(rd.FlowDataDevices, roundDeviceDoc(dev))
		}
		doc.FlowDataRounds = append(doc.FlowDataRounds, rd)
	}
	return doc
}

func (d minigameDoc) toMinigame() store.MinigameOverview {
	out := store.MinigameOverview{
		ID:                  d.ID.Hex(),
		PacientID:           d.PacientID,
		MinigameName:        d.MinigameName,
		RespiratoryExercise: d.RespiratoryExercise,
		GameToken:           d.GameToken,
		CreatedAt:           d.CreatedAt,
	}
	for _, r := range d.FlowDataRounds {
		round := store.MinigameRound{MinigameRound: r.MinigameRound, RoundScore: r.RoundScore, RoundFlowScore: r.RoundFlowScore}
		for _, dev := range r.FlowDataDevices {
			round.FlowDataDevices = append(round.FlowDataDevices, store.RoundDevice(dev))
		}
		out.FlowDataRounds = append(out.FlowDataRounds, round)
	}
	return out
}

type calibrationDoc struct {
	ID                  bson.ObjectID `bson:"_id"`
	PacientID           string        `bson:"pacientId"`
	GameDevice          string        `bson:"gameDevice"`
	CalibrationExercise string        `bson:"calibrationExercise"`
	CalibrationValue    int           `bson:"calibrationValue"`
	GameToken           string        `bson:"_gameToken"`
	CreatedAt           time.Time     `bson:"created_at"`
}

func (d calibrationDoc) toCalibration() store.CalibrationOverview {
	return store.CalibrationOverview{
		ID:                  d.ID.Hex(),
		PacientID:           d.PacientID,
		GameDevice:          d.GameDevice,
		CalibrationExercise: d.CalibrationExercise,
		CalibrationValue:    d.CalibrationValue,
		GameToken:           d.GameToken,
		CreatedAt:           d.CreatedAt,
	}
}

// decodeAll decodes each raw document into D and converts it. A document
// that does not fit D is reported as malformed, not as a driver failure.
func decodeAll[D, R any](raws []bson.Raw, convert func(D) (R, error)) ([]R, error) {
	out := make([]R, 0, len(raws))
	for i, raw := range raws {
		var doc D
		if err := bson.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%w: document %d: %v", store.ErrMalformedDocument, i, err)
		}
		rec, err := convert(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// refString normalises a document reference stored as ObjectId or hex string.
func refString(v bson.RawValue) (string, error) {
	switch v.Type {
	case 0, bson.TypeNull, bson.TypeUndefined:
		return "", nil
	case bson.TypeObjectID:
		return v.ObjectID().Hex(), nil
	case bson.TypeString:
		return v.StringValue(), nil
	default:
		return "", fmt.Errorf("unsupported reference type %s", v.Type)
	}
}

func numeric(v bson.RawValue) (float64, error) {
	switch v.Type {
	case bson.TypeDouble:
		return v.Double(), nil
	case bson.TypeInt32:
		return float64(v.Int32()), nil
	case bson.TypeInt64:
		return float64(v.Int64()), nil
	case bson.TypeDecimal128:
		return strconv.ParseFloat(v.Decimal128().String(), 64)
	case 0:
		return 0, fmt.Errorf("flowValue is missing")
	default:
		return 0, fmt.Errorf("flowValue has non-numeric type %s", v.Type)
	}
}
