package mongostore

import (
	"errors"
	"testing"
	"time"

	"backend-breathstats/internal/store"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func decodeDevice(t *testing.T, raw bson.M) deviceDoc {
	t.Helper()
	data, err := bson.Marshal(raw)
	require.NoError(t, err)
	var doc deviceDoc
	require.NoError(t, bson.Unmarshal(data, &doc))
	return doc
}

func decodeSession(t *testing.T, raw bson.M) sessionDoc {
	t.Helper()
	data, err := bson.Marshal(raw)
	require.NoError(t, err)
	var doc sessionDoc
	require.NoError(t, bson.Unmarshal(data, &doc))
	return doc
}

func TestDeviceDocAcceptsNumericFlowValues(t *testing.T) {
	id := bson.NewObjectID()
	doc := decodeDevice(t, bson.M{
		"_id":        id,
		"deviceName": store.DevicePitaco,
		"flowData": bson.A{
			bson.M{"flowValue": 1.5, "timestamp": time.Now()},
			bson.M{"flowValue": int32(-3), "timestamp": time.Now()},
			bson.M{"flowValue": int64(7), "timestamp": time.Now()},
		},
	})

	dev, err := doc.toDevice()
	require.NoError(t, err)
	require.Equal(t, id.Hex(), dev.ID)
	require.Equal(t, store.DevicePitaco, dev.DeviceName)
	require.Len(t, dev.FlowData, 3)
	require.Equal(t, []float64{1.5, -3, 7}, []float64{dev.FlowData[0].FlowValue, dev.FlowData[1].FlowValue, dev.FlowData[2].FlowValue})
}

func TestDeviceDocRejectsNonNumericFlowValue(t *testing.T) {
	doc := decodeDevice(t, bson.M{
		"_id":        bson.NewObjectID(),
		"deviceName": store.DeviceCinta,
		"flowData":   bson.A{bson.M{"flowValue": "12", "timestamp": time.Now()}},
	})
	_, err := doc.toDevice()
	require.True(t, errors.Is(err, store.ErrMalformedDocument))

	doc = decodeDevice(t, bson.M{
		"_id":      bson.NewObjectID(),
		"flowData": bson.A{bson.M{"timestamp": time.Now()}},
	})
	_, err = doc.toDevice()
	require.True(t, errors.Is(err, store.ErrMalformedDocument))
}

func TestDeviceDocEmptyFlowData(t *testing.T) {
	doc := decodeDevice(t, bson.M{"_id": bson.NewObjectID(), "deviceName": store.DevicePitaco})
	dev, err := doc.toDevice()
	require.NoError(t, err)
	require.Empty(t, dev.FlowData)
}

func TestSessionDocReferenceShapes(t *testing.T) {
	ref := bson.NewObjectID()
	doc := decodeSession(t, bson.M{
		"_id":               bson.NewObjectID(),
		"pacientId":         "507f191e810c19729de860ea",
		"flowDataDevicesId": ref,
		"created_at":        time.Now(),
		"targetsSpawned":    int32(4),
	})
	rec, err := doc.toSession()
	require.NoError(t, err)
	require.Equal(t, ref.Hex(), rec.FlowDataDevicesID)
	require.Equal(t, 4, rec.TargetsSpawned)
	require.Zero(t, rec.ObstaclesFail)

	doc = decodeSession(t, bson.M{"_id": bson.NewObjectID(), "pacientId": "p", "flowDataDevicesId": ref.Hex()})
	rec, err = doc.toSession()
	require.NoError(t, err)
	require.Equal(t, ref.Hex(), rec.FlowDataDevicesID)

	doc = decodeSession(t, bson.M{"_id": bson.NewObjectID(), "pacientId": "p"})
	rec, err = doc.toSession()
	require.NoError(t, err)
	require.Empty(t, rec.FlowDataDevicesID)

	doc = decodeSession(t, bson.M{"_id": bson.NewObjectID(), "pacientId": "p", "flowDataDevicesId": 12.5})
	_, err = doc.toSession()
	require.True(t, errors.Is(err, store.ErrMalformedDocument))
}

func rawDoc(t *testing.T, m bson.M) bson.Raw {
	t.Helper()
	data, err := bson.Marshal(m)
	require.NoError(t, err)
	return bson.Raw(data)
}

func TestDecodeSessionsCounterShapes(t *testing.T) {
	id := bson.NewObjectID()
	recs, err := decodeAll([]bson.Raw{rawDoc(t, bson.M{
		"_id":        id,
		"pacientId":  "507f191e810c19729de860ea",
		"PlayerHp":   3.0,
		"result":     int64(1),
		"created_at": time.Now(),
	})}, sessionDoc.toSession)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, 3, recs[0].PlayerHp)
	require.Equal(t, 1, recs[0].Result)

	_, err = decodeAll([]bson.Raw{rawDoc(t, bson.M{
		"_id":        id,
		"pacientId":  "507f191e810c19729de860ea",
		"PlayerHp":   2.5,
		"created_at": time.Now(),
	})}, sessionDoc.toSession)
	require.ErrorIs(t, err, store.ErrMalformedDocument)
}

func TestDecodeDevicesWrongFieldType(t *testing.T) {
	_, err := decodeAll([]bson.Raw{rawDoc(t, bson.M{
		"_id":        bson.NewObjectID(),
		"deviceName": bson.A{"Pitaco"},
	})}, deviceDoc.toDevice)
	require.ErrorIs(t, err, store.ErrMalformedDocument)
}

func TestSessionFilter(t *testing.T) {
	from := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	stage := 3
	filter := sessionFilter(store.SessionQuery{
		PacientID: "507f191e810c19729de860ea",
		Phase:     "2",
		StageID:   &stage,
		CreatedAt: store.TimeRange{From: &from},
		GameToken: "tok",
	})

	require.Equal(t, "507f191e810c19729de860ea", filter["pacientId"])
	require.Equal(t, "2", filter["phase"])
	require.Equal(t, 3, filter["stageId"])
	require.Equal(t, "tok", filter["_gameToken"])
	require.NotContains(t, filter, "level")
	require.Equal(t, bson.M{"$gte": from}, filter["created_at"])

	require.Empty(t, sessionFilter(store.SessionQuery{}))
}

func TestMinigameDocRoundTrip(t *testing.T) {
	in := store.MinigameOverview{
		PacientID:           "507f191e810c19729de860ea",
		MinigameName:        "CakeGame",
		RespiratoryExercise: "ExpiratoryPeak",
		FlowDataRounds: []store.MinigameRound{{
			MinigameRound:   1,
			RoundScore:      10,
			RoundFlowScore:  0.8,
			FlowDataDevices: []store.RoundDevice{{DeviceName: store.DevicePitaco, FlowDataID: "abc"}},
		}},
		GameToken: "tok",
	}
	out := newMinigameDoc(in).toMinigame()
	require.Equal(t, in.FlowDataRounds, out.FlowDataRounds)
	require.Equal(t, in.GameToken, out.GameToken)
	require.Len(t, out.ID, 24)
}
