// Package mongostore implements store.Store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend-breathstats/internal/store"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

func (s *Store) accounts() *mongo.Collection     { return s.db.Collection(store.CollectionAccounts) }
func (s *Store) pacients() *mongo.Collection     { return s.db.Collection(store.CollectionPacients) }
func (s *Store) sessions() *mongo.Collection     { return s.db.Collection(store.CollectionSessions) }
func (s *Store) devices() *mongo.Collection      { return s.db.Collection(store.CollectionDevices) }
func (s *Store) minigames() *mongo.Collection    { return s.db.Collection(store.CollectionMinigames) }
func (s *Store) calibrations() *mongo.Collection { return s.db.Collection(store.CollectionCalibrations) }

func (s *Store) FindAccountByGameToken(ctx context.Context, token string) (store.Account, error) {
	var doc accountDoc
	err := s.accounts().FindOne(ctx, bson.M{"gameToken": token}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Account{}, store.ErrNotFound
	}
	if err != nil {
		return store.Account{}, err
	}
	return doc.toAccount(), nil
}

func (s *Store) FindPacient(ctx context.Context, id, gameToken string) (store.Pacient, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return store.Pacient{}, store.ErrNotFound
	}
	var doc pacientDoc
	err = s.pacients().FindOne(ctx, bson.M{"_id": oid, "_gameToken": gameToken}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.Pacient{}, store.ErrNotFound
	}
	if err != nil {
		return store.Pacient{}, err
	}
	return doc.toPacient(), nil
}

func (s *Store) FindSessions(ctx context.Context, q store.SessionQuery) ([]store.SessionRecord, error) {
	cur, err := s.sessions().Find(ctx, sessionFilter(q), findOptions(q.Sort, q.Page))
	if err != nil {
		return nil, err
	}
	var raws []bson.Raw
	if err := cur.All(ctx, &raws); err != nil {
		return nil, err
	}
	return decodeAll(raws, sessionDoc.toSession)
}

// FindDevices resolves ids that are valid object ids; anything else cannot
// match and is left unresolved.
func (s *Store) FindDevices(ctx context.Context, ids []string) ([]store.DeviceRecord, error) {
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil, nil
	}

	cur, err := s.devices().Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var raws []bson.Raw
	if err := cur.All(ctx, &raws); err != nil {
		return nil, err
	}
	return decodeAll(raws, deviceDoc.toDevice)
}

func (s *Store) InsertDevice(ctx context.Context, d *store.DeviceRecord) error {
	doc := deviceWriteDoc{
		ID:         bson.NewObjectID(),
		DeviceName: d.DeviceName,
		FlowData:   make([]flowSampleWriteDoc, 0, len(d.FlowData)),
		CreatedAt:  time.Now().UTC(),
	}
	for _, sample := range d.FlowData {
		doc.FlowData = append(doc.FlowData, flowSampleWriteDoc(sample))
	}
	if _, err := s.devices().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert device: %w", err)
	}
	d.ID = doc.ID.Hex()
	d.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Store) FindMinigameOverviews(ctx context.Context, q store.MinigameQuery) ([]store.MinigameOverview, error) {
	filter := bson.M{}
	setIf(filter, "pacientId", q.PacientID)
	setIf(filter, "minigameName", q.MinigameName)
	setIf(filter, "respiratoryExercise", q.RespiratoryExercise)
	setIf(filter, "_gameToken", q.GameToken)

	cur, err := s.minigames().Find(ctx, filter, findOptions(store.SortDescending, q.Page))
	if err != nil {
		return nil, err
	}
	var docs []minigameDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]store.MinigameOverview, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toMinigame())
	}
	return out, nil
}

func (s *Store) InsertMinigameOverview(ctx context.Context, m *store.MinigameOverview) error {
	m.CreatedAt = time.Now().UTC()
	doc := newMinigameDoc(*m)
	if _, err := s.minigames().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert minigame overview: %w", err)
	}
	m.ID = doc.ID.Hex()
	return nil
}

func (s *Store) FindCalibrationOverviews(ctx context.Context, q store.CalibrationQuery) ([]store.CalibrationOverview, error) {
	filter := bson.M{}
	if q.ID != "" {
		oid, err := bson.ObjectIDFromHex(q.ID)
		if err != nil {
			return nil, nil
		}
		filter["_id"] = oid
	}
	setIf(filter, "gameDevice", q.GameDevice)
	setIf(filter, "calibrationExercise", q.CalibrationExercise)
	setIf(filter, "_gameToken", q.GameToken)

	cur, err := s.calibrations().Find(ctx, filter, findOptions(store.SortDescending, q.Page))
	if err != nil {
		return nil, err
	}
	var docs []calibrationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]store.CalibrationOverview, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toCalibration())
	}
	return out, nil
}

func (s *Store) InsertCalibrationOverview(ctx context.Context, c *store.CalibrationOverview) error {
	doc := calibrationDoc{
		ID:                  bson.NewObjectID(),
		PacientID:           c.PacientID,
		GameDevice:          c.GameDevice,
		CalibrationExercise: c.CalibrationExercise,
		CalibrationValue:    c.CalibrationValue,
		GameToken:           c.GameToken,
		CreatedAt:           time.Now().UTC(),
	}
	if _, err := s.calibrations().InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert calibration overview: %w", err)
	}
	c.ID = doc.ID.Hex()
	c.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func sessionFilter(q store.SessionQuery) bson.M {
	filter := bson.M{}
	setIf(filter, "pacientId", q.PacientID)
	setIf(filter, "phase", q.Phase)
	setIf(filter, "level", q.Level)
	setIf(filter, "_gameToken", q.GameToken)
	if q.StageID != nil {
		filter["stageId"] = *q.StageID
	}

	created := bson.M{}
	if q.CreatedAt.From != nil {
		created["$gte"] = *q.CreatedAt.From
	}
	if q.CreatedAt.To != nil {
		created["$lte"] = *q.CreatedAt.To
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}
	return filter
}

func findOptions(sort store.SortOrder, page store.Page) *options.FindOptionsBuilder {
	opts := options.Find()
	switch sort {
	case store.SortAscending:
		opts.SetSort(bson.D{{Key: "created_at", Value: 1}})
	case store.SortDescending:
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}})
	}
	if page.Skip > 0 {
		opts.SetSkip(page.Skip)
	}
	if page.Limit > 0 {
		opts.SetLimit(page.Limit)
	}
	return opts
}

func setIf(filter bson.M, key, value string) {
	if value != "" {
		filter[key] = value
	}
}
