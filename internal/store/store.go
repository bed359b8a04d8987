// Package store describes the document store the service reads from. The
// mongostore, pgstore and memstore subpackages implement it.
package store

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("store: document not found")
	ErrMalformedDocument = errors.New("store: malformed document")
)

// Collection names, shared by every backend.
const (
	CollectionAccounts     = "useraccounts"
	CollectionPacients     = "pacients"
	CollectionSessions     = "plataformoverviews"
	CollectionDevices      = "flowdatadevices"
	CollectionMinigames    = "minigameoverviews"
	CollectionCalibrations = "calibrationoverviews"
)

type SortOrder int

const (
	SortNatural SortOrder = iota
	SortAscending
	SortDescending
)

// TimeRange bounds are inclusive; a nil bound is open.
type TimeRange struct {
	From *time.Time
	To   *time.Time
}

func (r TimeRange) Contains(t time.Time) bool {
	if r.From != nil && t.Before(*r.From) {
		return false
	}
	if r.To != nil && t.After(*r.To) {
		return false
	}
	return true
}

// Page is applied skip first; a zero Limit means no limit.
type Page struct {
	Skip  int64
	Limit int64
}

type SessionQuery struct {
	PacientID string
	Phase     string
	Level     string
	StageID   *int
	CreatedAt TimeRange
	GameToken string
	Sort      SortOrder
	Page      Page
}

type MinigameQuery struct {
	PacientID           string
	MinigameName        string
	RespiratoryExercise string
	GameToken           string
	Page                Page
}

type CalibrationQuery struct {
	ID                  string
	GameDevice          string
	CalibrationExercise string
	GameToken           string
	Page                Page
}

type AccountStore interface {
	FindAccountByGameToken(ctx context.Context, token string) (Account, error)
}

type PacientStore interface {
	FindPacient(ctx context.Context, id, gameToken string) (Pacient, error)
}

type SessionStore interface {
	FindSessions(ctx context.Context, q SessionQuery) ([]SessionRecord, error)
}

type DeviceStore interface {
	FindDevices(ctx context.Context, ids []string) ([]DeviceRecord, error)
	InsertDevice(ctx context.Context, d *DeviceRecord) error
}

type MinigameStore interface {
	FindMinigameOverviews(ctx context.Context, q MinigameQuery) ([]MinigameOverview, error)
	InsertMinigameOverview(ctx context.Context, m *MinigameOverview) error
}

type CalibrationStore interface {
	FindCalibrationOverviews(ctx context.Context, q CalibrationQuery) ([]CalibrationOverview, error)
	InsertCalibrationOverview(ctx context.Context, c *CalibrationOverview) error
}

// Store is the full adapter wired at process start.
type Store interface {
	AccountStore
	PacientStore
	SessionStore
	DeviceStore
	MinigameStore
	CalibrationStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Paginate applies p to items, skip first.
func Paginate[T any](items []T, p Page) []T {
	if p.Skip > 0 {
		if p.Skip >= int64(len(items)) {
			return items[:0]
		}
		items = items[p.Skip:]
	}
	if p.Limit > 0 && p.Limit < int64(len(items)) {
		items = items[:p.Limit]
	}
	return items
}

var objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)

// IsObjectID reports whether id has the shape of a 24 character hex document id.
func IsObjectID(id string) bool {
	return objectIDPattern.MatchString(id)
}

// NewID returns a 24 character hex identifier shaped like a document id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}
