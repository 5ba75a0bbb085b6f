// internal/store/store.go
// Package store persists analysis sessions so runs over a corpus of
// recordings can be compared and reloaded.
package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CharonDefalt/keysniff/internal/keystroke"
)

var (
	// ErrSessionNotFound indicates no session exists with the requested ID
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one recorded analysis run.
type Session struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	Source       string `gorm:"index:idx_source"`
	SampleRate   int
	StrokeCount  int
	ClusterCount int
	CreatedAt    time.Time
}

// Stroke is one detected keystroke within a session, in chronological order.
type Stroke struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SessionID string `gorm:"type:varchar(36);index:idx_session"`
	Seq       int
	Position  int64
	ClusterID int32
	AvgCC     float64
}

// DB wraps the sqlite session store.
type DB struct {
	db *gorm.DB
}

// Open opens (and migrates) the session store at path.
func Open(path string) (*DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(path), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.AutoMigrate(&Session{}, &Stroke{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DB{db: db}, nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return fmt.Errorf("getting sql.DB from gorm: %w", err)
	}
	return sqlDB.Close()
}

// SaveSession stores a finished analysis run and returns its session ID.
func (d *DB) SaveSession(source string, sampleRate int, c *keystroke.Collection) (string, error) {
	session := Session{
		ID:           uuid.NewString(),
		Source:       source,
		SampleRate:   sampleRate,
		StrokeCount:  c.Len(),
		ClusterCount: c.ClusterCount,
		CreatedAt:    time.Now(),
	}

	strokes := make([]Stroke, c.Len())
	for i := range c.Strokes {
		strokes[i] = Stroke{
			SessionID: session.ID,
			Seq:       i,
			Position:  c.Strokes[i].Position,
			ClusterID: c.Strokes[i].ClusterID,
			AvgCC:     c.Strokes[i].AvgCC,
		}
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		if len(strokes) > 0 {
			if err := tx.CreateInBatches(strokes, 500).Error; err != nil {
				return fmt.Errorf("insert strokes: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return session.ID, nil
}

// LoadSession returns a stored session and its strokes in chronological
// order. The strokes carry no waveform view; callers re-attach one if they
// need to correlate again.
func (d *DB) LoadSession(id string) (*Session, *keystroke.Collection, error) {
	var session Session
	if err := d.db.First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("load session: %w", err)
	}

	var rows []Stroke
	if err := d.db.Where("session_id = ?", id).Order("seq").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("load strokes: %w", err)
	}

	c := &keystroke.Collection{
		Strokes:      make([]keystroke.KeyStroke, len(rows)),
		ClusterCount: session.ClusterCount,
	}
	for i, r := range rows {
		c.Strokes[i] = keystroke.KeyStroke{
			Position:  r.Position,
			ClusterID: r.ClusterID,
			AvgCC:     r.AvgCC,
		}
	}

	return &session, c, nil
}

// ListSessions returns stored sessions, newest first.
func (d *DB) ListSessions() ([]Session, error) {
	var sessions []Session
	if err := d.db.Order("created_at desc").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}
