package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dzivkovi/serverless-app-gemini/internal/logger"
	"github.com/dzivkovi/serverless-app-gemini/internal/safety"
)

// Record is the database row backing one session.
type Record struct {
	SID        string `gorm:"primarykey;column:sid"`
	LastPrompt string `gorm:"column:last_prompt"`
	LastLevel  string `gorm:"column:last_level"`
	UpdatedAt  time.Time
}

// TableName overrides the gorm default pluralization.
func (Record) TableName() string {
	return "gateway_sessions"
}

// GormStore persists session state in Postgres, so state survives restarts
// and is shared between instances.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to Postgres and migrates the session table.
func NewGormStore(databaseURL string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session table: %w", err)
	}

	logger.Info("Session store ready", logger.Fields{"backend": "postgres"})
	return &GormStore{db: db}, nil
}

// NewGormStoreWithDB wraps an existing connection; used by tests.
func NewGormStoreWithDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Get(ctx context.Context, sid string) (State, bool, error) {
	var record Record
	err := s.db.WithContext(ctx).Where("sid = ?", sid).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to load session: %w", err)
	}
	return State{
		LastPrompt: record.LastPrompt,
		LastLevel:  safety.Level(record.LastLevel),
	}, true, nil
}

func (s *GormStore) Set(ctx context.Context, sid string, state State) error {
	record := Record{
		SID:        sid,
		LastPrompt: state.LastPrompt,
		LastLevel:  string(state.LastLevel),
		UpdatedAt:  time.Now(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sid"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_prompt", "last_level", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}
