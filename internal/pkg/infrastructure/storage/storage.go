package storage

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Session state keys. These are the only values persisted on the device.
const (
	KeyAuthToken       string = "authToken"
	KeySelectedGroupID string = "selectedGroupId"
	KeyUserData        string = "userData"
	KeyIsAdmin         string = "isCurrentUserAdmin"
)

var ErrKeyNotFound = errors.New("key not found")

// Store is the persisted device key-value storage backing the session. No
// in-memory copy is authoritative: Get always reads through to storage so
// concurrently mounted screens never observe stale session state.
type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, error)
	// Clear removes all given keys in a single transaction, so no reader can
	// observe a partially cleared session.
	Clear(ctx context.Context, keys ...string) error
	Close() error
}

type sessionValue struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

func (sessionValue) TableName() string {
	return "session_values"
}

type store struct {
	db *gorm.DB
}

// New opens (or creates) the sqlite database at the given path.
func New(ctx context.Context, filePath string) (Store, error) {
	db, err := gorm.Open(sqlite.Open(filePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).AutoMigrate(&sessionValue{})
	if err != nil {
		return nil, err
	}

	return &store{db: db}, nil
}

func (s *store) Set(ctx context.Context, key, value string) error {
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&sessionValue{Key: key, Value: value, UpdatedAt: time.Now()})

	return result.Error
}

func (s *store) Get(ctx context.Context, key string) (string, error) {
	var v sessionValue

	result := s.db.WithContext(ctx).First(&v, "key = ?", key)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return "", ErrKeyNotFound
	}
	if result.Error != nil {
		return "", result.Error
	}

	return v.Value, nil
}

func (s *store) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Delete(&sessionValue{}, "key IN ?", keys).Error
	})
}

func (s *store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
