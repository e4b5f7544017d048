package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/yungbote/recipevault-backend/internal/platform/logger"
)

const journalKeyPrefix = "operation:"

// recordRow holds encoded recipe bodies. The value is the codec output
// (gzip JSON), stored opaquely.
type recordRow struct {
	Key       string `gorm:"primaryKey;size:512"`
	Value     []byte
	UpdatedAt time.Time
}

func (recordRow) TableName() string { return "recipe_records" }

// journalRow holds operation-status entries as queryable JSON so drift
// investigations can filter on status/operation in SQL directly.
type journalRow struct {
	Key       string `gorm:"primaryKey;size:512"`
	Payload   datatypes.JSON
	UpdatedAt time.Time
}

func (journalRow) TableName() string { return "recipe_operations" }

type sqlStore struct {
	log *logger.Logger
	db  *gorm.DB
}

func newSQLStore(log *logger.Logger, cfg Config) (Store, error) {
	var dialector gorm.Dialector
	switch cfg.Mode {
	case ModePostgres:
		dialector = postgres.Open(cfg.PostgresDSN)
	case ModeSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s kv store: %w", cfg.Mode, err)
	}
	if err := db.AutoMigrate(&recordRow{}, &journalRow{}); err != nil {
		return nil, fmt.Errorf("migrate %s kv store: %w", cfg.Mode, err)
	}

	return &sqlStore{
		log: log.With("service", "SQLKVStore", "dialect", string(cfg.Mode)),
		db:  db,
	}, nil
}

func (s *sqlStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sql kv store not initialized")
	}
	if strings.HasPrefix(key, journalKeyPrefix) {
		var row journalRow
		err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrKeyNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("sql get %q: %w", key, err)
		}
		return []byte(row.Payload), nil
	}

	var row recordRow
	err := s.db.WithContext(ctx).First(&row, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sql get %q: %w", key, err)
	}
	return row.Value, nil
}

func (s *sqlStore) Put(ctx context.Context, key string, value []byte) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql kv store not initialized")
	}
	now := time.Now().UTC()
	if strings.HasPrefix(key, journalKeyPrefix) {
		row := journalRow{Key: key, Payload: datatypes.JSON(value), UpdatedAt: now}
		if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
			return fmt.Errorf("sql put %q: %w", key, err)
		}
		return nil
	}
	row := recordRow{Key: key, Value: value, UpdatedAt: now}
	if err := s.db.WithContext(ctx).Save(&row).Error; err != nil {
		return fmt.Errorf("sql put %q: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Delete(ctx context.Context, key string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sql kv store not initialized")
	}
	var err error
	if strings.HasPrefix(key, journalKeyPrefix) {
		err = s.db.WithContext(ctx).Delete(&journalRow{}, "key = ?", key).Error
	} else {
		err = s.db.WithContext(ctx).Delete(&recordRow{}, "key = ?", key).Error
	}
	if err != nil {
		return fmt.Errorf("sql delete %q: %w", key, err)
	}
	return nil
}

func (s *sqlStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
