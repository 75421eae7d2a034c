// internal/repository/gorm_store.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go_cyber_aware/internal/middleware"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVRecord はキーバリューストアの1レコード
type KVRecord struct {
	Key       string    `gorm:"column:record_key;primaryKey;size:255"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (KVRecord) TableName() string {
	return "kv_records"
}

// GormStore は RDB (PostgreSQL / SQLite) 上のストア。
// SetMany は1トランザクションで書き込むため、複数キーの更新が部分的に残らない。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate は kv_records テーブルを作成します。
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&KVRecord{}); err != nil {
		return fmt.Errorf("GormStore.Migrate: %w", err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	logger := middleware.GetLogger(ctx)
	var rec KVRecord
	result := s.db.WithContext(ctx).Where("record_key = ?", key).First(&rec)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		logger.Error("Error reading kv record",
			"error", result.Error,
			"key", key,
			"pg_code", pgErrorCode(result.Error),
		)
		return "", false, fmt.Errorf("GormStore.Get: %w", result.Error)
	}
	return rec.Value, true, nil
}

func (s *GormStore) SetMany(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}
	logger := middleware.GetLogger(ctx)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	now := time.Now()
	records := make([]KVRecord, 0, len(keys))
	for _, k := range keys {
		records = append(records, KVRecord{Key: k, Value: values[k], UpdatedAt: now})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).Create(&records).Error
	})
	if err != nil {
		logger.Error("Error writing kv records",
			"error", err,
			"keys", keys,
			"pg_code", pgErrorCode(err),
		)
		return fmt.Errorf("GormStore.SetMany: %w", err)
	}
	return nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// pgErrorCode は PostgreSQL のエラーコードを返します (PostgreSQL 以外は空文字)。
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
