package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entry is a cached blob with an absolute expiry timestamp (epoch seconds).
type entry struct {
	Key       string `gorm:"primaryKey;column:key"`
	Value     []byte `gorm:"column:value"`
	ExpiresAt int64  `gorm:"column:expires_at;index"`
}

func (entry) TableName() string { return "cache_entries" }

// SQLiteStore is a Store backed by a local sqlite database, standing in for
// a networked cache so the daemon has no extra runtime dependency.
type SQLiteStore struct {
	db  *gorm.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the cache database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate cache schema: %w", err)
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e entry
	err := s.db.WithContext(ctx).
		Where("key = ? AND expires_at > ?", key, s.now().Unix()).
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	return e.Value, nil
}

func (s *SQLiteStore) SetWithTTL(ctx context.Context, key string, ttl time.Duration, value []byte) error {
	e := entry{Key: key, Value: value, ExpiresAt: s.now().Add(ttl).Unix()}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at <= ?", s.now().Unix()).
		Delete(&entry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired cache entries: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
