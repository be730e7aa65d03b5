package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"todo-tabs/internal/model"
)

// BlobRepository is the primary backend: one row per key in SQLite.
type BlobRepository struct {
	db *gorm.DB
}

func NewBlobRepository(db *gorm.DB) *BlobRepository {
	return &BlobRepository{db: db}
}

// OpenPrimary opens the SQLite database at dsn and returns it as a backend.
// It matches the opener signature expected by NewAdapter.
func OpenPrimary(dsn string) func(ctx context.Context) (Backend, error) {
	return func(ctx context.Context) (Backend, error) {
		db, err := NewDB(dsn)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("sql handle: %w", err)
		}
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ping db: %w", err)
		}
		return NewBlobRepository(db), nil
	}
}

func (r *BlobRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var blob model.Blob
	err := r.db.WithContext(ctx).Where("name = ?", key).First(&blob).Error
	switch {
	case err == nil:
		return blob.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("get blob %q: %w", key, err)
	}
}

func (r *BlobRepository) Set(ctx context.Context, key string, value []byte) error {
	blob := model.Blob{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&blob).Error
	if err != nil {
		return fmt.Errorf("set blob %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *BlobRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
