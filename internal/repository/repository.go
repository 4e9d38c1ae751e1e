package repository

import (
	"context"

	"gorm.io/gorm"

	"go-label-ws/internal/model"
)

// Errors every implementation reports, stubs included. gorm maps unique
// violations to ErrDuplicateKey because the connection sets TranslateError.
var (
	ErrNotFound     = gorm.ErrRecordNotFound
	ErrDuplicateKey = gorm.ErrDuplicatedKey
)

// Migrate creates or updates the schema and seeds the single config row.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(
		&model.User{},
		&model.LabelHistory{},
		&model.AppSetting{},
		&model.StockItem{},
		&model.StockHistoryEntry{},
		&model.StockConfig{},
	); err != nil {
		return err
	}
	return NewStockConfigRepo(db).EnsureDefaults(ctx)
}
