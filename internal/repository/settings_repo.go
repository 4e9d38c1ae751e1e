package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-label-ws/internal/model"
)

type SettingsRepository interface {
	Get(ctx context.Context, key string) (*model.AppSetting, error)
	Put(ctx context.Context, s *model.AppSetting) error
}

type settingsRepo struct {
	db *gorm.DB
}

func NewSettingsRepo(db *gorm.DB) SettingsRepository {
	return &settingsRepo{db}
}

func (r *settingsRepo) Get(ctx context.Context, key string) (*model.AppSetting, error) {
	var s model.AppSetting
	if err := r.db.WithContext(ctx).First(&s, "key = ?", key).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *settingsRepo) Put(ctx context.Context, s *model.AppSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at", "updated_by"}),
	}).Create(s).Error
}
