package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-label-ws/internal/model"
)

type StockConfigRepository interface {
	Get(ctx context.Context) (*model.StockConfig, error)
	// Update locks the config row and saves it when fn reports a change.
	Update(ctx context.Context, fn func(cfg *model.StockConfig) bool) (*model.StockConfig, error)
	EnsureDefaults(ctx context.Context) error
}

type stockConfigRepo struct {
	db *gorm.DB
}

func NewStockConfigRepo(db *gorm.DB) StockConfigRepository {
	return &stockConfigRepo{db}
}

func (r *stockConfigRepo) Get(ctx context.Context) (*model.StockConfig, error) {
	var cfg model.StockConfig
	err := r.db.WithContext(ctx).First(&cfg, model.StockConfigID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		def := model.DefaultStockConfig()
		return &def, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *stockConfigRepo) Update(ctx context.Context, fn func(cfg *model.StockConfig) bool) (*model.StockConfig, error) {
	var cfg model.StockConfig
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cfg, model.StockConfigID).Error; err != nil {
			return err
		}
		if !fn(&cfg) {
			return nil
		}
		return tx.Save(&cfg).Error
	})
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *stockConfigRepo) EnsureDefaults(ctx context.Context) error {
	def := model.DefaultStockConfig()
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&def).Error
}
