package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-label-ws/internal/model"
)

type LabelHistoryRepository interface {
	Create(ctx context.Context, h *model.LabelHistory) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.LabelHistory, error)
	// FindAll returns the newest entries first; limit <= 0 means no limit.
	FindAll(ctx context.Context, limit int) ([]model.LabelHistory, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}

type labelHistoryRepo struct {
	db *gorm.DB
}

func NewLabelHistoryRepo(db *gorm.DB) LabelHistoryRepository {
	return &labelHistoryRepo{db}
}

func (r *labelHistoryRepo) Create(ctx context.Context, h *model.LabelHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *labelHistoryRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.LabelHistory, error) {
	var h model.LabelHistory
	if err := r.db.WithContext(ctx).First(&h, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *labelHistoryRepo) FindAll(ctx context.Context, limit int) ([]model.LabelHistory, error) {
	var out []model.LabelHistory
	q := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "timestamp"}, Desc: true})
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

func (r *labelHistoryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.LabelHistory{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *labelHistoryRepo) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.LabelHistory{})
	return res.RowsAffected, res.Error
}
