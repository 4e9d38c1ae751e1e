package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"go-label-ws/internal/model"
)

// Mutation changes a locked item in place. A non-nil entry is appended to the
// item's custody log in the same transaction.
type Mutation func(item *model.StockItem) (entry *model.StockHistoryEntry, err error)

type StockRepository interface {
	// Create stores item together with its seeded history.
	Create(ctx context.Context, item *model.StockItem) error
	FindAll(ctx context.Context) ([]model.StockItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindBySerial(ctx context.Context, serial string) (*model.StockItem, error)
	// Mutate loads and row-locks the item, applies fn and persists the result
	// atomically.
	Mutate(ctx context.Context, id uuid.UUID, fn Mutation) (*model.StockItem, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("seq DESC")
}

func (r *stockRepo) Create(ctx context.Context, item *model.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *stockRepo) FindAll(ctx context.Context) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.WithContext(ctx).
		Preload("Historico", newestFirst).
		Order("data_atualizacao DESC").
		Find(&items).Error
	return items, err
}

func (r *stockRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	if err := r.db.WithContext(ctx).Preload("Historico", newestFirst).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepo) FindBySerial(ctx context.Context, serial string) (*model.StockItem, error) {
	var item model.StockItem
	if err := r.db.WithContext(ctx).First(&item, "serial = ?", serial).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *stockRepo) Mutate(ctx context.Context, id uuid.UUID, fn Mutation) (*model.StockItem, error) {
	var out *model.StockItem
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.StockItem
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Scopes(newestFirst).Where("stock_item_id = ?", id).Find(&item.Historico).Error; err != nil {
			return err
		}

		entry, err := fn(&item)
		if err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Save(&item).Error; err != nil {
			return err
		}
		if entry != nil {
			if err := tx.Create(entry).Error; err != nil {
				return err
			}
		}
		out = &item
		return nil
	})
	return out, err
}

func (r *stockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.StockHistoryEntry{}, "stock_item_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.StockItem{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}
