package model

import (
	"time"

	"gorm.io/datatypes"
)

// StockConfig holds the shared enumerations offered when registering a module.
// There is a single row; the lists only grow.
type StockConfig struct {
	ID          uint                        `gorm:"primaryKey" json:"-"`
	Tipos       datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"tipos"`
	Frequencias datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"frequencias"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

func (StockConfig) TableName() string {
	return "stock_config"
}

const StockConfigID uint = 1

func DefaultStockConfig() StockConfig {
	return StockConfig{
		ID:          StockConfigID,
		Tipos:       datatypes.JSONSlice[string]{"Motor", "ABS", "EBS", "Retarder", "Outros"},
		Frequencias: datatypes.JSONSlice[string]{"Sem Frequência", "40 MHz", "80 MHz", "120 MHz", "Outra"},
	}
}
