package model

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockStatus is the lifecycle state of a tracked module. The string values are
// stored and shown as-is.
type StockStatus string

const (
	StatusInStock          StockStatus = "Em Estoque"
	StatusLentOut          StockStatus = "Emprestado"
	StatusUnderMaintenance StockStatus = "Em Manutenção"

	// StatusNew only appears as the previous status of the registration entry.
	StatusNew StockStatus = "NOVO"
)

// StockStatuses lists the valid states in display order.
var StockStatuses = []StockStatus{StatusInStock, StatusLentOut, StatusUnderMaintenance}

func (s StockStatus) Valid() bool {
	return slices.Contains(StockStatuses, s)
}

func ParseStockStatus(v string) (StockStatus, error) {
	s := StockStatus(v)
	if !s.Valid() {
		return "", fmt.Errorf("unknown stock status %q, expected one of %q", v, StockStatuses)
	}
	return s, nil
}

// StockItem is a tracked hardware module.
type StockItem struct {
	BaseModel
	Descricao  string      `gorm:"type:varchar(255);not null" json:"descricao" validate:"required"`
	Tipo       string      `gorm:"type:varchar(100)" json:"tipo"`
	Frequencia string      `gorm:"type:varchar(100)" json:"frequencia"`
	Aplicacao  string      `gorm:"type:varchar(255)" json:"aplicacao"`
	Serial     string      `gorm:"type:varchar(120);uniqueIndex;not null" json:"serial" validate:"required"`
	Quantidade int         `gorm:"not null;default:1" json:"quantidade" validate:"gte=1"`
	Status     StockStatus `gorm:"type:varchar(20);not null;index" json:"status" validate:"stock_status"`

	// Status dependent fields
	LocalAtual            string `gorm:"type:varchar(255)" json:"localAtual,omitempty"`
	AutorizadoPor         string `gorm:"type:varchar(255)" json:"autorizadoPor,omitempty"`
	ResponsavelManutencao string `gorm:"type:varchar(255)" json:"responsavelManutencao,omitempty"`
	MotivoManutencao      string `gorm:"type:text" json:"motivoManutencao,omitempty"`
	DataSaida             string `gorm:"type:varchar(10)" json:"dataSaida,omitempty"`       // YYYY-MM-DD
	PrevisaoRetorno       string `gorm:"type:varchar(10)" json:"previsaoRetorno,omitempty"` // YYYY-MM-DD

	// Newest first. Persisted append-only, see StockHistoryEntry.Seq.
	Historico       []StockHistoryEntry `gorm:"foreignKey:StockItemID;constraint:OnDelete:CASCADE" json:"historico"`
	DataAtualizacao time.Time           `gorm:"not null;index" json:"dataAtualizacao"`
}

func (StockItem) TableName() string {
	return "stock_items"
}

// StockHistoryEntry is one immutable record of the chain of custody.
type StockHistoryEntry struct {
	ID             uuid.UUID   `gorm:"type:uuid;primaryKey" json:"-"`
	StockItemID    uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:idx_stock_history_seq,priority:1" json:"-"`
	Seq            int         `gorm:"not null;uniqueIndex:idx_stock_history_seq,priority:2" json:"seq"`
	StatusAnterior StockStatus `gorm:"type:varchar(20);not null" json:"statusAnterior"`
	StatusNovo     StockStatus `gorm:"type:varchar(20);not null" json:"statusNovo"`
	Data           time.Time   `gorm:"not null" json:"data"`
	Responsavel    string      `gorm:"type:varchar(255)" json:"responsavel,omitempty"`
	ResponsavelUID string      `gorm:"type:varchar(36)" json:"responsavelUid,omitempty"`
	Detalhes       string      `gorm:"type:text" json:"detalhes,omitempty"`
}

func (StockHistoryEntry) TableName() string {
	return "stock_history_entries"
}

func (e *StockHistoryEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
