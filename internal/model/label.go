package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LabelRecord is the service data printed on a label pair. The JSON names are part of
// the self-contained QR payload, so they must stay stable.
type LabelRecord struct {
	Cliente     string `gorm:"type:varchar(255)" json:"cliente"`
	OS          string `gorm:"column:os;type:varchar(100)" json:"os"`
	Placa       string `gorm:"type:varchar(20)" json:"placa"`
	Frota       string `gorm:"type:varchar(120)" json:"frota"`
	Data        string `gorm:"type:varchar(10)" json:"data"` // YYYY-MM-DD
	Observacao  string `gorm:"type:text" json:"observacao"`
	StockItemID string `gorm:"type:varchar(36)" json:"stockItemId,omitempty"`
	CreatedBy   string `gorm:"column:created_by_name;type:varchar(255)" json:"createdBy,omitempty"`
}

// Normalize uppercases every free-text field, notes included, and trims surrounding
// whitespace. Line breaks inside the notes are kept.
func (r LabelRecord) Normalize() LabelRecord {
	r.Cliente = strings.ToUpper(strings.TrimSpace(r.Cliente))
	r.OS = strings.ToUpper(strings.TrimSpace(r.OS))
	r.Placa = strings.ToUpper(strings.TrimSpace(r.Placa))
	r.Frota = strings.ToUpper(strings.TrimSpace(r.Frota))
	r.Data = strings.TrimSpace(r.Data)
	r.Observacao = strings.ToUpper(strings.TrimSpace(r.Observacao))
	r.StockItemID = strings.TrimSpace(r.StockItemID)
	return r
}

// LabelHistory is a persisted, immutable LabelRecord.
type LabelHistory struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ShortID string    `gorm:"type:varchar(12);index" json:"shortId"`

	LabelRecord `gorm:"embedded"`

	CreatedByEmail  string    `gorm:"type:varchar(255)" json:"createdByEmail,omitempty"`
	CreatedByUserID string    `gorm:"type:varchar(36)" json:"-"`
	Timestamp       time.Time `gorm:"not null;index" json:"timestamp"`
}

func (LabelHistory) TableName() string {
	return "label_history"
}

func (h *LabelHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	if h.ShortID == "" {
		h.ShortID = ShortID(h.ID)
	}
	if h.Timestamp.IsZero() {
		h.Timestamp = time.Now()
	}
	return nil
}

// ShortID is the human-readable id printed in the label badge.
func ShortID(id uuid.UUID) string {
	return strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}
