package model

import (
	"time"

	"gorm.io/datatypes"
)

// LabelSettings describes the physical label media. Lengths are millimetres,
// FontSize is in CSS pixels and QRSize is a percentage of min(Width, Height).
type LabelSettings struct {
	Width       float64 `json:"width" validate:"gt=0,lte=500"`
	Height      float64 `json:"height" validate:"gt=0,lte=500"`
	Gap         float64 `json:"gap" validate:"gte=0,lte=500"`
	PaddingTop  float64 `json:"paddingTop" validate:"gte=0,lte=500"`
	LineSpacing float64 `json:"lineSpacing" validate:"gt=0,lte=10"`
	FontSize    float64 `json:"fontSize" validate:"gt=0,lte=200"`
	QRSize      float64 `json:"qrSize" validate:"gte=0,lte=100"`
}

func DefaultLabelSettings() LabelSettings {
	return LabelSettings{
		Width:       40,
		Height:      40,
		Gap:         3,
		PaddingTop:  2,
		LineSpacing: 1.2,
		FontSize:    10,
		QRSize:      45,
	}
}

// AppSetting is a process-wide configuration document keyed by name.
type AppSetting struct {
	Key       string         `gorm:"type:varchar(64);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`
	UpdatedAt time.Time      `json:"updated_at"`
	UpdatedBy string         `json:"updated_by,omitempty"`
}

const SettingLabelKey = "label"
