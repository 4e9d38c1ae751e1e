// Package label turns a LabelRecord and the media settings into the two printed
// labels: geometry, QR payload, text layout and the final print document.
package label

import (
	"math"

	"go-label-ws/internal/model"
)

// MMToPx converts millimetres to CSS pixels (96 DPI).
const MMToPx = 3.78

// Geometry is the derived physical layout of a label pair. All lengths in mm
// except QRSizePx.
type Geometry struct {
	LabelWidthMM float64 `json:"labelWidthMm"`
	HeightMM     float64 `json:"heightMm"`
	GapMM        float64 `json:"gapMm"`
	TotalWidthMM float64 `json:"totalWidthMm"`
	QRSizeMM     float64 `json:"qrSizeMm"`
	QRSizePx     float64 `json:"qrSizePx"`
}

// Layout never fails: zero or negative settings give a degenerate layout.
// QRSize is clamped to [0, 100].
func Layout(s model.LabelSettings) Geometry {
	qr := math.Max(0, math.Min(100, s.QRSize))
	qrMM := math.Min(s.Width, s.Height) * qr / 100
	return Geometry{
		LabelWidthMM: s.Width,
		HeightMM:     s.Height,
		GapMM:        s.Gap,
		TotalWidthMM: 2*s.Width + s.Gap,
		QRSizeMM:     qrMM,
		QRSizePx:     qrMM * MMToPx,
	}
}
