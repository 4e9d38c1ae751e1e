package label

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-label-ws/internal/model"
)

func workshopDocument() Document {
	s := model.DefaultLabelSettings()
	main, meta := testRenderer().Pair(sample, s, Target{ShortID: "0B9F2C1E", ID: "0b9f2c1e", Mode: ModePrint})
	return Compose(main, meta, Layout(s))
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, workshopDocument().WritePDF(&buf))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))
	assert.Equal(t, 1, strings.Count(buf.String(), "/Type /Page\n"))
}

func TestQRImageRasterIsBounded(t *testing.T) {
	doc := workshopDocument()
	require.NotNil(t, doc.Main.QR)
	doc.Main.QR.SizeMM = 4500

	b, err := doc.qrImage()
	require.NoError(t, err)
	cfg, err := png.DecodeConfig(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, qrMaxPx, cfg.Width)
}

func TestWritePDFRejectsEmptyPage(t *testing.T) {
	doc := workshopDocument()
	doc.Geometry = Geometry{}

	assert.Error(t, doc.WritePDF(&bytes.Buffer{}))
}

func TestWriteHTML(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, workshopDocument().WriteHTML(&buf))
	html := buf.String()

	assert.Contains(t, html, "@page { size: 83mm 40mm; margin: 0 }")
	assert.Contains(t, html, "gap: 3mm")
	assert.Contains(t, html, `src="data:image/png;base64,`)
	assert.Contains(t, html, "DOC ID: 0B9F2C1E")
	assert.Contains(t, html, "DATA: 01/05/2024")
	assert.NotContains(t, html, " decor")
	assert.Equal(t, 2, strings.Count(html, `<div class="label`))
}
