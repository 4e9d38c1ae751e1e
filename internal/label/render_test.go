package label

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-label-ws/internal/model"
)

func testRenderer() Renderer {
	return Renderer{
		Encoder: Encoder{BaseURL: "https://etiquetas.example.com"},
		Brand:   Brand{Name: "CENTRAL TRUCK", Tagline: "SISTEMA FINANCEIRO"},
	}
}

func TestRenderPlaceholders(t *testing.T) {
	main, meta := testRenderer().Pair(model.LabelRecord{}, model.DefaultLabelSettings(), Target{Mode: ModePreview})

	assert.Equal(t, []string{"-"}, main.Header)
	for _, row := range main.Rows {
		assert.Equal(t, "-", row.Value, row.Label)
	}
	assert.Equal(t, "-", main.Footer[2])
	assert.Empty(t, main.Badge)

	assert.Equal(t, []string{"DATA: -"}, meta.Header)
	assert.Equal(t, []string{"OBS: -"}, meta.Body)
}

func TestRenderWorkshopScenario(t *testing.T) {
	rec := model.LabelRecord{Cliente: "JOÃO SILVA", OS: "4490", Placa: "ABC1234", Data: "2024-05-01"}
	s := model.LabelSettings{Width: 40, Height: 40, Gap: 3, PaddingTop: 2, LineSpacing: 1.2, FontSize: 10, QRSize: 45}

	main, meta := testRenderer().Pair(rec, s, Target{Mode: ModePrint})
	geo := Layout(s)

	assert.Equal(t, 83.0, geo.TotalWidthMM)
	assert.Equal(t, []string{"DATA: 01/05/2024"}, meta.Header)
	assert.Equal(t, []string{"JOÃO SILVA"}, main.Header)
	assert.Equal(t, []Row{
		{Label: "O.S:", Value: "4490"},
		{Label: "PLACA:", Value: "ABC1234"},
		{Label: "ID/SN:", Value: "-"},
	}, main.Rows)
	assert.Equal(t, []string{"CENTRAL TRUCK", "SISTEMA FINANCEIRO", "-"}, main.Footer)
	require.NotNil(t, main.QR)
	assert.InDelta(t, geo.QRSizeMM, main.QR.SizeMM, 1e-9)
	assert.Contains(t, main.QR.Payload, "?v=")
}

func TestRenderBadgeAndReference(t *testing.T) {
	main := testRenderer().Render(sample, KindMain, model.DefaultLabelSettings(), Target{
		ID:      "0b9f2c1e-6a55-4f1e-9d7c-3e2a1b0c9d8e",
		ShortID: "0B9F2C1E",
		Mode:    ModePrint,
	})

	assert.Equal(t, "DOC ID: 0B9F2C1E", main.Badge)
	assert.Equal(t, "https://etiquetas.example.com/?id=0b9f2c1e-6a55-4f1e-9d7c-3e2a1b0c9d8e", main.QR.Payload)
}

func TestPreviewMatchesPrint(t *testing.T) {
	r := testRenderer()
	s := model.DefaultLabelSettings()

	for _, kind := range []Kind{KindMain, KindMeta} {
		preview := r.Render(sample, kind, s, Target{Mode: ModePreview})
		printed := r.Render(sample, kind, s, Target{Mode: ModePrint})

		assert.True(t, preview.Decor.Border)
		assert.False(t, printed.Decor.Border)
		preview.Decor = printed.Decor
		assert.Equal(t, preview, printed, kind)
	}
}

func TestHeaderIsClampedToTwoLines(t *testing.T) {
	rec := model.LabelRecord{Cliente: strings.Repeat("TRANSPORTADORA ", 6)}
	s := model.DefaultLabelSettings()

	main := testRenderer().Render(rec, KindMain, s, Target{})
	cols := columns(s, s.FontSize*headerScale)

	require.Len(t, main.Header, 2)
	assert.True(t, strings.HasSuffix(main.Header[1], "…"))
	for _, line := range main.Header {
		assert.LessOrEqual(t, utf8.RuneCountInString(line), cols)
	}
}

func TestMetaBodyKeepsLineBreaks(t *testing.T) {
	rec := model.LabelRecord{Observacao: "linha 1\nlinha 2"}

	meta := testRenderer().Render(rec, KindMeta, model.DefaultLabelSettings(), Target{})

	assert.Equal(t, []string{"OBS: LINHA 1", "LINHA 2"}, meta.Body)
}

func TestMetaBodyIsTruncatedToFit(t *testing.T) {
	rec := model.LabelRecord{Observacao: strings.Repeat("PALAVRA ", 200)}
	s := model.DefaultLabelSettings()

	meta := testRenderer().Render(rec, KindMeta, s, Target{})

	assert.Len(t, meta.Body, bodyLineBudget(s, 1))
	assert.True(t, strings.HasSuffix(meta.Body[len(meta.Body)-1], "…"))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "01/05/2024", FormatDate("2024-05-01"))
	assert.Equal(t, "-", FormatDate(" "))
	assert.Equal(t, "2024/05", FormatDate("05-2024"))
	assert.Equal(t, "ONTEM", FormatDate("ONTEM"))
}

func TestWrapWordsBreaksLongWords(t *testing.T) {
	assert.Equal(t, []string{"ABCDEF", "GH IJ"}, wrapWords("ABCDEFGH IJ", 6))
	assert.Equal(t, []string{"ABCDEF", "GH"}, breakAll("ABCDEFGH", 6))
}
