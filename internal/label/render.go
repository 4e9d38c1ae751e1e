package label

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"go-label-ws/internal/model"
)

type Kind string

const (
	KindMain Kind = "main"
	KindMeta Kind = "meta"
)

type Mode string

const (
	ModePreview Mode = "preview"
	ModePrint   Mode = "print"
)

const (
	placeholder = "-"
	ellipsis    = "…"

	// horizontal padding on each side and bottom padding, mm
	sidePaddingMM   = 2.0
	bottomPaddingMM = 2.0
	// average glyph advance of the bold sans face, in em
	glyphAdvanceEm = 0.6

	headerScale     = 1.1
	headerLineScale = 1.1
	headerMaxLines  = 2
	headerRuleMM    = 1.5
	bodyScale       = 0.9
	rowGapMM        = 0.5
)

// Brand is the fixed caption printed under the QR symbol.
type Brand struct {
	Name    string
	Tagline string
}

// Row is a label/value line of the main label.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

type QRBlock struct {
	Payload string  `json:"payload"`
	SizeMM  float64 `json:"sizeMm"`
	SizePx  float64 `json:"sizePx"`
}

// Decor is the visual chrome. It is the only thing that differs between preview
// and print.
type Decor struct {
	Border bool `json:"border"`
	Shadow bool `json:"shadow"`
}

// Label is a fully laid out label. Text and geometry do not depend on Mode.
type Label struct {
	Kind         Kind     `json:"kind"`
	WidthMM      float64  `json:"widthMm"`
	HeightMM     float64  `json:"heightMm"`
	PaddingTopMM float64  `json:"paddingTopMm"`
	FontSizePx   float64  `json:"fontSizePx"`
	LineSpacing  float64  `json:"lineSpacing"`
	Header       []string `json:"header"`
	Rows         []Row    `json:"rows,omitempty"`
	QR           *QRBlock `json:"qr,omitempty"`
	Badge        string   `json:"badge,omitempty"`
	Footer       []string `json:"footer,omitempty"`
	Body         []string `json:"body,omitempty"`
	Decor        Decor    `json:"decor"`
}

// Target says where the rendered label goes: the stored record id (if any) used
// for the QR reference, its short id for the badge and the mode.
type Target struct {
	ID      string
	ShortID string
	Mode    Mode
}

type Renderer struct {
	Encoder Encoder
	Brand   Brand
}

// Render lays out one label of the pair.
func (r Renderer) Render(rec model.LabelRecord, kind Kind, s model.LabelSettings, t Target) Label {
	l := Label{
		Kind:         kind,
		WidthMM:      s.Width,
		HeightMM:     s.Height,
		PaddingTopMM: s.PaddingTop,
		FontSizePx:   s.FontSize,
		LineSpacing:  s.LineSpacing,
		Decor:        decorFor(t.Mode),
	}

	if kind == KindMeta {
		r.renderMeta(&l, rec, s)
		return l
	}
	r.renderMain(&l, rec, s, t)
	return l
}

// Pair renders main and meta, in print order.
func (r Renderer) Pair(rec model.LabelRecord, s model.LabelSettings, t Target) (Label, Label) {
	return r.Render(rec, KindMain, s, t), r.Render(rec, KindMeta, s, t)
}

func decorFor(m Mode) Decor {
	if m == ModePrint {
		return Decor{}
	}
	return Decor{Border: true, Shadow: true}
}

func (r Renderer) renderMain(l *Label, rec model.LabelRecord, s model.LabelSettings, t Target) {
	geo := Layout(s)
	headerCols := columns(s, s.FontSize*headerScale)

	l.Header = clamp(breakAll(strings.ToUpper(dash(rec.Cliente)), headerCols), headerMaxLines, headerCols)
	l.Rows = []Row{
		{Label: "O.S:", Value: strings.ToUpper(dash(rec.OS))},
		{Label: "PLACA:", Value: strings.ToUpper(dash(rec.Placa))},
		{Label: "ID/SN:", Value: strings.ToUpper(dash(rec.Frota))},
	}
	l.QR = &QRBlock{
		Payload: r.Encoder.Encode(t.ID, rec),
		SizeMM:  geo.QRSizeMM,
		SizePx:  geo.QRSizePx,
	}
	if t.ShortID != "" {
		l.Badge = "DOC ID: " + t.ShortID
	}
	l.Footer = []string{r.Brand.Name, r.Brand.Tagline, strings.ToUpper(dash(rec.Frota))}
}

func (r Renderer) renderMeta(l *Label, rec model.LabelRecord, s model.LabelSettings) {
	headerCols := columns(s, s.FontSize*headerScale)
	l.Header = clamp(breakAll("DATA: "+FormatDate(rec.Data), headerCols), headerMaxLines, headerCols)

	bodyCols := columns(s, s.FontSize*bodyScale)
	lines := wrapWords(strings.ToUpper("OBS: "+dash(rec.Observacao)), bodyCols)
	l.Body = clamp(lines, bodyLineBudget(s, len(l.Header)), bodyCols)
}

// FormatDate turns an ISO YYYY-MM-DD into DD/MM/YYYY. Anything else is shown
// with its dash-separated parts reversed, and empty as the placeholder.
func FormatDate(iso string) string {
	iso = strings.TrimSpace(iso)
	if iso == "" {
		return placeholder
	}
	if d, err := time.Parse("2006-01-02", iso); err == nil {
		return d.Format("02/01/2006")
	}
	parts := strings.Split(iso, "-")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}

func dash(v string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}

func pxToMM(px float64) float64 { return px / MMToPx }

// columns is how many glyphs of fontPx fit on one line of the label.
func columns(s model.LabelSettings, fontPx float64) int {
	contentMM := s.Width - 2*sidePaddingMM
	glyphMM := pxToMM(fontPx) * glyphAdvanceEm
	if contentMM <= 0 || glyphMM <= 0 {
		return 1
	}
	return max(1, int(math.Floor(contentMM/glyphMM)))
}

// bodyLineBudget is how many body lines fit under the header.
func bodyLineBudget(s model.LabelSettings, headerLines int) int {
	headerFontMM := pxToMM(s.FontSize * headerScale)
	used := s.PaddingTop + float64(headerLines)*headerFontMM*headerLineScale + headerRuleMM + rowGapMM
	lineMM := pxToMM(s.FontSize*bodyScale) * s.LineSpacing
	if lineMM <= 0 {
		return 1
	}
	return max(1, int(math.Floor((s.Height-used-bottomPaddingMM)/lineMM)))
}

// breakAll splits text every cols runes, ignoring word boundaries.
func breakAll(text string, cols int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		runes := []rune(para)
		if len(runes) == 0 {
			lines = append(lines, "")
			continue
		}
		for len(runes) > cols {
			lines = append(lines, string(runes[:cols]))
			runes = runes[cols:]
		}
		lines = append(lines, string(runes))
	}
	return lines
}

// wrapWords wraps on spaces, keeps the user's line breaks and breaks words longer
// than a line.
func wrapWords(text string, cols int) []string {
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, w := range words {
			for utf8.RuneCountInString(w) > cols {
				if cur != "" {
					lines = append(lines, cur)
					cur = ""
				}
				r := []rune(w)
				lines = append(lines, string(r[:cols]))
				w = string(r[cols:])
			}
			switch {
			case cur == "":
				cur = w
			case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(w) <= cols:
				cur += " " + w
			default:
				lines = append(lines, cur)
				cur = w
			}
		}
		if cur != "" {
			lines = append(lines, cur)
		}
	}
	return lines
}

// clamp keeps at most n lines; when text is cut, the last kept line ends in "…".
func clamp(lines []string, n, cols int) []string {
	if len(lines) <= n {
		return lines
	}
	out := append([]string(nil), lines[:n]...)
	last := []rune(out[n-1])
	if len(last) >= cols {
		last = last[:max(0, cols-1)]
	}
	out[n-1] = string(last) + ellipsis
	return out
}
