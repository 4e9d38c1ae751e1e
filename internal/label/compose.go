package label

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"

	"github.com/go-pdf/fpdf"
)

const (
	pxToPt = 0.75
	// the QR bitmap is rasterised at this many pixels per mm so thermal printers
	// get sharp modules
	qrRasterPerMM = 12
	fontFamily    = "Helvetica"
)

// Document is a label pair ready to print on one page of exactly
// TotalWidthMM x HeightMM: main at x=0, meta at x=Width+Gap.
type Document struct {
	Geometry Geometry
	Main     Label
	Meta     Label
}

func Compose(main, meta Label, geo Geometry) Document {
	return Document{Geometry: geo, Main: main, Meta: meta}
}

func (d Document) qrImage() ([]byte, error) {
	if d.Main.QR == nil || d.Main.QR.SizeMM <= 0 {
		return nil, nil
	}
	px := min(math.Ceil(d.Main.QR.SizeMM*qrRasterPerMM), qrMaxPx)
	return QRPNG(d.Main.QR.Payload, int(px))
}

// WritePDF renders the page with fpdf. Text goes through the cp1252 translator so
// accented Portuguese prints with the core fonts.
func (d Document) WritePDF(w io.Writer) error {
	geo := d.Geometry
	if geo.TotalWidthMM <= 0 || geo.HeightMM <= 0 {
		return fmt.Errorf("pdf: degenerate page %.2fx%.2f mm", geo.TotalWidthMM, geo.HeightMM)
	}

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: geo.TotalWidthMM, Ht: geo.HeightMM},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Etiquetas", true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	png, err := d.qrImage()
	if err != nil {
		return fmt.Errorf("pdf: render qr: %w", err)
	}
	if png != nil {
		pdf.RegisterImageOptionsReader("qr", fpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(png))
	}

	drawMain(pdf, tr, d.Main, 0, png != nil)
	drawMeta(pdf, tr, d.Meta, geo.LabelWidthMM+geo.GapMM)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf: compose: %w", err)
	}
	return pdf.Output(w)
}

func fontMM(px float64) float64 { return px / MMToPx }

func drawHeader(pdf *fpdf.Fpdf, tr func(string) string, l Label, x float64) float64 {
	size := l.FontSizePx * headerScale
	lineH := fontMM(size) * headerLineScale
	contentW := l.WidthMM - 2*sidePaddingMM

	pdf.SetFont(fontFamily, "B", size*pxToPt)
	y := l.PaddingTopMM
	for _, line := range l.Header {
		pdf.SetXY(x+sidePaddingMM, y)
		pdf.CellFormat(contentW, lineH, tr(line), "", 0, "C", false, 0, "")
		y += lineH
	}
	y += headerRuleMM / 2
	pdf.SetLineWidth(0.3)
	pdf.Line(x+sidePaddingMM, y, x+l.WidthMM-sidePaddingMM, y)
	return y + headerRuleMM/2 + rowGapMM
}

func drawMain(pdf *fpdf.Fpdf, tr func(string) string, l Label, x float64, withQR bool) {
	y := drawHeader(pdf, tr, l, x)
	lineH := fontMM(l.FontSizePx) * l.LineSpacing
	contentW := l.WidthMM - 2*sidePaddingMM

	for _, row := range l.Rows {
		pdf.SetXY(x+sidePaddingMM, y)
		pdf.SetFont(fontFamily, "B", l.FontSizePx*pxToPt)
		labelW := pdf.GetStringWidth(tr(row.Label)) + 1
		pdf.CellFormat(labelW, lineH, tr(row.Label), "", 0, "L", false, 0, "")
		pdf.SetFont(fontFamily, "", l.FontSizePx*pxToPt)
		pdf.CellFormat(contentW-labelW, lineH, tr(row.Value), "", 0, "L", false, 0, "")
		y += lineH
	}

	if l.QR == nil {
		return
	}
	qr := l.QR.SizeMM
	qrY := l.HeightMM - bottomPaddingMM - qr
	if withQR && qr > 0 {
		pdf.ImageOptions("qr", x+sidePaddingMM, qrY, qr, qr, false, fpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	small := l.FontSizePx * bodyScale * 0.8
	smallH := fontMM(small) * 1.2
	textX := x + sidePaddingMM + qr + 1
	textW := l.WidthMM - sidePaddingMM - (textX - x)

	if l.Badge != "" {
		pdf.SetFont(fontFamily, "B", small*pxToPt)
		pdf.SetXY(textX, qrY)
		pdf.CellFormat(textW, smallH, tr(l.Badge), "", 0, "R", false, 0, "")
	}
	pdf.SetFont(fontFamily, "B", small*pxToPt)
	fy := l.HeightMM - bottomPaddingMM - float64(len(l.Footer))*smallH
	for _, line := range l.Footer {
		pdf.SetXY(textX, fy)
		pdf.CellFormat(textW, smallH, tr(line), "", 0, "R", false, 0, "")
		fy += smallH
	}
}

func drawMeta(pdf *fpdf.Fpdf, tr func(string) string, l Label, x float64) {
	y := drawHeader(pdf, tr, l, x)
	size := l.FontSizePx * bodyScale
	lineH := fontMM(size) * l.LineSpacing

	pdf.SetFont(fontFamily, "", size*pxToPt)
	for _, line := range l.Body {
		pdf.SetXY(x+sidePaddingMM, y)
		pdf.CellFormat(l.WidthMM-2*sidePaddingMM, lineH, tr(line), "", 0, "L", false, 0, "")
		y += lineH
	}
}

var printTemplate = template.Must(template.New("print").Funcs(template.FuncMap{
	"mm":  func(v float64) string { return num(v) + "mm" },
	"px":  func(v float64) string { return num(v) + "px" },
	"mul": func(a, b float64) float64 { return a * b },
}).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Etiquetas</title>
<style>
@page { size: {{mm .Geo.TotalWidthMM}} {{mm .Geo.HeightMM}}; margin: 0 }
html, body { margin: 0; padding: 0 }
body { width: {{mm .Geo.TotalWidthMM}}; height: {{mm .Geo.HeightMM}}; display: flex; gap: {{mm .Geo.GapMM}}; font-family: Arial, Helvetica, sans-serif; font-weight: bold; color: #000 }
.label { box-sizing: border-box; overflow: hidden; position: relative; padding: 0 2mm 2mm 2mm }
.label.decor { border: 1px solid #000; box-shadow: 0 1px 4px rgba(0,0,0,.3) }
.header { text-align: center; border-bottom: 0.3mm solid #000; margin-bottom: 0.5mm }
.row span { font-weight: normal }
.bottom { position: absolute; left: 2mm; right: 2mm; bottom: 2mm; display: flex; justify-content: space-between; align-items: flex-end }
.footer { text-align: right }
.body { white-space: pre-wrap; font-weight: normal }
</style>
</head>
<body>
{{with .Main}}<div class="label{{if .Decor.Border}} decor{{end}}" style="width: {{mm .WidthMM}}; height: {{mm .HeightMM}}; padding-top: {{mm .PaddingTopMM}}; font-size: {{px .FontSizePx}}; line-height: {{.LineSpacing}}">
<div class="header" style="font-size: {{px (mul .FontSizePx 1.1)}}">{{range .Header}}<div>{{.}}</div>{{end}}</div>
{{range .Rows}}<div class="row">{{.Label}} <span>{{.Value}}</span></div>
{{end}}<div class="bottom">
{{if $.QR}}<img src="{{$.QR}}" style="width: {{mm .QR.SizeMM}}; height: {{mm .QR.SizeMM}}" alt="QR">{{end}}
<div class="footer" style="font-size: {{px (mul .FontSizePx 0.72)}}">{{if .Badge}}<div>{{.Badge}}</div>{{end}}{{range .Footer}}<div>{{.}}</div>{{end}}</div>
</div>
</div>{{end}}
{{with .Meta}}<div class="label{{if .Decor.Border}} decor{{end}}" style="width: {{mm .WidthMM}}; height: {{mm .HeightMM}}; padding-top: {{mm .PaddingTopMM}}; font-size: {{px .FontSizePx}}; line-height: {{.LineSpacing}}">
<div class="header" style="font-size: {{px (mul .FontSizePx 1.1)}}">{{range .Header}}<div>{{.}}</div>{{end}}</div>
<div class="body" style="font-size: {{px (mul .FontSizePx 0.9)}}">{{range .Body}}<div>{{.}}</div>{{end}}</div>
</div>{{end}}
</body>
</html>
`))

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

// WriteHTML renders a standalone print document: the page rule, both labels side
// by side and nothing else. The QR symbol is inlined as a PNG data URI.
func (d Document) WriteHTML(w io.Writer) error {
	png, err := d.qrImage()
	if err != nil {
		return fmt.Errorf("html: render qr: %w", err)
	}
	var qr template.URL
	if png != nil {
		qr = template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
	}
	return printTemplate.Execute(w, struct {
		Geo  Geometry
		Main Label
		Meta Label
		QR   template.URL
	}{d.Geometry, d.Main, d.Meta, qr})
}
