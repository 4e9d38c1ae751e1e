// Package report renders the printable inventory and chain of custody reports.
package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"go-label-ws/internal/model"
)

const (
	margin   = 10.0
	rowH     = 6.0
	dateTime = "02/01/2006 15:04"
)

type column struct {
	title string
	width float64
	align string
}

type table struct {
	pdf  *fpdf.Fpdf
	tr   func(string) string
	cols []column
}

func newDocument(title, subtitle string, orientation string) (*fpdf.Fpdf, func(string) string) {
	pdf := fpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.SetTitle(title, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-8)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 4, strconv.Itoa(pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*margin

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(contentW, 8, tr(title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, tr(subtitle), "", 1, "L", false, 0, "")
	pdf.Ln(3)
	return pdf, tr
}

func (t table) header() {
	t.pdf.SetFont("Helvetica", "B", 8)
	t.pdf.SetFillColor(230, 230, 230)
	for _, c := range t.cols {
		t.pdf.CellFormat(c.width, rowH, t.tr(c.title), "1", 0, c.align, true, 0, "")
	}
	t.pdf.Ln(-1)
	t.pdf.SetFont("Helvetica", "", 8)
}

// row writes one line of cells, truncating each value to its column.
func (t table) row(values ...string) {
	_, pageH := t.pdf.GetPageSize()
	if t.pdf.GetY()+rowH > pageH-margin {
		t.pdf.AddPage()
		t.header()
	}
	for i, c := range t.cols {
		v := ""
		if i < len(values) {
			v = fit(t.pdf, t.tr(values[i]), c.width-2)
		}
		t.pdf.CellFormat(c.width, rowH, v, "1", 0, c.align, false, 0, "")
	}
	t.pdf.Ln(-1)
}

func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	for len(s) > 0 && pdf.GetStringWidth(s+"...") > width {
		s = s[:len(s)-1]
	}
	return s + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// location is the "where is it now" column: lending place, maintenance reason or blank.
func location(item model.StockItem) string {
	switch item.Status {
	case model.StatusLentOut:
		return fmt.Sprintf("%s (%s)", orDash(item.LocalAtual), orDash(item.AutorizadoPor))
	case model.StatusUnderMaintenance:
		return fmt.Sprintf("%s: %s", orDash(item.ResponsavelManutencao), orDash(item.MotivoManutencao))
	}
	return "-"
}

// InventoryPDF writes the landscape inventory listing of items, in the given order.
func InventoryPDF(w io.Writer, items []model.StockItem, at time.Time) error {
	pdf, tr := newDocument("Relatório de Estoque",
		fmt.Sprintf("Gerado em %s - %d itens", at.Format(dateTime), len(items)), "L")

	t := table{pdf: pdf, tr: tr, cols: []column{
		{"Status", 28, "L"},
		{"Descrição", 55, "L"},
		{"Aplicação", 40, "L"},
		{"Tipo / Frequência", 40, "L"},
		{"Serial", 32, "L"},
		{"Qtd", 12, "C"},
		{"Local / Detalhes", 70, "L"},
	}}
	t.header()
	for _, item := range items {
		t.row(
			string(item.Status),
			item.Descricao,
			orDash(item.Aplicacao),
			fmt.Sprintf("%s / %s", orDash(item.Tipo), orDash(item.Frequencia)),
			item.Serial,
			strconv.Itoa(item.Quantidade),
			location(item),
		)
	}
	return pdf.Output(w)
}

// CustodyPDF writes the chain of custody of one item, newest entry first.
func CustodyPDF(w io.Writer, item model.StockItem, at time.Time) error {
	pdf, tr := newDocument("Histórico de Custódia",
		fmt.Sprintf("%s - Serial %s - Gerado em %s", item.Descricao, item.Serial, at.Format(dateTime)), "P")

	t := table{pdf: pdf, tr: tr, cols: []column{
		{"Data", 28, "L"},
		{"Anterior", 28, "L"},
		{"Novo", 28, "L"},
		{"Responsável", 40, "L"},
		{"Detalhes", 66, "L"},
	}}
	t.header()
	for _, h := range item.Historico {
		t.row(
			h.Data.Local().Format(dateTime),
			string(h.StatusAnterior),
			string(h.StatusNovo),
			orDash(h.Responsavel),
			orDash(h.Detalhes),
		)
	}
	return pdf.Output(w)
}
