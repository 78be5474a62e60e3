package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/bher20/ecoenergy/internal/advisor"
	"github.com/bher20/ecoenergy/internal/energy"
)

// MaxItemsPerChartPage bounds the bars drawn on one chart page.
const MaxItemsPerChartPage = 10

// Filename is the download name of the report of username.
func Filename(username string) string {
	return safeName(username) + "_relatorio.pdf"
}

func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "usuario"
	}
	return s
}

// Document is the content of one report.
type Document struct {
	Username string
	TotalKWh float64
	// Breakdown is listed and charted in order.
	Breakdown []energy.NamedKWh
	Tips      []string
}

// NewDocument builds the report content from a calculation.
func NewDocument(username string, res energy.ConsumptionResult) Document {
	return Document{
		Username:  username,
		TotalKWh:  res.TotalKWh,
		Breakdown: res.Breakdown(),
		Tips:      advisor.TipsFor(res.TotalKWh),
	}
}

// ChartPages is the number of chart pages the breakdown needs.
func (d Document) ChartPages() int {
	return (len(d.Breakdown) + MaxItemsPerChartPage - 1) / MaxItemsPerChartPage
}

// WritePDF renders d: a summary page followed by bar chart pages of at
// most MaxItemsPerChartPage appliances each.
func WritePDF(w io.Writer, d Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, tr("Relatório de Consumo de Energia - "+d.Username), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Consumo Mensal Total: %.2f kWh", d.TotalKWh)), "", 1, "", false, 0, "")
	pdf.CellFormat(0, 10, tr("Consumo por Aparelho:"), "", 1, "", false, 0, "")
	for _, it := range d.Breakdown {
		pdf.CellFormat(0, 8, tr(fmt.Sprintf("%s: %.2f kWh", it.Name, it.MonthlyKWh)), "", 1, "", false, 0, "")
	}
	if len(d.Tips) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, tr("Dicas de Economia Personalizadas"), "", 1, "", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		for _, tip := range d.Tips {
			pdf.MultiCell(0, 7, tr("- "+tip), "", "L", false)
		}
	}

	for page := 0; page < d.ChartPages(); page++ {
		start := page * MaxItemsPerChartPage
		end := min(start+MaxItemsPerChartPage, len(d.Breakdown))

		var img bytes.Buffer
		if err := BarChart(&img, d.Breakdown[start:end]); err != nil {
			return fmt.Errorf("render chart page %d: %w", page+1, err)
		}

		pdf.AddPage()
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 10, tr("Gráfico de Consumo por Aparelho"), "", 1, "C", false, 0, "")
		pdf.Ln(10)

		name := fmt.Sprintf("chart-%d", page)
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader(name, opts, &img)
		pdf.ImageOptions(name, 10, pdf.GetY(), 180, 0, false, opts, 0, "")
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	return pdf.Output(w)
}
