// Package report renders the completion report of a container as a PDF file.
package report

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"WarehouseApp/internal/model"
)

// Generator пишет PDF-отчёты в каталог Dir.
type Generator struct {
	Dir string
	Now func() time.Time
}

// NewGenerator returns a generator writing into dir.
func NewGenerator(dir string) *Generator {
	return &Generator{Dir: dir, Now: time.Now}
}

// Generate writes <number>_report_<millis>.pdf and returns its path.
func (g *Generator) Generate(ctx context.Context, c model.Container) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if g.Dir == "" {
		return "", errors.New("report: output directory is not set")
	}
	if err := os.MkdirAll(g.Dir, 0o700); err != nil {
		return "", fmt.Errorf("report: %w", err)
	}
	now := g.Now()
	name := safeName(c.ContainerNumber) + "_report_" + strconv.FormatInt(now.UnixMilli(), 10) + ".pdf"
	path := filepath.Join(g.Dir, name)

	pdf := Render(c, now)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("report: write %s: %w", path, err)
	}
	return path, nil
}

// Render lays the report out on a single page.
func Render(c model.Container, now time.Time) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Warehouse Container Report", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetTextColor(0, 51, 204)
	pdf.CellFormat(0, 12, "Warehouse Container Report", "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, tr("Container #: "+c.ContainerNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	line := func(s string) { pdf.CellFormat(0, 7, tr(s), "", 1, "L", false, 0, "") }
	line("Type: " + string(c.Type))
	door := c.DoorNumber
	if door == "" {
		door = "N/A"
	}
	line("Door #: " + door)
	line("Date: " + now.Format("2006-01-02"))

	section := func(title string) {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 14)
		pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
	}
	item := func(s string) { pdf.CellFormat(0, 6, tr("  - "+s), "", 1, "L", false, 0, "") }

	section("Piece Count:")
	for _, pc := range c.PieceCounts {
		item(strconv.Itoa(pc.Quantity) + " " + string(pc.PackageType))
	}
	section("Materials Supplied:")
	for _, m := range c.MaterialsSupplied {
		item(string(m))
	}
	if c.HasDiscrepancies() {
		pdf.SetTextColor(204, 0, 0)
		section("Discrepancies:")
		for _, d := range c.Discrepancies {
			item(d.Description + " (" + d.Timestamp.Format("2006-01-02 15:04") + ")")
		}
		pdf.SetTextColor(0, 0, 0)
	}
	return pdf
}

// safeName оставляет в имени файла только безопасные символы.
func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "container"
	}
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}
