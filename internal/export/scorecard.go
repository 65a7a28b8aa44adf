// Package export renders a scoreboard snapshot as a printable A4 scorecard.
package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf/v2"

	"github.com/cory-johannsen/kniffel/internal/game/ruleset"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
)

const (
	margin     = 36.0
	rowHeight  = 20.0
	labelWidth = 150.0
	minColumn  = 48.0
	titleSize  = 18.0
	fontSize   = 10.0
)

// ScorecardPDF lays out the fifteen sheet rows, lower total and grand total
// for every player in snap. Derived rows are shaded; the leader's grand total
// is set in bold. Players that do not fit across one page continue on the
// next, each page repeating the row labels.
//
// Precondition: sheet must be non-nil.
// Postcondition: Returns a complete PDF document or a non-nil error.
func ScorecardPDF(sheet *ruleset.Sheet, snap scoreboard.Snapshot) ([]byte, error) {
	orientation := "P"
	if len(snap.Players) > 6 {
		orientation = "L"
	}
	pdf := gofpdf.New(orientation, "pt", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(sheet.Name, true)
	pdf.SetDrawColor(60, 60, 60)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetLineWidth(0.5)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	avail := pageW - 2*margin - labelWidth
	leader := snap.Leader()
	for _, cols := range columnPages(len(snap.Players), int(avail/minColumn)) {
		pdf.AddPage()
		colW := minColumn
		if n := cols[1] - cols[0]; n > 0 {
			colW = max(minColumn, min(110, avail/float64(n)))
		}
		drawPage(pdf, tr, sheet, snap, cols, colW, leader)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering scorecard pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnPages splits n player columns into [from, to) ranges of at most
// perPage. There is always at least one page.
func columnPages(n, perPage int) [][2]int {
	perPage = max(perPage, 1)
	if n == 0 {
		return [][2]int{{0, 0}}
	}
	var pages [][2]int
	for from := 0; from < n; from += perPage {
		pages = append(pages, [2]int{from, min(from+perPage, n)})
	}
	return pages
}

// drawPage renders players cols[0]..cols[1]-1 on the current page.
func drawPage(pdf *gofpdf.Fpdf, tr func(string) string, sheet *ruleset.Sheet, snap scoreboard.Snapshot, cols [2]int, colW float64, leader int) {
	players := snap.Players[cols[0]:cols[1]]

	title := sheet.Name
	if cols[0] > 0 {
		title = fmt.Sprintf("%s (players %d-%d)", sheet.Name, cols[0]+1, cols[1])
	}
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.CellFormat(0, 24, tr(title), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	// Header
	pdf.SetFont("Helvetica", "B", fontSize)
	pdf.SetFillColor(220, 220, 220)
	pdf.CellFormat(labelWidth, rowHeight, "", "1", 0, "L", true, 0, "")
	for _, p := range players {
		pdf.CellFormat(colW, rowHeight, fit(pdf, tr(p.Name), colW-4), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	for _, c := range scoreboard.Categories() {
		derived := c.Kind() == scoreboard.KindDerived
		style := ""
		if derived {
			style = "B"
			pdf.SetFillColor(240, 240, 240)
		}
		pdf.SetFont("Helvetica", style, fontSize)
		pdf.CellFormat(labelWidth, rowHeight, tr(sheet.Row(c).Label), "1", 0, "L", derived, 0, "")
		for _, p := range players {
			pdf.CellFormat(colW, rowHeight, cellText(c, p), "1", 0, "C", derived, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFillColor(220, 220, 220)
	totals := []struct {
		label string
		value func(scoreboard.PlayerSnapshot) int
	}{
		{"Lower total", func(p scoreboard.PlayerSnapshot) int { return p.LowerTotal }},
		{"Grand total", func(p scoreboard.PlayerSnapshot) int { return p.GrandTotal }},
	}
	for ti, row := range totals {
		grand := ti == len(totals)-1
		pdf.SetFont("Helvetica", "B", fontSize)
		pdf.CellFormat(labelWidth, rowHeight, row.label, "1", 0, "L", true, 0, "")
		for i, p := range players {
			style := ""
			if grand && cols[0]+i == leader {
				style = "B"
			}
			pdf.SetFont("Helvetica", style, fontSize)
			pdf.CellFormat(colW, rowHeight, strconv.Itoa(row.value(p)), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
	}
}

func cellText(c scoreboard.Category, p scoreboard.PlayerSnapshot) string {
	switch c {
	case scoreboard.Bonus:
		if p.Bonus {
			return strconv.Itoa(scoreboard.BonusValue)
		}
		return ""
	case scoreboard.UpperTotal:
		return strconv.Itoa(p.UpperTotal)
	}
	cell := p.Cells[c]
	switch cell.State() {
	case scoreboard.Unused:
		return ""
	case scoreboard.Crossed:
		if c.Kind() == scoreboard.KindFixed {
			return "X"
		}
		return "0"
	default:
		return strconv.Itoa(cell.Points())
	}
}

// fit trims translated (single-byte) text until it fits width in the current font.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	for len(s) > 1 && pdf.GetStringWidth(s) > width {
		s = s[:len(s)-1]
	}
	return s
}
