package reports

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/go-pdf/fpdf"
)

const siteName = "HedeflyNet"

// The core PDF fonts are cp1252; Turkish letters outside it are folded to
// their closest Latin form first.
var latinFold = strings.NewReplacer(
	"ş", "s", "Ş", "S", "ğ", "g", "Ğ", "G", "ı", "i", "İ", "I",
)

type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func newPage(title string, created time.Time) *page {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetAuthor(siteName, true)
	pdf.SetCreator(siteName, true)
	pdf.SetCreationDate(created)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AliasNbPages("")
	p := &page{pdf: pdf}
	translate := pdf.UnicodeTranslatorFromDescriptor("")
	p.tr = func(s string) string { return translate(latinFold.Replace(s)) }
	pdf.SetFooterFunc(func() {
		pdf.SetY(-14)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.SetTextColor(156, 163, 175)
		pdf.CellFormat(0, 8, p.tr(fmt.Sprintf("Generated %s by %s", created.UTC().Format("2006-01-02 15:04 UTC"), siteName)), "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "R", false, 0, "")
	})
	pdf.AddPage()
	return p
}

func (p *page) heading(text string, size float64) {
	p.pdf.SetFont("Helvetica", "B", size)
	p.pdf.SetTextColor(31, 41, 55)
	p.pdf.CellFormat(0, size*0.6, p.tr(text), "", 1, "L", false, 0, "")
	p.pdf.Ln(2)
}

func (p *page) text(s string) {
	p.pdf.SetFont("Helvetica", "", 10)
	p.pdf.SetTextColor(55, 65, 81)
	p.pdf.MultiCell(0, 5, p.tr(s), "", "L", false)
}

// table draws a header row and body rows with the given column widths.
func (p *page) table(widths []float64, header []string, rows [][]string) {
	p.pdf.SetFont("Helvetica", "B", 10)
	p.pdf.SetFillColor(238, 242, 255)
	p.pdf.SetTextColor(31, 41, 55)
	p.pdf.SetDrawColor(209, 213, 219)
	for i, h := range header {
		p.pdf.CellFormat(widths[i], 7, p.tr(h), "1", 0, "L", true, 0, "")
	}
	p.pdf.Ln(-1)
	p.pdf.SetFont("Helvetica", "", 10)
	p.pdf.SetTextColor(55, 65, 81)
	for _, row := range rows {
		for i, cell := range row {
			align := "L"
			if i > 0 {
				align = "R"
			}
			p.pdf.CellFormat(widths[i], 6.5, p.tr(cell), "1", 0, align, false, 0, "")
		}
		p.pdf.Ln(-1)
	}
	p.pdf.Ln(4)
}

func (p *page) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render draws a student progress report.
func Render(d *Data) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("render report: no data")
	}
	p := newPage("Progress report: "+d.StudentName, d.GeneratedAt)
	pdf := p.pdf

	p.heading(siteName+" progress report", 18)
	p.text("Student: " + d.StudentName)
	if d.TeacherName != "" {
		p.text("Teacher: " + d.TeacherName)
	}
	p.text("Period: " + period(d.From, d.To))
	if d.Partial {
		pdf.Ln(2)
		pdf.SetTextColor(185, 28, 28)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.MultiCell(0, 5, p.tr("Some statistics could not be loaded. The figures below are placeholders."), "", "L", false)
	}
	pdf.Ln(4)

	p.heading("Summary", 13)
	p.table([]float64{110, 70}, []string{"Measure", "Value"}, [][]string{
		{"Assignments", fmt.Sprintf("%d", d.AssignmentsTotal)},
		{"Pending", fmt.Sprintf("%d", d.AssignmentCounts[models.AssignmentPending])},
		{"Submitted", fmt.Sprintf("%d", d.AssignmentCounts[models.AssignmentSubmitted])},
		{"Graded", fmt.Sprintf("%d", d.AssignmentCounts[models.AssignmentGraded])},
		{"Average grade", fmt.Sprintf("%.1f%%", d.AverageGradePercent)},
		{"Level / XP", fmt.Sprintf("%d / %d", d.Level, d.XP)},
		{"Streak (current / longest)", fmt.Sprintf("%d / %d days", d.CurrentStreak, d.LongestStreak)},
		{"Achievements", fmt.Sprintf("%d", d.Achievements)},
		{"Modules completed", fmt.Sprintf("%d", d.ModulesCompleted)},
		{"Coaching sessions attended", fmt.Sprintf("%d", d.SessionsAttended)},
	})

	p.heading("Subjects", 13)
	if len(d.Subjects) == 0 {
		p.text("No graded assignments in this period.")
		pdf.Ln(4)
	} else {
		rows := make([][]string, 0, len(d.Subjects))
		for _, s := range d.Subjects {
			rows = append(rows, []string{s.Subject, fmt.Sprintf("%d", s.Graded), fmt.Sprintf("%.1f%%", round1(s.Average))})
		}
		p.table([]float64{90, 40, 50}, []string{"Subject", "Graded", "Average"}, rows)

		png, err := SubjectChart(d.Subjects)
		if err != nil {
			return nil, err
		}
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("subjects", opts, bytes.NewReader(png))
		pdf.ImageOptions("subjects", pdf.GetX(), pdf.GetY(), 180, 0, true, opts, 0, "")
		pdf.Ln(4)
	}

	p.heading("Goals", 13)
	if len(d.Goals) == 0 {
		p.text("No goals set.")
	} else {
		rows := make([][]string, 0, len(d.Goals))
		for _, g := range d.Goals {
			progress := fmt.Sprintf("%g / %g", g.Current, g.Target)
			if g.Unit != "" {
				progress += " " + g.Unit
			}
			rows = append(rows, []string{g.Title, progress, fmt.Sprintf("%.1f%%", g.Progress), g.Status})
		}
		p.table([]float64{80, 45, 25, 30}, []string{"Goal", "Progress", "%", "Status"}, rows)
	}

	if pdf.Err() {
		return nil, fmt.Errorf("render report: %w", pdf.Error())
	}
	return p.bytes()
}

// ErrorPDF is the last-resort document served when a report cannot be drawn.
func ErrorPDF(studentName string, at time.Time) []byte {
	p := newPage("Report unavailable", at)
	p.heading(siteName+" progress report", 18)
	if studentName != "" {
		p.text("Student: " + studentName)
	}
	p.pdf.Ln(4)
	p.text("This report could not be generated right now. Please try again later or contact support if the problem persists.")
	out, err := p.bytes()
	if err != nil {
		// The minimal document has no external inputs; this is unreachable in practice.
		return []byte("%PDF-1.4\n%%EOF\n")
	}
	return out
}

func period(from, to *time.Time) string {
	const layout = "2006-01-02"
	switch {
	case from == nil && to == nil:
		return "all time"
	case from == nil:
		return "until " + to.UTC().Format(layout)
	case to == nil:
		return "since " + from.UTC().Format(layout)
	}
	return from.UTC().Format(layout) + " to " + to.UTC().Format(layout)
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
