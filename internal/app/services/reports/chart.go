package reports

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/Elqomdes/hedeflynet/internal/app/store/queries/reportqueries"
	"github.com/fogleman/gg"
)

const (
	chartWidth  = 800
	chartHeight = 360
	chartMargin = 48.0
)

var (
	barColor  = color.RGBA{R: 79, G: 70, B: 229, A: 255}
	axisColor = color.RGBA{R: 156, G: 163, B: 175, A: 255}
	textColor = color.RGBA{R: 55, G: 65, B: 81, A: 255}
)

// SubjectChart draws per-subject averages (0..100) as a bar chart PNG.
func SubjectChart(subjects []reportqueries.SubjectAverage) ([]byte, error) {
	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetColor(color.White)
	dc.Clear()

	left, top := chartMargin, chartMargin/2
	plotW := float64(chartWidth) - left - chartMargin/2
	plotH := float64(chartHeight) - top - chartMargin

	// Gridlines every 25%.
	dc.SetLineWidth(1)
	for pct := 0; pct <= 100; pct += 25 {
		y := top + plotH*(1-float64(pct)/100)
		dc.SetColor(axisColor)
		dc.DrawLine(left, y, left+plotW, y)
		dc.Stroke()
		dc.SetColor(textColor)
		dc.DrawStringAnchored(fmt.Sprintf("%d", pct), left-8, y, 1, 0.5)
	}

	if len(subjects) == 0 {
		dc.SetColor(textColor)
		dc.DrawStringAnchored("No graded work yet", left+plotW/2, top+plotH/2, 0.5, 0.5)
	}

	n := float64(len(subjects))
	slot := plotW / math.Max(n, 1)
	barW := math.Min(slot*0.6, 90)
	for i, s := range subjects {
		avg := math.Max(0, math.Min(100, s.Average))
		h := plotH * avg / 100
		x := left + slot*float64(i) + (slot-barW)/2
		y := top + plotH - h

		dc.SetColor(barColor)
		dc.DrawRectangle(x, y, barW, h)
		dc.Fill()

		dc.SetColor(textColor)
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", avg), x+barW/2, y-6, 0.5, 0)
		dc.DrawStringAnchored(truncate(s.Subject, 14), x+barW/2, top+plotH+14, 0.5, 0.5)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "."
}
