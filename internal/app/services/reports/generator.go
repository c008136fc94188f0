package reports

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Sources reported by Generate and counted in metrics.
const (
	SourcePrimary  = "primary"
	SourceFallback = "fallback"
	SourceError    = "error"
)

type collector interface {
	Collect(ctx context.Context, studentID primitive.ObjectID, from, to *time.Time) (*Data, error)
	Fallback(studentID primitive.ObjectID, name string) *Data
}

// Generator runs the fallback chain: collected data, then placeholder data,
// then the error document.
type Generator struct {
	data    collector
	render  func(*Data) ([]byte, error)
	metrics *metrics.Metrics
	log     *zap.Logger
	now     func() time.Time
}

func NewGenerator(data *DataService, m *metrics.Metrics, logger *zap.Logger) *Generator {
	return &Generator{data: data, render: Render, metrics: m, log: logger, now: time.Now}
}

// Generate always returns a PDF. name is the caller's view of the student
// name and is used when the data layer cannot provide one.
func (g *Generator) Generate(ctx context.Context, studentID primitive.ObjectID, name string, from, to *time.Time) ([]byte, string) {
	source := SourcePrimary
	d, err := g.data.Collect(ctx, studentID, from, to)
	if err != nil {
		g.log.Warn("report data collection failed; using placeholder data",
			zap.String("student_id", studentID.Hex()), zap.Error(err))
		d = g.data.Fallback(studentID, name)
		d.From, d.To = from, to
		source = SourceFallback
	}

	out, err := g.render(d)
	if err != nil {
		g.log.Error("report render failed; serving error document",
			zap.String("student_id", studentID.Hex()), zap.String("source", source), zap.Error(err))
		out = ErrorPDF(d.StudentName, g.now())
		source = SourceError
	}
	g.metrics.Report(source)
	return out, source
}

var (
	unsafeFilename = regexp.MustCompile(`[^a-z0-9]+`)
	asciiFold      = strings.NewReplacer("ç", "c", "Ç", "C", "ö", "o", "Ö", "O", "ü", "u", "Ü", "U")
)

// Filename builds the attachment name: report-<name>-<yyyy-mm-dd>.pdf.
func Filename(studentName string, at time.Time) string {
	slug := strings.Trim(unsafeFilename.ReplaceAllString(strings.ToLower(asciiFold.Replace(latinFold.Replace(studentName))), "-"), "-")
	if slug == "" {
		slug = "student"
	}
	return fmt.Sprintf("report-%s-%s.pdf", slug, at.UTC().Format("2006-01-02"))
}
