// internal/app/features/reports/handler.go
package reports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	uierrors "github.com/Elqomdes/hedeflynet/internal/app/features/errors"
	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/policy/reportpolicy"
	reportsvc "github.com/Elqomdes/hedeflynet/internal/app/services/reports"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler streams student progress reports as PDF downloads.
//
// Authorization happens here; once it passes, the generator always
// produces a document, falling back to placeholder data or an error page.
type Handler struct {
	DB     *mongo.Database
	Users  *userstore.Store
	Gen    *reportsvc.Generator
	ErrLog *uierrors.ErrorLogger
	Log    *zap.Logger

	now func() time.Time
}

func NewHandler(db *mongo.Database, gen *reportsvc.Generator, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:     db,
		Users:  userstore.New(db),
		Gen:    gen,
		ErrLog: errLog,
		Log:    logger,
		now:    time.Now,
	}
}

// ServeStudentPDF serves a report for one of the caller's students. Admins
// may download any student's report.
// GET /api/teacher/reports/students/{id}/pdf?from=&to=
func (h *Handler) ServeStudentPDF(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid student ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "student report")
	defer cancel()

	student, err := h.Users.GetByIDAndRole(ctx, id, models.RoleStudent)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "report: student not found", "Student not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "report: load student failed", err, "")
		return
	}
	if !h.allowed(ctx, w, r, id) {
		return
	}
	h.serve(w, r.WithContext(ctx), student)
}

// ServeChildPDF serves a report for one of the caller's linked children.
// GET /api/parent/reports/children/{id}/pdf?from=&to=
func (h *Handler) ServeChildPDF(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid child ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "child report")
	defer cancel()

	// Unlinked children are refused before their existence is revealed.
	if !h.allowed(ctx, w, r, id) {
		return
	}
	student, err := h.Users.GetByIDAndRole(ctx, id, models.RoleStudent)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "report: linked child not found", "Student not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "report: load child failed", err, "")
		return
	}
	h.serve(w, r.WithContext(ctx), student)
}

// allowed applies the report policy and writes the error response when the
// caller is refused.
func (h *Handler) allowed(ctx context.Context, w http.ResponseWriter, r *http.Request, studentID primitive.ObjectID) bool {
	ok, err := reportpolicy.CanViewStudentReport(ctx, h.DB, r, studentID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "report: policy check failed", err, "")
		return false
	}
	if !ok {
		h.ErrLog.LogForbidden(w, r, "report: caller may not view student", "")
		return false
	}
	return true
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, student *models.User) {
	from, err := shared.QueryTime(r, "from")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	to, err := shared.QueryTime(r, "to")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		respond.Error(w, http.StatusBadRequest, "to must not be before from.")
		return
	}

	pdf, source := h.Gen.Generate(r.Context(), student.ID, student.FullName, from, to)
	h.Log.Info("report generated",
		zap.String("student_id", student.ID.Hex()),
		zap.String("source", source),
		zap.Int("bytes", len(pdf)))

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, reportsvc.Filename(student.FullName, h.now())))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.Header().Set("X-Report-Source", source)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
