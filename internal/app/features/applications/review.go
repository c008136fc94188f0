// internal/app/features/applications/review.go
package applications

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	applicationstore "github.com/Elqomdes/hedeflynet/internal/app/store/applications"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	userstore "github.com/Elqomdes/hedeflynet/internal/app/store/users"
	"github.com/Elqomdes/hedeflynet/internal/app/system/mailer"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/app/system/txn"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTempPassword() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// ServeList pages applications, newest first.
// GET /api/admin/applications?status=&page=&limit=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	switch status {
	case "", models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
	default:
		respond.Error(w, http.StatusBadRequest, "Unknown application status.")
		return
	}
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list applications")
	defer cancel()

	items, total, err := h.Applications.List(ctx, status, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list applications failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

// ServeGet returns one application.
// GET /api/admin/applications/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid application ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get application")
	defer cancel()

	a, err := h.Applications.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "application not found", "Application not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "get application failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

type approveResponse struct {
	Application *models.Application `json:"application"`
	Teacher     models.User         `json:"teacher"`
}

// HandleApprove creates an active teacher account for a pending application,
// marks it approved and emails the applicant their temporary password.
// POST /api/admin/applications/{id}/approve
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid application ID.")
		return
	}
	reviewer := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "approve application")
	defer cancel()

	a, err := h.Applications.GetByID(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "approve: application not found", "Application not found.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "approve: load application failed", err, "")
		return
	}
	if a.Status != models.ApplicationPending {
		respond.Error(w, http.StatusConflict, applicationstore.ErrNotPending.Error())
		return
	}

	password := h.tempPassword()
	var (
		teacher  models.User
		approved *models.Application
	)
	err = txn.Run(ctx, h.Client, h.Log, func(ctx context.Context) error {
		var err error
		teacher, err = h.Users.Create(ctx, models.User{
			FullName: a.FullName,
			Email:    a.Email,
			Phone:    a.Phone,
			Role:     models.RoleTeacher,
			Subjects: a.Subjects,
			IsActive: true,
		}, password)
		if err != nil {
			return err
		}
		approved, err = h.Applications.Approve(ctx, id, reviewer, teacher.ID)
		if err != nil {
			// Without a transaction the account would outlive the failed approval.
			if _, derr := h.Users.Delete(ctx, teacher.ID); derr != nil {
				h.Log.Warn("approve: cleanup of teacher account failed", zap.String("user_id", teacher.ID.Hex()), zap.Error(derr))
			}
		}
		return err
	})
	switch {
	case errors.Is(err, userstore.ErrDuplicateEmail):
		respond.Error(w, http.StatusConflict, "An account with this email already exists.")
		return
	case errors.Is(err, applicationstore.ErrNotPending):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "approve application failed", err, "Unable to approve application.")
		return
	}

	msg := mailer.BuildApprovalEmail(mailer.ApprovalEmailData{
		SiteName:     h.SiteName,
		FullName:     teacher.FullName,
		Email:        teacher.Email,
		TempPassword: password,
		LoginURL:     h.LoginURL,
	})
	if err := h.Mail.Send(ctx, msg); err != nil {
		h.Log.Error("approval email failed", zap.String("application_id", id.Hex()), zap.Error(err))
	}

	h.AuditLog.Admin(ctx, r, reviewer, audit.EventApplicationApproved, &teacher.ID,
		map[string]string{"application_id": id.Hex()})
	shared.Invalidate(ctx, h.Cache, h.Log, shared.AdminStatsKey)
	respond.JSON(w, http.StatusOK, approveResponse{Application: approved, Teacher: teacher})
}

type rejectInput struct {
	Reason string `json:"reason" validate:"max=1000" label:"Reason"`
}

// HandleReject rejects a pending application.
// POST /api/admin/applications/{id}/reject
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid application ID.")
		return
	}
	var in rejectInput
	if !shared.Bind(w, r, &in) {
		return
	}
	reviewer := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "reject application")
	defer cancel()

	a, err := h.Applications.Reject(ctx, id, reviewer, strings.TrimSpace(in.Reason))
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, "reject: application not found", "Application not found.")
		return
	case errors.Is(err, applicationstore.ErrNotPending):
		respond.Error(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.ErrLog.LogServerError(w, r, "reject application failed", err, "Unable to reject application.")
		return
	}

	h.AuditLog.Admin(ctx, r, reviewer, audit.EventApplicationRejected, nil,
		map[string]string{"application_id": id.Hex(), "email": a.Email})
	shared.Invalidate(ctx, h.Cache, h.Log, shared.AdminStatsKey)
	respond.JSON(w, http.StatusOK, a)
}
