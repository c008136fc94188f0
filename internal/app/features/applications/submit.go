// internal/app/features/applications/submit.go
package applications

import (
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	applicationstore "github.com/Elqomdes/hedeflynet/internal/app/store/applications"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type submitInput struct {
	FullName        string   `json:"full_name" validate:"required,max=120" label:"Full name"`
	Email           string   `json:"email" validate:"required,email,max=254" label:"Email"`
	Phone           string   `json:"phone" validate:"omitempty,max=32" label:"Phone"`
	Subjects        []string `json:"subjects" validate:"required,min=1,max=20,dive,required,max=60" label:"Subjects"`
	ExperienceYears int      `json:"experience_years" validate:"min=0,max=60" label:"Experience"`
	Message         string   `json:"message" validate:"max=2000" label:"Message"`
}

// HandleSubmit records a teacher application.
// POST /api/applications
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var in submitInput
	if !shared.Bind(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "submit application")
	defer cancel()

	if _, err := h.Users.GetByEmail(ctx, in.Email); err == nil {
		respond.Error(w, http.StatusConflict, "An account with this email already exists.")
		return
	} else if !errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogServerError(w, r, "application: email lookup failed", err, "")
		return
	}

	a, err := h.Applications.Create(ctx, models.Application{
		FullName:        in.FullName,
		Email:           in.Email,
		Phone:           in.Phone,
		Subjects:        in.Subjects,
		ExperienceYears: in.ExperienceYears,
		Message:         in.Message,
	})
	if errors.Is(err, applicationstore.ErrDuplicatePending) {
		respond.Error(w, http.StatusConflict, "An application for this email is already awaiting review.")
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create application failed", err, "Unable to submit application.")
		return
	}

	h.Log.Info("teacher application submitted", zap.String("application_id", a.ID.Hex()))
	shared.Invalidate(ctx, h.Cache, h.Log, shared.AdminStatsKey)
	respond.JSON(w, http.StatusCreated, a)
}
