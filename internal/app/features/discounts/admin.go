// internal/app/features/discounts/admin.go
package discounts

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	discountstore "github.com/Elqomdes/hedeflynet/internal/app/store/discounts"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
)

type createInput struct {
	Code            string   `json:"code" validate:"required,min=3,max=40,alphanum" label:"Code"`
	Description     string   `json:"description" validate:"max=500" label:"Description"`
	Type            string   `json:"type" validate:"required,oneof=percentage fixed" label:"Type"`
	Value           int64    `json:"value" validate:"required,gt=0" label:"Value"`
	MaxUses         int      `json:"max_uses" validate:"min=0" label:"Max uses"`
	ValidFrom       string   `json:"valid_from" label:"Valid from"`
	ValidUntil      string   `json:"valid_until" label:"Valid until"`
	ApplicablePlans []string `json:"applicable_plans" validate:"dive,plantype" label:"Applicable plans"`
	IsActive        *bool    `json:"is_active" label:"Active"`
}

// updateInput carries only the fields to change. An empty valid_from or
// valid_until clears that bound; an empty applicable_plans list means all plans.
type updateInput struct {
	Code            *string   `json:"code" validate:"omitempty,min=3,max=40,alphanum" label:"Code"`
	Description     *string   `json:"description" validate:"omitempty,max=500" label:"Description"`
	Type            *string   `json:"type" validate:"omitempty,oneof=percentage fixed" label:"Type"`
	Value           *int64    `json:"value" validate:"omitempty,gt=0" label:"Value"`
	MaxUses         *int      `json:"max_uses" validate:"omitempty,min=0" label:"Max uses"`
	ValidFrom       *string   `json:"valid_from" label:"Valid from"`
	ValidUntil      *string   `json:"valid_until" label:"Valid until"`
	ApplicablePlans *[]string `json:"applicable_plans" validate:"omitempty,dive,plantype" label:"Applicable plans"`
	IsActive        *bool     `json:"is_active" label:"Active"`
}

// storeError maps discount store validation errors to a 400 or 409.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, discountstore.ErrDuplicateCode):
		respond.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, discountstore.ErrBadType), errors.Is(err, discountstore.ErrBadValue), errors.Is(err, discountstore.ErrBadWindow):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, op+": discount not found", "Discount not found.")
	default:
		h.ErrLog.LogServerError(w, r, op+" failed", err, "Unable to save discount.")
	}
}

func parseWindow(from, until string) (*time.Time, *time.Time, error) {
	f, err := shared.ParseTime(from)
	if err != nil {
		return nil, nil, err
	}
	u, err := shared.ParseTime(until)
	if err != nil {
		return nil, nil, err
	}
	return f, u, nil
}

// HandleCreate creates a discount code.
// POST /api/admin/discounts
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !shared.Bind(w, r, &in) {
		return
	}
	from, until, err := parseWindow(in.ValidFrom, in.ValidUntil)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Validity dates must be RFC 3339 or YYYY-MM-DD.")
		return
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create discount")
	defer cancel()

	d, err := h.Discounts.Create(ctx, models.Discount{
		Code:            in.Code,
		Description:     strings.TrimSpace(in.Description),
		Type:            in.Type,
		Value:           in.Value,
		MaxUses:         in.MaxUses,
		ValidFrom:       from,
		ValidUntil:      until,
		ApplicablePlans: in.ApplicablePlans,
		IsActive:        active,
	})
	if err != nil {
		h.storeError(w, r, "create discount", err)
		return
	}
	h.AuditLog.Admin(ctx, r, shared.UserID(r), audit.EventDiscountCreated, nil, map[string]string{"code": d.Code})
	respond.JSON(w, http.StatusCreated, d)
}

// ServeList pages discounts ordered by code.
// GET /api/admin/discounts?active=true&page=&limit=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "list discounts")
	defer cancel()

	items, total, err := h.Discounts.List(ctx, activeOnly, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list discounts failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

// ServeGet returns one discount.
// GET /api/admin/discounts/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid discount ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get discount")
	defer cancel()

	d, err := h.Discounts.GetByID(ctx, id)
	if err != nil {
		h.storeError(w, r, "get discount", err)
		return
	}
	respond.JSON(w, http.StatusOK, d)
}

// HandleUpdate applies a partial edit. The usage counter is never editable.
// PATCH /api/admin/discounts/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid discount ID.")
		return
	}
	var in updateInput
	if !shared.Bind(w, r, &in) {
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update discount")
	defer cancel()

	d, err := h.Discounts.GetByID(ctx, id)
	if err != nil {
		h.storeError(w, r, "update discount", err)
		return
	}
	if in.Code != nil {
		d.Code = *in.Code
	}
	if in.Description != nil {
		d.Description = strings.TrimSpace(*in.Description)
	}
	if in.Type != nil {
		d.Type = *in.Type
	}
	if in.Value != nil {
		d.Value = *in.Value
	}
	if in.MaxUses != nil {
		d.MaxUses = *in.MaxUses
	}
	if in.ValidFrom != nil {
		if d.ValidFrom, err = shared.ParseTime(*in.ValidFrom); err != nil {
			respond.Error(w, http.StatusBadRequest, "Valid from must be RFC 3339 or YYYY-MM-DD.")
			return
		}
	}
	if in.ValidUntil != nil {
		if d.ValidUntil, err = shared.ParseTime(*in.ValidUntil); err != nil {
			respond.Error(w, http.StatusBadRequest, "Valid until must be RFC 3339 or YYYY-MM-DD.")
			return
		}
	}
	if in.ApplicablePlans != nil {
		d.ApplicablePlans = *in.ApplicablePlans
	}
	if in.IsActive != nil {
		d.IsActive = *in.IsActive
	}

	out, err := h.Discounts.Update(ctx, *d)
	if err != nil {
		h.storeError(w, r, "update discount", err)
		return
	}
	h.AuditLog.Admin(ctx, r, shared.UserID(r), audit.EventDiscountUpdated, nil, map[string]string{"code": out.Code})
	respond.JSON(w, http.StatusOK, out)
}

// HandleDelete removes a discount. Subscriptions keep the code they were sold with.
// DELETE /api/admin/discounts/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid discount ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "delete discount")
	defer cancel()

	n, err := h.Discounts.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete discount failed", err, "Unable to delete discount.")
		return
	}
	if n == 0 {
		h.ErrLog.LogNotFound(w, r, "delete: discount not found", "Discount not found.")
		return
	}
	h.AuditLog.Admin(ctx, r, shared.UserID(r), audit.EventDiscountDeleted, nil, map[string]string{"discount_id": id.Hex()})
	respond.NoContent(w)
}
