package modules

import (
	"net/http"
	"strings"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	modulestore "github.com/Elqomdes/hedeflynet/internal/app/store/modules"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.uber.org/zap"
)

type createInput struct {
	Title            string               `json:"title" validate:"required,max=200" label:"Title"`
	Description      string               `json:"description" validate:"max=5000" label:"Description"`
	Subject          string               `json:"subject" validate:"required,max=60" label:"Subject"`
	Difficulty       int                  `json:"difficulty" validate:"required,min=1,max=5" label:"Difficulty"`
	Prerequisites    []string             `json:"prerequisites" validate:"max=20,dive,objectid" label:"Prerequisites"`
	EstimatedMinutes int                  `json:"estimated_minutes" validate:"min=0,max=600" label:"Estimated minutes"`
	Content          []models.ContentItem `json:"content" validate:"max=50,dive" label:"Content"`
	IsPublished      bool                 `json:"is_published"`
}

// HandleCreate adds a module to the catalog.
// POST /api/teacher/modules
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !shared.Bind(w, r, &in) {
		return
	}
	prereqs, err := shared.ParseIDs(in.Prerequisites)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid prerequisite ID.")
		return
	}
	if in.Content == nil {
		in.Content = []models.ContentItem{}
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create module")
	defer cancel()

	m, err := h.Modules.Create(ctx, models.LearningModule{
		Title:            in.Title,
		Description:      strings.TrimSpace(in.Description),
		Subject:          in.Subject,
		Difficulty:       in.Difficulty,
		Prerequisites:    prereqs,
		EstimatedMinutes: in.EstimatedMinutes,
		Content:          in.Content,
		IsPublished:      in.IsPublished,
		CreatedBy:        shared.UserID(r),
	})
	if msg, ok := catalogError(err); ok {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create module failed", err, "Unable to create module.")
		return
	}
	h.Log.Info("module created", zap.String("module_id", m.ID.Hex()), zap.String("subject", m.Subject))
	respond.JSON(w, http.StatusCreated, m)
}

// ServeList pages the whole catalog, drafts included.
// GET /api/teacher/modules?subject=&published=true&page=&limit=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := modulestore.Filter{Subject: q.Get("subject"), PublishedOnly: q.Get("published") == "true"}
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list modules")
	defer cancel()

	items, total, err := h.Modules.List(ctx, f, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list modules failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

// GET /api/teacher/modules/{id}
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid module ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get module")
	defer cancel()

	m, err := h.Modules.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			h.ErrLog.LogNotFound(w, r, "module not found", "Module not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "get module failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

type editInput struct {
	Title            *string               `json:"title" validate:"omitempty,min=1,max=200" label:"Title"`
	Description      *string               `json:"description" validate:"omitempty,max=5000" label:"Description"`
	Subject          *string               `json:"subject" validate:"omitempty,min=1,max=60" label:"Subject"`
	Difficulty       *int                  `json:"difficulty" validate:"omitempty,min=1,max=5" label:"Difficulty"`
	Prerequisites    *[]string             `json:"prerequisites" validate:"omitempty,max=20,dive,objectid" label:"Prerequisites"`
	EstimatedMinutes *int                  `json:"estimated_minutes" validate:"omitempty,min=0,max=600" label:"Estimated minutes"`
	Content          *[]models.ContentItem `json:"content" validate:"omitempty,max=50,dive" label:"Content"`
	IsPublished      *bool                 `json:"is_published"`
}

// HandleUpdate changes the given fields of a module.
// PATCH /api/teacher/modules/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid module ID.")
		return
	}
	var in editInput
	if !shared.Bind(w, r, &in) {
		return
	}
	e := modulestore.Edit{
		Title:            in.Title,
		Description:      in.Description,
		Subject:          in.Subject,
		Difficulty:       in.Difficulty,
		EstimatedMinutes: in.EstimatedMinutes,
		Content:          in.Content,
		IsPublished:      in.IsPublished,
	}
	if in.Prerequisites != nil {
		ids, err := shared.ParseIDs(*in.Prerequisites)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid prerequisite ID.")
			return
		}
		e.Prerequisites = &ids
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "update module")
	defer cancel()

	if h.editable(ctx, w, r, id) == nil {
		return
	}
	m, err := h.Modules.Update(ctx, id, e)
	if msg, ok := catalogError(err); ok {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}
	if err != nil {
		if isNotFound(err) {
			h.ErrLog.LogNotFound(w, r, "module vanished during update", "Module not found.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update module failed", err, "Unable to update module.")
		return
	}
	respond.JSON(w, http.StatusOK, m)
}

// HandleDelete removes a module, its place in other prerequisite lists and
// every student's progress on it.
// DELETE /api/teacher/modules/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid module ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "delete module")
	defer cancel()

	if h.editable(ctx, w, r, id) == nil {
		return
	}
	if _, err := h.Adaptive.DeleteModule(ctx, id); err != nil {
		h.ErrLog.LogServerError(w, r, "delete module failed", err, "Unable to delete module.")
		return
	}
	h.Log.Info("module deleted", zap.String("module_id", id.Hex()), zap.String("by", shared.UserID(r).Hex()))
	respond.NoContent(w)
}
