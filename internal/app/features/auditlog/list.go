// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList pages the audit trail, newest first.
// GET /api/admin/audit-events?category=&event_type=&user_id=&start_date=&end_date=&page=&limit=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := paging.Parse(r)

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
		Limit:     int64(p.Limit),
		Offset:    p.Skip(),
	}
	if filter.Category != "" && !knownCategories[filter.Category] {
		respond.Error(w, http.StatusBadRequest, "category must be one of: auth, admin.")
		return
	}
	uid, err := shared.OptionalID(q.Get("user_id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "user_id must be a valid ID.")
		return
	}
	filter.UserID = uid
	if filter.StartTime, err = shared.QueryTime(r, "start_date"); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	end, err := shared.QueryTime(r, "end_date")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if end != nil {
		e := endOfDay(*end)
		filter.EndTime = &e
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	total, err := h.Events.Count(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count audit events failed", err, "A database error occurred.")
		return
	}
	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "query audit events failed", err, "A database error occurred.")
		return
	}

	// Resolve actor and target names in one lookup.
	var ids []primitive.ObjectID
	for _, e := range events {
		if e.ActorID != nil {
			ids = append(ids, *e.ActorID)
		}
		if e.UserID != nil {
			ids = append(ids, *e.UserID)
		}
	}
	names, err := h.Users.GetMany(ctx, ids)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "resolve audit names failed", err, "A database error occurred.")
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		it := listItem{Event: e}
		if e.ActorID != nil {
			it.ActorName = names[*e.ActorID].FullName
		}
		if e.UserID != nil {
			it.TargetName = names[*e.UserID].FullName
		}
		items = append(items, it)
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}
