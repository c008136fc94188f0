package studygroups

import (
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	studygroupstore "github.com/Elqomdes/hedeflynet/internal/app/store/studygroups"
	"github.com/Elqomdes/hedeflynet/internal/app/system/htmlsanitize"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type createInput struct {
	Name        string `json:"name" validate:"required,max=100" label:"Name"`
	Description string `json:"description" validate:"max=2000" label:"Description"`
	Subject     string `json:"subject" validate:"required,max=60" label:"Subject"`
	MaxMembers  int    `json:"max_members" validate:"required,min=2,max=100" label:"Max members"`
	IsPublic    *bool  `json:"is_public"`
}

// HandleCreate starts a group owned by the caller.
// POST /api/student/study-groups
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !shared.Bind(w, r, &in) {
		return
	}
	public := true
	if in.IsPublic != nil {
		public = *in.IsPublic
	}
	owner := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create study group")
	defer cancel()

	g, err := h.Groups.Create(ctx, models.StudyGroup{
		Name:        in.Name,
		Description: htmlsanitize.PlainText(in.Description),
		Subject:     in.Subject,
		OwnerID:     owner,
		MaxMembers:  in.MaxMembers,
		IsPublic:    public,
	})
	if errors.Is(err, studygroupstore.ErrBadSize) {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create study group failed", err, "Unable to create group.")
		return
	}
	h.Log.Info("study group created", zap.String("group_id", g.ID.Hex()), zap.String("owner_id", owner.Hex()))
	respond.JSON(w, http.StatusCreated, g)
}

// ServeList pages the groups the caller can see.
// GET /api/student/study-groups?subject=&mine=true&page=&limit=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := studygroupstore.Filter{
		Viewer:  shared.UserID(r),
		Subject: q.Get("subject"),
		Mine:    q.Get("mine") == "true",
	}
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list study groups")
	defer cancel()

	items, total, err := h.Groups.List(ctx, f, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list study groups failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

// POST /api/student/study-groups/{id}/join
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid group ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "join study group")
	defer cancel()

	g, err := h.Groups.Join(ctx, id, shared.UserID(r))
	if h.membershipError(w, r, err) {
		return
	}
	respond.JSON(w, http.StatusOK, g)
}

// POST /api/student/study-groups/{id}/leave
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid group ID.")
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "leave study group")
	defer cancel()

	if h.membershipError(w, r, h.Groups.Leave(ctx, id, shared.UserID(r))) {
		return
	}
	respond.NoContent(w)
}

type inviteInput struct {
	UserID string `json:"user_id" validate:"required,objectid" label:"Student"`
}

// HandleInvite lets another student join the caller's private group.
// POST /api/student/study-groups/{id}/invite
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid group ID.")
		return
	}
	var in inviteInput
	if !shared.Bind(w, r, &in) {
		return
	}
	invitee, _ := shared.ParseID(in.UserID)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "invite to study group")
	defer cancel()

	if _, err := h.Users.GetByIDAndRole(ctx, invitee, models.RoleStudent); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			respond.Error(w, http.StatusBadRequest, "Only students can be invited.")
			return
		}
		h.ErrLog.LogServerError(w, r, "invite: load invitee failed", err, "")
		return
	}
	if h.membershipError(w, r, h.Groups.Invite(ctx, id, shared.UserID(r), invitee)) {
		return
	}
	h.Log.Info("study group invite", zap.String("group_id", id.Hex()), zap.String("user_id", invitee.Hex()))
	respond.NoContent(w)
}

// membershipError maps store failures for join, leave and invite.
func (h *Handler) membershipError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, mongo.ErrNoDocuments):
		h.ErrLog.LogNotFound(w, r, "study group not found", "Group not found.")
	case errors.Is(err, studygroupstore.ErrPrivate), errors.Is(err, studygroupstore.ErrNotOwner):
		h.ErrLog.LogForbidden(w, r, "study group access denied", err.Error())
	case errors.Is(err, studygroupstore.ErrFull),
		errors.Is(err, studygroupstore.ErrAlreadyMember),
		errors.Is(err, studygroupstore.ErrNotMember),
		errors.Is(err, studygroupstore.ErrOwnerCannotLeave):
		h.ErrLog.LogConflict(w, r, "study group membership rejected", err, err.Error())
	default:
		h.ErrLog.LogServerError(w, r, "study group membership failed", err, "")
	}
	return true
}

// cleanPost keeps the post formatting subset. It returns "" when nothing
// readable is left, so markup such as <p></p> counts as empty.
func cleanPost(s string) string {
	out := htmlsanitize.Sanitize(s)
	if htmlsanitize.PlainText(out) == "" {
		return ""
	}
	return out
}

// cleanComment strips all markup; comments are plain text.
func cleanComment(s string) string { return htmlsanitize.PlainText(s) }
