package studygroups

import (
	"errors"
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/features/shared"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/Elqomdes/hedeflynet/internal/app/system/timeouts"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const emptyContent = "Content cannot be empty."

type contentInput struct {
	Content string `json:"content" validate:"required,max=10000" label:"Content"`
}

// GET /api/student/study-groups/{id}/posts?page=&limit=
func (h *Handler) ServePosts(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid group ID.")
		return
	}
	p := paging.Parse(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "list group posts")
	defer cancel()

	if !h.requireMember(ctx, w, r, id, shared.UserID(r)) {
		return
	}
	items, total, err := h.Posts.ListForGroup(ctx, id, p)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "list group posts failed", err, "A database error occurred.")
		return
	}
	respond.JSON(w, http.StatusOK, paging.NewPage(items, p, total))
}

// HandlePost adds a post to a group. Markup outside the formatting subset
// is stripped; a post that is empty afterwards is rejected.
// POST /api/student/study-groups/{id}/posts
func (h *Handler) HandlePost(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid group ID.")
		return
	}
	var in contentInput
	if !shared.Bind(w, r, &in) {
		return
	}
	content := cleanPost(in.Content)
	if content == "" {
		respond.Error(w, http.StatusBadRequest, emptyContent)
		return
	}
	uid := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "create group post")
	defer cancel()

	if !h.requireMember(ctx, w, r, id, uid) {
		return
	}
	post, err := h.Posts.Create(ctx, id, uid, content)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "create group post failed", err, "Unable to post.")
		return
	}
	respond.JSON(w, http.StatusCreated, post)
}

// memberPost loads a post and checks the caller belongs to its group.
func (h *Handler) memberPost(w http.ResponseWriter, r *http.Request, postID, uid primitive.ObjectID) *models.GroupPost {
	post, err := h.Posts.GetByID(r.Context(), postID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		h.ErrLog.LogNotFound(w, r, "group post not found", "Post not found.")
		return nil
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load group post failed", err, "")
		return nil
	}
	if !h.requireMember(r.Context(), w, r, post.GroupID, uid) {
		return nil
	}
	return post
}

// HandleLike toggles the caller's like on a post.
// POST /api/student/study-groups/posts/{id}/like
func (h *Handler) HandleLike(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid post ID.")
		return
	}
	uid := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "like group post")
	defer cancel()
	r = r.WithContext(ctx)

	if h.memberPost(w, r, id, uid) == nil {
		return
	}
	liked, count, err := h.Posts.ToggleLike(ctx, id, uid)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "toggle like failed", err, "")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"liked": liked, "like_count": count})
}

// POST /api/student/study-groups/posts/{id}/comments
func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	id, err := shared.IDParam(r, "id")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid post ID.")
		return
	}
	var in contentInput
	if !shared.Bind(w, r, &in) {
		return
	}
	content := cleanComment(in.Content)
	if content == "" {
		respond.Error(w, http.StatusBadRequest, emptyContent)
		return
	}
	uid := shared.UserID(r)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "comment on group post")
	defer cancel()
	r = r.WithContext(ctx)

	if h.memberPost(w, r, id, uid) == nil {
		return
	}
	c, err := h.Posts.AddComment(ctx, id, uid, content)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "add comment failed", err, "Unable to comment.")
		return
	}
	respond.JSON(w, http.StatusCreated, c)
}
