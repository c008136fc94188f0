package authz_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Elqomdes/hedeflynet/internal/app/system/auth"
	"github.com/Elqomdes/hedeflynet/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func reqAs(id primitive.ObjectID, role string) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	return auth.WithTestUser(req, &auth.SessionUser{ID: id.Hex(), Name: "Test", Role: role})
}

func TestUserCtx_NoUser(t *testing.T) {
	role, _, uid, ok := authz.UserCtx(httptest.NewRequest("GET", "/", nil))
	if ok || role != "visitor" || uid != primitive.NilObjectID {
		t.Errorf("UserCtx = %q %v %v", role, uid, ok)
	}
}

func TestUserCtx_MalformedID(t *testing.T) {
	req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "bad", Role: "admin"})
	if _, _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected malformed ID to fail closed")
	}
}

func TestRoleHelpers(t *testing.T) {
	id := primitive.NewObjectID()
	if !authz.IsAdmin(reqAs(id, "Admin")) {
		t.Error("IsAdmin should be case insensitive")
	}
	if authz.IsAdmin(reqAs(id, "teacher")) {
		t.Error("teacher is not an admin")
	}
	if authz.HasRole(reqAs(id, "parent"), "student") {
		t.Error("role helpers mismatch")
	}
	if !authz.HasAnyRole(reqAs(id, "teacher"), "admin", " teacher ") {
		t.Error("HasAnyRole should trim wanted roles")
	}
}
