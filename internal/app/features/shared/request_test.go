package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestParseIDs(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()
	ids, err := ParseIDs([]string{a.Hex(), " " + b.Hex(), a.Hex()})
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != a || ids[1] != b {
		t.Errorf("ids = %v", ids)
	}
	if _, err := ParseIDs([]string{"nope"}); err != ErrBadID {
		t.Errorf("err = %v, want ErrBadID", err)
	}
}

func TestOptionalID(t *testing.T) {
	if id, err := OptionalID(""); id != nil || err != nil {
		t.Errorf("empty = %v, %v", id, err)
	}
	if _, err := OptionalID("zz"); err == nil {
		t.Error("expected error")
	}
}

func TestParseTime(t *testing.T) {
	got, err := ParseTime("2026-03-01")
	if err != nil || !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date = %v, %v", got, err)
	}
	got, err = ParseTime("2026-03-01T10:00:00+03:00")
	if err != nil || got.Hour() != 7 {
		t.Errorf("rfc3339 = %v, %v", got, err)
	}
	if _, err := ParseTime("01/03/2026"); err == nil {
		t.Error("expected error")
	}
}

func TestBind(t *testing.T) {
	type in struct {
		Name string `json:"name" validate:"required,max=5" label:"Name"`
	}
	tests := []struct {
		body string
		ok   bool
		msg  string
	}{
		{`{"name":"Ali"}`, true, ""},
		{`{"name":""}`, false, "Name is required."},
		{`{"name":"Abdullah"}`, false, "Name must be at most 5 characters."},
		{`{"nom":"x"}`, false, "invalid JSON"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
		req.Header.Set("Content-Type", "application/json")
		var dst in
		if got := Bind(rec, req, &dst); got != tt.ok {
			t.Errorf("Bind(%s) = %v", tt.body, got)
		}
		if !tt.ok && !strings.Contains(rec.Body.String(), tt.msg) {
			t.Errorf("Bind(%s) body = %s", tt.body, rec.Body.String())
		}
	}
}

func TestBind_RejectsTextPlain(t *testing.T) {
	type createUser struct {
		FullName string `json:"full_name"`
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	// What a cross-site <form enctype="text/plain"> with one field named
	// {"email":...,"full_name":"x and value "} puts on the wire.
	body := `{"email":"evil@example.com","password":"hunter2hunter2","role":"admin","full_name":"x` + `=` + `"}`

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/users", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/plain")
	var dst createUser
	if Bind(rec, req, &dst) {
		t.Fatalf("Bind accepted a text/plain body: %+v", dst)
	}
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Errorf("status = %d, want 415", rec.Code)
	}
	if dst.Email != "" {
		t.Errorf("dst was populated: %+v", dst)
	}
}
