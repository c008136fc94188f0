// Package shared holds request helpers used by the JSON feature handlers.
package shared

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/authz"
	"github.com/Elqomdes/hedeflynet/internal/app/system/inputval"
	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrBadID is returned for a malformed ObjectID.
var ErrBadID = errors.New("invalid id")

// IDParam reads the chi URL parameter name as an ObjectID.
func IDParam(r *http.Request, name string) (primitive.ObjectID, error) {
	return ParseID(chi.URLParam(r, name))
}

// ParseID parses a hex ObjectID, trimming whitespace.
func ParseID(s string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return primitive.NilObjectID, ErrBadID
	}
	return oid, nil
}

// ParseIDs parses a list of hex ObjectIDs, dropping duplicates.
func ParseIDs(in []string) ([]primitive.ObjectID, error) {
	seen := make(map[primitive.ObjectID]bool, len(in))
	out := make([]primitive.ObjectID, 0, len(in))
	for _, s := range in {
		oid, err := ParseID(s)
		if err != nil {
			return nil, err
		}
		if !seen[oid] {
			seen[oid] = true
			out = append(out, oid)
		}
	}
	return out, nil
}

// OptionalID parses s as an ObjectID, returning nil for an empty string.
func OptionalID(s string) (*primitive.ObjectID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	oid, err := ParseID(s)
	if err != nil {
		return nil, err
	}
	return &oid, nil
}

// UserID returns the caller's ID. Routes behind RequireRole always have one.
func UserID(r *http.Request) primitive.ObjectID {
	_, _, id, _ := authz.UserCtx(r)
	return id
}

// Bind decodes the JSON body into dst and runs its validate tags. On failure
// it writes a 415 (wrong media type) or 400 and returns false.
func Bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := respond.Decode(w, r, dst); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, respond.ErrUnsupportedMediaType) {
			status = http.StatusUnsupportedMediaType
		}
		respond.Error(w, status, err.Error())
		return false
	}
	if res := inputval.Validate(dst); res.HasErrors() {
		respond.Error(w, http.StatusBadRequest, res.First())
		return false
	}
	return true
}

// ParseTime accepts RFC 3339 timestamps or plain yyyy-mm-dd dates (UTC midnight).
func ParseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, errors.New("dates must be yyyy-mm-dd or RFC 3339")
	}
	return &t, nil
}

// QueryTime reads an optional date query parameter.
func QueryTime(r *http.Request, name string) (*time.Time, error) {
	return ParseTime(r.URL.Query().Get(name))
}
