// internal/app/features/errors/errors.go
package errors

import (
	"net/http"

	"github.com/Elqomdes/hedeflynet/internal/app/system/respond"
)

// NotFound is the router's JSON 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusNotFound, "route not found")
}

// MethodNotAllowed is the router's JSON 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusMethodNotAllowed, "method not allowed")
}
