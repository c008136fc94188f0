// internal/app/features/auditlog/types.go
package auditlog

import (
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/store/audit"
)

// listItem is one audit event with actor and target names resolved.
type listItem struct {
	audit.Event
	ActorName  string `json:"actor_name,omitempty"`
	TargetName string `json:"target_name,omitempty"`
}

// knownCategories lists the accepted ?category= values.
var knownCategories = map[string]bool{
	audit.CategoryAuth:  true,
	audit.CategoryAdmin: true,
}

// endOfDay turns a date-only bound into an inclusive end.
func endOfDay(t time.Time) time.Time {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Add(24*time.Hour - time.Nanosecond)
	}
	return t
}
