// Package htmlsanitize cleans user-authored content before it is stored.
//
// Study group posts accept a small subset of formatting (bold, lists, links).
// Comments and titles are plain text.
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	postPolicy  = newPostPolicy()
	plainPolicy = bluemonday.StrictPolicy()
)

func newPostPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "strong", "b", "em", "i", "u", "ul", "ol", "li", "blockquote", "code", "pre")
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// Sanitize strips everything outside the post formatting subset.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(postPolicy.Sanitize(s))
}

// PlainText strips all markup.
func PlainText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}
