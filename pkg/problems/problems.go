package problems

import "strings"

// Problem is the structured error detail attached to relay failure payloads.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

var base = "https://example.com/problems"

// SetBase fixes the base URL for problem type identifiers. Called once at
// startup from config; defaults to a placeholder domain.
func SetBase(b string) {
	if b != "" {
		base = strings.TrimRight(b, "/")
		if !strings.HasSuffix(base, "/problems") {
			base += "/problems"
		}
	}
}

// Type builds a full problem type URL for the given slug.
func Type(slug string) string { return base + "/" + slug }

func New(slug, title, detail string) Problem {
	return Problem{Type: Type(slug), Title: title, Detail: detail}
}
