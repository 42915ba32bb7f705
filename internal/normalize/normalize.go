// Package normalize cleans raw post text before storage. Normalization runs
// exactly once at ingestion so re-scoring an already-stored post is
// reproducible.
package normalize

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`https?://\S+|www\.\S+`)
	mentionPattern    = regexp.MustCompile(`@\w+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Text lowercases the input, strips URLs and @mentions, and collapses runs
// of whitespace to a single space. Deterministic: same input, same output.
func Text(raw string) string {
	s := strings.ToLower(raw)
	s = urlPattern.ReplaceAllString(s, " ")
	s = mentionPattern.ReplaceAllString(s, " ")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
