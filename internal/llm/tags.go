package llm

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// MaxTags is the number of keywords ExtractTags returns at most.
const MaxTags = 10

const maxTagLength = 32

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "this": true, "that": true, "from": true,
	"there": true, "which": true, "image": true, "shows": true,
}

// ExtractTags picks keywords from free text: lowercase words longer than three
// characters with punctuation trimmed and stop words removed, unique, in order
// of appearance, at most MaxTags.
func ExtractTags(text string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?:;\"'()[]{}*`")
		if len(w) <= 3 || stopWords[w] {
			continue
		}
		words = append(words, w)
	}

	tags := CleanTags(words)
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	return tags
}

// CleanTags trims and transliterates tags to ASCII, dropping empty, overlong
// and duplicate ones.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(unidecode.Unidecode(strings.TrimSpace(tag)))
		if len(tag) < 1 || len(tag) > maxTagLength || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
