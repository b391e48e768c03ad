package editor

import (
	"strings"

	"github.com/buildflow/buildflow/markup"
)

// MergeDocument replaces the whole document with generation output. The
// incoming markup is sanitized, then tagged in random mode (generation can
// duplicate identifiers; the tagger repairs that). The replaced version is
// an undoable edit.
func (s *Session) MergeDocument(generated string) bool {
	next := markup.TagRandom(Sanitize(generated))
	return s.apply("merge_document", next)
}

// MergeFragment integrates a single-element generation result. Mode
// "replace" substitutes the target element; "insert_after" adds the fragment
// as the target's next sibling. The merged document is re-tagged so new
// untagged elements in the fragment get identifiers.
//
// An unknown target leaves the session unchanged, like any other mutation.
func (s *Session) MergeFragment(targetID, fragment, mode string) bool {
	frag := strings.TrimSpace(Sanitize(fragment))
	if frag == "" {
		return false
	}

	var next string
	switch mode {
	case "insert_after":
		next = markup.InsertAfter(s.doc, targetID, frag)
	default:
		next = markup.ReplaceElement(s.doc, targetID, frag)
	}
	if next == s.doc {
		return false
	}
	return s.apply("merge_fragment", markup.TagRandom(next))
}
