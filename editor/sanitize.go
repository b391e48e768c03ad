package editor

import (
	"github.com/microcosm-cc/bluemonday"
)

// sanitizePolicy is the policy applied to every document or fragment that
// arrives from outside the editor: AI generation output and web imports.
// It is UGC-derived, widened to keep what the editor itself depends on:
// class and style attributes, and data-* (the element identifier attribute
// is a data attribute).
//
// Inline event handlers, script/iframe/object elements, and javascript:
// URLs do not survive the pass. The preview renderer additionally inerts
// whatever interactivity sanitization leaves behind.
var sanitizePolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class", "style").Globally()
	p.AllowDataAttributes()
	p.AllowElements("section", "article", "header", "footer", "nav", "main",
		"aside", "figure", "figcaption", "button", "span", "svg", "path")
	p.AllowAttrs("viewBox", "xmlns", "fill", "stroke", "stroke-width", "d").
		OnElements("svg", "path")
	p.AllowAttrs("type", "placeholder", "value", "name").OnElements("input")
	p.AllowImages()
	p.AllowLists()
	p.AllowTables()
	return p
}()

// Sanitize strips unsafe markup from an untrusted document or fragment.
// Safe to call on tagged markup: identifier attributes pass through.
func Sanitize(doc string) string {
	return sanitizePolicy.Sanitize(doc)
}
