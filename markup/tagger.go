package markup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/buildflow/buildflow/idgen"
)

var (
	// idAttrRe matches a whole identifier attribute including the
	// whitespace run before it, so stripping restores the original bytes.
	idAttrRe = regexp.MustCompile(`\s*` + IDAttr + `\s*=\s*(?:"[^"]*"|'[^']*')`)

	// idValueRe captures the identifier value in either quote style.
	idValueRe = regexp.MustCompile(IDAttr + `\s*=\s*(?:"([^"]*)"|'([^']*)')`)
)

// defaultRandomID mints identifiers for TagRandom: "bf_" plus eight
// base-36 characters.
var defaultRandomID = idgen.Prefixed(RandIDPrefix, idgen.NanoID(8))

// TagSequential annotates every untagged opening tag with a sequential
// identifier ("bf-0", "bf-1", ...) in document order and returns the
// annotated document plus a map from identifier to tag name covering every
// tagged element, pre-existing ones included. Closing tags, comments, and
// declarations are never tagged, and raw-text bodies are never scanned.
// Re-running on its own output changes nothing.
//
// Intended for structured component markup that is stripped and re-tagged
// from scratch on each generation pass.
func TagSequential(doc string) (string, map[string]string) {
	ids := make(map[string]string)
	existing := collectIDSet(doc)
	var b strings.Builder
	last := 0
	n := 0
	i := 0
	for {
		con, ok := nextConstruct(doc, i, false)
		if !ok {
			break
		}
		i = con.end
		if con.kind != conOpen {
			continue
		}
		if !con.selfClosing && isRawText(con.name) {
			i = skipRawText(doc, con.end, con.name)
		}
		openTag := doc[con.start:con.openEnd]
		if strings.Contains(openTag, IDAttr) {
			if have := identifierIn(openTag); have != "" {
				ids[have] = con.name
			}
			continue
		}
		id := fmt.Sprintf("%s%d", SeqIDPrefix, n)
		for existing[id] {
			n++
			id = fmt.Sprintf("%s%d", SeqIDPrefix, n)
		}
		n++
		existing[id] = true
		ids[id] = con.name
		b.WriteString(doc[last:con.nameEnd])
		b.WriteString(` ` + IDAttr + `="` + id + `"`)
		last = con.nameEnd
	}
	b.WriteString(doc[last:])
	return b.String(), ids
}

// TagRandom annotates every untagged visible opening tag with a random
// identifier, collision-checked against every identifier already in the
// document. Non-visual elements (html, head, meta, link, script, style,
// title), closing tags, comments, and declarations are left alone. A
// second pass then repairs duplicate identifier values, which generated
// markup is known to produce, by regenerating every occurrence after the
// first.
//
// The walk stops cleanly at the first incomplete construct, so a document
// still streaming in can be tagged progressively: each call annotates what
// has arrived and leaves the unfinished tail untouched.
func TagRandom(doc string) string {
	return TagRandomWith(doc, defaultRandomID)
}

// TagRandomWith is TagRandom with a caller-supplied identifier generator.
func TagRandomWith(doc string, gen idgen.Generator) string {
	used := collectIDSet(doc)
	var b strings.Builder
	last := 0
	i := 0
	for {
		con, ok := nextConstruct(doc, i, false)
		if !ok {
			break
		}
		i = con.end
		if con.kind != conOpen {
			continue
		}
		if !con.selfClosing && isRawText(con.name) {
			i = skipRawText(doc, con.end, con.name)
		}
		if isNonVisual(con.name) {
			continue
		}
		if strings.Contains(doc[con.start:con.openEnd], IDAttr) {
			continue
		}
		id := gen()
		for used[id] {
			id = gen()
		}
		used[id] = true
		b.WriteString(doc[last:con.nameEnd])
		b.WriteString(` ` + IDAttr + `="` + id + `"`)
		last = con.nameEnd
	}
	b.WriteString(doc[last:])
	return dedupeIdentifiers(b.String(), gen)
}

// StripIdentifiers removes every identifier attribute from the document.
// Stripping an annotated document restores the pre-annotation bytes
// exactly; identifiers are an editor-internal concern and never appear in
// saved or exported output.
func StripIdentifiers(doc string) string {
	return idAttrRe.ReplaceAllString(doc, "")
}

// identifierIn extracts the identifier value from one opening tag region,
// or "" when the tag carries none.
func identifierIn(openTag string) string {
	m := idValueRe.FindStringSubmatch(openTag)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[1]
	}
	return m[2]
}

func collectIDSet(doc string) map[string]bool {
	set := make(map[string]bool)
	for _, m := range idValueRe.FindAllStringSubmatch(doc, -1) {
		if m[1] != "" {
			set[m[1]] = true
		} else if m[2] != "" {
			set[m[2]] = true
		}
	}
	return set
}

// dedupeIdentifiers regenerates every occurrence after the first of any
// duplicated identifier value.
func dedupeIdentifiers(doc string, gen idgen.Generator) string {
	matches := idValueRe.FindAllStringSubmatchIndex(doc, -1)
	if matches == nil {
		return doc
	}
	used := make(map[string]bool, len(matches))
	for _, m := range matches {
		vs, ve := valueSpan(m)
		used[doc[vs:ve]] = true
	}
	seen := make(map[string]bool, len(matches))
	var b strings.Builder
	last := 0
	changed := false
	for _, m := range matches {
		vs, ve := valueSpan(m)
		v := doc[vs:ve]
		if !seen[v] {
			seen[v] = true
			continue
		}
		id := gen()
		for used[id] {
			id = gen()
		}
		used[id] = true
		b.WriteString(doc[last:vs])
		b.WriteString(id)
		last = ve
		changed = true
	}
	if !changed {
		return doc
	}
	b.WriteString(doc[last:])
	return b.String()
}

// valueSpan picks whichever capture group matched in an idValueRe result.
func valueSpan(m []int) (int, int) {
	if m[2] >= 0 {
		return m[2], m[3]
	}
	return m[4], m[5]
}
