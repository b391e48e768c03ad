package markup

import "strings"

// tagParts is the full positional breakdown of one located element, shared
// by the mutators. contentStart and contentEnd are only meaningful when
// hasContent is set; a missing closing tag leaves hasContent false and the
// span degraded to the opening tag alone.
type tagParts struct {
	lt           int // offset of '<'
	openEnd      int // offset of the opening tag's '>' or '/'
	end          int // exclusive end of the whole element span
	contentStart int
	contentEnd   int
	name         string
	selfClosing  bool
	hasContent   bool
}

// Locate finds the element carrying the given identifier and returns its
// Span. The second return is false when the identifier is not present or
// the owning tag cannot be reconstructed around it.
//
// When the element's closing tag is missing (truncated or malformed input)
// the returned span covers the opening tag only. Attribute-level mutations
// still work on such a span; whole-element operations degrade with it.
func Locate(doc, id string) (Span, bool) {
	p, ok := locateParts(doc, id)
	if !ok {
		return Span{}, false
	}
	return Span{
		Start:       p.lt,
		End:         p.end,
		TagName:     p.name,
		ClassValue:  extractClass(doc[p.lt:p.openEnd]),
		SelfClosing: p.selfClosing,
	}, true
}

func locateParts(doc, id string) (tagParts, bool) {
	if id == "" {
		return tagParts{}, false
	}
	attrAt := findIDAttr(doc, id)
	if attrAt < 0 {
		return tagParts{}, false
	}
	lt := strings.LastIndexByte(doc[:attrAt], '<')
	if lt < 0 {
		return tagParts{}, false
	}
	name, _ := parseTagName(doc, lt+1)
	if name == "" {
		return tagParts{}, false
	}
	openEnd := FindOpeningTagEnd(doc, lt)
	if openEnd == NotFound {
		return tagParts{}, false
	}
	p := tagParts{lt: lt, openEnd: openEnd, name: name}
	if doc[openEnd] == '/' {
		p.selfClosing = true
		p.end = openEnd + 2
		return p, true
	}
	if isVoidElement(name) {
		p.selfClosing = true
		p.end = openEnd + 1
		return p, true
	}
	p.contentStart = openEnd + 1
	closeLt := FindMatchingClose(doc, p.contentStart, name)
	if closeLt == NotFound {
		p.end = p.contentStart
		return p, true
	}
	gt := strings.IndexByte(doc[closeLt:], '>')
	if gt < 0 {
		p.end = p.contentStart
		return p, true
	}
	p.contentEnd = closeLt
	p.hasContent = true
	p.end = closeLt + gt + 1
	return p, true
}

// findIDAttr returns the offset of the identifier attribute whose value is
// exactly id, trying both quote styles returned by real-world generators.
func findIDAttr(doc, id string) int {
	if at := strings.Index(doc, IDAttr+`="`+id+`"`); at >= 0 {
		return at
	}
	return strings.Index(doc, IDAttr+`='`+id+`'`)
}

// classForms are the class attribute spellings generated markup is known
// to use, in extraction priority order.
var classForms = []struct {
	attr, open, close string
}{
	{"class", `="`, `"`},
	{"class", `='`, `'`},
	{"className", `="`, `"`},
	{"className", `='`, `'`},
	{"className", "={`", "`}"},
	{"className", `={"`, `"}`},
}

// extractClass pulls the class value out of one opening tag region,
// whatever spelling the generator used. Template-literal values keep only
// their static parts. Returns "" when no class attribute is present.
func extractClass(openTag string) string {
	for _, f := range classForms {
		vs, ve, ok := attrLiteralValue(openTag, f.attr, f.open, f.close)
		if !ok {
			continue
		}
		v := openTag[vs:ve]
		if f.open == "={`" {
			v = stripTemplateExprs(v)
		}
		return v
	}
	return ""
}

// attrLiteralValue finds attr followed by the literal open delimiter inside
// one opening tag region and returns the value's span. The attribute name
// must sit on a whitespace boundary so "class" never matches inside
// "wrapperClass".
func attrLiteralValue(openTag, attr, open, close string) (int, int, bool) {
	needle := attr + open
	from := 0
	for {
		idx := strings.Index(openTag[from:], needle)
		if idx < 0 {
			return 0, 0, false
		}
		idx += from
		if idx == 0 || !isAttrBoundary(openTag[idx-1]) {
			from = idx + 1
			continue
		}
		vs := idx + len(needle)
		off := strings.Index(openTag[vs:], close)
		if off < 0 {
			return 0, 0, false
		}
		return vs, vs + off, true
	}
}

// stripTemplateExprs removes every ${...} interpolation from a template
// literal body, keeping the static text around them.
func stripTemplateExprs(tpl string) string {
	var b strings.Builder
	i := 0
	for i < len(tpl) {
		if tpl[i] == '$' && i+1 < len(tpl) && tpl[i+1] == '{' {
			end := skipExpression(tpl, i+1)
			if end == NotFound {
				break
			}
			i = end
			continue
		}
		b.WriteByte(tpl[i])
		i++
	}
	return b.String()
}

// insertAfterIDAttr splices an attribute string (with its leading space)
// into the opening tag directly after the identifier attribute. New
// attributes always land in that stable position.
func insertAfterIDAttr(doc string, p tagParts, attr string) string {
	openTag := doc[p.lt:p.openEnd]
	m := idValueRe.FindStringIndex(openTag)
	at := p.openEnd
	if m != nil {
		at = p.lt + m[1]
	}
	return doc[:at] + attr + doc[at:]
}

// lineIndent returns the whitespace prefix of the line containing at.
func lineIndent(doc string, at int) string {
	start := strings.LastIndexByte(doc[:at], '\n') + 1
	end := start
	for end < len(doc) && (doc[end] == ' ' || doc[end] == '\t') {
		end++
	}
	return doc[start:end]
}
