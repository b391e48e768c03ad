// Package markup implements the string-level editing engine for generated
// page markup (HTML or JSX-like component code).
//
// Documents are plain strings and every operation is a pure function: it
// takes a document, returns a new one, and leaves every byte outside the
// touched element unchanged. There is deliberately no DOM or AST here.
// Generated markup is routinely malformed, truncated mid-stream, or mixed
// with embedded expressions, and a strict parser rejects exactly the inputs
// the editor most needs to keep working on. Scanning is done with explicit
// cursor state machines instead.
//
// Elements are addressed through the identifier attribute data-bf-id,
// assigned by TagSequential or TagRandom and removed by StripIdentifiers
// before a document leaves the editor. Operations that cannot find their
// element return the input unchanged; operations that cannot be applied
// safely refuse the same way. Callers detect "nothing happened" by
// comparing input and output.
package markup

import "strings"

// NotFound is the sentinel offset returned by scanning functions when the
// requested construct does not exist. Truncated input is an expected
// condition, not an error.
const NotFound = -1

// IDAttr is the attribute carrying an element's identifier.
const IDAttr = "data-bf-id"

// Identifier prefixes. Sequential identifiers ("bf-0", "bf-1", ...) are
// used for structured component markup that is re-tagged from scratch on
// every pass. Random identifiers ("bf_k3x9w2ab") are used for arbitrary or
// streamed HTML where document order is not stable across partial parses.
const (
	SeqIDPrefix  = "bf-"
	RandIDPrefix = "bf_"
)

// Span is the located position of one element within a document. Start is
// the offset of the opening '<', End the offset just past the closing '>'
// (or '/>'). Spans are derived data: any mutation of the document
// invalidates every previously computed Span.
type Span struct {
	Start       int
	End         int
	TagName     string
	ClassValue  string
	SelfClosing bool
}

// SiblingRelation holds the identifiers of an element's direct previous and
// next siblings. An empty string marks a boundary (first or last child).
type SiblingRelation struct {
	Previous string
	Next     string
}

// Position selects the insertion side for MoveElement.
type Position string

const (
	Before Position = "before"
	After  Position = "after"
)

// voidElements never have content or a closing tag in HTML.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

func isVoidElement(name string) bool {
	return voidElements[strings.ToLower(name)]
}

// rawTextElements have bodies that are text, not markup. Their content is
// skipped wholesale during every scan: a "<div>" inside an inline script is
// just characters.
func isRawText(name string) bool {
	switch strings.ToLower(name) {
	case "script", "style":
		return true
	}
	return false
}

// nonVisualElements are excluded from HTML-mode tagging: they never render
// as selectable boxes.
var nonVisualElements = map[string]bool{
	"html": true, "head": true, "meta": true, "link": true,
	"script": true, "style": true, "title": true,
}

func isNonVisual(name string) bool {
	return nonVisualElements[strings.ToLower(name)]
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameByte(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9') ||
		c == '-' || c == '.' || c == ':' || c == '_'
}

// parseTagName reads a tag name starting at the given offset. Returns the
// empty string (and the original offset) when no name starts there, which
// is how stray '<' characters in text are told apart from real tags.
func parseTagName(doc string, at int) (string, int) {
	if at >= len(doc) || !isNameStart(doc[at]) {
		return "", at
	}
	i := at + 1
	for i < len(doc) && isNameByte(doc[i]) {
		i++
	}
	return doc[at:i], i
}

func isAttrBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != ' ' && s[i] != '\t' {
			return false
		}
	}
	return true
}

// construct is one markup-level token produced by a forward scan: an
// opening tag, a closing tag, a comment, a declaration, or (when the caller
// asks for it) a brace-delimited expression container.
type construct struct {
	kind        constructKind
	start       int    // offset of '<' (or '{' for an expression)
	end         int    // offset just past the construct
	name        string // tag name for open and close constructs
	nameEnd     int    // open tags: offset just past the name
	openEnd     int    // open tags: offset of the terminating '>' or '/'
	selfClosing bool   // open tags: explicit "/>" or a void element
}

type constructKind uint8

const (
	conOpen constructKind = iota
	conClose
	conComment
	conDecl
	conExpr
)

// nextConstruct finds the next construct at or after from. When exprs is
// true, top-level {...} containers are returned as single opaque constructs
// so structural scans never mistake their contents for markup. A false
// return means the rest of the document holds no complete construct; on
// truncated input that is the normal way a scan ends.
func nextConstruct(doc string, from int, exprs bool) (construct, bool) {
	i := from
	for i < len(doc) {
		c := doc[i]
		if exprs && c == '{' {
			end := skipExpression(doc, i)
			if end == NotFound {
				return construct{}, false
			}
			return construct{kind: conExpr, start: i, end: end}, true
		}
		if c != '<' {
			i++
			continue
		}
		rest := doc[i:]
		switch {
		case strings.HasPrefix(rest, "<!--"):
			off := strings.Index(doc[i+4:], "-->")
			if off < 0 {
				return construct{}, false
			}
			return construct{kind: conComment, start: i, end: i + 4 + off + 3}, true
		case strings.HasPrefix(rest, "<!"):
			off := strings.IndexByte(doc[i:], '>')
			if off < 0 {
				return construct{}, false
			}
			return construct{kind: conDecl, start: i, end: i + off + 1}, true
		case strings.HasPrefix(rest, "</"):
			name, nameEnd := parseTagName(doc, i+2)
			if name == "" {
				i++
				continue
			}
			off := strings.IndexByte(doc[nameEnd:], '>')
			if off < 0 {
				return construct{}, false
			}
			return construct{kind: conClose, start: i, end: nameEnd + off + 1, name: name}, true
		default:
			name, nameEnd := parseTagName(doc, i+1)
			if name == "" {
				i++
				continue
			}
			openEnd := FindOpeningTagEnd(doc, i)
			if openEnd == NotFound {
				return construct{}, false
			}
			self := doc[openEnd] == '/'
			end := openEnd + 1
			if self {
				end = openEnd + 2
			}
			return construct{
				kind:        conOpen,
				start:       i,
				end:         end,
				name:        name,
				nameEnd:     nameEnd,
				openEnd:     openEnd,
				selfClosing: self || isVoidElement(name),
			}, true
		}
	}
	return construct{}, false
}
