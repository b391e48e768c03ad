package markup

import "strings"

// FindOpeningTagEnd scans an opening tag that starts with the '<' at
// openBracket and returns the offset of the '>' that ends it, or of the '/'
// in a self-closing "/>". Attribute values are skipped with full awareness
// of quoted strings and of {...} expression containers, which may themselves
// nest braces, quoted strings, and template literals with ${...}
// interpolation. A '>' or '/' inside any of those never terminates the tag.
//
// Returns NotFound when the tag never closes, which on streamed input
// simply means the tag has not finished arriving.
func FindOpeningTagEnd(doc string, openBracket int) int {
	if openBracket < 0 || openBracket >= len(doc) || doc[openBracket] != '<' {
		return NotFound
	}
	i := openBracket + 1
	for i < len(doc) && isNameByte(doc[i]) {
		i++
	}
	for i < len(doc) {
		switch doc[i] {
		case '>':
			return i
		case '/':
			if i+1 < len(doc) && doc[i+1] == '>' {
				return i
			}
			i++
		case '"', '\'':
			end := skipQuoted(doc, i, false)
			if end == NotFound {
				return NotFound
			}
			i = end
		case '{':
			end := skipExpression(doc, i)
			if end == NotFound {
				return NotFound
			}
			i = end
		default:
			i++
		}
	}
	return NotFound
}

// FindMatchingClose returns the offset of the '<' beginning the closing tag
// that matches an already-scanned opening tag of tagName, given the offset
// just past that opening tag's '>'. Same-named nested elements raise a
// depth counter; self-closing occurrences do not. Expression containers,
// comments, and the bodies of raw-text elements (script, style) are skipped
// wholesale, so markup-looking text inside them never unbalances the count.
//
// Returns NotFound when no matching close exists, the expected outcome for
// truncated documents.
func FindMatchingClose(doc string, afterOpenTag int, tagName string) int {
	if afterOpenTag < 0 || afterOpenTag > len(doc) || tagName == "" {
		return NotFound
	}
	depth := 1
	i := afterOpenTag
	for {
		con, ok := nextConstruct(doc, i, true)
		if !ok {
			return NotFound
		}
		i = con.end
		switch con.kind {
		case conClose:
			if con.name == tagName {
				depth--
				if depth == 0 {
					return con.start
				}
			}
		case conOpen:
			if con.name == tagName && !con.selfClosing {
				depth++
			}
			if !con.selfClosing && isRawText(con.name) && con.name != tagName {
				i = skipRawText(doc, con.end, con.name)
			}
		}
	}
}

// skipQuoted advances past a string literal whose opening quote sits at
// the given offset and returns the offset just after the closing quote.
// jsEscapes enables backslash escapes, which apply inside expression
// containers but not to plain attribute values.
func skipQuoted(doc string, at int, jsEscapes bool) int {
	quote := doc[at]
	i := at + 1
	for i < len(doc) {
		c := doc[i]
		if jsEscapes && c == '\\' {
			i += 2
			continue
		}
		if c == quote {
			return i + 1
		}
		i++
	}
	return NotFound
}

// skipExpression advances past a brace-delimited expression container whose
// '{' sits at the given offset and returns the offset just after the
// matching '}'. Nested braces, string literals, and template literals are
// all honored so a '}' inside any of them does not close the container.
func skipExpression(doc string, at int) int {
	depth := 0
	i := at
	for i < len(doc) {
		switch doc[i] {
		case '{':
			depth++
			i++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
			i++
		case '"', '\'':
			end := skipQuoted(doc, i, true)
			if end == NotFound {
				return NotFound
			}
			i = end
		case '`':
			end := skipTemplate(doc, i)
			if end == NotFound {
				return NotFound
			}
			i = end
		default:
			i++
		}
	}
	return NotFound
}

// skipTemplate advances past a template literal whose backtick sits at the
// given offset, honoring backslash escapes and ${...} interpolations, which
// re-enter full expression scanning and may nest further templates.
func skipTemplate(doc string, at int) int {
	i := at + 1
	for i < len(doc) {
		switch doc[i] {
		case '\\':
			i += 2
		case '`':
			return i + 1
		case '$':
			if i+1 < len(doc) && doc[i+1] == '{' {
				end := skipExpression(doc, i+1)
				if end == NotFound {
					return NotFound
				}
				i = end
			} else {
				i++
			}
		default:
			i++
		}
	}
	return NotFound
}

// skipRawText advances past the body of a raw-text element (script, style)
// to the offset just after its closing tag. The body is treated as opaque
// text. When the closing tag is missing the scan runs to the end of the
// document.
func skipRawText(doc string, from int, name string) int {
	i := from
	for i < len(doc) {
		if doc[i] != '<' || i+1 >= len(doc) || doc[i+1] != '/' {
			i++
			continue
		}
		got, nameEnd := parseTagName(doc, i+2)
		if !strings.EqualFold(got, name) {
			i++
			continue
		}
		off := strings.IndexByte(doc[nameEnd:], '>')
		if off < 0 {
			return len(doc)
		}
		return nameEnd + off + 1
	}
	return len(doc)
}

// maskExpressions returns s with every top-level {...} span overwritten by
// spaces, preserving length. Used to ask "does this content hold real
// nested tags" without being fooled by markup-looking text inside
// expressions.
func maskExpressions(s string) string {
	var b []byte
	i := 0
	for i < len(s) {
		if s[i] == '{' {
			end := skipExpression(s, i)
			if end == NotFound {
				end = len(s)
			}
			if b == nil {
				b = []byte(s)
			}
			for j := i; j < end; j++ {
				b[j] = ' '
			}
			i = end
			continue
		}
		i++
	}
	if b == nil {
		return s
	}
	return string(b)
}
