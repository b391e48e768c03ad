package markup

import (
	"regexp"
	"slices"
	"strings"
)

// SetClasses replaces the element's class list with classes, rewriting
// whichever attribute spelling is already present. When the element has no
// class attribute one is inserted after the identifier attribute, named
// className if the opening tag already speaks that dialect and class
// otherwise.
func SetClasses(doc, id, classes string) string {
	p, ok := locateParts(doc, id)
	if !ok {
		return doc
	}
	openTag := doc[p.lt:p.openEnd]
	for _, f := range classForms {
		vs, ve, ok := attrLiteralValue(openTag, f.attr, f.open, f.close)
		if !ok {
			continue
		}
		return doc[:p.lt+vs] + classes + doc[p.lt+ve:]
	}
	// A class bound to a bare expression (className={styles.card}) is not
	// rewritable and inserting a second attribute would be worse.
	for _, name := range []string{"className", "class"} {
		if _, _, form, found := findAttrValue(openTag, name); found && form == formBareExpr {
			return doc
		}
	}
	attr := "class"
	if strings.Contains(openTag, "className") {
		attr = "className"
	}
	return insertAfterIDAttr(doc, p, ` `+attr+`="`+classes+`"`)
}

// AddClass appends the given class tokens to the element's class list,
// skipping tokens already present.
func AddClass(doc, id, class string) string {
	span, ok := Locate(doc, id)
	if !ok {
		return doc
	}
	have := strings.Fields(span.ClassValue)
	for _, c := range strings.Fields(class) {
		if !slices.Contains(have, c) {
			have = append(have, c)
		}
	}
	return SetClasses(doc, id, strings.Join(have, " "))
}

// RemoveClass drops the given class tokens from the element's class list.
func RemoveClass(doc, id, class string) string {
	span, ok := Locate(doc, id)
	if !ok {
		return doc
	}
	drop := strings.Fields(class)
	keep := make([]string, 0, len(drop))
	for _, c := range strings.Fields(span.ClassValue) {
		if !slices.Contains(drop, c) {
			keep = append(keep, c)
		}
	}
	return SetClasses(doc, id, strings.Join(keep, " "))
}

// SetText rewrites the element's text content. When the content holds no
// nested tags (expression containers are masked before checking) the whole
// content span is replaced. When nested tags are present, only a verbatim
// occurrence of oldText is replaced, and the mutation is refused if oldText
// is empty or absent: guessing at mixed text-and-element content risks
// corrupting sibling markup, so the conservative answer is no change.
func SetText(doc, id, newText, oldText string) string {
	p, ok := locateParts(doc, id)
	if !ok || p.selfClosing || !p.hasContent {
		return doc
	}
	content := doc[p.contentStart:p.contentEnd]
	if !strings.Contains(maskExpressions(content), "<") {
		return doc[:p.contentStart] + newText + doc[p.contentEnd:]
	}
	if oldText == "" {
		return doc
	}
	idx := strings.Index(content, oldText)
	if idx < 0 {
		return doc
	}
	at := p.contentStart + idx
	return doc[:at] + newText + doc[at+len(oldText):]
}

// ReplaceElement substitutes newMarkup for the element's whole span.
func ReplaceElement(doc, id, newMarkup string) string {
	p, ok := locateParts(doc, id)
	if !ok {
		return doc
	}
	return doc[:p.lt] + newMarkup + doc[p.end:]
}

// InsertAfter inserts newMarkup as a sibling on a new line directly after
// the element, reusing the indentation of the element's own line.
func InsertAfter(doc, id, newMarkup string) string {
	p, ok := locateParts(doc, id)
	if !ok {
		return doc
	}
	indent := lineIndent(doc, p.lt)
	return doc[:p.end] + "\n" + indent + newMarkup + doc[p.end:]
}

// RemoveElement deletes the element's span. An element alone on its line
// takes the whole line with it, leading whitespace and trailing newline
// included, so deletions do not leave blank lines behind.
func RemoveElement(doc, id string) string {
	p, ok := locateParts(doc, id)
	if !ok {
		return doc
	}
	return removeSpan(doc, p.lt, p.end)
}

func removeSpan(doc string, start, end int) string {
	lineStart := strings.LastIndexByte(doc[:start], '\n') + 1
	if isBlank(doc[lineStart:start]) {
		rest := end
		for rest < len(doc) && (doc[rest] == ' ' || doc[rest] == '\t') {
			rest++
		}
		switch {
		case rest == len(doc):
			return doc[:lineStart]
		case doc[rest] == '\n':
			return doc[:lineStart] + doc[rest+1:]
		}
	}
	return doc[:start] + doc[end:]
}

// attrForm classifies how an attribute's value is written.
type attrForm uint8

const (
	formQuoted   attrForm = iota // name="..." or name='...'
	formExpr                     // name={"..."}, name={'...'}, name={`...`}
	formBareExpr                 // name={identifier}: not rewritable
)

// SetAttribute sets one attribute to a literal value, rewriting the value
// in place whatever quoting or expression wrapper it uses. An attribute
// bound to a bare expression (href={someVar}) is refused: rewriting a
// variable reference into a literal cannot be done safely at the string
// level. A missing attribute is inserted after the identifier attribute.
func SetAttribute(doc, id, name, value string) string {
	p, ok := locateParts(doc, id)
	if !ok || name == "" {
		return doc
	}
	openTag := doc[p.lt:p.openEnd]
	vs, ve, form, found := findAttrValue(openTag, name)
	if found {
		if form == formBareExpr {
			return doc
		}
		return doc[:p.lt+vs] + value + doc[p.lt+ve:]
	}
	return insertAfterIDAttr(doc, p, ` `+name+`="`+value+`"`)
}

// findAttrValue locates an attribute by name inside an opening tag region
// and classifies its value form. The name must sit on a whitespace
// boundary. Unquoted values and bare expressions report forms the caller
// must refuse to rewrite.
func findAttrValue(openTag, name string) (vs, ve int, form attrForm, found bool) {
	from := 0
	for {
		idx := strings.Index(openTag[from:], name)
		if idx < 0 {
			return 0, 0, 0, false
		}
		idx += from
		from = idx + len(name)
		if idx == 0 || !isAttrBoundary(openTag[idx-1]) {
			continue
		}
		j := skipSpaces(openTag, idx+len(name))
		if j >= len(openTag) || openTag[j] != '=' {
			continue
		}
		j = skipSpaces(openTag, j+1)
		if j >= len(openTag) {
			return 0, 0, 0, false
		}
		switch openTag[j] {
		case '"', '\'':
			end := strings.IndexByte(openTag[j+1:], openTag[j])
			if end < 0 {
				return 0, 0, 0, false
			}
			return j + 1, j + 1 + end, formQuoted, true
		case '{':
			k := skipSpaces(openTag, j+1)
			if k >= len(openTag) {
				return 0, 0, 0, false
			}
			switch openTag[k] {
			case '"', '\'', '`':
				end := strings.IndexByte(openTag[k+1:], openTag[k])
				if end < 0 {
					return 0, 0, 0, false
				}
				return k + 1, k + 1 + end, formExpr, true
			default:
				return 0, 0, formBareExpr, true
			}
		default:
			// Unquoted values are left alone too: rewriting them in place
			// risks changing how the value tokenizes.
			return 0, 0, formBareExpr, true
		}
	}
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// SetInlineStyleProperty sets one declaration inside the element's
// style attribute, replacing the property's current value or appending
// "property: value;" to the declaration list. A missing style attribute is
// created after the identifier attribute.
func SetInlineStyleProperty(doc, id, property, value string) string {
	p, ok := locateParts(doc, id)
	if !ok || property == "" {
		return doc
	}
	openTag := doc[p.lt:p.openEnd]
	vs, ve, ok := attrLiteralValue(openTag, "style", `="`, `"`)
	if !ok {
		vs, ve, ok = attrLiteralValue(openTag, "style", `='`, `'`)
	}
	if !ok {
		return insertAfterIDAttr(doc, p, ` style="`+property+`: `+value+`;"`)
	}
	updated := upsertDeclaration(openTag[vs:ve], property, value)
	return doc[:p.lt+vs] + updated + doc[p.lt+ve:]
}

// upsertDeclaration rewrites one property inside a style declaration list,
// anchored on "property:" at a declaration boundary so "color" never
// matches inside "border-color". Untouched declarations keep their bytes.
func upsertDeclaration(style, property, value string) string {
	re := regexp.MustCompile(`(^|;)(\s*)` + regexp.QuoteMeta(property) + `\s*:\s*[^;]*`)
	if m := re.FindStringSubmatchIndex(style); m != nil {
		return style[:m[5]] + property + ": " + value + style[m[1]:]
	}
	trimmed := strings.TrimRight(style, " \t")
	switch {
	case trimmed == "":
		return property + ": " + value + ";"
	case strings.HasSuffix(trimmed, ";"):
		return style + " " + property + ": " + value + ";"
	default:
		return style + "; " + property + ": " + value + ";"
	}
}

// MoveElement removes the element and re-inserts it before or after the
// target element, taking the target line's indentation. Moving an element
// onto itself is a no-op. If the target cannot be located once the source
// is removed, the original document is returned untouched rather than
// dropping the moved markup.
func MoveElement(doc, id, targetID string, pos Position) string {
	if id == targetID {
		return doc
	}
	p, ok := locateParts(doc, id)
	if !ok {
		return doc
	}
	moved := doc[p.lt:p.end]
	removed := removeSpan(doc, p.lt, p.end)
	t, ok := locateParts(removed, targetID)
	if !ok {
		return doc
	}
	indent := lineIndent(removed, t.lt)
	if pos == Before {
		return removed[:t.lt] + moved + "\n" + indent + removed[t.lt:]
	}
	return removed[:t.end] + "\n" + indent + moved + removed[t.end:]
}
