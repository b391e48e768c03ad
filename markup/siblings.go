package markup

// FindSiblings determines the element's direct previous and next siblings
// among the children of its parent, using nesting depth rather than flat
// order: a deeply nested descendant that happens to carry an identifier is
// never mistaken for a sibling. An element that cannot be located, or that
// has no tagged siblings on either side, reports empty identifiers.
//
// The resolution runs three forward scans. The first walks from the
// document start to the element, maintaining a stack of open ancestors;
// the top of that stack at arrival is the parent, and its recorded
// content-start offset opens the sibling region. The second scan walks
// from the element's end to where that region closes. The third collects
// every depth-zero child identifier inside the region in document order.
// Raw-text bodies and expression containers are skipped in all three, so
// markup-looking text inside a script block never fabricates a sibling.
func FindSiblings(doc, id string) SiblingRelation {
	p, ok := locateParts(doc, id)
	if !ok {
		return SiblingRelation{}
	}
	from, to := parentContentRegion(doc, p)
	ids := childIdentifiers(doc, from, to)
	for i, v := range ids {
		if v != id {
			continue
		}
		var rel SiblingRelation
		if i > 0 {
			rel.Previous = ids[i-1]
		}
		if i+1 < len(ids) {
			rel.Next = ids[i+1]
		}
		return rel
	}
	return SiblingRelation{}
}

// parentContentRegion finds the byte range of the target's parent content:
// from the parent's opening tag end to its closing tag start. A target
// with no open ancestor belongs to the document root and the region is the
// whole document.
func parentContentRegion(doc string, p tagParts) (int, int) {
	type openEntry struct {
		name         string
		contentStart int
	}
	var stack []openEntry
	i := 0
	for i < p.lt {
		con, ok := nextConstruct(doc, i, true)
		if !ok || con.start >= p.lt {
			break
		}
		i = con.end
		switch con.kind {
		case conOpen:
			if con.selfClosing {
				break
			}
			if isRawText(con.name) {
				i = skipRawText(doc, con.end, con.name)
				break
			}
			stack = append(stack, openEntry{con.name, con.end})
		case conClose:
			// Pop to the nearest matching open, closing anything left
			// dangling above it the way browsers do.
			for j := len(stack) - 1; j >= 0; j-- {
				if stack[j].name == con.name {
					stack = stack[:j]
					break
				}
			}
		}
	}
	start := 0
	if len(stack) > 0 {
		start = stack[len(stack)-1].contentStart
	}
	return start, parentContentEnd(doc, p.end)
}

// parentContentEnd scans forward from the target's end offset until the
// enclosing content region closes: the first closing tag met at depth
// zero. Reaching the end of the document (root-level target, truncated
// input) closes the region there.
func parentContentEnd(doc string, from int) int {
	depth := 0
	i := from
	for {
		con, ok := nextConstruct(doc, i, true)
		if !ok {
			return len(doc)
		}
		i = con.end
		switch con.kind {
		case conOpen:
			if con.selfClosing {
				break
			}
			if isRawText(con.name) {
				i = skipRawText(doc, con.end, con.name)
				break
			}
			depth++
		case conClose:
			if depth == 0 {
				return con.start
			}
			depth--
		}
	}
}

// childIdentifiers collects the identifiers of every depth-zero element in
// the region, in document order. Untagged children simply do not appear.
func childIdentifiers(doc string, from, to int) []string {
	var ids []string
	depth := 0
	i := from
	for i < to {
		con, ok := nextConstruct(doc, i, true)
		if !ok || con.start >= to {
			break
		}
		i = con.end
		switch con.kind {
		case conOpen:
			if depth == 0 {
				if id := identifierIn(doc[con.start:con.openEnd]); id != "" {
					ids = append(ids, id)
				}
			}
			if con.selfClosing {
				break
			}
			if isRawText(con.name) {
				i = skipRawText(doc, con.end, con.name)
				break
			}
			depth++
		case conClose:
			if depth > 0 {
				depth--
			}
		}
	}
	return ids
}
