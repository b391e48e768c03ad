package markup

import (
	"strings"
	"testing"
)

func TestSetClasses_RewritesValue(t *testing.T) {
	doc := `<div data-bf-id="bf_AAAAAAAA" class="p-4 bg-red-500"><span>Hi</span></div>`
	got := SetClasses(doc, "bf_AAAAAAAA", "p-4 bg-blue-500")
	want := `<div data-bf-id="bf_AAAAAAAA" class="p-4 bg-blue-500"><span>Hi</span></div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
	if !strings.Contains(got, "<span>Hi</span>") {
		t.Fatalf("nested element disturbed: %q", got)
	}
}

func TestSetClasses_InsertsWhenAbsent(t *testing.T) {
	doc := `<div data-bf-id="d1"><p>x</p></div>`
	got := SetClasses(doc, "d1", "mt-2")
	want := `<div data-bf-id="d1" class="mt-2"><p>x</p></div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetClasses_ClassNameDialect(t *testing.T) {
	doc := `<Button data-bf-id="b1" {...{className: base}}>go</Button>`
	got := SetClasses(doc, "b1", "btn")
	want := `<Button data-bf-id="b1" className="btn" {...{className: base}}>go</Button>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetClasses_RefusesBareExpression(t *testing.T) {
	doc := `<div data-bf-id="d1" className={styles.card}>x</div>`
	if got := SetClasses(doc, "d1", "btn"); got != doc {
		t.Fatalf("bare expression class was rewritten: %q", got)
	}
}

func TestAddClass(t *testing.T) {
	doc := `<div data-bf-id="d1" class="p-4">x</div>`

	got := AddClass(doc, "d1", "flex")
	want := `<div data-bf-id="d1" class="p-4 flex">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	if got := AddClass(doc, "d1", "p-4"); got != doc {
		t.Fatalf("duplicate token changed the document: %q", got)
	}

	got = AddClass(doc, "d1", "flex p-4 grid")
	want = `<div data-bf-id="d1" class="p-4 flex grid">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestAddClass_CreatesAttribute(t *testing.T) {
	doc := `<p data-bf-id="d2">y</p>`
	got := AddClass(doc, "d2", "flex")
	want := `<p data-bf-id="d2" class="flex">y</p>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestRemoveClass(t *testing.T) {
	doc := `<div data-bf-id="d1" class="p-4 flex">x</div>`

	got := RemoveClass(doc, "d1", "flex")
	want := `<div data-bf-id="d1" class="p-4">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	got = RemoveClass(doc, "d1", "flex p-4")
	want = `<div data-bf-id="d1" class="">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}

	if got := RemoveClass(doc, "d1", "grid"); got != doc {
		t.Fatalf("absent token changed the document: %q", got)
	}
}

func TestSetText_WholeContent(t *testing.T) {
	doc := `<h1 data-bf-id="t1">Old title</h1>`
	got := SetText(doc, "t1", "New", "")
	want := `<h1 data-bf-id="t1">New</h1>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetText_ExpressionContentIsNotNestedMarkup(t *testing.T) {
	doc := `<div data-bf-id="m2">{icon || "<i>"} label</div>`
	got := SetText(doc, "m2", "New label", "")
	want := `<div data-bf-id="m2">New label</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetText_MixedContentRefusedWithoutAnchor(t *testing.T) {
	doc := `<div data-bf-id="m1">Hello <b>world</b></div>`
	if got := SetText(doc, "m1", "Goodbye", ""); got != doc {
		t.Fatalf("mixed content replaced without anchor: %q", got)
	}
}

func TestSetText_MixedContentAnchored(t *testing.T) {
	doc := `<div data-bf-id="m1">Hello <b>world</b></div>`
	got := SetText(doc, "m1", "Goodbye", "Hello")
	want := `<div data-bf-id="m1">Goodbye <b>world</b></div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetText_AnchorAbsent(t *testing.T) {
	doc := `<div data-bf-id="m1">Hello <b>world</b></div>`
	if got := SetText(doc, "m1", "x", "Nope"); got != doc {
		t.Fatalf("absent anchor changed the document: %q", got)
	}
}

func TestSetText_SelfClosingRefused(t *testing.T) {
	doc := `<img data-bf-id="i1"/>`
	if got := SetText(doc, "i1", "x", ""); got != doc {
		t.Fatalf("self-closing element accepted text: %q", got)
	}
}

func TestSetText_MissingCloseRefused(t *testing.T) {
	doc := `<div data-bf-id="m3"><span>`
	if got := SetText(doc, "m3", "x", ""); got != doc {
		t.Fatalf("degraded span accepted text: %q", got)
	}
}

func TestReplaceElement(t *testing.T) {
	doc := `<main><p data-bf-id="p1">a</p><p data-bf-id="p2">b</p></main>`
	got := ReplaceElement(doc, "p1", `<h2 data-bf-id="p1">A</h2>`)
	want := `<main><h2 data-bf-id="p1">A</h2><p data-bf-id="p2">b</p></main>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestInsertAfter_ReusesIndentation(t *testing.T) {
	doc := "<div data-bf-id=\"a1\">\n  <span data-bf-id=\"b1\">x</span>\n</div>"
	got := InsertAfter(doc, "b1", "<span>y</span>")
	want := "<div data-bf-id=\"a1\">\n  <span data-bf-id=\"b1\">x</span>\n  <span>y</span>\n</div>"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestInsertAfter_NoIndent(t *testing.T) {
	doc := `<ul><li data-bf-id="l1">1</li></ul>`
	got := InsertAfter(doc, "l1", "<li>2</li>")
	want := "<ul><li data-bf-id=\"l1\">1</li>\n<li>2</li></ul>"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestRemoveElement_AloneOnLine(t *testing.T) {
	doc := "<div data-bf-id=\"a1\">\n  <span data-bf-id=\"b1\">x</span>\n</div>"
	got := RemoveElement(doc, "b1")
	want := "<div data-bf-id=\"a1\">\n</div>"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestRemoveElement_SharedLine(t *testing.T) {
	doc := `<div data-bf-id="a1"><span data-bf-id="b1">x</span>tail</div>`
	got := RemoveElement(doc, "b1")
	want := `<div data-bf-id="a1">tail</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestRemoveElement_TrailingSpacesStillAlone(t *testing.T) {
	doc := "<ul>\n  <li data-bf-id=\"l1\">1</li>  \n  <li data-bf-id=\"l2\">2</li>\n</ul>"
	got := RemoveElement(doc, "l1")
	want := "<ul>\n  <li data-bf-id=\"l2\">2</li>\n</ul>"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestRemoveElement_LastLine(t *testing.T) {
	doc := "<p>a</p>\n  <p data-bf-id=\"x1\">b</p>"
	got := RemoveElement(doc, "x1")
	want := "<p>a</p>\n"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetAttribute_Forms(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"double quoted", `<a data-bf-id="l1" href="/a">x</a>`, `<a data-bf-id="l1" href="/x">x</a>`},
		{"single quoted", `<a data-bf-id="l1" href='/a'>x</a>`, `<a data-bf-id="l1" href='/x'>x</a>`},
		{"expression double", `<a data-bf-id="l1" href={"/a"}>x</a>`, `<a data-bf-id="l1" href={"/x"}>x</a>`},
		{"expression single", `<a data-bf-id="l1" href={'/a'}>x</a>`, `<a data-bf-id="l1" href={'/x'}>x</a>`},
		{"expression template", "<a data-bf-id=\"l1\" href={`/a`}>x</a>", "<a data-bf-id=\"l1\" href={`/x`}>x</a>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SetAttribute(tt.doc, "l1", "href", "/x")
			if got != tt.want {
				t.Fatalf("got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestSetAttribute_RefusesVariableBinding(t *testing.T) {
	doc := `<a data-bf-id="l1" href={someVar}>x</a>`
	if got := SetAttribute(doc, "l1", "href", "/x"); got != doc {
		t.Fatalf("variable binding rewritten: %q", got)
	}
}

func TestSetAttribute_RefusesUnquoted(t *testing.T) {
	doc := `<a data-bf-id="l1" href=/a>x</a>`
	if got := SetAttribute(doc, "l1", "href", "/x"); got != doc {
		t.Fatalf("unquoted value rewritten: %q", got)
	}
}

func TestSetAttribute_InsertsWhenAbsent(t *testing.T) {
	doc := `<a data-bf-id="l1">x</a>`
	got := SetAttribute(doc, "l1", "target", "_blank")
	want := `<a data-bf-id="l1" target="_blank">x</a>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetAttribute_NameBoundary(t *testing.T) {
	doc := `<a data-bf-id="l1" data-href="/d" href="/a">x</a>`
	got := SetAttribute(doc, "l1", "href", "/x")
	want := `<a data-bf-id="l1" data-href="/d" href="/x">x</a>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetAttribute_EmptyName(t *testing.T) {
	doc := `<a data-bf-id="l1">x</a>`
	if got := SetAttribute(doc, "l1", "", "v"); got != doc {
		t.Fatalf("empty attribute name changed the document: %q", got)
	}
}

func TestSetInlineStyleProperty_ReplacesFirst(t *testing.T) {
	doc := `<div data-bf-id="s1" style="color: red; font-size: 12px">x</div>`
	got := SetInlineStyleProperty(doc, "s1", "color", "blue")
	want := `<div data-bf-id="s1" style="color: blue; font-size: 12px">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetInlineStyleProperty_ReplacesLater(t *testing.T) {
	doc := `<div data-bf-id="s1" style="color: red; font-size: 12px">x</div>`
	got := SetInlineStyleProperty(doc, "s1", "font-size", "14px")
	want := `<div data-bf-id="s1" style="color: red; font-size: 14px">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetInlineStyleProperty_AnchoredOnBoundary(t *testing.T) {
	// "color" must not match inside "border-color".
	doc := `<div data-bf-id="s1" style="border-color: red">x</div>`
	got := SetInlineStyleProperty(doc, "s1", "color", "blue")
	want := `<div data-bf-id="s1" style="border-color: red; color: blue;">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetInlineStyleProperty_AppendsAfterSemicolon(t *testing.T) {
	doc := `<div data-bf-id="s1" style="color: red;">x</div>`
	got := SetInlineStyleProperty(doc, "s1", "margin", "4px")
	want := `<div data-bf-id="s1" style="color: red; margin: 4px;">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetInlineStyleProperty_CreatesAttribute(t *testing.T) {
	doc := `<div data-bf-id="s2">x</div>`
	got := SetInlineStyleProperty(doc, "s2", "display", "none")
	want := `<div data-bf-id="s2" style="display: none;">x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestSetInlineStyleProperty_SingleQuotedAttr(t *testing.T) {
	doc := `<div data-bf-id="s1" style='color: red'>x</div>`
	got := SetInlineStyleProperty(doc, "s1", "color", "blue")
	want := `<div data-bf-id="s1" style='color: blue'>x</div>`
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestMoveElement_After(t *testing.T) {
	doc := "<div data-bf-id=\"p1\">\n" +
		"  <section data-bf-id=\"bf_A\">A</section>\n" +
		"  <section data-bf-id=\"bf_C\">C</section>\n" +
		"  <section data-bf-id=\"bf_B\">B</section>\n" +
		"</div>"
	got := MoveElement(doc, "bf_A", "bf_B", After)
	want := "<div data-bf-id=\"p1\">\n" +
		"  <section data-bf-id=\"bf_C\">C</section>\n" +
		"  <section data-bf-id=\"bf_B\">B</section>\n" +
		"  <section data-bf-id=\"bf_A\">A</section>\n" +
		"</div>"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestMoveElement_Before(t *testing.T) {
	doc := "<div data-bf-id=\"p1\">\n" +
		"  <section data-bf-id=\"bf_A\">A</section>\n" +
		"  <section data-bf-id=\"bf_C\">C</section>\n" +
		"  <section data-bf-id=\"bf_B\">B</section>\n" +
		"</div>"
	got := MoveElement(doc, "bf_B", "bf_A", Before)
	want := "<div data-bf-id=\"p1\">\n" +
		"  <section data-bf-id=\"bf_B\">B</section>\n" +
		"  <section data-bf-id=\"bf_A\">A</section>\n" +
		"  <section data-bf-id=\"bf_C\">C</section>\n" +
		"</div>"
	if got != want {
		t.Fatalf("got %q\nwant %q", got, want)
	}
}

func TestMoveElement_SameIdentifier(t *testing.T) {
	doc := "<div data-bf-id=\"a1\">x</div>"
	if got := MoveElement(doc, "a1", "a1", After); got != doc {
		t.Fatalf("moving onto itself changed the document: %q", got)
	}
}

func TestMoveElement_TargetInsideSource(t *testing.T) {
	doc := `<div data-bf-id="o1"><p data-bf-id="i1">x</p></div><span data-bf-id="s1">y</span>`
	if got := MoveElement(doc, "o1", "i1", After); got != doc {
		t.Fatalf("move with vanished target did not restore the document: %q", got)
	}
}

func TestMutations_MissingIdentifierIsNoOp(t *testing.T) {
	doc := `<div data-bf-id="d1" class="a">x</div>`
	ops := map[string]func() string{
		"SetClasses":             func() string { return SetClasses(doc, "none", "b") },
		"AddClass":               func() string { return AddClass(doc, "none", "b") },
		"RemoveClass":            func() string { return RemoveClass(doc, "none", "a") },
		"SetText":                func() string { return SetText(doc, "none", "y", "") },
		"ReplaceElement":         func() string { return ReplaceElement(doc, "none", "<p>y</p>") },
		"InsertAfter":            func() string { return InsertAfter(doc, "none", "<p>y</p>") },
		"RemoveElement":          func() string { return RemoveElement(doc, "none") },
		"SetAttribute":           func() string { return SetAttribute(doc, "none", "href", "/x") },
		"SetInlineStyleProperty": func() string { return SetInlineStyleProperty(doc, "none", "color", "red") },
		"MoveElement":            func() string { return MoveElement(doc, "none", "d1", After) },
		"MoveElement target":     func() string { return MoveElement(doc, "d1", "none", After) },
	}
	for name, op := range ops {
		if got := op(); got != doc {
			t.Fatalf("%s changed the document: %q", name, got)
		}
	}
}

func TestMutations_AreLocal(t *testing.T) {
	doc := `<main><p data-bf-id="x1">a</p><p data-bf-id="x2">b</p><p data-bf-id="x3">c</p></main>`
	span, ok := Locate(doc, "x2")
	if !ok {
		t.Fatal("not found")
	}
	got := SetClasses(doc, "x2", "hot")
	if got[:span.Start] != doc[:span.Start] {
		t.Fatalf("bytes before the element changed: %q", got[:span.Start])
	}
	tail := doc[span.End:]
	if got[len(got)-len(tail):] != tail {
		t.Fatalf("bytes after the element changed: %q", got[len(got)-len(tail):])
	}
}
