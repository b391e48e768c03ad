package styletoken

import (
	"sort"
	"strings"
	"testing"
)

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		set[tok] = true
	}
	return set
}

func sameSet(t *testing.T, got, want string) {
	t.Helper()
	g, w := tokenSet(got), tokenSet(want)
	var missing, extra []string
	for tok := range w {
		if !g[tok] {
			missing = append(missing, tok)
		}
	}
	for tok := range g {
		if !w[tok] {
			extra = append(extra, tok)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	if len(missing) > 0 || len(extra) > 0 {
		t.Fatalf("token sets differ: missing %v, extra %v\n got %q\nwant %q", missing, extra, got, want)
	}
}

func TestParse_PaddingAndOther(t *testing.T) {
	r := Parse("pt-4 pb-8 flex items-center custom-thing")
	if r.PaddingTop != "pt-4" {
		t.Fatalf("padding top: got %q, want %q", r.PaddingTop, "pt-4")
	}
	if r.PaddingBottom != "pb-8" {
		t.Fatalf("padding bottom: got %q, want %q", r.PaddingBottom, "pb-8")
	}
	if r.PaddingRight != "" || r.PaddingLeft != "" {
		t.Fatalf("untouched sides: got right %q, left %q, want empty", r.PaddingRight, r.PaddingLeft)
	}
	want := []string{"flex", "items-center", "custom-thing"}
	if len(r.Other) != len(want) {
		t.Fatalf("other: got %v, want %v", r.Other, want)
	}
	for i, tok := range want {
		if r.Other[i] != tok {
			t.Fatalf("other[%d]: got %q, want %q", i, r.Other[i], tok)
		}
	}
}

func TestParse_PaddingShorthandExpansion(t *testing.T) {
	r := Parse("p-4")
	for _, got := range []string{r.PaddingTop, r.PaddingRight, r.PaddingBottom, r.PaddingLeft} {
		if got != "p-4" {
			t.Fatalf("side: got %q, want %q", got, "p-4")
		}
	}
	if got := r.Serialize(); got != "p-4" {
		t.Fatalf("serialized: got %q, want %q", got, "p-4")
	}
}

func TestParse_SpecificBeatsShorthandEitherOrder(t *testing.T) {
	for _, s := range []string{"p-4 pt-2", "pt-2 p-4"} {
		r := Parse(s)
		if r.PaddingTop != "pt-2" {
			t.Fatalf("%q: padding top got %q, want %q", s, r.PaddingTop, "pt-2")
		}
		if r.PaddingBottom != "p-4" || r.PaddingLeft != "p-4" || r.PaddingRight != "p-4" {
			t.Fatalf("%q: remaining sides got %q/%q/%q, want p-4", s, r.PaddingRight, r.PaddingBottom, r.PaddingLeft)
		}
	}
}

func TestParse_AxisShorthand(t *testing.T) {
	for _, s := range []string{"px-2 p-4", "p-4 px-2"} {
		r := Parse(s)
		if r.PaddingLeft != "px-2" || r.PaddingRight != "px-2" {
			t.Fatalf("%q: x sides got %q/%q, want px-2", s, r.PaddingLeft, r.PaddingRight)
		}
		if r.PaddingTop != "p-4" || r.PaddingBottom != "p-4" {
			t.Fatalf("%q: y sides got %q/%q, want p-4", s, r.PaddingTop, r.PaddingBottom)
		}
	}
}

func TestParse_Categories(t *testing.T) {
	r := Parse("w-full h-64 p-4 bg-red-500 border-2 border-gray-500 rounded-lg opacity-75 " +
		"font-sans font-bold text-xl leading-6 tracking-wide text-center text-white shadow-md")
	checks := []struct {
		name, got, want string
	}{
		{"width", r.Width, "w-full"},
		{"height", r.Height, "h-64"},
		{"background", r.Background, "bg-red-500"},
		{"border width", r.BorderWidth, "border-2"},
		{"border color", r.BorderColor, "border-gray-500"},
		{"radius", r.Radius, "rounded-lg"},
		{"opacity", r.Opacity, "opacity-75"},
		{"font family", r.FontFamily, "font-sans"},
		{"font weight", r.FontWeight, "font-bold"},
		{"font size", r.FontSize, "text-xl"},
		{"line height", r.LineHeight, "leading-6"},
		{"letter spacing", r.LetterSpacing, "tracking-wide"},
		{"text align", r.TextAlign, "text-center"},
		{"text color", r.TextColor, "text-white"},
		{"shadow", r.Shadow, "shadow-md"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Fatalf("%s: got %q, want %q", c.name, c.got, c.want)
		}
	}
	if len(r.Other) != 0 {
		t.Fatalf("other: got %v, want empty", r.Other)
	}
}

func TestParse_MisclassificationGuards(t *testing.T) {
	r := Parse("font-bold text-center bg-gradient-to-r bg-center border-dashed")
	if r.FontFamily != "" {
		t.Fatalf("font family: got %q, want empty", r.FontFamily)
	}
	if r.FontWeight != "font-bold" {
		t.Fatalf("font weight: got %q, want %q", r.FontWeight, "font-bold")
	}
	if r.TextColor != "" {
		t.Fatalf("text color: got %q, want empty", r.TextColor)
	}
	if r.TextAlign != "text-center" {
		t.Fatalf("text align: got %q, want %q", r.TextAlign, "text-center")
	}
	if r.Background != "" {
		t.Fatalf("background: got %q, want empty", r.Background)
	}
	wantOther := []string{"bg-gradient-to-r", "bg-center", "border-dashed"}
	if len(r.Other) != len(wantOther) {
		t.Fatalf("other: got %v, want %v", r.Other, wantOther)
	}
}

func TestParse_ArbitraryTextValues(t *testing.T) {
	r := Parse("text-[#ff0000] text-[14px]")
	if r.TextColor != "text-[#ff0000]" {
		t.Fatalf("text color: got %q, want %q", r.TextColor, "text-[#ff0000]")
	}
	if r.FontSize != "text-[14px]" {
		t.Fatalf("font size: got %q, want %q", r.FontSize, "text-[14px]")
	}
}

func TestRoundTrip_RecognizedTokens(t *testing.T) {
	s := "w-full h-64 p-4 bg-red-500 border-2 border-gray-500 rounded-lg opacity-75 " +
		"font-sans font-bold text-xl leading-6 tracking-wide text-center text-white shadow-md"
	sameSet(t, Parse(s).Serialize(), s)
}

func TestRoundTrip_UnrecognizedPreserved(t *testing.T) {
	s := "flex custom-thing p-4 grid-cols-3"
	out := Parse(s).Serialize()
	sameSet(t, out, s)
	for _, tok := range []string{"flex", "custom-thing", "grid-cols-3"} {
		if !strings.Contains(out, tok) {
			t.Fatalf("unrecognized token %q missing from %q", tok, out)
		}
	}
}

func TestRoundTrip_OccupiedCategoryOverflows(t *testing.T) {
	s := "bg-red-500 bg-blue-500"
	r := Parse(s)
	if r.Background != "bg-red-500" {
		t.Fatalf("background: got %q, want %q", r.Background, "bg-red-500")
	}
	if len(r.Other) != 1 || r.Other[0] != "bg-blue-500" {
		t.Fatalf("other: got %v, want [bg-blue-500]", r.Other)
	}
	sameSet(t, r.Serialize(), s)
}

func TestSerialize_CanonicalOrder(t *testing.T) {
	got := Parse("text-white w-full").Serialize()
	if got != "w-full text-white" {
		t.Fatalf("got %q, want %q", got, "w-full text-white")
	}
}

func TestPalette(t *testing.T) {
	hex, ok := PaletteHex("red-500")
	if !ok || hex != "#ef4444" {
		t.Fatalf("PaletteHex(red-500): got %q %v", hex, ok)
	}
	name, ok := PaletteName("#3B82F6")
	if !ok || name != "blue-500" {
		t.Fatalf("PaletteName(#3B82F6): got %q %v", name, ok)
	}
	if _, ok := PaletteHex("mauve-500"); ok {
		t.Fatal("unknown name resolved")
	}
}

func TestColorToken(t *testing.T) {
	if got := ColorToken("bg", "#ef4444"); got != "bg-red-500" {
		t.Fatalf("palette hex: got %q, want %q", got, "bg-red-500")
	}
	if got := ColorToken("bg", "#123456"); got != "bg-[#123456]" {
		t.Fatalf("arbitrary hex: got %q, want %q", got, "bg-[#123456]")
	}
	if got := ColorToken("text", "#000000"); got != "text-black" {
		t.Fatalf("literal: got %q, want %q", got, "text-black")
	}
}

func TestTokenHex(t *testing.T) {
	tests := []struct {
		token string
		want  string
		ok    bool
	}{
		{"bg-red-500", "#ef4444", true},
		{"text-[#1A2B3C]", "#1a2b3c", true},
		{"border-blue-500", "#3b82f6", true},
		{"bg-black", "#000000", true},
		{"black", "#000000", true},
		{"bg-[url(x.png)]", "", false},
		{"flex", "", false},
	}
	for _, tt := range tests {
		got, ok := TokenHex(tt.token)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("TokenHex(%q): got %q %v, want %q %v", tt.token, got, ok, tt.want, tt.ok)
		}
	}
}
