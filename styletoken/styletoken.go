// Package styletoken classifies utility-class strings into structured
// style records and serializes records back into class strings.
//
// Parsing is a single pass over whitespace-separated tokens. Each token
// is matched against an ordered set of category tests; anything
// unrecognized lands verbatim in the Other bucket, so a parse/serialize
// round trip reorders tokens into canonical category order but never
// loses one. The parser never validates values against a real style
// system: it classifies the utility vocabulary generated markup is known
// to use, and passes everything else through.
package styletoken

import "strings"

// Record is the structured decomposition of one element's utility-class
// string. Fields hold whole original tokens; empty means the category is
// unset.
type Record struct {
	Width  string
	Height string

	PaddingTop    string
	PaddingRight  string
	PaddingBottom string
	PaddingLeft   string

	Background string

	BorderWidth string
	BorderColor string
	Radius      string

	Opacity string

	FontFamily    string
	FontWeight    string
	FontSize      string
	LineHeight    string
	LetterSpacing string
	TextAlign     string
	TextColor     string

	Shadow string

	Other []string
}

// padding specificity levels: a side set by a pt-/pr-/pb-/pl- token is
// never overwritten by an axis or all-sides shorthand, and axis
// shorthands beat the all-sides shorthand, whatever order the tokens
// arrive in.
const (
	padUnset = iota
	padAll
	padAxis
	padSide
)

const (
	maskTop uint8 = 1 << iota
	maskRight
	maskBottom
	maskLeft
)

// Parse tokenizes classes on whitespace and files each token into its
// category. Repeated tokens for an already-occupied category, and padding
// shorthands fully shadowed by more specific tokens, fall through to
// Other rather than being dropped.
func Parse(classes string) Record {
	var r Record
	sides := [4]*string{&r.PaddingTop, &r.PaddingRight, &r.PaddingBottom, &r.PaddingLeft}
	levels := [4]int{}

	set := func(slot *string, tok string) {
		if *slot == "" {
			*slot = tok
			return
		}
		r.Other = append(r.Other, tok)
	}

	for _, tok := range strings.Fields(classes) {
		if mask, level := paddingSides(tok); mask != 0 {
			placed := false
			for i := range sides {
				if mask&(1<<i) == 0 || levels[i] >= level {
					continue
				}
				*sides[i] = tok
				levels[i] = level
				placed = true
			}
			if !placed {
				r.Other = append(r.Other, tok)
			}
			continue
		}
		switch {
		case strings.HasPrefix(tok, "w-"):
			set(&r.Width, tok)
		case strings.HasPrefix(tok, "h-"):
			set(&r.Height, tok)
		case isBackground(tok):
			set(&r.Background, tok)
		case isRadius(tok):
			set(&r.Radius, tok)
		case isBorderWidth(tok):
			set(&r.BorderWidth, tok)
		case isBorderColor(tok):
			set(&r.BorderColor, tok)
		case isOpacity(tok):
			set(&r.Opacity, tok)
		case isFontWeight(tok):
			set(&r.FontWeight, tok)
		case isFontFamily(tok):
			set(&r.FontFamily, tok)
		case isTextAlign(tok):
			set(&r.TextAlign, tok)
		case isTextSize(tok):
			set(&r.FontSize, tok)
		case isTextColor(tok):
			set(&r.TextColor, tok)
		case strings.HasPrefix(tok, "leading-"):
			set(&r.LineHeight, tok)
		case strings.HasPrefix(tok, "tracking-"):
			set(&r.LetterSpacing, tok)
		case tok == "shadow" || strings.HasPrefix(tok, "shadow-"):
			set(&r.Shadow, tok)
		default:
			r.Other = append(r.Other, tok)
		}
	}
	return r
}

// Serialize joins the record back into one class string in canonical
// category order. The four padding fields may share one shorthand token;
// it is emitted once.
func (r Record) Serialize() string {
	out := make([]string, 0, 16)
	add := func(tok string) {
		if tok != "" {
			out = append(out, tok)
		}
	}
	seenPad := make(map[string]bool, 4)
	addPad := func(tok string) {
		if tok == "" || seenPad[tok] {
			return
		}
		seenPad[tok] = true
		out = append(out, tok)
	}

	add(r.Width)
	add(r.Height)
	addPad(r.PaddingTop)
	addPad(r.PaddingRight)
	addPad(r.PaddingBottom)
	addPad(r.PaddingLeft)
	add(r.Background)
	add(r.BorderWidth)
	add(r.BorderColor)
	add(r.Radius)
	add(r.Opacity)
	add(r.FontFamily)
	add(r.FontWeight)
	add(r.FontSize)
	add(r.LineHeight)
	add(r.LetterSpacing)
	add(r.TextAlign)
	add(r.TextColor)
	add(r.Shadow)
	out = append(out, r.Other...)
	return strings.Join(out, " ")
}

// paddingSides classifies a padding token and returns the bitmask of
// sides it addresses plus its specificity level, or 0 for non-padding
// tokens.
func paddingSides(tok string) (uint8, int) {
	if len(tok) < 3 || tok[0] != 'p' {
		return 0, 0
	}
	if tok[1] == '-' {
		if spacingValue(tok[2:]) {
			return maskTop | maskRight | maskBottom | maskLeft, padAll
		}
		return 0, 0
	}
	if tok[2] != '-' || !spacingValue(tok[3:]) {
		return 0, 0
	}
	switch tok[1] {
	case 't':
		return maskTop, padSide
	case 'r':
		return maskRight, padSide
	case 'b':
		return maskBottom, padSide
	case 'l':
		return maskLeft, padSide
	case 'x':
		return maskLeft | maskRight, padAxis
	case 'y':
		return maskTop | maskBottom, padAxis
	}
	return 0, 0
}

// spacingValue reports whether v is a plausible spacing suffix: a number
// ("4", "1.5"), the pixel literal, or a bracketed arbitrary value.
func spacingValue(v string) bool {
	if v == "" {
		return false
	}
	if v == "px" {
		return true
	}
	if v[0] == '[' {
		return strings.HasSuffix(v, "]")
	}
	return v[0] >= '0' && v[0] <= '9'
}

// bgNonColor lists the first path segment of bg- utilities that are not
// background colors: gradients, sizing, positioning, attachment, repeat,
// clipping, blending. They share the prefix but belong in Other.
var bgNonColor = map[string]bool{
	"gradient": true,
	"none":     true,
	"auto":     true,
	"cover":    true,
	"contain":  true,
	"center":   true,
	"top":      true,
	"bottom":   true,
	"left":     true,
	"right":    true,
	"repeat":   true,
	"no":       true,
	"fixed":    true,
	"local":    true,
	"scroll":   true,
	"clip":     true,
	"origin":   true,
	"blend":    true,
	"opacity":  true,
}

func isBackground(tok string) bool {
	v, ok := strings.CutPrefix(tok, "bg-")
	if !ok || v == "" {
		return false
	}
	if v[0] == '[' {
		return strings.HasSuffix(v, "]")
	}
	head, _, _ := strings.Cut(v, "-")
	return !bgNonColor[head]
}

func isRadius(tok string) bool {
	return tok == "rounded" || strings.HasPrefix(tok, "rounded-")
}

func isBorderWidth(tok string) bool {
	if tok == "border" {
		return true
	}
	v, ok := strings.CutPrefix(tok, "border-")
	if !ok || v == "" {
		return false
	}
	if v[0] >= '0' && v[0] <= '9' {
		return true
	}
	// Side variants: border-t, border-x-2.
	switch v[0] {
	case 't', 'r', 'b', 'l', 'x', 'y':
		return len(v) == 1 || (v[1] == '-' && len(v) > 2 && v[2] >= '0' && v[2] <= '9')
	}
	return false
}

func isBorderColor(tok string) bool {
	v, ok := strings.CutPrefix(tok, "border-")
	if !ok {
		return false
	}
	return colorValue(v)
}

func isOpacity(tok string) bool {
	v, ok := strings.CutPrefix(tok, "opacity-")
	if !ok || v == "" {
		return false
	}
	if v[0] == '[' {
		return strings.HasSuffix(v, "]")
	}
	return v[0] >= '0' && v[0] <= '9'
}

var fontWeights = map[string]bool{
	"thin":       true,
	"extralight": true,
	"light":      true,
	"normal":     true,
	"medium":     true,
	"semibold":   true,
	"bold":       true,
	"extrabold":  true,
	"black":      true,
}

var fontFamilies = map[string]bool{
	"sans":  true,
	"serif": true,
	"mono":  true,
}

var textAligns = map[string]bool{
	"left":    true,
	"center":  true,
	"right":   true,
	"justify": true,
	"start":   true,
	"end":     true,
}

var textSizes = map[string]bool{
	"xs":   true,
	"sm":   true,
	"base": true,
	"lg":   true,
	"xl":   true,
	"2xl":  true,
	"3xl":  true,
	"4xl":  true,
	"5xl":  true,
	"6xl":  true,
	"7xl":  true,
	"8xl":  true,
	"9xl":  true,
}

// isFontWeight must run before isFontFamily so font-bold is a weight,
// not a family.
func isFontWeight(tok string) bool {
	v, ok := strings.CutPrefix(tok, "font-")
	return ok && fontWeights[v]
}

func isFontFamily(tok string) bool {
	v, ok := strings.CutPrefix(tok, "font-")
	if !ok || v == "" {
		return false
	}
	if v[0] == '[' {
		return strings.HasSuffix(v, "]")
	}
	return fontFamilies[v]
}

// isTextAlign must run before isTextColor so text-center is an
// alignment, not a color.
func isTextAlign(tok string) bool {
	v, ok := strings.CutPrefix(tok, "text-")
	return ok && textAligns[v]
}

func isTextSize(tok string) bool {
	v, ok := strings.CutPrefix(tok, "text-")
	if !ok || v == "" {
		return false
	}
	if v[0] == '[' {
		return strings.HasSuffix(v, "]") && !bracketColor(v)
	}
	return textSizes[v]
}

func isTextColor(tok string) bool {
	v, ok := strings.CutPrefix(tok, "text-")
	if !ok {
		return false
	}
	if v != "" && v[0] == '[' {
		return strings.HasSuffix(v, "]") && bracketColor(v)
	}
	return colorValue(v)
}

// bracketColor reports whether a bracketed arbitrary value holds a color
// rather than a length: "[#ff0000]", "[rgb(1,2,3)]".
func bracketColor(v string) bool {
	inner := strings.TrimSuffix(strings.TrimPrefix(v, "["), "]")
	return strings.HasPrefix(inner, "#") ||
		strings.HasPrefix(inner, "rgb") ||
		strings.HasPrefix(inner, "hsl")
}

var colorLiterals = map[string]bool{
	"black":       true,
	"white":       true,
	"transparent": true,
	"current":     true,
	"inherit":     true,
}

// colorValue reports whether v is a color suffix: a literal, a
// palette-style hue-shade pair, or a bracketed arbitrary value.
func colorValue(v string) bool {
	if v == "" {
		return false
	}
	if v[0] == '[' {
		return strings.HasSuffix(v, "]")
	}
	if colorLiterals[v] {
		return true
	}
	hue, shade, ok := strings.Cut(v, "-")
	if !ok || !paletteHues[hue] || shade == "" {
		return false
	}
	for i := 0; i < len(shade); i++ {
		if shade[i] < '0' || shade[i] > '9' {
			return false
		}
	}
	return true
}
