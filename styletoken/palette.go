package styletoken

import "strings"

// palette maps the built-in color names to hex values. It carries the
// mid-range shade of each hue plus the black/white literals: enough for
// a picker to offer sensible defaults, while any color outside the table
// travels through the bracketed arbitrary-value form.
var palette = map[string]string{
	"slate-500":   "#64748b",
	"gray-500":    "#6b7280",
	"zinc-500":    "#71717a",
	"neutral-500": "#737373",
	"stone-500":   "#78716c",
	"red-500":     "#ef4444",
	"orange-500":  "#f97316",
	"amber-500":   "#f59e0b",
	"yellow-500":  "#eab308",
	"lime-500":    "#84cc16",
	"green-500":   "#22c55e",
	"emerald-500": "#10b981",
	"teal-500":    "#14b8a6",
	"cyan-500":    "#06b6d4",
	"sky-500":     "#0ea5e9",
	"blue-500":    "#3b82f6",
	"indigo-500":  "#6366f1",
	"violet-500":  "#8b5cf6",
	"purple-500":  "#a855f7",
	"fuchsia-500": "#d946ef",
	"pink-500":    "#ec4899",
	"rose-500":    "#f43f5e",
	"black":       "#000000",
	"white":       "#ffffff",
}

// paletteHues is the hue vocabulary used to recognize color-valued
// utility suffixes at any shade, not just the shades in palette.
var paletteHues = map[string]bool{
	"slate":   true,
	"gray":    true,
	"zinc":    true,
	"neutral": true,
	"stone":   true,
	"red":     true,
	"orange":  true,
	"amber":   true,
	"yellow":  true,
	"lime":    true,
	"green":   true,
	"emerald": true,
	"teal":    true,
	"cyan":    true,
	"sky":     true,
	"blue":    true,
	"indigo":  true,
	"violet":  true,
	"purple":  true,
	"fuchsia": true,
	"pink":    true,
	"rose":    true,
}

var paletteByHex = make(map[string]string, len(palette))

func init() {
	for name, hex := range palette {
		paletteByHex[hex] = name
	}
}

// PaletteHex resolves a palette color name ("red-500", "black") to its
// hex value.
func PaletteHex(name string) (string, bool) {
	hex, ok := palette[name]
	return hex, ok
}

// PaletteName resolves a hex value back to its palette color name.
func PaletteName(hex string) (string, bool) {
	name, ok := paletteByHex[strings.ToLower(hex)]
	return name, ok
}

// ColorToken builds the utility token carrying a hex color under the
// given prefix: a palette token when the value is in the table
// ("bg-red-500"), a bracketed arbitrary-value token otherwise
// ("bg-[#1a2b3c]").
func ColorToken(prefix, hex string) string {
	hex = strings.ToLower(hex)
	if name, ok := paletteByHex[hex]; ok {
		return prefix + "-" + name
	}
	return prefix + "-[" + hex + "]"
}

// TokenHex extracts the hex color from a color utility token, resolving
// palette names ("bg-red-500") and bracketed arbitrary values
// ("text-[#1a2b3c]"). Bare palette names resolve too. Returns false for
// tokens carrying no resolvable color.
func TokenHex(token string) (string, bool) {
	if hex, ok := palette[token]; ok {
		return hex, ok
	}
	if open := strings.IndexByte(token, '['); open >= 0 && strings.HasSuffix(token, "]") {
		inner := token[open+1 : len(token)-1]
		if strings.HasPrefix(inner, "#") {
			return strings.ToLower(inner), true
		}
		return "", false
	}
	for i := 0; ; {
		j := strings.IndexByte(token[i:], '-')
		if j < 0 {
			break
		}
		i += j + 1
		if hex, ok := palette[token[i:]]; ok {
			return hex, true
		}
	}
	return "", false
}
