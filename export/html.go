package export

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	xhtml "golang.org/x/net/html"

	"github.com/buildflow/buildflow/markup"
)

// utilityCSS is the stylesheet link injected into exported documents so the
// utility classes the style parser works with actually resolve.
const utilityCSS = "https://cdn.tailwindcss.com"

// HTML assembles a standalone HTML document around a design fragment. The
// fragment is stripped of element identifiers, wrapped in a document shell,
// and run through a parse/render pass that closes unclosed tags — generated
// markup is not guaranteed to be well formed, but exported files should be.
func (e *Exporter) HTML(name, fragment string) (string, error) {
	body := markup.StripIdentifiers(fragment)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	b.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(name))
	fmt.Fprintf(&b, "<script src=%q></script>\n", utilityCSS)
	b.WriteString("</head>\n<body>\n")
	b.WriteString(body)
	b.WriteString("\n</body>\n</html>\n")

	normalized, err := normalize(b.String())
	if err != nil {
		return "", fmt.Errorf("export: normalize html: %w", err)
	}
	return normalized, nil
}

// normalize round-trips the document through the HTML5 parser, which closes
// dangling tags and balances the tree. This is an export-boundary step only:
// the editing core never normalizes, because normalization destroys the
// byte-exact fidelity mutations depend on.
func normalize(doc string) (string, error) {
	node, err := xhtml.Parse(strings.NewReader(doc))
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := xhtml.Render(&buf, node); err != nil {
		return "", err
	}
	return buf.String(), nil
}
