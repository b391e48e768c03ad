package webimport

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// droppedElements are removed wholesale during cleanup. Scripts and frames
// for safety; the rest is fetch-time machinery with no place in an editable
// design.
var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Noscript: true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Template: true,
	atom.Base:     true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Title:    true,
}

// urlAttrs are rewritten against the page's base URL so the imported design
// renders outside its origin.
var urlAttrs = map[string]bool{
	"href":   true,
	"src":    true,
	"poster": true,
	"action": true,
}

// Clean parses a fetched page, strips scripting and fetch-time machinery,
// absolutizes URL attributes against base, and returns the page title plus
// the body markup ready for sanitization and tagging.
func Clean(src string, base *url.URL) (title, body string, err error) {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", "", fmt.Errorf("webimport: parse page: %w", err)
	}

	title = findTitle(doc)
	cleanNode(doc, base)

	bodyNode := findBody(doc)
	if bodyNode == nil {
		return "", "", fmt.Errorf("webimport: page has no body")
	}

	var sb strings.Builder
	for c := bodyNode.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&sb, c); err != nil {
			return "", "", fmt.Errorf("webimport: render cleaned body: %w", err)
		}
	}
	return title, sb.String(), nil
}

func cleanNode(n *html.Node, base *url.URL) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && droppedElements[c.DataAtom]:
			n.RemoveChild(c)
		default:
			cleanNode(c, base)
		}
		c = next
	}

	if n.Type != html.ElementNode {
		return
	}

	kept := n.Attr[:0]
	for _, a := range n.Attr {
		if strings.HasPrefix(strings.ToLower(a.Key), "on") {
			continue
		}
		if urlAttrs[a.Key] {
			v := strings.TrimSpace(a.Val)
			if strings.HasPrefix(strings.ToLower(v), "javascript:") {
				continue
			}
			a.Val = absolutize(v, base)
		}
		kept = append(kept, a)
	}
	n.Attr = kept
}

func absolutize(ref string, base *url.URL) string {
	if base == nil || ref == "" || strings.HasPrefix(ref, "#") ||
		strings.HasPrefix(ref, "data:") {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
