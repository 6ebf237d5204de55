package acquire

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// extractHTML extracts the readable text of an HTML document as one
// synthetic page. Navigation, boilerplate, and scripting elements are
// stripped; when the page declares a <main> or <article> region, only
// that region is used.
func extractHTML(body []byte) (title, text string, err error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}

	title = findTitle(doc)

	root := findContentRoot(doc)
	if root == nil {
		root = doc
	}

	var sb strings.Builder
	collectText(root, &sb)
	return title, collapseWhitespace(sb.String()), nil
}

// findTitle returns the <title> text, if any.
func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		if n.FirstChild != nil {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// findContentRoot locates the primary content region. <main> wins over
// <article>; either wins over the whole document.
func findContentRoot(n *html.Node) *html.Node {
	var article *html.Node
	var walk func(*html.Node) *html.Node
	walk = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Main:
				return n
			case atom.Article:
				if article == nil {
					article = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if m := walk(c); m != nil {
				return m
			}
		}
		return nil
	}
	if m := walk(n); m != nil {
		return m
	}
	return article
}

// collectText walks the DOM accumulating text nodes, skipping elements
// that never carry prose.
func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Nav, atom.Header, atom.Footer, atom.Aside, atom.Iframe:
			return
		}
	}
	if n.Type == html.TextNode {
		trimmed := strings.TrimSpace(n.Data)
		if trimmed != "" {
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(trimmed)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
