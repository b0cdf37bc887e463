package scraper

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

type matcher func(*html.Node) bool

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// classes matches elements carrying every given class.
func classes(names ...string) matcher {
	return func(n *html.Node) bool {
		for _, name := range names {
			if !hasClass(n, name) {
				return false
			}
		}
		return n.Type == html.ElementNode
	}
}

// anyClass matches elements carrying at least one of the given classes.
func anyClass(names ...string) matcher {
	return func(n *html.Node) bool {
		for _, name := range names {
			if hasClass(n, name) {
				return true
			}
		}
		return false
	}
}

func tag(name string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name
	}
}

// tagClass matches name elements carrying class.
func tagClass(name, class string) matcher {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == name && hasClass(n, class)
	}
}

// find returns the first descendant of n in document order matching m.
func find(n *html.Node, m matcher) *html.Node {
	if n == nil {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if m(c) {
			return c
		}
		if found := find(c, m); found != nil {
			return found
		}
	}
	return nil
}

// findPath descends through each matcher in turn, like a descendant selector.
func findPath(n *html.Node, path ...matcher) *html.Node {
	for _, m := range path {
		n = find(n, m)
		if n == nil {
			return nil
		}
	}
	return n
}

// findAll returns every descendant of n matching m in document order.
func findAll(n *html.Node, m matcher) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(p *html.Node) {
		for c := p.FirstChild; c != nil; c = c.NextSibling {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if n != nil {
		walk(n)
	}
	return out
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// text returns the concatenated text content of n.
func text(n *html.Node) string {
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(text(c))
	}
	return b.String()
}

func trimmedText(n *html.Node) string {
	return strings.TrimSpace(text(n))
}

// innerHTML renders the children of n.
func innerHTML(n *html.Node) string {
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// classWithPrefix returns the first class of n starting with prefix.
func classWithPrefix(n *html.Node, prefix string) string {
	for _, c := range strings.Fields(attr(n, "class")) {
		if strings.HasPrefix(c, prefix) {
			return c
		}
	}
	return ""
}
