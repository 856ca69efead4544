package problem

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maskClass = "mask"

var strippedElements = map[atom.Atom]struct{}{
	atom.Script: {},
	atom.Style:  {},
	atom.Iframe: {},
	atom.Object: {},
	atom.Embed:  {},
}

var blockElements = map[atom.Atom]struct{}{
	atom.Br:  {},
	atom.P:   {},
	atom.Div: {},
	atom.Li:  {},
	atom.Tr:  {},
	atom.H1:  {},
	atom.H2:  {},
	atom.H3:  {},
}

func parseFragment(src string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(src), ctx)
}

func isMask(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(a.Val) {
			if cls == maskClass {
				return true
			}
		}
	}
	return false
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// ExtractMaskAnswers returns the trimmed text of every masked span in document order.
func ExtractMaskAnswers(src string) []string {
	nodes, err := parseFragment(src)
	if err != nil {
		return nil
	}
	answers := []string{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if isMask(n) {
			if text := strings.TrimSpace(textOf(n)); text != "" {
				answers = append(answers, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return answers
}

// isEventHandler reports on* handler attributes. "open" is the one standard
// attribute that shares the prefix.
func isEventHandler(key string) bool {
	key = strings.ToLower(key)
	return len(key) > 2 && strings.HasPrefix(key, "on") && key != "open"
}

// SanitizeHTML drops active elements and on* attributes.
func SanitizeHTML(src string) string {
	nodes, err := parseFragment(src)
	if err != nil {
		return ""
	}
	var clean func(*html.Node)
	clean = func(n *html.Node) {
		for c := n.FirstChild; c != nil; {
			next := c.NextSibling
			if c.Type == html.ElementNode {
				if _, drop := strippedElements[c.DataAtom]; drop {
					n.RemoveChild(c)
					c = next
					continue
				}
			}
			clean(c)
			c = next
		}
		if n.Type != html.ElementNode {
			return
		}
		attrs := n.Attr[:0]
		for _, a := range n.Attr {
			if isEventHandler(a.Key) {
				continue
			}
			attrs = append(attrs, a)
		}
		n.Attr = attrs
	}
	var buf bytes.Buffer
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			if _, drop := strippedElements[n.DataAtom]; drop {
				continue
			}
		}
		clean(n)
		if err := html.Render(&buf, n); err != nil {
			return ""
		}
	}
	return buf.String()
}

// Segment is a run of flattened text; Mask marks a masked span.
type Segment struct {
	Text string
	Mask bool
}

// Segments flattens HTML into text runs. Masked spans become blanks sized
// to their answer unless reveal is set, in which case the answer is
// bracketed. Block elements end with a newline.
func Segments(src string, reveal bool) []Segment {
	nodes, err := parseFragment(src)
	if err != nil {
		return nil
	}
	var out []Segment
	emit := func(text string, mask bool) {
		if text == "" {
			return
		}
		if n := len(out); n > 0 && !mask && !out[n-1].Mask {
			out[n-1].Text += text
			return
		}
		out = append(out, Segment{Text: text, Mask: mask})
	}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			emit(n.Data, false)
			return
		case html.ElementNode:
			if isMask(n) {
				answer := strings.TrimSpace(textOf(n))
				if reveal {
					emit("["+answer+"]", true)
				} else {
					emit("["+strings.Repeat("_", blankWidth(answer))+"]", true)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if _, ok := blockElements[n.DataAtom]; ok && n.Type == html.ElementNode {
			emit("\n", false)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return out
}

// PlainText flattens HTML to text. See Segments.
func PlainText(src string, reveal bool) string {
	var b strings.Builder
	for _, seg := range Segments(src, reveal) {
		b.WriteString(seg.Text)
	}
	return strings.TrimSpace(b.String())
}

func blankWidth(answer string) int {
	n := len([]rune(answer))
	if n < 3 {
		return 3
	}
	return n
}

// TextContent returns the concatenated text of an HTML fragment.
func TextContent(src string) string {
	nodes, err := parseFragment(src)
	if err != nil {
		return ""
	}
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(textOf(n))
	}
	return b.String()
}
