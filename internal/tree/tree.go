// Package tree parses compiled HTML into the render node tree,
// substituting placeholder elements from the extractor's side tables
// and splitting text nodes into citation nodes.
package tree

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"chatmark/internal/citation"
	"chatmark/internal/compile"
	"chatmark/internal/debuglog"
	"chatmark/internal/extract"
	"chatmark/internal/node"
)

// Builder holds the per-cycle inputs for one tree construction. All
// fields are read-only during the walk; a Builder is discarded after
// Build returns.
type Builder struct {
	Blocks    *extract.Result
	Sources   []node.Source // must already carry reference numbers
	Citations bool          // whether citation splitting is active
	Math      compile.MathFunc
	Log       *debuglog.Logger
}

// Build parses htmlText and returns the render tree. Parsing is
// tolerant; the walk never fails. Orphaned placeholders render as
// nothing and are logged once.
func (b *Builder) Build(htmlText string) ([]node.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(strings.NewReader(htmlText), ctx)
	if err != nil {
		return nil, err
	}

	var out []node.Node
	for _, n := range parsed {
		out = append(out, b.convert(n)...)
	}
	return out, nil
}

// convert maps one HTML node to zero or more render nodes. Text nodes
// that split into citations come back as multiple siblings, flattened
// by the caller.
func (b *Builder) convert(n *html.Node) []node.Node {
	switch n.Type {
	case html.TextNode:
		if b.Citations {
			return citation.Split(n.Data, b.Sources)
		}
		return []node.Node{node.Text{Value: n.Data}}

	case html.ElementNode:
		if id := attrVal(n, extract.PlaceholderAttr); id != "" {
			return b.resolvePlaceholder(id)
		}

		el := node.Element{Tag: n.Data}
		el.Attrs, el.Style = normalizeAttrs(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			el.Children = append(el.Children, b.convert(c)...)
		}
		return []node.Node{el}
	}

	// Comments, doctypes: nothing to render.
	return nil
}

// resolvePlaceholder swaps a placeholder element for its extracted
// block. An id with no side-table entry is an invariant violation:
// render nothing rather than throwing, and log once.
func (b *Builder) resolvePlaceholder(id string) []node.Node {
	switch blk := b.Blocks.Lookup(id).(type) {
	case *extract.MathBlock:
		if b.Math != nil {
			if markup, err := b.Math(blk.Latex, true); err == nil {
				return []node.Node{node.Math{Markup: markup, Display: true}}
			}
		}
		// Math failure degrades to the literal source text.
		b.Log.Once("math:"+id, "math_fallback", map[string]any{"latex": blk.Latex})
		return []node.Node{node.Text{Value: "$$" + blk.Latex + "$$"}}

	case *extract.ReasoningBlock:
		return []node.Node{node.Reasoning{Content: blk.Content, Incomplete: blk.Incomplete}}

	case *extract.CodeBlock:
		return []node.Node{node.Widget{Code: blk.Code, Type: blk.Type, Language: blk.Language}}
	}

	b.Log.Once("orphan:"+id, "orphan_placeholder", map[string]any{"id": id})
	return nil
}

// normalizeAttrs copies element attributes, parsing any style string
// into individual declarations instead of passing it through opaque.
func normalizeAttrs(n *html.Node) (attrs, style map[string]string) {
	for _, a := range n.Attr {
		if a.Key == "style" {
			style = ParseStyle(a.Val)
			continue
		}
		if attrs == nil {
			attrs = make(map[string]string)
		}
		attrs[a.Key] = a.Val
	}
	return attrs, style
}

// ParseStyle splits an inline style string into declarations.
// Malformed declarations are dropped.
func ParseStyle(s string) map[string]string {
	var out map[string]string
	for _, decl := range strings.Split(s, ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" {
			continue
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[strings.ToLower(name)] = value
	}
	return out
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
