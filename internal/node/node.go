// Package node defines the render tree produced by the pipeline.
// A tree is built fresh on every render cycle and handed to the host
// for painting; nothing in it is retained between cycles.
package node

// Node is a renderable tree node. Exactly one of the concrete types
// below is behind every Node value.
type Node interface {
	isNode()
}

// Text is a literal text span.
type Text struct {
	Value string
}

// Element is an ordinary HTML-derived element: tag, normalized
// attributes and children. Style is parsed out of the style attribute
// into individual declarations; it never appears in Attrs.
type Element struct {
	Tag      string
	Attrs    map[string]string
	Style    map[string]string
	Children []Node
}

// Math is a typeset math region.
type Math struct {
	Markup  string
	Display bool
}

// Reasoning is a collapsible hidden-reasoning region. Incomplete is
// true while the closing tag has not yet arrived in the stream.
type Reasoning struct {
	Content    string
	Incomplete bool
}

// Widget is a specialized code block to be rendered by a dedicated
// widget (music notation, diagram, vector graphics, chart). Language
// is the fence tag if one was present.
type Widget struct {
	Code     string
	Type     WidgetType
	Language string
}

// Citation is a resolved numeric citation. Source always points at the
// supplied source whose reference number matched; unmatched numbers
// never produce a Citation, they stay literal bracket text.
type Citation struct {
	RefNumber int
	Source    *Source
}

// SemanticCitation is a keyword or free-label citation badge.
type SemanticCitation struct {
	Kind    SemanticKind
	Label   string
	Tooltip string
}

func (Text) isNode()             {}
func (Element) isNode()          {}
func (Math) isNode()             {}
func (Reasoning) isNode()        {}
func (Widget) isNode()           {}
func (Citation) isNode()         {}
func (SemanticCitation) isNode() {}

// WidgetType classifies a specialized code block.
type WidgetType string

const (
	WidgetABC     WidgetType = "abc"     // ABC music notation
	WidgetSVG     WidgetType = "svg"     // inline vector graphics
	WidgetDiagram WidgetType = "diagram" // mermaid and friends
	WidgetChart   WidgetType = "chart"   // plotly-style chart specs
)

// SemanticKind identifies the meaning of a semantic citation.
type SemanticKind string

const (
	SemanticMemory   SemanticKind = "memory"
	SemanticPinned   SemanticKind = "pinned"
	SemanticDocument SemanticKind = "document"
)

// Source describes one citable source supplied by the host for a
// render cycle. RefNumber is assigned by the citation resolver;
// callers leave it zero.
type Source struct {
	ID           string
	Type         string
	Name         string
	ExternalURL  string
	InternalPath string
	RefNumber    int
}
