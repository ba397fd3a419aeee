// Package term paints render-node trees to ANSI terminal text. It is
// the host-side collaborator of the pipeline: widgets, math and
// reasoning blocks arrive as resolved descriptors and are framed,
// styled and cached here.
package term

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"

	"chatmark/internal/node"
)

// Renderer paints node trees at a fixed width. Safe to reuse across
// render cycles; the cache is keyed by content so unchanged widgets
// and code blocks are not re-derived while text streams in.
type Renderer struct {
	Width int
	Theme *Theme
	Cache *RenderCache
}

// NewRenderer creates a renderer with the default theme and cache.
func NewRenderer(width int) *Renderer {
	if width <= 0 {
		width = 80
	}
	return &Renderer{
		Width: width,
		Theme: DefaultTheme(),
		Cache: NewRenderCache(100),
	}
}

// Render paints a node tree, returning terminal text.
func (r *Renderer) Render(nodes []node.Node) string {
	blocks := r.renderBlocks(nodes, 0)
	return strings.TrimRight(strings.Join(blocks, "\n\n"), "\n")
}

// renderBlocks walks top-level nodes, merging runs of inline content
// into paragraphs.
func (r *Renderer) renderBlocks(nodes []node.Node, depth int) []string {
	var blocks []string
	var inline strings.Builder

	flush := func() {
		s := strings.TrimSpace(inline.String())
		inline.Reset()
		if s != "" {
			blocks = append(blocks, r.wrap(s))
		}
	}

	for _, n := range nodes {
		switch v := n.(type) {
		case node.Reasoning:
			flush()
			blocks = append(blocks, r.renderReasoning(v))
		case node.Widget:
			flush()
			blocks = append(blocks, r.renderWidget(v))
		case node.Math:
			if v.Display {
				flush()
				blocks = append(blocks, r.Theme.mathStyle().Render(v.Markup))
			} else {
				inline.WriteString(r.Theme.mathStyle().Render(v.Markup))
			}
		case node.Element:
			if isBlockTag(v.Tag) {
				flush()
				if b := r.renderBlockElement(v, depth); b != "" {
					blocks = append(blocks, b)
				}
			} else {
				inline.WriteString(r.renderInline([]node.Node{v}))
			}
		default:
			inline.WriteString(r.renderInline([]node.Node{n}))
		}
	}
	flush()
	return blocks
}

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true,
	"h5": true, "h6": true, "ul": true, "ol": true, "li": true,
	"pre": true, "blockquote": true, "hr": true, "table": true,
	"div": true,
}

func isBlockTag(tag string) bool { return blockTags[tag] }

func (r *Renderer) renderBlockElement(el node.Element, depth int) string {
	switch el.Tag {
	case "p", "div":
		return r.wrap(strings.TrimSpace(r.renderInline(el.Children)))

	case "h1", "h2", "h3", "h4", "h5", "h6":
		level := int(el.Tag[1] - '0')
		text := strings.Repeat("#", level) + " " + strings.TrimSpace(r.renderInline(el.Children))
		return r.Theme.headingStyle().Render(text)

	case "pre":
		return r.renderCodeBlock(el)

	case "ul", "ol":
		return r.renderList(el, depth)

	case "blockquote":
		inner := strings.Join(r.renderBlocks(el.Children, depth), "\n\n")
		var b strings.Builder
		for i, line := range strings.Split(inner, "\n") {
			if i > 0 {
				b.WriteString("\n")
			}
			b.WriteString("│ " + line)
		}
		return b.String()

	case "hr":
		return strings.Repeat("─", min(r.Width, 40))

	case "table":
		return r.renderTable(el)
	}

	return r.wrap(strings.TrimSpace(r.renderInline(el.Children)))
}

// renderCodeBlock paints a <pre><code class="language-x"> block with
// syntax highlighting, cached by language and content.
func (r *Renderer) renderCodeBlock(pre node.Element) string {
	lang, code := codeBlockParts(pre)

	key := "code:" + lang + ":" + code
	if cached, ok := r.Cache.Get(key); ok {
		return cached
	}

	highlighted := NewHighlighter(lang).Highlight(strings.TrimRight(code, "\n"))
	var b strings.Builder
	for i, line := range strings.Split(highlighted, "\n") {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  " + line)
	}
	out := b.String()
	r.Cache.Put(key, out)
	return out
}

// codeBlockParts digs the language tag and text out of a pre element.
func codeBlockParts(pre node.Element) (lang, code string) {
	for _, c := range pre.Children {
		if el, ok := c.(node.Element); ok && el.Tag == "code" {
			if class := el.Attrs["class"]; strings.HasPrefix(class, "language-") {
				lang = strings.TrimPrefix(class, "language-")
			}
			code = textContent(el.Children)
			return lang, code
		}
	}
	return "", textContent(pre.Children)
}

func textContent(nodes []node.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch v := n.(type) {
		case node.Text:
			b.WriteString(v.Value)
		case node.Element:
			b.WriteString(textContent(v.Children))
		}
	}
	return b.String()
}

func (r *Renderer) renderList(el node.Element, depth int) string {
	ordered := el.Tag == "ol"
	indent := strings.Repeat("  ", depth)
	var items []string
	num := 0
	for _, c := range el.Children {
		li, ok := c.(node.Element)
		if !ok || li.Tag != "li" {
			continue
		}
		num++
		marker := "• "
		if ordered {
			marker = strconv.Itoa(num) + ". "
		}
		body := strings.Join(r.renderBlocks(li.Children, depth+1), "\n")
		items = append(items, indent+marker+body)
	}
	return strings.Join(items, "\n")
}

func (r *Renderer) renderTable(el node.Element) string {
	var rows []string
	var walk func(nodes []node.Node)
	walk = func(nodes []node.Node) {
		for _, n := range nodes {
			tr, ok := n.(node.Element)
			if !ok {
				continue
			}
			switch tr.Tag {
			case "thead", "tbody":
				walk(tr.Children)
			case "tr":
				var cells []string
				for _, c := range tr.Children {
					if td, ok := c.(node.Element); ok && (td.Tag == "td" || td.Tag == "th") {
						cells = append(cells, strings.TrimSpace(r.renderInline(td.Children)))
					}
				}
				rows = append(rows, strings.Join(cells, " │ "))
			}
		}
	}
	walk(el.Children)
	return strings.Join(rows, "\n")
}

// renderInline flattens inline nodes to styled text.
func (r *Renderer) renderInline(nodes []node.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		switch v := n.(type) {
		case node.Text:
			b.WriteString(v.Value)
		case node.Math:
			b.WriteString(r.Theme.mathStyle().Render(v.Markup))
		case node.Citation:
			b.WriteString(r.renderCitation(v))
		case node.SemanticCitation:
			b.WriteString(r.renderSemantic(v))
		case node.Element:
			b.WriteString(r.renderInlineElement(v))
		case node.Reasoning:
			b.WriteString("\n" + r.renderReasoning(v) + "\n")
		case node.Widget:
			b.WriteString("\n" + r.renderWidget(v) + "\n")
		}
	}
	return b.String()
}

func (r *Renderer) renderInlineElement(el node.Element) string {
	inner := r.renderInline(el.Children)
	switch el.Tag {
	case "strong", "b":
		return r.Theme.boldStyle().Render(inner)
	case "em", "i":
		return r.Theme.italicStyle().Render(inner)
	case "del", "s", "strike":
		return r.Theme.strikeStyle().Render(inner)
	case "code":
		return r.Theme.inlineCodeStyle().Render(inner)
	case "a":
		href := el.Attrs["href"]
		if href != "" && href != inner {
			return inner + " " + r.Theme.linkHrefStyle().Render("("+href+")")
		}
		return inner
	case "br":
		return "\n"
	}
	return inner
}

func (r *Renderer) renderCitation(c node.Citation) string {
	badge := r.Theme.badgeStyle().Render("[" + strconv.Itoa(c.RefNumber) + "]")
	return badge
}

var semanticGlyphs = map[node.SemanticKind]string{
	node.SemanticMemory:   "✦",
	node.SemanticPinned:   "★",
	node.SemanticDocument: "❏",
}

func (r *Renderer) renderSemantic(c node.SemanticCitation) string {
	glyph := semanticGlyphs[c.Kind]
	return r.Theme.semanticBadgeStyle().Render("[" + glyph + " " + c.Label + "]")
}

func (r *Renderer) renderReasoning(v node.Reasoning) string {
	key := "think:" + v.Content
	if !v.Incomplete {
		if cached, ok := r.Cache.Get(key); ok {
			return cached
		}
	}

	titleStyle := r.Theme.widgetTitleStyle()
	title := "Thinking"
	if v.Incomplete {
		title = "Thinking…"
		titleStyle = r.Theme.incompleteTitleStyle()
	}
	header := titleStyle.Render(title)
	body := wordwrap.String(v.Content, max(r.Width-4, 20))
	out := r.Theme.reasoningStyle().Render(header + "\n" + body)

	if !v.Incomplete {
		r.Cache.Put(key, out)
	}
	return out
}

func (r *Renderer) renderWidget(v node.Widget) string {
	key := "widget:" + string(v.Type) + ":" + v.Code
	if cached, ok := r.Cache.Get(key); ok {
		return cached
	}

	title := widgetTitle(v.Type)
	if v.Language != "" {
		title += " (" + v.Language + ")"
	}

	highlighted := NewHighlighter(widgetLexer(v.Type)).Highlight(v.Code)
	inner := r.Theme.widgetTitleStyle().Render(title) + "\n" +
		strings.Repeat("─", runewidth.StringWidth(title)) + "\n" +
		highlighted
	out := r.Theme.widgetFrameStyle().Render(inner)

	r.Cache.Put(key, out)
	return out
}

func widgetTitle(t node.WidgetType) string {
	switch t {
	case node.WidgetABC:
		return "Music notation"
	case node.WidgetSVG:
		return "Vector graphic"
	case node.WidgetDiagram:
		return "Diagram"
	case node.WidgetChart:
		return "Chart"
	}
	return "Widget"
}

// widgetLexer maps widget types to chroma lexer names for source view.
func widgetLexer(t node.WidgetType) string {
	switch t {
	case node.WidgetSVG:
		return "xml"
	case node.WidgetDiagram:
		return "mermaid"
	case node.WidgetChart:
		return "json"
	}
	return ""
}

func (r *Renderer) wrap(s string) string {
	return wordwrap.String(s, r.Width)
}
