package term

import (
	"regexp"
	"strings"
	"testing"

	"chatmark/internal/node"
)

// Styled output may or may not carry ANSI sequences depending on the
// terminal profile, so assertions strip them and target plain text.

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func plain(s string) string { return ansiRe.ReplaceAllString(s, "") }

func TestRenderParagraph(t *testing.T) {
	r := NewRenderer(40)
	out := r.Render([]node.Node{
		node.Element{Tag: "p", Children: []node.Node{node.Text{Value: "hello world"}}},
	})
	if !strings.Contains(out, "hello world") {
		t.Errorf("out = %q", out)
	}
}

func TestRenderHeading(t *testing.T) {
	r := NewRenderer(40)
	out := r.Render([]node.Node{
		node.Element{Tag: "h2", Children: []node.Node{node.Text{Value: "Title"}}},
	})
	if !strings.Contains(out, "## Title") {
		t.Errorf("out = %q", out)
	}
}

func TestRenderCitationBadge(t *testing.T) {
	r := NewRenderer(40)
	out := r.Render([]node.Node{
		node.Element{Tag: "p", Children: []node.Node{
			node.Text{Value: "see "},
			node.Citation{RefNumber: 3, Source: &node.Source{Name: "Paper"}},
		}},
	})
	if !strings.Contains(out, "[3]") {
		t.Errorf("out = %q", out)
	}
}

func TestRenderSemanticBadge(t *testing.T) {
	r := NewRenderer(40)
	out := r.Render([]node.Node{
		node.Element{Tag: "p", Children: []node.Node{
			node.SemanticCitation{Kind: node.SemanticMemory, Label: "Memory"},
		}},
	})
	if !strings.Contains(out, "Memory") {
		t.Errorf("out = %q", out)
	}
}

func TestRenderReasoningTitles(t *testing.T) {
	r := NewRenderer(40)

	out := r.Render([]node.Node{node.Reasoning{Content: "hmm", Incomplete: true}})
	if !strings.Contains(out, "Thinking…") || !strings.Contains(out, "hmm") {
		t.Errorf("incomplete out = %q", out)
	}

	out = r.Render([]node.Node{node.Reasoning{Content: "done"}})
	if !strings.Contains(out, "Thinking") || strings.Contains(out, "Thinking…") {
		t.Errorf("complete out = %q", out)
	}
}

func TestRenderWidgetFrame(t *testing.T) {
	r := NewRenderer(60)
	out := plain(r.Render([]node.Node{
		node.Widget{Code: "graph TD;", Type: node.WidgetDiagram, Language: "mermaid"},
	}))
	if !strings.Contains(out, "Diagram (mermaid)") {
		t.Errorf("title missing: %q", out)
	}
	if !strings.Contains(out, "graph TD;") {
		t.Errorf("code missing: %q", out)
	}
}

func TestRenderCodeBlock(t *testing.T) {
	r := NewRenderer(60)
	pre := node.Element{Tag: "pre", Children: []node.Node{
		node.Element{
			Tag:   "code",
			Attrs: map[string]string{"class": "language-go"},
			Children: []node.Node{
				node.Text{Value: "fmt.Println(1)\n"},
			},
		},
	}}

	out := plain(r.Render([]node.Node{pre}))
	if !strings.Contains(out, "fmt.Println(1)") {
		t.Errorf("out = %q", out)
	}
	if r.Cache.Len() != 1 {
		t.Errorf("cache len = %d", r.Cache.Len())
	}

	// Re-rendering the same block must hit the cache, not grow it.
	r.Render([]node.Node{pre})
	if r.Cache.Len() != 1 {
		t.Errorf("cache grew to %d", r.Cache.Len())
	}
}

func TestIncompleteReasoningNotCached(t *testing.T) {
	r := NewRenderer(40)
	r.Render([]node.Node{node.Reasoning{Content: "streaming", Incomplete: true}})
	if r.Cache.Len() != 0 {
		t.Errorf("incomplete reasoning cached, len = %d", r.Cache.Len())
	}
	r.Render([]node.Node{node.Reasoning{Content: "streaming"}})
	if r.Cache.Len() != 1 {
		t.Errorf("complete reasoning not cached, len = %d", r.Cache.Len())
	}
}

func TestRenderLists(t *testing.T) {
	r := NewRenderer(60)
	li := func(s string) node.Node {
		return node.Element{Tag: "li", Children: []node.Node{node.Text{Value: s}}}
	}

	out := r.Render([]node.Node{node.Element{Tag: "ul", Children: []node.Node{li("one"), li("two")}}})
	if !strings.Contains(out, "• one") || !strings.Contains(out, "• two") {
		t.Errorf("ul out = %q", out)
	}

	out = r.Render([]node.Node{node.Element{Tag: "ol", Children: []node.Node{li("first"), li("second")}}})
	if !strings.Contains(out, "1. first") || !strings.Contains(out, "2. second") {
		t.Errorf("ol out = %q", out)
	}
}

func TestRenderBlockquote(t *testing.T) {
	r := NewRenderer(60)
	out := r.Render([]node.Node{
		node.Element{Tag: "blockquote", Children: []node.Node{
			node.Element{Tag: "p", Children: []node.Node{node.Text{Value: "quoted"}}},
		}},
	})
	if !strings.Contains(out, "│ quoted") {
		t.Errorf("out = %q", out)
	}
}

func TestRenderTableRows(t *testing.T) {
	r := NewRenderer(60)
	cell := func(tag, s string) node.Node {
		return node.Element{Tag: tag, Children: []node.Node{node.Text{Value: s}}}
	}
	out := r.Render([]node.Node{
		node.Element{Tag: "table", Children: []node.Node{
			node.Element{Tag: "thead", Children: []node.Node{
				node.Element{Tag: "tr", Children: []node.Node{cell("th", "A"), cell("th", "B")}},
			}},
			node.Element{Tag: "tbody", Children: []node.Node{
				node.Element{Tag: "tr", Children: []node.Node{cell("td", "1"), cell("td", "2")}},
			}},
		}},
	})
	if !strings.Contains(out, "A │ B") || !strings.Contains(out, "1 │ 2") {
		t.Errorf("out = %q", out)
	}
}

func TestRenderLinkShowsHref(t *testing.T) {
	r := NewRenderer(80)
	out := r.Render([]node.Node{
		node.Element{Tag: "p", Children: []node.Node{
			node.Element{
				Tag:      "a",
				Attrs:    map[string]string{"href": "https://example.com"},
				Children: []node.Node{node.Text{Value: "docs"}},
			},
		}},
	})
	if !strings.Contains(out, "docs") || !strings.Contains(out, "https://example.com") {
		t.Errorf("out = %q", out)
	}
}

func TestWrapWidth(t *testing.T) {
	r := NewRenderer(20)
	out := r.Render([]node.Node{
		node.Element{Tag: "p", Children: []node.Node{
			node.Text{Value: "alpha beta gamma delta epsilon zeta"},
		}},
	})
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 20 {
			t.Errorf("line too wide: %q", line)
		}
	}
}
