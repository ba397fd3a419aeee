package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"chatmark/internal/node"
)

func testMath(expr string, display bool) (string, error) {
	return fmt.Sprintf("⟨%s⟩", expr), nil
}

func run(t *testing.T, content string, sources []node.Source) Result {
	t.Helper()
	return New(testMath).Run(content, sources)
}

func walk(nodes []node.Node, fn func(node.Node)) {
	for _, n := range nodes {
		fn(n)
		if el, ok := n.(node.Element); ok {
			walk(el.Children, fn)
		}
	}
}

func collect[T node.Node](nodes []node.Node) []T {
	var out []T
	walk(nodes, func(n node.Node) {
		if v, ok := n.(T); ok {
			out = append(out, v)
		}
	})
	return out
}

// Two non-streaming runs over the same inputs produce structurally
// identical trees.
func TestIdempotence(t *testing.T) {
	content := "# Hi\n\n<think>why</think>\n\nmath $$a$$ and [1] end\n"
	sources := []node.Source{{ID: "s", Name: "S"}}

	p := New(testMath)
	a := p.Run(content, sources)
	b := p.Run(content, sources)

	if !reflect.DeepEqual(a.Sources, b.Sources) {
		t.Errorf("sources differ")
	}
	// Placeholder ids never appear in output nodes, so trees from
	// identical inputs must be deeply equal.
	if !reflect.DeepEqual(a.Nodes, b.Nodes) {
		t.Errorf("trees differ:\n%#v\n%#v", a.Nodes, b.Nodes)
	}
}

// Plain prose takes the fast path: raw HTML out, no tree built.
func TestFastPath(t *testing.T) {
	res := run(t, "just some *plain* prose", nil)
	if !res.RawHTML {
		t.Fatal("expected fast path")
	}
	if !strings.Contains(res.HTML, "<em>plain</em>") {
		t.Errorf("html = %q", res.HTML)
	}
	if res.Nodes != nil {
		t.Errorf("fast path should not build nodes")
	}
}

func TestFastPathDisabledBySpecialBlocks(t *testing.T) {
	for _, content := range []string{
		"$$m$$",
		"<think>r</think>",
		"```mermaid\ngraph;\n```\n",
		"see [Memory]",
	} {
		if res := run(t, content, nil); res.RawHTML {
			t.Errorf("content %q should not take fast path", content)
		}
	}
}

func TestReasoningCompleteness(t *testing.T) {
	res := run(t, "<think>partial", nil)
	rs := collect[node.Reasoning](res.Nodes)
	if len(rs) != 1 {
		t.Fatalf("reasoning nodes = %d", len(rs))
	}
	if rs[0].Content != "partial" || !rs[0].Incomplete {
		t.Errorf("reasoning = %+v", rs[0])
	}

	res = run(t, "<think>done</think>", nil)
	rs = collect[node.Reasoning](res.Nodes)
	if len(rs) != 1 || rs[0].Incomplete {
		t.Fatalf("reasoning = %+v", rs)
	}
}

// A mermaid fence round-trips into exactly one diagram widget and no
// raw code element; an unrecognized fence stays a code element and
// yields no widget.
func TestSpecializedRoundTrip(t *testing.T) {
	res := run(t, "```mermaid\ngraph TD;\nA-->B;\n```\n", nil)
	widgets := collect[node.Widget](res.Nodes)
	if len(widgets) != 1 || widgets[0].Type != node.WidgetDiagram {
		t.Fatalf("widgets = %+v", widgets)
	}
	for _, el := range collect[node.Element](res.Nodes) {
		if el.Tag == "pre" || el.Tag == "code" {
			t.Errorf("raw code element leaked: %+v", el)
		}
	}

	res = run(t, "```ruby\nputs :k\n```\nand $$m$$\n", nil)
	if len(collect[node.Widget](res.Nodes)) != 0 {
		t.Error("unrecognized language must not widget-render")
	}
	foundPre := false
	for _, el := range collect[node.Element](res.Nodes) {
		if el.Tag == "pre" {
			foundPre = true
		}
	}
	if !foundPre {
		t.Error("regular code element missing")
	}
}

// No prefix of a document - including prefixes ending mid-fence -
// may panic or render beyond the supplied bytes.
func TestPrefixSafety(t *testing.T) {
	doc := "intro $$x$$\n\n<think>hm</think>\n\n```go\nfmt.Println(1)\n```\n\n```mermaid\ngraph;\n```\n\ntail [1]\n"
	p := New(testMath)
	sources := []node.Source{{ID: "s", Name: "S"}}

	for i := 0; i <= len(doc); i++ {
		prefix := doc[:i]
		res := p.Run(prefix, sources)
		if !res.RawHTML && res.Nodes == nil && strings.TrimSpace(prefix) != "" {
			t.Errorf("prefix %d produced no output", i)
		}
	}
}

func TestCitationsEndToEnd(t *testing.T) {
	sources := []node.Source{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	res := run(t, "See [2] and [Memory].", sources)

	cites := collect[node.Citation](res.Nodes)
	if len(cites) != 1 || cites[0].RefNumber != 2 || cites[0].Source.Name != "B" {
		t.Fatalf("citations = %+v", cites)
	}
	sems := collect[node.SemanticCitation](res.Nodes)
	if len(sems) != 1 || sems[0].Kind != node.SemanticMemory {
		t.Fatalf("semantic citations = %+v", sems)
	}
	if len(res.Sources) != 2 || res.Sources[0].RefNumber != 1 {
		t.Errorf("numbered sources = %+v", res.Sources)
	}
}

// An unknown citation number renders as its literal bracket text.
func TestUnknownCitationLiteral(t *testing.T) {
	sources := []node.Source{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}
	res := run(t, "[5]", sources)

	if len(collect[node.Citation](res.Nodes)) != 0 {
		t.Error("unknown number must not resolve")
	}
	var text strings.Builder
	walk(res.Nodes, func(n node.Node) {
		if tx, ok := n.(node.Text); ok {
			text.WriteString(tx.Value)
		}
	})
	if !strings.Contains(text.String(), "[5]") {
		t.Errorf("literal bracket text lost: %q", text.String())
	}
}

// An unterminated regular fence cuts the tail into literal text; the
// head still compiles.
func TestUnterminatedFenceLiteralTail(t *testing.T) {
	res := run(t, "# Head\n\n```go\nfmt.Println(", nil)
	if res.RawHTML {
		t.Fatal("literal tail cannot take fast path")
	}

	var text strings.Builder
	walk(res.Nodes, func(n node.Node) {
		if tx, ok := n.(node.Text); ok {
			text.WriteString(tx.Value)
		}
	})
	if !strings.Contains(text.String(), "```go") {
		t.Errorf("tail lost: %q", text.String())
	}
	foundHeading := false
	for _, el := range collect[node.Element](res.Nodes) {
		if el.Tag == "h1" {
			foundHeading = true
		}
	}
	if !foundHeading {
		t.Error("head markdown was not compiled")
	}
}

type failingCompiler struct{}

func (failingCompiler) Compile(string) (string, error) {
	return "", errors.New("total parser failure")
}

// Total compiler failure degrades to the raw content as literal text.
func TestCompilerFailureFallback(t *testing.T) {
	p := New(testMath, WithCompiler(failingCompiler{}))
	res := p.Run("line one\nline two", nil)

	var text strings.Builder
	brs := 0
	walk(res.Nodes, func(n node.Node) {
		switch v := n.(type) {
		case node.Text:
			text.WriteString(v.Value)
		case node.Element:
			if v.Tag == "br" {
				brs++
			}
		}
	})
	if !strings.Contains(text.String(), "line one") || !strings.Contains(text.String(), "line two") {
		t.Errorf("content lost: %q", text.String())
	}
	if brs != 1 {
		t.Errorf("line breaks = %d", brs)
	}
}

// With citations switched off, bracket tokens stay literal and
// supplied sources are ignored entirely.
func TestCitationsDisabled(t *testing.T) {
	sources := []node.Source{{ID: "a", Name: "A"}}
	p := New(testMath, WithCitations(false))

	// Plain prose with a semantic token now takes the fast path.
	res := p.Run("see [Memory]", sources)
	if !res.RawHTML {
		t.Error("expected fast path with citations disabled")
	}
	if len(res.Sources) != 0 {
		t.Errorf("sources = %+v", res.Sources)
	}

	// With a special block forcing tree construction, tokens stay
	// literal text.
	res = p.Run("$$m$$ cited [1] and [Memory]", sources)
	if len(collect[node.Citation](res.Nodes)) != 0 || len(collect[node.SemanticCitation](res.Nodes)) != 0 {
		t.Error("citation nodes built while disabled")
	}
	var text strings.Builder
	walk(res.Nodes, func(n node.Node) {
		if tx, ok := n.(node.Text); ok {
			text.WriteString(tx.Value)
		}
	})
	if !strings.Contains(text.String(), "[1]") || !strings.Contains(text.String(), "[Memory]") {
		t.Errorf("bracket text lost: %q", text.String())
	}
}

func TestLiteralNodes(t *testing.T) {
	nodes := LiteralNodes("a\n\nb")
	want := []node.Node{
		node.Text{Value: "a"},
		node.Element{Tag: "br"},
		node.Element{Tag: "br"},
		node.Text{Value: "b"},
	}
	if !reflect.DeepEqual(nodes, want) {
		t.Errorf("nodes = %#v", nodes)
	}
}
