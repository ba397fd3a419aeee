// Package compile configures the markdown compiler for chat content:
// GitHub-flavored extensions, hard line breaks (token streams treat a
// newline as a break), raw-HTML passthrough for placeholder markers,
// and math-aware overrides for code rendering.
package compile

import (
	"bytes"
	stdhtml "html"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// MathFunc turns a math expression into markup. display selects block
// vs inline layout. Errors make the caller fall back to plain code
// rendering; a bad expression must never blank the message.
type MathFunc func(expr string, display bool) (string, error)

// Compiler wraps a configured goldmark instance.
type Compiler struct {
	md goldmark.Markdown
}

// New builds a compiler. math may be nil, in which case the overrides
// always fall back to standard code rendering.
func New(math MathFunc) *Compiler {
	return &Compiler{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				html.WithHardWraps(),
				html.WithUnsafe(),
				renderer.WithNodeRenderers(
					util.Prioritized(&mathRenderer{math: math}, 100),
				),
			),
		),
	}
}

// Compile turns markdown into an HTML string.
func (c *Compiler) Compile(text string) (string, error) {
	var buf bytes.Buffer
	if err := c.md.Convert([]byte(text), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// mathRenderer overrides fenced code blocks and code spans.
//
// A fenced block with no language tag whose trimmed body is a complete
// $$...$$ span renders as display math. A code span whose content has
// the $...$ shape (produced by the extractor's inline-math rewrite)
// renders as inline math. Both fail open: when math rendering errors,
// the default code rendering is emitted instead.
type mathRenderer struct {
	math MathFunc
}

func (r *mathRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCode)
	reg.Register(ast.KindCodeSpan, r.renderCodeSpan)
}

// renderFencedCode writes the whole element on entering so the exit
// call needs no state about which branch was taken.
func (r *mathRenderer) renderFencedCode(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	cb := n.(*ast.FencedCodeBlock)

	var body strings.Builder
	lines := cb.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		body.Write(line.Value(source))
	}

	lang := cb.Language(source)
	if lang == nil && r.math != nil {
		trimmed := strings.TrimSpace(body.String())
		if inner, ok := displayMathBody(trimmed); ok {
			if markup, err := r.math(inner, true); err == nil {
				_, _ = w.WriteString(markup)
				_, _ = w.WriteString("\n")
				return ast.WalkContinue, nil
			}
		}
	}

	_, _ = w.WriteString("<pre><code")
	if lang != nil {
		_, _ = w.WriteString(` class="language-` + stdhtml.EscapeString(string(lang)) + `"`)
	}
	_, _ = w.WriteString(">")
	_, _ = w.WriteString(stdhtml.EscapeString(body.String()))
	_, _ = w.WriteString("</code></pre>\n")
	return ast.WalkContinue, nil
}

func (r *mathRenderer) renderCodeSpan(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}

	var body strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			body.Write(t.Segment.Value(source))
		}
	}
	// Code spans collapse internal newlines to spaces.
	content := strings.ReplaceAll(body.String(), "\n", " ")

	if r.math != nil {
		if inner, ok := inlineMathBody(content); ok {
			if markup, err := r.math(inner, false); err == nil {
				_, _ = w.WriteString(markup)
				return ast.WalkSkipChildren, nil
			}
		}
	}

	_, _ = w.WriteString("<code>")
	_, _ = w.WriteString(stdhtml.EscapeString(content))
	_, _ = w.WriteString("</code>")
	return ast.WalkSkipChildren, nil
}

// displayMathBody reports whether s is exactly one $$...$$ span and
// returns the inner expression.
func displayMathBody(s string) (string, bool) {
	if len(s) < 5 || !strings.HasPrefix(s, "$$") || !strings.HasSuffix(s, "$$") {
		return "", false
	}
	inner := s[2 : len(s)-2]
	// A second $$ inside means this is not a single balanced span.
	if strings.Contains(inner, "$$") {
		return "", false
	}
	return strings.TrimSpace(inner), true
}

// inlineMathBody reports whether s has the $...$ inline-math escape
// shape and returns the inner expression.
func inlineMathBody(s string) (string, bool) {
	if len(s) < 3 || s[0] != '$' || s[len(s)-1] != '$' {
		return "", false
	}
	inner := s[1 : len(s)-1]
	if strings.ContainsAny(inner, "$\n") || strings.TrimSpace(inner) == "" {
		return "", false
	}
	return inner, true
}
