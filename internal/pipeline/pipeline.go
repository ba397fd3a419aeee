// Package pipeline composes extraction, markdown compilation, tree
// building and citation resolution into one render pass. A pass is a
// pure function of (content, sources); no state survives between
// passes. All failures are contained here: the host always receives a
// best-effort tree, never an error it must handle.
package pipeline

import (
	"strings"

	"chatmark/internal/citation"
	"chatmark/internal/compile"
	"chatmark/internal/debuglog"
	"chatmark/internal/extract"
	"chatmark/internal/node"
	"chatmark/internal/tree"
)

// Compiler is the markdown compiler collaborator.
type Compiler interface {
	Compile(text string) (string, error)
}

// Result is one render pass output. When RawHTML is set the content
// had no special blocks and no active citations; the host may paint
// HTML directly and skip the node tree (the common plain-prose case).
type Result struct {
	Nodes   []node.Node
	HTML    string
	RawHTML bool

	// Sources is the supplied source list with reference numbers
	// assigned; empty when citation handling was inactive.
	Sources []node.Source
}

// Pipeline runs render passes. Safe for reuse across cycles; it holds
// only configuration.
type Pipeline struct {
	compiler  Compiler
	math      compile.MathFunc
	log       *debuglog.Logger
	citations bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithCompiler replaces the default goldmark compiler.
func WithCompiler(c Compiler) Option {
	return func(p *Pipeline) { p.compiler = c }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *debuglog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithCitations toggles citation handling. When disabled, bracket
// tokens stay literal text and supplied sources are ignored.
func WithCitations(enabled bool) Option {
	return func(p *Pipeline) { p.citations = enabled }
}

// New creates a pipeline. math may be nil; math regions then degrade
// to literal source text.
func New(math compile.MathFunc, opts ...Option) *Pipeline {
	p := &Pipeline{math: math, log: debuglog.Default(), citations: true}
	for _, o := range opts {
		o(p)
	}
	if p.compiler == nil {
		p.compiler = compile.New(math)
	}
	return p
}

// Run performs one render pass over content.
func (p *Pipeline) Run(content string, sources []node.Source) (res Result) {
	// Total parser failure must not blank the conversation: fall back
	// to the raw content as literal text with line breaks.
	defer func() {
		if r := recover(); r != nil {
			p.log.Event("pipeline_panic", map[string]any{"panic": r})
			res = Result{Nodes: LiteralNodes(content)}
		}
	}()

	if !p.citations {
		sources = nil
	}

	ex := extract.Extract(content)

	html, err := p.compiler.Compile(ex.Text)
	if err != nil {
		p.log.Event("compile_error", map[string]any{"error": err.Error()})
		return Result{Nodes: LiteralNodes(content)}
	}

	active := p.citations && citation.Active(html, sources)

	if !ex.HasSpecial() && !active && ex.LiteralTail == "" {
		return Result{HTML: html, RawHTML: true}
	}

	numbered := citation.AssignRefNumbers(sources)

	b := &tree.Builder{
		Blocks:    ex,
		Sources:   numbered,
		Citations: active,
		Math:      p.math,
		Log:       p.log,
	}
	nodes, err := b.Build(html)
	if err != nil {
		p.log.Event("parse_error", map[string]any{"error": err.Error()})
		return Result{Nodes: LiteralNodes(content), Sources: numbered}
	}

	if ex.LiteralTail != "" {
		nodes = append(nodes, LiteralNodes(ex.LiteralTail)...)
	}

	return Result{Nodes: nodes, Sources: numbered}
}

// CitedSources returns the numbered sources actually referenced in
// content, using the same numbering as Run. Content citing nothing
// yields nil even when sources were supplied.
func CitedSources(content string, sources []node.Source) []node.Source {
	return citation.FilterCited(sources, content)
}

// LiteralNodes renders text verbatim: text spans with explicit line
// breaks, no markdown interpretation.
func LiteralNodes(text string) []node.Node {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	out := make([]node.Node, 0, len(lines)*2)
	for i, line := range lines {
		if i > 0 {
			out = append(out, node.Element{Tag: "br"})
		}
		if line != "" {
			out = append(out, node.Text{Value: line})
		}
	}
	return out
}
