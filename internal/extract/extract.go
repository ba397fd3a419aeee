// Package extract scans raw chat markdown and pulls out the regions
// that the markdown compiler must not see: display math, hidden
// reasoning tags and specialized code fences. Each extracted region is
// replaced with an opaque placeholder element that survives
// compilation and is substituted back by the tree builder.
//
// The passes run in a fixed order (display math, inline math,
// reasoning, fenced code); each operates on the output of the previous
// one so later passes cannot corrupt earlier placeholders.
package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"chatmark/internal/node"
)

// MathBlock is an extracted $$...$$ region.
type MathBlock struct {
	ID    string
	Latex string
}

// ReasoningBlock is an extracted <think>...</think> region.
// Incomplete marks a trailing open tag with no closer yet.
type ReasoningBlock struct {
	ID         string
	Content    string
	Incomplete bool
}

// CodeBlock is an extracted specialized fenced code block. Regular
// code blocks are left in the text for the compiler and never appear
// here.
type CodeBlock struct {
	ID       string
	Code     string
	Language string
	Type     node.WidgetType
}

// Result is the output of one extraction run: the rewritten text plus
// side tables for every placeholder inserted into it. Every
// placeholder id resolves to exactly one side-table entry and vice
// versa.
type Result struct {
	Text      string
	Math      []MathBlock
	Reasoning []ReasoningBlock
	Code      []CodeBlock

	// LiteralTail is the trailing portion of the input cut off by an
	// unterminated, non-specialized code fence. It must be rendered as
	// literal text with line breaks, not compiled as markdown.
	LiteralTail string

	byID map[string]any
}

// HasSpecial reports whether any placeholder was inserted. When false
// (and citations are inactive) the pipeline can skip tree construction
// entirely.
func (r *Result) HasSpecial() bool {
	return len(r.Math) > 0 || len(r.Reasoning) > 0 || len(r.Code) > 0
}

// Lookup resolves a placeholder id to its side-table entry:
// *MathBlock, *ReasoningBlock or *CodeBlock. Returns nil for unknown
// ids.
func (r *Result) Lookup(id string) any {
	return r.byID[id]
}

// PlaceholderAttr is the marker attribute carried by placeholder
// elements through the markdown compiler.
const PlaceholderAttr = "data-chatmark-block"

var (
	displayMathRe = regexp.MustCompile(`(?s)\$\$(.+?)\$\$`)
	inlineMathRe  = regexp.MustCompile(`\$([^$\n]+?)\$`)
	thinkRe       = regexp.MustCompile(`(?s)<think>(.*?)</think>`)
)

const thinkOpen = "<think>"

// Extract runs all passes over text and returns the rewritten text
// plus side tables. It never fails: malformed or unterminated syntax
// is left literal or surfaced as an incomplete block.
func Extract(text string) *Result {
	r := &Result{byID: make(map[string]any)}

	text = r.extractDisplayMath(text)
	text = rewriteInlineMath(text)
	text = r.extractReasoning(text)
	text = r.extractFences(text)

	r.Text = text
	return r
}

func placeholder(id string) string {
	return fmt.Sprintf(`<span %s=%q></span>`, PlaceholderAttr, id)
}

func newID() string {
	return uuid.NewString()
}

// extractDisplayMath replaces every balanced $$...$$ region with a
// placeholder. An unterminated trailing $$ is left as literal text;
// it stays inert until the closing delimiter arrives.
func (r *Result) extractDisplayMath(text string) string {
	return displayMathRe.ReplaceAllStringFunc(text, func(m string) string {
		latex := strings.TrimSpace(m[2 : len(m)-2])
		id := newID()
		b := MathBlock{ID: id, Latex: latex}
		r.Math = append(r.Math, b)
		r.byID[id] = &r.Math[len(r.Math)-1]
		return placeholder(id)
	})
}

// rewriteInlineMath wraps single-$ spans in backticks so the compiler
// treats them as literal code spans. The compiler's code-span override
// recognizes the $...$ shape and re-expands it into inline math.
// Substituting markup directly here would fight the compiler's own
// code-span escaping, hence the indirection.
func rewriteInlineMath(text string) string {
	return inlineMathRe.ReplaceAllStringFunc(text, func(m string) string {
		// A backtick inside the span would break the code-span form.
		if strings.Contains(m, "`") {
			return m
		}
		return "`" + m + "`"
	})
}

// extractReasoning replaces complete <think>...</think> regions with
// placeholders, then turns a trailing unterminated <think> into one
// additional incomplete block covering the remainder of the text.
func (r *Result) extractReasoning(text string) string {
	text = thinkRe.ReplaceAllStringFunc(text, func(m string) string {
		content := strings.TrimSpace(m[len(thinkOpen) : len(m)-len("</think>")])
		id := newID()
		b := ReasoningBlock{ID: id, Content: content}
		r.Reasoning = append(r.Reasoning, b)
		r.byID[id] = &r.Reasoning[len(r.Reasoning)-1]
		return placeholder(id)
	})

	if i := strings.Index(text, thinkOpen); i != -1 {
		content := strings.TrimSpace(text[i+len(thinkOpen):])
		id := newID()
		b := ReasoningBlock{ID: id, Content: content, Incomplete: true}
		r.Reasoning = append(r.Reasoning, b)
		r.byID[id] = &r.Reasoning[len(r.Reasoning)-1]
		text = text[:i] + placeholder(id)
	}
	return text
}

// extractFences scans fence markers line by line. Complete specialized
// blocks become placeholders; complete regular blocks stay in the text
// for standard code rendering. An unterminated trailing fence either
// becomes a progressive placeholder (when it classifies as
// specialized) or is cut off into LiteralTail so the compiler never
// sees an open fence that would swallow everything after it.
func (r *Result) extractFences(text string) string {
	lines := splitLines(text)

	var out []string
	openAt := -1 // index into lines of the current open fence
	openLang := ""

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if openAt == -1 {
			if lang, ok := fenceOpen(line); ok {
				openAt = i
				openLang = lang
				continue
			}
			out = append(out, line)
			continue
		}

		if !fenceClose(line) {
			continue
		}

		// Complete block: lines[openAt+1 : i] is the body.
		code := joinCode(lines[openAt+1 : i])
		if wt := Classify(code, openLang); wt != "" {
			out = append(out, r.codePlaceholder(code, openLang, wt)+"\n")
		} else {
			out = append(out, lines[openAt:i+1]...)
		}
		openAt = -1
		openLang = ""
	}

	if openAt != -1 {
		// Unterminated fence at end of stream.
		code := joinCode(lines[openAt+1:])
		if wt := Classify(code, openLang); wt != "" {
			// Specialized widgets render progressively on partial source.
			out = append(out, r.codePlaceholder(code, openLang, wt)+"\n")
		} else {
			r.LiteralTail = strings.Join(lines[openAt:], "")
		}
	}

	return strings.Join(out, "")
}

func (r *Result) codePlaceholder(code, lang string, wt node.WidgetType) string {
	id := newID()
	b := CodeBlock{ID: id, Code: code, Language: lang, Type: wt}
	r.Code = append(r.Code, b)
	r.byID[id] = &r.Code[len(r.Code)-1]
	return placeholder(id)
}

// splitLines splits text into lines, each retaining its trailing
// newline (the final line may lack one).
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// joinCode joins body lines into the code text, dropping the final
// newline so the widget sees exactly what was typed between fences.
func joinCode(lines []string) string {
	code := strings.Join(lines, "")
	return strings.TrimSuffix(code, "\n")
}

// fenceOpen reports whether line opens a backtick fence and returns
// the language tag (first word of the info string, lowercased).
func fenceOpen(line string) (lang string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(trimmed, "```") {
		return "", false
	}
	info := strings.TrimLeft(trimmed, "`")
	info = strings.TrimSpace(info)
	if info == "" {
		return "", true
	}
	fields := strings.Fields(info)
	return strings.ToLower(fields[0]), true
}

// fenceClose reports whether line is a bare closing fence.
func fenceClose(line string) bool {
	trimmed := strings.TrimSpace(line)
	if len(trimmed) < 3 {
		return false
	}
	for _, c := range trimmed {
		if c != '`' {
			return false
		}
	}
	return true
}
