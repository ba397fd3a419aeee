package term

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// Highlighter applies syntax highlighting to code block text.
type Highlighter struct {
	lexer chroma.Lexer
	style *chroma.Style
}

// NewHighlighter creates a highlighter for the given language tag.
// Returns nil if the language is not recognized; callers treat a nil
// highlighter as a passthrough.
func NewHighlighter(language string) *Highlighter {
	if language == "" {
		return nil
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	// Monokai - good contrast on dark backgrounds
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	return &Highlighter{lexer: lexer, style: style}
}

// Highlight returns code with ANSI foreground styling applied. Lines
// are tokenized independently so a lexer error on one line never
// poisons the rest of the block.
func (h *Highlighter) Highlight(code string) string {
	if h == nil {
		return code
	}

	lines := strings.Split(code, "\n")
	for i, line := range lines {
		lines[i] = h.highlightLine(line)
	}
	return strings.Join(lines, "\n")
}

func (h *Highlighter) highlightLine(line string) string {
	iterator, err := h.lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}

	var buf strings.Builder
	if err := formatTokens(&buf, h.style, iterator); err != nil {
		return line
	}
	return buf.String()
}

// formatTokens writes tokens with foreground-only ANSI styling.
func formatTokens(w io.Writer, style *chroma.Style, iterator chroma.Iterator) error {
	for token := iterator(); token != chroma.EOF; token = iterator() {
		value := strings.TrimRight(token.Value, "\n")
		if value == "" {
			continue
		}

		entry := style.Get(token.Type)

		var codes []string
		if entry.Colour.IsSet() {
			codes = append(codes, fmt.Sprintf("38;2;%d;%d;%d", entry.Colour.Red(), entry.Colour.Green(), entry.Colour.Blue()))
		}
		if entry.Bold == chroma.Yes {
			codes = append(codes, "1")
		}
		if entry.Italic == chroma.Yes {
			codes = append(codes, "3")
		}
		if entry.Underline == chroma.Yes {
			codes = append(codes, "4")
		}

		if len(codes) > 0 {
			fmt.Fprintf(w, "\x1b[%sm%s\x1b[0m", strings.Join(codes, ";"), value)
		} else {
			fmt.Fprint(w, value)
		}
	}
	return nil
}
