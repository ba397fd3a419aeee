package term

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/net/html"
)

// RenderHTML paints compiled HTML directly, used for the pipeline's
// fast path (plain prose, no special blocks, no citations). It walks
// the token stream and maps the compiler's tag vocabulary onto the
// theme's inline styles; unknown tags are dropped, their text kept.
func (r *Renderer) RenderHTML(src string) string {
	width := r.Width
	if width <= 0 {
		width = 80
	}
	z := html.NewTokenizer(strings.NewReader(src))

	var sb strings.Builder
	type listState struct {
		ordered bool
		counter int
	}
	var listStack []listState

	// Inline styling accumulates text in span and flushes it with the
	// composed style whenever a style boundary or block tag arrives.
	var span strings.Builder
	var st struct {
		bold, italic, strike, code, heading int
	}
	inPre := false

	flush := func() {
		text := span.String()
		span.Reset()
		if text == "" {
			return
		}
		style := lipgloss.NewStyle()
		styled := false
		if st.bold > 0 || st.heading > 0 {
			style = style.Bold(true)
			styled = true
		}
		if st.italic > 0 {
			style = style.Italic(true)
			styled = true
		}
		if st.strike > 0 {
			style = style.Strikethrough(true)
			styled = true
		}
		if st.code > 0 {
			style = style.Foreground(r.Theme.Warning)
			styled = true
		}
		if styled {
			sb.WriteString(style.Render(text))
		} else {
			sb.WriteString(text)
		}
	}

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		tok := z.Token()

		switch tt {
		case html.TextToken:
			span.WriteString(tok.Data)

		case html.StartTagToken, html.SelfClosingTagToken:
			switch tok.Data {
			case "b", "strong":
				flush()
				st.bold++
			case "i", "em":
				flush()
				st.italic++
			case "s", "strike", "del":
				flush()
				st.strike++
			case "code":
				if !inPre {
					flush()
					st.code++
				}
			case "pre":
				flush()
				inPre = true
			case "blockquote":
				flush()
				sb.WriteString("\n│ ")
			case "br":
				flush()
				sb.WriteString("\n")
			case "ul":
				flush()
				listStack = append(listStack, listState{ordered: false})
			case "ol":
				flush()
				listStack = append(listStack, listState{ordered: true})
			case "li":
				flush()
				if len(listStack) > 0 {
					top := &listStack[len(listStack)-1]
					if top.ordered {
						top.counter++
						fmt.Fprintf(&sb, "\n%d. ", top.counter)
					} else {
						sb.WriteString("\n• ")
					}
				} else {
					sb.WriteString("\n• ")
				}
			case "h1", "h2", "h3", "h4", "h5", "h6":
				flush()
				sb.WriteString("\n")
				st.heading++
			case "hr":
				flush()
				sb.WriteString("\n" + strings.Repeat("─", min(width, 40)) + "\n")
			}

		case html.EndTagToken:
			switch tok.Data {
			case "b", "strong":
				flush()
				if st.bold > 0 {
					st.bold--
				}
			case "i", "em":
				flush()
				if st.italic > 0 {
					st.italic--
				}
			case "s", "strike", "del":
				flush()
				if st.strike > 0 {
					st.strike--
				}
			case "code":
				if !inPre {
					flush()
					if st.code > 0 {
						st.code--
					}
				}
			case "pre":
				flush()
				inPre = false
				sb.WriteString("\n")
			case "blockquote":
				flush()
				sb.WriteString("\n")
			case "p":
				flush()
				sb.WriteString("\n\n")
			case "ul", "ol":
				flush()
				if len(listStack) > 0 {
					listStack = listStack[:len(listStack)-1]
				}
				sb.WriteString("\n")
			case "h1", "h2", "h3", "h4", "h5", "h6":
				flush()
				if st.heading > 0 {
					st.heading--
				}
				sb.WriteString("\n\n")
			}
		}
	}
	flush()

	result := strings.TrimSpace(sb.String())
	for strings.Contains(result, "\n\n\n") {
		result = strings.ReplaceAll(result, "\n\n\n", "\n\n")
	}
	return wordwrap.String(result, width)
}
