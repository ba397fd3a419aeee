package extract

import (
	"strings"

	"chatmark/internal/node"
)

// Classify decides whether a code block should be rendered by a
// specialized widget. A recognized language tag is authoritative; any
// other explicit tag means regular code. Only untagged blocks are
// content-sniffed, and sniffing is conservative: when in doubt the
// block stays regular code, which always degrades gracefully to a
// source view.
func Classify(code, language string) node.WidgetType {
	lang := strings.ToLower(strings.TrimSpace(language))
	switch lang {
	case "abc":
		return node.WidgetABC
	case "svg":
		return node.WidgetSVG
	case "mermaid", "diagram":
		return node.WidgetDiagram
	case "chart", "plotly":
		return node.WidgetChart
	}
	if lang != "" {
		return ""
	}
	return sniff(code)
}

// abcHeaders are the ABC notation header fields used for sniffing.
var abcHeaders = []string{"X:", "T:", "M:", "L:", "K:", "Q:"}

func sniff(code string) node.WidgetType {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "<svg") && strings.HasSuffix(trimmed, "</svg>") {
		return node.WidgetSVG
	}

	// ABC notation: require at least two distinct header fields at
	// line starts. A single stray "K:" in prose-like code must not
	// classify as music.
	seen := 0
	for _, h := range abcHeaders {
		for _, line := range strings.Split(trimmed, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), h) {
				seen++
				break
			}
		}
	}
	if seen >= 2 {
		return node.WidgetABC
	}

	return ""
}
