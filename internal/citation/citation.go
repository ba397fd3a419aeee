// Package citation maps bracket tokens in compiled text to supplied
// sources. Numeric tokens resolve against reference numbers assigned
// in supply order; keyword and free-label tokens become semantic
// citation badges independent of any source list.
package citation

import (
	"regexp"
	"strconv"

	"chatmark/internal/node"
)

// tokenRe matches one bracket token. Link syntax never reaches this
// pass: splitting operates on compiled HTML text nodes, after the
// markdown compiler has already consumed [text](url) forms.
var tokenRe = regexp.MustCompile(`\[([^\[\]\n]+)\]`)

// Active reports whether citation handling runs this cycle: either
// sources were supplied, or the compiled HTML carries a
// semantic-shaped token (so [Memory]/[Pinned]/[Some Doc] always render
// as badges even without sources).
func Active(html string, sources []node.Source) bool {
	if len(sources) > 0 {
		return true
	}
	for _, m := range tokenRe.FindAllStringSubmatch(html, -1) {
		if !isNumeric(m[1]) {
			return true
		}
	}
	return false
}

// AssignRefNumbers returns a copy of sources with reference numbers
// filled in. When none carry a number, index+1 in supply order is the
// canonical scheme; lists that already carry numbers pass through
// untouched. Both the "all sources" and "cited sources" paths must go
// through here so numbering never diverges.
func AssignRefNumbers(sources []node.Source) []node.Source {
	if len(sources) == 0 {
		return nil
	}
	out := make([]node.Source, len(sources))
	copy(out, sources)

	for _, s := range out {
		if s.RefNumber != 0 {
			return out
		}
	}
	for i := range out {
		out[i].RefNumber = i + 1
	}
	return out
}

// CitedNumbers returns the distinct numeric citation values appearing
// in text. Order of appearance is irrelevant.
func CitedNumbers(text string) map[int]bool {
	cited := make(map[int]bool)
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			cited[n] = true
		}
	}
	return cited
}

// FilterCited numbers sources and keeps only those actually referenced
// in text. Content that cites nothing yields an empty list even when
// sources were supplied.
func FilterCited(sources []node.Source, text string) []node.Source {
	cited := CitedNumbers(text)
	if len(cited) == 0 {
		return nil
	}
	var out []node.Source
	for _, s := range AssignRefNumbers(sources) {
		if cited[s.RefNumber] {
			out = append(out, s)
		}
	}
	return out
}

// Split breaks a text span into literal text and citation nodes.
// sources must already carry reference numbers. A numeric token with
// no matching source stays literal bracket text. Multiple parts come
// back as siblings for the caller to flatten.
func Split(text string, sources []node.Source) []node.Node {
	matches := tokenRe.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return []node.Node{node.Text{Value: text}}
	}

	var out []node.Node
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		token := text[m[2]:m[3]]

		resolved := resolve(token, sources)
		if resolved == nil {
			// Unresolvable: keep the bracket text literal and move on.
			continue
		}

		if start > last {
			out = append(out, node.Text{Value: text[last:start]})
		}
		out = append(out, resolved)
		last = end
	}
	if last < len(text) {
		out = append(out, node.Text{Value: text[last:]})
	}
	return out
}

// resolve maps one token to a citation node, or nil when it should
// remain literal text.
func resolve(token string, sources []node.Source) node.Node {
	if isNumeric(token) {
		n, err := strconv.Atoi(token)
		if err != nil || n <= 0 {
			return nil
		}
		for i := range sources {
			if sources[i].RefNumber == n {
				return node.Citation{RefNumber: n, Source: &sources[i]}
			}
		}
		return nil
	}

	switch token {
	case "Memory":
		return node.SemanticCitation{
			Kind:    node.SemanticMemory,
			Label:   "Memory",
			Tooltip: "Recalled from saved memory",
		}
	case "Pinned":
		return node.SemanticCitation{
			Kind:    node.SemanticPinned,
			Label:   "Pinned",
			Tooltip: "From pinned content",
		}
	}
	return node.SemanticCitation{
		Kind:    node.SemanticDocument,
		Label:   token,
		Tooltip: token,
	}
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
