package repl

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/interp/delim"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{
	"help", "keys", "delims", "trust", "set", "reload", "clear", "quit",
}

// isWordBoundary reports whether r delimits a word for completion: whitespace,
// the member-access dot, and expr-lang operator and punctuation characters.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']', '{', '}',
		'+', '-', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';',
		'"', '\'', '`':
		return true
	}

	return false
}

// wordBounds returns the word at cursor and its byte boundaries within
// input. The word is empty when the cursor sits on a boundary.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word at
// wordStart. For "x + server.http.ho" with the word "ho" it returns
// "server.http". Top-level words have no parent.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimRight(prefix, ".")

	pos := len(prefix)
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:])
}

// exprRegion locates the expression enclosing cursor: the text after the
// nearest unclosed start marker (primary or secondary) and before its end
// marker or the end of input. ok is false when the cursor is in literal text.
func exprRegion(input string, cursor int, delims delim.Config) (start, end int, ok bool) {
	cursor = min(max(cursor, 0), len(input))
	head := input[:cursor]

	var open delim.Pair

	start = -1

	for _, pair := range []delim.Pair{delims.Primary(), delims.Secondary()} {
		i := strings.LastIndex(head, pair.Start)
		if i < 0 {
			continue
		}

		i += len(pair.Start)
		if i > start && !strings.Contains(head[i:], pair.End) {
			start, open = i, pair
		}
	}

	if start < 0 {
		return 0, 0, false
	}

	end = len(input)
	if j := strings.Index(input[start:], open.End); j >= 0 {
		end = start + j
	}

	return start, max(end, cursor), true
}

// childCandidates returns the completions for parent: top-level data keys,
// engine builtins and expr-lang builtins for the empty parent, or the keys of
// the mapping reached by walking parent through data.
func childCandidates(data map[string]any, builtins []string, parent string) []string {
	if parent == "" {
		names := slices.Sorted(maps.Keys(data))
		names = append(names, slices.Sorted(slices.Values(builtins))...)

		return append(names, slices.Sorted(maps.Keys(builtin.Index))...)
	}

	var node any = data

	for seg := range strings.SplitSeq(parent, ".") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}

		if node, ok = m[seg]; !ok {
			return nil
		}
	}

	if m, ok := node.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// computeMatches calculates the fuzzy match results for the word at the
// cursor, ranked best-first, along with the word boundaries. In template mode
// completion only applies inside an expression. An empty word after a dot
// lists every child so the user can browse members.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()
	cursor := m.input.Position()

	if m.mode == modeCtrl {
		word, ws, we := wordBounds(input, cursor)
		if word == "" || ws > 0 {
			return nil, nil, ws, we
		}

		return fuzzy.Find(word, ctrlCommands), ctrlCommands, ws, we
	}

	rs, re, ok := exprRegion(input, cursor, m.interp.Delimiters())
	if !ok {
		return nil, nil, cursor, cursor
	}

	region := input[rs:re]

	word, ws, we := wordBounds(region, cursor-rs)
	wordStart, wordEnd = ws+rs, we+rs

	parent := parentPath(region, ws)
	candidates = childCandidates(m.data, m.interp.Engine().Builtins(), parent)

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	if word == "" {
		if parent == "" {
			return nil, nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate (when tabbing) uses the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if i > 0 && used+entryWidth+ellipsisWidth > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if _, ok := builtin.Index[match.Str]; ok {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// formatPreview returns a short preview of a data value.
func formatPreview(v any) string {
	const limit = 40

	var s string

	switch v := v.(type) {
	case map[string]any:
		return fmt.Sprintf("{ %d keys }", len(v))

	case []any:
		return fmt.Sprintf("[ %d items ]", len(v))

	case string:
		s = fmt.Sprintf("%q", v)

	default:
		s = fmt.Sprint(v)
	}

	if len(s) > limit {
		return s[:limit-3] + "..."
	}

	return s
}
