package latex

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const endDocument = `\end{document}`

// documentSpan matches the first complete document embedded in a free-form
// generation response, skipping any surrounding prose or markdown fences.
var documentSpan = regexp.MustCompile(`(?s)\\documentclass.*?\\end\{document\}`)

// pairedEnvironments are the block environments the truncation repair knows
// how to close. The repair is a bounded safety net for responses cut off
// mid-document, not a grammar checker.
var pairedEnvironments = []string{
	"itemize",
	"enumerate",
	"description",
	"tabular",
	"center",
	"minipage",
	"flushleft",
	"flushright",
}

// SanitizeDocument extracts the LaTeX document from a generation response
// and repairs a bounded class of truncation defects. It never fails; in the
// worst case the result is an unrepaired string that the compiler rejects.
func SanitizeDocument(response string) string {
	candidate := response
	if span := documentSpan.FindString(response); span != "" {
		candidate = span
	}
	candidate = strings.TrimSpace(candidate)

	if strings.HasSuffix(candidate, endDocument) {
		return candidate
	}

	return repairTruncation(candidate)
}

// repairTruncation appends the close braces, environment closers, and the
// final \end{document} that a truncated response is missing. Counting only,
// no parsing.
func repairTruncation(candidate string) string {
	var repaired strings.Builder
	repaired.WriteString(candidate)

	if deficit := strings.Count(candidate, "{") - strings.Count(candidate, "}"); deficit > 0 {
		repaired.WriteString(strings.Repeat("}", deficit))
	}

	for _, env := range unmatchedEnvironments(candidate) {
		repaired.WriteString(fmt.Sprintf("\n\\end{%s}", env))
	}

	repaired.WriteString("\n\n")
	repaired.WriteString(endDocument)
	return repaired.String()
}

// unmatchedEnvironments returns the environments a truncated document left
// open, innermost first, so the closers come out in reverse nesting order.
// Counting only: for each environment the last open-minus-closed \begin
// occurrences are taken as the unmatched ones.
func unmatchedEnvironments(candidate string) []string {
	type openEnv struct {
		name string
		pos  int
	}
	var opens []openEnv

	for _, env := range pairedEnvironments {
		positions := indexAll(candidate, fmt.Sprintf(`\begin{%s}`, env))
		deficit := len(positions) - strings.Count(candidate, fmt.Sprintf(`\end{%s}`, env))
		for i := len(positions) - deficit; i < len(positions); i++ {
			if i >= 0 {
				opens = append(opens, openEnv{name: env, pos: positions[i]})
			}
		}
	}

	sort.Slice(opens, func(i, j int) bool { return opens[i].pos > opens[j].pos })

	names := make([]string, len(opens))
	for i, o := range opens {
		names[i] = o.name
	}
	return names
}

// indexAll returns the start index of every non-overlapping occurrence of
// sub within s.
func indexAll(s, sub string) []int {
	var positions []int
	offset := 0
	for {
		i := strings.Index(s[offset:], sub)
		if i < 0 {
			return positions
		}
		positions = append(positions, offset+i)
		offset += i + len(sub)
	}
}
