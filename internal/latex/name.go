package latex

import (
	"regexp"
	"strings"
)

// FallbackName is returned when no name pattern matches the document.
const FallbackName = "RESUME"

// namePatterns are tried in order; the first capture wins. They cover the
// common ways resumes spell the candidate name: a large centered heading,
// a dedicated \name command (one- and two-argument forms), and a bold field
// directly before an email address.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\{\s*\\Huge\s+(?:\\scshape\s+)?([^{}\\]+?)\s*\}`),
	regexp.MustCompile(`\\name\{([^{}]*)\}\{([^{}]*)\}`),
	regexp.MustCompile(`\\name\{([^{}]+)\}`),
	regexp.MustCompile(`\\textbf\{([^{}]+)\}[^{}]{0,80}?[\w.+-]+@[\w-]+\.[\w.]+`),
}

// residualCommands strips any markup commands that survive inside a capture,
// e.g. \textsc or font switches embedded in the heading.
var residualCommands = regexp.MustCompile(`\\[A-Za-z]+\s*`)

// ExtractCandidateName pulls a filename-safe identifier out of the resume
// source. It never fails: when nothing matches it returns FallbackName.
func ExtractCandidateName(source string) string {
	for _, pattern := range namePatterns {
		match := pattern.FindStringSubmatch(source)
		if match == nil {
			continue
		}

		// Two-argument \name{First}{Last} yields two captures; join them.
		parts := match[1:]
		name := strings.TrimSpace(strings.Join(parts, " "))
		name = residualCommands.ReplaceAllString(name, "")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		name = strings.Join(strings.Fields(name), "_")
		return strings.ToUpper(name)
	}

	return FallbackName
}
