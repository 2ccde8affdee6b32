package latex

import (
	"strings"
	"testing"
)

const wellFormedDoc = `\documentclass{article}
\begin{document}
\section{Experience}
\begin{itemize}
\item Built things
\end{itemize}
\end{document}`

func TestSanitizeDocumentExtraction(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected string
	}{
		{
			name:     "document embedded in markdown noise",
			response: "Here is your resume:\n```latex\n" + wellFormedDoc + "\n```\nGood luck!",
			expected: wellFormedDoc,
		},
		{
			name:     "bare document passes through unchanged",
			response: wellFormedDoc,
			expected: wellFormedDoc,
		},
		{
			name:     "leading and trailing whitespace trimmed",
			response: "\n\n" + wellFormedDoc + "\n\n",
			expected: wellFormedDoc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeDocument(tt.response)
			if got != tt.expected {
				t.Errorf("SanitizeDocument() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSanitizeDocumentTruncationRepair(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{
			name: "missing end token and two open braces",
			response: `\documentclass{article}
\begin{document}
\textbf{\emph{cut off here`,
		},
		{
			name: "unclosed itemize",
			response: `\documentclass{article}
\begin{document}
\begin{itemize}
\item truncated`,
		},
		{
			name: "nested unclosed environments",
			response: `\documentclass{article}
\begin{document}
\begin{center}
\begin{tabular}{ll}
a & b`,
		},
		{
			name:     "no document structure at all",
			response: "just some prose with an { open brace",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeDocument(tt.response)

			if !strings.HasSuffix(got, endDocument) {
				t.Errorf("repaired output does not end with %s:\n%s", endDocument, got)
			}

			opens := strings.Count(got, "{")
			closes := strings.Count(got, "}")
			if opens != closes {
				t.Errorf("brace counts unbalanced after repair: %d open, %d close", opens, closes)
			}

			for _, env := range pairedEnvironments {
				begins := strings.Count(got, `\begin{`+env+`}`)
				ends := strings.Count(got, `\end{`+env+`}`)
				if begins != ends {
					t.Errorf("environment %s unbalanced after repair: %d begin, %d end", env, begins, ends)
				}
			}
		})
	}
}

func TestSanitizeDocumentClosesEnvironmentsInNestingOrder(t *testing.T) {
	truncated := `\documentclass{article}
\begin{document}
\begin{itemize}
\item outer
\begin{tabular}{ll}
a & b`

	got := SanitizeDocument(truncated)

	tabularEnd := strings.Index(got, `\end{tabular}`)
	itemizeEnd := strings.Index(got, `\end{itemize}`)
	if tabularEnd < 0 || itemizeEnd < 0 {
		t.Fatalf("missing environment closers in repaired output:\n%s", got)
	}
	if tabularEnd > itemizeEnd {
		t.Errorf("inner tabular closed after outer itemize:\n%s", got)
	}
}

func TestSanitizeDocumentClosesRepeatedEnvironments(t *testing.T) {
	truncated := `\documentclass{article}
\begin{document}
\begin{itemize}
\item one
\end{itemize}
\begin{itemize}
\item two`

	got := SanitizeDocument(truncated)

	begins := strings.Count(got, `\begin{itemize}`)
	ends := strings.Count(got, `\end{itemize}`)
	if begins != ends {
		t.Errorf("itemize unbalanced after repair: %d begin, %d end:\n%s", begins, ends, got)
	}
}

func TestSanitizeDocumentNeverPanics(t *testing.T) {
	inputs := []string{"", "{{{{{", `\end{document}`, `\begin{itemize}`, "}}}}"}
	for _, input := range inputs {
		_ = SanitizeDocument(input)
	}
}
