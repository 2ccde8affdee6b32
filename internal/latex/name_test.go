package latex

import "testing"

func TestExtractCandidateName(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "huge scshape heading",
			source:   `\begin{center}{\Huge \scshape Jane Doe}\end{center}`,
			expected: "JANE_DOE",
		},
		{
			name:     "huge heading without scshape",
			source:   `{\Huge John Smith}`,
			expected: "JOHN_SMITH",
		},
		{
			name:     "two argument name command",
			source:   `\name{Ada}{Lovelace}`,
			expected: "ADA_LOVELACE",
		},
		{
			name:     "single argument name command",
			source:   `\name{Grace Hopper}`,
			expected: "GRACE_HOPPER",
		},
		{
			name:     "bold name before email",
			source:   `\textbf{Alan Turing} \\ alan@bletchley.example.org`,
			expected: "ALAN_TURING",
		},
		{
			name:     "bold text without email nearby is ignored",
			source:   `\textbf{Skills} and nothing else`,
			expected: FallbackName,
		},
		{
			name:     "no pattern at all",
			source:   `\documentclass{article}\begin{document}hello\end{document}`,
			expected: FallbackName,
		},
		{
			name:     "empty input",
			source:   "",
			expected: FallbackName,
		},
		{
			name:     "extra whitespace collapses to single underscores",
			source:   `{\Huge \scshape   Mary   Jane   Watson }`,
			expected: "MARY_JANE_WATSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCandidateName(tt.source)
			if got != tt.expected {
				t.Errorf("ExtractCandidateName() = %q, want %q", got, tt.expected)
			}
		})
	}
}
