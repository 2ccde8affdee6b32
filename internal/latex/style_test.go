package latex

import "testing"

func TestDetectStyle(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected Style
	}{
		{
			name:     "plain article resume",
			source:   `\documentclass{article}\begin{document}Jane\end{document}`,
			expected: StyleGeneric,
		},
		{
			name:     "moderncv document class",
			source:   `\documentclass[11pt,a4paper,sans]{moderncv}`,
			expected: StyleModernCV,
		},
		{
			name:     "moderncv style command",
			source:   `\moderncvstyle{classic}`,
			expected: StyleModernCV,
		},
		{
			name:     "moderncv color command",
			source:   `\moderncvcolor{blue}`,
			expected: StyleModernCV,
		},
		{
			name:     "cv title command",
			source:   `\makecvtitle`,
			expected: StyleModernCV,
		},
		{
			name:     "empty document",
			source:   "",
			expected: StyleGeneric,
		},
		{
			name:     "moderncv mentioned in prose only",
			source:   `% I did not use the moderncv class here`,
			expected: StyleGeneric,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectStyle(tt.source)
			if got != tt.expected {
				t.Errorf("DetectStyle() = %q, want %q", got, tt.expected)
			}

			// Classification is pure: repeated calls agree.
			if again := DetectStyle(tt.source); again != got {
				t.Errorf("DetectStyle() not idempotent: %q then %q", got, again)
			}
		})
	}
}
