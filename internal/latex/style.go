package latex

import "strings"

// Style classifies the authoring style of a resume document. The style
// decides the TeX engine order and invocation flags.
type Style string

const (
	// StyleGeneric is any plain article-class resume.
	StyleGeneric Style = "generic"
	// StyleModernCV is a resume built on the moderncv document class, which
	// needs shell escape for its color packages and compiles best with xelatex.
	StyleModernCV Style = "moderncv"
)

// moderncvMarkers are the tokens whose presence classifies a document as
// moderncv. Substring match only, the document is never parsed.
var moderncvMarkers = []string{
	`{moderncv}`,
	`\moderncvstyle`,
	`\moderncvcolor`,
	`\makecvtitle`,
}

// DetectStyle inspects the document body for moderncv markers and returns
// the matching style. It is a pure function of the text.
func DetectStyle(source string) Style {
	for _, marker := range moderncvMarkers {
		if strings.Contains(source, marker) {
			return StyleModernCV
		}
	}
	return StyleGeneric
}
