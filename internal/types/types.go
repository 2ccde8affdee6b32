package types

// OptimizeInput represents the input for optimizing a resume against a job description
type OptimizeInput struct {
	BaseResume     string `json:"baseResume"`     // LaTeX source of the base resume
	JobDescription string `json:"jobDescription"` // Target job description, plain text
	CompanyLabel   string `json:"companyLabel"`   // Label used in the artifact filename, e.g. the company name
}

// OptimizeOutput represents the outcome of a full optimize-and-compile run
type OptimizeOutput struct {
	Success       bool     `json:"success"`       // True when a compiled PDF was produced
	ArtifactPath  string   `json:"artifactPath"`  // Path to the PDF, or to the fallback .tex on compile failure
	CandidateName string   `json:"candidateName"` // Name extracted from the resume, used in the filename
	Style         string   `json:"style"`         // Detected document style
	Engine        string   `json:"engine"`        // TeX engine that produced the PDF, empty on failure
	Diagnostics   []string `json:"diagnostics,omitempty"`
}

// CompileInput represents the input for compiling a pre-existing LaTeX resume
type CompileInput struct {
	Source       string `json:"source"`       // LaTeX source to compile
	CompanyLabel string `json:"companyLabel"` // Label used in the artifact filename
}

// CompileOutput represents the outcome of a compile-only run
type CompileOutput struct {
	Success       bool     `json:"success"`
	ArtifactPath  string   `json:"artifactPath"`
	CandidateName string   `json:"candidateName"`
	Style         string   `json:"style"`
	Engine        string   `json:"engine"`
	Diagnostics   []string `json:"diagnostics,omitempty"`
}
