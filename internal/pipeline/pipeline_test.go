package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"textailor/internal/ai"
	"textailor/internal/errors"
	"textailor/internal/latex"
	"textailor/internal/types"
)

const baseResume = `\documentclass{article}
\begin{document}
{\Huge Jane Doe}
jane@example.com
\end{document}`

const generatedResume = "Here is the optimized resume:\n\n```latex\n" + baseResume + "\n```\n"

type stubProvider struct {
	response  string
	usage     *ai.TokenUsage
	err       error
	calls     int
	lastInput types.OptimizeInput
}

func (s *stubProvider) OptimizeResume(_ context.Context, input types.OptimizeInput) (string, *ai.TokenUsage, error) {
	s.calls++
	s.lastInput = input
	return s.response, s.usage, s.err
}

func (s *stubProvider) GetModelInfo(_ context.Context) *ai.ModelInfo { return nil }

func (s *stubProvider) Close() error { return nil }

func testLogger() *errors.Logger {
	return errors.NewLogger(slog.LevelError)
}

// writeStub writes an executable shell script that answers the --version
// probe and then runs body for compile invocations.
func writeStub(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\nif [ \"$1\" = \"--version\" ]; then exit 0; fi\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0700); err != nil {
		t.Fatalf("writing stub %s: %v", name, err)
	}
	return path
}

func newTestPipeline(t *testing.T, provider ai.Provider, engineBody string, opts ...latex.EngineOption) (*Pipeline, string) {
	t.Helper()

	binDir := t.TempDir()
	outputDir := t.TempDir()
	stub := writeStub(t, binDir, "texstub", engineBody)

	logger := testLogger()
	engineOpts := append([]latex.EngineOption{
		latex.WithCandidates(map[latex.Style][]string{
			latex.StyleGeneric:  {stub},
			latex.StyleModernCV: {stub},
		}),
	}, opts...)
	engine := latex.NewEngine(logger, engineOpts...)
	materializer := latex.NewMaterializer(outputDir, logger)

	return New(provider, engine, materializer, logger), outputDir
}

func TestOptimizeSuccess(t *testing.T) {
	provider := &stubProvider{
		response: generatedResume,
		usage:    &ai.TokenUsage{InputTokens: 100, OutputTokens: 900, TotalTokens: 1000},
	}
	p, outputDir := newTestPipeline(t, provider, "printf fake > resume.pdf")

	output, err := p.Optimize(context.Background(), types.OptimizeInput{
		BaseResume:     baseResume,
		JobDescription: "Go engineer",
		CompanyLabel:   "Acme Corp",
	})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if !output.Success {
		t.Fatalf("Optimize() success = false, diagnostics %v", output.Diagnostics)
	}
	if output.CandidateName != "JANE_DOE" {
		t.Errorf("candidate name = %q, want JANE_DOE", output.CandidateName)
	}
	if output.Style != string(latex.StyleGeneric) {
		t.Errorf("style = %q, want generic", output.Style)
	}
	if output.Engine == "" {
		t.Error("engine should be reported on success")
	}

	base := filepath.Base(output.ArtifactPath)
	if !strings.HasPrefix(base, "JANE_DOE_Acme_Corp_") || !strings.HasSuffix(base, ".pdf") {
		t.Errorf("artifact name = %q, want JANE_DOE_Acme_Corp_{date}.pdf", base)
	}
	if _, err := os.Stat(output.ArtifactPath); err != nil {
		t.Errorf("artifact not on disk: %v", err)
	}
	if filepath.Dir(output.ArtifactPath) != outputDir {
		t.Errorf("artifact written outside output dir: %s", output.ArtifactPath)
	}

	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
	if provider.lastInput.JobDescription != "Go engineer" {
		t.Errorf("provider received job description %q", provider.lastInput.JobDescription)
	}
}

func TestOptimizeSanitizesTruncatedResponse(t *testing.T) {
	truncated := `\documentclass{article}
\begin{document}
{\Huge Jane Doe}
\begin{itemize}
\item Shipped things`

	captureDir := t.TempDir()
	captureFile := filepath.Join(captureDir, "captured.tex")

	provider := &stubProvider{response: truncated}
	p, _ := newTestPipeline(t, provider,
		"cp resume.tex "+captureFile+"\nprintf fake > resume.pdf")

	output, err := p.Optimize(context.Background(), types.OptimizeInput{
		BaseResume:     baseResume,
		JobDescription: "Go engineer",
		CompanyLabel:   "Acme",
	})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}
	if !output.Success {
		t.Fatalf("Optimize() success = false, diagnostics %v", output.Diagnostics)
	}

	compiled, err := os.ReadFile(captureFile)
	if err != nil {
		t.Fatalf("reading captured source: %v", err)
	}
	source := string(compiled)
	if !strings.HasSuffix(strings.TrimSpace(source), `\end{document}`) {
		t.Error("compiled source should end with \\end{document} after repair")
	}
	if strings.Count(source, `\begin{itemize}`) != strings.Count(source, `\end{itemize}`) {
		t.Error("itemize environment should be closed after repair")
	}
}

func TestOptimizeGenerationFailureProducesNoArtifact(t *testing.T) {
	provider := &stubProvider{
		err: errors.NewAIError(errors.ErrCodeAIEmptyResponse, "AI returned an empty response", nil),
	}
	p, outputDir := newTestPipeline(t, provider, "printf fake > resume.pdf")

	_, err := p.Optimize(context.Background(), types.OptimizeInput{
		BaseResume:     baseResume,
		JobDescription: "Go engineer",
		CompanyLabel:   "Acme",
	})
	if err == nil {
		t.Fatal("Optimize() should fail when generation fails")
	}

	entries, readErr := os.ReadDir(outputDir)
	if readErr != nil {
		t.Fatalf("reading output dir: %v", readErr)
	}
	if len(entries) != 0 {
		t.Errorf("no artifact should be written on generation failure, found %d entries", len(entries))
	}
}

func TestOptimizeCompileFailureWritesFallback(t *testing.T) {
	provider := &stubProvider{response: generatedResume}
	p, outputDir := newTestPipeline(t, provider,
		`echo "! Undefined control sequence."
exit 1`)

	output, err := p.Optimize(context.Background(), types.OptimizeInput{
		BaseResume:     baseResume,
		JobDescription: "Go engineer",
		CompanyLabel:   "Acme",
	})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if output.Success {
		t.Fatal("Optimize() should report failure when every engine fails")
	}
	if output.Engine != "" {
		t.Errorf("engine = %q, want empty on failure", output.Engine)
	}
	if len(output.Diagnostics) == 0 {
		t.Fatal("diagnostics should be populated on compile failure")
	}
	if !strings.Contains(output.Diagnostics[0], "Undefined control sequence") {
		t.Errorf("diagnostics = %q, want the TeX error excerpt", output.Diagnostics[0])
	}

	if !strings.HasSuffix(output.ArtifactPath, ".tex") {
		t.Errorf("fallback artifact = %q, want .tex source", output.ArtifactPath)
	}
	if _, err := os.Stat(output.ArtifactPath); err != nil {
		t.Errorf("fallback source not on disk: %v", err)
	}

	errorsFile := strings.TrimSuffix(output.ArtifactPath, ".tex") + "_errors.txt"
	if _, err := os.Stat(errorsFile); err != nil {
		t.Errorf("diagnostics report not on disk: %v", err)
	}
	if filepath.Dir(output.ArtifactPath) != outputDir {
		t.Errorf("fallback written outside output dir: %s", output.ArtifactPath)
	}
}

func TestOptimizeInvalidPDFWritesFallback(t *testing.T) {
	provider := &stubProvider{response: generatedResume}
	p, outputDir := newTestPipeline(t, provider,
		"printf 'not a pdf at all' > resume.pdf",
		latex.WithArtifactValidation(true))

	output, err := p.Optimize(context.Background(), types.OptimizeInput{
		BaseResume:     baseResume,
		JobDescription: "Go engineer",
		CompanyLabel:   "Acme",
	})
	if err != nil {
		t.Fatalf("Optimize() error = %v", err)
	}

	if output.Success {
		t.Fatal("Optimize() should report failure when the produced PDF is invalid")
	}
	if !strings.HasSuffix(output.ArtifactPath, ".tex") {
		t.Errorf("fallback artifact = %q, want the generated .tex source", output.ArtifactPath)
	}
	if _, err := os.Stat(output.ArtifactPath); err != nil {
		t.Errorf("generated source lost on validation failure: %v", err)
	}
	errorsFile := strings.TrimSuffix(output.ArtifactPath, ".tex") + "_errors.txt"
	if _, err := os.Stat(errorsFile); err != nil {
		t.Errorf("diagnostics report not on disk: %v", err)
	}
	if len(output.Diagnostics) == 0 || !strings.Contains(output.Diagnostics[0], "invalid PDF") {
		t.Errorf("diagnostics = %v, want the validation failure", output.Diagnostics)
	}
	if filepath.Dir(output.ArtifactPath) != outputDir {
		t.Errorf("fallback written outside output dir: %s", output.ArtifactPath)
	}
}

func TestOptimizeValidatesInput(t *testing.T) {
	p, _ := newTestPipeline(t, &stubProvider{response: generatedResume}, "printf fake > resume.pdf")

	tests := []struct {
		name  string
		input types.OptimizeInput
	}{
		{"missing resume", types.OptimizeInput{JobDescription: "Go engineer"}},
		{"missing job description", types.OptimizeInput{BaseResume: baseResume}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Optimize(context.Background(), tt.input)
			if err == nil {
				t.Fatal("Optimize() should reject incomplete input")
			}
			appErr, ok := err.(*errors.AppError)
			if !ok {
				t.Fatalf("error type = %T, want *errors.AppError", err)
			}
			if appErr.Code != errors.ErrCodeInvalidRequest {
				t.Errorf("error code = %q, want %q", appErr.Code, errors.ErrCodeInvalidRequest)
			}
		})
	}
}

func TestOptimizeRequiresProvider(t *testing.T) {
	p, _ := newTestPipeline(t, nil, "printf fake > resume.pdf")

	_, err := p.Optimize(context.Background(), types.OptimizeInput{
		BaseResume:     baseResume,
		JobDescription: "Go engineer",
	})
	if err == nil {
		t.Fatal("Optimize() should fail without a provider")
	}
	appErr, ok := err.(*errors.AppError)
	if !ok {
		t.Fatalf("error type = %T, want *errors.AppError", err)
	}
	if appErr.Code != errors.ErrCodeInvalidConfig {
		t.Errorf("error code = %q, want %q", appErr.Code, errors.ErrCodeInvalidConfig)
	}
}

func TestCompileExistingSource(t *testing.T) {
	moderncvResume := `\documentclass{moderncv}
\moderncvstyle{classic}
\name{Jane}{Doe}
\begin{document}
\makecvtitle
\end{document}`

	p, _ := newTestPipeline(t, nil, "printf fake > resume.pdf")

	output, err := p.Compile(context.Background(), types.CompileInput{
		Source:       moderncvResume,
		CompanyLabel: "Acme",
	})
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if !output.Success {
		t.Fatalf("Compile() success = false, diagnostics %v", output.Diagnostics)
	}
	if output.Style != string(latex.StyleModernCV) {
		t.Errorf("style = %q, want moderncv", output.Style)
	}
	if output.CandidateName != "JANE_DOE" {
		t.Errorf("candidate name = %q, want JANE_DOE", output.CandidateName)
	}
}

func TestCompileRejectsEmptySource(t *testing.T) {
	p, _ := newTestPipeline(t, nil, "printf fake > resume.pdf")

	_, err := p.Compile(context.Background(), types.CompileInput{CompanyLabel: "Acme"})
	if err == nil {
		t.Fatal("Compile() should reject empty source")
	}
}

func TestCompileWorkspaceIsRemoved(t *testing.T) {
	before := workspaceCount(t)

	p, _ := newTestPipeline(t, nil, "printf fake > resume.pdf")
	if _, err := p.Compile(context.Background(), types.CompileInput{Source: baseResume}); err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	if after := workspaceCount(t); after != before {
		t.Errorf("compile workspaces leaked: %d before, %d after", before, after)
	}
}

func workspaceCount(t *testing.T) int {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(os.TempDir(), "textailor-compile-*"))
	if err != nil {
		t.Fatalf("globbing workspaces: %v", err)
	}
	return len(matches)
}
