package latex

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"textailor/internal/errors"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const (
	sourceFileName = "resume.tex"
	outputFileName = "resume.pdf"

	// Two passes so the second run picks up cross-references and lengths
	// computed by the first.
	compilePasses = 2
)

// defaultCandidates lists the engines tried per style, in order. moderncv
// compiles most reliably with xelatex, so it goes first for that style.
var defaultCandidates = map[Style][]string{
	StyleGeneric:  {"pdflatex", "xelatex", "lualatex"},
	StyleModernCV: {"xelatex", "pdflatex", "lualatex"},
}

// Attempt records one engine's run: which binary, how it exited, and the
// diagnostic extracted from its output. Attempts only live for the duration
// of a single Compile call.
type Attempt struct {
	Engine     string
	ExitOK     bool
	Elapsed    time.Duration
	Diagnostic string
}

// CompileResult is the outcome of trying every candidate engine.
type CompileResult struct {
	// PDFPath points at the produced file inside the temporary workspace.
	// Callers must copy it out before the workspace is destroyed.
	PDFPath  string
	Engine   string
	Attempts []Attempt
}

// Success reports whether any engine produced the expected PDF.
func (r *CompileResult) Success() bool {
	return r != nil && r.PDFPath != ""
}

// Diagnostics returns the per-engine failure diagnostics in attempt order.
func (r *CompileResult) Diagnostics() []string {
	if r == nil {
		return nil
	}
	var diags []string
	for _, a := range r.Attempts {
		if a.Diagnostic != "" {
			diags = append(diags, fmt.Sprintf("[%s] %s", a.Engine, a.Diagnostic))
		}
	}
	return diags
}

// Engine drives the external TeX toolchain. A missing binary, a non-zero
// exit, or a timeout all advance to the next candidate; only exhaustion of
// every candidate is reported as failure.
type Engine struct {
	candidates   map[Style][]string
	runTimeout   time.Duration
	probeTimeout time.Duration
	validatePDF  bool
	logger       *errors.Logger
}

// EngineOption customizes an Engine.
type EngineOption func(*Engine)

// WithCandidates overrides the per-style engine order. Used by tests to
// point the runner at stub binaries, and by config to restrict engines.
func WithCandidates(candidates map[Style][]string) EngineOption {
	return func(e *Engine) {
		if len(candidates) > 0 {
			e.candidates = candidates
		}
	}
}

// WithTimeouts overrides the per-pass run timeout and the version-probe
// timeout.
func WithTimeouts(run, probe time.Duration) EngineOption {
	return func(e *Engine) {
		if run > 0 {
			e.runTimeout = run
		}
		if probe > 0 {
			e.probeTimeout = probe
		}
	}
}

// WithArtifactValidation enables checking produced PDFs with pdfcpu. An
// engine that exits cleanly but emits a broken PDF is then treated like a
// failed candidate and the cascade moves on.
func WithArtifactValidation(enabled bool) EngineOption {
	return func(e *Engine) {
		e.validatePDF = enabled
	}
}

// NewEngine creates a compiler runner with the default candidate ordering.
func NewEngine(logger *errors.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		candidates:   defaultCandidates,
		runTimeout:   2 * time.Minute,
		probeTimeout: 5 * time.Second,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile writes the source into a scoped temporary workspace and tries each
// candidate engine until one produces the expected PDF. workspace is the
// per-call temporary directory owned by the caller; the returned PDFPath
// lives inside it.
func (e *Engine) Compile(ctx context.Context, workspace, source string, style Style) (*CompileResult, error) {
	result := &CompileResult{}
	for i, engine := range e.candidatesFor(style) {
		// Every candidate gets a fresh working directory so a partial PDF
		// left behind by a failed run can never be mistaken for output.
		workDir := filepath.Join(workspace, fmt.Sprintf("attempt-%d", i))
		if err := os.MkdirAll(workDir, 0750); err != nil {
			return nil, errors.NewIOError("WORKSPACE_CREATE_FAILED",
				"Cannot create compile workspace", err)
		}
		sourcePath := filepath.Join(workDir, sourceFileName)
		if err := os.WriteFile(sourcePath, []byte(source), 0600); err != nil {
			return nil, errors.NewIOError("WORKSPACE_WRITE_FAILED",
				"Cannot write source into compile workspace", err)
		}

		attempt := e.runCandidate(ctx, engine, workDir, sourcePath, style)
		result.Attempts = append(result.Attempts, attempt)

		if !attempt.ExitOK {
			continue
		}

		pdfPath := filepath.Join(workDir, outputFileName)
		if _, err := os.Stat(pdfPath); err != nil {
			e.logger.Warn("Engine exited cleanly but produced no PDF", "engine", engine)
			continue
		}

		if e.validatePDF {
			if err := api.ValidateFile(pdfPath, nil); err != nil {
				result.Attempts[len(result.Attempts)-1].Diagnostic =
					fmt.Sprintf("produced an invalid PDF: %v", err)
				e.logger.Warn("Engine produced an invalid PDF",
					"engine", engine, "error", err.Error())
				continue
			}
		}

		// First success wins; remaining candidates are never invoked.
		result.PDFPath = pdfPath
		result.Engine = engine
		e.logger.Info("Compilation succeeded",
			"engine", engine,
			"elapsed", attempt.Elapsed.String(),
			"attempts", len(result.Attempts))
		return result, nil
	}

	return result, nil
}

// candidatesFor returns the engine order for a style, falling back to the
// generic order for unknown styles.
func (e *Engine) candidatesFor(style Style) []string {
	if order, ok := e.candidates[style]; ok {
		return order
	}
	return e.candidates[StyleGeneric]
}

// runCandidate executes the fixed two-pass protocol for one engine.
func (e *Engine) runCandidate(ctx context.Context, engine, workspace, sourcePath string, style Style) Attempt {
	attempt := Attempt{Engine: engine}
	start := time.Now()

	if err := e.probe(ctx, engine); err != nil {
		attempt.Diagnostic = fmt.Sprintf("%s not available: %v", engine, err)
		attempt.Elapsed = time.Since(start)
		e.logger.Debug("Skipping unavailable engine", "engine", engine, "error", err.Error())
		return attempt
	}

	args := []string{
		"-interaction=nonstopmode",
		"-halt-on-error",
		"-output-directory=" + workspace,
	}
	if style == StyleModernCV {
		// moderncv color packages need shell escape.
		args = append(args, "-shell-escape")
	}
	args = append(args, sourcePath)

	for pass := 1; pass <= compilePasses; pass++ {
		output, err := e.runPass(ctx, engine, workspace, args)
		if err != nil {
			attempt.Diagnostic = extractDiagnostic(output, err)
			attempt.Elapsed = time.Since(start)
			e.logger.Warn("Engine pass failed",
				"engine", engine,
				"pass", pass,
				"error", err.Error())
			return attempt
		}
	}

	attempt.ExitOK = true
	attempt.Elapsed = time.Since(start)
	return attempt
}

// probe verifies that the engine binary is invocable at all with a fast
// --version call, so a missing toolchain fails in milliseconds rather than
// after a full compile timeout.
func (e *Engine) probe(ctx context.Context, engine string) error {
	probeCtx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, engine, "--version")
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run()
}

// runPass runs one compiler pass, bounded by the configured timeout, and
// returns the combined captured output.
func (e *Engine) runPass(ctx context.Context, engine, workspace string, args []string) (string, error) {
	passCtx, cancel := context.WithTimeout(ctx, e.runTimeout)
	defer cancel()

	cmd := exec.CommandContext(passCtx, engine, args...)
	cmd.Dir = workspace

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	err := cmd.Run()
	if passCtx.Err() == context.DeadlineExceeded {
		return output.String(), fmt.Errorf("timed out after %s", e.runTimeout)
	}
	return output.String(), err
}

// diagnosticMarkers flag the TeX log lines worth surfacing to the user.
var diagnosticMarkers = []string{"error", "undefined", "package", "color"}

const (
	diagnosticContext = 2  // lines captured after each marker hit
	diagnosticLimit   = 10 // max captured hits per attempt
)

// extractDiagnostic scans captured compiler output for error markers and
// returns a compact excerpt with a little context around each hit. TeX logs
// are enormous; users only need the lines that explain the failure.
func extractDiagnostic(output string, runErr error) string {
	lines := strings.Split(output, "\n")
	var hits []string

	for i, line := range lines {
		if len(hits) >= diagnosticLimit {
			break
		}
		if !isDiagnosticLine(line) {
			continue
		}
		end := min(i+diagnosticContext+1, len(lines))
		hits = append(hits, strings.TrimSpace(strings.Join(lines[i:end], "\n")))
	}

	if len(hits) == 0 {
		return runErr.Error()
	}
	return fmt.Sprintf("%v\n%s", runErr, strings.Join(hits, "\n---\n"))
}

// isDiagnosticLine reports whether a log line carries an error marker. TeX
// prefixes hard errors with "!".
func isDiagnosticLine(line string) bool {
	if strings.HasPrefix(line, "!") {
		return true
	}
	lower := strings.ToLower(line)
	for _, marker := range diagnosticMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
