// Package pipeline orchestrates the full optimize-and-compile flow: AI
// generation, document sanitization, TeX compilation, and artifact
// persistence.
package pipeline

import (
	"context"
	"fmt"
	"os"

	"textailor/internal/ai"
	"textailor/internal/errors"
	"textailor/internal/latex"
	"textailor/internal/observability"
	"textailor/internal/types"
)

// panicMessageLimit caps how much of a recovered panic value is carried
// into the returned error.
const panicMessageLimit = 200

// Pipeline wires the generation provider, the TeX engine runner, and the
// artifact materializer into the two user-facing operations.
type Pipeline struct {
	provider     ai.Provider
	engine       *latex.Engine
	materializer *latex.Materializer
	logger       *errors.Logger

	obsManager *observability.ObservabilityManager
	metrics    *observability.Metrics
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithObservability attaches the metrics sink. Without it the pipeline runs
// unmetered.
func WithObservability(om *observability.ObservabilityManager) Option {
	return func(p *Pipeline) {
		if om != nil {
			p.obsManager = om
			p.metrics = om.GetMetrics()
		}
	}
}

// New creates a pipeline. provider may be nil for compile-only use; Optimize
// then fails with a configuration error.
func New(provider ai.Provider, engine *latex.Engine, materializer *latex.Materializer, logger *errors.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		provider:     provider,
		engine:       engine,
		materializer: materializer,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Optimize rewrites the base resume against the job description and compiles
// the result. Generation failure aborts the run with no artifact; compile
// failure still persists the generated source plus diagnostics.
func (p *Pipeline) Optimize(ctx context.Context, input types.OptimizeInput) (output *types.OptimizeOutput, err error) {
	defer p.recoverPanic("optimize", &err)

	if err := validateOptimizeInput(input); err != nil {
		return nil, err
	}
	if p.provider == nil {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"Optimize requires a configured AI provider", nil)
	}

	raw, usage, err := p.generate(ctx, input)
	if err != nil {
		p.recordOptimized(ctx, false)
		return nil, err
	}
	if usage != nil {
		p.logger.Debug("Generation token usage",
			"input_tokens", usage.InputTokens,
			"output_tokens", usage.OutputTokens,
			"total_tokens", usage.TotalTokens)
	}

	source := latex.SanitizeDocument(raw)
	result, err := p.compileAndPersist(ctx, source, input.CompanyLabel)
	if err != nil {
		p.recordOptimized(ctx, false)
		return nil, err
	}

	p.recordOptimized(ctx, result.Success)
	return &types.OptimizeOutput{
		Success:       result.Success,
		ArtifactPath:  result.ArtifactPath,
		CandidateName: result.CandidateName,
		Style:         result.Style,
		Engine:        result.Engine,
		Diagnostics:   result.Diagnostics,
	}, nil
}

// Compile compiles a pre-existing LaTeX resume without touching the AI
// provider. The source is taken as-is.
func (p *Pipeline) Compile(ctx context.Context, input types.CompileInput) (output *types.CompileOutput, err error) {
	defer p.recoverPanic("compile", &err)

	if input.Source == "" {
		return nil, errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Resume source is required", nil)
	}

	result, err := p.compileAndPersist(ctx, input.Source, input.CompanyLabel)
	if err != nil {
		return nil, err
	}

	return &types.CompileOutput{
		Success:       result.Success,
		ArtifactPath:  result.ArtifactPath,
		CandidateName: result.CandidateName,
		Style:         result.Style,
		Engine:        result.Engine,
		Diagnostics:   result.Diagnostics,
	}, nil
}

// generate invokes the provider, wrapped in the AI operation metrics when a
// metrics sink is attached.
func (p *Pipeline) generate(ctx context.Context, input types.OptimizeInput) (string, *ai.TokenUsage, error) {
	if p.metrics == nil {
		return p.provider.OptimizeResume(ctx, input)
	}

	var raw string
	var usage *ai.TokenUsage
	err := p.metrics.TrackAIOperationWithTokens(ctx, "optimize", func(ctx context.Context) *observability.AIOperationResult {
		var aiErr error
		raw, usage, aiErr = p.provider.OptimizeResume(ctx, input)
		return &observability.AIOperationResult{
			Error:      aiErr,
			TokenUsage: (*observability.TokenUsage)(usage),
		}
	}, p.obsManager)
	return raw, usage, err
}

// runResult is the common outcome shape shared by both operations.
type runResult struct {
	Success       bool
	ArtifactPath  string
	CandidateName string
	Style         string
	Engine        string
	Diagnostics   []string
}

// compileAndPersist classifies the document, runs the engine cascade in a
// scoped temporary workspace, and persists either the PDF or the fallback
// pair. The workspace is always removed, success or not.
func (p *Pipeline) compileAndPersist(ctx context.Context, source, label string) (*runResult, error) {
	style := latex.DetectStyle(source)
	candidateName := latex.ExtractCandidateName(source)

	workspace, err := os.MkdirTemp("", "textailor-compile-*")
	if err != nil {
		return nil, errors.NewIOError("WORKSPACE_CREATE_FAILED",
			"Cannot create temporary compile workspace", err)
	}
	defer func() {
		if rmErr := os.RemoveAll(workspace); rmErr != nil {
			p.logger.Warn("Failed to remove compile workspace",
				"workspace", workspace, "error", rmErr.Error())
		}
	}()

	compileResult, err := p.engine.Compile(ctx, workspace, source, style)
	if err != nil {
		return nil, err
	}
	p.recordAttempts(ctx, compileResult)

	artifactName := p.materializer.ArtifactName(candidateName, label)
	result := &runResult{
		CandidateName: candidateName,
		Style:         string(style),
		Diagnostics:   compileResult.Diagnostics(),
	}

	if compileResult.Success() {
		artifactPath, err := p.materializer.PersistPDF(compileResult.PDFPath, artifactName)
		if err != nil {
			return nil, err
		}
		result.Success = true
		result.ArtifactPath = artifactPath
		result.Engine = compileResult.Engine
		p.recordArtifact(ctx, "pdf")
		return result, nil
	}

	artifactPath, err := p.materializer.PersistFallback(source, artifactName, compileResult.Diagnostics(), style)
	if err != nil {
		return nil, err
	}
	result.ArtifactPath = artifactPath
	p.recordArtifact(ctx, "fallback")
	return result, nil
}

func validateOptimizeInput(input types.OptimizeInput) error {
	if input.BaseResume == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Base resume is required", nil)
	}
	if input.JobDescription == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"Job description is required", nil)
	}
	return nil
}

// recoverPanic converts a panic inside an operation into an internal error
// so a malformed document can never take the whole process down.
func (p *Pipeline) recoverPanic(operation string, err *error) {
	r := recover()
	if r == nil {
		return
	}

	message := fmt.Sprintf("%v", r)
	if len(message) > panicMessageLimit {
		message = message[:panicMessageLimit]
	}

	p.logger.Error("Recovered from panic", "operation", operation, "panic", message)
	*err = errors.NewInternalError("OPERATION_PANIC",
		fmt.Sprintf("Unexpected failure during %s: %s", operation, message), nil)
}

func (p *Pipeline) recordOptimized(ctx context.Context, success bool) {
	if p.metrics != nil {
		p.metrics.RecordResumeOptimized(ctx, success, p.obsManager)
	}
}

func (p *Pipeline) recordAttempts(ctx context.Context, result *latex.CompileResult) {
	if p.metrics == nil || result == nil {
		return
	}
	for _, attempt := range result.Attempts {
		success := attempt.ExitOK && result.Engine == attempt.Engine
		p.metrics.RecordCompileAttempt(ctx, attempt.Engine, success, p.obsManager)
	}
}

func (p *Pipeline) recordArtifact(ctx context.Context, kind string) {
	if p.metrics != nil {
		p.metrics.RecordArtifact(ctx, kind, p.obsManager)
	}
}
