package ai

import (
	"context"

	"textailor/internal/types"
)

// Provider is the text-generation collaborator behind resume optimization.
// OptimizeResume returns the raw model response; extracting and repairing the
// LaTeX document inside it is the pipeline's job, not the provider's.
type Provider interface {
	OptimizeResume(ctx context.Context, input types.OptimizeInput) (string, *TokenUsage, error)
	GetModelInfo(ctx context.Context) *ModelInfo
	Close() error
}
