package cli

import (
	"context"
	"fmt"

	"textailor/internal/common"
	"textailor/internal/types"

	"github.com/spf13/cobra"
)

var compileCmd = &cobra.Command{
	Use:   "compile [resume-file]",
	Short: "Compile an existing LaTeX resume to PDF",
	Long: `Compile a pre-existing LaTeX resume to PDF without AI rewriting. The
engine cascade and artifact naming are the same as for optimize, so a resume
that fails to compile still ends up saved with a diagnostics report.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if compileConfig.OutputFormat == "" {
			compileConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(compileConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runCompile,
}

var (
	compileConfig  common.CommandConfig
	compileCompany string
)

func init() {
	compileCmd.Flags().StringVarP(&compileConfig.OutputFile, "output", "o", "", "Report output file path (default: stdout)")
	compileCmd.Flags().StringVar(&compileConfig.OutputFormat, "format", "", "Report format: json or text")
	compileCmd.Flags().StringVarP(&compileCompany, "company", "c", "", "Company label used in the artifact filename")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	createInput := func(contents []string) (types.CompileInput, error) {
		if len(contents) != 1 {
			return types.CompileInput{}, fmt.Errorf("expected 1 file path, got %d", len(contents))
		}
		return types.CompileInput{
			Source:       contents[0],
			CompanyLabel: compileCompany,
		}, nil
	}

	logDetails := func(input types.CompileInput, cmdCfg common.CommandConfig) {
		logger.Info("Starting resume compilation",
			"source_chars", len(input.Source),
			"company", input.CompanyLabel,
			"output_format", cmdCfg.OutputFormat)
	}

	// Compile-only runs never touch the AI provider
	p := newPipeline(cfg, nil, logger)
	compileOperation := func(ctx context.Context, input types.CompileInput) (types.CompileOutput, error) {
		output, err := p.Compile(ctx, input)
		if err != nil {
			return types.CompileOutput{}, err
		}
		return *output, nil
	}

	err := common.RunPipelineCommand(
		cmd.Context(),
		logger,
		compileConfig,
		args,
		createInput,
		compileOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to compile resume: %w", err)
	}
	logger.Info("Resume compilation completed")
	return nil
}
