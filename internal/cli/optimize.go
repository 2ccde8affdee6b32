package cli

import (
	"context"
	"fmt"

	"textailor/internal/ai"
	"textailor/internal/common"
	"textailor/internal/config"
	"textailor/internal/errors"
	"textailor/internal/latex"
	"textailor/internal/pipeline"
	"textailor/internal/templates"
	"textailor/internal/types"

	"github.com/spf13/cobra"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [resume-file] [job-description-file]",
	Short: "Optimize a resume for a job description and compile it to PDF",
	Long: `Optimize your LaTeX resume for a specific job description using AI and
compile the result with the local TeX toolchain. The command takes two
arguments: the path to your base resume (.tex) and the path to the job
description file. Use --template to load the base resume from the template
store instead of a file.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if optimizeTemplate != "" {
			return cobra.ExactArgs(1)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		// Apply default format if not specified
		if optimizeConfig.OutputFormat == "" {
			optimizeConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(optimizeConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runOptimize,
}

var (
	optimizeConfig   common.CommandConfig
	optimizeCompany  string
	optimizeTemplate string
)

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeConfig.OutputFile, "output", "o", "", "Report output file path (default: stdout)")
	optimizeCmd.Flags().StringVar(&optimizeConfig.OutputFormat, "format", "", "Report format: json or text")
	optimizeCmd.Flags().StringVarP(&optimizeCompany, "company", "c", "", "Company label used in the artifact filename")
	optimizeCmd.Flags().StringVarP(&optimizeTemplate, "template", "t", "", "Load the base resume from the template store by name")

	// Add completion for format flag
	_ = optimizeCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
	_ = optimizeCmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		logger := getLoggerFromContext(cmd.Context())
		store, err := templates.NewStore(cfg.Templates.Dir, logger)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return store.List(), cobra.ShellCompDirectiveNoFileComp
	})
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Create AI service for the optimize operation
	optimizeAIConfig := cfg.GetOptimizeConfig()
	aiService, err := ai.NewService(&optimizeAIConfig, "optimize", logger)
	if err != nil {
		return fmt.Errorf("failed to create AI service: %w", err)
	}

	// Resolve the base resume, either from the template store or from a file
	var templateResume string
	if optimizeTemplate != "" {
		store, err := templates.NewStore(cfg.Templates.Dir, logger)
		if err != nil {
			return err
		}
		templateResume, err = store.Get(optimizeTemplate)
		if err != nil {
			return err
		}
	}

	createInput := func(contents []string) (types.OptimizeInput, error) {
		if templateResume != "" {
			if len(contents) != 1 {
				return types.OptimizeInput{}, fmt.Errorf("expected 1 file path with --template, got %d", len(contents))
			}
			return types.OptimizeInput{
				BaseResume:     templateResume,
				JobDescription: contents[0],
				CompanyLabel:   optimizeCompany,
			}, nil
		}
		if len(contents) != 2 {
			return types.OptimizeInput{}, fmt.Errorf("expected 2 file paths, got %d", len(contents))
		}
		return types.OptimizeInput{
			BaseResume:     contents[0],
			JobDescription: contents[1],
			CompanyLabel:   optimizeCompany,
		}, nil
	}

	logDetails := func(input types.OptimizeInput, cmdCfg common.CommandConfig) {
		logger.Info("Starting resume optimization",
			"resume_chars", len(input.BaseResume),
			"job_chars", len(input.JobDescription),
			"company", input.CompanyLabel,
			"output_format", cmdCfg.OutputFormat)
	}

	p := newPipeline(cfg, aiService, logger)
	optimizeOperation := func(ctx context.Context, input types.OptimizeInput) (types.OptimizeOutput, error) {
		output, err := p.Optimize(ctx, input)
		if err != nil {
			return types.OptimizeOutput{}, err
		}
		return *output, nil
	}

	err = common.RunPipelineCommand(
		cmd.Context(),
		logger,
		optimizeConfig,
		args,
		createInput,
		optimizeOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to optimize resume: %w", err)
	}
	logger.Info("Resume optimization completed")
	return nil
}

// newPipeline assembles the compile pipeline from configuration.
func newPipeline(cfg *config.Config, aiService *ai.Service, logger *errors.Logger) *pipeline.Pipeline {
	engine := latex.NewEngine(logger,
		latex.WithTimeouts(cfg.LaTeX.RunTimeout, cfg.LaTeX.ProbeTimeout),
		latex.WithArtifactValidation(cfg.LaTeX.ValidateArtifacts))
	materializer := latex.NewMaterializer(cfg.LaTeX.OutputDir, logger)

	var provider ai.Provider
	if aiService != nil {
		provider = aiService.Provider
	}
	return pipeline.New(provider, engine, materializer, logger)
}
