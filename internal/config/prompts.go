package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// PromptConfig holds configuration for customizable prompts
type PromptConfig struct {
	SystemPrompts SystemPrompts `mapstructure:"systemPrompts"`
	UserPrompts   UserPrompts   `mapstructure:"userPrompts"`
}

// SystemPrompts contains system-level instructions
type SystemPrompts struct {
	OptimizeResume     string `mapstructure:"optimizeResume"`
	OptimizeResumeFile string `mapstructure:"optimizeResumeFile"`
}

// UserPrompts contains user-level prompt templates
type UserPrompts struct {
	OptimizeResume     string `mapstructure:"optimizeResume"`
	OptimizeResumeFile string `mapstructure:"optimizeResumeFile"`
}

var (
	loadedPrompts     AllLoadedPrompts
	loadedPromptsOnce sync.Once
)

// LoadedPrompts holds the content of prompts loaded from files
type LoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// LoadedSystemPrompts contains loaded system-level instructions
type LoadedSystemPrompts struct {
	OptimizeResume string
}

// LoadedUserPrompts contains loaded user-level prompt templates
type LoadedUserPrompts struct {
	OptimizeResume string
}

// OperationLoadedPrompts holds loaded prompts for a specific operation
type OperationLoadedPrompts struct {
	SystemPrompts LoadedSystemPrompts
	UserPrompts   LoadedUserPrompts
}

// AllLoadedPrompts holds all loaded prompts for all operations
type AllLoadedPrompts struct {
	Global   LoadedPrompts
	Optimize OperationLoadedPrompts
}

// GetPromptsForOperation returns a copy of the loaded prompts for an operation type
func GetPromptsForOperation(operationType string) OperationLoadedPrompts {
	switch operationType {
	case "optimize":
		return loadedPrompts.Optimize
	default:
		return OperationLoadedPrompts{
			SystemPrompts: loadedPrompts.Global.SystemPrompts,
			UserPrompts:   loadedPrompts.Global.UserPrompts,
		}
	}
}

// loadPromptsFromFiles loads custom prompts from external files if file paths are specified
func (c *Config) loadPromptsFromFiles() error {
	log.Println("[CONFIG] Starting custom prompt loading from files")

	// Initialize loaded prompts exactly once
	loadedPromptsOnce.Do(func() {
		loadedPrompts = AllLoadedPrompts{}
	})

	// Load global prompts
	if c.AI.CustomPrompts.SystemPrompts.OptimizeResumeFile != "" {
		content, err := loadPromptFromFile(c.AI.CustomPrompts.SystemPrompts.OptimizeResumeFile, "system", "optimizeResume")
		if err != nil {
			return fmt.Errorf("failed to load global system prompts: %w", err)
		}
		loadedPrompts.Global.SystemPrompts.OptimizeResume = content
	}
	if c.AI.CustomPrompts.UserPrompts.OptimizeResumeFile != "" {
		content, err := loadPromptFromFile(c.AI.CustomPrompts.UserPrompts.OptimizeResumeFile, "user", "optimizeResume")
		if err != nil {
			return fmt.Errorf("failed to load global user prompts: %w", err)
		}
		loadedPrompts.Global.UserPrompts.OptimizeResume = content
	}

	// Load operation-specific prompts
	if c.AI.Optimize.CustomPrompts.SystemPrompts.OptimizeResumeFile != "" {
		content, err := loadPromptFromFile(c.AI.Optimize.CustomPrompts.SystemPrompts.OptimizeResumeFile, "system", "optimizeResume")
		if err != nil {
			return fmt.Errorf("failed to load optimize system prompts: %w", err)
		}
		loadedPrompts.Optimize.SystemPrompts.OptimizeResume = content
	}
	if c.AI.Optimize.CustomPrompts.UserPrompts.OptimizeResumeFile != "" {
		content, err := loadPromptFromFile(c.AI.Optimize.CustomPrompts.UserPrompts.OptimizeResumeFile, "user", "optimizeResume")
		if err != nil {
			return fmt.Errorf("failed to load optimize user prompts: %w", err)
		}
		loadedPrompts.Optimize.UserPrompts.OptimizeResume = content
	}

	return nil
}

// loadPromptFromFile loads a prompt from a file with proper error handling and logging
func loadPromptFromFile(filePath, promptType, operation string) (string, error) {
	// Resolve relative paths
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for %s %s prompt file '%s': %w", promptType, operation, filePath, err)
	}

	// Check if file exists
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", fmt.Errorf("%s %s prompt file not found: %s", promptType, operation, absPath)
	}

	// Read file content
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s %s prompt file '%s': %w", promptType, operation, absPath, err)
	}

	// Validate content is not empty
	trimmedContent := strings.TrimSpace(string(content))
	if trimmedContent == "" {
		return "", fmt.Errorf("%s %s prompt file '%s' is empty", promptType, operation, absPath)
	}

	// Log successful loading
	log.Printf("[CONFIG] Successfully loaded %s %s prompt from file: %s (%d characters)",
		promptType, operation, absPath, len(trimmedContent))

	return trimmedContent, nil
}

// validatePromptFiles validates that prompt files exist and are readable before loading
func (c *Config) validatePromptFiles() error {
	var validationErrors []string

	validateFile := func(filePath, promptType, operation string) {
		if filePath == "" {
			return // No file specified, skip validation
		}

		absPath, err := filepath.Abs(filePath)
		if err != nil {
			validationErrors = append(validationErrors, fmt.Sprintf("invalid path for %s %s prompt: %s", promptType, operation, filePath))
			return
		}

		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("%s %s prompt file not found: %s", promptType, operation, absPath))
		}
	}

	// Validate global prompt files
	validateFile(c.AI.CustomPrompts.SystemPrompts.OptimizeResumeFile, "system", "optimizeResume")
	validateFile(c.AI.CustomPrompts.UserPrompts.OptimizeResumeFile, "user", "optimizeResume")

	// Validate operation-specific prompt files
	validateFile(c.AI.Optimize.CustomPrompts.SystemPrompts.OptimizeResumeFile, "optimize system", "optimizeResume")
	validateFile(c.AI.Optimize.CustomPrompts.UserPrompts.OptimizeResumeFile, "optimize user", "optimizeResume")

	if len(validationErrors) > 0 {
		return fmt.Errorf("prompt file validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}

	return nil
}
