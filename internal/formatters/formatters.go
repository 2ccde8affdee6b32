package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"textailor/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "OptimizeOutput", &OptimizeTextFormatter{})
	registry.RegisterFormatter("text", "CompileOutput", &CompileTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.OptimizeOutput:
		return "OptimizeOutput"
	case types.CompileOutput:
		return "CompileOutput"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// OptimizeTextFormatter handles text formatting for optimize results
type OptimizeTextFormatter struct{}

func (otf *OptimizeTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.OptimizeOutput)
	if !ok {
		return "", fmt.Errorf("expected OptimizeOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME OPTIMIZATION ===\n\n")
	writeRunReport(&output, result.Success, result.ArtifactPath, result.CandidateName,
		result.Style, result.Engine, result.Diagnostics)

	return output.String(), nil
}

func (otf *OptimizeTextFormatter) SupportedType() string {
	return "OptimizeOutput"
}

// CompileTextFormatter handles text formatting for compile-only results
type CompileTextFormatter struct{}

func (ctf *CompileTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.CompileOutput)
	if !ok {
		return "", fmt.Errorf("expected CompileOutput, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME COMPILATION ===\n\n")
	writeRunReport(&output, result.Success, result.ArtifactPath, result.CandidateName,
		result.Style, result.Engine, result.Diagnostics)

	return output.String(), nil
}

func (ctf *CompileTextFormatter) SupportedType() string {
	return "CompileOutput"
}

// writeRunReport renders the fields shared by optimize and compile reports.
func writeRunReport(output *strings.Builder, success bool, artifactPath, candidateName, style, engine string, diagnostics []string) {
	if success {
		output.WriteString("Status: PDF generated\n")
	} else {
		output.WriteString("Status: compilation failed, LaTeX source saved\n")
	}

	output.WriteString(fmt.Sprintf("Candidate: %s\n", candidateName))
	output.WriteString(fmt.Sprintf("Style: %s\n", style))
	if engine != "" {
		output.WriteString(fmt.Sprintf("Engine: %s\n", engine))
	}
	output.WriteString(fmt.Sprintf("Artifact: %s\n", artifactPath))

	if len(diagnostics) > 0 {
		output.WriteString("\n=== DIAGNOSTICS ===\n")
		for _, diag := range diagnostics {
			output.WriteString(diag)
			output.WriteString("\n---\n")
		}
	}
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
