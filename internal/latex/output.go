package latex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"textailor/internal/errors"
)

// unsafeLabelChars matches every character that may not appear in an
// artifact filename label.
var unsafeLabelChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// moderncvHints is appended to the diagnostics file when a moderncv resume
// fails to compile; these are the failures users hit most often with that
// class.
const moderncvHints = `
Hints for moderncv documents:
  - moderncv needs a full TeX Live installation (texlive-full or the
    moderncv + fontawesome packages).
  - xelatex handles moderncv fonts best; make sure it is on your PATH.
  - Color-related errors usually mean the xcolor/moderncv color packages
    are missing or shell escape was blocked by a local security policy.
`

// Materializer owns the output directory: it decides the final artifact
// name and persists either the compiled PDF or, on failure, the generated
// source plus a diagnostics report. At most one artifact per call.
type Materializer struct {
	outputDir string
	logger    *errors.Logger
	now       func() time.Time
}

// NewMaterializer creates a materializer rooted at outputDir. The directory
// is created on demand.
func NewMaterializer(outputDir string, logger *errors.Logger) *Materializer {
	return &Materializer{
		outputDir: outputDir,
		logger:    logger,
		now:       time.Now,
	}
}

// ArtifactName builds the deterministic artifact base name:
// {candidate}_{sanitized label}_{date}. Calls on the same day with the same
// inputs produce the same name; the resulting overwrite is documented
// behavior, regenerating a resume replaces the previous one.
func (m *Materializer) ArtifactName(candidateName, label string) string {
	sanitized := unsafeLabelChars.ReplaceAllString(strings.TrimSpace(label), "_")
	if sanitized == "" {
		sanitized = "position"
	}
	return fmt.Sprintf("%s_%s_%s", candidateName, sanitized, m.now().Format("Jan2"))
}

// PersistPDF copies the compiled PDF from the compile workspace into the
// output directory under the artifact name and returns the final path.
func (m *Materializer) PersistPDF(pdfPath, artifactName string) (string, error) {
	if err := m.ensureOutputDir(); err != nil {
		return "", err
	}

	destPath := filepath.Join(m.outputDir, artifactName+".pdf")
	if err := copyFile(pdfPath, destPath); err != nil {
		return "", errors.NewIOError("ARTIFACT_COPY_FAILED",
			fmt.Sprintf("Cannot copy PDF to %s", destPath), err)
	}

	m.logger.Info("Artifact written", "path", destPath)
	return destPath, nil
}

// PersistFallback writes the generated source and a diagnostics report when
// every engine failed, so the generated content is never lost. It returns
// the path of the persisted source file.
func (m *Materializer) PersistFallback(source, artifactName string, diagnostics []string, style Style) (string, error) {
	if err := m.ensureOutputDir(); err != nil {
		return "", err
	}

	sourcePath := filepath.Join(m.outputDir, artifactName+".tex")
	if err := os.WriteFile(sourcePath, []byte(source), 0600); err != nil {
		return "", errors.NewIOError("ARTIFACT_WRITE_FAILED",
			fmt.Sprintf("Cannot write fallback source to %s", sourcePath), err)
	}

	var report strings.Builder
	report.WriteString("Compilation failed for every available TeX engine.\n\n")
	if len(diagnostics) == 0 {
		report.WriteString("No TeX engine was found on this system.\n")
	}
	for _, diag := range diagnostics {
		report.WriteString(diag)
		report.WriteString("\n\n")
	}
	if style == StyleModernCV {
		report.WriteString(moderncvHints)
	}

	errorsPath := filepath.Join(m.outputDir, artifactName+"_errors.txt")
	if err := os.WriteFile(errorsPath, []byte(report.String()), 0600); err != nil {
		return "", errors.NewIOError("ARTIFACT_WRITE_FAILED",
			fmt.Sprintf("Cannot write diagnostics to %s", errorsPath), err)
	}

	m.logger.Warn("Compilation failed, fallback source written",
		"source", sourcePath, "diagnostics", errorsPath)
	return sourcePath, nil
}

func (m *Materializer) ensureOutputDir() error {
	if err := os.MkdirAll(m.outputDir, 0750); err != nil {
		return errors.NewIOError("DIRECTORY_CREATE_FAILED",
			fmt.Sprintf("Cannot create output directory: %s", m.outputDir), err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
