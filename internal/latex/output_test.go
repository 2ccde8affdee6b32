package latex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"textailor/internal/errors"
)

func testMaterializer(t *testing.T) *Materializer {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	m := NewMaterializer(t.TempDir(), logger)
	m.now = func() time.Time { return time.Date(2026, time.March, 9, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestArtifactName(t *testing.T) {
	m := testMaterializer(t)

	tests := []struct {
		name      string
		candidate string
		label     string
		expected  string
	}{
		{"plain label", "JANE_DOE", "Acme Corp", "JANE_DOE_Acme_Corp_Mar9"},
		{"punctuation replaced", "JANE_DOE", "Acme, Inc. (EU)", "JANE_DOE_Acme__Inc___EU__Mar9"},
		{"safe characters kept", "RESUME", "backend-eng_2", "RESUME_backend-eng_2_Mar9"},
		{"empty label", "RESUME", "", "RESUME_position_Mar9"},
		{"whitespace only label", "RESUME", "   ", "RESUME_position_Mar9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.ArtifactName(tt.candidate, tt.label)
			if got != tt.expected {
				t.Errorf("ArtifactName(%q, %q) = %q, want %q", tt.candidate, tt.label, got, tt.expected)
			}
		})
	}
}

func TestArtifactNameDeterministic(t *testing.T) {
	m := testMaterializer(t)
	first := m.ArtifactName("JANE_DOE", "Acme Corp")
	second := m.ArtifactName("JANE_DOE", "Acme Corp")
	if first != second {
		t.Errorf("same-day names differ: %q vs %q", first, second)
	}
}

func TestPersistPDF(t *testing.T) {
	m := testMaterializer(t)

	workspace := t.TempDir()
	pdfPath := filepath.Join(workspace, "resume.pdf")
	if err := os.WriteFile(pdfPath, []byte("first"), 0600); err != nil {
		t.Fatal(err)
	}

	dest, err := m.PersistPDF(pdfPath, "JANE_DOE_Acme_Corp_Mar9")
	if err != nil {
		t.Fatalf("PersistPDF() error = %v", err)
	}
	if filepath.Base(dest) != "JANE_DOE_Acme_Corp_Mar9.pdf" {
		t.Errorf("unexpected artifact name: %s", dest)
	}

	// Same name on the same day overwrites the earlier artifact.
	if err := os.WriteFile(pdfPath, []byte("second"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := m.PersistPDF(pdfPath, "JANE_DOE_Acme_Corp_Mar9"); err != nil {
		t.Fatalf("PersistPDF() overwrite error = %v", err)
	}
	content, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "second" {
		t.Errorf("overwrite did not replace artifact, got %q", content)
	}
}

func TestPersistFallback(t *testing.T) {
	m := testMaterializer(t)

	diags := []string{"[pdflatex] ! Undefined control sequence.", "[xelatex] not available"}
	sourcePath, err := m.PersistFallback(minimalSource, "RESUME_position_Mar9", diags, StyleGeneric)
	if err != nil {
		t.Fatalf("PersistFallback() error = %v", err)
	}

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(source) != minimalSource {
		t.Error("fallback source does not match generated document")
	}

	report, err := os.ReadFile(filepath.Join(m.outputDir, "RESUME_position_Mar9_errors.txt"))
	if err != nil {
		t.Fatalf("diagnostics report missing: %v", err)
	}
	for _, diag := range diags {
		if !strings.Contains(string(report), diag) {
			t.Errorf("report missing diagnostic %q", diag)
		}
	}
	if strings.Contains(string(report), "Hints for moderncv") {
		t.Error("generic failure should not carry moderncv hints")
	}
}

func TestPersistFallbackModernCVHints(t *testing.T) {
	m := testMaterializer(t)

	if _, err := m.PersistFallback(minimalSource, "RESUME_position_Mar9", nil, StyleModernCV); err != nil {
		t.Fatalf("PersistFallback() error = %v", err)
	}

	report, err := os.ReadFile(filepath.Join(m.outputDir, "RESUME_position_Mar9_errors.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(report), "No TeX engine was found") {
		t.Error("report should note the absent toolchain when there are no diagnostics")
	}
	if !strings.Contains(string(report), "Hints for moderncv") {
		t.Error("moderncv failure should carry remediation hints")
	}
}
