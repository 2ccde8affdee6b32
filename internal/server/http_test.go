package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"textailor/internal/config"
	"textailor/internal/errors"
)

func newTestServer(t *testing.T, appCfg *config.Config) *Server {
	t.Helper()
	logger, err := errors.New("error")
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	return NewServer(appCfg, ServerConfig{}, logger)
}

func writeTemplateFile(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name+".tex"), []byte(body), 0600); err != nil {
		t.Fatalf("failed to write template %s: %v", name, err)
	}
}

func TestInitTemplateStoreStartsWatcher(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "classic", `\documentclass{article}`)

	s := newTestServer(t, &config.Config{
		Templates: config.TemplatesConfig{Dir: dir, Watch: true},
	})
	if err := s.initTemplateStore(); err != nil {
		t.Fatalf("initTemplateStore() error = %v", err)
	}
	t.Cleanup(s.closeTemplateStore)

	if !s.Templates.IsWatching() {
		t.Error("watcher should be running when templates.watch is enabled")
	}
	if got := s.Templates.List(); len(got) != 1 || got[0] != "classic" {
		t.Errorf("List() = %v, want [classic]", got)
	}
}

func TestInitTemplateStoreWatchDisabled(t *testing.T) {
	s := newTestServer(t, &config.Config{
		Templates: config.TemplatesConfig{Dir: t.TempDir(), Watch: false},
	})
	if err := s.initTemplateStore(); err != nil {
		t.Fatalf("initTemplateStore() error = %v", err)
	}
	t.Cleanup(s.closeTemplateStore)

	if s.Templates.IsWatching() {
		t.Error("watcher should not run when templates.watch is disabled")
	}
}

func TestResolveBaseResume(t *testing.T) {
	dir := t.TempDir()
	writeTemplateFile(t, dir, "classic", `\documentclass{moderncv}`)

	s := newTestServer(t, &config.Config{
		Templates: config.TemplatesConfig{Dir: dir},
	})
	if err := s.initTemplateStore(); err != nil {
		t.Fatalf("initTemplateStore() error = %v", err)
	}
	t.Cleanup(s.closeTemplateStore)

	tests := []struct {
		name      string
		req       OptimizeRequest
		want      string
		expectErr bool
	}{
		{
			name: "inline resume",
			req:  OptimizeRequest{BaseResume: `\documentclass{article}`},
			want: `\documentclass{article}`,
		},
		{
			name: "template from store",
			req:  OptimizeRequest{Template: "classic"},
			want: `\documentclass{moderncv}`,
		},
		{
			name:      "unknown template",
			req:       OptimizeRequest{Template: "missing"},
			expectErr: true,
		},
		{
			name:      "neither provided",
			req:       OptimizeRequest{},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.resolveBaseResume(&tt.req)
			if tt.expectErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveBaseResume() error = %v", err)
			}
			if strings.TrimSpace(got) != tt.want {
				t.Errorf("resolveBaseResume() = %q, want %q", got, tt.want)
			}
		})
	}
}
