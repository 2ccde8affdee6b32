package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"textailor/internal/errors"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockLogger() *errors.Logger {
	// Return a real logger for testing since the interface is complex
	logger, _ := errors.New("debug")
	return logger
}

// Test parseVersionValue function
func TestParseVersionValue(t *testing.T) {
	tests := []struct {
		name        string
		input       interface{}
		path        string
		expected    int64
		expectError bool
	}{
		{
			name:     "int64 value",
			input:    int64(42),
			path:     "test/path",
			expected: 42,
		},
		{
			name:     "float64 value",
			input:    float64(42.0),
			path:     "test/path",
			expected: 42,
		},
		{
			name:     "string value",
			input:    "42",
			path:     "test/path",
			expected: 42,
		},
		{
			name:        "invalid string value",
			input:       "not-a-number",
			path:        "test/path",
			expectError: true,
		},
		{
			name:     "json number value",
			input:    json.Number("42"),
			path:     "test/path",
			expected: 42,
		},
		{
			name:        "unsupported type",
			input:       []string{"42"},
			path:        "test/path",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseVersionValue(tt.input, tt.path)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

// Test applyGeminiKeyToConfig function
func TestApplyGeminiKeyToConfig(t *testing.T) {
	config := &Config{
		AI: AIConfig{
			Optimize: OperationAIConfig{},
		},
	}

	geminiKey := "test-gemini-key"
	applyGeminiKeyToConfig(config, geminiKey)

	assert.Equal(t, geminiKey, config.AI.APIKey)
	assert.Equal(t, geminiKey, config.AI.Optimize.APIKey)
}

func TestApplyGeminiKeyToConfigWithExistingKeys(t *testing.T) {
	existingOptimizeKey := "existing-optimize-key"
	config := &Config{
		AI: AIConfig{
			Optimize: OperationAIConfig{APIKey: existingOptimizeKey},
		},
	}

	geminiKey := "test-gemini-key"
	applyGeminiKeyToConfig(config, geminiKey)

	assert.Equal(t, geminiKey, config.AI.APIKey)
	assert.Equal(t, existingOptimizeKey, config.AI.Optimize.APIKey) // Should not overwrite existing
}

// Test resolveVaultToken function
func TestResolveVaultToken(t *testing.T) {
	logger := newMockLogger()

	t.Run("token from config", func(t *testing.T) {
		config := VaultConfig{
			Token: "direct-token",
		}

		token, err := resolveVaultToken(config, logger)
		assert.NoError(t, err)
		assert.Equal(t, "direct-token", token)
	})

	t.Run("token from file", func(t *testing.T) {
		// Create temporary token file
		tmpDir := t.TempDir()
		tokenFile := filepath.Join(tmpDir, "vault-token")
		err := os.WriteFile(tokenFile, []byte("  file-token  \n"), 0600)
		require.NoError(t, err)

		config := VaultConfig{
			TokenFile: tokenFile,
		}

		token, err := resolveVaultToken(config, logger)
		assert.NoError(t, err)
		assert.Equal(t, "file-token", token) // Should be trimmed
	})

	t.Run("missing token file", func(t *testing.T) {
		config := VaultConfig{
			TokenFile: "/nonexistent/token/file",
		}

		_, err := resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to read vault token file")
	})

	t.Run("no token provided", func(t *testing.T) {
		config := VaultConfig{}

		_, err := resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})

	t.Run("empty token from file", func(t *testing.T) {
		// Create temporary empty token file
		tmpDir := t.TempDir()
		tokenFile := filepath.Join(tmpDir, "empty-token")
		err := os.WriteFile(tokenFile, []byte("   \n  \n"), 0600)
		require.NoError(t, err)

		config := VaultConfig{
			TokenFile: tokenFile,
		}

		_, err = resolveVaultToken(config, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "vault token is required")
	})
}

// Test ApplyVaultSecrets function with disabled vault
func TestApplyVaultSecretsDisabled(t *testing.T) {
	logger := newMockLogger()

	config := &Config{
		Vault: VaultConfig{
			Enabled: false,
		},
	}

	err := ApplyVaultSecrets(config, logger)
	assert.NoError(t, err)
}

// TestApplyVaultSecretsLoadsGeminiKey drives the whole secret-loading flow
// against a stub Vault server and checks the key reaches the merged
// per-operation configuration.
func TestApplyVaultSecretsLoadsGeminiKey(t *testing.T) {
	vault := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/sys/health":
			fmt.Fprint(w, `{"initialized":true,"sealed":false,"standby":false,"version":"1.20.0"}`)
		case "/v1/secret/data/textailor/gemini":
			fmt.Fprint(w, `{"data":{"data":{"api_key":"vault-gemini-key"},"metadata":{"version":1}}}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer vault.Close()

	cfg := &Config{
		AI: AIConfig{APIKey: "file-key"},
		Vault: VaultConfig{
			Enabled: true,
			Address: vault.URL,
			Token:   "test-token",
			Secrets: VaultSecrets{
				GeminiKey: "secret/data/textailor/gemini",
			},
		},
	}

	require.NoError(t, ApplyVaultSecrets(cfg, newMockLogger()))

	assert.Equal(t, "vault-gemini-key", cfg.AI.APIKey)
	assert.Equal(t, "vault-gemini-key", cfg.GetOptimizeConfig().APIKey)
}

func TestApplyVaultSecretsUnreachableServer(t *testing.T) {
	cfg := &Config{
		Vault: VaultConfig{
			Enabled: true,
			Address: "http://127.0.0.1:1",
			Token:   "test-token",
		},
	}

	assert.Error(t, ApplyVaultSecrets(cfg, newMockLogger()))
}

// Integration test for VaultClient methods (requires mock setup)
func TestVaultClientExtractSecretData(t *testing.T) {
	logger := newMockLogger()
	vc := &VaultClient{
		logger: logger,
	}

	tests := []struct {
		name        string
		secret      *api.Secret
		path        string
		expectError bool
		expected    map[string]any
	}{
		{
			name: "valid KVv2 secret",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"data": map[string]interface{}{
						"key1": "value1",
						"key2": "value2",
					},
				},
			},
			path:     "secret/test",
			expected: map[string]any{"key1": "value1", "key2": "value2"},
		},
		{
			name: "missing data field",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"metadata": map[string]interface{}{},
				},
			},
			path:        "secret/test",
			expectError: true,
		},
		{
			name: "data field wrong type",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"data": "not-a-map",
				},
			},
			path:        "secret/test",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := vc.extractSecretData(tt.secret, tt.path)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestVaultClientExtractSecretVersion(t *testing.T) {
	logger := newMockLogger()
	vc := &VaultClient{
		logger: logger,
	}

	tests := []struct {
		name        string
		secret      *api.Secret
		path        string
		expectError bool
		expected    int64
	}{
		{
			name: "valid version as int64",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"metadata": map[string]interface{}{
						"version": int64(42),
					},
				},
			},
			path:     "secret/test",
			expected: 42,
		},
		{
			name: "valid version as float64",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"metadata": map[string]interface{}{
						"version": float64(42),
					},
				},
			},
			path:     "secret/test",
			expected: 42,
		},
		{
			name: "missing metadata field",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"data": map[string]interface{}{},
				},
			},
			path:        "secret/test",
			expectError: true,
		},
		{
			name: "missing version field",
			secret: &api.Secret{
				Data: map[string]interface{}{
					"metadata": map[string]interface{}{
						"other": "value",
					},
				},
			},
			path:        "secret/test",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := vc.extractSecretVersion(tt.secret, tt.path)

			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			AI:    AIConfig{Timeout: 60, Provider: "gemini"},
			LaTeX: LaTeXConfig{OutputDir: "generated_resumes", RunTimeout: 60},
			Server: ServerConfig{
				Port: "8080",
			},
			App: AppConfig{
				DefaultFormat:    "text",
				SupportedFormats: []string{"json", "text"},
			},
		}
	}

	t.Run("valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing output dir", func(t *testing.T) {
		cfg := valid()
		cfg.LaTeX.OutputDir = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("non-positive run timeout", func(t *testing.T) {
		cfg := valid()
		cfg.LaTeX.RunTimeout = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("unsupported default format", func(t *testing.T) {
		cfg := valid()
		cfg.App.DefaultFormat = "yaml"
		assert.Error(t, cfg.Validate())
	})
}

func TestGetOptimizeConfigFallbacks(t *testing.T) {
	cfg := &Config{
		AI: AIConfig{
			Provider:        "gemini",
			Model:           "gemini-2.0-flash",
			Timeout:         60,
			APIKey:          "global-key",
			MaxRetries:      3,
			Temperature:     0.3,
			MaxOutputTokens: 4000,
			RequestsPerMin:  15,
		},
	}

	opCfg := cfg.GetOptimizeConfig()

	assert.Equal(t, "gemini", opCfg.Provider)
	assert.Equal(t, "gemini-2.0-flash", opCfg.Model)
	assert.Equal(t, "global-key", opCfg.APIKey)
	require.NotNil(t, opCfg.Temperature)
	assert.InDelta(t, 0.3, float64(*opCfg.Temperature), 0.001)
	require.NotNil(t, opCfg.MaxOutputTokens)
	assert.Equal(t, int32(4000), *opCfg.MaxOutputTokens)
	require.NotNil(t, opCfg.RequestsPerMin)
	assert.Equal(t, 15, *opCfg.RequestsPerMin)
}
