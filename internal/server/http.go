package server

import (
	"fmt"
	"strings"
	"time"

	"textailor/internal/config"
	textailorErrors "textailor/internal/errors"
	"textailor/internal/latex"
	"textailor/internal/templates"
)

// OptimizeRequest represents the request body for the optimize endpoint.
// Either baseResume or template must be set; template names a resume in the
// server's template store.
type OptimizeRequest struct {
	BaseResume     string `json:"baseResume"`
	Template       string `json:"template"`
	JobDescription string `json:"jobDescription"`
	CompanyLabel   string `json:"companyLabel"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Compile pipeline components, shared across requests
	Engine       *latex.Engine
	Materializer *latex.Materializer

	// Resume template store, shared across requests
	Templates *templates.Store

	// Logger
	Logger *textailorErrors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *textailorErrors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	engine := latex.NewEngine(logger,
		latex.WithTimeouts(appCfg.LaTeX.RunTimeout, appCfg.LaTeX.ProbeTimeout),
		latex.WithArtifactValidation(appCfg.LaTeX.ValidateArtifacts))
	materializer := latex.NewMaterializer(appCfg.LaTeX.OutputDir, logger)

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Engine:         engine,
		Materializer:   materializer,
		Logger:         logger,
	}
}

// initTemplateStore builds the shared template store and starts the
// directory watcher when configured. A watch failure downgrades to a
// one-time scan rather than aborting startup.
func (s *Server) initTemplateStore() error {
	store, err := templates.NewStore(s.AppConfig.Templates.Dir, s.Logger)
	if err != nil {
		return err
	}

	if s.AppConfig.Templates.Watch {
		if err := store.Watch(); err != nil {
			s.Logger.Warn("Template watching unavailable",
				"dir", s.AppConfig.Templates.Dir,
				"error", err.Error())
		}
	}

	s.Templates = store
	return nil
}

// closeTemplateStore stops the template watcher if it is running.
func (s *Server) closeTemplateStore() {
	if s.Templates != nil {
		if err := s.Templates.Close(); err != nil {
			s.Logger.LogError(err, "Failed to stop template watcher")
		}
	}
}

// resolveBaseResume returns the resume source for a request, loading it from
// the template store when the request names a template.
func (s *Server) resolveBaseResume(req *OptimizeRequest) (string, error) {
	if strings.TrimSpace(req.Template) != "" {
		if s.Templates == nil {
			return "", fmt.Errorf("template store is not available")
		}
		return s.Templates.Get(req.Template)
	}
	if strings.TrimSpace(req.BaseResume) == "" {
		return "", fmt.Errorf("either baseResume or template is required")
	}
	return req.BaseResume, nil
}
