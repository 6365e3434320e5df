// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero leaves the request bounded
	// only by the transport's own limits.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "financeflow/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// AIConfig holds settings for the Generative AI backend.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "gpt-4").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API base URL (OpenAI-compatible servers).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxTokens bounds the completion length (default 1000).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`

	// Temperature is the sampling temperature (default 0.3).
	Temperature float32 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// AnalysisBackend selects how the analysis client reaches a remote analyzer.
type AnalysisBackend string

const (
	BackendNone   AnalysisBackend = "none"
	BackendHTTP   AnalysisBackend = "http"
	BackendOpenAI AnalysisBackend = "openai"
)

// AnalysisConfig holds settings for the analysis client.
type AnalysisConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`
	AI         AIConfig `json:"ai" yaml:"ai" mapstructure:"ai"`

	// Backend selects the remote analyzer: none, http, or openai.
	Backend AnalysisBackend `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Endpoint is the URL of the remote analysis endpoint for the http backend.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// Token is sent as a bearer token to the http endpoint when set.
	Token string `json:"token,omitempty" yaml:"token,omitempty" mapstructure:"token"`

	// ExcerptLimit caps the characters of extracted text sent for analysis
	// (default 4000).
	ExcerptLimit int `json:"excerpt_limit" yaml:"excerpt_limit" mapstructure:"excerpt_limit"`
}

// ConversionConfig holds settings for the conversion engine.
type ConversionConfig struct {
	// InferNumbers emits numeric-looking cells as JSON numbers.
	InferNumbers bool `json:"infer_numbers" yaml:"infer_numbers" mapstructure:"infer_numbers"`

	// Markitdown enables the container-based converter for pdf and docx
	// sources. It needs docker or podman and the markitdown image.
	Markitdown bool `json:"markitdown" yaml:"markitdown" mapstructure:"markitdown"`

	// OutputDir is where the CLI writes converted files.
	OutputDir string `json:"output_dir" yaml:"output_dir" mapstructure:"output_dir"`
}

// UsageConfig holds the daily caps and the location of the usage database.
type UsageConfig struct {
	// ConversionLimit is the number of conversions allowed per day (default 3).
	ConversionLimit int `json:"conversion_limit" yaml:"conversion_limit" mapstructure:"conversion_limit"`

	// AnalysisLimit is the number of analyses allowed per day (default 1).
	AnalysisLimit int `json:"analysis_limit" yaml:"analysis_limit" mapstructure:"analysis_limit"`

	// DBPath is the SQLite file that holds the usage record.
	DBPath string `json:"db_path" yaml:"db_path" mapstructure:"db_path"`

	// Strict makes the workflow use an atomic check-and-increment.
	Strict bool `json:"strict" yaml:"strict" mapstructure:"strict"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes bounds multipart uploads (default 10 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
}

// Config groups all component configurations.
type Config struct {
	Conversion ConversionConfig `json:"conversion" yaml:"conversion" mapstructure:"conversion"`
	Analysis   AnalysisConfig   `json:"analysis" yaml:"analysis" mapstructure:"analysis"`
	Usage      UsageConfig      `json:"usage" yaml:"usage" mapstructure:"usage"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
}
