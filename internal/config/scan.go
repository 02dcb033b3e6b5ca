package config

import (
	"time"
)

// DefaultIgnorePatterns are dependency and build directories never descended into
var DefaultIgnorePatterns = []string{
	"node_modules",
	"vendor",
	".venv",
	"venv",
	"__pycache__",
	"target",
	"dist",
	"build",
	".cache",
	"Pods",
	".terraform",
	".next",
}

// ScanConfig holds repository scan pipeline configuration
type ScanConfig struct {
	// Root is the directory tree walked for repositories
	Root string `mapstructure:"root"`

	// MaxDepth bounds how deep below Root the walk descends
	MaxDepth int `mapstructure:"max_depth"`

	// Ignore holds directory glob patterns that are never descended into
	Ignore []string `mapstructure:"ignore"`

	// CutoffDays drops repositories whose last commit is older than this; 0 disables
	CutoffDays int `mapstructure:"cutoff_days"`

	// Identity is the hosting account name used for fork detection
	Identity string `mapstructure:"identity"`

	// Workers is the extraction worker pool size
	Workers int `mapstructure:"workers"`

	// CommitWindowDays is the trailing window used for commit counts
	CommitWindowDays int `mapstructure:"commit_window_days"`

	// RepoTimeoutSeconds bounds the extraction of a single repository
	RepoTimeoutSeconds int `mapstructure:"repo_timeout"`
}

// DefaultScanConfig returns default scan configuration
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Root:               ".",
		MaxDepth:           4,
		Ignore:             DefaultIgnorePatterns,
		CutoffDays:         0,
		Identity:           "",
		Workers:            4,
		CommitWindowDays:   30,
		RepoTimeoutSeconds: 60,
	}
}

// RepoTimeout returns the per-repository timeout as a time.Duration
func (c *ScanConfig) RepoTimeout() time.Duration {
	if c.RepoTimeoutSeconds <= 0 {
		return 60 * time.Second
	}
	return time.Duration(c.RepoTimeoutSeconds) * time.Second
}

// IdentityHint returns the configured identity, or nil when none is set
func (c *ScanConfig) IdentityHint() *string {
	if c.Identity == "" {
		return nil
	}
	id := c.Identity
	return &id
}

// AIConfig holds the optional AI description probe configuration
type AIConfig struct {
	// Enabled turns the AI description probe on
	Enabled bool `mapstructure:"enabled"`

	// APIKey is read from ANTHROPIC_API_KEY when not set in the file
	APIKey string `mapstructure:"api_key"`

	// Model is the model identifier passed to the API
	Model string `mapstructure:"model"`

	// RequestsPerMinute rate limits description requests across workers
	RequestsPerMinute int `mapstructure:"requests_per_minute"`

	// TimeoutSeconds bounds one description request
	TimeoutSeconds int `mapstructure:"timeout"`
}

// IsConfigured returns true if the AI probe is enabled and has credentials
func (c *AIConfig) IsConfigured() bool {
	return c.Enabled && c.APIKey != ""
}

// Timeout returns the request timeout as a time.Duration
func (c *AIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
