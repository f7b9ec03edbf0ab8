package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/conspectus/conspectus/internal/outline"
)

// Config represents the application configuration
type Config struct {
	Environment string                  `toml:"environment"` // "development" or "production"
	Server      ServerConfig            `toml:"server"`
	Storage     StorageConfig           `toml:"storage"`
	Logging     LoggingConfig           `toml:"logging"`
	Outline     outline.DetectionConfig `toml:"outline"`
	Search      SearchConfig            `toml:"search"`
	Gemini      GeminiConfig            `toml:"gemini"`
	Claude      ClaudeConfig            `toml:"claude"`
	LLM         LLMConfig               `toml:"llm"`
	TTS         TTSConfig               `toml:"tts"`
	YouTube     YouTubeConfig           `toml:"youtube"`
	Scheduler   SchedulerConfig         `toml:"scheduler"`
	WebSocket   WebSocketConfig         `toml:"websocket"`
}

type ServerConfig struct {
	Port          int    `toml:"port"`
	Host          string `toml:"host"`
	MaxUploadSize int64  `toml:"max_upload_size"` // Maximum upload size in bytes
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Uploads  string `toml:"uploads"`  // Directory for uploaded PDFs
	Outlines string `toml:"outlines"` // Directory for persisted outline JSON
	Audio    string `toml:"audio"`    // Directory for generated podcast audio
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// SearchConfig contains configuration for heading search behavior
type SearchConfig struct {
	MaxResults    int     `toml:"max_results"`    // Maximum results returned per query (default: 50)
	MinScore      float64 `toml:"min_score"`      // Minimum relevance score to include a result (default: 0.1)
	SnippetLength int     `toml:"snippet_length"` // Words per result snippet (default: 20)
}

// GeminiConfig contains Google Gemini API configuration for AI services
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for AI operations (default: "gemini-2.5-flash")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// ClaudeConfig contains Anthropic Claude API configuration for AI services
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key for Claude operations
	Model       string  `toml:"model"`       // Model for AI operations (default: "claude-haiku-4-5")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 4096)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.3)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // "gemini" or "claude" (default: "gemini")
}

// TTSConfig contains Azure Speech text-to-speech configuration
type TTSConfig struct {
	Enabled        bool   `toml:"enabled"`         // Enable audio generation for podcasts
	Region         string `toml:"region"`          // Azure Speech region (e.g. "eastus")
	APIKey         string `toml:"api_key"`         // Azure Speech subscription key
	RequestTimeout string `toml:"request_timeout"` // Per-segment synthesis timeout (default: "30s")
}

// YouTubeConfig contains YouTube Data API configuration
type YouTubeConfig struct {
	APIKey     string `toml:"api_key"`     // YouTube Data API v3 key
	MaxResults int    `toml:"max_results"` // Default result count per search (default: 5)
	CacheTTL   string `toml:"cache_ttl"`   // Search cache TTL as duration string (default: "5m")
}

// SchedulerConfig contains configuration for background maintenance jobs
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`        // Enable background jobs
	SyncSchedule  string `toml:"sync_schedule"`  // Cron schedule for library/filesystem sync
	IndexSchedule string `toml:"index_schedule"` // Cron schedule for search index rebuild
}

// WebSocketConfig contains configuration for WebSocket event streaming
type WebSocketConfig struct {
	MinLevel        string   `toml:"min_level"`        // Minimum log level to broadcast ("debug", "info", "warn", "error")
	ExcludePatterns []string `toml:"exclude_patterns"` // Log message patterns to exclude from broadcasting
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in conspectus.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port:          8080,
			Host:          "localhost",
			MaxUploadSize: 50 * 1024 * 1024, // 50MB
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Filesystem: FilesystemConfig{
				Uploads:  "./data/uploads",
				Outlines: "./data/outlines",
				Audio:    "./data/audio",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Outline: outline.DefaultDetectionConfig(),
		Search: SearchConfig{
			MaxResults:    50,
			MinScore:      0.1,
			SnippetLength: 20,
		},
		Gemini: GeminiConfig{
			APIKey:      "", // User must provide API key (no fallback)
			Model:       "gemini-2.5-flash",
			Timeout:     "2m",
			RateLimit:   "4s", // 15 RPM for the free tier
			Temperature: 0.3,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-4-5",
			MaxTokens:   4096,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.3,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		TTS: TTSConfig{
			Enabled:        false, // Audio generation is opt-in; scripts work without it
			Region:         "eastus",
			RequestTimeout: "30s",
		},
		YouTube: YouTubeConfig{
			MaxResults: 5,
			CacheTTL:   "5m",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			SyncSchedule:  "0 */10 * * * *", // Every 10 minutes (cron format with seconds)
			IndexSchedule: "0 */30 * * * *", // Every 30 minutes
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
			},
		},
	}
}

// LoadFromFile loads configuration with priority: defaults -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files. Later files override
// earlier files. Priority system: CLI flags > Environment variables > Last
// config file > ... > First config file > Defaults
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: CONSPECTUS_ENV, fallback: GO_ENV)
	if env := os.Getenv("CONSPECTUS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("CONSPECTUS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CONSPECTUS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if maxUpload := os.Getenv("CONSPECTUS_SERVER_MAX_UPLOAD_SIZE"); maxUpload != "" {
		if m, err := strconv.ParseInt(maxUpload, 10, 64); err == nil {
			config.Server.MaxUploadSize = m
		}
	}

	// Storage configuration
	if badgerPath := os.Getenv("CONSPECTUS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if uploads := os.Getenv("CONSPECTUS_UPLOADS_DIR"); uploads != "" {
		config.Storage.Filesystem.Uploads = uploads
	}
	if outlines := os.Getenv("CONSPECTUS_OUTLINES_DIR"); outlines != "" {
		config.Storage.Filesystem.Outlines = outlines
	}
	if audio := os.Getenv("CONSPECTUS_AUDIO_DIR"); audio != "" {
		config.Storage.Filesystem.Audio = audio
	}

	// Logging configuration
	if level := os.Getenv("CONSPECTUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("CONSPECTUS_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("CONSPECTUS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Outline detection configuration
	if maxTime := os.Getenv("CONSPECTUS_OUTLINE_MAX_PROCESSING_TIME"); maxTime != "" {
		if _, err := time.ParseDuration(maxTime); err == nil {
			config.Outline.MaxProcessingTime = maxTime
		}
	}
	if parallel := os.Getenv("CONSPECTUS_OUTLINE_ENABLE_PARALLEL"); parallel != "" {
		if p, err := strconv.ParseBool(parallel); err == nil {
			config.Outline.EnableParallel = p
		}
	}

	// Search configuration
	if maxResults := os.Getenv("CONSPECTUS_SEARCH_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil {
			config.Search.MaxResults = mr
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("CONSPECTUS_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("CONSPECTUS_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("CONSPECTUS_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("CONSPECTUS_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("CONSPECTUS_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("CONSPECTUS_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // CONSPECTUS_ prefix takes priority
	}
	if model := os.Getenv("CONSPECTUS_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("CONSPECTUS_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("CONSPECTUS_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("CONSPECTUS_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("CONSPECTUS_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("CONSPECTUS_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// TTS configuration
	if enabled := os.Getenv("CONSPECTUS_TTS_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.TTS.Enabled = e
		}
	}
	if region := os.Getenv("CONSPECTUS_TTS_REGION"); region != "" {
		config.TTS.Region = region
	}
	if apiKey := os.Getenv("CONSPECTUS_TTS_API_KEY"); apiKey != "" {
		config.TTS.APIKey = apiKey
	} else if apiKey := os.Getenv("AZURE_SPEECH_KEY"); apiKey != "" {
		config.TTS.APIKey = apiKey
	}

	// YouTube configuration
	if apiKey := os.Getenv("CONSPECTUS_YOUTUBE_API_KEY"); apiKey != "" {
		config.YouTube.APIKey = apiKey
	} else if apiKey := os.Getenv("YOUTUBE_API_KEY"); apiKey != "" {
		config.YouTube.APIKey = apiKey
	}
	if maxResults := os.Getenv("CONSPECTUS_YOUTUBE_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil {
			config.YouTube.MaxResults = mr
		}
	}
	if ttl := os.Getenv("CONSPECTUS_YOUTUBE_CACHE_TTL"); ttl != "" {
		if _, err := time.ParseDuration(ttl); err == nil {
			config.YouTube.CacheTTL = ttl
		}
	}

	// Scheduler configuration
	if enabled := os.Getenv("CONSPECTUS_SCHEDULER_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Scheduler.Enabled = e
		}
	}
	if schedule := os.Getenv("CONSPECTUS_SCHEDULER_SYNC_SCHEDULE"); schedule != "" {
		config.Scheduler.SyncSchedule = schedule
	}

	// WebSocket configuration
	if minLevel := os.Getenv("CONSPECTUS_WEBSOCKET_MIN_LEVEL"); minLevel != "" {
		config.WebSocket.MinLevel = minLevel
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ValidateSchedule validates a cron schedule expression (seconds field
// included) and rejects intervals under one minute.
func ValidateSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 6 {
		return fmt.Errorf("invalid cron format: expected 6 fields")
	}

	if parts[0] == "*" {
		return fmt.Errorf("schedule must have minimum 1-minute interval (every second is not allowed)")
	}

	return nil
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// GeminiTimeout parses the configured Gemini timeout, falling back to 2m.
func (c *Config) GeminiTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Gemini.Timeout); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}

// ClaudeTimeout parses the configured Claude timeout, falling back to 2m.
func (c *Config) ClaudeTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Claude.Timeout); err == nil && d > 0 {
		return d
	}
	return 2 * time.Minute
}
