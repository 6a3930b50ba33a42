package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfidenceThreshold is shared by the confidence gate and the
// verifying capability's needs_review derivation. Both must use the same
// value; a run must never be simultaneously "verified" and "needing review".
const DefaultConfidenceThreshold = 0.85

// DefaultStageTimeout bounds every external capability call.
const DefaultStageTimeout = 45 * time.Second

// Config holds the application configuration.
type Config struct {
	GoogleAPIKey    string
	GroqAPIKey      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	ConfidenceThreshold float64
	StageTimeout        time.Duration
	EvidenceDir         string

	Capabilities CapabilityBindings
	ConfigDir    string
}

// Binding names the adapter and model serving one reasoning capability.
type Binding struct {
	Adapter string `yaml:"adapter"`
	Model   string `yaml:"model"`
}

// CapabilityBindings maps each pipeline capability to a provider.
type CapabilityBindings struct {
	Route   Binding `yaml:"route"`
	Solve   Binding `yaml:"solve"`
	Verify  Binding `yaml:"verify"`
	Explain Binding `yaml:"explain"`
}

// FileConfig represents the structure of ~/.proofgate/config.yaml
type FileConfig struct {
	APIKeys  APIKeysConfig      `yaml:"api_keys"`
	Pipeline PipelineFileConfig `yaml:"pipeline"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Google    string `yaml:"google"`
	Groq      string `yaml:"groq"`
	OpenAI    string `yaml:"openai"`
	Anthropic string `yaml:"anthropic"`
}

// PipelineFileConfig holds pipeline tuning from file.
type PipelineFileConfig struct {
	ConfidenceThreshold float64            `yaml:"confidence_threshold,omitempty"`
	StageTimeoutSeconds int                `yaml:"stage_timeout_seconds,omitempty"`
	EvidenceDir         string             `yaml:"evidence_dir,omitempty"`
	Capabilities        CapabilityBindings `yaml:"capabilities,omitempty"`
}

// Load reads configuration from the config file and environment variables.
// Environment variables take precedence over file configuration.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	return loadFrom(configDir, filepath.Join(configDir, "config.yaml"))
}

// LoadFile reads configuration from a specific file, with environment
// variables still taking precedence for API keys.
func LoadFile(path string) (*Config, error) {
	return loadFrom(filepath.Dir(path), path)
}

func loadFrom(configDir, path string) (*Config, error) {
	fileConfig := loadFileConfig(path)

	cfg := &Config{
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		GroqAPIKey:      getEnvOrDefault("GROQ_API_KEY", fileConfig.APIKeys.Groq),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),

		ConfidenceThreshold: fileConfig.Pipeline.ConfidenceThreshold,
		StageTimeout:        time.Duration(fileConfig.Pipeline.StageTimeoutSeconds) * time.Second,
		EvidenceDir:         fileConfig.Pipeline.EvidenceDir,
		Capabilities:        fileConfig.Pipeline.Capabilities,
		ConfigDir:           configDir,
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.ConfidenceThreshold <= 0 || cfg.ConfidenceThreshold > 1 {
		cfg.ConfidenceThreshold = DefaultConfidenceThreshold
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = DefaultStageTimeout
	}
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "google":
		return c.GoogleAPIKey != ""
	case "groq":
		return c.GroqAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "anthropic":
		return c.AnthropicAPIKey != ""
	default:
		return false
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".proofgate")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
