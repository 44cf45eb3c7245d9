package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LLMConfig holds LLM provider configuration
type LLMConfig struct {
	Provider  string `yaml:"provider"` // "gemini", "openai", "anthropic", "perplexity", "ollama", "openrouter" or any OpenAI-compatible
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`   // custom endpoint; defaults per provider
	Model     string `yaml:"model"`      // defaults per provider
	APIFormat string `yaml:"api_format"` // "openai" or "anthropic"; defaults per provider
}

// StorageConfig selects where history is kept
type StorageConfig struct {
	Driver string `yaml:"driver"` // "sqlite" (default), "file" or "memory"
	Path   string `yaml:"path"`   // directory; defaults to the config dir
}

// Config holds application configuration
type Config struct {
	LLM                LLMConfig     `yaml:"llm"`
	Storage            StorageConfig `yaml:"storage"`
	Theme              string        `yaml:"theme"`
	SimpleExplanations bool          `yaml:"simple_explanations"`
	LogFile            string        `yaml:"log_file"`
}

// GetLLMConfig returns the effective LLM configuration. Environment
// variables override the config file.
func (c *Config) GetLLMConfig() LLMConfig {
	llm := c.LLM

	if key := os.Getenv("LLM_API_KEY"); key != "" {
		llm.APIKey = key
	}
	if provider := os.Getenv("LLM_PROVIDER"); provider != "" {
		llm.Provider = provider
	}
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		llm.BaseURL = baseURL
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		llm.Model = model
	}
	if format := os.Getenv("LLM_API_FORMAT"); format != "" {
		llm.APIFormat = format
	}

	// Legacy Gemini key variables
	if llm.APIKey == "" {
		for _, name := range []string{"GEMINI_API_KEY", "API_KEY"} {
			if key := os.Getenv(name); key != "" {
				llm.APIKey = key
				if llm.Provider == "" {
					llm.Provider = "gemini"
				}
				break
			}
		}
	}

	return llm
}

// Load loads configuration from config file and environment variables
// Environment variables take precedence over config file values
func Load() (*Config, error) {
	cfg := &Config{
		Theme: "default",
		Storage: StorageConfig{
			Driver: "sqlite",
		},
	}

	if err := cfg.loadFromFile(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	cfg.loadFromEnv()

	return cfg, nil
}

func (c *Config) loadFromFile() error {
	configPath := getConfigPath()
	if configPath == "" {
		return os.ErrNotExist
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if theme := os.Getenv("TRUTHGUARD_THEME"); theme != "" {
		c.Theme = theme
	}
	if driver := os.Getenv("TRUTHGUARD_STORAGE"); driver != "" {
		c.Storage.Driver = driver
	}
	if simple := os.Getenv("TRUTHGUARD_SIMPLE"); simple != "" {
		if b, err := strconv.ParseBool(simple); err == nil {
			c.SimpleExplanations = b
		}
	}
}

// StorageDir returns the directory history is kept in
func (c *Config) StorageDir() (string, error) {
	if c.Storage.Path != "" {
		return c.Storage.Path, nil
	}
	return EnsureConfigDir()
}

// LogPath returns where the TUI writes its log
func (c *Config) LogPath() (string, error) {
	if c.LogFile != "" {
		return c.LogFile, nil
	}
	dir, err := EnsureConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "truthguard.log"), nil
}

// getConfigPath returns the path to the config file
// Priority: $TRUTHGUARD_CONFIG > ~/.config/truthguard/config.yaml
func getConfigPath() string {
	if configPath := os.Getenv("TRUTHGUARD_CONFIG"); configPath != "" {
		return configPath
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "truthguard", "config.yaml")
}

// Path returns the config file location
func Path() string {
	return getConfigPath()
}

func GetConfigDir() (string, error) {
	configPath := getConfigPath()
	if configPath == "" {
		return "", fmt.Errorf("cannot determine config path")
	}
	return filepath.Dir(configPath), nil
}

// EnsureConfigDir ensures the config directory exists
func EnsureConfigDir() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}

	return configDir, nil
}

// SaveExampleConfig creates an example config file. It reports whether a
// new file was written.
func SaveExampleConfig() (bool, error) {
	if _, err := EnsureConfigDir(); err != nil {
		return false, err
	}

	configPath := getConfigPath()

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return false, nil // Already exists, don't overwrite
	}

	example := `# TruthGuard Configuration

# LLM used for analysis. Any OpenAI-compatible API works.
# Environment variables LLM_API_KEY, LLM_PROVIDER, LLM_BASE_URL, LLM_MODEL,
# LLM_API_FORMAT also work; GEMINI_API_KEY / API_KEY imply provider gemini.
llm:
  provider: "gemini"       # "gemini", "openai", "anthropic", "perplexity", "openrouter", "ollama", or custom
  api_key: ""              # required for cloud providers; not needed for ollama
  # base_url: ""           # override endpoint (defaults per provider)
  # model: ""              # override model (defaults per provider)
  # api_format: ""         # "openai" or "anthropic" (defaults per provider)

# Where analysis history is kept (last 50 analyses)
storage:
  driver: "sqlite"         # "sqlite", "file", or "memory" (not persisted)
  # path: ""               # directory; defaults to this config directory

# Optional: Color theme (default, catppuccin, dracula, nord, gruvbox)
theme: "default"

# Optional: Show the "explain like I'm 12" explanation by default
simple_explanations: false

# Optional: TUI log file (default: truthguard.log next to this file)
# log_file: ""
`

	if err := os.WriteFile(configPath, []byte(example), 0600); err != nil {
		return false, err
	}
	return true, nil
}

// Save writes user preferences back to the config file, keeping the LLM
// section (and its secrets) as it is on disk.
func (c *Config) Save() error {
	if _, err := EnsureConfigDir(); err != nil {
		return err
	}

	configPath := getConfigPath()

	existing := &Config{}
	if data, err := os.ReadFile(configPath); err == nil {
		yaml.Unmarshal(data, existing)
	}

	// Update only the fields we manage
	existing.Theme = c.Theme
	existing.SimpleExplanations = c.SimpleExplanations

	data, err := yaml.Marshal(existing)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# TruthGuard Configuration\n# Note: API keys can be set via environment variables or this file\n\n")
	return os.WriteFile(configPath, append(header, data...), 0600)
}
