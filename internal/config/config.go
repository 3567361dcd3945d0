package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/juparave/gapaudit/internal/util"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	LLM        LLMConfig        `yaml:"llm"`
	Loader     LoaderConfig     `yaml:"loader"`
	Prompt     PromptConfig     `yaml:"prompt"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Reports    ReportsConfig    `yaml:"reports"`
	Server     ServerConfig     `yaml:"server"`
	Email      EmailConfig      `yaml:"email"`
	Log        LogConfig        `yaml:"log"`
	Verbose    bool             `yaml:"-"` // Set via CLI only
}

// LLMConfig holds model provider settings
type LLMConfig struct {
	Provider    string  `yaml:"provider" validate:"oneof=googleai openai"`
	Model       string  `yaml:"model" validate:"required"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"` // Custom API endpoint for OpenAI-compatible providers
	Temperature float32 `yaml:"temperature" validate:"gte=0,lte=2"`
}

// LoaderConfig controls how PDF content reaches the model
type LoaderConfig struct {
	Mode            string        `yaml:"mode" validate:"oneof=inline remote"` // inline: local text, remote: vendor file upload
	PollInterval    time.Duration `yaml:"poll_interval" validate:"gt=0"`
	PollMaxAttempts int           `yaml:"poll_max_attempts" validate:"gte=1"`
	TempDir         string        `yaml:"temp_dir"`
}

// PromptConfig controls prompt construction
type PromptConfig struct {
	TruncateMode string `yaml:"truncate_mode" validate:"oneof=truncate full"`
	MaxChars     int    `yaml:"max_chars" validate:"gte=0"`
	MaxFindings  int    `yaml:"max_findings" validate:"gte=1"`
	TemplatePath string `yaml:"template_path"`
}

// ExtractionConfig controls response parsing
type ExtractionConfig struct {
	Strictness         string              `yaml:"strictness" validate:"oneof=strict lenient"`
	EnforceMaxFindings bool                `yaml:"enforce_max_findings"`
	Aliases            map[string][]string `yaml:"aliases"`
}

// ReportsConfig holds report storage settings
type ReportsConfig struct {
	OutputDir string `yaml:"output_dir" validate:"required"`
	Format    string `yaml:"format" validate:"oneof=csv xlsx"`
}

// ServerConfig holds HTTP surface settings
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	MaxUploadSize   int64         `yaml:"max_upload_size" validate:"gt=0"`
	AllowedOrigins  []string      `yaml:"allowed_origins"` // empty allows any origin
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// EmailConfig holds email delivery settings
type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SMTPHost     string `yaml:"smtp_host"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
	FromAddress  string `yaml:"from_address"`
	FromName     string `yaml:"from_name"`
	ToAddress    string `yaml:"to_address"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "googleai",
			Model:       "gemini-1.5-flash",
			Temperature: 0.1,
		},
		Loader: LoaderConfig{
			Mode:            "inline",
			PollInterval:    2 * time.Second,
			PollMaxAttempts: 60,
		},
		Prompt: PromptConfig{
			TruncateMode: "truncate",
			MaxChars:     10000,
			MaxFindings:  4,
		},
		Extraction: ExtractionConfig{
			Strictness: "lenient",
		},
		Reports: ReportsConfig{
			OutputDir: "reports",
			Format:    "csv",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadSize:   20 << 20,
			ShutdownTimeout: 10 * time.Second,
		},
		Email: EmailConfig{
			SMTPPort: 587,
			FromName: "Regulatory Gap Auditor",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from file and merges with defaults.
// A .env file in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := DefaultConfig()

	// Determine config file path
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return cfg, nil // Use defaults if can't find home
		}
		path = filepath.Join(homeDir, ".config", "gapaudit", "config.yaml")
	}

	path = util.ExpandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Use defaults if file doesn't exist
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Reports.OutputDir = util.ExpandPath(cfg.Reports.OutputDir)
	cfg.Prompt.TemplatePath = util.ExpandPath(cfg.Prompt.TemplatePath)
	cfg.Loader.TempDir = util.ExpandPath(cfg.Loader.TempDir)

	return cfg, nil
}

// Validate checks if the configuration is valid and resolves the API key
// from the environment when the file leaves it empty.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.LLM.APIKey == "" {
		c.LLM.APIKey = apiKeyFromEnv(c.LLM.Provider)
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("api_key is required (set llm.api_key or the provider's API key variable)")
	}

	if c.Loader.Mode == "remote" && c.LLM.Provider != "googleai" {
		return fmt.Errorf("loader mode remote requires the googleai provider")
	}

	if c.Email.Enabled {
		if c.Email.SMTPHost == "" {
			return fmt.Errorf("smtp_host is required when email is enabled")
		}
		if c.Email.ToAddress == "" {
			return fmt.Errorf("to_address is required when email is enabled")
		}
		if c.Email.FromAddress == "" {
			return fmt.Errorf("from_address is required when email is enabled")
		}
	}

	return nil
}

func apiKeyFromEnv(provider string) string {
	var names []string
	switch provider {
	case "openai":
		names = []string{"OPENAI_API_KEY", "ZHIPU_API_KEY"}
	default:
		names = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	}
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}
