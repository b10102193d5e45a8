package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol).
	// All providers (huggingface, openai, deepseek, ollama) use the same config.
	LLMProvider string // Provider identifier: huggingface, openai, deepseek, ollama
	LLMAPIKey   string // LLM API key (HF token for huggingface)
	LLMBaseURL  string // LLM base URL (optional, has default per provider)
	LLMModel    string // Model name, e.g. m42-health/Llama3-Med42-8B
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)
	LLMRPM      int    // Client-side request rate limit per minute (0 = unlimited)

	Mode    string // dev, demo or prod
	Addr    string // bind address of server
	Port    int    // bind port of server
	Data    string // data directory (sqlite database lives here)
	Driver  string // database driver: sqlite or postgres
	DSN     string // database source name
	Version string // current version of the server
}

// Provider default configurations for the generation service.
// Used when LLM base URL or model is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"huggingface": {
		BaseURL: "https://router.huggingface.co/v1",
		Model:   "m42-health/Llama3-Med42-8B",
	},
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o-mini",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434/v1",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if a generation-service API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads the generation-service configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("HEALTHAGENT_LLM_PROVIDER", "huggingface")
	p.LLMAPIKey = getEnvOrDefault("HEALTHAGENT_LLM_API_KEY", os.Getenv("HF_TOKEN"))
	p.LLMBaseURL = getEnvOrDefault("HEALTHAGENT_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("HEALTHAGENT_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("HEALTHAGENT_LLM_TIMEOUT_SECONDS", 120)
	p.LLMRPM = getEnvOrDefaultInt("HEALTHAGENT_LLM_RPM", 0)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("unknown LLM provider, using default: huggingface", "provider", p.LLMProvider)
		p.LLMProvider = "huggingface"
	}
	if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
		if p.LLMBaseURL == "" {
			p.LLMBaseURL = defaults.BaseURL
		}
		if p.LLMModel == "" {
			p.LLMModel = defaults.Model
		}
	}
}

// Validate normalizes the profile and fills driver-dependent defaults.
func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/healthagent"
	}
	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return errors.Wrap(err, "invalid data directory")
	}
	p.Data = dataDir

	switch p.Driver {
	case "sqlite":
		if p.DSN == "" {
			dbFile := fmt.Sprintf("healthagent_%s.db", p.Mode)
			p.DSN = filepath.Join(p.Data, dbFile)
		}
	case "postgres":
		if p.DSN == "" {
			return errors.New("dsn is required for postgres driver")
		}
	default:
		return errors.Errorf("unsupported database driver: %s", p.Driver)
	}

	return nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}
	dataDir = filepath.Clean(dataDir)

	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}
