package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Provider selects the upstream vision model API.
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderOllama Provider = "ollama"
)

type Config struct {
	ListenAddr       string
	Provider         Provider
	APIKey           string
	BaseURL          string
	Model            string
	MaxTokens        int
	JSONMode         bool
	OllamaHost       string
	ImageMaxWidth    int
	ImageJPEGQuality int
	MaxImages        int
	ShareBackend     string
	SharePath        string
	S3Bucket         string
	S3Region         string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	LogLevel         string
	LogFormat        string
	LogFile          string
}

// LoadEnvFile loads variables from a .env file into the process environment.
// Variables already set win. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	_ = godotenv.Load(getEnv("KENGLEMA_ENV_FILE", ".env"))
}

func Load() *Config {
	provider := Provider(getEnv("LLM_PROVIDER", string(ProviderOpenAI)))
	return &Config{
		ListenAddr:       getEnv("LISTEN_ADDR", ":8080"),
		Provider:         provider,
		APIKey:           getEnv("LLM_API_KEY", ""),
		BaseURL:          getEnv("LLM_BASE_URL", defaultBaseURL(provider)),
		Model:            getEnv("LLM_MODEL", defaultModel(provider)),
		MaxTokens:        getEnvInt("LLM_MAX_TOKENS", 8192),
		JSONMode:         getEnvBool("LLM_JSON_MODE", false),
		OllamaHost:       getEnv("OLLAMA_HOST", "http://localhost:11434"),
		ImageMaxWidth:    getEnvInt("IMAGE_MAX_WIDTH", 1024),
		ImageJPEGQuality: getEnvInt("IMAGE_JPEG_QUALITY", 60),
		MaxImages:        getEnvInt("MAX_IMAGES", 10),
		ShareBackend:     getEnv("SHARE_BACKEND", "local"),
		SharePath:        getEnv("SHARE_PATH", "/data/shares"),
		S3Bucket:         getEnv("S3_BUCKET", ""),
		S3Region:         getEnv("S3_REGION", "auto"),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey:      getEnv("S3_SECRET_KEY", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
		LogFile:          getEnv("LOG_FILE", ""),
	}
}

// Validate rejects configurations the server cannot start with. A missing
// credential is not an error: analysis short-circuits to a placeholder instead.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderClaude, ProviderOllama:
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", c.MaxTokens)
	}
	if c.ImageMaxWidth <= 0 {
		return fmt.Errorf("IMAGE_MAX_WIDTH must be positive, got %d", c.ImageMaxWidth)
	}
	if c.ImageJPEGQuality < 1 || c.ImageJPEGQuality > 100 {
		return fmt.Errorf("IMAGE_JPEG_QUALITY must be in [1,100], got %d", c.ImageJPEGQuality)
	}
	if c.MaxImages <= 0 {
		return fmt.Errorf("MAX_IMAGES must be positive, got %d", c.MaxImages)
	}
	switch c.ShareBackend {
	case "local":
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when SHARE_BACKEND=s3")
		}
	default:
		return fmt.Errorf("unknown SHARE_BACKEND %q", c.ShareBackend)
	}
	return nil
}

// CredentialConfigured reports whether the selected provider can be called.
// Ollama runs locally and needs no key.
func (c *Config) CredentialConfigured() bool {
	if c.Provider == ProviderOllama {
		return true
	}
	return c.APIKey != ""
}

func defaultBaseURL(p Provider) string {
	if p == ProviderOpenAI {
		return "https://api.apiyi.com/v1"
	}
	// The SDK-backed providers use their own default endpoint.
	return ""
}

func defaultModel(p Provider) string {
	switch p {
	case ProviderGemini:
		return "gemini-1.5-flash"
	case ProviderClaude:
		return "claude-opus-4-6"
	case ProviderOllama:
		return "llava"
	default:
		return "gemini-3-flash-preview"
	}
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvBool(key string, defaultVal bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}
