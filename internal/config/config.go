package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by ETHOS_ENV (or .env by default),
// then loads the corresponding .secret file if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("ETHOS_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	// Load main env file (ignore error if file doesn't exist)
	_ = godotenv.Load(envFile)

	// Load secret sidecar if it exists
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func AnthropicAPIKey() string {
	return os.Getenv("ANTHROPIC_API_KEY")
}

func OpenAIAPIKey() string {
	return os.Getenv("OPENAI_API_KEY")
}

// LLMProvider returns the configured LLM provider.
// Defaults to "anthropic" if not set.
// Valid values: anthropic, mock
func LLMProvider() string {
	p := os.Getenv("LLM_PROVIDER")
	if p == "" {
		return "anthropic"
	}
	return p
}

// LLMAPIKey returns the API key for the configured LLM provider.
func LLMAPIKey() string {
	switch LLMProvider() {
	case "mock":
		return ""
	default:
		return AnthropicAPIKey()
	}
}

// EmbeddingProvider returns the configured embedding provider.
// Defaults to "none": evaluations are stored without similarity vectors.
// Valid values: openai, mock, none
func EmbeddingProvider() string {
	p := os.Getenv("EMBEDDING_PROVIDER")
	if p == "" {
		return "none"
	}
	return p
}

// EmbeddingAPIKey returns the API key for the configured embedding provider.
func EmbeddingAPIKey() string {
	switch EmbeddingProvider() {
	case "mock", "none", "":
		return ""
	default:
		return OpenAIAPIKey()
	}
}

// StandardModel is the model used for standard and focused evaluations.
func StandardModel() string {
	m := os.Getenv("STANDARD_MODEL")
	if m == "" {
		return "claude-3-5-haiku-latest"
	}
	return m
}

// DeepModel is the model used for deep and deep_with_context evaluations.
func DeepModel() string {
	m := os.Getenv("DEEP_MODEL")
	if m == "" {
		return "claude-sonnet-4-20250514"
	}
	return m
}

// InstinctFocusedThreshold is the keyword density at or above which an
// evaluation routes to the focused tier. Defaults to 0.05.
func InstinctFocusedThreshold() float64 {
	v, err := strconv.ParseFloat(os.Getenv("INSTINCT_FOCUSED_THRESHOLD"), 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// InstinctDeepThreshold is the keyword density at or above which an
// evaluation routes to the deep tiers. Defaults to 0.10.
func InstinctDeepThreshold() float64 {
	v, err := strconv.ParseFloat(os.Getenv("INSTINCT_DEEP_THRESHOLD"), 64)
	if err != nil || v <= 0 {
		return 0
	}
	return v
}

// BatchConcurrency caps concurrent evaluations in one batch request.
// Defaults to 5.
func BatchConcurrency() int {
	n, err := strconv.Atoi(os.Getenv("BATCH_CONCURRENCY"))
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}

// LogLevel returns the log level (debug, info, warn, error).
// Defaults to "info" if not set.
func LogLevel() string {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return "info"
	}
	return level
}
