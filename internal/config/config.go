package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	PublicBaseURL      string
	LogLevel           string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisTLS              bool
	TranscriptMaxMessages int

	// Text generation. LLMUseLocal replaces the old compile-time provider switch.
	LLMUseLocal       bool
	LLMRemoteProvider string
	LLMFallbackPolicy string
	LLMTemperature    float64
	LLMMaxTokens      int
	LLMTimeout        time.Duration
	OllamaEndpoint    string
	OllamaModel       string
	GeminiAPIKey      string
	GeminiModel       string

	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	BedrockModelID     string

	// Scheduling bridge worker
	BridgeCommand      string
	BridgeArgs         []string
	BridgeTokenEnv     string
	BridgeTimeout      time.Duration
	BridgeServerName   string
	// BridgeSharedSecret guards POST /api/mcp. Empty leaves the endpoint unmounted.
	BridgeSharedSecret string

	// Webchat bot directory, JSON object keyed by bot id
	WebchatBotsJSON string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 20),

		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisTLS:              getEnvAsBool("REDIS_TLS", false),
		TranscriptMaxMessages: getEnvAsInt("TRANSCRIPT_MAX_MESSAGES", 250),

		LLMUseLocal:       getEnvAsBool("LLM_USE_LOCAL", true),
		LLMRemoteProvider: strings.ToLower(strings.TrimSpace(getEnv("LLM_REMOTE_PROVIDER", "gemini"))),
		LLMFallbackPolicy: strings.ToLower(strings.TrimSpace(getEnv("LLM_FALLBACK_POLICY", "documented"))),
		LLMTemperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.7),
		LLMMaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", 1024),
		LLMTimeout:        getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		OllamaEndpoint:    getEnv("OLLAMA_ENDPOINT", "http://localhost:11434"),
		OllamaModel:       getEnv("OLLAMA_MODEL", "llama3"),
		GeminiAPIKey:      getEnv("GEMINI_API_KEY", getEnv("GOOGLE_GEMINI_API_KEY", "")),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		AWSRegion:          getEnv("AWS_REGION", "eu-central-1"),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		BedrockModelID:     getEnv("BEDROCK_MODEL_ID", ""),

		BridgeCommand:      getEnv("BRIDGE_COMMAND", "/usr/local/bin/python3"),
		BridgeArgs:         getEnvAsList("BRIDGE_ARGS", []string{"calendly_mcp_server.py", "stdio"}),
		BridgeTokenEnv:     getEnv("BRIDGE_TOKEN_ENV", "CALENDLY_TOKEN"),
		BridgeTimeout:      getEnvAsDuration("BRIDGE_TIMEOUT", 30*time.Second),
		BridgeServerName:   getEnv("BRIDGE_SERVER_NAME", "calendly"),
		BridgeSharedSecret: getEnv("BRIDGE_SHARED_SECRET", ""),

		WebchatBotsJSON: getEnv("WEBCHAT_BOTS_JSON", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
