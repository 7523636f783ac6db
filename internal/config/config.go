// Package config loads the two-layer configuration every binary in this
// service reads at startup: environment variables for secrets and bind
// points, and a TOML prompt-pack file for per-language prompts.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration resolved at startup.
type Config struct {
	Env string

	ServerBindPoint string
	Port            string

	BotToken             string
	ApplicationID        string
	ApplicationPublicKey string

	ConfigDirectory string
	ConfigFileName  string

	MongoURI      string
	MongoDatabase string

	RedisAddr             string
	RedisStream           string
	PlanWorkerConcurrency int

	PlanDeadlineSeconds  int
	MaxPlannerRetryCount int
	MaxToolRetryCount    int

	GoogleAPIKey string

	OpenAIAPIKey     string
	OpenRouterAPIKey string
	VolcEngineAPIKey string
	MoonshotAPIKey   string
	StepFunAPIKey    string
	ZhipuAPIKey      string
	DeepSeekAPIKey   string
	AnthropicAPIKey  string

	OTel OTelConfig
}

// OTelConfig configures the OpenTelemetry exporters. Absent endpoint disables
// telemetry entirely, matching the ambient behavior carried from the
// platform this service's logging/tracing conventions are grounded on.
type OTelConfig struct {
	Endpoint       string
	Headers        string
	ServiceName    string
	ServiceVersion string
}

func (c OTelConfig) Enabled() bool {
	return c.Endpoint != ""
}

// Load reads environment variables (via .env in development) and returns the
// resolved Config. It is called once at process startup.
func Load() (Config, error) {
	env := getEnv("ENV", "development")
	if env == "development" {
		_ = godotenv.Load()
	}

	cfg := Config{
		Env:             env,
		ServerBindPoint: getEnv("SERVER_BIND_POINT", "0.0.0.0"),
		Port:            getEnv("PORT", "8080"),

		BotToken:             os.Getenv("BOT_TOKEN"),
		ApplicationID:        os.Getenv("APPLICATION_ID"),
		ApplicationPublicKey: os.Getenv("APPLICATION_PUBLIC_KEY"),

		ConfigDirectory: getEnv("CONFIG_DIRECTORY", "./config"),
		ConfigFileName:  getEnv("CONFIG_FILE_NAME", "prompts.toml"),

		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getEnv("MONGO_DATABASE", "travel_agency"),

		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisStream:           getEnv("REDIS_STREAM", "travel_agency_plans"),
		PlanWorkerConcurrency: getEnvInt("PLAN_WORKER_CONCURRENCY", 4),

		PlanDeadlineSeconds:  getEnvInt("PLAN_DEADLINE_SECONDS", 1800),
		MaxPlannerRetryCount: getEnvInt("MAX_PLANNER_RETRY_COUNT", 5),
		MaxToolRetryCount:    getEnvInt("MAX_TOOL_RETRY_COUNT", 3),

		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),

		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenRouterAPIKey: os.Getenv("OPEN_ROUTER_API_KEY"),
		VolcEngineAPIKey: os.Getenv("VOLC_ENGINE_API_KEY"),
		MoonshotAPIKey:   os.Getenv("MOONSHOT_API_KEY"),
		StepFunAPIKey:    os.Getenv("STEP_FUN_API_KEY"),
		ZhipuAPIKey:      os.Getenv("ZHIPU_API_KEY"),
		DeepSeekAPIKey:   os.Getenv("DEEP_SEEK_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),

		OTel: OTelConfig{
			Endpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			Headers:        os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "travel-agency"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
	}

	if cfg.BotToken == "" {
		return Config{}, fmt.Errorf("BOT_TOKEN is required")
	}
	if cfg.ApplicationPublicKey == "" {
		return Config{}, fmt.Errorf("APPLICATION_PUBLIC_KEY is required")
	}

	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}
