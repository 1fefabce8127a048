package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	AppHost  string
	HTTPPort string
	AppEnv   string
	LogLevel string

	// SessionSecret signs the session cookie issued by the auth collaborator.
	SessionSecret string

	// SearchServiceURL — if set, tickets are pushed to the search service for
	// indexing (POST /search/index/ticket) after create/update.
	SearchServiceURL string

	// KafkaBrokers/KafkaTopicTickets — if set, ticket lifecycle events are
	// produced best-effort to this topic.
	KafkaBrokers      []string
	KafkaTopicTickets string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// GLPI is the remote ticketing gateway configuration. All three values
	// must be set for the gateway to be considered configured; otherwise it
	// degrades to empty results.
	GLPI struct {
		APIURL    string
		AppToken  string
		UserToken string
	}

	// AI is the chat-completion endpoint used for suggestions and analysis.
	// BaseURL may point at any OpenAI-compatible server.
	AI struct {
		APIKey  string
		BaseURL string
		Model   string
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg := &Config{
		AppHost:           getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:          firstEnv("APP_PORT", "HTTP_PORT", "8080"),
		AppEnv:            getEnv("APP_ENV", "development"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		SessionSecret:     getEnv("SESSION_SECRET", "helpdesk-dev-secret"),
		SearchServiceURL:  getEnv("SEARCH_SERVICE_URL", ""),
		KafkaBrokers:      splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopicTickets: getEnv("KAFKA_TOPIC_TICKETS", ""),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "helpdesk")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.GLPI.APIURL = getEnv("GLPI_API_URL", "")
	cfg.GLPI.AppToken = getEnv("GLPI_APP_TOKEN", "")
	cfg.GLPI.UserToken = getEnv("GLPI_AUTH_TOKEN", "")

	cfg.AI.APIKey = getEnv("OPENAI_API_KEY", "")
	cfg.AI.BaseURL = getEnv("OPENAI_BASE_URL", "")
	cfg.AI.Model = getEnv("OPENAI_MODEL", "gpt-4o-mini")
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DB.Host == "" || c.DB.Database == "" {
		return errors.New("config: DB_HOST and DB_DATABASE are required")
	}
	if c.AppEnv == "production" {
		if c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
		if c.SessionSecret == "" || c.SessionSecret == "helpdesk-dev-secret" {
			return errors.New("config: in production SESSION_SECRET is required")
		}
	}
	return nil
}

func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// DSN builds the gorm connection string. connect_timeout bounds the dial at
// 15 seconds; pool sizing lives in database.Open.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s connect_timeout=15",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func splitList(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	for _, k := range keysAndDef[:len(keysAndDef)-1] {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
