package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"gopkg.in/yaml.v3"
)

// Suggestion backends.
const (
	SuggestionBackendModel = "model"
	SuggestionBackendStore = "store"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	AI        AIConfig        `yaml:"ai"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Assistant AssistantConfig `yaml:"assistant"`
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	APIKey      string   `yaml:"api_key"`
	AccessKey   string   `yaml:"access_key"`
	SecretKey   string   `yaml:"secret_key"`
	Model       string   `yaml:"model"`
	BaseURL     string   `yaml:"base_url"`
	Region      string   `yaml:"region"`
	Temperature *float64 `yaml:"temperature"`
	TopP        *float64 `yaml:"top_p"`
	MaxTokens   *int     `yaml:"max_tokens"`
}

// DatabaseConfig selects the listings store. Driver "memory" keeps listings in process.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// RedisConfig enables the Redis transcript store when URL is set.
type RedisConfig struct {
	URL        string        `yaml:"url"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// AssistantConfig 控制对话助手的行为。
type AssistantConfig struct {
	SuggestionBackend string            `yaml:"suggestion_backend"`
	SuggestionLimit   int               `yaml:"suggestion_limit"`
	TurnTimeout       time.Duration     `yaml:"turn_timeout"`
	Prompts           map[string]string `yaml:"prompts"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		AI: AIConfig{
			BaseURL: "https://ark.cn-beijing.volces.com/api/v3",
			Region:  "cn-beijing",
		},
		Database: DatabaseConfig{Driver: "memory"},
		Redis:    RedisConfig{SessionTTL: 24 * time.Hour},
		Assistant: AssistantConfig{
			SuggestionBackend: SuggestionBackendModel,
			SuggestionLimit:   5,
			TurnTimeout:       60 * time.Second,
		},
	}
}

// Load reads the optional YAML file at path, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	// 空 driver 等同于 memory
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "memory"
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Assistant.SuggestionBackend {
	case SuggestionBackendModel, SuggestionBackendStore:
	default:
		return fmt.Errorf("invalid suggestion backend %q (want %s or %s)", c.Assistant.SuggestionBackend, SuggestionBackendModel, SuggestionBackendStore)
	}
	if c.Assistant.TurnTimeout < 0 {
		return fmt.Errorf("turn timeout must not be negative")
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return fmt.Errorf("database driver %s requires DATABASE_DSN", c.Database.Driver)
	}
	return nil
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	return c.Model != "" && (c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != ""))
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("Ark 凭证或模型配置缺失，至少提供 ARK_API_KEY + Model 或 AK/SK 组合")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	cfg := &ark.ChatModelConfig{
		BaseURL:     c.BaseURL,
		Region:      c.Region,
		APIKey:      c.APIKey,
		AccessKey:   c.AccessKey,
		SecretKey:   c.SecretKey,
		Model:       c.Model,
		MaxTokens:   c.MaxTokens,
		Temperature: temperature,
		TopP:        topP,
	}

	return ark.NewChatModel(ctx, cfg)
}

func applyEnv(cfg *Config) error {
	addr, err := parseAddr(os.Getenv("PORT"), cfg.Server.Addr)
	if err != nil {
		return err
	}
	cfg.Server.Addr = addr

	setString(&cfg.AI.APIKey, "ARK_API_KEY")
	setString(&cfg.AI.AccessKey, "ARK_ACCESS_KEY")
	setString(&cfg.AI.SecretKey, "ARK_SECRET_KEY")
	setString(&cfg.AI.Model, "Model")
	setString(&cfg.AI.Model, "ARK_MODEL")
	setString(&cfg.AI.BaseURL, "ARK_BASE_URL")
	setString(&cfg.AI.Region, "ARK_REGION")

	if v, err := parseOptionalFloatEnv("ARK_TEMPERATURE"); err != nil {
		return err
	} else if v != nil {
		cfg.AI.Temperature = v
	}
	if v, err := parseOptionalFloatEnv("ARK_TOP_P"); err != nil {
		return err
	} else if v != nil {
		cfg.AI.TopP = v
	}
	if v, err := parseOptionalIntEnv("ARK_MAX_TOKENS"); err != nil {
		return err
	} else if v != nil {
		cfg.AI.MaxTokens = v
	}

	setString(&cfg.Database.Driver, "DATABASE_DRIVER")
	setString(&cfg.Database.DSN, "DATABASE_DSN")
	setString(&cfg.Redis.URL, "REDIS_URL")
	if err := setDuration(&cfg.Redis.SessionTTL, "SESSION_TTL"); err != nil {
		return err
	}

	setString(&cfg.Assistant.SuggestionBackend, "SUGGESTION_BACKEND")
	cfg.Assistant.SuggestionBackend = strings.ToLower(cfg.Assistant.SuggestionBackend)
	if err := setDuration(&cfg.Assistant.TurnTimeout, "ASSISTANT_TURN_TIMEOUT"); err != nil {
		return err
	}
	if v, err := parseOptionalIntEnv("SUGGESTION_LIMIT"); err != nil {
		return err
	} else if v != nil {
		cfg.Assistant.SuggestionLimit = *v
	}
	return nil
}

// parseAddr 解析服务器监听地址。
func parseAddr(port, fallback string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		return fallback, nil
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

func setString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func setDuration(dst *time.Duration, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	*dst = val
	return nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
