package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Amap     AmapConfig
	AI       AIConfig
	Search   SearchConfig
	Auth     AuthConfig
	Log      LogConfig
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Addr      string
	TraceMode bool
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host          string
	Port          string
	User          string
	Password      string
	DBName        string
	SSLMode       string
	MaxRetries    int
	RetryInterval time.Duration
}

// AmapConfig 高德 Web 服务配置
type AmapConfig struct {
	Key          string
	BaseURL      string
	PageSize     int
	SearchRadius int // 周边搜索半径 (米)
	MatchRadius  int // 按名称匹配时的搜索半径 (米)
	Timeout      time.Duration
}

// AIConfig DeepSeek 配置
type AIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Enabled 是否配置了 AI 服务
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// SearchConfig 多关键词搜索配置
type SearchConfig struct {
	MaxKeywords      int
	MaxResults       int
	KeywordTimeout   time.Duration
	Concurrency      int
	TranslationTTL   time.Duration
	TranslateByAI    bool
	HistoryPageLimit int
}

// AuthConfig JWT 配置
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// LogConfig 日志配置
type LogConfig struct {
	Level string
}

// DSN 返回数据库连接字符串
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=Asia/Shanghai",
		c.Host, c.User, c.Password, c.DBName, c.Port, c.SSLMode,
	)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.trace_mode", false)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.name", "ezymapdb")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_retries", 30)
	v.SetDefault("database.retry_interval", 2*time.Second)

	v.SetDefault("amap.key", "")
	v.SetDefault("amap.base_url", "https://restapi.amap.com")
	v.SetDefault("amap.page_size", 10)
	v.SetDefault("amap.search_radius", 1000)
	v.SetDefault("amap.match_radius", 100)
	v.SetDefault("amap.timeout", 10*time.Second)

	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "https://api.deepseek.com/v1/")
	v.SetDefault("ai.model", "deepseek-chat")
	v.SetDefault("ai.max_tokens", 1000)
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", 30*time.Second)

	v.SetDefault("search.max_keywords", 5)
	v.SetDefault("search.max_results", 20)
	v.SetDefault("search.keyword_timeout", 5*time.Second)
	v.SetDefault("search.concurrency", 5)
	v.SetDefault("search.translation_ttl", 24*time.Hour)
	v.SetDefault("search.translate_by_ai", true)
	v.SetDefault("search.history_page_limit", 50)

	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
}

// Load 加载配置 (默认值 < config.yaml < 环境变量 EZYMAP_*)
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("ezymap")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:      v.GetString("server.addr"),
			TraceMode: v.GetBool("server.trace_mode"),
		},
		Database: DatabaseConfig{
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			DBName:        v.GetString("database.name"),
			SSLMode:       v.GetString("database.sslmode"),
			MaxRetries:    v.GetInt("database.max_retries"),
			RetryInterval: v.GetDuration("database.retry_interval"),
		},
		Amap: AmapConfig{
			Key:          v.GetString("amap.key"),
			BaseURL:      strings.TrimRight(v.GetString("amap.base_url"), "/"),
			PageSize:     v.GetInt("amap.page_size"),
			SearchRadius: v.GetInt("amap.search_radius"),
			MatchRadius:  v.GetInt("amap.match_radius"),
			Timeout:      v.GetDuration("amap.timeout"),
		},
		AI: AIConfig{
			APIKey:      v.GetString("ai.api_key"),
			BaseURL:     v.GetString("ai.base_url"),
			Model:       v.GetString("ai.model"),
			MaxTokens:   v.GetInt("ai.max_tokens"),
			Temperature: v.GetFloat64("ai.temperature"),
			Timeout:     v.GetDuration("ai.timeout"),
		},
		Search: SearchConfig{
			MaxKeywords:      v.GetInt("search.max_keywords"),
			MaxResults:       v.GetInt("search.max_results"),
			KeywordTimeout:   v.GetDuration("search.keyword_timeout"),
			Concurrency:      v.GetInt("search.concurrency"),
			TranslationTTL:   v.GetDuration("search.translation_ttl"),
			TranslateByAI:    v.GetBool("search.translate_by_ai"),
			HistoryPageLimit: v.GetInt("search.history_page_limit"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查必填项
func (c *Config) Validate() error {
	if c.Amap.Key == "" {
		return fmt.Errorf("缺少高德 Web 服务 Key (EZYMAP_AMAP_KEY)")
	}
	if c.Search.MaxKeywords <= 0 {
		return fmt.Errorf("search.max_keywords 必须大于 0")
	}
	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results 必须大于 0")
	}
	return nil
}

