package config

import (
	"fmt"
	"os"
	"strconv"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config 报警服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig

	// 行情数据源（Finnhub）
	Quote struct {
		BaseURL  string // Finnhub API 地址
		APIKey   string // API token
		Timeout  int    // 单次请求超时（秒）
		CacheTTL int    // 行情缓存 TTL（秒），0 表示不缓存
	}

	// 通知邮件（SMTP）
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string // 发件人，如 "Inkomba Alerts <alerts@inkomba.app>"
	}

	// 对账周期配置
	Reconcile struct {
		Interval    int // 周期间隔（秒），默认 300（5分钟）
		MaxRetries  int // Load 失败时整周期重试次数上限，默认 2
		Concurrency int // 每周期按 symbol 拉取行情的并发上限，默认 4
	}

	// HTTP API 配置
	HTTP struct {
		Addr string // 监听地址，默认 ":8085"
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置（带默认值）
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "inkomba")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Quote.BaseURL = getEnv("FINNHUB_BASE_URL", "https://finnhub.io/api/v1")
	cfg.Quote.APIKey = getEnv("FINNHUB_API_KEY", "")
	cfg.Quote.Timeout = getEnvInt("QUOTE_TIMEOUT", 10)
	cfg.Quote.CacheTTL = getEnvInt("QUOTE_CACHE_TTL", 60)

	cfg.SMTP.Host = getEnv("SMTP_HOST", "smtp.gmail.com")
	cfg.SMTP.Port = getEnvInt("SMTP_PORT", 587)
	cfg.SMTP.Username = getEnv("SMTP_USERNAME", "")
	cfg.SMTP.Password = getEnv("SMTP_PASSWORD", "")
	cfg.SMTP.From = getEnv("SMTP_FROM", "Inkomba Alerts <alerts@inkomba.app>")

	cfg.Reconcile.Interval = getEnvInt("RECONCILE_INTERVAL", 300)
	cfg.Reconcile.MaxRetries = getEnvInt("RECONCILE_MAX_RETRIES", 2)
	cfg.Reconcile.Concurrency = getEnvInt("RECONCILE_CONCURRENCY", 4)

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8085")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
