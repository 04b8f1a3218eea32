// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
// Таблица коэффициентов искр живёт отдельно, в YAML (см. SPARKS_CONFIG_PATH).
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	// Семейный чат, в котором работает бот (плюс личные сообщения участников)
	FamilyChatID int64 `envconfig:"FAMILY_CHAT_ID" required:"true"`
	// Telegram ID родителей через запятую
	ParentIDsRaw string  `envconfig:"PARENT_IDS" required:"true"`
	ParentIDs    []int64 `envconfig:"-"` // заполняется в Load

	// --- Database ---
	// В Docker хост БД — имя сервиса в docker-compose; локально DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"stepbank"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"stepbank"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"32"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- HTTP API (веб-дашборд и десктопный мост) ---
	HTTPAddr        string        `envconfig:"HTTP_ADDR" default:":8080"`
	HTTPCORSOrigins []string      `envconfig:"HTTP_CORS_ORIGINS" default:"http://localhost:3000,http://127.0.0.1:5500"`
	HTTPTimeout     time.Duration `envconfig:"HTTP_TIMEOUT" default:"15s"`

	// --- Parent auth ---
	ParentPasswordHash string        `envconfig:"PARENT_PASSWORD_HASH" required:"true"`
	ParentSessionTTL   time.Duration `envconfig:"PARENT_SESSION_TTL" default:"24h"`

	// --- Sparks ---
	// YAML с порогами и коэффициентами; пусто — стандартная таблица
	SparksConfigPath string `envconfig:"SPARKS_CONFIG_PATH" default:"configs/sparks.yaml"`
	// За сколько последних дней суммируются искры
	SparksWindowDays int `envconfig:"SPARKS_WINDOW_DAYS" default:"30"`
	// Сколько дней истории генерировать для демо-участников
	SparksDemoDays int `envconfig:"SPARKS_DEMO_DAYS" default:"120"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureMarketplaceEnabled bool `envconfig:"FEATURE_MARKETPLACE_ENABLED" default:"true"`
	FeatureScreenTimeEnabled  bool `envconfig:"FEATURE_SCREENTIME_ENABLED" default:"true"`
	FeatureDemoActivity       bool `envconfig:"FEATURE_DEMO_ACTIVITY" default:"false"`
	FeatureHTTPEnabled        bool `envconfig:"FEATURE_HTTP_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsParentID сообщает, указан ли пользователь в PARENT_IDS.
func (c *Config) IsParentID(userID int64) bool {
	for _, id := range c.ParentIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.FamilyChatID == 0 {
		return fmt.Errorf("FAMILY_CHAT_ID не задан или равен 0")
	}
	if len(c.ParentIDs) == 0 {
		return fmt.Errorf("PARENT_IDS должен содержать хотя бы одного родителя")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.SparksWindowDays < 0 {
		return fmt.Errorf("SPARKS_WINDOW_DAYS не может быть отрицательным (0 — вся история)")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("некорректные RATE_LIMIT_REQUESTS/RATE_LIMIT_WINDOW")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.ParentIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("PARENT_IDS parse: %w", err)
	}
	cfg.ParentIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
