package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config — конфигурация движка.
type Config struct {
	// Engine — параметры планировщика.
	Engine EngineConfig `yaml:"engine"`

	// Retry — параметры retry-политики.
	Retry RetryConfig `yaml:"retry"`

	// BrowserPool — параметры пула браузерных сессий.
	BrowserPool PoolConfig `yaml:"browser_pool"`

	// Model — параметры LLM-провайдера.
	Model ModelConfig `yaml:"model"`

	// Archive — архив планов в PostgreSQL.
	Archive ArchiveConfig `yaml:"archive"`

	// Events — публикация событий в RabbitMQ.
	Events EventsConfig `yaml:"events"`

	// ReportDir — директория для markdown-отчётов.
	ReportDir string `yaml:"report_dir"`

	// MetricsAddr — адрес HTTP-сервера /metrics и /healthz.
	MetricsAddr string `yaml:"metrics_addr"`
}

// EngineConfig — параметры планировщика.
type EngineConfig struct {
	// MaxConcurrentTasks — предел параллелизма батча.
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks"`

	// BatchTimeout — таймаут одного батча.
	BatchTimeout Duration `yaml:"batch_timeout"`

	// FailureThreshold — доля отказов, прерывающая план.
	FailureThreshold float64 `yaml:"failure_threshold"`
}

// RetryConfig — параметры retry-политики.
type RetryConfig struct {
	// MaxRetries — бюджет повторов по умолчанию.
	MaxRetries int `yaml:"max_retries"`

	// BaseDelay — базовая задержка.
	BaseDelay Duration `yaml:"base_delay"`

	// MaxDelay — верхняя граница задержки.
	MaxDelay Duration `yaml:"max_delay"`

	// Strategy — стратегия backoff.
	Strategy string `yaml:"strategy"`

	// Jitter — добавлять случайный запас.
	Jitter bool `yaml:"jitter"`

	// BreakerEnabled — включить circuit breaker.
	BreakerEnabled bool `yaml:"breaker_enabled"`

	// BreakerThreshold — ошибок подряд до открытия цепи.
	BreakerThreshold int `yaml:"breaker_threshold"`

	// BreakerRecovery — время до пробного вызова.
	BreakerRecovery Duration `yaml:"breaker_recovery"`
}

// PoolConfig — параметры пула ресурсов.
type PoolConfig struct {
	// MinSize — ресурсов создаётся заранее.
	MinSize int `yaml:"min_size"`

	// MaxSize — максимум ресурсов.
	MaxSize int `yaml:"max_size"`

	// MaxUses — использований до пересоздания.
	MaxUses int `yaml:"max_uses"`

	// MaxIdleTime — простой до уничтожения.
	MaxIdleTime Duration `yaml:"max_idle_time"`

	// AcquireTimeout — ожидание свободного ресурса.
	AcquireTimeout Duration `yaml:"acquire_timeout"`
}

// ModelConfig — параметры LLM-провайдера (openai-совместимого).
type ModelConfig struct {
	// APIKey — ключ API (переопределяется OPENAI_API_KEY).
	APIKey string `yaml:"api_key"`

	// Model — имя модели.
	Model string `yaml:"model"`

	// BaseURL — адрес openai-совместимого провайдера.
	BaseURL string `yaml:"base_url"`
}

// ArchiveConfig — архив планов.
type ArchiveConfig struct {
	// Enabled — писать планы и итоги в PostgreSQL.
	Enabled bool `yaml:"enabled"`
}

// EventsConfig — события в RabbitMQ.
type EventsConfig struct {
	// Enabled — публиковать события жизненного цикла.
	Enabled bool `yaml:"enabled"`
}

// Default возвращает конфигурацию со значениями по умолчанию.
func Default() Config {
	return Config{
		Engine: EngineConfig{
			MaxConcurrentTasks: 3,
			BatchTimeout:       Duration(300 * time.Second),
			FailureThreshold:   0.3,
		},
		Retry: RetryConfig{
			MaxRetries:       3,
			BaseDelay:        Duration(time.Second),
			MaxDelay:         Duration(time.Minute),
			Strategy:         "exponential_backoff",
			Jitter:           true,
			BreakerThreshold: 5,
			BreakerRecovery:  Duration(time.Minute),
		},
		BrowserPool: PoolConfig{
			MaxSize:        3,
			MaxUses:        10,
			MaxIdleTime:    Duration(5 * time.Minute),
			AcquireTimeout: Duration(30 * time.Second),
		},
		Model: ModelConfig{
			Model: "gpt-4o-mini",
		},
		ReportDir:   "reports",
		MetricsAddr: ":9090",
	}
}

// Load читает конфигурацию из YAML-файла поверх дефолтов и применяет
// переопределения из окружения. path == "" — только дефолты и
// окружение.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv переопределяет отдельные значения переменными окружения.
func applyEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Model.APIKey = key
	}
	if model := os.Getenv("OPENAI_MODEL"); model != "" {
		cfg.Model.Model = model
	}
	if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
		cfg.Model.BaseURL = base
	}
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		cfg.MetricsAddr = addr
	}
	if dir := os.Getenv("REPORT_DIR"); dir != "" {
		cfg.ReportDir = dir
	}
}
