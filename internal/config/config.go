package config

import (
	"fmt"
	"net"
	"regexp"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/shopspring/decimal"
)

type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Log      LogConfig      `envPrefix:"LOG_"`
	Catalog  CatalogConfig  `envPrefix:"CATALOG_"`
	Cart     CartConfig     `envPrefix:"CART_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Kafka    KafkaConfig    `envPrefix:"KAFKA_"`
}

type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	// CORSOrigins is a regexp matched against the Origin header.
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"^https?://(localhost|127[.]0[.]0[.]1)(:[0-9]+)?$"`
	Pprof       bool   `env:"PPROF" envDefault:"false"`
	// StatsdAddr enables request timings over statsd when set.
	StatsdAddr string `env:"STATSD_ADDR"`
}

func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
	Dev   bool   `env:"DEV" envDefault:"false"`
}

type CatalogConfig struct {
	BaseURL    string        `env:"BASE_URL" envDefault:"https://api.escuelajs.co/api/v1"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
	RetryCount int           `env:"RETRY_COUNT" envDefault:"3"`
}

const (
	BackendMemory  = "memory"
	BackendMongoDB = "mongodb"
	BackendRedis   = "redis"
)

type CartConfig struct {
	ShippingFee decimal.Decimal `env:"SHIPPING_FEE" envDefault:"10"`
	// StoreBackend selects where session carts are persisted.
	StoreBackend string        `env:"STORE_BACKEND" envDefault:"memory"`
	SaveTimeout  time.Duration `env:"SAVE_TIMEOUT" envDefault:"5s"`
	LoadTimeout  time.Duration `env:"LOAD_TIMEOUT" envDefault:"5s"`
	// Carts nobody opened for IdleTTL and nobody watches are dropped from
	// memory every EvictInterval. Their persisted state is kept.
	IdleTTL       time.Duration `env:"IDLE_TTL" envDefault:"30m"`
	EvictInterval time.Duration `env:"EVICT_INTERVAL" envDefault:"1m"`
}

type DatabaseConfig struct {
	Hosts    []string `env:"HOSTS" envDefault:"localhost:27017"`
	Direct   bool     `env:"DIRECT" envDefault:"false"`
	Username string   `env:"USERNAME"`
	Password string   `env:"PASSWORD"`
	AuthDB   string   `env:"AUTH_DB" envDefault:"admin"`
	Database string   `env:"DATABASE" envDefault:"storefront"`
}

type RedisConfig struct {
	Addr      string        `env:"ADDR" envDefault:"localhost:6379"`
	Password  string        `env:"PASSWORD"`
	DB        int           `env:"DB" envDefault:"0"`
	KeyPrefix string        `env:"KEY_PREFIX" envDefault:"storefront:cart:"`
	TTL       time.Duration `env:"TTL" envDefault:"168h"`
}

type KafkaConfig struct {
	Enabled      bool     `env:"ENABLED" envDefault:"false"`
	Brokers      []string `env:"BROKERS" envDefault:"localhost:9092"`
	CartTopic    string   `env:"CART_TOPIC" envDefault:"storefront.cart"`
	SessionTopic string   `env:"SESSION_TOPIC" envDefault:"storefront.session"`
	GroupID      string   `env:"GROUP_ID" envDefault:"storefront-cart"`
	NumWorkers   int      `env:"NUM_WORKERS" envDefault:"4"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}
	return cfg
}

func (c *Config) validate() error {
	if _, err := regexp.Compile(c.Server.CORSOrigins); err != nil {
		return fmt.Errorf("invalid cors origins pattern: %w", err)
	}
	switch c.Cart.StoreBackend {
	case BackendMemory, BackendMongoDB, BackendRedis:
	default:
		return fmt.Errorf("unknown cart store backend %q", c.Cart.StoreBackend)
	}
	if c.Cart.ShippingFee.IsNegative() {
		return fmt.Errorf("shipping fee must not be negative: %s", c.Cart.ShippingFee)
	}
	for name, d := range map[string]time.Duration{
		"save timeout":   c.Cart.SaveTimeout,
		"load timeout":   c.Cart.LoadTimeout,
		"idle ttl":       c.Cart.IdleTTL,
		"evict interval": c.Cart.EvictInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("cart %s must be positive: %s", name, d)
		}
	}
	return nil
}
