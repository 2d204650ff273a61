package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"homestay/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Storage    StorageConfig    `yaml:"storage"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	API        APIConfig        `yaml:"api"`
	Booking    BookingConfig    `yaml:"booking"`
	Checkout   CheckoutConfig   `yaml:"checkout"`
	Exports    ExportConfig     `yaml:"exports"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Rooms      []models.Room    `yaml:"rooms"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

// StorageConfig selects the backend the cart is persisted to.
type StorageConfig struct {
	Backend  string `yaml:"backend"` // memory, redis, sqlite, postgres
	CartKey  string `yaml:"cart_key"`
	TTL      int    `yaml:"ttl"` // seconds, redis only; 0 keeps the cart forever
	Failover bool   `yaml:"failover"`
}

type DatabaseConfig struct {
	Path     string         `yaml:"path"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type PostgresConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	DBName         string `yaml:"dbname"`
	SSLMode        string `yaml:"sslmode"`
	MaxConnections int    `yaml:"max_connections"`
	ConnectRetries int    `yaml:"connect_retries"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type APIConfig struct {
	HTTP      APIHTTPConfig      `yaml:"http"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type BookingConfig struct {
	MaxBookingDays int `yaml:"max_booking_days"`
}

type CheckoutConfig struct {
	ProcessingDelayMS int      `yaml:"processing_delay_ms"`
	Currency          string   `yaml:"currency"`
	DeclinedCards     []string `yaml:"declined_cards"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case models.StorageMemory:
	case models.StorageRedis:
		if c.Redis.Address == "" {
			return errors.New("redis address is required for redis storage")
		}
	case models.StorageSQLite:
		if c.Database.Path == "" {
			return errors.New("database path is required for sqlite storage")
		}
	case models.StoragePostgres:
		if c.Database.Postgres.Host == "" || c.Database.Postgres.DBName == "" {
			return errors.New("postgres host and dbname are required for postgres storage")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	if c.Storage.CartKey == "" {
		return errors.New("storage cart key is required")
	}

	return ValidateRooms(c.Rooms)
}

func ValidateRooms(rooms []models.Room) error {
	roomIDs := make(map[int64]bool)
	for _, room := range rooms {
		if room.ID == 0 {
			return fmt.Errorf("room '%s' has invalid ID 0", room.Name)
		}
		if strings.TrimSpace(room.Name) == "" {
			return fmt.Errorf("room %d has empty name", room.ID)
		}
		if room.PricePerNight < 0 {
			return fmt.Errorf("room %d has negative price", room.ID)
		}
		if roomIDs[room.ID] {
			return fmt.Errorf("duplicate room ID found: %d", room.ID)
		}
		roomIDs[room.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "homestay"
	}
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend == "" {
		c.Storage.Backend = models.StorageMemory
	}
	if c.Storage.CartKey == "" {
		c.Storage.CartKey = models.DefaultCartKey
	}
	if c.Database.Postgres.Port == 0 {
		c.Database.Postgres.Port = 5432
	}
	if c.Database.Postgres.SSLMode == "" {
		c.Database.Postgres.SSLMode = "disable"
	}
	if c.Database.Postgres.ConnectRetries == 0 {
		c.Database.Postgres.ConnectRetries = 10
	}
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Booking.MaxBookingDays == 0 {
		c.Booking.MaxBookingDays = models.DefaultMaxBookingDays
	}
	if c.Checkout.ProcessingDelayMS == 0 {
		c.Checkout.ProcessingDelayMS = models.DefaultProcessingDelayMS
	}
	if c.Checkout.Currency == "" {
		c.Checkout.Currency = models.DefaultCurrency
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
