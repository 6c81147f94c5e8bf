package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	mu sync.RWMutex `yaml:"-"`

	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Locks      LocksConfig      `yaml:"locks"`
	Web        WebConfig        `yaml:"web"`
	Messaging  MessagingConfig  `yaml:"messaging"`
	Production ProductionConfig `yaml:"production"`
	Log        LogConfig        `yaml:"log"`
}

type DatabaseConfig struct {
	Driver   string         `yaml:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// LocksConfig selects how stock mutations are serialized per material or batch.
type LocksConfig struct {
	Backend       string        `yaml:"backend"` // "redis" or "local"
	TTL           time.Duration `yaml:"ttl"`
	RetryInterval time.Duration `yaml:"retry_interval"`
	RetryCount    int           `yaml:"retry_count"`
}

type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// MessagingConfig defines the event stream backend.
type MessagingConfig struct {
	Backend             string        `yaml:"backend"` // "kafka" or "mqtt"
	Kafka               KafkaConfig   `yaml:"kafka"`
	MQTT                MQTTConfig    `yaml:"mqtt"`
	EventsTopic         string        `yaml:"events_topic"`
	FloorTopic          string        `yaml:"floor_topic"`
	OutboxDrainInterval time.Duration `yaml:"outbox_drain_interval"`
	PlantID             string        `yaml:"plant_id"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// ProductionConfig holds the prefixes used for generated document numbers.
type ProductionConfig struct {
	OrderPrefix    string `yaml:"order_prefix"`
	ShipmentPrefix string `yaml:"shipment_prefix"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "text"
}

func Defaults() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			SQLite: SQLiteConfig{Path: "tinacopro.db"},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "tinacopro",
				User:     "tinacopro",
				Password: "",
				SSLMode:  "disable",
			},
		},
		Redis: RedisConfig{
			Address:  "localhost:6379",
			Password: "",
			DB:       0,
		},
		Locks: LocksConfig{
			Backend:       "local",
			TTL:           30 * time.Second,
			RetryInterval: 100 * time.Millisecond,
			RetryCount:    50,
		},
		Web: WebConfig{
			Host:          "0.0.0.0",
			Port:          8090,
			SessionSecret: "change-me-in-production",
		},
		Messaging: MessagingConfig{
			Backend: "kafka",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				GroupID: "tinacopro",
			},
			MQTT: MQTTConfig{
				Broker:   "localhost",
				Port:     1883,
				ClientID: "tinacopro",
			},
			EventsTopic:         "tinacopro.events",
			FloorTopic:          "tinacopro.floor",
			OutboxDrainInterval: 5 * time.Second,
			PlantID:             "plant-1",
		},
		Production: ProductionConfig{
			OrderPrefix:    "PO",
			ShipmentPrefix: "SHIP",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path on top of Defaults. A missing file is not an
// error. A .env file in the working directory, when present, is loaded first so
// its variables can override secrets.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TINACO_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("TINACO_SQLITE_PATH"); v != "" {
		c.Database.SQLite.Path = v
	}
	if v := os.Getenv("TINACO_PG_PASSWORD"); v != "" {
		c.Database.Postgres.Password = v
	}
	if v := os.Getenv("TINACO_REDIS_ADDR"); v != "" {
		c.Redis.Address = v
	}
	if v := os.Getenv("TINACO_REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("TINACO_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Redis.DB = n
		}
	}
	if v := os.Getenv("TINACO_SESSION_SECRET"); v != "" {
		c.Web.SessionSecret = v
	}
}

func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Lock()   { c.mu.Lock() }
func (c *Config) Unlock() { c.mu.Unlock() }
