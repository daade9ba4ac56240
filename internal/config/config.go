package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// EnvPrefix prefixes every environment override, e.g. URL_SHORTENER_LOG_LEVEL.
// DOMAIN and PORT are also read without the prefix.
const EnvPrefix = "URL_SHORTENER"

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Env        string     `yaml:"env"`
	LogLevel   string     `yaml:"log_level" split_words:"true"`
	BaseURL    string     `yaml:"base_url" envconfig:"DOMAIN"`
	ShortCode  ShortCode  `yaml:"short_code" split_words:"true"`
	Storage    Storage    `yaml:"storage"`
	HTTPServer HTTPServer `yaml:"http_server" split_words:"true"`
	Postgres   Postgres   `yaml:"postgres"`
	Redis      Redis      `yaml:"redis"`
}

type ShortCode struct {
	Length      int `yaml:"length"`
	MaxAttempts int `yaml:"max_attempts" split_words:"true"`
}

var defaultShortCode = ShortCode{
	Length:      6,
	MaxAttempts: 10,
}

type Storage struct {
	Driver string `yaml:"driver"`
}

type HTTPServer struct {
	Port           int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout    time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout   time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes int           `yaml:"max_header_bytes" split_words:"true"`
	CertFile       string        `yaml:"cert_file" split_words:"true"`
	KeyFile        string        `yaml:"key_file" split_words:"true"`
}

var defaultHTTPServer = HTTPServer{
	Port:           3000,
	ReadTimeout:    5 * time.Second,
	WriteTimeout:   10 * time.Second,
	IdleTimeout:    time.Minute,
	MaxHeaderBytes: 1 << 20,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	DB              string        `yaml:"db"`
	SSLMode         string        `yaml:"sslmode"`
	MigrationsPath  string        `yaml:"migrations_path" split_words:"true"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time" split_words:"true"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" split_words:"true"`
	MaxIdleConns    int           `yaml:"max_idle_conns" split_words:"true"`
	MaxOpenConns    int           `yaml:"max_open_conns" split_words:"true"`
}

var defaultPostgres = Postgres{
	Host:            "localhost",
	Port:            5432,
	SSLMode:         "disable",
	MigrationsPath:  "file://migrations",
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

func (p *Postgres) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DB, p.SSLMode)
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

var defaultRedis = Redis{
	Addr: "localhost:6379",
}

// Load reads the config file at path, if any, over the defaults and then
// applies environment overrides.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		if err := decodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to process env: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.LogLevel = "info"
	cfg.BaseURL = "http://localhost:3000"
	cfg.ShortCode = defaultShortCode
	cfg.Storage = Storage{Driver: DriverMemory}
	cfg.HTTPServer = defaultHTTPServer
	cfg.Postgres = defaultPostgres
	cfg.Redis = defaultRedis
}

func (cfg *Config) validate() error {
	switch cfg.Storage.Driver {
	case DriverMemory, DriverPostgres, DriverRedis:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, cfg.Storage.Driver)
	}

	if cfg.BaseURL == "" {
		return fmt.Errorf("%w: base_url is empty", ErrInvalidConfig)
	}

	if cfg.ShortCode.Length <= 0 || cfg.ShortCode.MaxAttempts <= 0 {
		return fmt.Errorf("%w: short_code length and max_attempts must be positive", ErrInvalidConfig)
	}

	return nil
}
