package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigPath = "config/local.yaml"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Auth        AuthConfig        `yaml:"auth"`
	Authz       AuthzConfig       `yaml:"authz"`
	Logging     LoggingConfig     `yaml:"logging"`
	Backup      BackupConfig      `yaml:"backup"`
	Payroll     PayrollConfig     `yaml:"payroll"`
	Performance PerformanceConfig `yaml:"performance"`
}

type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"-"`
	WriteTimeout    time.Duration `yaml:"-"`
	ReadTimeoutRaw  string        `yaml:"read_timeout"`
	WriteTimeoutRaw string        `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	URL                string        `yaml:"url"`
	Host               string        `yaml:"host" validate:"required_without=URL"`
	Port               int           `yaml:"port" validate:"min=0,max=65535"`
	User               string        `yaml:"user" validate:"required_without=URL"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name" validate:"required_without=URL"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxConns           int           `yaml:"max_conns" validate:"min=0"`
	MinConns           int           `yaml:"min_conns" validate:"min=0"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret" validate:"required,min=16"`
	Issuer      string        `yaml:"issuer" validate:"required"`
	TokenTTL    time.Duration `yaml:"-"`
	TokenTTLRaw string        `yaml:"token_ttl"`
}

type AuthzConfig struct {
	Mode       string `yaml:"mode" validate:"omitempty,oneof=enforce shadow disabled"`
	RoutesPath string `yaml:"routes_path"`
}

type LoggingConfig struct {
	Level       string `yaml:"level" validate:"oneof=debug info warn error"`
	Development bool   `yaml:"development"`
	File        string `yaml:"file"`
	MaxSizeMB   int    `yaml:"max_size_mb" validate:"min=0"`
	MaxBackups  int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays  int    `yaml:"max_age_days" validate:"min=0"`
}

type BackupConfig struct {
	Schedule string `yaml:"schedule"`
	Dir      string `yaml:"dir" validate:"required"`
}

type PayrollConfig struct {
	SalarySpikeRatio float64 `yaml:"salary_spike_ratio" validate:"gt=1"`
}

type PerformanceConfig struct {
	LowScoreThreshold int `yaml:"low_score_threshold" validate:"min=1"`
}

func defaults() Config {
	return Config{
		Server: ServerConfig{ListenAddr: ":8080", ReadTimeoutRaw: "15s", WriteTimeoutRaw: "30s"},
		Database: DatabaseConfig{
			Host:    "127.0.0.1",
			Port:    5432,
			User:    "app",
			Name:    "peopleops",
			SSLMode: "disable",
		},
		Auth:        AuthConfig{Issuer: "peopleops", TokenTTLRaw: "12h"},
		Logging:     LoggingConfig{Level: "info", MaxSizeMB: 100, MaxBackups: 5, MaxAgeDays: 14},
		Backup:      BackupConfig{Schedule: "0 2 * * *", Dir: "backups"},
		Payroll:     PayrollConfig{SalarySpikeRatio: 1.5},
		Performance: PerformanceConfig{LowScoreThreshold: 3},
	}
}

// EffectivePath picks the config file: flag, then CONFIG_PATH, then the
// default local file when it exists. An empty result means defaults only.
func EffectivePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// Load reads .env (best effort), the yaml file at path, then environment
// overrides, and validates the result.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("AUTHZ_MODE"); v != "" {
		c.Authz.Mode = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("BACKUP_DIR"); v != "" {
		c.Backup.Dir = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: DB_PORT: %w", err)
		}
		c.Database.Port = port
	}
	return nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func (c *Config) validateAndNormalize() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("config: %s failed %q", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("config: %w", err)
	}

	var err error
	if c.Server.ReadTimeout, err = parseDurationAllowEmpty(c.Server.ReadTimeoutRaw); err != nil {
		return fmt.Errorf("config: server.read_timeout: %w", err)
	}
	if c.Server.WriteTimeout, err = parseDurationAllowEmpty(c.Server.WriteTimeoutRaw); err != nil {
		return fmt.Errorf("config: server.write_timeout: %w", err)
	}
	if c.Database.ConnMaxLifetime, err = parseDurationAllowEmpty(c.Database.ConnMaxLifetimeRaw); err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	if c.Auth.TokenTTL, err = parseDurationAllowEmpty(c.Auth.TokenTTLRaw); err != nil {
		return fmt.Errorf("config: auth.token_ttl: %w", err)
	}
	if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = 12 * time.Hour
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

// DSN returns the pgx connection string. An explicit URL wins.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
