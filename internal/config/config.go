package config

import (
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env:"APP_ENV" env-default:"local"` // local, dev, prod
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	Identity   IdentityConfig   `yaml:"identity"`
	Redis      RedisConfig      `yaml:"redis"`
	Migrations MigrationsConfig `yaml:"migrations"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout         time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"5s"`
}

// DatabaseConfig: одна база и две роли: ограниченная (под RLS) и административная.
type DatabaseConfig struct {
	Host          string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port          int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	Name          string `yaml:"name" env-required:"true"`
	SSLMode       string `yaml:"sslmode" env-default:"disable"`
	User          string `yaml:"user" env-required:"true"`
	Password      string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	AdminUser     string `yaml:"admin_user" env-required:"true"`
	AdminPassword string `yaml:"-" env:"DB_ADMIN_PASSWORD" env-required:"true"`
	MaxOpenConns  int    `yaml:"max_open_conns" env-default:"10"`
}

// IdentityConfig: проверка сессий и поиск ролей у провайдера
type IdentityConfig struct {
	SessionSecret  string        `yaml:"-" env:"SESSION_SECRET" env-required:"true"`
	ProviderURL    string        `yaml:"provider_url" env:"IDENTITY_PROVIDER_URL"`
	ProviderSecret string        `yaml:"-" env:"IDENTITY_PROVIDER_SECRET"`
	LookupTimeout  time.Duration `yaml:"lookup_timeout" env-default:"3s"`
	RoleCacheTTL   time.Duration `yaml:"role_cache_ttl" env-default:"5m"`
}

// RedisConfig: кэш ролей. Пустой адрес отключает кэш.
type RedisConfig struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type MigrationsConfig struct {
	Path  string `yaml:"path" env-default:"./migrations"`
	Table string `yaml:"table" env-default:"schema_migrations"`
}

// DSN строки подключения для ограниченной роли
func (c DatabaseConfig) DSN() string {
	return c.dsn(c.User, c.Password, nil)
}

// AdminDSN строка подключения для административной роли
func (c DatabaseConfig) AdminDSN() string {
	return c.dsn(c.AdminUser, c.AdminPassword, nil)
}

// MigrateDSN: админская строка для golang-migrate с именем таблицы версий
func (c DatabaseConfig) MigrateDSN(table string) string {
	return c.dsn(c.AdminUser, c.AdminPassword, url.Values{"x-migrations-table": {table}})
}

func (c DatabaseConfig) dsn(user, password string, extra url.Values) string {
	q := url.Values{"sslmode": {c.SSLMode}}
	for k, v := range extra {
		q[k] = v
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	if f := flag.Lookup("config"); f != nil {
		path = f.Value.String()
	} else {
		flag.StringVar(&path, "config", "", "path to config file")
		flag.Parse()
	}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
