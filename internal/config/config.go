package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Token    TokenConfig    `env:",prefix=TOKEN_"`
	Security SecurityConfig `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=15s"`
}

type PostgresConfig struct {
	Host           string `env:"HOST,default=localhost"`
	Port           string `env:"PORT,default=5432"`
	User           string `env:"USER,default=card_token_service"`
	Password       string `env:"PASSWORD,default=card_token_service_password"`
	DBName         string `env:"DB,default=card_token_db"`
	SSLMode        string `env:"SSLMODE,default=disable"`
	MigrationsPath string `env:"MIGRATIONS,default=migrations"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// TokenConfig carries the signing material shared by user tokens and
// card tokens. A single symmetric secret, no rotation.
type TokenConfig struct {
	Secret    string   `env:"SECRET,required"`
	Algorithm string   `env:"ALGORITHM,default=HS256"`
	TTL       Duration `env:"TTL,default=30m"`
}

type SecurityConfig struct {
	BCryptCost int `env:"BCRYPT_COST,default=12"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.Token.Secret) < 32 {
		return nil, fmt.Errorf("TOKEN_SECRET must be at least 32 characters long")
	}

	// Single fixed algorithm; anything else is a misconfiguration.
	if config.Token.Algorithm != "HS256" {
		return nil, fmt.Errorf("unsupported signing algorithm %q, only HS256 is supported", config.Token.Algorithm)
	}

	return &config, nil
}
