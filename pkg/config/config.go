package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Due-soon policy names accepted by DUE_SOON_POLICY.
const (
	DuePolicyEndOfDay = "end_of_day"
	DuePolicyExact    = "exact"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Identity IdentityConfig
	CORS     CORSConfig
	Log      LogConfig
	DueSoon  DueSoonConfig
	Sweeper  SweeperConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// IdentityConfig describes how login credentials issued by the identity
// provider are verified.
type IdentityConfig struct {
	Secret   string
	Audience string
	Issuer   string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DueSoonConfig selects the due-soon window policy and the zone used for
// day boundaries and date labels.
type DueSoonConfig struct {
	Policy   string
	Timezone string
}

// SweeperConfig controls the daily due-soon sweep.
type SweeperConfig struct {
	Enabled     bool
	Schedule    string
	Timeout     time.Duration
	LockEnabled bool
	LockTTL     time.Duration
	// OperatorIDs may trigger a sweep over the API. Empty disables the endpoint.
	OperatorIDs []int64
}

// ExportConfig gates calendar export endpoints.
type ExportConfig struct {
	Enabled bool
}

// Location resolves the configured time zone.
func (c DueSoonConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.Identity = IdentityConfig{
		Secret:   v.GetString("IDENTITY_SECRET"),
		Audience: v.GetString("IDENTITY_AUDIENCE"),
		Issuer:   v.GetString("IDENTITY_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.DueSoon = DueSoonConfig{
		Policy:   strings.ToLower(strings.TrimSpace(v.GetString("DUE_SOON_POLICY"))),
		Timezone: v.GetString("APP_TIMEZONE"),
	}

	cfg.Sweeper = SweeperConfig{
		Enabled:     v.GetBool("ENABLE_SWEEPER"),
		Schedule:    v.GetString("SWEEP_SCHEDULE"),
		Timeout:     parseDuration(v.GetString("SWEEP_TIMEOUT"), 2*time.Minute),
		LockEnabled: v.GetBool("ENABLE_SWEEP_LOCK"),
		LockTTL:     parseDuration(v.GetString("SWEEP_LOCK_TTL"), 10*time.Minute),
	}

	operators, err := parseIDList(v.GetString("SWEEP_OPERATOR_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.Sweeper.OperatorIDs = operators

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_CALENDAR_EXPORT"),
	}

	if _, err := cfg.DueSoon.Location(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "subkeeper")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "subkeeper-api")

	v.SetDefault("IDENTITY_SECRET", "dev_identity_secret")
	v.SetDefault("IDENTITY_AUDIENCE", "subkeeper-web")
	v.SetDefault("IDENTITY_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DUE_SOON_POLICY", DuePolicyEndOfDay)
	v.SetDefault("APP_TIMEZONE", "Asia/Seoul")

	v.SetDefault("ENABLE_SWEEPER", true)
	v.SetDefault("SWEEP_SCHEDULE", "00:00")
	v.SetDefault("SWEEP_TIMEOUT", "2m")
	v.SetDefault("ENABLE_SWEEP_LOCK", false)
	v.SetDefault("SWEEP_LOCK_TTL", "10m")
	v.SetDefault("SWEEP_OPERATOR_IDS", "")

	v.SetDefault("ENABLE_CALENDAR_EXPORT", true)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

func parseIDList(raw string) ([]int64, error) {
	parts := splitAndTrim(raw)
	if len(parts) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid SWEEP_OPERATOR_IDS entry %q", part)
		}
		ids = append(ids, id)
	}

	return ids, nil
}
