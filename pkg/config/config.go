package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	S3       S3Config
	Snapshot SnapshotConfig
	Archives ArchivesConfig
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
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// S3Config holds credentials and addressing for the object store backend.
type S3Config struct {
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// SnapshotConfig controls the external single-file capture tool.
type SnapshotConfig struct {
	Tool        string
	BrowserPath string
	BrowserArgs []string
	UserAgent   string
	Timeout     time.Duration
}

// ArchivesConfig controls archive storage layout and cache behaviour.
type ArchivesConfig struct {
	StorageDir       string
	CacheTTL         time.Duration
	MaxFileSizeBytes int64
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
		if !errors.As(err, &notFound) {
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
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.S3 = S3Config{
		Region:    v.GetString("AWS_S3_REGION"),
		Bucket:    v.GetString("AWS_S3_BUCKET"),
		AccessKey: v.GetString("AWS_S3_ACCESS_KEY"),
		SecretKey: v.GetString("AWS_S3_SECRET_KEY"),
		Endpoint:  v.GetString("AWS_S3_ENDPOINT"),
	}

	cfg.Snapshot = SnapshotConfig{
		Tool:        v.GetString("SNAPSHOT_TOOL"),
		BrowserPath: v.GetString("SNAPSHOT_BROWSER_PATH"),
		BrowserArgs: splitAndTrim(v.GetString("SNAPSHOT_BROWSER_ARGS")),
		UserAgent:   v.GetString("SNAPSHOT_USER_AGENT"),
		Timeout:     parseDuration(v.GetString("SNAPSHOT_TIMEOUT"), 120*time.Second),
	}

	maxUploadSize := v.GetInt64("ARCHIVES_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 50 * 1024 * 1024
	}
	cfg.Archives = ArchivesConfig{
		StorageDir:       v.GetString("ARCHIVES_STORAGE_DIR"),
		CacheTTL:         parseDuration(v.GetString("ARCHIVES_CACHE_TTL"), time.Hour),
		MaxFileSizeBytes: maxUploadSize,
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
	v.SetDefault("DB_NAME", "lanting")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AWS_S3_REGION", "ap-southeast-1")
	v.SetDefault("AWS_S3_BUCKET", "")
	v.SetDefault("AWS_S3_ACCESS_KEY", "")
	v.SetDefault("AWS_S3_SECRET_KEY", "")
	v.SetDefault("AWS_S3_ENDPOINT", "")

	v.SetDefault("SNAPSHOT_TOOL", "npx")
	v.SetDefault("SNAPSHOT_BROWSER_PATH", "")
	v.SetDefault("SNAPSHOT_BROWSER_ARGS", "--no-sandbox,--disable-setuid-sandbox")
	v.SetDefault("SNAPSHOT_USER_AGENT", "")
	v.SetDefault("SNAPSHOT_TIMEOUT", "120s")

	v.SetDefault("ARCHIVES_STORAGE_DIR", "archives/origs")
	v.SetDefault("ARCHIVES_CACHE_TTL", "1h")
	v.SetDefault("ARCHIVES_MAX_FILE_SIZE", 50*1024*1024)
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
