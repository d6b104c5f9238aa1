package config

import (
	"fmt"
	"log/slog"
	"os"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"unicode"

	"muebles-catalog/internal/logger"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const (
	DefaultMongoURI    = "mongodb://127.0.0.1:27017/mueblesDB"
	DefaultMongoDBName = "mueblesDB"

	StoreMongo  = "mongo"
	StoreMemory = "memory"
)

type Config struct {
	AppName  string
	AppPort  string
	GrpcPort string
	Env      string

	Store       string
	MongoURI    string
	MongoDBName string

	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	CacheTTLSeconds int

	RabbitMQURL   string
	RabbitMQQueue string

	GCSBucket          string
	GCSCredentialsFile string
	MaxUploadSizeMB    int

	AllowedOrigins []string
	APIBaseURL     string
	GrpcTarget     string

	RemoteLogHttpURI       string
	RemoteTraceRpcURI      string
	RemoteProfilingHttpURI string
	OtelStdout             bool
}

// SafeConfig is what gets logged at startup; credentials stay out of it.
type SafeConfig struct {
	AppName                string `json:"app_name"`
	AppPort                string `json:"app_port"`
	GrpcPort               string `json:"grpc_port"`
	Env                    string `json:"env"`
	Store                  string `json:"store"`
	MongoDBName            string `json:"mongo_db_name"`
	RedisAddr              string `json:"redis_addr"`
	CacheTTLSeconds        int    `json:"cache_ttl_seconds"`
	RabbitMQQueue          string `json:"rabbitmq_queue"`
	RabbitMQEnabled        bool   `json:"rabbitmq_enabled"`
	GCSBucket              string `json:"gcs_bucket"`
	MaxUploadSizeMB        int    `json:"max_upload_size_mb"`
	AllowedOrigins         string `json:"allowed_origins"`
	APIBaseURL             string `json:"api_base_url"`
	GrpcTarget             string `json:"grpc_target"`
	RemoteLogHttpURI       string `json:"remote_log_http_uri"`
	RemoteTraceRpcURI      string `json:"remote_trace_rpc_uri"`
	RemoteProfilingHttpURI string `json:"remote_profiling_http_uri"`
	OtelStdout             bool   `json:"otel_stdout"`
}

func (c *Config) ToSafeConfig() SafeConfig {
	return SafeConfig{
		AppName:                c.AppName,
		AppPort:                c.AppPort,
		GrpcPort:               c.GrpcPort,
		Env:                    c.Env,
		Store:                  c.Store,
		MongoDBName:            c.MongoDBName,
		RedisAddr:              c.RedisAddr,
		CacheTTLSeconds:        c.CacheTTLSeconds,
		RabbitMQQueue:          c.RabbitMQQueue,
		RabbitMQEnabled:        c.RabbitMQURL != "",
		GCSBucket:              c.GCSBucket,
		MaxUploadSizeMB:        c.MaxUploadSizeMB,
		AllowedOrigins:         strings.Join(c.AllowedOrigins, ","),
		APIBaseURL:             c.APIBaseURL,
		GrpcTarget:             c.GrpcTarget,
		RemoteLogHttpURI:       c.RemoteLogHttpURI,
		RemoteTraceRpcURI:      c.RemoteTraceRpcURI,
		RemoteProfilingHttpURI: c.RemoteProfilingHttpURI,
		OtelStdout:             c.OtelStdout,
	}
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func toSnake(s string) string {
	var out strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 && s[i-1] != '_' {
				out.WriteRune('_')
			}
			out.WriteRune(unicode.ToLower(r))
		} else {
			out.WriteRune(r)
		}
	}
	return out.String()
}

// StructAttrs("data", cfg) -> []slog.Attr{ slog.String("data.app_port", "5000"), ... }
func StructAttrs(prefix string, s any) []slog.Attr {
	v := reflect.ValueOf(s)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()

	attrs := make([]slog.Attr, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		key := prefix + "." + jsonKey(t.Field(i))

		switch v.Field(i).Kind() {
		case reflect.String:
			attrs = append(attrs, slog.String(key, v.Field(i).String()))
		case reflect.Int, reflect.Int64, reflect.Int32:
			attrs = append(attrs, slog.Int64(key, v.Field(i).Int()))
		case reflect.Bool:
			attrs = append(attrs, slog.Bool(key, v.Field(i).Bool()))
		default:
			attrs = append(attrs, slog.Any(key, v.Field(i).Interface()))
		}
	}
	return attrs
}

func jsonKey(f reflect.StructField) string {
	if tag := f.Tag.Get("json"); tag != "" {
		return strings.Split(tag, ",")[0]
	}
	return toSnake(f.Name)
}

var log = logger.Instance()

var (
	configInstance *Config
	configOnce     sync.Once
)

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n < 0 {
		log.Warn("Invalid integer env var, using default",
			slog.String("key", key),
			slog.String("value", val),
			slog.Int("default", fallback),
		)
		return fallback
	}
	return n
}

func getBool(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	return b
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// DatabaseFromURI returns the database path segment of a MongoDB connection
// string, or "" when it has none.
func DatabaseFromURI(uri string) (string, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return "", err
	}
	return cs.Database, nil
}

// Load reads the process environment. It does not touch .env files.
func Load() (*Config, error) {
	cfg := &Config{
		AppName:                getEnv("APP_NAME", "muebles-catalog"),
		AppPort:                getEnv("APP_PORT", "5000"),
		GrpcPort:               getEnv("GRPC_PORT", "5001"),
		Env:                    getEnv("ENV", "development"),
		Store:                  strings.ToLower(getEnv("STORE", StoreMongo)),
		MongoURI:               getEnv("MONGODB_URI", DefaultMongoURI),
		MongoDBName:            getEnv("MONGO_DB_NAME", ""),
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                getInt("REDIS_DB", 0),
		CacheTTLSeconds:        getInt("CACHE_TTL_SECONDS", 60),
		RabbitMQURL:            getEnv("RABBITMQ_URL", ""),
		RabbitMQQueue:          getEnv("RABBITMQ_QUEUE", "productos_queue"),
		GCSBucket:              getEnv("GCS_BUCKET", ""),
		GCSCredentialsFile:     getEnv("GCS_CREDENTIALS_FILE", ""),
		MaxUploadSizeMB:        getInt("MAX_UPLOAD_SIZE_MB", 20),
		AllowedOrigins:         splitList(os.Getenv("ALLOWED_ORIGINS")),
		APIBaseURL:             getEnv("API_BASE_URL", "http://localhost:5000"),
		GrpcTarget:             getEnv("GRPC_TARGET", "localhost:5001"),
		RemoteLogHttpURI:       getEnv("REMOTE_LOG_HTTP_URI", ""),
		RemoteTraceRpcURI:      getEnv("REMOTE_TRACE_RPC_URI", ""),
		RemoteProfilingHttpURI: getEnv("REMOTE_PROFILING_HTTP_URI", ""),
		OtelStdout:             getBool("OTEL_STDOUT"),
	}

	if cfg.Store != StoreMongo && cfg.Store != StoreMemory {
		return nil, fmt.Errorf("invalid STORE %q (want %q or %q)", cfg.Store, StoreMongo, StoreMemory)
	}

	if cfg.MongoDBName == "" {
		dbName, err := DatabaseFromURI(cfg.MongoURI)
		if err != nil {
			return nil, fmt.Errorf("invalid MONGODB_URI: %w", err)
		}
		if dbName == "" {
			dbName = DefaultMongoDBName
		}
		cfg.MongoDBName = dbName
	}

	return cfg, nil
}

// Instance loads .env (optional) plus the environment once, and exits the
// process when the configuration is unusable.
func Instance() *Config {
	configOnce.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Warn("No .env file found, using system environment variables")
		}

		cfg, err := Load()
		if err != nil {
			log.Error("Invalid configuration", slog.String("error", err.Error()))
			os.Exit(1)
		}
		configInstance = cfg

		if cfg.RemoteLogHttpURI == "" {
			log.Warn("Missing REMOTE_LOG_HTTP_URI will skip sending log")
		}
		if cfg.RemoteTraceRpcURI == "" {
			log.Warn("Missing REMOTE_TRACE_RPC_URI will skip sending trace")
		}
		if cfg.RemoteProfilingHttpURI == "" {
			log.Warn("Missing REMOTE_PROFILING_HTTP_URI will skip sending profiling")
		}
		logger.SetRemote(cfg.RemoteLogHttpURI, cfg.AppName)

		attrs := StructAttrs("data", cfg.ToSafeConfig())
		anyAttrs := make([]any, len(attrs))
		for i, a := range attrs {
			anyAttrs[i] = a
		}
		log.Info("Configuration loaded successfully", anyAttrs...)
	})

	return configInstance
}
