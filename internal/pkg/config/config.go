package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"

	BlobLocal    = "local"
	BlobSupabase = "supabase"
)

type Config struct {
	Port           string        `env:"PORT,             default=8080"`
	Env            string        `env:"ENV,              default=development"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"TOKEN_TTL,        default=24h"`
	LogLevel       string        `env:"LOG_LEVEL,        default=info"`
	StoreBackend   string        `env:"STORE_BACKEND,    default=mongo"`
	SeedUsersPath  string        `env:"SEED_USERS_PATH"`
	CleanupWorkers int           `env:"CLEANUP_WORKERS,  default=4"`

	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Blob     BlobConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=feedback"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

type RedisConfig struct {
	Addr       string        `env:"REDIS_ADDR,     default=localhost:6379"`
	Password   string        `env:"REDIS_PASSWORD"`
	DB         int           `env:"REDIS_DB,       default=0"`
	SessionTTL time.Duration `env:"SESSION_TTL,    default=24h"`
}

type BlobConfig struct {
	Backend        string `env:"BLOB_BACKEND,     default=local"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES, default=5242880"`

	MediaDir     string `env:"MEDIA_DIR,      default=./media"`
	MediaBaseURL string `env:"MEDIA_BASE_URL, default=http://localhost:8080/media"`

	SupabaseURL        string `env:"SUPABASE_URL"`
	SupabaseServiceKey string `env:"SUPABASE_SERVICE_KEY"`
	SupabaseBucket     string `env:"SUPABASE_BUCKET, default=feedback-images"`
}

// Load reads configuration from environment variables using go-envconfig
// and checks the combinations the server cannot start without.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: JWT_SECRET is required")
	}
	switch c.StoreBackend {
	case StoreMongo:
	case StorePostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("config: POSTGRES_DSN is required when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.Blob.Backend {
	case BlobLocal:
	case BlobSupabase:
		if c.Blob.SupabaseURL == "" || c.Blob.SupabaseServiceKey == "" {
			return fmt.Errorf("config: SUPABASE_URL and SUPABASE_SERVICE_KEY are required when BLOB_BACKEND=supabase")
		}
	default:
		return fmt.Errorf("config: unknown BLOB_BACKEND %q", c.Blob.Backend)
	}
	return nil
}

// IsProduction reports whether ENV selects production behaviour (JSON logs).
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
