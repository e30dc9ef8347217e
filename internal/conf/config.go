// Package conf loads the server configuration from YAML and the environment.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Tanvin-Ahmed/file-management-server/internal/auth/middleware"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/biz"
	"github.com/Tanvin-Ahmed/file-management-server/internal/drive/blob"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/database"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/logger"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/redis"
	"github.com/Tanvin-Ahmed/file-management-server/internal/pkg/workerpool"
)

// EnvPrefix prefixes every environment override, e.g. DRIVE_SERVER_PORT
const EnvPrefix = "DRIVE"

var validate = validator.New()

type Config struct {
	Server    ServerConfig                 `mapstructure:"server"`
	Database  database.Config              `mapstructure:"database"`
	Redis     redis.Config                 `mapstructure:"redis"`
	Blob      blob.Config                  `mapstructure:"blob"`
	Storage   StorageConfig                `mapstructure:"storage"`
	Auth      AuthConfig                   `mapstructure:"auth"`
	RateLimit middleware.RateLimiterConfig `mapstructure:"rate_limit"`
	Reconcile biz.ReconcileConfig          `mapstructure:"reconcile"`
	Workers   workerpool.Config            `mapstructure:"workers"`
	Log       logger.Config                `mapstructure:"log"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	GRPCPort        int           `mapstructure:"grpc_port" validate:"omitempty,min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

func (c ServerConfig) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ServerConfig) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// StorageConfig bounds what a single owner may store
type StorageConfig struct {
	// MaxStoragePerUser is the quota, in bytes, for owners without their own limit.
	MaxStoragePerUser int64    `mapstructure:"max_storage_per_user" validate:"gt=0"`
	MaxUploadFiles    int      `mapstructure:"max_upload_files" validate:"min=1,max=100"`
	AllowedTypes      []string `mapstructure:"allowed_types" validate:"min=1,dive,required"`
	MaxDepth          int      `mapstructure:"max_depth" validate:"min=1,max=1024"`
	MaxNameAttempts   int      `mapstructure:"max_name_attempts" validate:"min=1"`
}

// Options converts the storage section into tree engine options
func (c StorageConfig) Options() biz.Options {
	return biz.Options{
		MaxDepth:        c.MaxDepth,
		MaxNameAttempts: c.MaxNameAttempts,
		MaxUploadFiles:  c.MaxUploadFiles,
		AllowedTypes:    c.AllowedTypes,
	}
}

// AuthConfig verifies tokens minted by the identity service
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=16"`
	JWTIssuer string `mapstructure:"jwt_issuer"`
}

// LoadConfig reads path, applies DRIVE_* environment overrides and validates
// the result. An empty path loads defaults and the environment only.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Validate runs the struct tags, then each section's own rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}

	if err := c.Database.Validate(); err != nil {
		return err
	}
	if err := c.Redis.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}

	switch c.Blob.Backend {
	case blob.BackendS3:
		if c.Blob.Bucket == "" && c.Blob.S3.Bucket == "" {
			return errors.New("blob: s3 backend needs a bucket")
		}
	case blob.BackendMemory:
	default:
		if c.Blob.Bucket == "" {
			return errors.New("blob: bucket is required")
		}
		if err := c.Blob.MinIO.Validate(); err != nil {
			return err
		}
	}

	if c.Server.GRPCPort != 0 && c.Server.GRPCPort == c.Server.Port {
		return errors.New("server: grpc_port must differ from port")
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		e := verrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)", e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.grpc_port", 9090)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Minute)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	db := database.DefaultConfig()
	v.SetDefault("database.host", db.Host)
	v.SetDefault("database.port", db.Port)
	v.SetDefault("database.user", db.User)
	v.SetDefault("database.password", db.Password)
	v.SetDefault("database.dbname", db.DBName)
	v.SetDefault("database.sslmode", db.SSLMode)
	v.SetDefault("database.timezone", db.Timezone)
	v.SetDefault("database.max_idle_conns", db.MaxIdleConns)
	v.SetDefault("database.max_open_conns", db.MaxOpenConns)
	v.SetDefault("database.conn_max_lifetime", db.ConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", db.ConnMaxIdleTime)
	v.SetDefault("database.log_level", db.LogLevel)
	v.SetDefault("database.slow_threshold", db.SlowThreshold)
	v.SetDefault("database.prepare_stmt", db.PrepareStmt)
	v.SetDefault("database.auto_migrate", db.AutoMigrate)

	rdb := redis.DefaultConfig()
	v.SetDefault("redis.mode", string(rdb.Mode))
	v.SetDefault("redis.addr", rdb.Addr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", rdb.PoolSize)
	v.SetDefault("redis.min_idle_conns", rdb.MinIdleConns)
	v.SetDefault("redis.dial_timeout", rdb.DialTimeout)
	v.SetDefault("redis.read_timeout", rdb.ReadTimeout)
	v.SetDefault("redis.write_timeout", rdb.WriteTimeout)
	v.SetDefault("redis.max_retries", rdb.MaxRetries)

	v.SetDefault("blob.backend", string(blob.BackendMinIO))
	v.SetDefault("blob.bucket", "drive")
	v.SetDefault("blob.prefix", "")
	v.SetDefault("blob.minio.endpoint", "localhost:9000")
	v.SetDefault("blob.minio.access_key_id", "minioadmin")
	v.SetDefault("blob.minio.secret_access_key", "minioadmin")
	v.SetDefault("blob.minio.use_ssl", false)
	v.SetDefault("blob.minio.request_timeout", 30*time.Second)
	v.SetDefault("blob.s3.region", "us-east-1")
	v.SetDefault("blob.s3.endpoint", "")
	v.SetDefault("blob.s3.access_key_id", "")
	v.SetDefault("blob.s3.secret_access_key", "")

	opts := biz.DefaultOptions()
	v.SetDefault("storage.max_storage_per_user", int64(15)<<30)
	v.SetDefault("storage.max_upload_files", opts.MaxUploadFiles)
	v.SetDefault("storage.allowed_types", opts.AllowedTypes)
	v.SetDefault("storage.max_depth", opts.MaxDepth)
	v.SetDefault("storage.max_name_attempts", opts.MaxNameAttempts)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.jwt_issuer", "")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.max_requests", 300)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.strategy", "user")

	v.SetDefault("reconcile.enabled", true)
	v.SetDefault("reconcile.interval", 6*time.Hour)
	v.SetDefault("reconcile.batch_size", 500)
	v.SetDefault("reconcile.dry_run", false)
	v.SetDefault("reconcile.lock_ttl", 30*time.Minute)
	v.SetDefault("reconcile.grace_period", time.Hour)
	v.SetDefault("reconcile.run_timeout", 20*time.Minute)

	v.SetDefault("workers.workers", workerpool.DefaultConfig().Workers)
	v.SetDefault("workers.nonblocking", false)

	lg := logger.DefaultConfig()
	v.SetDefault("log.level", lg.Level)
	v.SetDefault("log.format", lg.Format)
	v.SetDefault("log.output", lg.Output)
	v.SetDefault("log.enable_caller", lg.EnableCaller)
	v.SetDefault("log.enable_stacktrace", lg.EnableStacktrace)
	v.SetDefault("log.file.filename", lg.File.Filename)
	v.SetDefault("log.file.max_size", lg.File.MaxSize)
	v.SetDefault("log.file.max_age", lg.File.MaxAge)
	v.SetDefault("log.file.max_backups", lg.File.MaxBackups)
	v.SetDefault("log.file.compress", lg.File.Compress)
}
