package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	customvalidator "github.com/spounge-ai/logshipper/pkg/validator"
)

const (
	StorageGCS = "gcs"
	StorageS3  = "s3"

	SecretSourceObjectMetadata = "object_metadata"
	SecretSourceParameterStore = "parameter_store"
)

type Config struct {
	Server         ServerConfig    `mapstructure:"server"`
	Storage        StorageConfig   `mapstructure:"storage"`
	Secret         SecretConfig    `mapstructure:"secret"`
	Identity       IdentityConfig  `mapstructure:"identity"`
	Forwarder      ForwarderConfig `mapstructure:"forwarder"`
	Log            LogConfig       `mapstructure:"log"`
	ServiceVersion string
	BuildCommit    string
}

// ServerConfig represents the trigger endpoint configuration.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gte=1,lte=65535"`
	HealthPort      int           `mapstructure:"health_port"      validate:"gte=0,lte=65535"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// StorageConfig selects the object store holding the api key and identity table.
type StorageConfig struct {
	Provider string `mapstructure:"provider" validate:"required,oneof=gcs s3"`
	Region   string `mapstructure:"region"   validate:"required_if=Provider s3"`
}

// SecretConfig locates the api key.
type SecretConfig struct {
	Source        string `mapstructure:"source"         validate:"required,oneof=object_metadata parameter_store"`
	Bucket        string `mapstructure:"bucket"         validate:"required_if=Source object_metadata,omitempty,bucketname"`
	Object        string `mapstructure:"object"         validate:"required_if=Source object_metadata"`
	MetadataKey   string `mapstructure:"metadata_key"   validate:"required_if=Source object_metadata"`
	ParameterName string `mapstructure:"parameter_name" validate:"required_if=Source parameter_store"`
	Region        string `mapstructure:"region"`
}

// IdentityConfig locates the principal to subject id table.
type IdentityConfig struct {
	Bucket string `mapstructure:"bucket" validate:"required,bucketname"`
	Object string `mapstructure:"object" validate:"required"`
}

// ForwarderConfig represents the log ingestion API configuration.
type ForwarderConfig struct {
	Endpoint        string        `mapstructure:"endpoint"          validate:"required,httpurl"`
	LogType         string        `mapstructure:"log_type"          validate:"required"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" validate:"gte=0"`
}

// LogConfig represents the logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"  validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json console"`
}

func Load(path string) (*Config, error) {
	vip := viper.New()
	if path != "" {
		vip.SetConfigFile(path)
	} else {
		vip.SetConfigName("config")
		vip.AddConfigPath("./configs")
		vip.AddConfigPath(".")
	}

	vip.SetConfigType("yaml")
	vip.SetEnvPrefix("LOGSHIPPER")
	vip.AutomaticEnv()
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(vip)

	if err := vip.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	validate := validator.New()
	if err := customvalidator.RegisterCustomValidators(validate); err != nil {
		return nil, fmt.Errorf("failed to register custom validators: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if cfg.Secret.Region == "" {
		cfg.Secret.Region = cfg.Storage.Region
	}
	if cfg.Secret.Source == SecretSourceParameterStore && cfg.Secret.Region == "" {
		return nil, fmt.Errorf("config validation failed: secret.region or storage.region is required for the parameter store")
	}
	cfg.ServiceVersion = getenv("LOGSHIPPER_SERVICE_VERSION", "unknown")
	cfg.BuildCommit = getenv("LOGSHIPPER_BUILD_COMMIT", "unknown")

	return &cfg, nil
}

// setDefaults registers every key so that AutomaticEnv can override it even
// when no config file is present.
func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", 8080)
	vip.SetDefault("server.health_port", 0)
	vip.SetDefault("server.shutdown_timeout", 10*time.Second)

	vip.SetDefault("storage.provider", StorageGCS)
	vip.SetDefault("storage.region", "")

	vip.SetDefault("secret.source", SecretSourceObjectMetadata)
	vip.SetDefault("secret.bucket", "secret-storage")
	vip.SetDefault("secret.object", "dev-logit.json")
	vip.SetDefault("secret.metadata_key", "Api-Key")
	vip.SetDefault("secret.parameter_name", "")
	vip.SetDefault("secret.region", "")

	vip.SetDefault("identity.bucket", "secret-storage")
	vip.SetDefault("identity.object", "userLookups.json")

	vip.SetDefault("forwarder.endpoint", "https://api.logit.io/v2")
	vip.SetDefault("forwarder.log_type", "BucketAudit")
	vip.SetDefault("forwarder.max_idle_conns", 16)
	vip.SetDefault("forwarder.idle_conn_timeout", 90*time.Second)

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "json")
}

// getenv returns an environment variable or a default value.
func getenv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
