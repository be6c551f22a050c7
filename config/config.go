package config

import (
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServiceConfig struct {
	ID             string   `mapstructure:"id"`
	MountPath      string   `mapstructure:"mount_path"`
	Command        []string `mapstructure:"command"`
	CredentialsDir string   `mapstructure:"credentials_dir"`
	ArchiveDir     string   `mapstructure:"archive_dir"`
	CacheDir       string   `mapstructure:"cache_dir"`
}

type RetryConfig struct {
	MaxRetries    int    `mapstructure:"max_retries"`
	BaseDelay     string `mapstructure:"base_delay"`
	MaxDelay      string `mapstructure:"max_delay"`
	BaseTimeout   string `mapstructure:"base_timeout"`
	CycleDeadline string `mapstructure:"cycle_deadline"`
}

type StoreConfig struct {
	Dir string `mapstructure:"dir"`
}

// StatePath is the circuit state file inside the store directory.
func (s StoreConfig) StatePath() string {
	return filepath.Join(s.Dir, "circuits.yaml")
}

// JournalPath is the sync run journal inside the store directory.
func (s StoreConfig) JournalPath() string {
	return filepath.Join(s.Dir, "journal.yaml")
}

type PathsConfig struct {
	SyncRoot  string `mapstructure:"sync_root"`
	BackupDir string `mapstructure:"backup_dir"`
	LogDir    string `mapstructure:"log_dir"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Environment string          `mapstructure:"environment"`
	Store       StoreConfig     `mapstructure:"store"`
	Retry       RetryConfig     `mapstructure:"retry"`
	Paths       PathsConfig     `mapstructure:"paths"`
	Services    []ServiceConfig `mapstructure:"services"`
	Logging     LoggingConfig   `mapstructure:"logging"`
}

func Load() (*Config, error) {
	viper.SetDefault("environment", EnvDev)
	viper.SetDefault("store.dir", ".syncguard")
	viper.SetDefault("retry.max_retries", 3)
	viper.SetDefault("retry.base_delay", "30s")
	viper.SetDefault("retry.max_delay", "10m")
	viper.SetDefault("retry.base_timeout", "10m")
	viper.SetDefault("retry.cycle_deadline", "45m")
	viper.SetDefault("logging.level", LogLevelInfo)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Store,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(StoreConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a StoreConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Dir, validation.Required),
				)
			}),
		),
		validation.Field(&c.Retry,
			validation.Required,
			validation.By(func(value interface{}) error {
				rc, ok := value.(RetryConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a RetryConfig")
				}
				return validation.ValidateStruct(&rc,
					validation.Field(&rc.MaxRetries,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&rc.BaseDelay,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&rc.MaxDelay,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&rc.BaseTimeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&rc.CycleDeadline,
						validation.Required,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Services,
			validation.Each(validation.By(validateServiceConfig)),
		),
	)
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	return nil
}

func validateServiceConfig(value interface{}) error {
	svc, ok := value.(ServiceConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a ServiceConfig")
	}

	if svc.ID == "" {
		return validation.NewError("validation_empty_id", "service id cannot be empty")
	}

	if strings.ContainsAny(svc.ID, " /\\") {
		return validation.NewError("validation_invalid_id", "service id cannot contain spaces or path separators")
	}

	if len(svc.Command) == 0 {
		return validation.NewError("validation_empty_command", "service sync command cannot be empty")
	}

	if svc.MountPath == "" {
		return validation.NewError("validation_empty_mount", "service mount path cannot be empty")
	}

	return nil
}
