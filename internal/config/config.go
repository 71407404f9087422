package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/Veraticus/transcript-recon/internal/analysis"
	"github.com/Veraticus/transcript-recon/internal/common"
	"github.com/Veraticus/transcript-recon/internal/service"
	"github.com/Veraticus/transcript-recon/internal/taxcalc"
)

// AppName names the config directory and the environment prefix.
const AppName = "recon"

// EnvPrefix is prepended to environment overrides, e.g. RECON_DATABASE_PATH.
const EnvPrefix = "RECON"

// Config is the full application configuration.
type Config struct {
	Logging   LoggingConfig    `mapstructure:"logging"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Extractor ExtractorConfig  `mapstructure:"extractor"`
	Server    ServerConfig     `mapstructure:"server"`
	Analysis  analysis.Options `mapstructure:"analysis"`
	Tax       taxcalc.Options  `mapstructure:"tax"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=console text json"`
}

// DatabaseConfig locates the session store.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ExtractorConfig describes the external PDF-to-text converter.
type ExtractorConfig struct {
	Command      string        `mapstructure:"command"`
	Args         []string      `mapstructure:"args"`
	MaxAttempts  int           `mapstructure:"max_attempts" validate:"gte=1,lte=10"`
	Timeout      time.Duration `mapstructure:"timeout" validate:"gte=0"`
	InitialDelay time.Duration `mapstructure:"initial_delay" validate:"gte=0"`
}

// ServerConfig configures the JSON API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"gte=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"gte=0"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes" validate:"gte=0"`
	TLS          bool          `mapstructure:"tls"`
	CertDir      string        `mapstructure:"cert_dir" validate:"required_if=TLS true"`
	Hosts        []string      `mapstructure:"hosts"`
}

// Defaults registers every key with its default so environment overrides
// work for keys absent from the config file.
func Defaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("database.path", "~/.local/share/recon/recon.db")

	v.SetDefault("analysis.materiality_threshold", 0.0)
	v.SetDefault("analysis.outlier_z_threshold", 2.0)
	v.SetDefault("analysis.name_similarity_threshold", 0.8)
	v.SetDefault("analysis.max_concurrency", analysis.DefaultConcurrency)
	v.SetDefault("analysis.lookahead_days", analysis.DefaultLookaheadDays)

	v.SetDefault("tax.charitable_agi_cap", 0.0)
	v.SetDefault("tax.medical_agi_floor", 0.0)

	v.SetDefault("extractor.command", "pdftotext")
	v.SetDefault("extractor.args", []string{"-layout", "{input}", "-"})
	v.SetDefault("extractor.max_attempts", 2)
	v.SetDefault("extractor.timeout", "60s")
	v.SetDefault("extractor.initial_delay", "250ms")

	v.SetDefault("server.addr", "127.0.0.1:8089")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "2m")
	v.SetDefault("server.max_body_bytes", 10<<20)
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", "~/.config/recon/certs")
	v.SetDefault("server.hosts", []string{})
}

// BindEnv makes every default key overridable through RECON_* variables.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Read loads the config file into v. An explicit file must exist; the
// default $HOME/.config/recon/config.yaml is optional.
func Read(v *viper.Viper, file string) error {
	if file != "" {
		v.SetConfigFile(ExpandPath(file))
		if err := v.ReadInConfig(); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", common.ErrMissingConfig, file)
			}
			return fmt.Errorf("failed to read config: %w", err)
		}
		return nil
	}

	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// Load unmarshals and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	cfg.Database.Path = ExpandPath(cfg.Database.Path)
	cfg.Server.CertDir = ExpandPath(cfg.Server.CertDir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks field constraints and reports every violation at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidConfig, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	key := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required", "required_if":
		return key + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %v", key, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", key, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s, got %v", key, fe.Param(), fe.Value())
	}
	return fmt.Sprintf("%s failed %s", key, fe.Tag())
}

// AnalysisOptions merges the top-level tax section into the engine options.
func (c *Config) AnalysisOptions() analysis.Options {
	opts := c.Analysis
	opts.Tax = c.Tax
	return opts
}

// Retry is the extraction retry policy.
func (e ExtractorConfig) Retry() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  e.MaxAttempts,
		InitialDelay: e.InitialDelay,
	}
}
