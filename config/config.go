// Package config loads the YAML configuration of the survival command line tool
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/aouyang1/go-survival/internal/logging"
	"github.com/aouyang1/go-survival/mcmc"
	"github.com/aouyang1/go-survival/model"
	"github.com/aouyang1/go-survival/predictive"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const DefaultStorePath = ".survival/runs.db"

var ErrInvalidConfig = errors.New("invalid config")

var validate *validator.Validate

func init() {
	validate = validator.New()
	_ = validate.RegisterValidation("loglevel", validateLogLevel)
}

func validateLogLevel(fl validator.FieldLevel) bool {
	_, err := logging.ParseLevel(fl.Field().String())
	return err == nil
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"loglevel"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type StoreConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// Config is the complete tool configuration. Sections left out of the file keep their
// defaults.
type Config struct {
	Log        LogConfig          `yaml:"log"`
	Prior      model.PriorOptions `yaml:"prior"`
	Inference  mcmc.Config        `yaml:"inference"`
	Predictive predictive.Options `yaml:"predictive"`
	Store      StoreConfig        `yaml:"store"`
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: logging.FormatText,
		},
		Prior:      *model.NewDefaultPriorOptions(),
		Inference:  *mcmc.NewDefaultConfig(),
		Predictive: *predictive.NewDefaultOptions(),
		Store: StoreConfig{
			Path: DefaultStorePath,
		},
	}
}

// Parse decodes YAML over the defaults and validates the result
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config, %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the config file at path. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config %s, %w", path, err)
	}
	return Parse(data)
}

// Validate checks every section of the config
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w, %w", ErrInvalidConfig, err)
	}
	return nil
}

// Marshal encodes the config as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
