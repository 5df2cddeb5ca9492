// Package config layers training configuration from built-in defaults,
// an optional YAML file and TOYML_* environment variables, in that
// order of precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/bin3/toyml/model"
)

// EnvPrefix marks the environment variables read by Load.
const EnvPrefix = "TOYML_"

var validate = validator.New()

type JournalConfig struct {
	// Path of the journal database, empty disables the journal.
	Path   string `koanf:"path"`
	Engine string `koanf:"engine" validate:"omitempty,oneof=bolt kv"`
}

type Config struct {
	DocPath      string `koanf:"docpath"`
	FolloweePath string `koanf:"followeepath"`

	// dictionary outputs, skipped when empty
	DictPath     string `koanf:"dictpath"`
	CelPath      string `koanf:"celpath"`
	DictDetailed bool   `koanf:"dict_detailed"`
	TopWordPath  string `koanf:"top_wordpath"`
	TopNWord     int    `koanf:"topn_word" validate:"gte=0"`

	// address serving /metrics, empty disables it
	MetricsAddr string `koanf:"metrics_addr"`

	Journal JournalConfig `koanf:"journal"`
	Train   model.Options `koanf:"train"`
}

func Default() *Config {
	return &Config{
		DictDetailed: true,
		TopNWord:     100,
		Journal:      JournalConfig{Engine: "bolt"},
		Train:        model.DefaultOptions(),
	}
}

// Load builds the configuration. path names an optional YAML file.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// TOYML_TRAIN_LOG_INTERVAL -> train.log_interval
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

var sections = []string{"train_", "journal_"}

func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	for _, section := range sections {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if _, err := model.ParseVariant(c.Train.Variant); err != nil {
		return err
	}
	return nil
}
