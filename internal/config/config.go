// Package config loads the vellum configuration.
//
// Built-in defaults are embedded as YAML. A user file, YAML or TOML by
// extension, is merged over them key by key, then the result is decoded
// strictly and validated.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/dshills/vellum/internal/image"
)

//go:embed defaults.yaml
var defaults []byte

type (
	HistoryConfig struct {
		MaxEntries int `yaml:"max_entries" validate:"min=1"`
	}

	ImageConfig struct {
		Placeholder       string         `yaml:"placeholder" validate:"required"`
		Width             int            `yaml:"width" validate:"gte=0"`
		DialogOptions     map[string]any `yaml:"dialog_options"`
		LoadingMarker     string         `yaml:"loading_marker" validate:"required,startswith=data-"`
		ProvisionalWidth  int            `yaml:"provisional_width" validate:"gte=0"`
		ProvisionalHeight int            `yaml:"provisional_height" validate:"gte=0"`
		ResolveTimeout    time.Duration  `yaml:"resolve_timeout" validate:"gt=0"`
		BaseDir           string         `yaml:"base_dir"`
	}

	LocalizationConfig struct {
		InsertImage  string `yaml:"insert_image" validate:"required"`
		ImageWebURL  string `yaml:"image_web_url" validate:"required"`
		ImageAltText string `yaml:"image_alt_text" validate:"required"`
		DialogInsert string `yaml:"dialog_insert" validate:"required"`
		DialogCancel string `yaml:"dialog_cancel" validate:"required"`
	}

	Config struct {
		Version      int                `yaml:"version" validate:"eq=1"`
		Logging      LoggingConfig      `yaml:"logging"`
		History      HistoryConfig      `yaml:"history"`
		Image        ImageConfig        `yaml:"image"`
		Localization LocalizationConfig `yaml:"localization"`
	}
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Defaults returns the embedded default configuration file.
func Defaults() []byte {
	return bytes.Clone(defaults)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(defaults)
	if err != nil {
		panic(fmt.Sprintf("embedded configuration is invalid: %v", err))
	}
	return cfg
}

// Load reads the file at path over the defaults. An empty path loads the
// defaults only.
func Load(path string) (*Config, error) {
	base, err := parseYAML("<defaults>", defaults)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return build(base)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	var user map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		user, err = parseTOML(path, data)
	default:
		user, err = parseYAML(path, data)
	}
	if err != nil {
		return nil, err
	}

	cfg, err := build(DeepMerge(base, user))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Dump returns cfg as YAML.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Validate checks cfg against its field constraints.
func (c *Config) Validate() error {
	return validate.Struct(c)
}

// ImageSettings converts the image and localization sections.
func (c *Config) ImageSettings() image.Settings {
	return image.Settings{
		Placeholder:       c.Image.Placeholder,
		Width:             c.Image.Width,
		DialogOptions:     c.Image.DialogOptions,
		LoadingMarker:     c.Image.LoadingMarker,
		ProvisionalWidth:  c.Image.ProvisionalWidth,
		ProvisionalHeight: c.Image.ProvisionalHeight,
		Localization: image.Localization{
			Title:       c.Localization.InsertImage,
			URLLabel:    c.Localization.ImageWebURL,
			LabelLabel:  c.Localization.ImageAltText,
			ApplyLabel:  c.Localization.DialogInsert,
			CancelLabel: c.Localization.DialogCancel,
		},
	}
}

// build decodes a merged map into a validated Config.
func build(m map[string]any) (*Config, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding merged configuration: %w", err)
	}
	return decode(data)
}

func decode(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return &cfg, nil
}

func parseYAML(path string, data []byte) (map[string]any, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var te *yaml.TypeError
		if !errors.As(err, &te) {
			pe.Line = yamlLine(err.Error())
		}
		return nil, pe
	}
	return m, nil
}

func parseTOML(path string, data []byte) (map[string]any, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return nil, pe
	}
	return m, nil
}
