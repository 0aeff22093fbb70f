/*
Package config holds the settings of a document store.

Settings are read from YAML on top of the defaults:

    history:
      capacity: 100
    ids:
      strategy: nanoid
      length: 10
    style:
      classPrefix: pb-
      unit: rem
      tabletWidth: 960

Every configuration handed out by this package has been validated.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2022 Norbert Pillmayer <norbert@pillmayer.com>

*/
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/npillmayer/schuko/tracing"
	"gopkg.in/yaml.v3"
)

// tracer traces with key 'pagedoc.config'.
func tracer() tracing.Trace {
	return tracing.Select("pagedoc.config")
}

// ErrInvalid is returned for configurations failing validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is the configuration of a document store.
type Config struct {
	History HistoryConfig `yaml:"history"`
	IDs     IDConfig      `yaml:"ids"`
	Style   StyleConfig   `yaml:"style"`
}

// HistoryConfig configures undo/redo.
type HistoryConfig struct {
	Capacity int `yaml:"capacity" validate:"min=1,max=10000"`
}

// IDConfig configures the minting of node ids.
type IDConfig struct {
	Strategy string `yaml:"strategy" validate:"oneof=nanoid uuid7 sequence"`
	Length   int    `yaml:"length" validate:"min=4,max=32"`
}

// StyleConfig configures the style compiler.
type StyleConfig struct {
	ClassPrefix string `yaml:"classPrefix" validate:"required,classprefix"`
	Unit        string `yaml:"unit" validate:"oneof=px rem em pt vw vh"`
	Header      string `yaml:"header" validate:"max=200"`
	TabletWidth int    `yaml:"tabletWidth" validate:"gt=0"`
	MobileWidth int    `yaml:"mobileWidth" validate:"gt=0,ltfield=TabletWidth"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		History: HistoryConfig{Capacity: 50},
		IDs:     IDConfig{Strategy: "nanoid", Length: 8},
		Style: StyleConfig{
			ClassPrefix: "p-",
			Unit:        "px",
			Header:      "Generated by pagedoc style compiler. Do not edit.",
			TabletWidth: 1024,
			MobileWidth: 640,
		},
	}
}

var validate = newValidator()

var classPrefix = regexp.MustCompile(`^-?[A-Za-z_][A-Za-z0-9_-]*$`)

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("classprefix", func(fl validator.FieldLevel) bool {
		return classPrefix.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("config: cannot register validation: %v", err))
	}
	return v
}

// Validate checks c against the constraints of every setting.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, len(verrs))
			for i, e := range verrs {
				msgs[i] = formatFieldError(e)
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

func formatFieldError(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:] // strip "Config."
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min", "gt":
		return fmt.Sprintf("%s must be at least %s", field, minParam(e))
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "ltfield":
		return fmt.Sprintf("%s must be less than %s", field, e.Param())
	case "classprefix":
		return fmt.Sprintf("%s %q is not a valid CSS class prefix", field, e.Value())
	}
	return fmt.Sprintf("%s is invalid", field)
}

func minParam(e validator.FieldError) string {
	if e.Tag() == "gt" {
		return "1"
	}
	return e.Param()
}

// Parse reads a YAML configuration on top of the defaults. Unknown keys are
// rejected.
func Parse(data []byte) (Config, error) {
	c := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the YAML configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cannot read configuration: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		tracer().Errorf("configuration %s: %v", path, err)
		return Config{}, err
	}
	tracer().Infof("loaded configuration from %s", path)
	return c, nil
}

// Marshal returns the YAML representation of c.
func (c Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
