// SPDX-License-Identifier: MIT

// Package config is the YAML configuration of the spsolve command. A file
// is decoded over Default(), so it only needs the keys it changes, and the
// result is checked with struct-tag validation before use.
//
//	backend: klu
//	nrhs: 4
//	tol: 0.01
//	ordering:
//	  dense: -1
//	  degree_update: exact
//	log:
//	  level: debug
//	bench:
//	  backends: [gplu, klu]
//	  order: 5000
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/spsolve/amd"
)

// Backends lists the backend names the command can build.
var Backends = []string{"gplu", "klu", "rlu", "dense"}

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config is the whole command configuration.
type Config struct {
	// Backend solves the system.
	Backend string `yaml:"backend" validate:"required,oneof=gplu klu rlu dense"`
	// Matrix is a Matrix Market file; empty means the built-in 10×10 system.
	Matrix string `yaml:"matrix"`
	// Transpose solves Aᵗ·x = b.
	Transpose bool `yaml:"transpose"`
	// NRHS is the number of ramp right-hand sides.
	NRHS int `yaml:"nrhs" validate:"gte=1,lte=4096"`
	// Tol is the pivot threshold of the backends that take one; 0 keeps
	// each backend's own default.
	Tol float64 `yaml:"tol" validate:"gte=0,lte=1"`

	Ordering Ordering `yaml:"ordering"`
	Log      Log      `yaml:"log"`
	Bench    Bench    `yaml:"bench"`
}

// Ordering mirrors amd.Control plus the natural-order switch of klu.
type Ordering struct {
	Dense        float64 `yaml:"dense"`
	Aggressive   bool    `yaml:"aggressive"`
	DegreeUpdate string  `yaml:"degree_update" validate:"oneof=approximate exact"`
	Natural      bool    `yaml:"natural"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Bench configures the bench command.
type Bench struct {
	Backends []string `yaml:"backends" validate:"min=1,dive,oneof=gplu klu rlu dense"`
	Order    int      `yaml:"order" validate:"gte=1"`
	Repeat   int      `yaml:"repeat" validate:"gte=1,lte=10000"`
	Seed     uint64   `yaml:"seed"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	ctl := amd.Defaults()

	return Config{
		Backend: "gplu",
		NRHS:    1,
		Ordering: Ordering{
			Dense:        ctl.Dense,
			Aggressive:   ctl.Aggressive,
			DegreeUpdate: ctl.DegreeUpdate.String(),
		},
		Log:   Log{Level: "info", Format: "text"},
		Bench: Bench{Backends: append([]string(nil), Backends...), Order: 2000, Repeat: 5, Seed: 2000},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks every field tag.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (%v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return nil
}

// Parse decodes data over Default() and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}

	return c, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return c, nil
}

// Marshal renders c as YAML.
func (c Config) Marshal() ([]byte, error) { return yaml.Marshal(c) }

// AMD returns the ordering control record.
func (c Config) AMD() (amd.Control, error) {
	du, err := amd.ParseDegreeUpdate(c.Ordering.DegreeUpdate)
	if err != nil {
		return amd.Control{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return amd.Control{Dense: c.Ordering.Dense, Aggressive: c.Ordering.Aggressive, DegreeUpdate: du}, nil
}

// Logger builds the slog logger writing to w.
func (l Log) Logger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}

	return slog.New(slog.NewTextHandler(w, opts))
}
