// Package config loads the generator settings from a mirrorgen.toml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/shardulc/dotty/pkg/bcode"
	"github.com/shardulc/dotty/pkg/classfile"
)

// FileName is the settings file looked up by Find.
const FileName = "mirrorgen.toml"

const (
	DefaultOutput  = "out"
	DefaultWorkers = 4
)

// Settings are the options of one generator session.
type Settings struct {
	NoGenericSig     bool   `toml:"no-generic-sig"`
	VerifySignatures bool   `toml:"verify-signatures"`
	EmitSourceFile   bool   `toml:"emit-source-file"`
	Pickled          bool   `toml:"pickled"`
	Output           string `toml:"output" validate:"required"`
	Workers          int    `toml:"workers" validate:"gte=1,lte=64"`
	ClassfileVersion int    `toml:"classfile-version" validate:"gte=49,lte=70"`

	// Dir is the directory holding the settings file; relative paths
	// resolve against it. Empty for defaults.
	Dir string `toml:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Default returns the settings used without a settings file.
func Default() *Settings {
	return &Settings{
		VerifySignatures: true,
		EmitSourceFile:   true,
		Output:           DefaultOutput,
		Workers:          DefaultWorkers,
		ClassfileVersion: int(classfile.DefaultMajorVersion),
	}
}

// Load reads and validates the settings file at path. Keys absent from the
// file keep their defaults; unknown keys are an error.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	s, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	s.Dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes settings from TOML text.
func Parse(text string) (*Settings, error) {
	s := Default()
	md, err := toml.Decode(text, s)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	// An explicit empty or zero value falls back to the default.
	if s.Output == "" {
		s.Output = DefaultOutput
	}
	if s.Workers == 0 {
		s.Workers = DefaultWorkers
	}
	if s.ClassfileVersion == 0 {
		s.ClassfileVersion = int(classfile.DefaultMajorVersion)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Find walks up from startDir looking for a settings file and loads the
// first one found. Without one it returns the defaults.
func Find(startDir string) (*Settings, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// Validate checks the settings' ranges.
func (s *Settings) Validate() error {
	err := validate.Struct(s)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fe.Field()+": "+formatFieldError(fe))
	}
	return fmt.Errorf("invalid settings: %s", strings.Join(messages, "; "))
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// OutputDir returns the output directory, resolved against Dir.
func (s *Settings) OutputDir() string {
	if filepath.IsAbs(s.Output) || s.Dir == "" {
		return s.Output
	}
	return filepath.Join(s.Dir, s.Output)
}

// BcodeSettings returns the code generation options.
func (s *Settings) BcodeSettings() bcode.Settings {
	return bcode.Settings{
		NoGenericSig:     s.NoGenericSig,
		VerifySignatures: s.VerifySignatures,
		EmitSourceFile:   s.EmitSourceFile,
		ClassfileVersion: uint16(s.ClassfileVersion),
	}
}
