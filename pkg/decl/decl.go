// Package decl reads declaration files: TOML descriptions of the classes,
// traits and objects of one compilation unit, with their members' types,
// flags and annotations. A declaration file builds into a symbol tree that
// the generator consumes like front-end output.
//
// A minimal file:
//
//	source = "Greeter.scala"
//	package = "demo"
//
//	[[class]]
//	name = "Greeter"
//	kind = "object"
//
//	  [[class.method]]
//	  name = "greet"
//	  params = [{ name = "who", type = "String" }]
//	  result = "String"
package decl

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
)

// File is a decoded declaration file.
type File struct {
	Source      string            `toml:"source"`
	Package     string            `toml:"package" validate:"omitempty,qualified"`
	Pickled     bool              `toml:"pickled"`
	Annotations []AnnotationClass `toml:"annotation" validate:"dive"`
	Classes     []Class           `toml:"class" validate:"dive"`
}

// AnnotationClass declares a Java annotation interface usable by the
// unit's annotations.
type AnnotationClass struct {
	Name      string  `toml:"name" validate:"ident"`
	Retention string  `toml:"retention" validate:"omitempty,oneof=SOURCE CLASS RUNTIME"`
	Elements  []Param `toml:"elements" validate:"dive"`
}

// Class declares a class, trait or object. Kind defaults to class.
type Class struct {
	Name        string       `toml:"name" validate:"ident"`
	Kind        string       `toml:"kind" validate:"omitempty,oneof=class trait object"`
	Flags       []string     `toml:"flags"`
	Extends     string       `toml:"extends"`
	With        []string     `toml:"with"`
	TypeParams  []string     `toml:"type-params"`
	Params      []Param      `toml:"params" validate:"dive"`
	Annotations []Annotation `toml:"annotations" validate:"dive"`
	Methods     []Method     `toml:"method" validate:"dive"`
	Values      []Value      `toml:"value" validate:"dive"`
	Types       []TypeMember `toml:"type" validate:"dive"`
	Classes     []Class      `toml:"class" validate:"dive"`
}

// Method declares a method. Result defaults to Unit.
type Method struct {
	Name        string       `toml:"name" validate:"ident"`
	Flags       []string     `toml:"flags"`
	TypeParams  []string     `toml:"type-params"`
	Params      []Param      `toml:"params" validate:"dive"`
	Result      string       `toml:"result"`
	Throws      []string     `toml:"throws"`
	Annotations []Annotation `toml:"annotations" validate:"dive"`
	// Overrides names the method a bridge stands in for, as
	// "Class.method".
	Overrides string `toml:"overrides"`
}

// Param is a value parameter or an annotation element.
type Param struct {
	Name        string       `toml:"name" validate:"ident"`
	Type        string       `toml:"type" validate:"required"`
	Annotations []Annotation `toml:"annotations" validate:"dive"`
}

// Value declares a field-like member.
type Value struct {
	Name        string       `toml:"name" validate:"ident"`
	Type        string       `toml:"type" validate:"required"`
	Flags       []string     `toml:"flags"`
	Annotations []Annotation `toml:"annotations" validate:"dive"`
}

// TypeMember declares a type alias, or an abstract type when Alias is
// empty.
type TypeMember struct {
	Name  string `toml:"name" validate:"ident"`
	Alias string `toml:"alias"`
	Upper string `toml:"upper"`
}

// Annotation applies an annotation class. Args are keyed by element name.
type Annotation struct {
	Class string         `toml:"class" validate:"required"`
	Args  map[string]any `toml:"args"`
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
	_ = v.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return isIdent(fl.Field().String())
	})
	_ = v.RegisterValidation("qualified", func(fl validator.FieldLevel) bool {
		for _, seg := range strings.Split(fl.Field().String(), ".") {
			if !isIdent(seg) {
				return false
			}
		}
		return true
	})
	return v
}

func isIdent(s string) bool {
	return s != "" && !strings.ContainsAny(s, ".;/[]<>: \t\n")
}

// Load reads, validates and builds the declaration file at path. A file
// without a source name takes the file's base name.
func Load(path string) (*bcode.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	f, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if f.Source == "" {
		f.Source = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + ".scala"
	}
	u, err := f.Build()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

// Parse decodes and validates a declaration file.
func Parse(text string) (*File, error) {
	var f File
	md, err := toml.Decode(text, &f)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			// Annotation arguments are free-form.
			if strings.Contains(k.String(), ".args.") {
				continue
			}
			keys = append(keys, k.String())
		}
		if len(keys) > 0 {
			sort.Strings(keys)
			return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks the declarations' shape. Type expressions and flags are
// checked by Build.
func (f *File) Validate() error {
	err := validate.Struct(f)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fieldPath(fe)+": "+formatFieldError(fe))
	}
	return fmt.Errorf("invalid declarations: %s", strings.Join(messages, "; "))
}

// fieldPath drops the root struct name from a field's namespace:
// "File.class[0].method[1].name" becomes "class[0].method[1].name".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "ident":
		return fmt.Sprintf("%q is not a simple name", fe.Value())
	case "qualified":
		return fmt.Sprintf("%q is not a qualified name", fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
