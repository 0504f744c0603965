package native

import (
	"fmt"
	"strings"
)

// Throwable represents java.lang.Throwable and its subclasses.
type Throwable struct {
	Class   string
	Message string
}

func (t *Throwable) JavaClass() string { return t.Class }

func (t *Throwable) Error() string {
	name := strings.ReplaceAll(t.Class, "/", ".")
	if t.Message == "" {
		return name
	}
	return name + ": " + t.Message
}

// Throw returns a new exception of class to be returned from a Method.
func Throw(class, format string, args ...any) *Throwable {
	return &Throwable{Class: class, Message: fmt.Sprintf(format, args...)}
}

// Integer represents a java.lang.Integer.
type Integer struct {
	Value int32
}

func (*Integer) JavaClass() string { return "java/lang/Integer" }

// Long represents a java.lang.Long.
type Long struct {
	Value int64
}

func (*Long) JavaClass() string { return "java/lang/Long" }

// Unit is the type of scala.runtime.BoxedUnit.UNIT.
type Unit struct{}

func (*Unit) JavaClass() string { return "scala/runtime/BoxedUnit" }

// BoxedUnit is the unique boxed unit value.
var BoxedUnit = &Unit{}

var throwables = []struct{ name, super string }{
	{"java/lang/Throwable", "java/lang/Object"},
	{"java/lang/Exception", "java/lang/Throwable"},
	{"java/io/IOException", "java/lang/Exception"},
	{"java/lang/RuntimeException", "java/lang/Exception"},
	{"java/lang/UnsupportedOperationException", "java/lang/RuntimeException"},
	{"java/lang/IllegalStateException", "java/lang/RuntimeException"},
	{"java/lang/IllegalArgumentException", "java/lang/RuntimeException"},
	{"java/lang/NullPointerException", "java/lang/RuntimeException"},
	{"java/lang/ArithmeticException", "java/lang/RuntimeException"},
}

func noop([]any) (any, error) { return nil, nil }

func init() {
	register(&Class{
		Name: "java/lang/Object",
		Methods: map[string]Method{
			"<init>()V": noop,
			"toString()Ljava/lang/String;": func(args []any) (any, error) {
				return strings.ReplaceAll(ClassOf(args[0]), "/", "."), nil
			},
		},
	})

	for _, tc := range throwables {
		name := tc.name
		c := &Class{
			Name:  name,
			Super: tc.super,
			New:   func() Object { return &Throwable{Class: name} },
		}
		if name == "java/lang/Throwable" {
			c.Methods = map[string]Method{
				"<init>()V": noop,
				"<init>(Ljava/lang/String;)V": func(args []any) (any, error) {
					t := args[0].(*Throwable)
					if s, ok := args[1].(string); ok {
						t.Message = s
					}
					return nil, nil
				},
				"getMessage()Ljava/lang/String;": func(args []any) (any, error) {
					return args[0].(*Throwable).Message, nil
				},
			}
		}
		register(c)
	}

	register(&Class{
		Name:  "java/lang/Integer",
		Super: "java/lang/Object",
		Methods: map[string]Method{
			"valueOf(I)Ljava/lang/Integer;": func(args []any) (any, error) {
				return &Integer{Value: args[0].(int32)}, nil
			},
			"intValue()I": func(args []any) (any, error) {
				return args[0].(*Integer).Value, nil
			},
		},
	})
	register(&Class{
		Name:  "java/lang/Long",
		Super: "java/lang/Object",
		Methods: map[string]Method{
			"valueOf(J)Ljava/lang/Long;": func(args []any) (any, error) {
				return &Long{Value: args[0].(int64)}, nil
			},
			"longValue()J": func(args []any) (any, error) {
				return args[0].(*Long).Value, nil
			},
		},
	})
	register(&Class{
		Name:    "scala/runtime/BoxedUnit",
		Super:   "java/lang/Object",
		Statics: map[string]any{"UNIT": BoxedUnit},
	})
}
