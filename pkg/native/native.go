// Package native implements in Go the JDK and Scala runtime classes that
// generated classes reach: the constructors of Object and of the
// exceptions thrown by stub bodies, boxing, BoxedUnit and System.out.
package native

// Object is implemented by Go values standing in for JVM objects.
type Object interface {
	JavaClass() string
}

// Method is the Go body of a JVM method. Instance methods receive their
// receiver as args[0]. Arguments and results are int32, int64, float32,
// float64, string, nil or an Object. A *Throwable error is thrown into the
// calling code.
type Method func(args []any) (any, error)

// Class is a bootstrap class implemented in Go.
type Class struct {
	Name  string
	Super string
	// New allocates an instance; nil for classes allocated as plain
	// objects by the interpreter.
	New     func() Object
	Methods map[string]Method // keyed by name + descriptor
	Statics map[string]any
}

var registry = make(map[string]*Class)

func register(c *Class) {
	if c.Methods == nil {
		c.Methods = make(map[string]Method)
	}
	registry[c.Name] = c
}

// Lookup returns the bootstrap class with the given internal name.
func Lookup(name string) (*Class, bool) {
	c, ok := registry[name]
	return c, ok
}

// ClassOf returns the internal class name of a Go value used as a JVM
// reference.
func ClassOf(v any) string {
	switch v := v.(type) {
	case string:
		return "java/lang/String"
	case Object:
		return v.JavaClass()
	}
	return "java/lang/Object"
}
