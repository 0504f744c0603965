package vm

import (
	"fmt"

	"github.com/shardulc/dotty/pkg/native"
)

// JavaException represents a JVM exception being thrown. Object is the
// thrown reference.
type JavaException struct {
	Object any
}

func (e *JavaException) Error() string {
	if t, ok := e.Object.(*native.Throwable); ok {
		return fmt.Sprintf("JavaException: %s", t.Error())
	}
	return fmt.Sprintf("JavaException: %s", native.ClassOf(e.Object))
}

// ClassName returns the class of the thrown object.
func (e *JavaException) ClassName() string { return native.ClassOf(e.Object) }

func NewJavaException(className string) *JavaException {
	return &JavaException{Object: &native.Throwable{Class: className}}
}
