package native

import (
	"fmt"
	"io"
)

// PrintStream represents a java.io.PrintStream.
type PrintStream struct {
	Writer io.Writer
}

func (*PrintStream) JavaClass() string { return "java/io/PrintStream" }

// Println prints a value followed by a newline.
func (ps *PrintStream) Println(args ...any) {
	if len(args) == 0 {
		fmt.Fprintln(ps.Writer)
		return
	}
	switch v := args[0].(type) {
	case *Integer:
		fmt.Fprintln(ps.Writer, v.Value)
	case *Long:
		fmt.Fprintln(ps.Writer, v.Value)
	case *Unit:
		fmt.Fprintln(ps.Writer, "()")
	case nil:
		fmt.Fprintln(ps.Writer, "null")
	default:
		fmt.Fprintln(ps.Writer, v)
	}
}

func printlnMethod(args []any) (any, error) {
	args[0].(*PrintStream).Println(args[1:]...)
	return nil, nil
}

func init() {
	register(&Class{
		Name:  "java/io/PrintStream",
		Super: "java/lang/Object",
		Methods: map[string]Method{
			"println()V":                   printlnMethod,
			"println(I)V":                  printlnMethod,
			"println(J)V":                  printlnMethod,
			"println(Ljava/lang/String;)V": printlnMethod,
			"println(Ljava/lang/Object;)V": printlnMethod,
		},
	})
	// System.out is bound per interpreter to its own writer.
	register(&Class{Name: "java/lang/System", Super: "java/lang/Object"})
}
