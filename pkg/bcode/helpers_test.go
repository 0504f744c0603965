package bcode

import (
	"errors"
	"strings"
	"testing"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// newTestPackage returns a fresh package so tests do not share classes.
func newTestPackage(name string) *symbols.Symbol {
	return symbols.NewPackage(symbols.Defn.RootPackage, name)
}

func newTestGen() (*Gen, *Reporter) {
	rep := NewReporter(nil)
	g := NewGen(NewBTypes(), rep, DefaultSettings(), nil)
	g.StartUnit(&Unit{Source: "Test.scala"})
	return g, rep
}

func intType() symbols.Type    { return symbols.Ref(symbols.Defn.IntClass) }
func stringType() symbols.Type { return symbols.Ref(symbols.Defn.StringClass) }
func objectType() symbols.Type { return symbols.Ref(symbols.Defn.ObjectClass) }

func method(params []symbols.Type, result symbols.Type) *symbols.MethodType {
	names := make([]string, len(params))
	for i := range params {
		names[i] = "x" + string(rune('0'+i))
	}
	return &symbols.MethodType{ParamNames: names, Params: params, Result: result}
}

// mustInternalError runs fn and fails unless it aborts with an
// InternalError.
func mustInternalError(t *testing.T, fn func()) *InternalError {
	t.Helper()
	err := Guard(fn)
	var ie *InternalError
	if !errors.As(err, &ie) {
		t.Fatalf("expected an internal error, got %v", err)
	}
	return ie
}

func hasMessage(msgs []string, substr string) bool {
	for _, m := range msgs {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func methodNames(ms []*classfile.MethodNode) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Name + m.Desc
	}
	return out
}
