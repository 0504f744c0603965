package bcode

import (
	"fmt"
	"sync"

	"github.com/tliron/commonlog"

	"github.com/shardulc/dotty/pkg/symbols"
)

// Severity of a diagnostic.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityLog
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityLog:
		return "log"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is one message produced while generating classes.
type Diagnostic struct {
	Severity Severity
	Msg      string
	Sym      *symbols.Symbol
	Pos      symbols.Pos
}

func (d Diagnostic) String() string {
	if d.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Msg)
	}
	return fmt.Sprintf("%s: %s", d.Severity, d.Msg)
}

// Reporter collects diagnostics and forwards them to the log. It is safe
// for concurrent use by several generators.
type Reporter struct {
	log commonlog.Logger

	mu    sync.Mutex
	diags []Diagnostic
}

// NewReporter returns a reporter logging to log, or to the package logger
// when log is nil.
func NewReporter(log commonlog.Logger) *Reporter {
	if log == nil {
		log = commonlog.GetLogger("mirrorgen.bcode")
	}
	return &Reporter{log: log}
}

func (r *Reporter) add(d Diagnostic) {
	r.mu.Lock()
	r.diags = append(r.diags, d)
	r.mu.Unlock()

	switch d.Severity {
	case SeverityDebug:
		r.log.Debug(d.Msg)
	case SeverityLog:
		r.log.Info(d.Msg)
	case SeverityWarning:
		r.log.Warning(d.Msg)
	default:
		r.log.Error(d.String())
	}
}

// Debugf records a debug trace about sym.
func (r *Reporter) Debugf(sym *symbols.Symbol, pos symbols.Pos, format string, args ...any) {
	r.add(Diagnostic{Severity: SeverityDebug, Msg: fmt.Sprintf(format, args...), Sym: sym, Pos: pos})
}

// Logf records an informational message about sym, such as a skipped
// forwarder.
func (r *Reporter) Logf(sym *symbols.Symbol, pos symbols.Pos, format string, args ...any) {
	r.add(Diagnostic{Severity: SeverityLog, Msg: fmt.Sprintf(format, args...), Sym: sym, Pos: pos})
}

func (r *Reporter) Warningf(sym *symbols.Symbol, pos symbols.Pos, format string, args ...any) {
	r.add(Diagnostic{Severity: SeverityWarning, Msg: fmt.Sprintf(format, args...), Sym: sym, Pos: pos})
}

// Errorf records a user-facing error at pos.
func (r *Reporter) Errorf(sym *symbols.Symbol, pos symbols.Pos, format string, args ...any) {
	r.add(Diagnostic{Severity: SeverityError, Msg: fmt.Sprintf(format, args...), Sym: sym, Pos: pos})
}

// Diagnostics returns a copy of everything reported so far.
func (r *Reporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// Messages returns the messages of the given severity, in report order.
func (r *Reporter) Messages(sev Severity) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, d := range r.diags {
		if d.Severity == sev {
			out = append(out, d.Msg)
		}
	}
	return out
}

// ErrorCount returns the number of errors reported.
func (r *Reporter) ErrorCount() int {
	return len(r.Messages(SeverityError))
}

// InternalError is raised, by panicking, when the generator meets a state
// that an earlier compiler phase should have ruled out. It aborts the class
// being generated; Guard turns it back into an error.
type InternalError struct {
	Msg string
	Sym *symbols.Symbol
	Pos symbols.Pos
}

func (e *InternalError) Error() string {
	if e.Sym != nil {
		return fmt.Sprintf("internal error while generating %s: %s", e.Sym, e.Msg)
	}
	return "internal error: " + e.Msg
}

func abortf(sym *symbols.Symbol, format string, args ...any) {
	var pos symbols.Pos
	if sym != nil {
		pos = sym.Pos
	}
	panic(&InternalError{Msg: fmt.Sprintf(format, args...), Sym: sym, Pos: pos})
}

func assertf(cond bool, sym *symbols.Symbol, format string, args ...any) {
	if !cond {
		abortf(sym, "assertion failed: "+format, args...)
	}
}

// Guard runs fn and converts an InternalError panic into a returned error.
// Any other panic is propagated.
func Guard(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			err = ie
		}
	}()
	fn()
	return nil
}
