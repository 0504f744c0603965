// Package emit drives class generation for whole compilation units: it
// plans one job per class file, runs the jobs on a pool of workers each
// owning a generator, writes the class files under an output directory
// and records them in an index.
package emit

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/shardulc/dotty/pkg/bcode"
	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/symbols"
)

// ErrOutputUnavailable is returned, and reported per class, when a class
// file cannot be placed in the output directory.
var ErrOutputUnavailable = errors.New("output directory unavailable")

// Kinds of emitted class files.
const (
	KindClass  = "class"
	KindTrait  = "trait"
	KindModule = "module"
	KindMirror = "mirror"
)

// Emitter writes the class files of compilation units.
type Emitter struct {
	Dir      string
	Workers  int
	Settings bcode.Settings
	// Bodies supplies ordinary method bodies; nil means stubs.
	Bodies   bcode.BodyGenerator
	BTypes   *bcode.BTypes
	Reporter *bcode.Reporter
	Log      commonlog.Logger
}

// New returns an emitter writing to dir with one worker.
func New(dir string, settings bcode.Settings) *Emitter {
	return &Emitter{
		Dir:      dir,
		Workers:  1,
		Settings: settings,
		BTypes:   bcode.NewBTypes(),
		Reporter: bcode.NewReporter(nil),
		Log:      commonlog.GetLogger("mirrorgen.emit"),
	}
}

type job struct {
	index int
	unit  *bcode.Unit
	sym   *symbols.Symbol
	kind  string
}

// plan lists the class files of the units: every declared class, trait and
// object class, nested ones included, plus a mirror class for each
// top-level object without a companion class.
func plan(units []*bcode.Unit) []job {
	var jobs []job
	add := func(u *bcode.Unit, sym *symbols.Symbol, kind string) {
		jobs = append(jobs, job{index: len(jobs), unit: u, sym: sym, kind: kind})
	}
	var visit func(u *bcode.Unit, sym *symbols.Symbol)
	visit = func(u *bcode.Unit, sym *symbols.Symbol) {
		if sym.Is(symbols.JavaDefined) {
			return
		}
		switch {
		case sym.IsModule():
			add(u, sym, KindModule)
			if sym.IsTopLevelClass() && sym.CompanionClass() == nil {
				add(u, sym, KindMirror)
			}
		case sym.IsTrait():
			add(u, sym, KindTrait)
		default:
			add(u, sym, KindClass)
		}
		for _, c := range sym.MemberClasses() {
			visit(u, c)
		}
	}
	for _, u := range units {
		for _, sym := range u.Classes {
			visit(u, sym)
		}
	}
	return jobs
}

// EmitAll generates and writes every class of the units and then the
// index. A class that cannot be written is reported and left out. An
// internal error while generating a class withdraws its whole unit: the
// unit's remaining classes are skipped and the files it already produced
// are removed. Other units proceed.
// The returned error is set only when the output directory itself is
// unusable, the context is done or the index cannot be written.
func (e *Emitter) EmitAll(ctx context.Context, units ...*bcode.Unit) (*Index, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOutputUnavailable, err)
	}

	jobs := plan(units)
	entries := make([]*Entry, len(jobs))
	workers := e.Workers
	if workers < 1 {
		workers = 1
	}

	failed := &failedUnits{units: make(map[*bcode.Unit]bool)}
	queue := make(chan job)
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(queue)
		for _, j := range jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			select {
			case queue <- j:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
	for w := 0; w < workers; w++ {
		eg.Go(func() error {
			// The generator's InnerClasses registrar is per worker.
			gen := bcode.NewGen(e.BTypes, e.Reporter, e.Settings, e.Bodies)
			for j := range queue {
				if failed.has(j.unit) {
					continue
				}
				entry, internal := e.emit(gen, j)
				if internal {
					failed.add(j.unit)
				}
				entries[j.index] = entry
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	idx := &Index{Version: IndexVersion}
	withdrawn := make(map[*bcode.Unit]int)
	for i, entry := range entries {
		if entry == nil {
			continue
		}
		if u := jobs[i].unit; failed.has(u) {
			if err := os.Remove(e.classPath(entry.Name)); err != nil && !os.IsNotExist(err) {
				e.Reporter.Errorf(jobs[i].sym, jobs[i].sym.Pos, "could not remove class %s: %v", entry.Name, err)
			}
			withdrawn[u]++
			continue
		}
		idx.Classes = append(idx.Classes, *entry)
	}
	for _, u := range units {
		if failed.has(u) {
			e.Log.Warningf("withdrew unit %s and %d classes already written", u.Name(), withdrawn[u])
		}
	}
	if err := WriteIndex(filepath.Join(e.Dir, IndexFile), idx); err != nil {
		return nil, err
	}
	e.Log.Infof("emitted %d of %d classes to %s", len(idx.Classes), len(jobs), e.Dir)
	return idx, nil
}

type failedUnits struct {
	mu    sync.Mutex
	units map[*bcode.Unit]bool
}

func (f *failedUnits) add(u *bcode.Unit) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.units[u] = true
}

func (f *failedUnits) has(u *bcode.Unit) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.units[u]
}

func (e *Emitter) classPath(name string) string {
	return filepath.Join(e.Dir, filepath.FromSlash(name)+".class")
}

// emit generates and writes one class file. Failures are reported and
// yield a nil entry; internal is set when generation itself failed.
func (e *Emitter) emit(gen *bcode.Gen, j job) (entry *Entry, internal bool) {
	gen.StartUnit(j.unit)

	var node *classfile.ClassNode
	err := bcode.Guard(func() {
		switch j.kind {
		case KindModule:
			node = gen.GenModuleClass(j.sym)
		case KindMirror:
			node = gen.GenMirrorClass(j.sym)
		default:
			node = gen.GenPlainClass(j.sym)
		}
	})
	if err != nil {
		e.Reporter.Errorf(j.sym, j.sym.Pos,
			"%v\nThis is a bug in the class generator. Please report it together with %s.", err, j.unit.Name())
		return nil, true
	}

	data, err := classfile.Marshal(node)
	if err != nil {
		e.Reporter.Errorf(j.sym, j.sym.Pos, "cannot serialize %s: %v", node.Name, err)
		return nil, false
	}
	path := e.classPath(node.Name)
	if err := writeClassFile(path, data); err != nil {
		e.Reporter.Errorf(j.sym, j.sym.Pos, "could not write class %s: %v", node.Name, err)
		return nil, false
	}
	e.Log.Debugf("wrote %s", path)

	return &Entry{
		Name:       node.Name,
		Kind:       j.kind,
		Source:     j.unit.Source,
		Hash:       sha256.Sum256(data),
		Forwarders: forwarders(node),
	}, false
}

func writeClassFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrOutputUnavailable, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// forwarders lists the static forwarders of a class as name+descriptor.
func forwarders(node *classfile.ClassNode) []string {
	var out []string
	for _, m := range node.Methods {
		if m.Access&classfile.AccStatic == 0 || m.Code == nil || len(m.Code.Insns) == 0 {
			continue
		}
		first := m.Code.Insns[0]
		if first.Op == classfile.OpGetstatic && first.Name == bcode.ModuleInstanceField {
			out = append(out, m.Name+m.Desc)
		}
	}
	return out
}
