package vm

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/shardulc/dotty/pkg/classfile"
)

// ErrClassNotFound is returned when no loader defines a class.
var ErrClassNotFound = errors.New("class not found")

// ClassLoader loads .class files by internal class name.
type ClassLoader interface {
	LoadClass(name string) (*classfile.ClassFile, error)
}

// MemoryClassLoader serves encoded class files held in memory, such as the
// output of an emission run before it reaches disk.
type MemoryClassLoader struct {
	Parent ClassLoader

	mu    sync.Mutex
	data  map[string][]byte
	cache map[string]*classfile.ClassFile
}

// NewMemoryClassLoader creates a new MemoryClassLoader. parent may be nil.
func NewMemoryClassLoader(parent ClassLoader) *MemoryClassLoader {
	return &MemoryClassLoader{
		Parent: parent,
		data:   make(map[string][]byte),
		cache:  make(map[string]*classfile.ClassFile),
	}
}

// Define adds the encoded class name. A later definition replaces an
// earlier one that has not been loaded yet.
func (cl *MemoryClassLoader) Define(name string, data []byte) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.data[name] = data
}

// DefineNode encodes node and defines it under its own name.
func (cl *MemoryClassLoader) DefineNode(node *classfile.ClassNode) error {
	data, err := classfile.Marshal(node)
	if err != nil {
		return fmt.Errorf("memory: encoding %s: %w", node.Name, err)
	}
	cl.Define(node.Name, data)
	return nil
}

func (cl *MemoryClassLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cf, ok := cl.cache[name]; ok {
		return cf, nil
	}
	data, ok := cl.data[name]
	if !ok {
		if cl.Parent != nil {
			return cl.Parent.LoadClass(name)
		}
		return nil, fmt.Errorf("memory: %s: %w", name, ErrClassNotFound)
	}
	cf, err := classfile.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("memory: parsing %s: %w", name, err)
	}
	cl.cache[name] = cf
	return cf, nil
}

// UserClassLoader loads classes from a class directory, delegating to the
// parent first.
type UserClassLoader struct {
	ClassPath string
	Parent    ClassLoader

	mu    sync.Mutex
	cache map[string]*classfile.ClassFile
}

// NewUserClassLoader creates a new UserClassLoader. parent may be nil.
func NewUserClassLoader(classPath string, parent ClassLoader) *UserClassLoader {
	return &UserClassLoader{
		ClassPath: classPath,
		Parent:    parent,
		cache:     make(map[string]*classfile.ClassFile),
	}
}

func (cl *UserClassLoader) LoadClass(name string) (*classfile.ClassFile, error) {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cf, ok := cl.cache[name]; ok {
		return cf, nil
	}
	if cl.Parent != nil {
		if cf, err := cl.Parent.LoadClass(name); err == nil {
			return cf, nil
		}
	}
	path := filepath.Join(cl.ClassPath, filepath.FromSlash(name)+".class")
	cf, err := classfile.ParseFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("user: %s: %w", name, ErrClassNotFound)
		}
		return nil, fmt.Errorf("user: loading %s: %w", name, err)
	}
	cl.cache[name] = cf
	return cf, nil
}
