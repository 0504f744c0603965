package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/vm"
)

type RunCmd struct {
	ClassPath string `name:"classpath" short:"c" default:"." help:"Directory holding the class files." placeholder:"DIR"`
	Class     string `arg:"" help:"Class name (demo.Main or demo/Main), or the path of its class file."`
}

func (c *RunCmd) Run(g *Globals) error {
	classPath, name, err := c.target()
	if err != nil {
		return err
	}
	v := vm.NewVM(vm.NewUserClassLoader(classPath, nil))
	v.Stdout = g.Stdout
	if err := v.Execute(name); err != nil {
		return fmt.Errorf("executing %s: %w", name, err)
	}
	return nil
}

// target resolves the class to run. A class file path is read for its
// name, and the class path is the directory the package tree starts in.
func (c *RunCmd) target() (classPath, name string, err error) {
	if !strings.HasSuffix(c.Class, ".class") {
		return c.ClassPath, strings.ReplaceAll(c.Class, ".", "/"), nil
	}
	cf, err := classfile.ParseFile(c.Class)
	if err != nil {
		return "", "", err
	}
	if name, err = cf.ClassName(); err != nil {
		return "", "", err
	}
	path := filepath.ToSlash(filepath.Clean(c.Class))
	root, ok := strings.CutSuffix(path, name+".class")
	if !ok {
		return "", "", fmt.Errorf("%s holds class %s and is not in its package directory", c.Class, name)
	}
	if root == "" {
		root = "."
	}
	return filepath.FromSlash(root), name, nil
}
