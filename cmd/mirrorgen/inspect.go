package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/shardulc/dotty/pkg/classfile"
	"github.com/shardulc/dotty/pkg/emit"
)

type InspectCmd struct {
	Path string `arg:"" type:"existingfile" help:"Class file, or the classes.idx index of an output directory."`
}

func (c *InspectCmd) Run(g *Globals) error {
	if filepath.Base(c.Path) == emit.IndexFile {
		idx, err := emit.ReadIndex(c.Path)
		if err != nil {
			return err
		}
		return printIndex(g.Stdout, idx)
	}
	cf, err := classfile.ParseFile(c.Path)
	if err != nil {
		return err
	}
	return printClass(g.Stdout, cf)
}

func printIndex(w io.Writer, idx *emit.Index) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tCLASS\tSOURCE\tSHA-256\tFORWARDERS")
	for _, e := range idx.Classes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", e.Kind, e.Name, e.Source, hex.EncodeToString(e.Hash[:6]), len(e.Forwarders))
	}
	return tw.Flush()
}

func printClass(w io.Writer, cf *classfile.ClassFile) error {
	name, err := cf.ClassName()
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "class %s\n", name)
	fmt.Fprintf(w, "  version: %d.%d\n", cf.MajorVersion, cf.MinorVersion)
	fmt.Fprintf(w, "  access: %s\n", cf.AccessFlags.ClassString())
	if super := cf.SuperClassName(); super != "" {
		fmt.Fprintf(w, "  super: %s\n", super)
	}
	if ifaces := cf.InterfaceNames(); len(ifaces) > 0 {
		fmt.Fprintf(w, "  interfaces: %s\n", strings.Join(ifaces, ", "))
	}
	if cf.Signature != "" {
		fmt.Fprintf(w, "  signature: %s\n", cf.Signature)
	}
	if cf.SourceFile != "" {
		fmt.Fprintf(w, "  source: %s\n", cf.SourceFile)
	}
	if m := marker(cf); m != "" {
		fmt.Fprintf(w, "  marker: %s\n", m)
	}
	printAnnotations(w, "  ", cf.VisibleAnnotations, cf.InvisibleAnnotations)

	if len(cf.InnerClasses) > 0 {
		fmt.Fprintln(w, "  inner classes:")
		for _, ic := range cf.InnerClasses {
			fmt.Fprintf(w, "    %s", ic.Name)
			if ic.OuterName != "" {
				fmt.Fprintf(w, " outer=%s", ic.OuterName)
			}
			if ic.InnerName != "" {
				fmt.Fprintf(w, " name=%s", ic.InnerName)
			}
			fmt.Fprintf(w, " [%s]\n", ic.Flags.ClassString())
		}
	}

	if len(cf.Fields) > 0 {
		fmt.Fprintln(w, "  fields:")
		for _, f := range cf.Fields {
			fmt.Fprintf(w, "    %s\n", member(f.AccessFlags, f.Name, f.Descriptor))
			if f.Signature != "" {
				fmt.Fprintf(w, "      signature: %s\n", f.Signature)
			}
			printAnnotations(w, "      ", f.VisibleAnnotations, f.InvisibleAnnotations)
		}
	}

	if len(cf.Methods) > 0 {
		fmt.Fprintln(w, "  methods:")
		for _, m := range cf.Methods {
			fmt.Fprintf(w, "    %s\n", member(m.AccessFlags, m.Name, m.Descriptor))
			if m.Signature != "" {
				fmt.Fprintf(w, "      signature: %s\n", m.Signature)
			}
			if len(m.Exceptions) > 0 {
				fmt.Fprintf(w, "      throws: %s\n", strings.Join(m.Exceptions, ", "))
			}
			printAnnotations(w, "      ", m.VisibleAnnotations, m.InvisibleAnnotations)
			for i, annots := range m.VisibleParamAnnotations {
				for _, a := range annots {
					fmt.Fprintf(w, "      param %d: %s\n", i, a)
				}
			}
			for i, annots := range m.InvisibleParamAnnotations {
				for _, a := range annots {
					fmt.Fprintf(w, "      param %d: %s (invisible)\n", i, a)
				}
			}
			if m.Code != nil {
				fmt.Fprintf(w, "      code: %d bytes, stack %d, locals %d\n", len(m.Code.Code), m.Code.MaxStack, m.Code.MaxLocals)
			}
		}
	}
	return nil
}

func member(access classfile.AccessFlags, name, desc string) string {
	if flags := access.MethodString(); flags != "" {
		return flags + " " + name + desc
	}
	return name + desc
}

func printAnnotations(w io.Writer, indent string, visible, invisible []*classfile.Annotation) {
	for _, a := range visible {
		fmt.Fprintf(w, "%s%s\n", indent, a)
	}
	for _, a := range invisible {
		fmt.Fprintf(w, "%s%s (invisible)\n", indent, a)
	}
}

// marker describes the attributes flagging a class as compiler output.
func marker(cf *classfile.ClassFile) string {
	var parts []string
	if _, ok := cf.Attribute(classfile.AttrScala); ok {
		parts = append(parts, "Scala")
	}
	if a, ok := cf.Attribute(classfile.AttrScalaSig); ok && len(a.Data) >= 2 {
		parts = append(parts, fmt.Sprintf("ScalaSig %d.%d", a.Data[0], a.Data[1]))
	}
	if a, ok := cf.Attribute(classfile.AttrTasty); ok {
		if id, err := uuid.FromBytes(a.Data); err == nil {
			parts = append(parts, "TASTY "+id.String())
		} else {
			parts = append(parts, "TASTY (malformed)")
		}
	}
	return strings.Join(parts, ", ")
}
