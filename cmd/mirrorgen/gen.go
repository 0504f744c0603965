package main

import (
	"context"
	"fmt"

	"github.com/shardulc/dotty/pkg/bcode"
	"github.com/shardulc/dotty/pkg/decl"
	"github.com/shardulc/dotty/pkg/emit"
)

type GenCmd struct {
	Decls        []string `arg:"" help:"Declaration files, one per compilation unit."`
	Out          string   `short:"o" help:"Output directory. Overrides the settings file." placeholder:"DIR"`
	Workers      int      `short:"j" help:"Number of classes generated in parallel. Overrides the settings file."`
	NoGenericSig bool     `help:"Do not emit generic signatures."`
	NoVerify     bool     `name:"no-verify-signatures" help:"Do not check generated signatures."`
	Pickled      bool     `help:"Mark every unit as carrying pickled signature data."`
}

func (c *GenCmd) Run(g *Globals) error {
	settings, err := g.settings()
	if err != nil {
		return err
	}
	if c.Out != "" {
		settings.Output, settings.Dir = c.Out, ""
	}
	if c.Workers != 0 {
		settings.Workers = c.Workers
	}
	settings.NoGenericSig = settings.NoGenericSig || c.NoGenericSig
	settings.VerifySignatures = settings.VerifySignatures && !c.NoVerify
	settings.Pickled = settings.Pickled || c.Pickled
	if err := settings.Validate(); err != nil {
		return err
	}

	units := make([]*bcode.Unit, 0, len(c.Decls))
	for _, path := range c.Decls {
		u, err := decl.Load(path)
		if err != nil {
			return err
		}
		u.Pickled = u.Pickled || settings.Pickled
		units = append(units, u)
	}

	e := emit.New(settings.OutputDir(), settings.BcodeSettings())
	e.Workers = settings.Workers
	idx, err := e.EmitAll(context.Background(), units...)
	if err != nil {
		return err
	}

	var failed int
	for _, d := range e.Reporter.Diagnostics() {
		if d.Severity == bcode.SeverityError {
			fmt.Fprintln(g.Stderr, d)
			failed++
		}
	}
	fmt.Fprintf(g.Stdout, "wrote %d classes to %s\n", len(idx.Classes), e.Dir)
	if failed > 0 {
		return fmt.Errorf("%d errors", failed)
	}
	return nil
}
