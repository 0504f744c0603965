package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/tliron/commonlog"

	"github.com/shardulc/dotty/pkg/config"

	_ "github.com/tliron/commonlog/simple"
)

// Globals are the options shared by all commands.
type Globals struct {
	Verbose int    `short:"v" type:"counter" help:"Increase log verbosity; repeat for more."`
	Config  string `help:"Settings file. By default mirrorgen.toml is looked up from the working directory upwards." placeholder:"FILE"`

	Stdout io.Writer `kong:"-"`
	Stderr io.Writer `kong:"-"`
}

func (g *Globals) settings() (*config.Settings, error) {
	if g.Config != "" {
		return config.Load(g.Config)
	}
	return config.Find(".")
}

type CLI struct {
	Globals

	Gen     GenCmd     `cmd:"" help:"Generate class files from declaration files."`
	Inspect InspectCmd `cmd:"" help:"Print the metadata of a class file or an emission index."`
	Run     RunCmd     `cmd:"" help:"Run the static main method of a generated class."`
	Version VersionCmd `cmd:"" help:"Print version information."`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("mirrorgen"),
		kong.Description("Class file generator for objects, companions and their static forwarders."),
		kong.UsageOnError(),
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	cli := &CLI{Globals: Globals{Stdout: os.Stdout, Stderr: os.Stderr}}
	parser, err := newParser(cli)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	commonlog.Configure(cli.Verbose, nil)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
