package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/shibukawa/tabformula"
	"github.com/shibukawa/tabformula/formula"
)

// Context represents the global context for commands
type Context struct {
	Config  string
	Verbose bool
	Quiet   bool
	Stdout  io.Writer
	Log     *zap.SugaredLogger
}

// loadConfig reads the configuration and applies its output settings
func (c *Context) loadConfig() (*tabformula.Config, error) {
	config, err := tabformula.LoadConfig(c.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if !config.Output.UseColor() {
		color.NoColor = true
	}

	c.Log.Debugw("configuration loaded", "path", c.Config, "operators", len(config.Operators), "databases", len(config.Databases))

	return config, nil
}

// newParser builds the parser described by the configuration
func (c *Context) newParser(config *tabformula.Config) (*formula.Parser, error) {
	p, err := config.NewParser(evalLogger(c.Log))
	if err != nil {
		return nil, fmt.Errorf("failed to create parser: %w", err)
	}

	return p, nil
}

// CLI represents the command-line interface
var CLI struct {
	Config    string       `help:"Configuration file path" default:"tabformula.yaml"`
	Verbose   bool         `help:"Enable verbose output" short:"v"`
	Quiet     bool         `help:"Suppress output" short:"q"`
	Eval      EvalCmd      `cmd:"" help:"Evaluate a formula against one record"`
	Apply     ApplyCmd     `cmd:"" help:"Compute a formula field over a record set"`
	Check     CheckCmd     `cmd:"" help:"Run formula books written in Markdown"`
	Functions FunctionsCmd `cmd:"" help:"List callable functions and operators"`
	Version   VersionCmd   `cmd:"" help:"Show version information"`
}

// VersionCmd represents the version command
type VersionCmd struct{}

// Run executes the version command
func (cmd *VersionCmd) Run(ctx *Context) error {
	fmt.Fprintln(ctx.Stdout, "tabformula v0.1.0")
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("tabformula"),
		kong.Description("Evaluate spreadsheet-like formulas against records"),
		kong.UsageOnError(),
	)

	log := newLogger(CLI.Verbose, CLI.Quiet)
	defer func() { _ = log.Sync() }()

	appCtx := &Context{
		Config:  CLI.Config,
		Verbose: CLI.Verbose,
		Quiet:   CLI.Quiet,
		Stdout:  os.Stdout,
		Log:     log,
	}

	err := ctx.Run(appCtx)
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
