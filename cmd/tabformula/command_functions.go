package main

import (
	"fmt"
	"text/tabwriter"
)

// FunctionsCmd represents the functions command
type FunctionsCmd struct {
	Operators bool `help:"List operators with their precedence as well"`
}

// Run executes the functions command
func (cmd *FunctionsCmd) Run(ctx *Context) error {
	config, err := ctx.loadConfig()
	if err != nil {
		return err
	}

	p, err := ctx.newParser(config)
	if err != nil {
		return err
	}

	for _, name := range p.Functions() {
		fmt.Fprintln(ctx.Stdout, name)
	}

	if !cmd.Operators {
		return nil
	}

	fmt.Fprintln(ctx.Stdout)

	tw := tabwriter.NewWriter(ctx.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "OPERATOR\tTYPE\tPRECEDENCE")

	for _, op := range p.Operators().Operators() {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", op.Name, op.Category, op.Precedence)
	}

	return tw.Flush()
}
