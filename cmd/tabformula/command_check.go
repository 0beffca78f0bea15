package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/shibukawa/tabformula/doctest"
)

var ErrCheckFailed = errors.New("formula book check failed")

// CheckCmd represents the check command
type CheckCmd struct {
	Books []string `arg:"" help:"Formula book Markdown files" type:"existingfile"`
}

// Run executes the check command
func (cmd *CheckCmd) Run(ctx *Context) error {
	config, err := ctx.loadConfig()
	if err != nil {
		return err
	}

	p, err := ctx.newParser(config)
	if err != nil {
		return err
	}

	total, failed := 0, 0

	for _, path := range cmd.Books {
		book, err := loadBook(path)
		if err != nil {
			return err
		}

		outcomes := doctest.Run(context.Background(), p, book)
		total += len(outcomes)
		failed += doctest.Failed(outcomes)

		if !ctx.Quiet && book.Title != "" {
			color.New(color.FgBlue).Fprintf(ctx.Stdout, "%s (%s)\n", book.Title, path)
		}

		for _, o := range outcomes {
			switch {
			case !o.Passed:
				color.New(color.FgRed).Fprintf(ctx.Stdout, "FAIL %s:%d %s: %s\n", path, o.Case.Line, o.Case.Name, o.Message)
			case ctx.Verbose:
				color.New(color.FgGreen).Fprintf(ctx.Stdout, "PASS %s:%d %s\n", path, o.Case.Line, o.Case.Name)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d cases failed", ErrCheckFailed, failed, total)
	}

	if !ctx.Quiet {
		color.New(color.FgGreen).Fprintf(ctx.Stdout, "ok: %d cases passed\n", total)
	}

	return nil
}

func loadBook(path string) (*doctest.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open formula book: %w", err)
	}
	defer f.Close()

	book, err := doctest.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return book, nil
}
