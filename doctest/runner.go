package doctest

import (
	"context"
	"fmt"
	"strings"

	"github.com/shibukawa/tabformula/formula"
	"github.com/shibukawa/tabformula/value"
)

// Outcome is the result of running one case.
type Outcome struct {
	Case    Case
	Got     value.Value
	Err     error
	Passed  bool
	Message string
}

// Run evaluates every case of the book. Values are compared by their text form.
func Run(ctx context.Context, p *formula.Parser, book *Book) []Outcome {
	outcomes := make([]Outcome, 0, len(book.Cases))

	for _, c := range book.Cases {
		outcomes = append(outcomes, runCase(ctx, p, c))
	}

	return outcomes
}

func runCase(ctx context.Context, p *formula.Parser, c Case) Outcome {
	got, err := p.ParseContext(ctx, c.Formula, c.Record, c.Fields...)
	o := Outcome{Case: c, Got: got, Err: err}

	wantErr, contains := c.ExpectError()

	switch {
	case wantErr && err == nil:
		o.Message = fmt.Sprintf("expected an error but got %s", value.ToString(got))
	case wantErr && !strings.Contains(err.Error(), contains):
		o.Message = fmt.Sprintf("expected an error containing %q but got %q", contains, err.Error())
	case wantErr:
		o.Passed = true
	case err != nil:
		o.Message = fmt.Sprintf("unexpected error: %v", err)
	case value.ToString(got) != c.Expected:
		o.Message = fmt.Sprintf("expected %s but got %s", c.Expected, value.ToString(got))
	default:
		o.Passed = true
	}

	return o
}

// Failed counts the outcomes that did not pass.
func Failed(outcomes []Outcome) int {
	failed := 0

	for _, o := range outcomes {
		if !o.Passed {
			failed++
		}
	}

	return failed
}
