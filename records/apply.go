package records

import (
	"context"
	"maps"

	"github.com/shibukawa/tabformula/formula"
	"github.com/shibukawa/tabformula/value"
)

// Result is the outcome of computing a field for one row. Record is a copy of the
// source row with the computed field added; it is nil when Err is set.
type Result struct {
	Row    int
	Record map[string]any
	Value  value.Value
	Err    error
}

// Apply evaluates text for every row of set that passes filter (nil keeps every
// row) and stores the value under field. Formula failures are collected per row;
// the returned error is only set when the filter itself fails.
func Apply(ctx context.Context, p *formula.Parser, set *Set, field, text string, filter *Filter) ([]Result, error) {
	results := make([]Result, 0, set.Len())

	for i, row := range set.Rows {
		if filter != nil {
			ok, err := filter.Match(row)
			if err != nil {
				return nil, err
			}

			if !ok {
				continue
			}
		}

		v, err := p.ParseContext(ctx, text, row, set.Fields...)
		if err != nil {
			results = append(results, Result{Row: i, Err: err})
			continue
		}

		record := maps.Clone(row)
		if record == nil {
			record = make(map[string]any, 1)
		}

		record[field] = v
		results = append(results, Result{Row: i, Record: record, Value: v})
	}

	return results, nil
}
