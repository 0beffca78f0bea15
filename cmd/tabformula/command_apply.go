package main

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/fatih/color"

	"github.com/shibukawa/tabformula"
	"github.com/shibukawa/tabformula/records"
)

var (
	ErrNoRecordSource       = errors.New("no record source: use --input, --db with --query, or records.source in the configuration")
	ErrInputAndDBExclusive  = errors.New("--input and --db are mutually exclusive")
	ErrQueryRequired        = errors.New("--db requires --query")
	ErrFormulaFailedForRows = errors.New("formula failed for some rows")
)

// ApplyCmd represents the apply command
type ApplyCmd struct {
	Input   string `help:"Record file (yaml, json, csv, xml)" short:"i"`
	Format  string `help:"Record file format, guessed from the extension when omitted"`
	DB      string `help:"Database name from the configuration" name:"db"`
	Query   string `help:"SQL query producing the records"`
	Field   string `help:"Name of the computed field" short:"f" required:""`
	Formula string `help:"Formula to compute for every record" short:"e" required:""`
	Where   string `help:"CEL expression selecting records, e.g. 'record.qty > 0'" short:"w"`
	Output  string `help:"Output format (table, yaml, json)" short:"o"`
}

// Run executes the apply command
func (cmd *ApplyCmd) Run(ctx *Context) error {
	config, err := ctx.loadConfig()
	if err != nil {
		return err
	}

	p, err := ctx.newParser(config)
	if err != nil {
		return err
	}

	var filter *records.Filter

	if cmd.Where != "" {
		filter, err = records.NewFilter(cmd.Where)
		if err != nil {
			return err
		}
	}

	c := context.Background()

	set, err := cmd.loadRecords(c, config)
	if err != nil {
		return err
	}

	set.Fields = orderFields(set.Fields, config.Records.Fields)

	ctx.Log.Debugw("records loaded", "rows", set.Len(), "fields", set.Fields)

	results, err := records.Apply(c, p, set, cmd.Field, cmd.Formula, filter)
	if err != nil {
		return err
	}

	format := cmd.Output
	if format == "" {
		format = config.Output.Format
	}

	if err := writeResults(ctx.Stdout, format, set.FieldsWith(cmd.Field), cmd.Field, results); err != nil {
		return err
	}

	failed := 0

	for _, r := range results {
		if r.Err != nil {
			failed++

			if !ctx.Quiet {
				color.New(color.FgYellow).Fprintf(ctx.Stdout, "row %d: %v\n", r.Row, r.Err)
			}
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFormulaFailedForRows, failed, len(results))
	}

	return nil
}

// loadRecords reads the record set from the flags, falling back to the
// records section of the configuration.
func (cmd *ApplyCmd) loadRecords(ctx context.Context, config *tabformula.Config) (*records.Set, error) {
	if cmd.Input != "" && cmd.DB != "" {
		return nil, ErrInputAndDBExclusive
	}

	if cmd.DB != "" {
		if cmd.Query == "" {
			return nil, ErrQueryRequired
		}

		dbConfig, err := config.Database(cmd.DB)
		if err != nil {
			return nil, err
		}

		db, err := records.Open(ctx, dbConfig.Driver, dbConfig.Connection, dbConfig.Timeout)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		return records.Query(ctx, db, cmd.Query)
	}

	input, format := cmd.Input, cmd.Format
	if input == "" {
		input = config.Records.Source
		if format == "" {
			format = config.Records.Format
		}
	}

	if input == "" {
		return nil, ErrNoRecordSource
	}

	f, err := records.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	return records.Load(input, f)
}

// orderFields puts preferred fields first, keeping the rest in their order.
// Preferred names that are not in fields are dropped.
func orderFields(fields, preferred []string) []string {
	if len(preferred) == 0 {
		return fields
	}

	result := make([]string, 0, len(fields))

	for _, name := range preferred {
		if slices.Contains(fields, name) && !slices.Contains(result, name) {
			result = append(result, name)
		}
	}

	for _, name := range fields {
		if !slices.Contains(result, name) {
			result = append(result, name)
		}
	}

	return result
}
