package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/shibukawa/tabformula/records"
	"github.com/shibukawa/tabformula/value"
)

var (
	ErrInvalidAssignment = errors.New("--set expects key=value")
	ErrRowOutOfRange     = errors.New("row index is out of range")
)

// EvalCmd represents the eval command
type EvalCmd struct {
	Formula string   `arg:"" help:"Formula to evaluate"`
	Record  string   `help:"Record file (yaml, json, csv, xml)" short:"r" type:"existingfile"`
	Row     int      `help:"Row of the record file to use" default:"0"`
	Set     []string `help:"Set a record field, e.g. --set qty=3" short:"s" sep:"none"`
	Fields  []string `help:"Field order used by positional tags like {{0}}"`
}

// Run executes the eval command
func (cmd *EvalCmd) Run(ctx *Context) error {
	config, err := ctx.loadConfig()
	if err != nil {
		return err
	}

	p, err := ctx.newParser(config)
	if err != nil {
		return err
	}

	record, fields, err := cmd.record()
	if err != nil {
		return err
	}

	result, err := p.ParseContext(context.Background(), cmd.Formula, record, fields...)
	if err != nil {
		return err
	}

	if ctx.Verbose {
		color.New(color.FgCyan).Fprintf(ctx.Stdout, "%s: ", value.KindOf(result))
	}

	fmt.Fprintln(ctx.Stdout, value.ToString(result))

	return nil
}

// record assembles the record from --record and --set. Fields come from
// --fields when given, otherwise from the record file followed by new --set keys.
func (cmd *EvalCmd) record() (map[string]any, []string, error) {
	record := map[string]any{}

	var fields []string

	if cmd.Record != "" {
		set, err := records.Load(cmd.Record, records.FormatAuto)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load record: %w", err)
		}

		if cmd.Row < 0 || cmd.Row >= set.Len() {
			return nil, nil, fmt.Errorf("%w: %d (records: %d)", ErrRowOutOfRange, cmd.Row, set.Len())
		}

		for k, v := range set.Rows[cmd.Row] {
			record[k] = v
		}

		fields = append(fields, set.Fields...)
	}

	for _, assignment := range cmd.Set {
		key, raw, ok := strings.Cut(assignment, "=")
		key = strings.TrimSpace(key)

		if !ok || key == "" {
			return nil, nil, fmt.Errorf("%w: %q", ErrInvalidAssignment, assignment)
		}

		if _, exists := record[key]; !exists {
			fields = append(fields, key)
		}

		record[key] = records.CellValue(raw)
	}

	if len(cmd.Fields) > 0 {
		fields = cmd.Fields
	}

	return record, fields, nil
}
