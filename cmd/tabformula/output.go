package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"
	"text/tabwriter"

	goyaml "github.com/goccy/go-yaml"
	"gopkg.in/yaml.v3"

	"github.com/shibukawa/tabformula/records"
	"github.com/shibukawa/tabformula/value"
)

var ErrUnknownOutputFormat = errors.New("unknown output format")

// writeResults prints the records that were computed successfully.
func writeResults(w io.Writer, format string, fields []string, field string, results []records.Result) error {
	var rows []map[string]any

	for _, r := range results {
		if r.Err == nil {
			rows = append(rows, r.Record)
		}
	}

	switch format {
	case "", "table":
		return writeTable(w, fields, rows)
	case "yaml":
		return writeYAML(w, fields, rows)
	case "json":
		return writeJSON(w, fields, rows)
	default:
		return fmt.Errorf("%w: %s (computing %s)", ErrUnknownOutputFormat, format, field)
	}
}

func writeTable(w io.Writer, fields []string, rows []map[string]any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(fields, "\t"))

	for _, row := range rows {
		cells := make([]string, len(fields))

		for i, f := range fields {
			if v := row[f]; v != nil {
				cells[i] = value.ToString(value.Normalize(v))
			}
		}

		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}

	return tw.Flush()
}

// writeYAML builds the document as nodes so mapping keys keep the field order.
func writeYAML(w io.Writer, fields []string, rows []map[string]any) error {
	doc := &yaml.Node{Kind: yaml.SequenceNode}

	for _, row := range rows {
		mapping := &yaml.Node{Kind: yaml.MappingNode}

		for _, f := range fields {
			v, ok := row[f]
			if !ok {
				continue
			}

			key, val := &yaml.Node{}, &yaml.Node{}
			if err := key.Encode(f); err != nil {
				return fmt.Errorf("failed to encode field name %q: %w", f, err)
			}

			if err := val.Encode(plainValue(v)); err != nil {
				return fmt.Errorf("failed to encode field %q: %w", f, err)
			}

			mapping.Content = append(mapping.Content, key, val)
		}

		doc.Content = append(doc.Content, mapping)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to write yaml: %w", err)
	}

	return enc.Close()
}

func writeJSON(w io.Writer, fields []string, rows []map[string]any) error {
	items := make([]goyaml.MapSlice, 0, len(rows))

	for _, row := range rows {
		item := make(goyaml.MapSlice, 0, len(fields))

		for _, f := range fields {
			if v, ok := row[f]; ok {
				item = append(item, goyaml.MapItem{Key: f, Value: plainValue(v)})
			}
		}

		items = append(items, item)
	}

	data, err := goyaml.MarshalWithOptions(items, goyaml.JSON())
	if err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}

	_, err = w.Write(data)

	return err
}

// plainValue converts formula values to types the encoders write faithfully.
func plainValue(v any) any {
	switch n := value.Normalize(v).(type) {
	case *big.Int:
		return n.String()
	case error:
		return n.Error()
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return value.ToString(n)
		}

		return n
	default:
		if value.KindOf(n) == value.KindUndefined {
			return nil
		}

		return n
	}
}
