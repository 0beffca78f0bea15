package records

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"github.com/goccy/go-yaml"

	"github.com/shibukawa/tabformula/formula"
)

// Format names a record file format.
type Format string

const (
	FormatAuto Format = ""
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "":
		return FormatAuto, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "xml":
		return FormatXML, nil
	}

	return FormatAuto, fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// literalCell matches CSV and XML text that is read as a literal instead of a
// string: numbers, big integers, booleans and null.
var literalCell = regexp.MustCompile(`(?i)^([+-]?(\d+\.?\d*|\.\d+)(e[+-]?\d+)?|\d+n|true|false|null)$`)

// CellValue reads untyped text such as a CSV cell: blank text is nil, literals
// become values and anything else stays a string.
func CellValue(text string) any {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if literalCell.MatchString(text) {
		return formula.ResolveLiteral(text)
	}

	return text
}

// Load reads a record file. With FormatAuto the format follows the file
// extension.
func Load(path string, format Format) (*Set, error) {
	if format == FormatAuto {
		f, err := ParseFormat(filepath.Ext(path))
		if err != nil {
			return nil, err
		}

		if f == FormatAuto {
			return nil, fmt.Errorf("%w: cannot guess the format of %s", ErrUnsupportedFormat, path)
		}

		format = f
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return Parse(content, format)
}

// Parse decodes records from content.
func Parse(content []byte, format Format) (*Set, error) {
	content = bytes.TrimSpace(content)
	if len(content) == 0 {
		return nil, ErrEmptyContent
	}

	switch format {
	case FormatYAML, FormatJSON:
		return parseYAML(content)
	case FormatCSV:
		return parseCSV(bytes.NewReader(content))
	case FormatXML:
		return parseXML(content)
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// parseYAML reads a sequence of mappings. JSON arrays are valid YAML too. The
// mappings are decoded as MapSlice so the field order of the file is kept.
func parseYAML(content []byte) (*Set, error) {
	var items []yaml.MapSlice
	if err := yaml.Unmarshal(content, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecords, err)
	}

	set := &Set{}

	for i, item := range items {
		row := make(map[string]any, len(item))
		order := make([]string, 0, len(item))

		for _, kv := range item {
			key, ok := kv.Key.(string)
			if !ok {
				return nil, fmt.Errorf("%w: record %d has a non-string key %v", ErrInvalidRecords, i, kv.Key)
			}

			row[key] = kv.Value
			order = append(order, key)
		}

		set.Add(row, order...)
	}

	return set, nil
}

func parseCSV(r io.Reader) (*Set, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecords, err)
	}

	header := rows[0]
	for i, name := range header {
		header[i] = strings.TrimSpace(name)
	}

	set := &Set{Fields: header}

	for _, cells := range rows[1:] {
		row := make(map[string]any, len(header))
		for i, cell := range cells {
			row[header[i]] = CellValue(cell)
		}

		set.Rows = append(set.Rows, row)
	}

	return set, nil
}

// parseXML reads <records><record a="1"><b>2</b></record></records>. Fields come
// from attributes first and child elements second.
func parseXML(content []byte) (*Set, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(content); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecords, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: missing root element", ErrInvalidRecords)
	}

	set := &Set{}

	for _, elem := range root.ChildElements() {
		row := make(map[string]any)

		var order []string

		for _, attr := range elem.Attr {
			row[attr.Key] = CellValue(attr.Value)
			order = append(order, attr.Key)
		}

		for _, child := range elem.ChildElements() {
			row[child.Tag] = CellValue(child.Text())
			order = append(order, child.Tag)
		}

		set.Add(row, order...)
	}

	return set, nil
}
