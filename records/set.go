// Package records loads the tabular data formulas are evaluated against and
// computes formula fields over whole record sets.
package records

import "slices"

// Set is an ordered list of records sharing one field order. Fields is also the
// order used for positional tags like {{0}}.
type Set struct {
	Fields []string
	Rows   []map[string]any
}

// Add appends a row, registering fields that were not seen before.
func (s *Set) Add(row map[string]any, order ...string) {
	for _, name := range order {
		if !slices.Contains(s.Fields, name) {
			s.Fields = append(s.Fields, name)
		}
	}

	s.Rows = append(s.Rows, row)
}

// Len returns the number of rows.
func (s *Set) Len() int {
	return len(s.Rows)
}

// FieldsWith returns Fields with name appended when it is not present yet.
func (s *Set) FieldsWith(name string) []string {
	fields := slices.Clone(s.Fields)
	if !slices.Contains(fields, name) {
		fields = append(fields, name)
	}

	return fields
}
