// Package doctest reads formula books: Markdown files where every second-level
// heading is a test case made of fenced blocks.
//
//	## discount
//
//	```formula
//	ROUND({{price}} * 0.9)
//	```
//
//	```yaml
//	price: 1200
//	```
//
//	```expected
//	1080
//	```
//
// An expected block of `error` or `error: text` asserts a failure.
package doctest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var (
	ErrNoCases         = errors.New("no test cases found")
	ErrMissingFormula  = errors.New("test case has no formula block")
	ErrMissingExpected = errors.New("test case has no expected block")
	ErrDuplicateBlock  = errors.New("duplicate block in test case")
	ErrInvalidRecord   = errors.New("invalid record block")
)

// Book is a parsed formula book.
type Book struct {
	Title string
	Cases []Case
}

// Case is one `##` section.
type Case struct {
	Name    string
	Line    int
	Formula string
	// Record and Fields come from the optional yaml or json block. Fields keeps
	// the order of the keys in the block.
	Record   map[string]any
	Fields   []string
	Expected string
}

// ExpectError reports whether the case expects the formula to fail, and the text
// the error message must contain.
func (c Case) ExpectError() (bool, string) {
	if c.Expected == "error" {
		return true, ""
	}

	if rest, ok := strings.CutPrefix(c.Expected, "error:"); ok {
		return true, strings.TrimSpace(rest)
	}

	return false, ""
}

// Parse reads a formula book.
func Parse(reader io.Reader) (*Book, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(content))

	book := &Book{}

	var current *Case

	finish := func() error {
		if current == nil {
			return nil
		}

		if current.Formula == "" {
			return fmt.Errorf("%w: %q (line %d)", ErrMissingFormula, current.Name, current.Line)
		}

		if current.Expected == "" {
			return fmt.Errorf("%w: %q (line %d)", ErrMissingExpected, current.Name, current.Line)
		}

		book.Cases = append(book.Cases, *current)
		current = nil

		return nil
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			switch {
			case n.Level == 1 && book.Title == "":
				book.Title = headingText(n, content)
			case n.Level == 2:
				if err := finish(); err != nil {
					return nil, err
				}

				current = &Case{Name: headingText(n, content), Line: lineOf(n, content)}
			}
		case *ast.FencedCodeBlock:
			if current == nil {
				continue
			}

			if err := current.addBlock(codeBlockInfo(n, content), codeBlockContent(n, content)); err != nil {
				return nil, err
			}
		}
	}

	if err := finish(); err != nil {
		return nil, err
	}

	if len(book.Cases) == 0 {
		return nil, ErrNoCases
	}

	return book, nil
}

func (c *Case) addBlock(info, body string) error {
	switch strings.ToLower(strings.TrimSpace(info)) {
	case "formula":
		if c.Formula != "" {
			return fmt.Errorf("%w: %q has two formula blocks", ErrDuplicateBlock, c.Name)
		}

		c.Formula = strings.TrimSpace(body)
	case "expected":
		if c.Expected != "" {
			return fmt.Errorf("%w: %q has two expected blocks", ErrDuplicateBlock, c.Name)
		}

		c.Expected = strings.TrimSpace(body)
	case "yaml", "yml", "json":
		if c.Record != nil {
			return fmt.Errorf("%w: %q has two record blocks", ErrDuplicateBlock, c.Name)
		}

		var items yaml.MapSlice
		if err := yaml.Unmarshal([]byte(body), &items); err != nil {
			return fmt.Errorf("%w in %q: %w", ErrInvalidRecord, c.Name, err)
		}

		c.Record = make(map[string]any, len(items))

		for _, item := range items {
			key := fmt.Sprint(item.Key)
			c.Record[key] = item.Value
			c.Fields = append(c.Fields, key)
		}
	}

	return nil
}

func headingText(heading *ast.Heading, content []byte) string {
	var result strings.Builder

	_ = ast.Walk(heading, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Text:
			result.Write(node.Segment.Value(content))
		case *ast.String:
			result.Write(node.Value)
		}

		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(result.String())
}

func lineOf(node ast.Node, content []byte) int {
	lines := node.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}

	return bytes.Count(content[:lines.At(0).Start], []byte("\n")) + 1
}

func codeBlockInfo(block *ast.FencedCodeBlock, content []byte) string {
	if block.Info == nil {
		return ""
	}

	return string(block.Info.Segment.Value(content))
}

func codeBlockContent(block *ast.FencedCodeBlock, content []byte) string {
	var result strings.Builder

	lines := block.Lines()
	for i := range lines.Len() {
		line := lines.At(i)
		result.Write(line.Value(content))
	}

	return result.String()
}
