package formula

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shibukawa/tabformula/operator"
	"github.com/shibukawa/tabformula/value"
)

// Options configures a Parser.
type Options struct {
	// Functions callable as NAME(...). Names are matched case-insensitively.
	Functions map[string]Function
	// Operators defaults to operator.Default() when nil.
	Operators *operator.Table
	// Logger receives one entry per parse when set.
	Logger LoggerFunc
}

// Parser evaluates formulas against records. It only holds read-only
// configuration, so one Parser can be shared between goroutines.
type Parser struct {
	functions map[string]Function
	operators *operator.Table
	logger    LoggerFunc
}

// NewParser validates the function registry and builds a Parser.
func NewParser(opts Options) (*Parser, error) {
	functions, err := newRegistry(opts.Functions)
	if err != nil {
		return nil, err
	}

	operators := opts.Operators
	if operators == nil {
		operators = operator.Default()
	}

	return &Parser{
		functions: functions,
		operators: operators,
		logger:    opts.Logger,
	}, nil
}

// MustNewParser is like NewParser but panics on an invalid registry.
func MustNewParser(opts Options) *Parser {
	p, err := NewParser(opts)
	if err != nil {
		panic(err)
	}

	return p
}

// Parse scans text once and returns its value. fieldNames orders the record for
// positional tags like {{0}}; without it the record keys are used in sorted
// order. Every failure is a *ParseError.
func (p *Parser) Parse(text string, record map[string]any, fieldNames ...string) (value.Value, error) {
	return p.ParseContext(context.Background(), text, record, fieldNames...)
}

// ParseContext is Parse with a context that is handed to the logger.
func (p *Parser) ParseContext(ctx context.Context, text string, record map[string]any, fieldNames ...string) (value.Value, error) {
	startAt := time.Now()
	result, err := p.parse(text, record, fieldNames)

	if p.logger != nil {
		entry := EvalLogEntry{
			Formula:  text,
			Result:   result,
			StartAt:  startAt,
			Duration: time.Since(startAt),
		}
		if err != nil {
			entry.Error = err.Error()
		}

		p.logger(ctx, entry)
	}

	return result, err
}

func (p *Parser) parse(text string, record map[string]any, fieldNames []string) (value.Value, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &ParseError{Err: ErrEmptyFormula}
	}

	if fieldNames == nil {
		fieldNames = make([]string, 0, len(record))
		for name := range record {
			fieldNames = append(fieldNames, name)
		}

		sort.Strings(fieldNames)
	}

	s := &state{
		functions: p.functions,
		table:     p.operators,
		record:    record,
		fields:    fieldNames,
	}

	return s.run(text)
}

// Functions returns the registered function names in sorted order.
func (p *Parser) Functions() []string {
	return sortedNames(p.functions)
}

// HasFunction reports whether name is registered.
func (p *Parser) HasFunction(name string) bool {
	_, ok := p.functions[CanonicalName(name)]
	return ok
}

// Operators returns the operator table in use.
func (p *Parser) Operators() *operator.Table {
	return p.operators
}
