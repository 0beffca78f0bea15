package formula

import (
	"context"
	"errors"
	"math"
	"math/big"
	"sync"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/shibukawa/tabformula/operator"
	"github.com/shibukawa/tabformula/value"
)

func sum(args ...value.Value) (value.Value, error) {
	total := 0.0
	for _, arg := range args {
		total += value.ToNumber(arg)
	}

	return total, nil
}

func concat(args ...value.Value) (value.Value, error) {
	s := ""
	for _, arg := range args {
		s += value.ToString(arg)
	}

	return s, nil
}

func newTestParser(t *testing.T) *Parser {
	t.Helper()

	p, err := NewParser(Options{Functions: map[string]Function{
		"sum":    sum,
		"CONCAT": concat,
		"ONE": func(args ...value.Value) (value.Value, error) {
			if len(args) > 1 {
				return nil, errors.New("ONE takes at most one argument")
			}

			return 1, nil
		},
	}})
	assert.NoError(t, err)

	return p
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		record  map[string]any
		want    value.Value
	}{
		{name: "integer literal", formula: "3", want: 3.0},
		{name: "float literal", formula: "1.5", want: 1.5},
		{name: "nested grouping", formula: "(((3)))", want: 3.0},
		{name: "grouped arithmetic", formula: "((2) + ((4) * (5)))", want: 22.0},
		{name: "precedence", formula: "2 + 4 * 3", want: 14.0},
		{name: "precedence without spaces", formula: "2+4*3", want: 14.0},
		{name: "grouping overrides precedence", formula: "(2 + 4) * 3", want: 18.0},
		{name: "left associative", formula: "10 - 4 - 3", want: 3.0},
		{name: "division", formula: "7 / 2", want: 3.5},
		{name: "remainder", formula: "7 % 4", want: 3.0},
		{name: "factorial", formula: "4!", want: 24.0},
		{name: "negated factorial", formula: "-4!", want: -24.0},
		{name: "double factorial", formula: "3!!", want: 720.0},
		{name: "not", formula: "!4", want: false},
		{name: "not not", formula: "!!4", want: true},
		{name: "not of call", formula: "!SUM(0,0)", want: true},
		{name: "negative operand", formula: "2 - -3", want: 5.0},
		{name: "negative operand without spaces", formula: "2--3", want: 5.0},
		{name: "bitwise not", formula: "~5", want: -6.0},
		{name: "string concatenation", formula: `"test" + "test"`, want: "testtest"},
		{name: "single quoted string", formula: `'it' + "s"`, want: "its"},
		{name: "other quote inside string", formula: `"it's"`, want: "it's"},
		{name: "number and string", formula: `1 + "2"`, want: "12"},
		{name: "escaped quote", formula: `"\""`, want: `"`},
		{name: "escaped backslash", formula: `"a\\b"`, want: `a\b`},
		{name: "escaped backslash before closing quote", formula: `"a\\"`, want: `a\`},
		{name: "backslash before ordinary rune", formula: `"a\nb"`, want: `a\nb`},
		{name: "hex literals", formula: `\xA + \xB`, want: 21.0},
		{name: "binary literals", formula: `\b101 + \b101`, want: 10.0},
		{name: "octal literal", formula: `\o17`, want: 15.0},
		{name: "tag", formula: "{{ten}} > 8", record: map[string]any{"ten": 10}, want: true},
		{name: "tag with spaces", formula: "{{ ten }} * 2", record: map[string]any{"ten": 10}, want: 20.0},
		{name: "positional tag", formula: "{{0}} + {{1}}", record: map[string]any{"a": 1, "b": 2}, want: 3.0},
		{name: "field named like an index", formula: "{{0}}", record: map[string]any{"0": "zero"}, want: "zero"},
		{name: "null", formula: "null", want: nil},
		{name: "reserved words ignore case", formula: "TRUE && False", want: false},
		{name: "undefined", formula: "undefined", want: value.Undefined},
		{name: "infinity", formula: "positive_infinity", want: math.Inf(1)},
		{name: "empty grouping", formula: "()", want: value.Undefined},
		{name: "nullish coalescing", formula: "null ?? 3", want: 3.0},
		{name: "logical or", formula: `"" || "x"`, want: "x"},
		{name: "logical and", formula: `1 && "x"`, want: "x"},
		{name: "loose equality", formula: `1 == "1"`, want: true},
		{name: "strict equality", formula: `1 === "1"`, want: false},
		{name: "strict inequality", formula: `1 !== "1"`, want: true},
		{name: "comparison chain precedence", formula: "1 + 1 == 2", want: true},
		{name: "string comparison", formula: `"a" < "b"`, want: true},
		{name: "bitwise precedence", formula: "1 | 2 & 3", want: 3.0},
		{name: "xor", formula: "5 ^ 1", want: 4.0},
		{name: "function name ignores case", formula: "Sum(1, 2, 3)", want: 6.0},
		{name: "nested calls", formula: "SUM(1, SUM(2, 3) * 2)", want: 11.0},
		{name: "call without arguments", formula: "SUM()", want: 0.0},
		{name: "call in expression", formula: "2 * SUM(1, 2) + 1", want: 7.0},
		{name: "grouping inside arguments", formula: "CONCAT((1 + 2), 'x')", want: "3x"},
		{name: "whitespace everywhere", formula: " \t SUM ( 1 ,\n 2 ) \r\n", want: 3.0},
	}

	p := newTestParser(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.formula, tt.record)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNaN(t *testing.T) {
	p := newTestParser(t)

	for _, formula := range []string{`"test" - "test"`, "nan", "abc", "0 / 0"} {
		t.Run(formula, func(t *testing.T) {
			got, err := p.Parse(formula, nil)
			assert.NoError(t, err)

			f, ok := got.(float64)
			assert.True(t, ok)
			assert.True(t, math.IsNaN(f))
		})
	}
}

func TestParseBigInt(t *testing.T) {
	p := newTestParser(t)

	got, err := p.Parse("12345678901234567890n * 10n", nil)
	assert.NoError(t, err)

	n, ok := got.(*big.Int)
	assert.True(t, ok)
	assert.Equal(t, "123456789012345678900", n.String())

	got, err = p.Parse("20n!", nil)
	assert.NoError(t, err)
	assert.Equal(t, "2432902008176640000", value.ToString(got))

	_, err = p.Parse("1n + 1", nil)
	assert.IsError(t, err, value.ErrMixedBigInt)

	_, err = p.Parse("1n / 0n", nil)
	assert.IsError(t, err, value.ErrDivisionByZero)
}

func TestParseObjectOperand(t *testing.T) {
	p := newTestParser(t)

	got, err := p.Parse("{{items}} * 2", map[string]any{"items": []any{1, 2}})
	assert.NoError(t, err)
	assert.Equal[value.Value](t, value.ErrObjectOperand, got)

	got, err = p.Parse(`{{items}} + ""`, map[string]any{"items": []any{1, 2}})
	assert.NoError(t, err)
	assert.Equal[value.Value](t, "1,2", got)
}

func TestParseLiteralIdempotence(t *testing.T) {
	p := newTestParser(t)

	for _, literal := range []string{"0", "42", "3.25", "true", "false", "null"} {
		t.Run(literal, func(t *testing.T) {
			got, err := p.Parse(literal, nil)
			assert.NoError(t, err)
			assert.Equal(t, ResolveLiteral(literal), got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		record  map[string]any
		want    error
	}{
		{name: "empty", formula: "", want: ErrEmptyFormula},
		{name: "blank", formula: "   ", want: ErrEmptyFormula},
		{name: "unknown function", formula: "NOPE(1)", want: ErrUnknownFunction},
		{name: "unexpected closing parenthesis", formula: "1)", want: ErrUnexpectedClosingParenthesis},
		{name: "closing parenthesis first", formula: ")(", want: ErrUnexpectedClosingParenthesis},
		{name: "unclosed parenthesis", formula: "(1 + 2", want: ErrUnclosedParenthesis},
		{name: "comma in grouping", formula: "(1, 2)", want: ErrUnexpectedComma},
		{name: "comma at top level", formula: "1, 2", want: ErrUnexpectedComma},
		{name: "comma in nested grouping", formula: "SUM((1, 2))", want: ErrUnexpectedComma},
		{name: "leading comma", formula: "SUM(, 1)", want: ErrEmptyArgument},
		{name: "trailing comma", formula: "SUM(1, )", want: ErrEmptyArgument},
		{name: "double comma", formula: "SUM(1,, 2)", want: ErrEmptyArgument},
		{name: "single curly bracket", formula: "{ten}", want: ErrMalformedTag},
		{name: "unmatched closing curly bracket", formula: "1 }", want: ErrMalformedTag},
		{name: "half closed tag", formula: "{{ten}", want: ErrMalformedTag},
		{name: "broken closing tag", formula: "{{ten}x}", want: ErrMalformedTag},
		{name: "nested tag", formula: "{{a{{b}}}}", want: ErrMalformedTag},
		{name: "absent tag", formula: "{{missing}} > 8", record: map[string]any{"ten": 10}, want: ErrFieldNotFound},
		{name: "positional tag out of range", formula: "{{3}}", record: map[string]any{"ten": 10}, want: ErrFieldNotFound},
		{name: "double backslash", formula: `\\x1`, want: ErrDoubleBackslash},
		{name: "unterminated string", formula: `"abc`, want: ErrUnterminatedString},
		{name: "escaped closing quote", formula: `"abc\"`, want: ErrUnterminatedString},
		{name: "missing operator", formula: "1 2", want: ErrUnexpectedToken},
		{name: "missing operator before call", formula: "1 SUM(2)", want: ErrUnexpectedToken},
		{name: "missing operator before grouping", formula: "(2) (3)", want: ErrUnexpectedToken},
		{name: "number used as function", formula: "2 (3)", want: ErrUnknownFunction},
		{name: "string after symbol", formula: `abc"d"`, want: ErrUnexpectedToken},
		{name: "trailing operator", formula: "1 +", want: ErrMissingOperand},
		{name: "leading binary operator", formula: "* 2", want: ErrMissingOperand},
		{name: "dangling post modifier", formula: "1 + -", want: ErrMissingOperand},
		{name: "not an operator", formula: "1 = 2", want: operator.ErrInvalidOperator},
		{name: "failing function", formula: "ONE(1, 2)", want: ErrFunctionFailed},
	}

	p := newTestParser(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.formula, tt.record)
			assert.IsError(t, err, tt.want)
			assert.Zero(t, got)

			var perr *ParseError
			assert.True(t, errors.As(err, &perr))
		})
	}
}

func TestParseErrorTrace(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse("SUM(1, 2) + NOPE(3)", nil)

	var perr *ParseError
	assert.True(t, errors.As(err, &perr))
	assert.Equal(t, "SUM(1, 2) + NOPE(", perr.Consumed)
	assert.Equal(t, 16, perr.Offset)
	assert.Contains(t, err.Error(), "unknown function: NOPE")
}

func TestParseReusableAfterFailure(t *testing.T) {
	p := newTestParser(t)

	_, err := p.Parse(`"unterminated`, nil)
	assert.Error(t, err)

	_, err = p.Parse("(((1", nil)
	assert.Error(t, err)

	got, err := p.Parse("1 + 1", nil)
	assert.NoError(t, err)
	assert.Equal[value.Value](t, 2.0, got)
}

func TestParseFieldOrder(t *testing.T) {
	p := newTestParser(t)
	record := map[string]any{"a": "first", "b": "second", "c": nil}

	got, err := p.Parse("{{0}}", record, "b", "a")
	assert.NoError(t, err)
	assert.Equal[value.Value](t, "second", got)

	got, err = p.Parse("{{2}}", record)
	assert.NoError(t, err)
	assert.Equal[value.Value](t, nil, got)

	got, err = p.Parse("{{2}}", record, "a", "b", "declared")
	assert.NoError(t, err)
	assert.Equal[value.Value](t, nil, got)
}

func TestParseRecordNormalization(t *testing.T) {
	p := newTestParser(t)

	got, err := p.Parse("{{n}} + {{m}}", map[string]any{"n": int64(2), "m": uint8(3)})
	assert.NoError(t, err)
	assert.Equal[value.Value](t, 5.0, got)
}

func TestParseCustomOperators(t *testing.T) {
	table, err := operator.NewTable(
		operator.Definition{
			Name:       "**",
			Precedence: 13,
			Category:   operator.Binary,
			Binary: func(a, b value.Value) (value.Value, error) {
				return math.Pow(value.ToNumber(a), value.ToNumber(b)), nil
			},
		},
		operator.Definition{
			Name:     "%%",
			Category: operator.UnaryPreModifier,
			Unary: func(a value.Value) (value.Value, error) {
				return value.ToNumber(a) / 100, nil
			},
		},
		operator.Definition{
			Name:     "#",
			Category: operator.UnaryPostModifier,
			Unary: func(a value.Value) (value.Value, error) {
				return float64(len(value.ToString(a))), nil
			},
		},
	)
	assert.NoError(t, err)

	p, err := NewParser(Options{Operators: table})
	assert.NoError(t, err)

	tests := []struct {
		formula string
		want    value.Value
	}{
		{formula: "2 * 3 ** 2", want: 18.0},
		{formula: "50%% + 1", want: 1.5},
		{formula: "7 % 4", want: 3.0},
		{formula: `#"abcd" * 2`, want: 8.0},
	}

	for _, tt := range tests {
		t.Run(tt.formula, func(t *testing.T) {
			got, err := p.Parse(tt.formula, nil)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewParserInvalidFunctions(t *testing.T) {
	_, err := NewParser(Options{Functions: map[string]Function{"SUM": sum, "sum": sum}})
	assert.IsError(t, err, ErrInvalidFunction)

	_, err = NewParser(Options{Functions: map[string]Function{" ": sum}})
	assert.IsError(t, err, ErrInvalidFunction)

	_, err = NewParser(Options{Functions: map[string]Function{"NIL": nil}})
	assert.IsError(t, err, ErrInvalidFunction)

	assert.Panics(t, func() {
		MustNewParser(Options{Functions: map[string]Function{"NIL": nil}})
	})
}

func TestParserFunctions(t *testing.T) {
	p := newTestParser(t)

	assert.Equal(t, []string{"CONCAT", "ONE", "SUM"}, p.Functions())
	assert.True(t, p.HasFunction("concat"))
	assert.False(t, p.HasFunction("AVERAGE"))
	assert.Equal(t, operator.Default(), p.Operators())
}

func TestParseLogger(t *testing.T) {
	var entries []EvalLogEntry

	p, err := NewParser(Options{Logger: func(_ context.Context, entry EvalLogEntry) {
		entries = append(entries, entry)
	}})
	assert.NoError(t, err)

	_, _ = p.Parse("1 + 2", nil)
	_, _ = p.Parse("1 +", nil)

	assert.Equal(t, 2, len(entries))
	assert.Equal(t, "1 + 2", entries[0].Formula)
	assert.Equal[value.Value](t, 3.0, entries[0].Result)
	assert.Equal(t, "", entries[0].Error)
	assert.Contains(t, entries[1].Error, "missing operand")
}

func TestParseConcurrent(t *testing.T) {
	p := newTestParser(t)

	var wg sync.WaitGroup

	errs := make(chan error, 64)

	for i := range 64 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := p.Parse("SUM({{i}}, 1) * 2", map[string]any{"i": i})
			if err != nil {
				errs <- err
				return
			}

			if got != float64((i+1)*2) {
				errs <- errors.New("unexpected result " + value.ToString(got))
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
}
