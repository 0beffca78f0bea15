package funclib

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/shibukawa/tabformula/value"
)

var dateLayouts = []string{time.RFC3339Nano, time.DateTime, time.DateOnly}

func nowFunc(now func() time.Time) func(args ...value.Value) (value.Value, error) {
	return func(args ...value.Value) (value.Value, error) {
		if err := arity("NOW", args, 0, 0); err != nil {
			return nil, err
		}

		return now(), nil
	}
}

func todayFunc(now func() time.Time) func(args ...value.Value) (value.Value, error) {
	return func(args ...value.Value) (value.Value, error) {
		if err := arity("TODAY", args, 0, 0); err != nil {
			return nil, err
		}

		t := now()

		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
	}
}

// toTime accepts dates, text in RFC 3339 or date-only form, and numbers as Unix
// milliseconds.
func toTime(name string, v value.Value) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return t, nil
			}
		}
	case float64:
		if !math.IsNaN(val) && !math.IsInf(val, 0) {
			return time.UnixMilli(int64(val)).UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %s expects a date but got %q", ErrArgument, name, value.ToString(v))
}

func datePart(name string, part func(time.Time) int) func(args ...value.Value) (value.Value, error) {
	return func(args ...value.Value) (value.Value, error) {
		if err := arity(name, args, 1, 1); err != nil {
			return nil, err
		}

		t, err := toTime(name, args[0])
		if err != nil {
			return nil, err
		}

		return float64(part(t)), nil
	}
}

func uuidFunc(args ...value.Value) (value.Value, error) {
	if err := arity("UUID", args, 0, 0); err != nil {
		return nil, err
	}

	return uuid.NewString(), nil
}
