package formula

import (
	"context"
	"time"

	"github.com/shibukawa/tabformula/value"
)

// LoggerFunc receives EvalLogEntry events.
type LoggerFunc func(context.Context, EvalLogEntry)

// EvalLogEntry represents a single Parse call.
type EvalLogEntry struct {
	Formula  string
	Result   value.Value
	StartAt  time.Time
	Duration time.Duration
	Error    string
}
