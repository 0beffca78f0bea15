package main

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shibukawa/tabformula/formula"
	"github.com/shibukawa/tabformula/value"
)

// newLogger builds the diagnostics logger. Diagnostics go to stderr so they
// never mix with command output.
func newLogger(verbose, quiet bool) *zap.SugaredLogger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")

	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}

	lvl := zapcore.InfoLevel

	switch {
	case verbose:
		lvl = zapcore.DebugLevel
	case quiet:
		lvl = zapcore.ErrorLevel
	}

	log = log.WithOptions(zap.IncreaseLevel(lvl), zap.AddStacktrace(zapcore.FatalLevel))

	return log.Sugar()
}

// evalLogger forwards parser events to log at debug level.
func evalLogger(log *zap.SugaredLogger) formula.LoggerFunc {
	return func(_ context.Context, entry formula.EvalLogEntry) {
		if entry.Error != "" {
			log.Debugw("formula failed", "formula", entry.Formula, "error", entry.Error, "duration", entry.Duration)
			return
		}

		log.Debugw("formula evaluated",
			"formula", entry.Formula,
			"result", value.ToString(entry.Result),
			"kind", value.KindOf(entry.Result).String(),
			"duration", entry.Duration,
		)
	}
}
