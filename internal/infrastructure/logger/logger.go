package logger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tasklist/core/internal/infrastructure/config"
)

// SlowProcedure is the duration above which a successful call is logged as a warning
const SlowProcedure = time.Second

// Logger wraps zap.SugaredLogger with the fields the API logs on every line
type Logger struct {
	*zap.SugaredLogger
}

// New builds a JSON logger for production and a colored console logger otherwise.
// Sampling is off so security events are never dropped.
func New(cfg config.LoggerConfig) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	encoding := "console"
	encoder := zap.NewDevelopmentEncoderConfig()
	encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if cfg.Format == "json" {
		encoding = "json"
		encoder = zap.NewProductionEncoderConfig()
		encoder.TimeKey = "time"
		encoder.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder.EncodeDuration = zapcore.MillisDurationEncoder
	}

	output, errorOutput := "stdout", "stderr"
	if cfg.Output == "file" && cfg.Filename != "" {
		output, errorOutput = cfg.Filename, cfg.Filename
	}

	zapLogger, err := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		DisableStacktrace: encoding == "json",
		Encoding:          encoding,
		EncoderConfig:     encoder,
		OutputPaths:       []string{output},
		ErrorOutputPaths:  []string{errorOutput},
	}.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{SugaredLogger: zapLogger.Sugar()}, nil
}

// NewNop returns a logger that discards everything
func NewNop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

func (l *Logger) with(fields ...interface{}) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}

func (l *Logger) WithError(err error) *Logger {
	return l.with("error", err.Error())
}

func (l *Logger) WithComponent(component string) *Logger {
	return l.with("component", component)
}

// ForRequest scopes a logger to one HTTP request. Anonymous callers pass uuid.Nil.
func (l *Logger) ForRequest(requestID string, userID uuid.UUID) *Logger {
	if userID == uuid.Nil {
		return l.with("request_id", requestID)
	}
	return l.with("request_id", requestID, "user_id", userID.String())
}

// LogProcedureCall records one RPC procedure invocation. err is only set for
// internal failures; expected outcomes such as NotFound are debug lines.
func (l *Logger) LogProcedureCall(procedure, outcome string, elapsed time.Duration, err error) {
	fields := []interface{}{
		"procedure", procedure,
		"outcome", outcome,
		"duration_ms", float64(elapsed.Microseconds()) / 1000,
	}

	switch {
	case err != nil:
		l.Errorw("Procedure failed", append(fields, "error", err.Error())...)
	case elapsed > SlowProcedure:
		l.Warnw("Slow procedure", fields...)
	default:
		l.Debugw("Procedure completed", fields...)
	}
}

// LogUserAction records a state change made by a user, with key/value details
func (l *Logger) LogUserAction(userID uuid.UUID, action string, details ...interface{}) {
	l.Infow("User action", append([]interface{}{"user_id", userID.String(), "action", action}, details...)...)
}

// LogSecurityEvent records failed logins, bad tokens, foreign access and throttling
func (l *Logger) LogSecurityEvent(event string, details ...interface{}) {
	l.Warnw("Security event", append([]interface{}{"security_event", event}, details...)...)
}

// Close flushes any buffered log entries
func (l *Logger) Close() error {
	return l.SugaredLogger.Sync()
}
