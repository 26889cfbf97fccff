package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type options struct {
	service string
	level   *zapcore.Level
}

// Option customizes the logger built by New.
type Option func(*options)

// WithService tags every entry with the emitting binary.
func WithService(name string) Option {
	return func(o *options) { o.service = name }
}

// WithLevel overrides the environment's default minimum level.
func WithLevel(level string) Option {
	return func(o *options) {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			o.level = &l
		}
	}
}

// New creates a structured logger: console output in development,
// JSON in production.
func New(env string, opts ...Option) (*zap.Logger, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var config zap.Config
	if env == "production" {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	// Always log to stdout for container compatibility
	config.OutputPaths = []string{"stdout"}
	config.ErrorOutputPaths = []string{"stderr"}

	if o.level != nil {
		config.Level = zap.NewAtomicLevelAt(*o.level)
	}
	if o.service != "" {
		config.InitialFields = map[string]interface{}{"service": o.service}
	}

	return config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

// NewWithDefaults creates a logger from SERVER_ENV and LOG_LEVEL, falling
// back to a production logger when the configuration is unusable.
func NewWithDefaults(service string) *zap.Logger {
	env := os.Getenv("SERVER_ENV")
	if env == "" {
		env = "development"
	}

	opts := []Option{WithService(service)}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		opts = append(opts, WithLevel(level))
	}

	logger, err := New(env, opts...)
	if err != nil {
		logger, _ = zap.NewProduction()
	}
	return logger
}
