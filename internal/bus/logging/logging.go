package logging

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// LogFields represents structured logging key/value pairs used by the bus.
type LogFields map[string]any

// BusLogger is the minimal logging contract required by the core. It maps
// directly onto Watermill's logging needs so applications can adapt their
// existing loggers without depending on slog.
type BusLogger interface {
	With(fields LogFields) BusLogger
	Debug(msg string, fields LogFields)
	Info(msg string, fields LogFields)
	Error(msg string, err error, fields LogFields)
	Trace(msg string, fields LogFields)
}

var logLevelMapping = map[slog.Level]slog.Level{
	slog.LevelDebug: slog.LevelDebug,
	slog.LevelInfo:  slog.LevelInfo,
	slog.LevelWarn:  slog.LevelWarn,
	slog.LevelError: slog.LevelError,
}

// NewSlogBusLogger wraps a slog.Logger so it satisfies the BusLogger
// interface.
func NewSlogBusLogger(log *slog.Logger) BusLogger {
	if log == nil {
		panic("simwire: slog logger cannot be nil")
	}
	return NewWatermillBusLogger(watermill.NewSlogLoggerWithLevelMapping(log, logLevelMapping))
}

// NewWatermillBusLogger wraps an existing Watermill LoggerAdapter so it can
// be supplied to NewCore.
func NewWatermillBusLogger(logger watermill.LoggerAdapter) BusLogger {
	if logger == nil {
		panic("simwire: watermill logger cannot be nil")
	}
	return &watermillBusLogger{inner: logger}
}

// NopLogger returns a BusLogger that discards everything. Used as the
// default when no logger is configured.
func NopLogger() BusLogger {
	return NewWatermillBusLogger(watermill.NopLogger{})
}

type watermillBusLogger struct {
	inner watermill.LoggerAdapter
}

func (w *watermillBusLogger) With(fields LogFields) BusLogger {
	return &watermillBusLogger{inner: w.inner.With(toWatermillFields(fields))}
}

func (w *watermillBusLogger) Debug(msg string, fields LogFields) {
	w.inner.Debug(msg, toWatermillFields(fields))
}

func (w *watermillBusLogger) Info(msg string, fields LogFields) {
	w.inner.Info(msg, toWatermillFields(fields))
}

func (w *watermillBusLogger) Error(msg string, err error, fields LogFields) {
	w.inner.Error(msg, err, toWatermillFields(fields))
}

func (w *watermillBusLogger) Trace(msg string, fields LogFields) {
	w.inner.Trace(msg, toWatermillFields(fields))
}

type busLoggerAdapter struct {
	base BusLogger
}

// NewWatermillAdapter converts a BusLogger into a Watermill LoggerAdapter so
// the transport layer can reuse the same logger abstraction.
func NewWatermillAdapter(log BusLogger) watermill.LoggerAdapter {
	if log == nil {
		panic("simwire: BusLogger cannot be nil")
	}
	return &busLoggerAdapter{base: log}
}

func (s *busLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	s.base.Error(msg, err, fromWatermillFields(fields))
}

func (s *busLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	s.base.Info(msg, fromWatermillFields(fields))
}

func (s *busLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	s.base.Debug(msg, fromWatermillFields(fields))
}

func (s *busLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	s.base.Trace(msg, fromWatermillFields(fields))
}

func (s *busLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &busLoggerAdapter{base: s.base.With(fromWatermillFields(fields))}
}

func toWatermillFields(fields LogFields) watermill.LogFields {
	if len(fields) == 0 {
		return nil
	}
	return watermill.LogFields(fields)
}

func fromWatermillFields(fields watermill.LogFields) LogFields {
	if len(fields) == 0 {
		return nil
	}
	return LogFields(fields)
}
