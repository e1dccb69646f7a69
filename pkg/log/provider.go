package log

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	providerMu sync.RWMutex
	provider   LoggerProvider = NewZerologProvider(NewConsoleZerolog(os.Stderr), LevelWarn)
)

// SetProvider replaces the process-wide provider used by GetLogger and
// GetLoggerWithName.
func SetProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = p
}

// GetLogger returns the default logger of the current provider.
func GetLogger() Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLogger()
}

// GetLoggerWithName returns a logger tagged with ComponentKey=name.
func GetLoggerWithName(name string) Logger {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider.GetLoggerWithName(name)
}

// ZerologProvider hands out zerolog-backed loggers.
type ZerologProvider struct {
	mu   sync.RWMutex
	base zerolog.Logger
}

// NewZerologProvider creates a provider around base with the given minimum level.
func NewZerologProvider(base zerolog.Logger, level Level) *ZerologProvider {
	return &ZerologProvider{base: base.Level(toZerologLevel(level))}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return NewZerologLogger(p.base)
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return NewZerologLogger(p.base.With().Str(ComponentKey, name).Logger())
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.base = p.base.Level(toZerologLevel(level))
}

// SlogProvider hands out slog-backed loggers sharing one JSON handler.
type SlogProvider struct {
	level   *slog.LevelVar
	handler slog.Handler
}

// NewSlogProvider creates a provider writing JSON records to w.
func NewSlogProvider(w io.Writer, level Level) *SlogProvider {
	lv := new(slog.LevelVar)
	lv.Set(slog.Level(level))
	return &SlogProvider{level: lv, handler: newJSONHandler(w, lv)}
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *SlogProvider) GetLogger() Logger {
	return NewSlogLogger(p.handler)
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
func (p *SlogProvider) GetLoggerWithName(name string) Logger {
	return NewSlogLogger(p.handler).With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *SlogProvider) SetLevel(level Level) {
	p.level.Set(slog.Level(level))
}
