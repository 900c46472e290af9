// Package ui holds the headless stand-ins for the client's view layer: a
// toaster that prints and logs messages, and a router that tracks the view stack.
package ui

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"flixgo-client/internal/domain/ports/adapter"
	"flixgo-client/internal/infra/i18n"
	"flixgo-client/internal/infra/logging"
)

var _ adapter.Notifier = (*Toaster)(nil)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Toast is one shown message, already localized.
type Toast struct {
	Level Level
	Text  string
}

// Toaster writes localized toasts to out and mirrors them to the log.
type Toaster struct {
	mu   sync.Mutex
	out  io.Writer
	tr   *i18n.Translator
	log  *zerolog.Logger
	last *Toast
}

// NewToaster accepts a nil out (log only) and a nil translator (no localization).
func NewToaster(out io.Writer, tr *i18n.Translator, logger *zerolog.Logger) *Toaster {
	return &Toaster{out: out, tr: tr, log: logger}
}

func (t *Toaster) Info(ctx context.Context, msg string)    { t.show(ctx, LevelInfo, msg) }
func (t *Toaster) Success(ctx context.Context, msg string) { t.show(ctx, LevelSuccess, msg) }
func (t *Toaster) Error(ctx context.Context, msg string)   { t.show(ctx, LevelError, msg) }

// Last returns the most recent toast, if any.
func (t *Toaster) Last() (Toast, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.last == nil {
		return Toast{}, false
	}
	return *t.last, true
}

func (t *Toaster) show(ctx context.Context, level Level, msg string) {
	text := t.tr.T(msg)

	t.mu.Lock()
	t.last = &Toast{Level: level, Text: text}
	if t.out != nil {
		_, _ = fmt.Fprintf(t.out, "[%s] %s\n", level, text)
	}
	t.mu.Unlock()

	l := logging.With(ctx, t.log)
	ev := l.Info()
	if level == LevelError {
		ev = l.Warn()
	}
	ev.Str("level", string(level)).Str("text", text).Msg("toast")
}
