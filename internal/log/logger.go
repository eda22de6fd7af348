/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package log provides the slog setup shared by the CLI, the UI and the core
// packages. Records are written to a console handler and, when configured, to a
// rotated JSON file. A canvas id stored in the context is attached to every
// record logged with that context.
package log

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"beadloom/internal/version"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables read by FromEnv.
const (
	EnvLevel  = "BEADLOOM_LOG_LEVEL"  // debug|info|warn|error
	EnvFormat = "BEADLOOM_LOG_FORMAT" // console|json
	EnvFile   = "BEADLOOM_LOG_FILE"   // path, enables rotated file output
	EnvSource = "BEADLOOM_LOG_SOURCE" // true|false
)

// Options controls logger initialization.
type Options struct {
	Level     string
	Format    string // "console" or "json"
	AddSource bool
	File      string
}

var (
	defaultMu     sync.RWMutex
	defaultLogger *slog.Logger
	fileWriter    *lj.Logger
)

// L returns the application logger, initializing it from the environment on first use.
func L() *slog.Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}
	Init(FromEnv())
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Init configures the global logger and installs it as slog.Default.
// Calling Init again replaces the previous logger and closes its log file.
func Init(opts Options) {
	lvl := parseLevel(opts.Level)
	hopts := &slog.HandlerOptions{Level: lvl, AddSource: opts.AddSource}

	var console slog.Handler
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		console = slog.NewJSONHandler(os.Stderr, hopts)
	} else {
		console = newConsoleHandler(os.Stderr, lvl, opts.AddSource)
	}
	handlers := []slog.Handler{withCanvas(console)}

	var w *lj.Logger
	if f := strings.TrimSpace(opts.File); f != "" {
		w = &lj.Logger{Filename: f, MaxSize: 10, MaxBackups: 3, MaxAge: 28, Compress: true}
		handlers = append(handlers, withCanvas(slog.NewJSONHandler(w, hopts)))
	}

	var h slog.Handler = handlers[0]
	if len(handlers) > 1 {
		h = &fanout{hs: handlers}
	}
	logger := slog.New(h).With(
		slog.String("app", "beadloom"),
		slog.String("ver", version.Version),
	)

	defaultMu.Lock()
	prev := fileWriter
	defaultLogger, fileWriter = logger, w
	defaultMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	slog.SetDefault(logger)
}

// FromEnv builds Options from the BEADLOOM_LOG_* variables.
func FromEnv() Options {
	return Options{
		Level:     getenv(EnvLevel, "info"),
		Format:    getenv(EnvFormat, "console"),
		AddSource: strings.EqualFold(getenv(EnvSource, "false"), "true"),
		File:      os.Getenv(EnvFile),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// WithComponent returns a logger with the component attribute pre-set.
func WithComponent(name string) *slog.Logger { return L().With(slog.String("component", name)) }

// WithOperation annotates the logger with an operation name.
func WithOperation(l *slog.Logger, op string) *slog.Logger { return l.With(slog.String("op", op)) }

type canvasKey struct{}

// ContextWithCanvas returns a context whose log records carry the given canvas id.
func ContextWithCanvas(ctx context.Context, canvasID string) context.Context {
	return context.WithValue(ctx, canvasKey{}, canvasID)
}

// CanvasFromContext returns the canvas id stored by ContextWithCanvas.
func CanvasFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(canvasKey{}).(string)
	return id, ok && id != ""
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// fanout sends each record to every handler that accepts its level.
type fanout struct{ hs []slog.Handler }

func (m *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.hs {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.hs {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithAttrs(attrs)
	}
	return &fanout{hs: res}
}

func (m *fanout) WithGroup(name string) slog.Handler {
	res := make([]slog.Handler, len(m.hs))
	for i, h := range m.hs {
		res[i] = h.WithGroup(name)
	}
	return &fanout{hs: res}
}

// canvasEnricher copies the context canvas id onto the record.
type canvasEnricher struct{ next slog.Handler }

func withCanvas(h slog.Handler) slog.Handler { return &canvasEnricher{next: h} }

func (e *canvasEnricher) Enabled(ctx context.Context, level slog.Level) bool {
	return e.next.Enabled(ctx, level)
}

func (e *canvasEnricher) Handle(ctx context.Context, r slog.Record) error {
	if id, ok := CanvasFromContext(ctx); ok {
		r = r.Clone()
		r.AddAttrs(slog.String("canvas", id))
	}
	return e.next.Handle(ctx, r)
}

func (e *canvasEnricher) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &canvasEnricher{next: e.next.WithAttrs(attrs)}
}

func (e *canvasEnricher) WithGroup(name string) slog.Handler {
	return &canvasEnricher{next: e.next.WithGroup(name)}
}
