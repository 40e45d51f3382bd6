// ReelSync - Movie Recommendation Client Sync Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reelsync

package logging

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// slogBridge feeds slog records into zerolog. Attributes added through
// WithAttrs are folded into the zerolog context once, so Handle only has to
// write the per-record ones.
type slogBridge struct {
	zl     zerolog.Logger
	groups []string
}

// NewSlogLogger returns an slog.Logger writing through the global zerolog
// logger with component set. Used for sutureslog and watermill.
//
//	tree := supervisor.NewTree(logging.NewSlogLogger("supervisor"), cfg)
func NewSlogLogger(component string) *slog.Logger {
	return slog.New(&slogBridge{zl: WithComponent(component)})
}

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	lvl := levelFromSlog(level)
	return lvl >= zerolog.GlobalLevel() && lvl >= b.zl.GetLevel()
}

//nolint:gocritic // slog.Handler takes the record by value
func (b *slogBridge) Handle(_ context.Context, rec slog.Record) error {
	ev := b.zl.WithLevel(levelFromSlog(rec.Level))
	if ev == nil {
		return nil
	}
	prefix := b.prefix()
	rec.Attrs(func(a slog.Attr) bool {
		writeAttr(ev, prefix, a)
		return true
	})
	ev.Msg(rec.Message)
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return b
	}
	prefix := b.prefix()
	zctx := b.zl.With()
	for _, a := range attrs {
		zctx = contextAttr(zctx, prefix, a)
	}
	return &slogBridge{zl: zctx.Logger(), groups: b.groups}
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	if name == "" {
		return b
	}
	groups := make([]string, len(b.groups), len(b.groups)+1)
	copy(groups, b.groups)
	return &slogBridge{zl: b.zl, groups: append(groups, name)}
}

func (b *slogBridge) prefix() string {
	if len(b.groups) == 0 {
		return ""
	}
	return strings.Join(b.groups, ".") + "."
}

// writeAttr flattens groups into dotted keys.
func writeAttr(ev *zerolog.Event, prefix string, a slog.Attr) {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range v.Group() {
			writeAttr(ev, inner, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := prefix + a.Key
	switch v.Kind() {
	case slog.KindString:
		ev.Str(key, v.String())
	case slog.KindBool:
		ev.Bool(key, v.Bool())
	case slog.KindInt64:
		ev.Int64(key, v.Int64())
	case slog.KindUint64:
		ev.Uint64(key, v.Uint64())
	case slog.KindFloat64:
		ev.Float64(key, v.Float64())
	case slog.KindDuration:
		ev.Dur(key, v.Duration())
	case slog.KindTime:
		ev.Time(key, v.Time())
	default:
		if err, ok := v.Any().(error); ok {
			ev.AnErr(key, err)
			return
		}
		ev.Interface(key, v.Any())
	}
}

func contextAttr(zctx zerolog.Context, prefix string, a slog.Attr) zerolog.Context {
	v := a.Value.Resolve()
	if v.Kind() == slog.KindGroup {
		inner := prefix
		if a.Key != "" {
			inner += a.Key + "."
		}
		for _, ga := range v.Group() {
			zctx = contextAttr(zctx, inner, ga)
		}
		return zctx
	}
	if a.Key == "" {
		return zctx
	}
	key := prefix + a.Key
	switch v.Kind() {
	case slog.KindString:
		return zctx.Str(key, v.String())
	case slog.KindBool:
		return zctx.Bool(key, v.Bool())
	case slog.KindInt64:
		return zctx.Int64(key, v.Int64())
	case slog.KindUint64:
		return zctx.Uint64(key, v.Uint64())
	case slog.KindFloat64:
		return zctx.Float64(key, v.Float64())
	case slog.KindDuration:
		return zctx.Dur(key, v.Duration())
	case slog.KindTime:
		return zctx.Time(key, v.Time())
	default:
		return zctx.Interface(key, v.Any())
	}
}

func levelFromSlog(level slog.Level) zerolog.Level {
	switch {
	case level >= slog.LevelError:
		return zerolog.ErrorLevel
	case level >= slog.LevelWarn:
		return zerolog.WarnLevel
	case level >= slog.LevelInfo:
		return zerolog.InfoLevel
	case level >= slog.LevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.TraceLevel
	}
}
