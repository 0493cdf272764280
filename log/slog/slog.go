package slog

import (
	"context"
	stdslog "log/slog"

	"github.com/unkn0wn-root/blobcontainer"
)

var _ blobcontainer.Logger = Logger{}

// Logger adapts *slog.Logger. Records go through LogAttrs, so disabled
// levels cost no allocation beyond the Fields map.
type Logger struct{ L *stdslog.Logger }

func (s Logger) Debug(msg string, f blobcontainer.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f blobcontainer.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f blobcontainer.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f blobcontainer.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(lvl stdslog.Level, msg string, f blobcontainer.Fields) {
	ctx := context.Background()
	if !s.L.Enabled(ctx, lvl) {
		return
	}
	s.L.LogAttrs(ctx, lvl, msg, attrs(f)...)
}

func attrs(f blobcontainer.Fields) []stdslog.Attr {
	if len(f) == 0 {
		return nil
	}
	out := make([]stdslog.Attr, 0, len(f))
	for k, v := range f {
		out = append(out, stdslog.Any(k, v))
	}
	return out
}
