/*
Copyright 2026 The Shardql Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
	"github.com/spf13/pflag"
)

var (
	logFormat string
	logLevel  string

	// structured is set once Init has installed a slog handler.
	structured atomic.Bool
)

// Init configures structured logging when --log-fmt was given explicitly.
func Init(fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	if f := fs.Lookup("log-fmt"); f == nil || !f.Changed {
		return nil
	}

	level, err := parseLevel(logLevel)
	if err != nil {
		return err
	}
	opts := &slog.HandlerOptions{AddSource: true, Level: level}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(logFormat)) {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	case "logfmt":
		handler = slog.NewTextHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("invalid log-fmt %q: expected json or logfmt", logFormat)
	}

	slog.SetDefault(slog.New(handler))
	structured.Store(true)
	return nil
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log-level %q: expected debug, info, warn, or error", level)
}

func logS(level slog.Level, msg string, args ...any) {
	if !structured.Load() {
		// depth 2 skips logS and the exported wrapper
		args = append([]any{msg, " "}, args...)
		switch {
		case level >= slog.LevelError:
			glog.ErrorDepth(2, args...)
		case level >= slog.LevelWarn:
			glog.WarningDepth(2, args...)
		case level < slog.LevelInfo:
			if glog.V(1) {
				glog.InfoDepth(2, args...)
			}
		default:
			glog.InfoDepth(2, args...)
		}
		return
	}

	logger := slog.Default()
	ctx := context.Background()
	if !logger.Enabled(ctx, level) {
		return
	}
	var pcs [1]uintptr
	runtime.Callers(3, pcs[:])
	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(args...)
	_ = logger.Handler().Handle(ctx, record)
}

// DebugS logs at the Debug level.
func DebugS(msg string, args ...any) { logS(slog.LevelDebug, msg, args...) }

// InfoS logs at the Info level.
func InfoS(msg string, args ...any) { logS(slog.LevelInfo, msg, args...) }

// WarnS logs at the Warn level.
func WarnS(msg string, args ...any) { logS(slog.LevelWarn, msg, args...) }

// ErrorS logs at the Error level.
func ErrorS(msg string, args ...any) { logS(slog.LevelError, msg, args...) }

// SetLogger replaces the structured logger. The returned function restores
// the previous one. Used for testing.
func SetLogger(logger *slog.Logger) func() {
	if logger == nil {
		return func() {}
	}
	prevEnabled := structured.Load()
	prev := slog.Default()

	slog.SetDefault(logger)
	structured.Store(true)

	return func() {
		slog.SetDefault(prev)
		structured.Store(prevEnabled)
	}
}
