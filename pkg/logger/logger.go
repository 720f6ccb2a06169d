// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the per-request logger injected by the Logger middleware,
// so every line written from a handler carries the request id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("inquiry stored", "inquiry_id", inq.ID)
//	// → time=... level=INFO msg="inquiry stored" request_id=a1b2c3d4 inquiry_id=7
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/decorhub/decorhub/config"
)

var (
	L *slog.Logger

	mu   sync.Mutex
	sink *MongoHandler
)

func init() {
	L = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(L)
}

// Setup rebuilds the base logger from configuration: JSON at INFO in
// production, text at DEBUG elsewhere, plus the MongoDB sink when
// LOG_MONGO_URI is set. A sink that cannot connect is reported and skipped;
// stdout logging always works.
func Setup() {
	mu.Lock()
	defer mu.Unlock()

	var base slog.Handler
	if config.IsProduction() {
		base = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		base = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}

	handler := base
	if uri := config.LogMongoURI(); uri != "" && sink == nil {
		h, err := NewMongoHandler(uri, config.LogMongoDB(), "logs", slog.LevelInfo)
		if err != nil {
			slog.New(base).Warn("logger: mongo sink disabled", "error", err)
		} else {
			sink = h
		}
	}
	if sink != nil {
		handler = NewMultiHandler(base, sink)
	}

	L = slog.New(handler)
	slog.SetDefault(L)
}

// SetOutput replaces the base logger with a text handler writing to w.
// Tests use it to silence or capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	L = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(L)
}

// Close flushes and disconnects the MongoDB sink, if one is attached.
func Close() {
	mu.Lock()
	h := sink
	sink = nil
	mu.Unlock()
	if h != nil {
		h.Close()
	}
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

func Debug(msg string, args ...any) { L.Debug(msg, args...) }

func Info(msg string, args ...any) { L.Info(msg, args...) }

func Warn(msg string, args ...any) { L.Warn(msg, args...) }

func Error(msg string, args ...any) { L.Error(msg, args...) }
