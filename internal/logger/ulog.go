package logger

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/fhuszti/uploads-ms-go/internal/api_context"
)

var std *slog.Logger

// contextHandler appends the caller identity and the request id found in ctx.
type contextHandler struct{ h slog.Handler }

func (c contextHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return c.h.Enabled(ctx, lvl)
}

func (c contextHandler) Handle(ctx context.Context, r slog.Record) error {
	uid, ok := api_context.AuthUserIDFromContext(ctx)
	if !ok {
		uid = "system"
	}
	r.AddAttrs(slog.String("uid", uid))
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		r.AddAttrs(slog.String("req_id", reqID))
	}
	return c.h.Handle(ctx, r)
}

func (c contextHandler) WithAttrs(a []slog.Attr) slog.Handler {
	return contextHandler{h: c.h.WithAttrs(a)}
}

func (c contextHandler) WithGroup(n string) slog.Handler {
	return contextHandler{h: c.h.WithGroup(n)}
}

type options struct {
	format    string
	level     slog.Leveler
	addSource bool
}

// optionsFromEnv reads
//
//	LOG_FORMAT    json|text (default: json)
//	LOG_LEVEL     debug|info|warn|error (default: info)
//	LOG_SOURCE    true|false (default: false)
func optionsFromEnv() options {
	return options{
		format:    strings.ToLower(getEnv("LOG_FORMAT", "json")),
		level:     parseLevel(getEnv("LOG_LEVEL", "info")),
		addSource: parseBool(getEnv("LOG_SOURCE", "false")),
	}
}

func newLogger(w io.Writer, svc string, o options) (*slog.Logger, slog.Handler) {
	hOpts := &slog.HandlerOptions{Level: o.level, AddSource: o.addSource}
	var base slog.Handler
	if o.format == "text" {
		base = slog.NewTextHandler(w, hOpts)
	} else {
		base = slog.NewJSONHandler(w, hOpts)
	}
	// svc goes first so it prints before uid in TextHandler
	return slog.New(contextHandler{h: base}).With("svc", svc), base
}

func Init() {
	InitService("uploads-ms")
}

// InitService installs the process logger, tagging every line with svc.
func InitService(svc string) {
	l, base := newLogger(os.Stdout, svc, optionsFromEnv())
	std = l
	slog.SetDefault(std)

	// route the std log package (config loading, chi access logs) through slog
	log.SetFlags(0)
	log.SetOutput(slog.NewLogLogger(base, slog.LevelInfo).Writer())
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) slog.Leveler {
	switch strings.ToLower(s) {
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

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(s)
	return b
}

func current() *slog.Logger {
	if std != nil {
		return std
	}
	return slog.Default()
}

func Info(ctx context.Context, msg string, attrs ...any) {
	current().InfoContext(ctx, msg, attrs...)
}

func Warn(ctx context.Context, msg string, attrs ...any) {
	current().WarnContext(ctx, msg, attrs...)
}

func Error(ctx context.Context, msg string, attrs ...any) {
	current().ErrorContext(ctx, msg, attrs...)
}

func Debug(ctx context.Context, msg string, attrs ...any) {
	current().DebugContext(ctx, msg, attrs...)
}

func Infof(ctx context.Context, format string, a ...any) {
	logf(ctx, slog.LevelInfo, format, a...)
}

func Warnf(ctx context.Context, format string, a ...any) {
	logf(ctx, slog.LevelWarn, format, a...)
}

func Errorf(ctx context.Context, format string, a ...any) {
	logf(ctx, slog.LevelError, format, a...)
}

func Debugf(ctx context.Context, format string, a ...any) {
	logf(ctx, slog.LevelDebug, format, a...)
}

// logf skips the Sprintf when the level is disabled.
func logf(ctx context.Context, lvl slog.Level, format string, a ...any) {
	l := current()
	if !l.Enabled(ctx, lvl) {
		return
	}
	l.Log(ctx, lvl, fmt.Sprintf(format, a...))
}
