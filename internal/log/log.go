package log

import (
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	Level    string // debug|info|warn|error
	Encoding string // json|console
	File     string // optional extra sink
	Output   string // stdout (default) | stderr
}

// New builds the process logger. Output goes to stdout unless Output says
// stderr; File, when set, receives a copy.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil || opts.Level == "" {
		level.SetLevel(zapcore.InfoLevel)
	}
	enc := opts.Encoding
	if enc != "console" {
		enc = "json"
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = level
	cfg.Encoding = enc
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	out := "stdout"
	if opts.Output == "stderr" {
		out = "stderr"
	}
	cfg.OutputPaths = []string{out}
	if opts.File != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, opts.File)
	}
	return cfg.Build()
}

const localsKey = "logger"

// Middleware attaches a request-scoped logger carrying the request id, ip,
// method and path. It must run after requestid.
func Middleware(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		l := base.With(
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
		)
		if rid, ok := c.Locals("requestid").(string); ok && rid != "" {
			l = l.With(zap.String("req_id", rid))
		}
		c.Locals(localsKey, l)
		return c.Next()
	}
}

// Access writes one line per request once the response status is known.
// Errors are handed to the app's error handler first, as fiber's own logger
// middleware does.
func Access() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}
		From(c).Info("http.access",
			zap.Int("status", c.Response().StatusCode()),
			zap.Duration("latency", time.Since(start)))
		return nil
	}
}

// From returns the request logger, or a no-op logger outside a request.
func From(c *fiber.Ctx) *zap.Logger {
	if c != nil {
		if l, ok := c.Locals(localsKey).(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}

func write(level zapcore.Level, c *fiber.Ctx, action string, err error, fields map[string]any) {
	zf := []zap.Field{zap.String("action", action)}
	if c != nil {
		zf = append(zf, zap.Int("status", c.Response().StatusCode()))
	}
	if err != nil {
		zf = append(zf, zap.Error(err))
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		zf = append(zf, zap.Any(k, fields[k]))
	}
	if ce := From(c).Check(level, action); ce != nil {
		ce.Write(zf...)
	}
}

func Info(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, c, action, nil, fields)
}

// Audit records a state-changing operation.
func Audit(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.InfoLevel, c, action, nil, mergeKind(fields, "audit"))
}

func Security(c *fiber.Ctx, action string, fields map[string]any) {
	write(zapcore.WarnLevel, c, action, nil, fields)
}

func Error(c *fiber.Ctx, action string, err error, fields map[string]any) {
	write(zapcore.ErrorLevel, c, action, err, fields)
}

func mergeKind(fields map[string]any, kind string) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["kind"] = kind
	return out
}
