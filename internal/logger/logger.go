package logger

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
)

type level int32

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
)

// minLevel gates what gets written to the process log. Sentry breadcrumbs
// and exceptions are not gated; verbosity only controls local output.
var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(levelInfo))
}

// SetVerbosity configures the minimum log level from a LOG_LEVEL-style
// label (DEBUG, INFO, WARNING, ERROR). Unknown labels keep INFO.
func SetVerbosity(label string) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "DEBUG":
		minLevel.Store(int32(levelDebug))
	case "WARN", "WARNING":
		minLevel.Store(int32(levelWarn))
	case "ERROR":
		minLevel.Store(int32(levelError))
	default:
		minLevel.Store(int32(levelInfo))
	}
}

func enabled(l level) bool {
	return int32(l) >= minLevel.Load()
}

// Fields represents structured log fields
type Fields map[string]interface{}

// WithContext extracts request context for logging
func WithContext(c *gin.Context) Fields {
	return Fields{
		"request_id": c.GetString("request_id"),
		"method":     c.Request.Method,
		"path":       c.Request.URL.Path,
	}
}

// Debug logs a debug message with structured fields
func Debug(msg string, fields Fields) {
	if enabled(levelDebug) {
		log.Printf("[DEBUG] %s %s", msg, formatFields(fields))
	}
	breadcrumb("debug", msg, fields, sentry.LevelDebug)
}

// Info logs an informational message with structured fields
func Info(msg string, fields Fields) {
	if enabled(levelInfo) {
		log.Printf("[INFO] %s %s", msg, formatFields(fields))
	}
	breadcrumb("info", msg, fields, sentry.LevelInfo)
}

// Warn logs a warning message with structured fields
func Warn(msg string, fields Fields) {
	if enabled(levelWarn) {
		log.Printf("[WARN] %s %s", msg, formatFields(fields))
	}
	breadcrumb("warning", msg, fields, sentry.LevelWarning)
}

// Error logs an error message with structured fields and sends it to Sentry
func Error(msg string, err error, fields Fields) {
	if enabled(levelError) {
		log.Printf("[ERROR] %s: %v %s", msg, err, formatFields(fields))
	}

	hub := sentry.CurrentHub()
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		for key, value := range fields {
			scope.SetContext(key, map[string]interface{}{
				"value": value,
			})
		}
		if requestID, ok := fields["request_id"].(string); ok {
			scope.SetTag("request_id", requestID)
		}
		if model, ok := fields["model"].(string); ok {
			scope.SetTag("model", model)
		}
		if err != nil {
			hub.CaptureException(err)
		} else {
			hub.CaptureMessage(msg)
		}
	})
}

// LogAPIRequest logs API request metrics
func LogAPIRequest(c *gin.Context, duration time.Duration, statusCode int, fields Fields) {
	if fields == nil {
		fields = Fields{}
	}

	fields["duration_ms"] = duration.Milliseconds()
	fields["status_code"] = statusCode
	fields["request_id"] = c.GetString("request_id")
	fields["method"] = c.Request.Method
	fields["path"] = c.Request.URL.Path
	fields["client_ip"] = c.ClientIP()

	Info("API request completed", fields)
}

// LogGenerationRequest logs one provider round trip: model, wall time,
// outcome classification and token usage when the provider reported any.
func LogGenerationRequest(model string, duration time.Duration, outcome string, usage Fields) {
	fields := Fields{
		"model":       model,
		"duration_ms": duration.Milliseconds(),
		"outcome":     outcome,
	}
	for k, v := range usage {
		fields[k] = v
	}

	Info("Generation request completed", fields)
}

func breadcrumb(typ, msg string, fields Fields, lvl sentry.Level) {
	if hub := sentry.CurrentHub(); hub.Client() != nil {
		sentry.AddBreadcrumb(&sentry.Breadcrumb{
			Type:     typ,
			Category: "log",
			Message:  msg,
			Data:     map[string]interface{}(fields),
			Level:    lvl,
		})
	}
}

// formatFields converts Fields to a readable, deterministic string
func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(formatValue(fields[k]))
	}
	b.WriteString("}")
	return b.String()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.2f", val)
	default:
		return fmt.Sprintf("%v", val)
	}
}
