package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

type ctxKey string

const contextKeyRequestID ctxKey = "request_id"

var (
	mu      sync.Mutex
	out     io.Writer = os.Stdout
	debugOn bool
)

// SetOutput redirects all log lines to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetDebug enables or disables Debug output.
func SetDebug(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	debugOn = enabled
}

// DebugEnabled reports whether Debug output is on.
func DebugEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return debugOn
}

// WithRequestID adds request ID to context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestID retrieves request ID from context
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// formatLog formats log message with optional request ID
func formatLog(requestID string, format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	if requestID != "" {
		return fmt.Sprintf("[req_id=%s] %s", requestID, msg)
	}
	return msg
}

func write(tag string, msg string) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprintf(out, "%s %s\n", tag, msg)
}

var (
	debugTag = color.New(color.FgCyan).SprintFunc()
	infoTag  = color.New(color.FgWhite, color.BgGreen).SprintFunc()
	warnTag  = color.New(color.FgWhite, color.BgYellow).SprintFunc()
	errorTag = color.New(color.FgRed).SprintFunc()
)

// Debug logs diagnostics such as rendered SQL. Silent unless SetDebug(true).
func Debug(format string, a ...interface{}) {
	if !DebugEnabled() {
		return
	}
	write(debugTag("[DEBUG]"), fmt.Sprintf(format, a...))
}

// DebugWithContext logs diagnostics with the request ID from ctx.
func DebugWithContext(ctx context.Context, format string, a ...interface{}) {
	if !DebugEnabled() {
		return
	}
	write(debugTag("[DEBUG]"), formatLog(RequestID(ctx), format, a...))
}

// DebugStruct dumps values in full when debug output is on.
func DebugStruct(a ...interface{}) {
	if !DebugEnabled() {
		return
	}
	write(debugTag("[DEBUG]"), spew.Sdump(a...))
}

// Info log information
func Info(format string, a ...interface{}) {
	write(infoTag("[INFO] "), fmt.Sprintf(format, a...))
}

// InfoWithContext logs information with context (includes request ID if available)
func InfoWithContext(ctx context.Context, format string, a ...interface{}) {
	write(infoTag("[INFO] "), formatLog(RequestID(ctx), format, a...))
}

// Warn log warning
func Warn(format string, a ...interface{}) {
	write(warnTag("[WARN] "), fmt.Sprintf(format, a...))
}

// WarnWithContext logs warning with context (includes request ID if available)
func WarnWithContext(ctx context.Context, format string, a ...interface{}) {
	write(warnTag("[WARN] "), formatLog(RequestID(ctx), format, a...))
}

// Error log error
func Error(format string, a ...interface{}) {
	write(errorTag("[Error]"), fmt.Sprintf(format, a...))
}

// ErrorWithContext logs error with context (includes request ID if available)
func ErrorWithContext(ctx context.Context, format string, a ...interface{}) {
	write(errorTag("[Error]"), formatLog(RequestID(ctx), format, a...))
}
