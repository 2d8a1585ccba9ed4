package formflow

import (
	"fmt"
	"log"
	"runtime"
	"sort"
	"strings"
)

// PanicLogger receives a recovered panic with its cleaned stack.
type PanicLogger func(funcName string, err any, stack []byte, fields ...map[string]any)

// MakePanicHandler returns a func meant to be deferred; it recovers a panic
// and reports it to logger.
func MakePanicHandler(logger PanicLogger) func(funcName string, fields ...map[string]any) {
	if logger == nil {
		logger = DefaultPanicLogger
	}
	return func(funcName string, fields ...map[string]any) {
		if err := recover(); err != nil {
			fullStack := make([]byte, 8096)
			n := runtime.Stack(fullStack, false)
			logger(funcName, err, cleanStackTrace(fullStack[:n]), fields...)
		}
	}
}

// FormatPanic renders a recovered panic as a multi-line report.
func FormatPanic(funcName string, err any, stack []byte, fields ...map[string]any) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("recovered from panic in %s\n", funcName))
	sb.WriteString(fmt.Sprintf("Error: %v\n", err))
	sb.WriteString(fmt.Sprintf("Error Type: %T\n", err))

	if len(fields) > 0 && fields[0] != nil {
		sb.WriteString("Context:\n")

		keys := make([]string, 0, len(fields[0]))
		for k := range fields[0] {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, fields[0][k]))
		}
	}

	sb.WriteString("Stack Trace:\n")
	sb.Write(stack)
	return sb.String()
}

// DefaultPanicLogger prints the report with the standard logger.
func DefaultPanicLogger(funcName string, err any, stack []byte, fields ...map[string]any) {
	log.Print("[FATAL] " + FormatPanic(funcName, err, stack, fields...))
}

func cleanStackTrace(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")

	panicLineIndex := -1
	for i, line := range lines {
		if strings.Contains(line, "panic(") {
			panicLineIndex = i
			break
		}
	}

	// drop the panic() frame and its file reference
	if panicLineIndex >= 0 && panicLineIndex+2 < len(lines) {
		lines = lines[panicLineIndex+2:]
	}

	return []byte(strings.Join(lines, "\n"))
}
