//go:build dev

package devlog

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

const defaultSocket = "/tmp/mcplogd.sock"
const appName = "testscope"

const (
	levelInfo  = "info"
	levelDebug = "debug"
	levelWarn  = "warn"
	levelError = "error"
)

type entry struct {
	App       string         `json:"app"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// New returns the logger for this build.
func New() Logger {
	return socketLogger{socket: defaultSocket}
}

type socketLogger struct {
	socket string
}

func (l socketLogger) Info(message string, metadata map[string]any) {
	l.log(levelInfo, message, metadata)
}

func (l socketLogger) Debug(message string, metadata map[string]any) {
	l.log(levelDebug, message, metadata)
}

func (l socketLogger) Warn(message string, metadata map[string]any) {
	l.log(levelWarn, message, metadata)
}

func (l socketLogger) Error(message string, metadata map[string]any) {
	l.log(levelError, message, metadata)
}

func (l socketLogger) log(level, message string, metadata map[string]any) {
	conn, err := net.Dial("unix", l.socket)
	if err != nil {
		return
	}
	defer conn.Close()

	e := entry{
		App:       appName,
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Metadata:  metadata,
	}
	data, _ := json.Marshal(e)
	fmt.Fprintf(conn, "%s\n", data)
}
