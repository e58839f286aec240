// Package devlog carries the diagnostic logger handed to producers and commands.
//
// Release builds discard everything. Builds tagged "dev" forward JSON lines to
// a local mcplogd socket so resolution decisions can be traced while editing.
package devlog

// Logger receives structured diagnostic events.
type Logger interface {
	Info(message string, metadata map[string]any)
	Debug(message string, metadata map[string]any)
	Warn(message string, metadata map[string]any)
	Error(message string, metadata map[string]any)
}

// Nop is a Logger that drops every event.
type Nop struct{}

func (Nop) Info(message string, metadata map[string]any) {
	_ = message
	_ = metadata
}

func (Nop) Debug(message string, metadata map[string]any) {
	_ = message
	_ = metadata
}

func (Nop) Warn(message string, metadata map[string]any) {
	_ = message
	_ = metadata
}

func (Nop) Error(message string, metadata map[string]any) {
	_ = message
	_ = metadata
}
