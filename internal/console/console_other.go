//go:build !windows

// Package console reads commands from the terminal. On Windows it also takes
// care of the console window and Ctrl+C handling.
package console

// IsRunningFromConsole is always true outside Windows.
func IsRunningFromConsole() bool {
	return true
}

// SetupConsoleHandler returns a no-op. os/signal covers Ctrl+C here.
func SetupConsoleHandler(shutdown chan struct{}) func() {
	return func() {}
}
