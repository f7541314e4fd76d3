// Package console reads commands from the terminal and takes care of the
// Windows console: detecting double-click launches and reliable Ctrl+C
// handling while SDL holds a locked OS thread.
package console

import (
	"log"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procGetConsoleWindow      = kernel32.NewProc("GetConsoleWindow")
	procFreeConsole           = kernel32.NewProc("FreeConsole")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")
)

const (
	ctrlCEvent     = 0
	ctrlBreakEvent = 1
	ctrlCloseEvent = 2
)

// IsRunningFromConsole reports whether the program has a terminal to talk to.
// A console-mode build double-clicked from Explorer frees its auto-created
// console window and reports false.
func IsRunningFromConsole() bool {
	hwnd, _, _ := procGetConsoleWindow.Call()
	if hwnd == 0 {
		return false
	}
	if launchedFromExplorer() {
		procFreeConsole.Call()
		return false
	}
	return true
}

func launchedFromExplorer() bool {
	parent := parentProcessID(windows.GetCurrentProcessId())
	if parent == 0 {
		return false
	}
	return strings.EqualFold(filepath.Base(processImageName(parent)), "explorer.exe")
}

func parentProcessID(pid uint32) uint32 {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPPROCESS, 0)
	if err != nil {
		return 0
	}
	defer windows.CloseHandle(snap)

	var entry windows.ProcessEntry32
	entry.Size = uint32(unsafe.Sizeof(entry))
	for err = windows.Process32First(snap, &entry); err == nil; err = windows.Process32Next(snap, &entry) {
		if entry.ProcessID == pid {
			return entry.ParentProcessID
		}
	}
	return 0
}

func processImageName(pid uint32) string {
	h, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, pid)
	if err != nil {
		return ""
	}
	defer windows.CloseHandle(h)

	var buf [windows.MAX_PATH]uint16
	size := uint32(len(buf))
	if err := windows.QueryFullProcessImageName(h, 0, &buf[0], &size); err != nil {
		return ""
	}
	return windows.UTF16ToString(buf[:size])
}

var (
	handlerOnce sync.Once
	handlerFn   uintptr
	handlerDone chan struct{}
	closeOnce   sync.Once
)

// SetupConsoleHandler closes shutdown on Ctrl+C, Ctrl+Break or console close.
// SDL replaces console handlers during init, so the returned function
// registers the handler again and should be called after SDL is up.
func SetupConsoleHandler(shutdown chan struct{}) func() {
	handlerOnce.Do(func() {
		handlerDone = shutdown
		handlerFn = windows.NewCallback(func(ctrlType uint32) uintptr {
			switch ctrlType {
			case ctrlCEvent, ctrlBreakEvent, ctrlCloseEvent:
				closeOnce.Do(func() { close(handlerDone) })
				return 1
			}
			return 0
		})
	})

	register := func() {
		if ret, _, err := procSetConsoleCtrlHandler.Call(handlerFn, 1); ret == 0 {
			log.Printf("Warning: failed to set console control handler: %v", err)
		}
	}
	register()
	return register
}
