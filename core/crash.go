package core

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"sync"
)

var (
	crashMu      sync.Mutex
	crashRestore func()

	crashOut  io.Writer = os.Stderr
	crashExit           = os.Exit
)

// SetCrashRestore registers the terminal cleanup run before a crash report is printed
func SetCrashRestore(fn func()) {
	crashMu.Lock()
	crashRestore = fn
	crashMu.Unlock()
}

// HandleCrash restores the terminal, prints the panic value with its stack and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	restore := crashRestore
	crashRestore = nil
	crashMu.Unlock()
	if restore != nil {
		restore()
	}

	fmt.Fprintf(crashOut, "\n\x1b[31mCRASH DETECTED: %v\x1b[0m\n", r)
	fmt.Fprintf(crashOut, "Stack Trace:\n%s\n", debug.Stack())
	crashExit(1)
}

// Go runs fn in a new goroutine with panic recovery
// Use it instead of the go keyword wherever a panic would leave the terminal in raw mode
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
