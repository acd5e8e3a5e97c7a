//go:build windows

// Package singleinstance implements the named-mutex single-instance
// guard from spec.md §5/§7: acquired once at process start, release
// only ever happens on process exit.
package singleinstance

import (
	"golang.org/x/sys/windows"
)

// mutexName is the well-known name the guard mutex is created under.
// A second process racing to acquire it observes ERROR_ALREADY_EXISTS
// and must treat that as a normal exit, not an error (spec.md §7).
const mutexName = "Local\\EventSleuth-SingleInstance-Guard"

// Guard holds the acquired mutex handle for the lifetime of the
// process. Release is idempotent and safe to defer.
type Guard struct {
	handle windows.Handle
}

// Acquire attempts to take the single-instance mutex. ok is false,
// with a nil error, when another instance already holds it — per
// spec.md §7 this is a normal "already running" exit, never an error
// path. A non-nil error indicates the underlying CreateMutex call
// itself failed (e.g. access denied on the object namespace).
func Acquire() (g *Guard, ok bool, err error) {
	namePtr, err := windows.UTF16PtrFromString(mutexName)
	if err != nil {
		return nil, false, err
	}

	h, err := windows.CreateMutex(nil, false, namePtr)
	if err != nil {
		if err == windows.ERROR_ALREADY_EXISTS {
			if h != 0 {
				windows.CloseHandle(h)
			}
			return nil, false, nil
		}
		return nil, false, err
	}
	if h == 0 {
		return nil, false, nil
	}
	return &Guard{handle: h}, true, nil
}

// Release closes the mutex handle. Safe to call more than once.
func (g *Guard) Release() error {
	if g == nil || g.handle == 0 {
		return nil
	}
	h := g.handle
	g.handle = 0
	return windows.CloseHandle(h)
}
