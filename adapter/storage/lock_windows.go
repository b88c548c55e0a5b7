//go:build windows

package storage

import (
	"errors"
	"os"

	"golang.org/x/sys/windows"
)

// The engine locks one byte at the highest possible offset.
const lockOffset = 0xffffffff

func tryLock(f *os.File) (bool, error) {
	h := windows.Handle(f.Fd())
	ol := windows.Overlapped{Offset: lockOffset, OffsetHigh: lockOffset}
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
	err := windows.LockFileEx(h, flags, 0, 1, 0, &ol)
	if errors.Is(err, windows.ERROR_LOCK_VIOLATION) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, windows.UnlockFileEx(h, 0, 1, 0, &ol)
}

// isLockedOpenErr reports whether opening failed because another process
// holds the file without sharing it.
func isLockedOpenErr(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION)
}
