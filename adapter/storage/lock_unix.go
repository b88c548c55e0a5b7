//go:build !windows

package storage

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// tryLock takes and releases a non-blocking exclusive advisory lock, the kind
// the engine holds while a database is open.
func tryLock(f *os.File) (bool, error) {
	fd := int(f.Fd())
	err := unix.Flock(fd, unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, unix.Flock(fd, unix.LOCK_UN)
}

func isLockedOpenErr(error) bool {
	return false
}
