//go:build linux

package engine

import (
	"os"

	"golang.org/x/sys/unix"
)

// Quietly runs f with the process' standard output and standard error
// redirected to the null device at the file descriptor level, so that
// diagnostics printed by native code are suppressed too.
func Quietly(f func() error) error {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return f()
	}
	defer devNull.Close()

	os.Stdout.Sync()
	os.Stderr.Sync()

	fds := []int{unix.Stdout, unix.Stderr}
	saved := make([]int, 0, len(fds))
	defer func() {
		for i, fd := range saved {
			unix.Dup3(fd, fds[i], 0)
			unix.Close(fd)
		}
	}()

	for _, fd := range fds {
		dup, err := unix.Dup(fd)
		if err != nil {
			return f()
		}
		saved = append(saved, dup)
		if err := unix.Dup3(int(devNull.Fd()), fd, 0); err != nil {
			return f()
		}
	}
	return f()
}
