//go:build !linux

package engine

import "os"

// Quietly runs f with os.Stdout and os.Stderr pointing to the null
// device. Output written by native code is not suppressed.
func Quietly(f func() error) error {
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return f()
	}
	defer devNull.Close()

	stdout, stderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = devNull, devNull
	defer func() {
		os.Stdout, os.Stderr = stdout, stderr
	}()
	return f()
}
