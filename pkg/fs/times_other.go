//go:build !linux

package fs

import (
	"os"
	"time"
)

// FileTimes returns the creation and modification timestamps for the file
// at path, given its stat info.
//
// Without statx(2) there is no portable way to read a file's birth time,
// so both timestamps come from the modification time. Creation-time
// ordering degrades to modification-time ordering on these platforms.
func FileTimes(_ string, info os.FileInfo) (created, modified time.Time) {
	modified = info.ModTime()

	return modified, modified
}
