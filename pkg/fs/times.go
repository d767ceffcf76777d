//go:build linux

package fs

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// FileTimes returns the creation and modification timestamps for the file
// at path, given its stat info.
//
// [os.FileInfo] cannot observe a file's birth time, so creation time is
// read with statx(2) where the filesystem reports one. Filesystems without
// birth time support fall back to the inode change time, and as a last
// resort to the modification time.
func FileTimes(path string, info os.FileInfo) (created, modified time.Time) {
	modified = info.ModTime()
	created = modified

	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		created = time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}

	var stx unix.Statx_t

	err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx)
	if err == nil && stx.Mask&unix.STATX_BTIME != 0 {
		created = time.Unix(int64(stx.Btime.Sec), int64(stx.Btime.Nsec))
	}

	return created, modified
}
