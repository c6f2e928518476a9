package grouper

import (
	"os"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// birthTime asks statx(2) for the creation time. Filesystems that do not
// record one leave STATX_BTIME out of the mask.
func birthTime(path string, info os.FileInfo) (time.Time, bool) {
	if _, ok := info.Sys().(*syscall.Stat_t); !ok {
		return time.Time{}, false // not backed by the OS filesystem
	}
	var sx unix.Statx_t
	if err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &sx); err != nil {
		return time.Time{}, false
	}
	if sx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(sx.Btime.Sec, int64(sx.Btime.Nsec)), true
}
