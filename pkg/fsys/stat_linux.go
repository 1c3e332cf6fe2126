//go:build linux

package fsys

import (
	"io/fs"
	"syscall"
	"time"
)

func statFromInfo(info fs.FileInfo) FileStat {
	st := FileStat{
		Ctime: info.ModTime(),
		Mtime: info.ModTime(),
		Mode:  info.Mode(),
		Size:  info.Size(),
	}
	sys, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return st
	}
	st.Ctime = time.Unix(int64(sys.Ctim.Sec), int64(sys.Ctim.Nsec))
	st.Dev = uint64(sys.Dev)
	st.Ino = uint64(sys.Ino)
	st.UID = sys.Uid
	st.GID = sys.Gid
	return st
}
