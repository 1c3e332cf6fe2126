//go:build !linux

package fsys

import "io/fs"

// statFromInfo falls back to portable fields; ctime mirrors mtime and the
// device, inode and owner fields stay zero.
func statFromInfo(info fs.FileInfo) FileStat {
	return FileStat{
		Ctime: info.ModTime(),
		Mtime: info.ModTime(),
		Mode:  info.Mode(),
		Size:  info.Size(),
	}
}
