//go:build linux || darwin || freebsd

package services

import "golang.org/x/sys/unix"

func (d *FileBlockDevice) readAt(buf []byte, offset int64) (int, error) {
	return unix.Pread(int(d.file.Fd()), buf, offset)
}

func (d *FileBlockDevice) writeAt(buf []byte, offset int64) (int, error) {
	return unix.Pwrite(int(d.file.Fd()), buf, offset)
}

func (d *FileBlockDevice) truncate(size int64) error {
	return unix.Ftruncate(int(d.file.Fd()), size)
}

func (d *FileBlockDevice) sync() error {
	return unix.Fsync(int(d.file.Fd()))
}
