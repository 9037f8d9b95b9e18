//go:build !(linux || darwin || freebsd)

package services

func (d *FileBlockDevice) readAt(buf []byte, offset int64) (int, error) {
	return d.file.ReadAt(buf, offset)
}

func (d *FileBlockDevice) writeAt(buf []byte, offset int64) (int, error) {
	return d.file.WriteAt(buf, offset)
}

func (d *FileBlockDevice) truncate(size int64) error {
	return d.file.Truncate(size)
}

func (d *FileBlockDevice) sync() error {
	return d.file.Sync()
}
