package services

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// MappableFile es un archivo que puede respaldar páginas: se lee y escribe por offset y se puede reabrir para
// que un mapeo tenga su propio handle, independiente del que usa el proceso.
type MappableFile interface {
	models.BackingFile
	Length() (int64, error)
	Reopen() (MappableFile, error)
	Close() error
}

// FileSystem serializa todo el acceso a archivos con un único lock. El swap usa el mismo lock.
type FileSystem struct {
	mu sync.Mutex
}

func NewFileSystem() *FileSystem {
	return &FileSystem{}
}

// Open abre un archivo existente para lectura y escritura.
func (fs *FileSystem) Open(path string) (*File, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	handle, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir %s: %w", path, err)
	}
	slog.Debug(fmt.Sprintf("Archivo abierto: %s", path))
	return &File{fs: fs, path: path, handle: handle}, nil
}

// File es un handle abierto a través del FileSystem.
type File struct {
	fs     *FileSystem
	path   string
	handle *os.File
}

func (f *File) Name() string {
	return f.path
}

func (f *File) ReadAt(p []byte, off int64) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.handle == nil {
		return 0, os.ErrClosed
	}
	return f.handle.ReadAt(p, off)
}

func (f *File) WriteAt(p []byte, off int64) (int, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.handle == nil {
		return 0, os.ErrClosed
	}
	return f.handle.WriteAt(p, off)
}

func (f *File) Length() (int64, error) {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.handle == nil {
		return 0, os.ErrClosed
	}
	info, err := f.handle.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func (f *File) Reopen() (MappableFile, error) {
	return f.fs.Open(f.path)
}

// Close cierra el handle. Cerrar un handle ya cerrado no hace nada.
func (f *File) Close() error {
	f.fs.mu.Lock()
	defer f.fs.mu.Unlock()
	if f.handle == nil {
		return nil
	}
	err := f.handle.Close()
	f.handle = nil
	return err
}
