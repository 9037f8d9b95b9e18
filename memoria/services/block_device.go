package services

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// BlockDevice es un dispositivo que se lee y escribe de a un sector.
type BlockDevice interface {
	SectorSize() int
	SectorCount() uint32
	ReadSector(sector uint32, buf []byte) error
	WriteSector(sector uint32, buf []byte) error
	Close() error
}

// FileBlockDevice es un dispositivo de bloques respaldado por un archivo (el archivo de swap). El archivo se
// trunca al tamaño del dispositivo al abrirlo: el contenido del swap no sobrevive a un reinicio.
type FileBlockDevice struct {
	file        *os.File
	sectorSize  int
	sectorCount uint32
}

// NewFileBlockDevice crea (o trunca) el archivo de swap con sectorCount sectores de sectorSize bytes.
//
// Parámetros:
//   - path: ruta del archivo de swap
//   - sectorSize: tamaño en bytes de un sector
//   - sectorCount: cantidad de sectores del dispositivo
//
// Ejemplo:
//
//	func main() {
//		device, err := services.NewFileBlockDevice("./swap/swapfile.bin", 512, 8192)
//		if err != nil {
//			panic(err)
//		}
//		defer device.Close()
//	}
func NewFileBlockDevice(path string, sectorSize int, sectorCount uint32) (*FileBlockDevice, error) {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, fmt.Errorf("no se pudo crear el directorio del swap: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("no se pudo abrir el archivo de swap %s: %w", path, err)
	}

	device := &FileBlockDevice{file: file, sectorSize: sectorSize, sectorCount: sectorCount}
	if err := device.truncate(int64(sectorSize) * int64(sectorCount)); err != nil {
		file.Close()
		return nil, fmt.Errorf("no se pudo dimensionar el archivo de swap: %w", err)
	}

	slog.Debug(fmt.Sprintf("Swap: %s - Sectores: %d de %d bytes", path, sectorCount, sectorSize))
	return device, nil
}

func (d *FileBlockDevice) SectorSize() int {
	return d.sectorSize
}

func (d *FileBlockDevice) SectorCount() uint32 {
	return d.sectorCount
}

func (d *FileBlockDevice) ReadSector(sector uint32, buf []byte) error {
	if err := checkSector(d, sector, buf); err != nil {
		return err
	}
	n, err := d.readAt(buf, int64(sector)*int64(d.sectorSize))
	if err != nil {
		return fmt.Errorf("error leyendo sector %d: %w", sector, err)
	}
	if n != d.sectorSize {
		return fmt.Errorf("lectura incompleta del sector %d: %d de %d bytes", sector, n, d.sectorSize)
	}
	return nil
}

func (d *FileBlockDevice) WriteSector(sector uint32, buf []byte) error {
	if err := checkSector(d, sector, buf); err != nil {
		return err
	}
	n, err := d.writeAt(buf, int64(sector)*int64(d.sectorSize))
	if err != nil {
		return fmt.Errorf("error escribiendo sector %d: %w", sector, err)
	}
	if n != d.sectorSize {
		return fmt.Errorf("escritura incompleta del sector %d: %d de %d bytes", sector, n, d.sectorSize)
	}
	return nil
}

func (d *FileBlockDevice) Close() error {
	if err := d.sync(); err != nil {
		slog.Warn(fmt.Sprintf("No se pudo sincronizar el archivo de swap: %v", err))
	}
	return d.file.Close()
}

// MemoryBlockDevice es un dispositivo de bloques en memoria. Cuenta las lecturas y escrituras de sectores.
type MemoryBlockDevice struct {
	mu         sync.Mutex
	sectorSize int
	data       []byte
	reads      atomic.Int64
	writes     atomic.Int64
}

func NewMemoryBlockDevice(sectorSize int, sectorCount uint32) *MemoryBlockDevice {
	return &MemoryBlockDevice{
		sectorSize: sectorSize,
		data:       make([]byte, sectorSize*int(sectorCount)),
	}
}

func (d *MemoryBlockDevice) SectorSize() int {
	return d.sectorSize
}

func (d *MemoryBlockDevice) SectorCount() uint32 {
	return uint32(len(d.data) / d.sectorSize)
}

func (d *MemoryBlockDevice) ReadSector(sector uint32, buf []byte) error {
	if err := checkSector(d, sector, buf); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	start := int(sector) * d.sectorSize
	copy(buf, d.data[start:start+d.sectorSize])
	d.reads.Add(1)
	return nil
}

func (d *MemoryBlockDevice) WriteSector(sector uint32, buf []byte) error {
	if err := checkSector(d, sector, buf); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	start := int(sector) * d.sectorSize
	copy(d.data[start:start+d.sectorSize], buf)
	d.writes.Add(1)
	return nil
}

func (d *MemoryBlockDevice) Close() error {
	return nil
}

// Reads devuelve la cantidad de sectores leídos.
func (d *MemoryBlockDevice) Reads() int64 {
	return d.reads.Load()
}

// Writes devuelve la cantidad de sectores escritos.
func (d *MemoryBlockDevice) Writes() int64 {
	return d.writes.Load()
}

func checkSector(device BlockDevice, sector uint32, buf []byte) error {
	if sector >= device.SectorCount() {
		return fmt.Errorf("sector %d fuera del dispositivo (%d sectores)", sector, device.SectorCount())
	}
	if len(buf) != device.SectorSize() {
		return fmt.Errorf("el buffer debe tener %d bytes, tiene %d", device.SectorSize(), len(buf))
	}
	return nil
}
