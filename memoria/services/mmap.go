package services

import (
	"fmt"
	"log/slog"

	"github.com/benbjohnson/immutable"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// Mapping es un archivo mapeado en el espacio de direcciones de un proceso.
type Mapping struct {
	ID     models.MapID          `json:"mapid"`
	Start  models.VirtualAddress `json:"start"`
	Pages  int                   `json:"pages"`
	Length int64                 `json:"length"`
	File   MappableFile          `json:"-"`
}

func (m *Mapping) end(pageSize int) models.VirtualAddress {
	return m.Start + models.VirtualAddress(m.Pages*pageSize)
}

// mappingTable guarda los mapeos de un proceso ordenados por dirección y por id. Es inmutable: cada cambio
// crea una tabla nueva, así se puede listar sin tomar el lock del proceso.
type mappingTable struct {
	byStart *immutable.SortedMap[models.VirtualAddress, *Mapping]
	byID    *immutable.Map[models.MapID, *Mapping]
}

type addressComparer struct{}

func (addressComparer) Compare(a, b models.VirtualAddress) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

type mapIDHasher struct{}

func (mapIDHasher) Hash(key models.MapID) uint32 {
	return uint32(key) * 2654435761
}

func (mapIDHasher) Equal(a, b models.MapID) bool {
	return a == b
}

func newMappingTable() *mappingTable {
	return &mappingTable{
		byStart: immutable.NewSortedMap[models.VirtualAddress, *Mapping](addressComparer{}),
		byID:    immutable.NewMap[models.MapID, *Mapping](mapIDHasher{}),
	}
}

func (t *mappingTable) with(m *Mapping) *mappingTable {
	return &mappingTable{byStart: t.byStart.Set(m.Start, m), byID: t.byID.Set(m.ID, m)}
}

func (t *mappingTable) without(m *Mapping) *mappingTable {
	return &mappingTable{byStart: t.byStart.Delete(m.Start), byID: t.byID.Delete(m.ID)}
}

// overlaps indica si algún mapeo se superpone con [start, end).
func (t *mappingTable) overlaps(start models.VirtualAddress, end models.VirtualAddress, pageSize int) bool {
	itr := t.byStart.Iterator()
	for !itr.Done() {
		mapStart, m, _ := itr.Next()
		if mapStart >= end {
			return false
		}
		if m.end(pageSize) > start {
			return true
		}
	}
	return false
}

func (t *mappingTable) list() []Mapping {
	result := make([]Mapping, 0, t.byStart.Len())
	itr := t.byStart.Iterator()
	for !itr.Done() {
		_, m, _ := itr.Next()
		result = append(result, *m)
	}
	return result
}

func (p *Process) mappingAt(page models.VirtualAddress) bool {
	return p.mappings.Load().overlaps(page, page+1, p.Space.pageSize)
}

// Mmap mapea el archivo completo a partir de addr. Valida todo el rango antes de instalar nada: si alguna
// página choca con algo ya mapeado no se instala ninguna. El mapeo usa su propio handle del archivo.
//
// Parámetros:
//   - pid: proceso que pide el mapeo
//   - file: archivo a mapear, abierto por el proceso
//   - addr: dirección virtual de inicio, alineada a página y distinta de cero
//
// Ejemplo:
//
//	file, _ := vm.FileSystem().Open("datos.bin")
//	mapid, err := vm.Mmap(1, file, 0x10000000)
func (vm *VirtualMemory) Mmap(pid models.Pid, file MappableFile, addr models.VirtualAddress) (models.MapID, error) {
	process, err := vm.lockProcess(pid)
	if err != nil {
		return 0, err
	}
	defer process.faultMu.Unlock()

	pageSize := vm.config.PageSize
	length, err := file.Length()
	if err != nil {
		return 0, fmt.Errorf("no se pudo obtener el tamaño de %s: %w", file.Name(), err)
	}
	if length == 0 {
		return 0, fmt.Errorf("archivo vacío %s: %w", file.Name(), models.ErrInvalidMapping)
	}
	if addr == 0 || !addr.IsPageAligned(pageSize) {
		return 0, fmt.Errorf("dirección %s: %w", addr, models.ErrInvalidMapping)
	}

	pages := int((length + int64(pageSize) - 1) / int64(pageSize))
	end := uint64(addr) + uint64(pages)*uint64(pageSize)
	if end < uint64(addr) || end > uint64(vm.config.StackBottom()) {
		return 0, fmt.Errorf("rango [%s, %#x) fuera del espacio de usuario: %w", addr, end, models.ErrInvalidMapping)
	}

	table := process.mappings.Load()
	if table.overlaps(addr, models.VirtualAddress(end), pageSize) {
		return 0, fmt.Errorf("rango [%s, %#x) superpuesto con otro mapeo: %w", addr, end, models.ErrInvalidMapping)
	}
	for i := 0; i < pages; i++ {
		page := addr + models.VirtualAddress(i*pageSize)
		if _, used := process.Space.Lookup(page); used {
			return 0, fmt.Errorf("la página %s ya está en uso: %w", page, models.ErrInvalidMapping)
		}
	}

	handle, err := file.Reopen()
	if err != nil {
		return 0, fmt.Errorf("no se pudo reabrir %s: %w", file.Name(), err)
	}

	process.nextMapID++
	mapping := &Mapping{ID: process.nextMapID, Start: addr, Pages: pages, Length: length, File: handle}
	for i := 0; i < pages; i++ {
		page := addr + models.VirtualAddress(i*pageSize)
		process.Space.InstallPage(page, models.NewOriginPage(vm.mappingOrigin(mapping, page)))
	}
	process.mappings.Store(table.with(mapping))

	slog.Info(fmt.Sprintf("## PID: %d - Mmap - MapID: %d - Archivo: %s - Dirección: %s - Páginas: %d", pid, mapping.ID, file.Name(), addr, pages))
	return mapping.ID, nil
}

// Munmap deshace el mapeo: las páginas modificadas se escriben en el archivo, las limpias se descartan sin
// E/S, y se cierra el handle del mapeo. Un segundo Munmap del mismo id devuelve models.ErrNoSuchMapping.
func (vm *VirtualMemory) Munmap(pid models.Pid, id models.MapID) error {
	process, err := vm.lockProcess(pid)
	if err != nil {
		return err
	}
	defer process.faultMu.Unlock()

	mapping, ok := process.mappings.Load().byID.Get(id)
	if !ok {
		return fmt.Errorf("pid %d mapid %d: %w", pid, id, models.ErrNoSuchMapping)
	}
	return vm.unmapLocked(process, mapping)
}

// Mappings lista los mapeos del proceso ordenados por dirección.
func (vm *VirtualMemory) Mappings(pid models.Pid) ([]Mapping, error) {
	process, ok := vm.processes.Get(pid)
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, models.ErrNoSuchProcess)
	}
	return process.mappings.Load().list(), nil
}

func (vm *VirtualMemory) unmapLocked(process *Process, mapping *Mapping) error {
	pageSize := vm.config.PageSize
	var firstErr error

	for i := 0; i < mapping.Pages; i++ {
		page := mapping.Start + models.VirtualAddress(i*pageSize)
		entry, ok, err := vm.frames.Evacuate(process.Space, page, func(entry PageEntry, origin *models.Origin, content []byte) error {
			if !entry.Dirty {
				return nil
			}
			if origin == nil {
				origin = vm.mappingOrigin(mapping, page)
			}
			if err := writeBack(origin, content); err != nil {
				return err
			}
			process.Metrics.FileWritebacks.Add(1)
			return nil
		})
		if err != nil {
			slog.Error(fmt.Sprintf("PID: %d - No se pudo escribir la página %s en %s: %v", process.Pid, page, mapping.File.Name(), err))
			if firstErr == nil {
				firstErr = err
			}
		}
		if ok && !entry.Present && entry.Backing != nil && entry.Backing.Location == models.LocationSwap {
			vm.writeBackFromSwap(process, entry.Backing, mapping, page)
		}
	}

	if err := mapping.File.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	process.mappings.Store(process.mappings.Load().without(mapping))

	slog.Info(fmt.Sprintf("## PID: %d - Munmap - MapID: %d", process.Pid, mapping.ID))
	return firstErr
}

// writeBackFromSwap lleva al archivo una página del mapeo que quedó en swap porque falló su escritura al
// desalojarla, y libera el slot.
func (vm *VirtualMemory) writeBackFromSwap(process *Process, backing *models.Page, mapping *Mapping, page models.VirtualAddress) {
	defer vm.swap.Release(backing.Slot)

	buf := make([]byte, vm.config.PageSize)
	if err := vm.swap.Read(buf, backing.Slot); err != nil {
		slog.Error(fmt.Sprintf("PID: %d - No se pudo leer de swap la página %s: %v", process.Pid, page, err))
		return
	}
	if err := writeBack(vm.mappingOrigin(mapping, page), buf); err != nil {
		slog.Error(fmt.Sprintf("PID: %d - No se pudo escribir la página %s en %s: %v", process.Pid, page, mapping.File.Name(), err))
		return
	}
	process.Metrics.FileWritebacks.Add(1)
}

// mappingOrigin reconstruye el origen de una página del mapeo.
func (vm *VirtualMemory) mappingOrigin(mapping *Mapping, page models.VirtualAddress) *models.Origin {
	offset := int64(page - mapping.Start)
	return &models.Origin{
		File:      mapping.File,
		Offset:    offset,
		ReadBytes: int(min(int64(vm.config.PageSize), mapping.Length-offset)),
		Writable:  true,
		Location:  models.LocationFile,
	}
}
