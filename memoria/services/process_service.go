package services

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// Process es el estado de memoria de un proceso: su tabla de páginas, sus mapeos de archivos y sus métricas.
// faultMu serializa los fallos de página y toda operación que modifica el espacio de direcciones.
type Process struct {
	Pid     models.Pid
	Space   *AddressSpace
	Metrics *models.Metrics

	faultMu   sync.Mutex
	exited    bool
	savedEsp  models.VirtualAddress
	mappings  atomic.Pointer[mappingTable]
	nextMapID models.MapID
	files     []MappableFile
}

func newProcess(pid models.Pid, config *models.Config) *Process {
	process := &Process{
		Pid:      pid,
		Space:    NewAddressSpace(pid, config.PageSize),
		Metrics:  &models.Metrics{},
		savedEsp: models.VirtualAddress(config.UserSpaceTop),
	}
	process.mappings.Store(newMappingTable())
	return process
}

// ProcessTable es el registro de procesos vivos. La tabla de marcos guarda solo el pid del dueño de cada
// marco y lo resuelve acá.
type ProcessTable struct {
	mu        sync.RWMutex
	processes map[models.Pid]*Process
}

func NewProcessTable() *ProcessTable {
	return &ProcessTable{processes: make(map[models.Pid]*Process)}
}

func (t *ProcessTable) Get(pid models.Pid) (*Process, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	process, ok := t.processes[pid]
	return process, ok
}

func (t *ProcessTable) Add(process *Process) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.processes[process.Pid]; exists {
		return fmt.Errorf("pid %d: %w", process.Pid, models.ErrProcessExists)
	}
	t.processes[process.Pid] = process
	return nil
}

func (t *ProcessTable) Remove(pid models.Pid) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.processes, pid)
}

// Pids devuelve los pids registrados ordenados.
func (t *ProcessTable) Pids() []models.Pid {
	t.mu.RLock()
	defer t.mu.RUnlock()
	pids := make([]models.Pid, 0, len(t.processes))
	for pid := range t.processes {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}

// CreateProcess registra un proceso nuevo con un espacio de direcciones vacío.
func (vm *VirtualMemory) CreateProcess(pid models.Pid) error {
	if err := vm.processes.Add(newProcess(pid, vm.config)); err != nil {
		slog.Error(err.Error())
		return err
	}
	slog.Info(fmt.Sprintf("## PID: %d - Proceso Creado", pid))
	return nil
}

// Processes devuelve los pids de los procesos vivos.
func (vm *VirtualMemory) Processes() []models.Pid {
	return vm.processes.Pids()
}

// LoadSegment prepara la paginación por demanda de un segmento de un ejecutable: cada página queda descripta
// por un origen EXEC (o como página de ceros si no tiene bytes del archivo) y se lee en el primer fallo.
//
// Parámetros:
//   - pid: proceso dueño del segmento
//   - file: ejecutable; el proceso pasa a ser dueño del handle y lo cierra al terminar
//   - offset: offset del segmento en el archivo
//   - upage: dirección virtual (alineada) donde empieza el segmento
//   - readBytes: bytes a leer del archivo
//   - zeroBytes: bytes en cero a continuación; readBytes+zeroBytes debe ser múltiplo del tamaño de página
//   - writable: si el proceso puede escribir el segmento
func (vm *VirtualMemory) LoadSegment(pid models.Pid, file MappableFile, offset int64, upage models.VirtualAddress, readBytes int, zeroBytes int, writable bool) error {
	pageSize := vm.config.PageSize
	total := readBytes + zeroBytes
	if readBytes < 0 || zeroBytes < 0 || total == 0 || total%pageSize != 0 || !upage.IsPageAligned(pageSize) || offset < 0 {
		return fmt.Errorf("segmento en %s: %w", upage, models.ErrInvalidMapping)
	}
	end := uint64(upage) + uint64(total)
	if !vm.isUserAddress(upage) || end > uint64(vm.config.StackBottom()) {
		return fmt.Errorf("segmento [%s, %#x) fuera del espacio de usuario: %w", upage, end, models.ErrInvalidMapping)
	}

	process, err := vm.lockProcess(pid)
	if err != nil {
		return err
	}
	defer process.faultMu.Unlock()

	pages := total / pageSize
	for i := 0; i < pages; i++ {
		page := upage + models.VirtualAddress(i*pageSize)
		if _, used := process.Space.Lookup(page); used || process.mappingAt(page) {
			return fmt.Errorf("la página %s ya está en uso: %w", page, models.ErrInvalidMapping)
		}
	}

	remaining := readBytes
	for i := 0; i < pages; i++ {
		page := upage + models.VirtualAddress(i*pageSize)
		pageRead := min(remaining, pageSize)
		remaining -= pageRead

		if pageRead == 0 && writable {
			process.Space.InstallPage(page, models.NewZeroPage())
			continue
		}
		process.Space.InstallPage(page, models.NewOriginPage(&models.Origin{
			File:      file,
			Offset:    offset + int64(i*pageSize),
			ReadBytes: pageRead,
			Writable:  writable,
			Location:  models.LocationExec,
		}))
	}

	if !slices.Contains(process.files, file) {
		process.files = append(process.files, file)
	}

	slog.Debug(fmt.Sprintf("PID: %d - Segmento cargado - Archivo: %s - Dirección: %s - Páginas: %d", pid, file.Name(), upage, pages))
	return nil
}

// SetupStack materializa la primera página del stack, justo debajo del tope del espacio de usuario, y deja
// el tope como stack pointer guardado del proceso.
func (vm *VirtualMemory) SetupStack(pid models.Pid) error {
	process, err := vm.lockProcess(pid)
	if err != nil {
		return err
	}
	defer process.faultMu.Unlock()

	top := models.VirtualAddress(vm.config.UserSpaceTop)
	page := top - models.VirtualAddress(vm.config.PageSize)
	err = vm.faultLocked(process, models.FaultRequest{
		Pid:          pid,
		Address:      page,
		Write:        true,
		User:         true,
		StackPointer: page,
		NotPresent:   true,
	})
	if err != nil {
		return err
	}
	process.savedEsp = top
	return nil
}

// SaveStackPointer guarda el stack pointer del proceso al entrar a una syscall. Un fallo de página en modo
// kernel usa este valor para decidir si es un crecimiento del stack.
func (vm *VirtualMemory) SaveStackPointer(pid models.Pid, esp models.VirtualAddress) error {
	process, err := vm.lockProcess(pid)
	if err != nil {
		return err
	}
	defer process.faultMu.Unlock()

	process.savedEsp = esp
	return nil
}
