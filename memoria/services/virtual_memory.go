package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// VirtualMemory reúne todo el estado del administrador de memoria virtual: la memoria física, la tabla de
// marcos, el swap, el motor de desalojo y la tabla de procesos. Los handlers y los tests trabajan sobre
// una instancia, no hay estado global.
//
// Orden de locks: fallos del proceso -> tabla de marcos -> espacio de direcciones -> sistema de archivos.
type VirtualMemory struct {
	config    *models.Config
	memory    *PhysicalMemory
	fs        *FileSystem
	swap      *SwapStore
	frames    *FrameTable
	evictor   *Evictor
	processes *ProcessTable
}

// NewVirtualMemory arma el administrador con la configuración dada y el dispositivo de swap.
//
// Ejemplo:
//
//	func main() {
//		device, _ := services.NewFileBlockDevice(cfg.SwapFilePath, cfg.SectorSize, uint32(cfg.SwapSize/cfg.SectorSize))
//		vm := services.NewVirtualMemory(cfg, device)
//		vm.CreateProcess(1)
//	}
func NewVirtualMemory(config *models.Config, device BlockDevice) *VirtualMemory {
	memory := NewPhysicalMemory(config.MemorySize, config.PageSize)
	fs := NewFileSystem()
	swap := NewSwapStore(fs, device, config.PageSize, config.SwapDelay)
	frames := NewFrameTable(memory)
	processes := NewProcessTable()

	vm := &VirtualMemory{
		config:    config,
		memory:    memory,
		fs:        fs,
		swap:      swap,
		frames:    frames,
		evictor:   NewEvictor(frames, swap, processes),
		processes: processes,
	}

	slog.Debug(fmt.Sprintf("Memoria virtual inicializada - Marcos: %d - Slots de swap: %d", memory.FrameCount(), swap.SlotCount()))
	return vm
}

func (vm *VirtualMemory) Config() *models.Config {
	return vm.config
}

func (vm *VirtualMemory) FileSystem() *FileSystem {
	return vm.fs
}

func (vm *VirtualMemory) Frames() *FrameTable {
	return vm.frames
}

func (vm *VirtualMemory) Swap() *SwapStore {
	return vm.swap
}

func (vm *VirtualMemory) Evictor() *Evictor {
	return vm.evictor
}

func (vm *VirtualMemory) Memory() *PhysicalMemory {
	return vm.memory
}

// Process devuelve el proceso registrado con pid.
func (vm *VirtualMemory) Process(pid models.Pid) (*Process, bool) {
	return vm.processes.Get(pid)
}

// lockProcess toma el lock de fallos del proceso. Si el proceso no existe o terminó mientras se esperaba
// el lock devuelve models.ErrNoSuchProcess.
func (vm *VirtualMemory) lockProcess(pid models.Pid) (*Process, error) {
	process, ok := vm.processes.Get(pid)
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, models.ErrNoSuchProcess)
	}
	process.faultMu.Lock()
	if process.exited {
		process.faultMu.Unlock()
		return nil, fmt.Errorf("pid %d: %w", pid, models.ErrNoSuchProcess)
	}
	return process, nil
}

// isUserAddress indica si vaddr es una dirección válida de usuario: no está en la página cero ni por encima
// del tope del espacio de usuario.
func (vm *VirtualMemory) isUserAddress(vaddr models.VirtualAddress) bool {
	return uint64(vaddr) >= uint64(vm.config.PageSize) && uint64(vaddr) < vm.config.UserSpaceTop
}
