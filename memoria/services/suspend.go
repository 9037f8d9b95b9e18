package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// SuspendProcess saca de memoria principal todas las páginas del proceso. Las modificadas van a swap (o a su
// archivo si son de un mmap) y las limpias se descartan; al reanudarse, el proceso las vuelve a traer con
// fallos de página.
func (vm *VirtualMemory) SuspendProcess(pid models.Pid) (int, error) {
	process, err := vm.lockProcess(pid)
	if err != nil {
		return 0, err
	}
	defer process.faultMu.Unlock()

	slog.Debug(fmt.Sprintf("Marcos libres antes de suspender al PID %d: %d", pid, vm.memory.FreeFrames()))
	evicted := vm.evictor.EvictOwner(pid)

	slog.Info(fmt.Sprintf("## PID: %d - Proceso suspendido - Marcos liberados: %d", pid, evicted))
	slog.Debug(fmt.Sprintf("Marcos libres después de suspender al PID %d: %d", pid, vm.memory.FreeFrames()))
	return evicted, nil
}
