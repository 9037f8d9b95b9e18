package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// ExitProcess destruye el proceso: deshace sus mapeos escribiendo las páginas modificadas, libera sus marcos
// y sus slots de swap, cierra sus archivos y lo saca de la tabla de procesos.
func (vm *VirtualMemory) ExitProcess(pid models.Pid, status int) error {
	process, err := vm.lockProcess(pid)
	if err != nil {
		slog.Error(fmt.Sprintf("proceso PID %d no existe para ser eliminado", pid))
		return err
	}
	defer process.faultMu.Unlock()

	vm.exitLocked(process, status)
	return nil
}

// exitLocked requiere el lock de fallos del proceso tomado.
func (vm *VirtualMemory) exitLocked(process *Process, status int) {
	if process.exited {
		return
	}

	for _, mapping := range process.mappings.Load().list() {
		vm.unmapLocked(process, &mapping)
	}

	released := vm.frames.ReleaseOwner(process.Pid)

	slots := 0
	for _, entry := range process.Space.Clear() {
		if !entry.Present && entry.Backing != nil && entry.Backing.Location == models.LocationSwap {
			vm.swap.Release(entry.Backing.Slot)
			slots++
		}
	}

	for _, file := range process.files {
		if err := file.Close(); err != nil {
			slog.Warn(fmt.Sprintf("PID: %d - No se pudo cerrar %s: %v", process.Pid, file.Name(), err))
		}
	}
	process.files = nil

	process.exited = true
	vm.processes.Remove(process.Pid)
	slog.Debug(fmt.Sprintf("PID: %d - Marcos liberados: %d - Slots de swap liberados: %d", process.Pid, released, slots))

	m := process.Metrics.Snapshot()
	slog.Info(fmt.Sprintf("## PID: %d - Proceso Destruido - Estado: %d - Métricas - Fallos: %d; Desalojos: %d; SWAP out: %d; SWAP in: %d; Esc.Arch.: %d; Lec.Mem.: %d; Esc.Mem.: %d",
		process.Pid, status, m.PageFaults, m.Evictions, m.SwapsOut, m.SwapsIn, m.FileWritebacks, m.Reads, m.Writes))
}
