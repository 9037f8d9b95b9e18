package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// HandlePageFault resuelve un fallo de página del proceso req.Pid. Termina de dos formas: la página queda
// instalada y devuelve nil, o el proceso se destruye y devuelve un *models.ProcessFatalError.
func (vm *VirtualMemory) HandlePageFault(req models.FaultRequest) error {
	process, err := vm.lockProcess(req.Pid)
	if err != nil {
		return err
	}
	defer process.faultMu.Unlock()

	return vm.faultLocked(process, req)
}

// faultLocked requiere el lock de fallos del proceso tomado. Si el fallo es fatal destruye el proceso.
func (vm *VirtualMemory) faultLocked(process *Process, req models.FaultRequest) error {
	err := vm.resolveFault(process, req)

	var fatal *models.ProcessFatalError
	if errors.As(err, &fatal) {
		slog.Info(fmt.Sprintf("## PID: %d - Fallo de página fatal - Dirección: %s - %s", process.Pid, req.Address, fatal.Reason))
		vm.exitLocked(process, -1)
	}
	return err
}

func (vm *VirtualMemory) resolveFault(process *Process, req models.FaultRequest) error {
	process.Metrics.PageFaults.Add(1)
	pageSize := vm.config.PageSize
	page := req.Address.PageRound(pageSize)

	if !vm.isUserAddress(req.Address) {
		return fatalError(process, req.Address, "dirección fuera del espacio de usuario", nil)
	}

	entry, known := process.Space.Lookup(page)
	if known && entry.Present {
		if req.Write && !entry.Writable {
			return fatalError(process, req.Address, "escritura en página de solo lectura", nil)
		}
		if !req.NotPresent {
			return fatalError(process, req.Address, "violación de protección", nil)
		}
		// otro camino ya trajo la página
		return nil
	}

	backing := entry.Backing
	if backing == nil {
		esp := req.StackPointer
		if !req.User {
			esp = process.savedEsp
		}
		if !vm.isStackAccess(req.Address, esp) {
			return fatalError(process, req.Address, "acceso a una dirección no mapeada", nil)
		}
		backing = models.NewZeroPage()
		slog.Debug(fmt.Sprintf("PID: %d - Crecimiento de stack - Página: %s", process.Pid, page))
	}

	if req.Write && backing.Origin != nil && !backing.Origin.Writable {
		return fatalError(process, req.Address, "escritura en página de solo lectura", nil)
	}

	slog.Info(fmt.Sprintf("## PID: %d - Fallo de página - Dirección: %s - Origen: %s", process.Pid, req.Address, backing))

	paddr, err := vm.frames.Acquire(process.Pid, page, backing.Location == models.LocationZero, backing.Origin)
	if err != nil {
		return fatalError(process, req.Address, "no se pudo obtener un marco", err)
	}

	writable, dirty, err := vm.materialize(process, page, paddr, backing)
	if err != nil {
		vm.frames.Release(paddr)
		return fatalError(process, req.Address, "no se pudo cargar la página", err)
	}

	process.Space.SetMapping(page, paddr, writable, dirty, true)
	vm.frames.UnpinFrame(paddr)

	slog.Debug(fmt.Sprintf("PID: %d - Página %s instalada en el marco %s", process.Pid, page, paddr))
	return nil
}

// materialize carga el contenido de la página en el marco, que está fijado. Devuelve si la página se puede
// escribir y si queda modificada.
func (vm *VirtualMemory) materialize(process *Process, page models.VirtualAddress, paddr models.PhysicalAddress, backing *models.Page) (bool, bool, error) {
	content := vm.memory.Page(paddr)

	switch backing.Location {
	case models.LocationFile, models.LocationExec:
		origin := backing.Origin
		n, err := origin.File.ReadAt(content[:origin.ReadBytes], origin.Offset)
		if n != origin.ReadBytes {
			if err == nil {
				err = fmt.Errorf("se leyeron %d de %d bytes", n, origin.ReadBytes)
			}
			return false, false, fmt.Errorf("lectura incompleta de %s: %w", origin.File.Name(), err)
		}
		clear(content[origin.ReadBytes:])
		process.Metrics.FileReads.Add(1)
		return origin.Writable, false, nil

	case models.LocationSwap:
		if err := vm.swap.Read(content, backing.Slot); err != nil {
			return false, false, err
		}
		vm.swap.Release(backing.Slot)
		process.Metrics.SwapsIn.Add(1)
		slog.Info(fmt.Sprintf("## PID: %d - Swap In - Página: %s - Slot: %d", process.Pid, page, backing.Slot.Index))
		return true, true, nil

	case models.LocationZero:
		return true, false, nil
	}
	panic(models.KernelPanic(fmt.Sprintf("descriptor de página inválido: %d", int(backing.Location))))
}

// isStackAccess indica si un acceso a vaddr con el stack pointer esp es un crecimiento válido del stack:
// cae dentro de la región máxima del stack y no está más abajo que esp menos el margen permitido.
func (vm *VirtualMemory) isStackAccess(vaddr models.VirtualAddress, esp models.VirtualAddress) bool {
	if vaddr < vm.config.StackBottom() || uint64(vaddr) >= vm.config.UserSpaceTop {
		return false
	}
	return uint64(vaddr)+uint64(vm.config.StackSlack) >= uint64(esp)
}

func fatalError(process *Process, vaddr models.VirtualAddress, reason string, err error) error {
	return &models.ProcessFatalError{Pid: process.Pid, Address: vaddr, Reason: reason, Err: err}
}
