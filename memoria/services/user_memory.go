package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// Cantidad de veces que se intenta tener todo un buffer residente y fijado antes de rendirse.
const maxPinAttempts = 4

// ReadUser lee size bytes del espacio de usuario del proceso a partir de addr. Las páginas que no están en
// memoria se traen con un fallo de página y quedan fijadas mientras se copian.
func (vm *VirtualMemory) ReadUser(pid models.Pid, addr models.VirtualAddress, size int) ([]byte, error) {
	data := make([]byte, size)
	if err := vm.accessUser(pid, addr, data, false); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteUser escribe data en el espacio de usuario del proceso a partir de addr.
func (vm *VirtualMemory) WriteUser(pid models.Pid, addr models.VirtualAddress, data []byte) error {
	return vm.accessUser(pid, addr, data, true)
}

func (vm *VirtualMemory) accessUser(pid models.Pid, addr models.VirtualAddress, buf []byte, write bool) error {
	process, err := vm.lockProcess(pid)
	if err != nil {
		return err
	}
	defer process.faultMu.Unlock()

	if len(buf) == 0 {
		return nil
	}

	end := uint64(addr) + uint64(len(buf))
	if !vm.isUserAddress(addr) || end < uint64(addr) || end > vm.config.UserSpaceTop {
		err := fatalError(process, addr, "puntero de usuario inválido", nil)
		vm.exitLocked(process, -1)
		return err
	}

	if err := vm.pinRange(process, addr, len(buf), write); err != nil {
		return err
	}
	defer vm.frames.Unpin(process.Space, addr, len(buf))

	pageSize := vm.config.PageSize
	for done := 0; done < len(buf); {
		vaddr := addr + models.VirtualAddress(done)
		chunk := min(pageSize-vaddr.PageOffset(pageSize), len(buf)-done)

		paddr, ok := process.Space.Translate(vaddr)
		if !ok {
			panic(models.KernelPanic(fmt.Sprintf("la página %s del proceso %d dejó de estar presente estando fijada", vaddr, pid)))
		}
		frameAddr := paddr - models.PhysicalAddress(vaddr.PageOffset(pageSize))
		content := vm.memory.Page(frameAddr)[vaddr.PageOffset(pageSize):]
		if write {
			copy(content[:chunk], buf[done:done+chunk])
		} else {
			copy(buf[done:done+chunk], content[:chunk])
		}
		process.Space.Touch(vaddr.PageRound(pageSize), frameAddr, write)

		if write {
			slog.Info(fmt.Sprintf("## PID: %d - Escritura - Dir. Física: %s - Tamaño: %d", pid, paddr, chunk))
		} else {
			slog.Info(fmt.Sprintf("## PID: %d - Lectura - Dir. Física: %s - Tamaño: %d", pid, paddr, chunk))
		}
		done += chunk
	}

	if write {
		process.Metrics.Writes.Add(1)
	} else {
		process.Metrics.Reads.Add(1)
	}
	return nil
}

// pinRange trae a memoria todas las páginas del rango y las fija. Si al fijarlas alguna ya fue desalojada
// (traer una página puede desalojar otra del mismo rango) lo vuelve a intentar.
func (vm *VirtualMemory) pinRange(process *Process, addr models.VirtualAddress, length int, write bool) error {
	pageSize := vm.config.PageSize
	pages := models.PageCount(addr, length, pageSize)
	first := addr.PageRound(pageSize)

	for attempt := 0; attempt < maxPinAttempts; attempt++ {
		for i := 0; i < pages; i++ {
			page := first + models.VirtualAddress(i*pageSize)
			entry, ok := process.Space.Lookup(page)
			if ok && entry.Present {
				if write && !entry.Writable {
					err := fatalError(process, page, "escritura en página de solo lectura", nil)
					vm.exitLocked(process, -1)
					return err
				}
				continue
			}

			// el fault usa la primera dirección del buffer dentro de la página para validar el stack
			vaddr := max(page, addr)
			err := vm.faultLocked(process, models.FaultRequest{
				Pid:          process.Pid,
				Address:      vaddr,
				Write:        write,
				User:         false,
				StackPointer: process.savedEsp,
				NotPresent:   true,
			})
			if err != nil {
				return err
			}
		}

		if vm.frames.Pin(process.Space, addr, length) == pages {
			return nil
		}
		vm.frames.Unpin(process.Space, addr, length)
	}
	return fmt.Errorf("no se pudieron fijar %d páginas del proceso %d: %w", pages, process.Pid, models.ErrNoFreeFrame)
}
