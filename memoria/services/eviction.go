package services

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// Evictor elige y libera marcos cuando la memoria física se llena. Usa una aproximación de segunda oportunidad
// sobre los bits (accedido, modificado) de cada marco:
//   - pasada A: el primer marco de clase 1 (0,0)
//   - pasada B: el primer marco de clase 3 (0,1), limpiando el bit de accedido de los de clase 2 y 4
//
// Se hacen hasta dos rondas de A y B. Los marcos fijados no se consideran.
type Evictor struct {
	frames    *FrameTable
	swap      *SwapStore
	processes *ProcessTable
}

// NewEvictor crea el motor de desalojo y lo registra en la tabla de marcos.
func NewEvictor(frames *FrameTable, swap *SwapStore, processes *ProcessTable) *Evictor {
	evictor := &Evictor{frames: frames, swap: swap, processes: processes}
	frames.evictor = evictor
	return evictor
}

// Evict desaloja un marco y devuelve su página física al asignador. Devuelve la dirección del marco liberado.
func (e *Evictor) Evict() (models.PhysicalAddress, error) {
	e.frames.mu.Lock()
	defer e.frames.mu.Unlock()

	paddr, err := e.evictLocked()
	if err != nil {
		return 0, err
	}
	e.frames.memory.Free(paddr)
	return paddr, nil
}

// evictLocked desaloja un marco y devuelve su página física sin liberarla. Requiere frames.mu tomado.
func (e *Evictor) evictLocked() (models.PhysicalAddress, error) {
	for round := 0; round < 2; round++ {
		if victim := e.findVictim(false); victim != nil {
			return e.evictFrame(victim), nil
		}
		if victim := e.findVictim(true); victim != nil {
			return e.evictFrame(victim), nil
		}
	}
	slog.Warn("No se encontró ningún marco para desalojar")
	return 0, models.ErrNoVictim
}

// findVictim hace una pasada sobre los marcos. Con demote en false busca la clase 1; con demote en true
// busca la clase 3 y baja de clase a los marcos accedidos. Un marco cuyo dueño ya no existe se elige siempre.
func (e *Evictor) findVictim(demote bool) *models.Frame {
	var victim *models.Frame
	e.frames.order.ForEach(func(frame *models.Frame) bool {
		if frame.Pinned() {
			return true
		}
		process, ok := e.processes.Get(frame.Owner)
		if !ok {
			victim = frame
			return false
		}

		class := process.Space.Class(frame.Page, frame.Address)
		switch {
		case class == ClassUnmapped:
			return true
		case !demote && class == ClassClean:
			victim = frame
			return false
		case demote && class == ClassDirty:
			victim = frame
			return false
		case demote && (class == ClassAccessed || class == ClassAccessedDirty):
			process.Space.SetAccessed(frame.Page, false)
		}
		return true
	})
	return victim
}

// evictFrame guarda el contenido del marco donde corresponda, reemplaza el mapeo por el descriptor nuevo y
// borra el registro del marco.
func (e *Evictor) evictFrame(frame *models.Frame) models.PhysicalAddress {
	paddr := frame.Address
	process, ok := e.processes.Get(frame.Owner)
	if !ok {
		e.frames.removeLocked(paddr)
		slog.Debug(fmt.Sprintf("Marco %s recuperado: el proceso %d ya no existe", paddr, frame.Owner))
		return paddr
	}

	space := process.Space
	metrics := process.Metrics
	content := e.frames.memory.Page(paddr)
	dirty := space.IsDirty(frame.Page)

	var backing *models.Page
	switch {
	case dirty && frame.Origin != nil && frame.Origin.Location == models.LocationFile:
		if err := writeBack(frame.Origin, content); err != nil {
			slog.Error(fmt.Sprintf("PID: %d - No se pudo escribir la página %s en %s: %v", frame.Owner, frame.Page, frame.Origin.File.Name(), err))
			backing = e.swapOut(frame, metrics, content)
			break
		}
		metrics.FileWritebacks.Add(1)
		backing = models.NewOriginPage(frame.Origin)
	case dirty:
		backing = e.swapOut(frame, metrics, content)
	case frame.Origin != nil:
		metrics.Discards.Add(1)
		backing = models.NewOriginPage(frame.Origin)
		slog.Debug(fmt.Sprintf("PID: %d - Página %s descartada, se vuelve a leer de %s", frame.Owner, frame.Page, frame.Origin.File.Name()))
	default:
		metrics.Discards.Add(1)
		backing = models.NewZeroPage()
		slog.Debug(fmt.Sprintf("PID: %d - Página %s descartada", frame.Owner, frame.Page))
	}

	if !space.ReplaceMapping(frame.Page, paddr, backing) {
		panic(models.KernelPanic(fmt.Sprintf("la página %s del proceso %d no está mapeada al marco %s", frame.Page, frame.Owner, paddr)))
	}
	e.frames.removeLocked(paddr)
	metrics.Evictions.Add(1)

	slog.Info(fmt.Sprintf("## PID: %d - Desalojo - Página: %s - Marco: %s - Destino: %s", frame.Owner, frame.Page, paddr, backing))
	return paddr
}

// swapOut guarda la página en un slot nuevo. Quedarse sin swap detiene el sistema: la memoria anónima no tiene
// otro lugar donde guardarse.
func (e *Evictor) swapOut(frame *models.Frame, metrics *models.Metrics, content []byte) *models.Page {
	slot, err := e.swap.Reserve()
	if err != nil {
		panic(models.KernelPanic(fmt.Sprintf("swap lleno al desalojar la página %s del proceso %d", frame.Page, frame.Owner)))
	}
	if err := e.swap.Write(slot, content); err != nil {
		e.swap.Release(slot)
		panic(models.KernelPanic(fmt.Sprintf("error de E/S en swap: %v", err)))
	}

	metrics.SwapsOut.Add(1)
	slog.Info(fmt.Sprintf("## PID: %d - Swap Out - Página: %s - Slot: %d", frame.Owner, frame.Page, slot.Index))
	return models.NewSwapPage(slot)
}

// writeBack escribe los bytes de la página que vienen del archivo en su offset original.
func writeBack(origin *models.Origin, content []byte) error {
	n, err := origin.File.WriteAt(content[:origin.ReadBytes], origin.Offset)
	if err != nil {
		return err
	}
	if n != origin.ReadBytes {
		return io.ErrShortWrite
	}
	return nil
}

// EvictOwner desaloja todos los marcos no fijados del proceso, con la misma política de escritura que el
// desalojo normal, y devuelve sus páginas físicas al asignador. Devuelve cuántos marcos desalojó.
func (e *Evictor) EvictOwner(owner models.Pid) int {
	e.frames.mu.Lock()
	defer e.frames.mu.Unlock()

	var victims []*models.Frame
	e.frames.order.ForEach(func(frame *models.Frame) bool {
		if frame.Owner == owner && !frame.Pinned() {
			victims = append(victims, frame)
		}
		return true
	})

	for _, frame := range victims {
		paddr := e.evictFrame(frame)
		e.frames.memory.Free(paddr)
	}
	return len(victims)
}
