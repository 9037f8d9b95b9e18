package services

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/list"
)

// translator es la parte de la tabla de páginas que necesita la tabla de marcos para fijar rangos.
type translator interface {
	Translate(vaddr models.VirtualAddress) (models.PhysicalAddress, bool)
}

// FrameTable registra los marcos en uso. Todas las modificaciones, incluido el desalojo completo, se hacen
// con mu tomado. El orden de inserción de order es el orden en que el desalojo recorre los marcos.
type FrameTable struct {
	mu      sync.Mutex
	memory  *PhysicalMemory
	frames  map[models.PhysicalAddress]*models.Frame
	order   *list.ArrayList[*models.Frame]
	evictor *Evictor
}

func NewFrameTable(memory *PhysicalMemory) *FrameTable {
	return &FrameTable{
		memory: memory,
		frames: make(map[models.PhysicalAddress]*models.Frame),
		order:  list.NewArrayList[*models.Frame](),
	}
}

// Acquire obtiene un marco para la página page del proceso owner. Si la memoria está llena desaloja un
// marco y reutiliza su página física. El marco se devuelve fijado: quien lo pidió debe completar el mapeo
// y después llamar a UnpinFrame.
//
// Parámetros:
//   - owner: pid del proceso dueño de la página
//   - page: dirección virtual (alineada) de la página
//   - zero: si es true el marco se rellena con ceros
//   - origin: origen en archivo del descriptor con el que se va a cargar la página, nil si no tiene
func (ft *FrameTable) Acquire(owner models.Pid, page models.VirtualAddress, zero bool, origin *models.Origin) (models.PhysicalAddress, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	paddr, ok := ft.memory.Allocate()
	if !ok {
		if ft.evictor == nil {
			return 0, models.ErrNoFreeFrame
		}
		victim, err := ft.evictor.evictLocked()
		if err != nil {
			return 0, fmt.Errorf("%w: %w", models.ErrNoFreeFrame, err)
		}
		paddr = victim
	}

	if _, exists := ft.frames[paddr]; exists {
		panic(models.KernelPanic(fmt.Sprintf("el marco %s ya está registrado", paddr)))
	}
	if zero {
		ft.memory.Zero(paddr)
	}

	frame := &models.Frame{Address: paddr, Page: page, Owner: owner, Origin: origin, Pins: 1}
	ft.frames[paddr] = frame
	ft.order.Add(frame)

	slog.Debug(fmt.Sprintf("PID: %d - Marco asignado: %s - Página: %s", owner, paddr, page))
	return paddr, nil
}

// Release elimina el marco y devuelve la página física al asignador. Se usa al destruir páginas, no al desalojar.
func (ft *FrameTable) Release(paddr models.PhysicalAddress) bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	if !ft.removeLocked(paddr) {
		return false
	}
	ft.memory.Free(paddr)
	return true
}

// ReleaseOwner libera todos los marcos del proceso y devuelve cuántos liberó.
func (ft *FrameTable) ReleaseOwner(owner models.Pid) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	var owned []models.PhysicalAddress
	ft.order.ForEach(func(frame *models.Frame) bool {
		if frame.Owner == owner {
			owned = append(owned, frame.Address)
		}
		return true
	})

	for _, paddr := range owned {
		ft.removeLocked(paddr)
		ft.memory.Free(paddr)
	}
	return len(owned)
}

// Find devuelve una copia del marco registrado en paddr.
func (ft *FrameTable) Find(paddr models.PhysicalAddress) (models.Frame, bool) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	frame, ok := ft.frames[paddr]
	if !ok {
		return models.Frame{}, false
	}
	return *frame, true
}

// Pin fija los marcos de todas las páginas presentes del rango [vaddr, vaddr+length) y devuelve cuántas fijó.
func (ft *FrameTable) Pin(space translator, vaddr models.VirtualAddress, length int) int {
	return ft.adjustPins(space, vaddr, length, 1)
}

// Unpin deshace Pin sobre el mismo rango.
func (ft *FrameTable) Unpin(space translator, vaddr models.VirtualAddress, length int) int {
	return ft.adjustPins(space, vaddr, length, -1)
}

func (ft *FrameTable) adjustPins(space translator, vaddr models.VirtualAddress, length int, delta int) int {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	pageSize := ft.memory.PageSize()
	page := vaddr.PageRound(pageSize)
	count := 0
	for i := 0; i < models.PageCount(vaddr, length, pageSize); i++ {
		paddr, ok := space.Translate(page + models.VirtualAddress(i*pageSize))
		if !ok {
			continue
		}
		if ft.adjustFrameLocked(paddr, delta) {
			count++
		}
	}
	return count
}

// PinFrame fija el marco en paddr. Devuelve false si no hay un marco registrado ahí.
func (ft *FrameTable) PinFrame(paddr models.PhysicalAddress) bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.adjustFrameLocked(paddr, 1)
}

func (ft *FrameTable) UnpinFrame(paddr models.PhysicalAddress) bool {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.adjustFrameLocked(paddr, -1)
}

func (ft *FrameTable) adjustFrameLocked(paddr models.PhysicalAddress, delta int) bool {
	frame, ok := ft.frames[paddr]
	if !ok {
		return false
	}
	frame.Pins += delta
	if frame.Pins < 0 {
		slog.Warn(fmt.Sprintf("Marco %s desfijado más veces de las que se fijó", paddr))
		frame.Pins = 0
	}
	return true
}

// Evacuate quita la página page del espacio de direcciones. Si estaba presente, llama a flush con el origen
// y el contenido del marco antes de liberarlo; todo con la tabla de marcos bloqueada, así ningún desalojo
// puede tomar el marco en el medio. Devuelve la entrada que tenía la página.
func (ft *FrameTable) Evacuate(space *AddressSpace, page models.VirtualAddress, flush func(entry PageEntry, origin *models.Origin, content []byte) error) (PageEntry, bool, error) {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	entry, ok := space.Lookup(page)
	if !ok {
		return PageEntry{}, false, nil
	}

	var err error
	if entry.Present {
		var origin *models.Origin
		if frame, ok := ft.frames[entry.Frame]; ok {
			origin = frame.Origin
		}
		if flush != nil {
			err = flush(entry, origin, ft.memory.Page(entry.Frame))
		}
		if ft.removeLocked(entry.Frame) {
			ft.memory.Free(entry.Frame)
		}
	}
	space.Remove(page)
	return entry, true, err
}

// Snapshot devuelve una copia de los marcos en el orden en que los recorre el desalojo.
func (ft *FrameTable) Snapshot() []models.Frame {
	ft.mu.Lock()
	defer ft.mu.Unlock()

	result := make([]models.Frame, 0, ft.order.Size())
	ft.order.ForEach(func(frame *models.Frame) bool {
		result = append(result, *frame)
		return true
	})
	return result
}

func (ft *FrameTable) Count() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.frames)
}

// removeLocked borra el registro del marco sin devolver la página al asignador.
func (ft *FrameTable) removeLocked(paddr models.PhysicalAddress) bool {
	if _, ok := ft.frames[paddr]; !ok {
		return false
	}
	delete(ft.frames, paddr)
	ft.order.RemoveWhere(func(frame *models.Frame) bool {
		return frame.Address == paddr
	})
	return true
}
