package services

import (
	"slices"
	"sync"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// Clases de un marco según sus bits (accedido, modificado).
const (
	ClassUnmapped      = -1
	ClassClean         = 1 // (0,0)
	ClassAccessed      = 2 // (1,0)
	ClassDirty         = 3 // (0,1)
	ClassAccessedDirty = 4 // (1,1)
)

// PageEntry es una entrada de la tabla de páginas. Si Present es true la página está en el marco Frame;
// si no, Page describe de dónde se trae en el próximo fallo.
type PageEntry struct {
	Page     models.VirtualAddress  `json:"page"`
	Present  bool                   `json:"present"`
	Frame    models.PhysicalAddress `json:"frame"`
	Writable bool                   `json:"writable"`
	Dirty    bool                   `json:"dirty"`
	Accessed bool                   `json:"accessed"`
	Backing  *models.Page           `json:"-"`
}

// AddressSpace es la tabla de páginas de un proceso. Cada operación es atómica bajo el lock del espacio.
type AddressSpace struct {
	mu       sync.Mutex
	pid      models.Pid
	pageSize int
	entries  map[models.VirtualAddress]*PageEntry
}

func NewAddressSpace(pid models.Pid, pageSize int) *AddressSpace {
	return &AddressSpace{
		pid:      pid,
		pageSize: pageSize,
		entries:  make(map[models.VirtualAddress]*PageEntry),
	}
}

func (s *AddressSpace) Pid() models.Pid {
	return s.pid
}

// Translate devuelve la dirección física del marco que contiene vaddr, si la página está presente.
// El desplazamiento dentro de la página se conserva.
func (s *AddressSpace) Translate(vaddr models.VirtualAddress) (models.PhysicalAddress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[vaddr.PageRound(s.pageSize)]
	if !ok || !entry.Present {
		return 0, false
	}
	return entry.Frame + models.PhysicalAddress(vaddr.PageOffset(s.pageSize)), true
}

// Lookup devuelve una copia de la entrada de la página que contiene vaddr.
func (s *AddressSpace) Lookup(vaddr models.VirtualAddress) (PageEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[vaddr.PageRound(s.pageSize)]
	if !ok {
		return PageEntry{}, false
	}
	return *entry, true
}

// SetMapping mapea la página a un marco y descarta el descriptor que tuviera.
func (s *AddressSpace) SetMapping(page models.VirtualAddress, paddr models.PhysicalAddress, writable bool, dirty bool, accessed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[page] = &PageEntry{
		Page:     page,
		Present:  true,
		Frame:    paddr,
		Writable: writable,
		Dirty:    dirty,
		Accessed: accessed,
	}
}

// InstallPage deja la página no presente, descripta por backing.
func (s *AddressSpace) InstallPage(page models.VirtualAddress, backing *models.Page) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[page] = &PageEntry{Page: page, Backing: backing}
}

// ReplaceMapping reemplaza el mapeo page -> paddr por el descriptor, solo si la página sigue mapeada a ese
// marco. Devuelve false si el mapeo cambió.
func (s *AddressSpace) ReplaceMapping(page models.VirtualAddress, paddr models.PhysicalAddress, backing *models.Page) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[page]
	if !ok || !entry.Present || entry.Frame != paddr {
		return false
	}
	s.entries[page] = &PageEntry{Page: page, Backing: backing}
	return true
}

// Remove borra la entrada y la devuelve.
func (s *AddressSpace) Remove(page models.VirtualAddress) (PageEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[page]
	if !ok {
		return PageEntry{}, false
	}
	delete(s.entries, page)
	return *entry, true
}

// Clear borra todas las entradas y devuelve las que había.
func (s *AddressSpace) Clear() []PageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.snapshotLocked()
	clear(s.entries)
	return removed
}

// Class devuelve la clase de la página si está mapeada a paddr, o ClassUnmapped.
func (s *AddressSpace) Class(page models.VirtualAddress, paddr models.PhysicalAddress) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[page]
	if !ok || !entry.Present || entry.Frame != paddr {
		return ClassUnmapped
	}
	switch {
	case !entry.Accessed && !entry.Dirty:
		return ClassClean
	case entry.Accessed && !entry.Dirty:
		return ClassAccessed
	case !entry.Accessed && entry.Dirty:
		return ClassDirty
	default:
		return ClassAccessedDirty
	}
}

func (s *AddressSpace) IsDirty(page models.VirtualAddress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[page]
	return ok && entry.Present && entry.Dirty
}

func (s *AddressSpace) SetDirty(page models.VirtualAddress, dirty bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[page]; ok && entry.Present {
		entry.Dirty = dirty
	}
}

func (s *AddressSpace) IsAccessed(page models.VirtualAddress) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[page]
	return ok && entry.Present && entry.Accessed
}

func (s *AddressSpace) SetAccessed(page models.VirtualAddress, accessed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[page]; ok && entry.Present {
		entry.Accessed = accessed
	}
}

// Touch marca la página como accedida y, si write es true, como modificada. Lo usa la MMU en cada acceso.
func (s *AddressSpace) Touch(page models.VirtualAddress, paddr models.PhysicalAddress, write bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[page]
	if !ok || !entry.Present || entry.Frame != paddr {
		return false
	}
	entry.Accessed = true
	if write {
		entry.Dirty = true
	}
	return true
}

// Entries devuelve una copia de todas las entradas ordenadas por dirección.
func (s *AddressSpace) Entries() []PageEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *AddressSpace) snapshotLocked() []PageEntry {
	result := make([]PageEntry, 0, len(s.entries))
	for _, entry := range s.entries {
		result = append(result, *entry)
	}
	slices.SortFunc(result, func(a, b PageEntry) int {
		switch {
		case a.Page < b.Page:
			return -1
		case a.Page > b.Page:
			return 1
		default:
			return 0
		}
	})
	return result
}
