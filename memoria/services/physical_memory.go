package services

import (
	"fmt"
	"sync"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/bitmap"
)

// PhysicalMemory es la memoria de usuario: un arreglo de bytes dividido en marcos del tamaño de página y un
// mapa de bits con los marcos ocupados. Es el asignador de páginas crudas sobre el que trabaja la tabla de marcos.
type PhysicalMemory struct {
	mu       sync.Mutex
	pageSize int
	data     []byte
	used     *bitmap.Bitmap
}

func NewPhysicalMemory(size int, pageSize int) *PhysicalMemory {
	return &PhysicalMemory{
		pageSize: pageSize,
		data:     make([]byte, size),
		used:     bitmap.New(size / pageSize),
	}
}

// Allocate reserva el primer marco libre. Devuelve false si la memoria está llena.
func (m *PhysicalMemory) Allocate() (models.PhysicalAddress, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index, ok := m.used.ScanAndFlip()
	if !ok {
		return 0, false
	}
	return models.PhysicalAddress(index * m.pageSize), true
}

// Free devuelve el marco al asignador. Liberar un marco libre es un error del kernel.
func (m *PhysicalMemory) Free(paddr models.PhysicalAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := m.frameIndex(paddr)
	if !m.used.Test(index) {
		panic(models.KernelPanic(fmt.Sprintf("liberación doble del marco %s", paddr)))
	}
	m.used.Set(index, false)
}

// Page devuelve los bytes del marco. El slice apunta a la memoria de usuario, no es una copia.
func (m *PhysicalMemory) Page(paddr models.PhysicalAddress) []byte {
	start := m.frameIndex(paddr) * m.pageSize
	return m.data[start : start+m.pageSize]
}

func (m *PhysicalMemory) Zero(paddr models.PhysicalAddress) {
	clear(m.Page(paddr))
}

func (m *PhysicalMemory) FreeFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used.Size() - m.used.Count()
}

func (m *PhysicalMemory) FrameCount() int {
	return m.used.Size()
}

func (m *PhysicalMemory) PageSize() int {
	return m.pageSize
}

func (m *PhysicalMemory) frameIndex(paddr models.PhysicalAddress) int {
	if int(paddr)%m.pageSize != 0 || int(paddr) >= len(m.data) {
		panic(models.KernelPanic(fmt.Sprintf("dirección física inválida %s", paddr)))
	}
	return int(paddr) / m.pageSize
}
