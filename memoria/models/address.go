package models

import "fmt"

// Pid identifica al proceso dueño de un espacio de direcciones.
type Pid uint

// VirtualAddress es una dirección del espacio de direcciones de un proceso.
type VirtualAddress uint64

// PhysicalAddress es un desplazamiento dentro de la memoria de usuario.
type PhysicalAddress uint64

// PageRound alinea la dirección hacia abajo al tamaño de página.
func (a VirtualAddress) PageRound(pageSize int) VirtualAddress {
	return a &^ VirtualAddress(pageSize-1)
}

// PageOffset devuelve el desplazamiento de la dirección dentro de su página.
func (a VirtualAddress) PageOffset(pageSize int) int {
	return int(a & VirtualAddress(pageSize-1))
}

// IsPageAligned indica si la dirección es el comienzo de una página.
func (a VirtualAddress) IsPageAligned(pageSize int) bool {
	return a.PageOffset(pageSize) == 0
}

func (a VirtualAddress) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

func (a PhysicalAddress) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

// PageCount devuelve la cantidad de páginas que toca el rango [addr, addr+length).
func PageCount(addr VirtualAddress, length int, pageSize int) int {
	if length <= 0 {
		return 0
	}
	first := addr.PageRound(pageSize)
	last := (addr + VirtualAddress(length-1)).PageRound(pageSize)
	return int((last-first)/VirtualAddress(pageSize)) + 1
}

// MapID identifica un mapeo de archivo dentro de un proceso.
type MapID int
