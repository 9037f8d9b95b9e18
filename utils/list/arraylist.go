package list

import (
	"fmt"
	"sync"
)

// List define las operaciones de una lista ordenada por orden de inserción y segura para uso concurrente.
type List[T any] interface {
	Add(item T)                                 // Añadir un elemento al final de la lista
	Find(predicate func(T) bool) (T, int, bool) // Permite buscar un elemento de la lista dado un predicado.
	ForEach(callback func(T) bool)              // Recorre la lista en orden hasta que el callback devuelva false
	Get(index int) (T, error)                   // Obtener un elemento a partir de un índice dado
	GetAll() []T                                // Retorna una copia de los elementos de la lista
	RemoveWhere(match func(T) bool) bool        // Elimina el primer elemento que cumple el predicado
	Size() int                                  // Retornar el tamaño de la lista
}

// ArrayList implements List
type ArrayList[T any] struct {
	mu    sync.RWMutex
	items []T
}

// NewArrayList crea y devuelve una nueva instancia de ArrayList.
func NewArrayList[T any]() *ArrayList[T] {
	return &ArrayList[T]{
		items: make([]T, 0), // Inicializa el slice interno vacío
	}
}

// Add inserta un elemento al final de la lista.
//
// Ejemplo:
//
//	func main() {
//		frames := list.NewArrayList[models.PhysicalAddress]()
//		frames.Add(0x1000)
//		frames.Add(0x2000)
//	}
func (list *ArrayList[T]) Add(item T) {
	list.mu.Lock() // Bloqueo exclusivo para evitar cambios simultáneos
	defer list.mu.Unlock()

	list.items = append(list.items, item)
}

// Find permite buscar un elemento de la lista dado un predicado. Devuelve el elemento, su índice y si fue
// encontrado.
//
// Ejemplo:
//
//	frame, index, found := frames.Find(func(addr models.PhysicalAddress) bool {
//		return addr == 0x2000
//	})
func (list *ArrayList[T]) Find(predicate func(T) bool) (T, int, bool) {
	list.mu.RLock() //Bloqueo de solo lectura: permite otras lecturas concurrentes
	defer list.mu.RUnlock()

	for i, item := range list.items {
		if predicate(item) {
			return item, i, true
		}
	}
	var zero T
	return zero, -1, false
}

// ForEach recorre la lista en orden de inserción aplicando el callback a cada elemento. El recorrido se
// corta cuando el callback devuelve false. El callback no debe modificar la lista.
func (list *ArrayList[T]) ForEach(callback func(T) bool) {
	list.mu.RLock()
	defer list.mu.RUnlock()

	for _, item := range list.items {
		if !callback(item) {
			return
		}
	}
}

// Get devuelve el elemento en el índice proporcionado.
func (list *ArrayList[T]) Get(index int) (T, error) {
	list.mu.RLock()
	defer list.mu.RUnlock()

	// Validar si el índice está dentro del rango
	if index < 0 || index >= len(list.items) {
		var zero T // Crear un valor cero del tipo genérico T
		return zero, fmt.Errorf("index out of range: %d", index)
	}
	return list.items[index], nil
}

// GetAll retorna una copia de todos los elementos que se encuentra en la lista
func (list *ArrayList[T]) GetAll() []T {
	list.mu.RLock()
	defer list.mu.RUnlock()

	// Crear una copia del slice para evitar que modificaciones externas afecten la lista interna
	itemsCopy := make([]T, len(list.items))
	copy(itemsCopy, list.items)
	return itemsCopy
}

// RemoveWhere elimina el primer elemento que cumple el predicado conservando el orden del resto.
// Devuelve true si eliminó algún elemento.
func (list *ArrayList[T]) RemoveWhere(match func(T) bool) bool {
	list.mu.Lock() // Bloqueo exclusivo para evitar cambios simultáneos
	defer list.mu.Unlock()

	for i, item := range list.items {
		if match(item) {
			list.items = append(list.items[:i], list.items[i+1:]...)
			return true
		}
	}
	return false
}

// Size devuelve el tamaño de la lista.
func (list *ArrayList[T]) Size() int {
	list.mu.RLock()
	defer list.mu.RUnlock()

	return len(list.items)
}
