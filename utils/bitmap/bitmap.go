package bitmap

import (
	"fmt"
	"math/bits"
)

// Bitmap es un mapa de bits de tamaño fijo. Un bit en 1 indica que la posición está ocupada.
// No es seguro para uso concurrente: quien lo contiene debe sincronizar el acceso.
type Bitmap struct {
	size  int
	words []uint64
}

// New crea un Bitmap de size bits, todos en 0 (libres).
//
// Ejemplo:
//
//	func main() {
//		slots := bitmap.New(1024)
//		index, ok := slots.ScanAndFlip()
//	}
func New(size int) *Bitmap {
	if size < 0 {
		size = 0
	}
	return &Bitmap{
		size:  size,
		words: make([]uint64, (size+63)/64),
	}
}

// Size devuelve la cantidad de bits del mapa.
func (b *Bitmap) Size() int {
	return b.size
}

// Test indica si el bit index está en 1.
func (b *Bitmap) Test(index int) bool {
	b.checkIndex(index)
	return b.words[index/64]&(1<<(index%64)) != 0
}

// Set pone el bit index en value.
func (b *Bitmap) Set(index int, value bool) {
	b.checkIndex(index)
	mask := uint64(1) << (index % 64)
	if value {
		b.words[index/64] |= mask
	} else {
		b.words[index/64] &^= mask
	}
}

// ScanAndFlip busca el primer bit en 0 (first-fit), lo pone en 1 y devuelve su índice.
// Si no queda ningún bit libre devuelve false.
func (b *Bitmap) ScanAndFlip() (int, bool) {
	for i, word := range b.words {
		free := ^word
		if free == 0 {
			continue
		}
		index := i*64 + bits.TrailingZeros64(free)
		if index >= b.size {
			return 0, false
		}
		b.words[i] = word | 1<<(index%64)
		return index, true
	}
	return 0, false
}

// Count devuelve la cantidad de bits en 1.
func (b *Bitmap) Count() int {
	count := 0
	for _, word := range b.words {
		count += bits.OnesCount64(word)
	}
	return count
}

func (b *Bitmap) checkIndex(index int) {
	if index < 0 || index >= b.size {
		panic(fmt.Sprintf("bitmap: índice %d fuera de rango [0, %d)", index, b.size))
	}
}
