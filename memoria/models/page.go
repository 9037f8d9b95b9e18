package models

import (
	"fmt"
	"io"
)

// Location indica dónde vive el contenido de una página que no está en memoria.
type Location int

const (
	LocationFile Location = iota // archivo mapeado con mmap, se escribe de vuelta al archivo
	LocationExec                 // segmento de un ejecutable, nunca se escribe al archivo
	LocationSwap                 // slot del dispositivo de swap
	LocationZero                 // página que se rellena con ceros
)

func (l Location) String() string {
	switch l {
	case LocationFile:
		return "FILE"
	case LocationExec:
		return "EXEC"
	case LocationSwap:
		return "SWAP"
	case LocationZero:
		return "ZERO"
	default:
		return fmt.Sprintf("Location(%d)", int(l))
	}
}

// BackingFile es el archivo del que se leen (y al que se escriben) las páginas respaldadas por archivo.
type BackingFile interface {
	io.ReaderAt
	io.WriterAt
	Name() string
}

// Origin describe una región respaldada por archivo. Se comparte entre todas las páginas creadas por el
// mismo mmap o segmento y no se modifica nunca después de creada.
type Origin struct {
	File      BackingFile
	Offset    int64
	ReadBytes int // bytes a leer del archivo, el resto de la página se rellena con ceros
	Writable  bool
	Location  Location // LocationFile o LocationExec
}

// SwapSlot es la reserva de una página del dispositivo de swap.
type SwapSlot struct {
	Index  int
	Sector uint32 // primer sector del slot
}

// Page es el descriptor de una página que no está en memoria principal: dice de dónde se trae su
// contenido en el próximo fallo de página. Solo se construye con NewZeroPage, NewOriginPage o NewSwapPage.
type Page struct {
	Location Location
	Origin   *Origin
	Slot     *SwapSlot
}

// NewZeroPage crea el descriptor de una página anónima sin contenido previo.
func NewZeroPage() *Page {
	return &Page{Location: LocationZero}
}

// NewOriginPage crea un descriptor que vuelve a describir el origen en archivo de una página.
func NewOriginPage(origin *Origin) *Page {
	if origin == nil {
		panic(KernelPanic("NewOriginPage: origen nulo"))
	}
	if origin.Location != LocationFile && origin.Location != LocationExec {
		panic(KernelPanic(fmt.Sprintf("NewOriginPage: ubicación %s inválida para un origen", origin.Location)))
	}
	return &Page{Location: origin.Location, Origin: origin}
}

// NewSwapPage crea el descriptor de una página cuyo contenido quedó en un slot de swap.
func NewSwapPage(slot *SwapSlot) *Page {
	if slot == nil {
		panic(KernelPanic("NewSwapPage: slot nulo"))
	}
	return &Page{Location: LocationSwap, Slot: slot}
}

// Validate verifica que exactamente uno de Origin o Slot esté presente según la ubicación.
func (p *Page) Validate() error {
	switch p.Location {
	case LocationFile, LocationExec:
		if p.Origin == nil || p.Slot != nil {
			return fmt.Errorf("descriptor %s debe tener solo origen", p.Location)
		}
		if p.Origin.Location != p.Location {
			return fmt.Errorf("descriptor %s con origen %s", p.Location, p.Origin.Location)
		}
	case LocationSwap:
		if p.Slot == nil || p.Origin != nil {
			return fmt.Errorf("descriptor SWAP debe tener solo slot")
		}
	case LocationZero:
		if p.Origin != nil || p.Slot != nil {
			return fmt.Errorf("descriptor ZERO no puede tener origen ni slot")
		}
	default:
		return fmt.Errorf("ubicación desconocida %d", int(p.Location))
	}
	return nil
}

func (p *Page) String() string {
	switch p.Location {
	case LocationFile, LocationExec:
		return fmt.Sprintf("%s(%s@%d+%d)", p.Location, p.Origin.File.Name(), p.Origin.Offset, p.Origin.ReadBytes)
	case LocationSwap:
		return fmt.Sprintf("SWAP(slot %d)", p.Slot.Index)
	default:
		return p.Location.String()
	}
}
