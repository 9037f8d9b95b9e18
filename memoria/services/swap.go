package services

import (
	"fmt"
	"log/slog"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/helpers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/bitmap"
)

// SwapStore administra los slots del dispositivo de swap. Cada slot guarda exactamente una página, en
// sectores consecutivos. El mapa de slots libres y la E/S comparten el lock del FileSystem.
type SwapStore struct {
	fs             *FileSystem
	device         BlockDevice
	slots          *bitmap.Bitmap
	pageSize       int
	sectorsPerPage int
	delayMs        int
}

// NewSwapStore crea el almacén de swap sobre device. La cantidad de slots es la cantidad de sectores del
// dispositivo dividida por los sectores que ocupa una página.
func NewSwapStore(fs *FileSystem, device BlockDevice, pageSize int, delayMs int) *SwapStore {
	sectorsPerPage := pageSize / device.SectorSize()
	slotCount := int(device.SectorCount()) / sectorsPerPage
	slog.Debug(fmt.Sprintf("Swap: %d slots de %d sectores", slotCount, sectorsPerPage))

	return &SwapStore{
		fs:             fs,
		device:         device,
		slots:          bitmap.New(slotCount),
		pageSize:       pageSize,
		sectorsPerPage: sectorsPerPage,
		delayMs:        delayMs,
	}
}

// Reserve reserva el primer slot libre. Si el swap está lleno devuelve models.ErrSwapFull.
func (s *SwapStore) Reserve() (*models.SwapSlot, error) {
	s.fs.mu.Lock()
	defer s.fs.mu.Unlock()

	index, ok := s.slots.ScanAndFlip()
	if !ok {
		return nil, models.ErrSwapFull
	}
	return &models.SwapSlot{Index: index, Sector: uint32(index * s.sectorsPerPage)}, nil
}

// Write escribe una página completa en el slot.
func (s *SwapStore) Write(slot *models.SwapSlot, content []byte) error {
	if len(content) != s.pageSize {
		return fmt.Errorf("se esperaba una página de %d bytes, se recibieron %d", s.pageSize, len(content))
	}
	helpers.ApplyDelay("swap", s.delayMs)

	s.fs.mu.Lock()
	defer s.fs.mu.Unlock()

	s.checkReserved(slot)
	sectorSize := s.device.SectorSize()
	for i := 0; i < s.sectorsPerPage; i++ {
		chunk := content[i*sectorSize : (i+1)*sectorSize]
		if err := s.device.WriteSector(slot.Sector+uint32(i), chunk); err != nil {
			return fmt.Errorf("error escribiendo el slot %d en swap: %w", slot.Index, err)
		}
	}
	return nil
}

// Read lee la página guardada en el slot en buf. No libera el slot.
func (s *SwapStore) Read(buf []byte, slot *models.SwapSlot) error {
	if len(buf) != s.pageSize {
		return fmt.Errorf("se esperaba un buffer de %d bytes, se recibieron %d", s.pageSize, len(buf))
	}
	helpers.ApplyDelay("swap", s.delayMs)

	s.fs.mu.Lock()
	defer s.fs.mu.Unlock()

	s.checkReserved(slot)
	sectorSize := s.device.SectorSize()
	for i := 0; i < s.sectorsPerPage; i++ {
		chunk := buf[i*sectorSize : (i+1)*sectorSize]
		if err := s.device.ReadSector(slot.Sector+uint32(i), chunk); err != nil {
			return fmt.Errorf("error leyendo el slot %d de swap: %w", slot.Index, err)
		}
	}
	return nil
}

// Release libera el slot. Liberar un slot que no está reservado es un error del kernel.
func (s *SwapStore) Release(slot *models.SwapSlot) {
	s.fs.mu.Lock()
	defer s.fs.mu.Unlock()

	s.checkReserved(slot)
	s.slots.Set(slot.Index, false)
}

// InUse devuelve la cantidad de slots reservados.
func (s *SwapStore) InUse() int {
	s.fs.mu.Lock()
	defer s.fs.mu.Unlock()
	return s.slots.Count()
}

func (s *SwapStore) SlotCount() int {
	return s.slots.Size()
}

// checkReserved debe llamarse con el lock del FileSystem tomado.
func (s *SwapStore) checkReserved(slot *models.SwapSlot) {
	if slot == nil || slot.Index < 0 || slot.Index >= s.slots.Size() || !s.slots.Test(slot.Index) {
		panic(models.KernelPanic(fmt.Sprintf("slot de swap no reservado: %+v", slot)))
	}
}
