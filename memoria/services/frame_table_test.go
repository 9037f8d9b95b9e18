package services

import (
	"errors"
	"testing"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

func TestFrameTable_AcquireReturnsPinnedUniqueFrames(t *testing.T) {
	frames := NewFrameTable(NewPhysicalMemory(4*testPageSize, testPageSize))

	seen := make(map[models.PhysicalAddress]bool)
	for i := 0; i < 4; i++ {
		paddr, err := frames.Acquire(1, models.VirtualAddress(i*testPageSize), true, nil)
		if err != nil {
			t.Fatalf("Expected frame %d, got %v", i, err)
		}
		if seen[paddr] {
			t.Errorf("Expected unique physical addresses, got %s twice", paddr)
		}
		seen[paddr] = true

		frame, ok := frames.Find(paddr)
		if !ok || !frame.Pinned() || frame.Owner != 1 {
			t.Errorf("Expected pinned frame owned by 1, got %+v", frame)
		}
	}

	if frames.Count() != 4 {
		t.Errorf("Expected 4 frames, got %d", frames.Count())
	}
}

func TestFrameTable_AcquireWithoutEvictor(t *testing.T) {
	frames := NewFrameTable(NewPhysicalMemory(testPageSize, testPageSize))
	frames.Acquire(1, 0x1000, true, nil)

	_, err := frames.Acquire(1, 0x2000, true, nil)
	if !errors.Is(err, models.ErrNoFreeFrame) {
		t.Errorf("Expected ErrNoFreeFrame, got %v", err)
	}
}

func TestFrameTable_ReleaseAndReleaseOwner(t *testing.T) {
	memory := NewPhysicalMemory(4*testPageSize, testPageSize)
	frames := NewFrameTable(memory)

	a, _ := frames.Acquire(1, 0x1000, true, nil)
	frames.Acquire(2, 0x1000, true, nil)
	frames.Acquire(1, 0x2000, true, nil)

	if !frames.Release(a) {
		t.Errorf("Expected release of %s to succeed", a)
	}
	if frames.Release(a) {
		t.Errorf("Expected second release of %s to fail", a)
	}

	if released := frames.ReleaseOwner(1); released != 1 {
		t.Errorf("Expected 1 frame released for pid 1, got %d", released)
	}
	if memory.FreeFrames() != 3 {
		t.Errorf("Expected 3 free frames, got %d", memory.FreeFrames())
	}

	snapshot := frames.Snapshot()
	if len(snapshot) != 1 || snapshot[0].Owner != 2 {
		t.Errorf("Expected only the frame of pid 2 to remain, got %+v", snapshot)
	}
}

func TestFrameTable_PinRange(t *testing.T) {
	frames := NewFrameTable(NewPhysicalMemory(4*testPageSize, testPageSize))
	space := NewAddressSpace(1, testPageSize)

	for i := 0; i < 2; i++ {
		page := models.VirtualAddress(0x10000 + i*testPageSize)
		paddr, _ := frames.Acquire(1, page, true, nil)
		frames.UnpinFrame(paddr)
		space.SetMapping(page, paddr, true, false, true)
	}

	// el rango toca las dos páginas presentes y una tercera sin mapear
	if pinned := frames.Pin(space, 0x10ff0, 2*testPageSize); pinned != 2 {
		t.Errorf("Expected 2 pinned frames, got %d", pinned)
	}
	for _, frame := range frames.Snapshot() {
		if frame.Pins != 1 {
			t.Errorf("Expected frame %s pinned once, got %d", frame.Address, frame.Pins)
		}
	}

	frames.Pin(space, 0x10000, 1)
	frames.Unpin(space, 0x10ff0, 2*testPageSize)

	first, _ := space.Translate(0x10000)
	frame, _ := frames.Find(first)
	if !frame.Pinned() {
		t.Errorf("Expected first frame to stay pinned by the nested pin")
	}
}
