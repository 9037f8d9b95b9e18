package services

import "testing"

func TestPhysicalMemory_AllocateUntilFull(t *testing.T) {
	memory := NewPhysicalMemory(3*testPageSize, testPageSize)

	seen := make(map[uint64]bool)
	for i := 0; i < 3; i++ {
		paddr, ok := memory.Allocate()
		if !ok {
			t.Fatalf("Expected frame %d to be allocated", i)
		}
		if seen[uint64(paddr)] {
			t.Errorf("Expected unique frames, got %s twice", paddr)
		}
		seen[uint64(paddr)] = true
	}

	if _, ok := memory.Allocate(); ok {
		t.Errorf("Expected memory to be full")
	}
	if memory.FreeFrames() != 0 {
		t.Errorf("Expected 0 free frames, got %d", memory.FreeFrames())
	}
}

func TestPhysicalMemory_FreeAndReuse(t *testing.T) {
	memory := NewPhysicalMemory(2*testPageSize, testPageSize)
	first, _ := memory.Allocate()
	memory.Allocate()

	memory.Page(first)[10] = 0xAB
	memory.Free(first)

	paddr, ok := memory.Allocate()
	if !ok || paddr != first {
		t.Errorf("Expected frame %s to be reused, got %s", first, paddr)
	}

	memory.Zero(paddr)
	if memory.Page(paddr)[10] != 0 {
		t.Errorf("Expected frame to be zeroed")
	}
}

func TestPhysicalMemory_DoubleFreePanics(t *testing.T) {
	memory := NewPhysicalMemory(testPageSize, testPageSize)
	paddr, _ := memory.Allocate()
	memory.Free(paddr)

	expectKernelPanic(t, func() { memory.Free(paddr) })
}
