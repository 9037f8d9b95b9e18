package models

import (
	"errors"
	"testing"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		addr     VirtualAddress
		length   int
		expected int
	}{
		{0x1000, 0, 0},
		{0x1000, 1, 1},
		{0x1000, 4096, 1},
		{0x1000, 4097, 2},
		{0x1ffa, 10, 2},
		{0x1fff, 4098, 3},
	}

	for _, tt := range tests {
		if got := PageCount(tt.addr, tt.length, 4096); got != tt.expected {
			t.Errorf("Expected %d pages for [%s, +%d), got %d", tt.expected, tt.addr, tt.length, got)
		}
	}
}

func TestPage_Validate(t *testing.T) {
	origin := &Origin{Offset: 0, ReadBytes: 10, Location: LocationExec}

	if err := NewZeroPage().Validate(); err != nil {
		t.Errorf("Expected valid ZERO page, got %v", err)
	}
	if err := NewOriginPage(origin).Validate(); err != nil {
		t.Errorf("Expected valid EXEC page, got %v", err)
	}
	if err := NewSwapPage(&SwapSlot{Index: 3, Sector: 24}).Validate(); err != nil {
		t.Errorf("Expected valid SWAP page, got %v", err)
	}

	invalid := []*Page{
		{Location: LocationSwap},
		{Location: LocationZero, Slot: &SwapSlot{}},
		{Location: LocationFile, Origin: origin},
		{Location: Location(9)},
	}
	for _, page := range invalid {
		if page.Validate() == nil {
			t.Errorf("Expected %+v to be invalid", page)
		}
	}
}

func TestNewOriginPage_RejectsSwapLocation(t *testing.T) {
	defer func() {
		if _, ok := recover().(KernelPanic); !ok {
			t.Errorf("Expected KernelPanic")
		}
	}()
	NewOriginPage(&Origin{Location: LocationSwap})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			MemorySize:   64 * 4096,
			PageSize:     4096,
			SectorSize:   512,
			SwapSize:     128 * 4096,
			UserSpaceTop: 0xc0000000,
			StackMaxSize: 8 << 20,
			StackSlack:   32,
		}
	}

	if err := valid().Validate(); err != nil {
		t.Fatalf("Expected valid config, got %v", err)
	}
	if valid().FrameCount() != 64 || valid().SectorsPerPage() != 8 {
		t.Errorf("Expected 64 frames of 8 sectors")
	}

	broken := []func(*Config){
		func(c *Config) { c.PageSize = 3000 },
		func(c *Config) { c.MemorySize = 4096*3 + 1 },
		func(c *Config) { c.SectorSize = 1000 },
		func(c *Config) { c.SwapSize = 100 },
		func(c *Config) { c.UserSpaceTop = 0xc0000010 },
		func(c *Config) { c.StackMaxSize = 0 },
		func(c *Config) { c.StackSlack = -1 },
	}
	for i, breakConfig := range broken {
		c := valid()
		breakConfig(c)
		if c.Validate() == nil {
			t.Errorf("Expected config %d to be invalid", i)
		}
	}
}

func TestProcessFatalError_Unwrap(t *testing.T) {
	err := &ProcessFatalError{Pid: 2, Address: 0x1000, Reason: "sin marco", Err: ErrNoFreeFrame}

	if !errors.Is(err, ErrNoFreeFrame) {
		t.Errorf("Expected fatal error to wrap ErrNoFreeFrame")
	}
	if err.Error() == "" {
		t.Errorf("Expected a message")
	}
}

func TestMetrics_Snapshot(t *testing.T) {
	var m Metrics
	m.PageFaults.Add(3)
	m.SwapsOut.Add(1)

	snapshot := m.Snapshot()
	if snapshot.PageFaults != 3 || snapshot.SwapsOut != 1 || snapshot.SwapsIn != 0 {
		t.Errorf("Expected 3 faults and 1 swap out, got %+v", snapshot)
	}
}
