package services

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

func TestVirtualMemory_ConcurrentProcesses(t *testing.T) {
	const (
		processes = 4
		pages     = 3
	)
	vm, _ := newTestVM(t, 3, processes*pages+4)

	layouts := make([]func(int) models.VirtualAddress, processes)
	for i := range layouts {
		layouts[i] = newStackProcess(t, vm, models.Pid(i+1))
	}

	// con mucha contención el pin de una página puede agotar sus intentos
	retry := func(fn func() error) error {
		for {
			err := fn()
			if !errors.Is(err, models.ErrNoFreeFrame) {
				return err
			}
		}
	}

	var wg sync.WaitGroup
	errs := make(chan error, processes)
	for i := 0; i < processes; i++ {
		wg.Add(1)
		go func(pid models.Pid, page func(int) models.VirtualAddress) {
			defer wg.Done()
			for round := 0; round < 3; round++ {
				for n := 0; n < pages; n++ {
					data := pattern(byte(int(pid)*10+n+round), testPageSize)
					if err := retry(func() error { return vm.WriteUser(pid, page(n), data) }); err != nil {
						errs <- err
						return
					}
				}
				for n := 0; n < pages; n++ {
					var read []byte
					err := retry(func() error {
						var err error
						read, err = vm.ReadUser(pid, page(n), testPageSize)
						return err
					})
					if err != nil {
						errs <- err
						return
					}
					if !bytes.Equal(read, pattern(byte(int(pid)*10+n+round), testPageSize)) {
						errs <- fmt.Errorf("pid %d: contenido incorrecto en la página %d", pid, n)
						return
					}
				}
			}
		}(models.Pid(i+1), layouts[i])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	seen := map[models.PhysicalAddress]bool{}
	for _, frame := range vm.Frames().Snapshot() {
		if seen[frame.Address] {
			t.Errorf("Expected frame %s to be registered once", frame.Address)
		}
		seen[frame.Address] = true
		if paddr, ok := func() (models.PhysicalAddress, bool) {
			process, _ := vm.Process(frame.Owner)
			return process.Space.Translate(frame.Page)
		}(); !ok || paddr != frame.Address {
			t.Errorf("Expected page %s of pid %d mapped to %s", frame.Page, frame.Owner, frame.Address)
		}
	}

	for i := 0; i < processes; i++ {
		vm.ExitProcess(models.Pid(i+1), 0)
	}
	if vm.Swap().InUse() != 0 || vm.Memory().FreeFrames() != 3 {
		t.Errorf("Expected all resources released, got %d slots and %d free frames", vm.Swap().InUse(), vm.Memory().FreeFrames())
	}
}

func TestVirtualMemory_ConcurrentFaultsOnSamePage(t *testing.T) {
	vm, _ := newTestVM(t, 2, 2)
	page := newStackProcess(t, vm, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := vm.HandlePageFault(models.FaultRequest{Pid: 1, Address: page(0), User: false, NotPresent: true})
			if err != nil {
				t.Errorf("Expected fault to be resolved, got %v", err)
			}
		}()
	}
	wg.Wait()

	if vm.Frames().Count() != 1 {
		t.Errorf("Expected a single frame for the page, got %d", vm.Frames().Count())
	}
}
