package services

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

func TestExecuteDumpMemory_ResidentPagesInAddressOrder(t *testing.T) {
	vm, _ := newTestVM(t, 4, 4)
	page := newStackProcess(t, vm, 1)

	low := pattern(3, testPageSize)
	high := pattern(7, testPageSize)
	vm.WriteUser(1, page(2), low)
	vm.WriteUser(1, page(0), high)

	path, err := vm.ExecuteDumpMemory(1)
	if err != nil {
		t.Fatalf("Expected dump to succeed, got %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected dump file at %s, got %v", path, err)
	}
	if !bytes.Equal(content, append(append([]byte(nil), low...), high...)) {
		t.Errorf("Expected both pages in address order, got %d bytes", len(content))
	}
}

func TestExecuteDumpMemory_SkipsPagesNotInMemory(t *testing.T) {
	vm, device := newTestVM(t, 4, 4)
	page := newStackProcess(t, vm, 1)
	vm.WriteUser(1, page(0), []byte{1})

	if evicted, err := vm.SuspendProcess(1); err != nil || evicted != 1 {
		t.Fatalf("Expected 1 frame evicted, got %d (%v)", evicted, err)
	}
	writes := device.Writes()

	path, err := vm.ExecuteDumpMemory(1)
	if err != nil {
		t.Fatalf("Expected dump to succeed, got %v", err)
	}
	if info, _ := os.Stat(path); info.Size() != 0 {
		t.Errorf("Expected empty dump, got %d bytes", info.Size())
	}
	if device.Reads() != 0 || device.Writes() != writes || vm.Frames().Count() != 0 {
		t.Errorf("Expected dump not to bring pages back")
	}
}

func TestExecuteDumpMemory_UnknownProcess(t *testing.T) {
	vm, _ := newTestVM(t, 2, 2)

	if _, err := vm.ExecuteDumpMemory(5); !errors.Is(err, models.ErrNoSuchProcess) {
		t.Errorf("Expected ErrNoSuchProcess, got %v", err)
	}
}
