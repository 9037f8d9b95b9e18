package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/log"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/client"
)

const (
	testPageSize = 4096
	testTop      = models.VirtualAddress(0xc0000000)
)

func TestMain(m *testing.M) {
	log.SetupLogger(io.Discard, "ERROR")
	os.Exit(m.Run())
}

type testServer struct {
	vm   *services.VirtualMemory
	port int
}

func newTestServer(t *testing.T, frames int, swapSlots int) *testServer {
	cfg := &models.Config{
		MemorySize:   frames * testPageSize,
		PageSize:     testPageSize,
		SectorSize:   512,
		SwapSize:     swapSlots * testPageSize,
		UserSpaceTop: uint64(testTop),
		StackMaxSize: 8 * 1024 * 1024,
		StackSlack:   32,
		LogLevel:     "ERROR",
		DumpPath:     t.TempDir(),
	}
	device := services.NewMemoryBlockDevice(cfg.SectorSize, uint32(cfg.SwapSize/cfg.SectorSize))
	vm := services.NewVirtualMemory(cfg, device)

	mux := http.NewServeMux()
	RegisterRoutes(mux, vm)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return &testServer{vm: vm, port: ts.Listener.Addr().(*net.TCPAddr).Port}
}

// post manda la request y devuelve el status y el body de la respuesta.
func (s *testServer) post(t *testing.T, query string, request any) (int, []byte) {
	t.Helper()
	body, err := json.Marshal(request)
	if err != nil {
		t.Fatalf("Expected request to marshal, got %v", err)
	}
	response, err := client.DoRequest(s.port, "127.0.0.1", "POST", query, body)
	if response == nil {
		t.Fatalf("Expected a response from %s, got %v", query, err)
	}
	defer response.Body.Close()
	data, _ := io.ReadAll(response.Body)
	return response.StatusCode, data
}

func TestHandlers_ProcessLifecycle(t *testing.T) {
	s := newTestServer(t, 4, 4)

	if status, _ := s.post(t, "memoria/proceso", models.PIDRequest{PID: 1}); status != http.StatusOK {
		t.Fatalf("Expected 200 creating the process, got %d", status)
	}
	if status, _ := s.post(t, "memoria/proceso", models.PIDRequest{PID: 1}); status != http.StatusConflict {
		t.Errorf("Expected 409 for a duplicated process, got %d", status)
	}
	if s.vm.Frames().Count() != 1 {
		t.Errorf("Expected the first stack page to be resident, got %d frames", s.vm.Frames().Count())
	}

	addr := testTop - 100
	status, _ := s.post(t, "memoria/escribir", models.WriteRequest{PID: 1, Address: addr, Data: []byte("hola mundo")})
	if status != http.StatusOK {
		t.Fatalf("Expected 200 writing, got %d", status)
	}

	var read models.ReadResponse
	err := client.PostJson(s.port, "127.0.0.1", "memoria/leer", models.ReadRequest{PID: 1, Address: addr, Size: 10}, &read)
	if err != nil || string(read.Data) != "hola mundo" {
		t.Errorf("Expected to read back the data, got %q (%v)", read.Data, err)
	}

	err = client.PostJson(s.port, "127.0.0.1", "memoria/leer", models.ReadRequest{PID: 2, Address: addr, Size: 10}, &read)
	var statusErr *client.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound || statusErr.Message == "" {
		t.Errorf("Expected 404 with a message for an unknown process, got %v", err)
	}

	if status, _ := s.post(t, "memoria/stack", models.StackPointerRequest{PID: 1, StackPointer: testTop - 3*testPageSize}); status != http.StatusOK {
		t.Errorf("Expected 200 saving the stack pointer, got %d", status)
	}
	if status, _ := s.post(t, "memoria/leer", models.ReadRequest{PID: 1, Address: testTop - 3*testPageSize, Size: 4}); status != http.StatusOK {
		t.Errorf("Expected the saved stack pointer to allow stack growth, got %d", status)
	}

	if status, _ := s.post(t, "memoria/finalizar", models.EndProcessRequest{PID: 1}); status != http.StatusOK {
		t.Errorf("Expected 200 ending the process, got %d", status)
	}
	if status, _ := s.post(t, "memoria/finalizar", models.EndProcessRequest{PID: 1}); status != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown process, got %d", status)
	}
}

func TestHandlers_FatalFaultReturnsConflict(t *testing.T) {
	s := newTestServer(t, 2, 2)
	s.post(t, "memoria/proceso", models.PIDRequest{PID: 1})

	status, body := s.post(t, "memoria/fault", models.FaultRequest{Pid: 1, Address: 0x1000, User: true, StackPointer: testTop, NotPresent: true})
	if status != http.StatusConflict {
		t.Errorf("Expected 409 for a fatal fault, got %d", status)
	}
	var response models.ErrorResponse
	if json.Unmarshal(body, &response); response.Error == "" {
		t.Errorf("Expected an error message in the body")
	}
	if _, ok := s.vm.Process(1); ok {
		t.Errorf("Expected process to be destroyed")
	}
}

func TestHandlers_MmapAndMunmap(t *testing.T) {
	s := newTestServer(t, 4, 4)
	s.post(t, "memoria/proceso", models.PIDRequest{PID: 1})

	path := filepath.Join(t.TempDir(), "datos.txt")
	os.WriteFile(path, []byte("contenido original"), 0644)

	status, body := s.post(t, "memoria/mmap", models.MmapRequest{PID: 1, Path: path, Address: 0x10000000})
	var mapped models.MmapResponse
	json.Unmarshal(body, &mapped)
	if status != http.StatusOK || mapped.MapID != 1 {
		t.Fatalf("Expected mapid 1, got %d %s", status, body)
	}

	if status, _ := s.post(t, "memoria/mmap", models.MmapRequest{PID: 1, Path: path, Address: 0x10000000}); status != http.StatusBadRequest {
		t.Errorf("Expected 400 for an overlapping mapping, got %d", status)
	}
	if status, _ := s.post(t, "memoria/mmap", models.MmapRequest{PID: 1, Path: path + ".no", Address: 0x20000000}); status != http.StatusNotFound {
		t.Errorf("Expected 404 for a missing file, got %d", status)
	}

	s.post(t, "memoria/escribir", models.WriteRequest{PID: 1, Address: 0x10000000, Data: []byte("CONTENIDO")})

	status, body = s.post(t, "memoria/mapeos", models.PIDRequest{PID: 1})
	var mappings []services.Mapping
	json.Unmarshal(body, &mappings)
	if status != http.StatusOK || len(mappings) != 1 || mappings[0].Start != 0x10000000 {
		t.Errorf("Expected one mapping at 0x10000000, got %s", body)
	}

	if status, _ := s.post(t, "memoria/munmap", models.MunmapRequest{PID: 1, MapID: 1}); status != http.StatusOK {
		t.Fatalf("Expected 200 unmapping, got %d", status)
	}
	if status, _ := s.post(t, "memoria/munmap", models.MunmapRequest{PID: 1, MapID: 1}); status != http.StatusNotFound {
		t.Errorf("Expected 404 for a second munmap, got %d", status)
	}

	content, _ := os.ReadFile(path)
	if string(content) != "CONTENIDO original" {
		t.Errorf("Expected modified content in the file, got %q", content)
	}
}

func TestHandlers_SuspendAndSwapStatus(t *testing.T) {
	s := newTestServer(t, 4, 4)
	s.post(t, "memoria/proceso", models.PIDRequest{PID: 1})
	s.post(t, "memoria/escribir", models.WriteRequest{PID: 1, Address: testTop - 8, Data: []byte{1}})

	if status, _ := s.post(t, "memoria/suspender", models.PIDRequest{PID: 1}); status != http.StatusOK {
		t.Fatalf("Expected 200 suspending, got %d", status)
	}

	response, err := client.DoRequest(s.port, "127.0.0.1", "GET", "memoria/swap")
	if err != nil {
		t.Fatalf("Expected swap status, got %v", err)
	}
	defer response.Body.Close()
	var swap struct {
		InUse int `json:"in_use"`
		Slots int `json:"slots"`
	}
	json.NewDecoder(response.Body).Decode(&swap)
	if swap.InUse != 1 || swap.Slots != 4 {
		t.Errorf("Expected 1 of 4 slots in use, got %+v", swap)
	}
}

func TestHandlers_DumpAndInvalidBody(t *testing.T) {
	s := newTestServer(t, 2, 2)
	s.post(t, "memoria/proceso", models.PIDRequest{PID: 1})

	status, body := s.post(t, "memoria/dump", models.PIDRequest{PID: 1})
	var dump models.DumpResponse
	json.Unmarshal(body, &dump)
	if info, err := os.Stat(dump.Path); status != http.StatusOK || err != nil || info.Size() != testPageSize {
		t.Errorf("Expected a dump with the stack page, got %d %s", status, body)
	}

	response, _ := client.DoRequest(s.port, "127.0.0.1", "POST", "memoria/leer", []byte("{no es json"))
	if response == nil || response.StatusCode != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid body")
	}
}

func TestHandlers_KernelPanicHaltsModule(t *testing.T) {
	var halted atomic.Bool
	halt = func() { halted.Store(true) }
	t.Cleanup(func() { halt = func() { os.Exit(1) } })

	s := newTestServer(t, 1, 0)
	s.post(t, "memoria/proceso", models.PIDRequest{PID: 1})
	s.post(t, "memoria/escribir", models.WriteRequest{PID: 1, Address: testTop - 8, Data: []byte{1}})

	// sin swap no hay dónde guardar la página modificada
	esp := testTop - testPageSize - 8
	status, _ := s.post(t, "memoria/fault", models.FaultRequest{Pid: 1, Address: esp, Write: true, User: true, StackPointer: esp, NotPresent: true})
	if status != http.StatusInternalServerError || !halted.Load() {
		t.Errorf("Expected the module to halt with 500, got %d (halted=%v)", status, halted.Load())
	}
}
