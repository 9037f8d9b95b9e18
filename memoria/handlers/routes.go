package handlers

import (
	"net/http"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/services"
	webHandlers "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/handlers"
)

// RegisterRoutes registra en mux todos los endpoints de memoria.
//
// Ejemplo:
//
//	func main() {
//		mux := http.NewServeMux()
//		handlers.RegisterRoutes(mux, vm)
//		server.InitServer(models.MemoryConfig.PortMemory, mux)
//	}
func RegisterRoutes(mux *http.ServeMux, vm *services.VirtualMemory) {
	mux.HandleFunc("GET /", webHandlers.HandshakeHandler("Bienvenido al módulo de Memoria"))
	mux.HandleFunc("GET /memoria", webHandlers.HandshakeHandler("Memoria en funcionamiento 🚀"))
	mux.HandleFunc("GET /config/memoria", MemoryConfigHandler(vm))
	mux.HandleFunc("GET /memoria/marcos", FramesHandler(vm))
	mux.HandleFunc("GET /memoria/swap", SwapStatusHandler(vm))

	mux.HandleFunc("POST /memoria/proceso", KernelPanicGuard(CreateProcessHandler(vm)))
	mux.HandleFunc("POST /memoria/finalizar", KernelPanicGuard(EndProcessHandler(vm)))
	mux.HandleFunc("POST /memoria/suspender", KernelPanicGuard(SuspendProcessHandler(vm)))
	mux.HandleFunc("POST /memoria/stack", SaveStackPointerHandler(vm))
	mux.HandleFunc("POST /memoria/fault", KernelPanicGuard(PageFaultHandler(vm)))
	mux.HandleFunc("POST /memoria/leer", KernelPanicGuard(ReadMemoryHandler(vm)))
	mux.HandleFunc("POST /memoria/escribir", KernelPanicGuard(WriteMemoryHandler(vm)))
	mux.HandleFunc("POST /memoria/segmento", KernelPanicGuard(SegmentHandler(vm)))
	mux.HandleFunc("POST /memoria/mmap", KernelPanicGuard(MmapHandler(vm)))
	mux.HandleFunc("POST /memoria/munmap", KernelPanicGuard(MunmapHandler(vm)))
	mux.HandleFunc("POST /memoria/mapeos", MappingsHandler(vm))
	mux.HandleFunc("POST /memoria/dump", KernelPanicGuard(DumpMemoryHandler(vm)))
}
