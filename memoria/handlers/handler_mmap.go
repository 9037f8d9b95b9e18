package handlers

import (
	"net/http"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/server"
)

// MmapHandler mapea un archivo en el espacio de direcciones del proceso.
func MmapHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.MmapRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		file, err := vm.FileSystem().Open(req.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		// el mapeo trabaja con su propio handle
		defer file.Close()

		mapID, err := vm.Mmap(req.PID, file, req.Address)
		if err != nil {
			sendError(w, err)
			return
		}
		server.SendJsonResponse(w, models.MmapResponse{MapID: mapID})
	}
}

// MunmapHandler deshace un mapeo, escribiendo en el archivo las páginas modificadas.
func MunmapHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.MunmapRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := vm.Munmap(req.PID, req.MapID); err != nil {
			sendError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// SegmentHandler prepara la carga por demanda de un segmento de un ejecutable.
func SegmentHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.SegmentRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		file, err := vm.FileSystem().Open(req.Path)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		err = vm.LoadSegment(req.PID, file, req.Offset, req.Address, req.ReadBytes, req.ZeroBytes, req.Writable)
		if err != nil {
			file.Close()
			sendError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// MappingsHandler lista los mapeos de archivos del proceso.
func MappingsHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PIDRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		mappings, err := vm.Mappings(req.PID)
		if err != nil {
			sendError(w, err)
			return
		}
		server.SendJsonResponse(w, mappings)
	}
}
