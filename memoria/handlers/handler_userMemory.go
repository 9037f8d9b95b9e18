package handlers

import (
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/server"
)

// ReadMemoryHandler lee memoria de usuario del proceso.
func ReadMemoryHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ReadRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		if req.Size < 0 {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}

		slog.Debug("Leyendo memoria de usuario", "PID", req.PID, "Address", req.Address, "Size", req.Size)
		data, err := vm.ReadUser(req.PID, req.Address, req.Size)
		if err != nil {
			sendError(w, err)
			return
		}
		server.SendJsonResponse(w, models.ReadResponse{Data: data})
	}
}

// WriteMemoryHandler escribe memoria de usuario del proceso.
func WriteMemoryHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.WriteRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		slog.Debug("Escribiendo memoria de usuario", "PID", req.PID, "Address", req.Address, "Size", len(req.Data))
		if err := vm.WriteUser(req.PID, req.Address, req.Data); err != nil {
			sendError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}
