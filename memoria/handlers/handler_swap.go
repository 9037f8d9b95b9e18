package handlers

import (
	"log/slog"
	"net/http"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/server"
)

// SuspendProcessHandler saca de memoria principal todas las páginas del proceso.
func SuspendProcessHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PIDRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		slog.Debug("Iniciando SUSPENDER PROCESO", "PID", req.PID)
		evicted, err := vm.SuspendProcess(req.PID)
		if err != nil {
			sendError(w, err)
			return
		}

		response := struct {
			PID     models.Pid `json:"pid"`
			Evicted int        `json:"evicted"`
		}{
			PID:     req.PID,
			Evicted: evicted,
		}
		server.SendJsonResponse(w, response)
	}
}

// SwapStatusHandler informa cuántos slots de swap están en uso.
func SwapStatusHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		response := struct {
			InUse int `json:"in_use"`
			Slots int `json:"slots"`
		}{
			InUse: vm.Swap().InUse(),
			Slots: vm.Swap().SlotCount(),
		}
		server.SendJsonResponse(w, response)
	}
}
