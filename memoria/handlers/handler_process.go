package handlers

import (
	"net/http"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/server"
)

// CreateProcessHandler registra un proceso nuevo y le arma la primera página del stack.
func CreateProcessHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PIDRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := vm.CreateProcess(req.PID); err != nil {
			sendError(w, err)
			return
		}
		if err := vm.SetupStack(req.PID); err != nil {
			sendError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// EndProcessHandler destruye el proceso y libera todos sus recursos.
func EndProcessHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.EndProcessRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := vm.ExitProcess(req.PID, req.Status); err != nil {
			sendError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// PageFaultHandler resuelve un fallo de página informado por la CPU. Si el fallo es fatal el proceso ya fue
// destruido cuando se responde.
func PageFaultHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.FaultRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := vm.HandlePageFault(req); err != nil {
			sendError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// SaveStackPointerHandler guarda el stack pointer de usuario del proceso al entrar a una syscall.
func SaveStackPointerHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.StackPointerRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		if err := vm.SaveStackPointer(req.PID, req.StackPointer); err != nil {
			sendError(w, err)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// DumpMemoryHandler genera el dump de las páginas residentes del proceso.
func DumpMemoryHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.PIDRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		path, err := vm.ExecuteDumpMemory(req.PID)
		if err != nil {
			sendError(w, err)
			return
		}
		server.SendJsonResponse(w, models.DumpResponse{Path: path})
	}
}
