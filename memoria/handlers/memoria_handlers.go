package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/server"
)

// halt detiene el módulo ante un kernel panic.
var halt = func() { os.Exit(1) }

// MemoryConfigHandler devuelve la configuración con la que está corriendo la memoria.
func MemoryConfigHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		server.SendJsonResponse(w, vm.Config())
	}
}

// FramesHandler devuelve la tabla de marcos en el orden en que la recorre el desalojo.
func FramesHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		server.SendJsonResponse(w, vm.Frames().Snapshot())
	}
}

// KernelPanicGuard envuelve un handler: si durante la request se produce un kernel panic (por ejemplo, swap
// lleno) lo loguea y detiene el módulo. Cualquier otro panic sigue su curso.
func KernelPanicGuard(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			kernelPanic, ok := recovered.(models.KernelPanic)
			if !ok {
				panic(recovered)
			}
			slog.Error(kernelPanic.Error())
			http.Error(w, kernelPanic.Error(), http.StatusInternalServerError)
			halt()
		}()
		next(w, r)
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, request any) bool {
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		slog.Error("Invalid request", "error", err)
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func sendError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error(err.Error())
	} else {
		slog.Debug(fmt.Sprintf("Request rechazada (%d): %v", status, err))
	}

	server.SendJsonStatus(w, status, models.ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	var fatal *models.ProcessFatalError
	switch {
	case errors.As(err, &fatal):
		return http.StatusConflict
	case errors.Is(err, models.ErrNoSuchProcess), errors.Is(err, models.ErrNoSuchMapping):
		return http.StatusNotFound
	case errors.Is(err, models.ErrProcessExists):
		return http.StatusConflict
	case errors.Is(err, models.ErrInvalidMapping):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNoFreeFrame), errors.Is(err, models.ErrNoVictim):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}
