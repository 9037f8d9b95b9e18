package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// InitServer levanta el servidor HTTP del módulo y bloquea hasta que termina. Si handler es nil se usa
// http.DefaultServeMux.
//
// Parámetros:
//   - port: puerto donde se iniciará el servidor
//   - handler: mux con las rutas del módulo
//
// Ejemplo:
//
//	func main() {
//		mux := http.NewServeMux()
//		handlers.RegisterRoutes(mux, vm)
//		if err := server.InitServer(models.MemoryConfig.PortMemory, mux); err != nil {
//			panic(err)
//		}
//	}
func InitServer(port int, handler http.Handler) error {
	addr := ":" + strconv.Itoa(port)
	slog.Info(fmt.Sprintf("Servidor escuchando en el puerto %d", port))

	err := http.ListenAndServe(addr, handler)
	if err != nil {
		slog.Error(fmt.Sprintf("Error al escuchar en el puerto %s: %v", addr, err))
	}
	return err
}

// SendJsonResponse responde 200 con data serializada a JSON.
//
// Ejemplo:
//
//	func FramesHandler(vm *services.VirtualMemory) func(http.ResponseWriter, *http.Request) {
//		return func(w http.ResponseWriter, r *http.Request) {
//			server.SendJsonResponse(w, vm.Frames().Snapshot())
//		}
//	}
func SendJsonResponse(writer http.ResponseWriter, data any) {
	SendJsonStatus(writer, http.StatusOK, data)
}

// SendJsonStatus responde con el status indicado y data serializada a JSON.
func SendJsonStatus(writer http.ResponseWriter, status int, data any) {
	response, err := json.Marshal(data)
	if err != nil {
		http.Error(writer, "Error al convertir datos a JSON", http.StatusInternalServerError)
		return
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	writer.Write(response)
}
