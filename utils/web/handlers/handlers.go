package handlers

import (
	"net/http"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/server"
)

// HandshakeHandler responde message en JSON. Se usa para chequear que el módulo está levantado.
//
// Ejemplo:
//
//	mux.HandleFunc("GET /memoria", handlers.HandshakeHandler("Memoria en funcionamiento"))
func HandshakeHandler(message string) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		server.SendJsonResponse(writer, map[string]string{"mensaje": message})
	}
}
