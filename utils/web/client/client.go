package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Tiempo máximo de una request. Un fallo de página puede tener que esperar E/S de swap o de archivo.
const requestTimeout = 30 * time.Second

var httpClient = &http.Client{Timeout: requestTimeout}

// StatusError es la respuesta de un servidor con un status distinto de 200. Message es el campo "error"
// del body si el servidor lo mandó en JSON, o el body completo si no.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("status %d %s: %s", e.Code, http.StatusText(e.Code), e.Message)
}

// DoRequest realiza una petición HTTP al módulo que escucha en ip:port. Si el status no es 200 devuelve la
// respuesta (con el body sin leer) junto con un error.
//
// Parámetros:
//   - port: el puerto al que se hará la petición
//   - ip: la IP o dominio del servidor
//   - metodo: metodo HTTP
//   - query: parte final de la URL, sin la barra inicial
//   - bodies: (opcional) body del request en JSON
//
// Ejemplo:
//
//	func main() {
//		body, _ := json.Marshal(models.PIDRequest{PID: 1})
//		response, err := client.DoRequest(8002, "127.0.0.1", "POST", "memoria/suspender", body)
//		if err != nil {
//			slog.Error(fmt.Sprintf("Ocurrió un error: %v", err))
//			return
//		}
//		defer response.Body.Close()
//	}
func DoRequest(port int, ip string, metodo string, query string, bodies ...[]byte) (*http.Response, error) {
	url := fmt.Sprintf("http://%s:%d/%s", ip, port, query)

	req, err := http.NewRequest(metodo, url, ifBody(bodies...))
	if err != nil {
		slog.Error(fmt.Sprintf("error creando request a ip: %s puerto: %d", ip, port))
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	respuesta, err := httpClient.Do(req)
	if err != nil {
		slog.Error(fmt.Sprintf("error enviando request a ip: %s puerto: %d - %v", ip, port, err))
		return nil, err
	}

	if respuesta.StatusCode != http.StatusOK {
		slog.Debug(fmt.Sprintf("%s %s respondió %d", metodo, query, respuesta.StatusCode))
		return respuesta, &StatusError{Code: respuesta.StatusCode}
	}
	return respuesta, nil
}

// PostJson manda request serializado a JSON por POST y decodifica la respuesta en response (si no es nil).
// Un status distinto de 200 se devuelve como *StatusError con el mensaje del servidor.
func PostJson(port int, ip string, query string, request any, response any) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("no se pudo serializar la request a %s: %w", query, err)
	}

	respuesta, err := DoRequest(port, ip, http.MethodPost, query, body)
	if respuesta == nil {
		return err
	}
	defer respuesta.Body.Close()

	data, readErr := io.ReadAll(respuesta.Body)
	if err != nil {
		statusErr := err.(*StatusError)
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
			statusErr.Message = payload.Error
		} else {
			statusErr.Message = string(bytes.TrimSpace(data))
		}
		return statusErr
	}
	if readErr != nil {
		return readErr
	}

	if response == nil {
		return nil
	}
	return json.Unmarshal(data, response)
}

func ifBody(bodies ...[]byte) io.Reader {
	if len(bodies) == 0 || bodies[0] == nil {
		return nil
	}
	return bytes.NewReader(bodies[0])
}
