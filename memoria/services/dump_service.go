package services

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/helpers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
)

// ExecuteDumpMemory escribe en el directorio de dumps el contenido de las páginas residentes del proceso,
// en orden de dirección. Las páginas que no están en memoria no se incluyen ni se traen. Devuelve la ruta
// del archivo generado.
func (vm *VirtualMemory) ExecuteDumpMemory(pid models.Pid) (string, error) {
	slog.Info(fmt.Sprintf("## PID: %d - Memory Dump solicitado", pid))

	process, err := vm.lockProcess(pid)
	if err != nil {
		return "", err
	}
	defer process.faultMu.Unlock()

	dumpFilePath := filepath.Join(vm.config.DumpPath, helpers.GetDumpName(pid))
	file, err := os.Create(dumpFilePath)
	if err != nil {
		slog.Error(fmt.Sprintf("error al crear archivo de dump: %v", err))
		return "", err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	pages := 0
	for _, entry := range process.Space.Entries() {
		if !entry.Present {
			continue
		}
		if !vm.frames.PinFrame(entry.Frame) {
			continue
		}
		// el marco pudo desalojarse entre la copia de las entradas y el pin
		if paddr, ok := process.Space.Translate(entry.Page); !ok || paddr != entry.Frame {
			vm.frames.UnpinFrame(entry.Frame)
			continue
		}
		_, err := writer.Write(vm.memory.Page(entry.Frame))
		vm.frames.UnpinFrame(entry.Frame)
		if err != nil {
			return "", fmt.Errorf("fallo al escribir datos al archivo de dump: %w", err)
		}
		slog.Debug(fmt.Sprintf("PID: %d - Dump de la página %s (marco %s)", pid, entry.Page, entry.Frame))
		pages++
	}

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("fallo al escribir datos al archivo de dump: %w", err)
	}

	slog.Info(fmt.Sprintf("## PID: %d - Memory Dump completado - Archivo: %s - Páginas: %d", pid, dumpFilePath, pages))
	return dumpFilePath, nil
}
