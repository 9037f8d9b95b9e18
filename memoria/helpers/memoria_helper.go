package helpers

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/config"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/log"
)

// CreateDirectory crea un directorio en el path especificado.
func CreateDirectory(dir string) error {
	err := os.MkdirAll(dir, os.ModePerm)
	if err != nil {
		slog.Error(fmt.Sprintf("Error al crear el directorio %s: %v", dir, err))
		return err
	}

	slog.Debug(fmt.Sprintf("Directorio %s creado o ya existía.", dir))
	return nil
}

// InitMemory carga la configuración, la valida e inicializa el logger y el directorio de dumps.
// Si la configuración no es válida hace panic, igual que config.InitConfig.
func InitMemory(configPath string, logPath string) {
	config.InitConfig(configPath, &models.MemoryConfig)
	if err := models.MemoryConfig.Validate(); err != nil {
		panic(fmt.Errorf("configuración de memoria inválida: %w", err))
	}

	log.InitLogger(logPath, models.MemoryConfig.LogLevel)

	slog.Debug(fmt.Sprintf("Port Memory: %d", models.MemoryConfig.PortMemory))
	slog.Debug(fmt.Sprintf("Marcos: %d de %d bytes", models.MemoryConfig.FrameCount(), models.MemoryConfig.PageSize))
	CreateDirectory(models.MemoryConfig.DumpPath)
}

func GetDumpName(pid models.Pid) string {
	timestamp := time.Now().Format("20060102-150405")
	return fmt.Sprintf("%d-%s.dmp", pid, timestamp)
}

// ApplyDelay simula la latencia de una operación.
func ApplyDelay(operation string, delayMs int) {
	if delayMs <= 0 {
		return
	}
	slog.Debug("Aplicando retardo", "operación", operation, "duración_ms", delayMs)
	time.Sleep(time.Duration(delayMs) * time.Millisecond)
}
