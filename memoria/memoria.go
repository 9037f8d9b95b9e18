package main

import (
	"fmt"
	"log/slog"
	"net/http"

	memoryHandler "github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/handlers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/helpers"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/models"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/memoria/services"
	"github.com/sisoputnfrba/tp-2025-2c-Los-magiOS-vm/utils/web/server"
)

const (
	//NO borrar el comentario de ConfigPath
	ConfigPath = "memoria/configs/memoria.json" //"./configs/memoria.json"
	LogPath    = "./logs/memoria.log"           //"./memoria.log"
)

func main() {
	helpers.InitMemory(ConfigPath, LogPath)
	cfg := models.MemoryConfig

	device, err := services.NewFileBlockDevice(cfg.SwapFilePath, cfg.SectorSize, uint32(cfg.SwapSize/cfg.SectorSize))
	if err != nil {
		slog.Error(fmt.Sprintf("error initializing swap: %v", err))
		panic(err)
	}
	defer device.Close()

	vm := services.NewVirtualMemory(cfg, device)
	mux := http.NewServeMux()
	memoryHandler.RegisterRoutes(mux, vm)
	slog.Info("Memoria lista")

	err = server.InitServer(cfg.PortMemory, mux)
	if err != nil {
		slog.Error(fmt.Sprintf("error initializing server: %v", err))
		panic(err)
	}
}
