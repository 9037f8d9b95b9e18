package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// InitConfig lee el archivo de configuración y carga sus valores en config. Si el archivo no existe o
// no es un JSON válido finaliza con panic, ya que el módulo no puede arrancar sin configuración.
//
// Parámetros:
//   - filePath: ubicacion donde se encuentra el archivo de configuracion
//   - config: puntero a la estructura que se quiere completar
//
// Ejemplo:
//
//	func main() {
//		var memoryConfig *models.Config
//		config.InitConfig("memoria/configs/memoria.json", &memoryConfig)
//	}
func InitConfig(filePath string, config interface{}) {
	err := setupConfig(filePath, config)
	if err != nil {
		panic(fmt.Errorf("error al configurar el archivo %s: %w", filePath, err))
	}
}

// LoadConfig es igual a InitConfig pero devuelve el error en lugar de finalizar.
//
// Ejemplo:
//
//	cfg, err := config.LoadConfig[models.Config]("memoria/configs/memoria.json")
func LoadConfig[T any](filePath string) (*T, error) {
	var config T
	if err := setupConfig(filePath, &config); err != nil {
		return nil, fmt.Errorf("error al configurar el archivo %s: %w", filePath, err)
	}
	return &config, nil
}

func setupConfig(filePath string, config interface{}) error {
	configFile, err := os.Open(filePath)

	if err != nil {
		return err
	}

	defer configFile.Close()

	jsonParser := json.NewDecoder(configFile)
	jsonParser.DisallowUnknownFields()

	if err := jsonParser.Decode(config); err != nil {
		return err
	}

	return nil
}
