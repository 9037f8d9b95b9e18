package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Para su uso se debe posicionar en la carpeta scripts
// > ./update_config.exe port_memory 8002
// > ./update_config.exe memory_size 65536 page_size 4096 swap_size 4194304
// > ./update_config.exe log_level "INFO" swap_delay 50

// Carpetas de los módulos cuyas configuraciones se actualizan.
var modules = []string{"memoria"}

func main() {
	// Verificar que se pasen argumentos en pares: clave1 valor1 clave2 valor2 ...
	updates, err := parseUpdates(os.Args[1:])
	if err != nil {
		fmt.Println(err)
		fmt.Println("Uso: update_config <clave_1> <valor_1> [<clave_2> <valor_2> ...]")
		fmt.Println("Ejemplo: update_config page_size 4096 swap_size 8388608")
		return
	}

	fmt.Println("Valores a actualizar:")
	for k, v := range updates {
		fmt.Printf("  %s: %v\n", k, v)
	}

	for _, module := range modules {
		moduleConfigPath := filepath.Join("..", module, "configs")
		fmt.Printf("\nProcesando módulo: %s (en %s)\n", module, moduleConfigPath)

		err := filepath.Walk(moduleConfigPath, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				fmt.Printf("  Error al acceder %s: %v\n", path, err)
				return nil
			}
			if info.IsDir() || filepath.Ext(path) != ".json" {
				return nil
			}

			modified, err := updateConfigFile(path, updates)
			switch {
			case err != nil:
				fmt.Printf("  Error al actualizar %s: %v\n", path, err)
			case modified:
				fmt.Printf("  El archivo %s ha sido actualizado correctamente.\n", path)
			default:
				fmt.Printf("  No se encontraron claves a actualizar en %s.\n", path)
			}
			return nil
		})

		if err != nil {
			fmt.Printf("Error al buscar archivos en la carpeta %s: %v\n", moduleConfigPath, err)
		}
	}

	fmt.Println("\nProceso de actualización de configuraciones finalizado.")
}

// parseUpdates convierte los argumentos clave valor en un mapa. Cada valor se interpreta como JSON (números,
// booleanos) y si no lo es se toma como string.
func parseUpdates(args []string) (map[string]interface{}, error) {
	if len(args) < 2 || len(args)%2 != 0 {
		return nil, fmt.Errorf("se esperaban pares clave valor, se recibieron %d argumentos", len(args))
	}

	updates := make(map[string]interface{})
	for i := 0; i < len(args); i += 2 {
		var parsedValue interface{}
		if err := json.Unmarshal([]byte(args[i+1]), &parsedValue); err != nil {
			parsedValue = args[i+1]
		}
		updates[args[i]] = parsedValue
	}
	return updates, nil
}

// updateConfigFile reemplaza en el JSON de path las claves que ya existen en él. Las claves que el archivo no
// tiene se ignoran, así una misma actualización sirve para varios módulos.
func updateConfigFile(path string, updates map[string]interface{}) (bool, error) {
	fileContent, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(fileContent, &data); err != nil {
		return false, fmt.Errorf("JSON inválido: %w", err)
	}

	modified := false
	for updateKey, updateValue := range updates {
		if _, ok := data[updateKey]; ok {
			data[updateKey] = updateValue
			fmt.Printf("    Modificada '%s' en %s a '%v'\n", updateKey, path, updateValue)
			modified = true
		}
	}
	if !modified {
		return false, nil
	}

	newJSON, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, err
	}
	return true, os.WriteFile(path, newJSON, 0644)
}
