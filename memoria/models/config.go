package models

import (
	"fmt"
	"math/bits"
)

type Config struct {
	PortMemory   int    `json:"port_memory"`
	MemorySize   int    `json:"memory_size"`
	PageSize     int    `json:"page_size"`
	SectorSize   int    `json:"sector_size"`
	SwapFilePath string `json:"swap_file_path"`
	SwapSize     int    `json:"swap_size"`
	SwapDelay    int    `json:"swap_delay"`
	UserSpaceTop uint64 `json:"user_space_top"`
	StackMaxSize int    `json:"stack_max_size"`
	StackSlack   int    `json:"stack_slack"`
	LogLevel     string `json:"log_level"`
	DumpPath     string `json:"dump_path"`
}

var MemoryConfig *Config

// Validate verifica que los tamaños de la configuración sean coherentes entre sí.
func (c *Config) Validate() error {
	if c.PageSize <= 0 || bits.OnesCount(uint(c.PageSize)) != 1 {
		return fmt.Errorf("page_size debe ser una potencia de 2, se recibió %d", c.PageSize)
	}
	if c.MemorySize < c.PageSize || c.MemorySize%c.PageSize != 0 {
		return fmt.Errorf("memory_size (%d) debe ser múltiplo de page_size (%d)", c.MemorySize, c.PageSize)
	}
	if c.SectorSize <= 0 || c.PageSize%c.SectorSize != 0 {
		return fmt.Errorf("sector_size (%d) debe dividir a page_size (%d)", c.SectorSize, c.PageSize)
	}
	if c.SwapSize < 0 || c.SwapSize%c.PageSize != 0 {
		return fmt.Errorf("swap_size (%d) debe ser múltiplo de page_size (%d)", c.SwapSize, c.PageSize)
	}
	if c.UserSpaceTop == 0 || c.UserSpaceTop%uint64(c.PageSize) != 0 {
		return fmt.Errorf("user_space_top (%#x) debe estar alineado a página", c.UserSpaceTop)
	}
	if c.StackMaxSize < c.PageSize || uint64(c.StackMaxSize) >= c.UserSpaceTop {
		return fmt.Errorf("stack_max_size (%d) fuera de rango", c.StackMaxSize)
	}
	if c.StackSlack < 0 {
		return fmt.Errorf("stack_slack (%d) no puede ser negativo", c.StackSlack)
	}
	return nil
}

// FrameCount devuelve la cantidad de marcos de la memoria de usuario.
func (c *Config) FrameCount() int {
	return c.MemorySize / c.PageSize
}

// SectorsPerPage devuelve cuántos sectores del dispositivo de swap ocupa una página.
func (c *Config) SectorsPerPage() int {
	return c.PageSize / c.SectorSize
}

// StackBottom devuelve la dirección más baja a la que puede crecer el stack.
func (c *Config) StackBottom() VirtualAddress {
	return VirtualAddress(c.UserSpaceTop - uint64(c.StackMaxSize))
}
