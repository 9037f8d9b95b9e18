package models

import (
	"errors"
	"fmt"
)

var (
	ErrNoSuchProcess  = errors.New("proceso inexistente")
	ErrProcessExists  = errors.New("el proceso ya existe")
	ErrNoSuchMapping  = errors.New("mapeo inexistente")
	ErrInvalidMapping = errors.New("mapeo inválido")
	ErrNoFreeFrame    = errors.New("no hay marcos libres")
	ErrNoVictim       = errors.New("no hay marcos desalojables")
	ErrSwapFull       = errors.New("no hay slots libres en swap")
)

// KernelPanic es el valor con el que se hace panic ante un error del que el sistema no puede recuperarse,
// por ejemplo quedarse sin swap para memoria anónima.
type KernelPanic string

func (k KernelPanic) Error() string {
	return "kernel panic: " + string(k)
}

// ProcessFatalError indica que el proceso fue terminado por un fallo de página que no se pudo resolver.
type ProcessFatalError struct {
	Pid     Pid
	Address VirtualAddress
	Reason  string
	Err     error
}

func (e *ProcessFatalError) Error() string {
	msg := fmt.Sprintf("proceso %d terminado en %s: %s", e.Pid, e.Address, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProcessFatalError) Unwrap() error {
	return e.Err
}
